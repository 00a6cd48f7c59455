// Package flags holds the feature flags read from the `flags` config section.
// Names the build does not know are kept, reported once, and read as disabled.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/nodegraph/internal/log"
)

const (
	// FlagWatchSync makes `nodegraph watch` import every reloaded file into the
	// graph catalog.
	FlagWatchSync = "watch-sync"

	// FlagInspectPorts makes `nodegraph inspect` list the ports of every node.
	FlagInspectPorts = "inspect-ports"
)

// Definition describes a flag this build understands.
type Definition struct {
	Name        string
	Description string
}

// Known lists every flag this build reads, in display order.
var Known = []Definition{
	{Name: FlagWatchSync, Description: "watch imports every change into the catalog"},
	{Name: FlagInspectPorts, Description: "inspect lists the ports of every node"},
}

func isKnown(name string) bool {
	return slices.ContainsFunc(Known, func(d Definition) bool { return d.Name == name })
}

// State is a known flag with its configured value.
type State struct {
	Definition
	Enabled    bool
	Configured bool
}

// Registry holds feature flag state loaded from configuration.
// It is read-only after New.
type Registry struct {
	flags   map[string]bool
	unknown []string
}

// New copies flags into a Registry. A nil map disables everything.
func New(flags map[string]bool) *Registry {
	r := &Registry{flags: make(map[string]bool, len(flags))}
	maps.Copy(r.flags, flags)
	for _, name := range slices.Sorted(maps.Keys(r.flags)) {
		if !isKnown(name) {
			r.unknown = append(r.unknown, name)
		}
	}
	if len(r.unknown) > 0 {
		log.Warn(log.CatConfig, "unknown feature flags in config", "flags", r.unknown)
	}
	log.Debug(log.CatConfig, "feature flags loaded", "count", len(r.flags))
	return r
}

// Enabled reports whether name is switched on. Unset flags and a nil Registry
// read as disabled.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	return r.flags[name]
}

// All returns a copy of every configured flag, known or not.
func (r *Registry) All() map[string]bool {
	if r == nil {
		return map[string]bool{}
	}
	return maps.Clone(r.flags)
}

// States returns every known flag with its value, in Known order.
func (r *Registry) States() []State {
	out := make([]State, 0, len(Known))
	for _, d := range Known {
		s := State{Definition: d}
		if r != nil {
			s.Enabled, s.Configured = r.flags[d.Name]
		}
		out = append(out, s)
	}
	return out
}

// Unknown returns the configured names this build does not read, sorted.
func (r *Registry) Unknown() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.unknown)
}
