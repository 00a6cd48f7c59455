// Package presentation converts graphs and catalog entries into the shapes the
// CLI prints, as JSON or as styled text.
package presentation

import (
	"time"

	"github.com/zjrosen/nodegraph/internal/catalog/domain"
	"github.com/zjrosen/nodegraph/internal/domain/graph"
)

// GraphSummaryDTO counts the elements of a graph.
type GraphSummaryDTO struct {
	GUID         string           `json:"guid"`
	Name         string           `json:"name"`
	Nodes        int              `json:"nodes"`
	ContextNodes int              `json:"context_nodes"`
	Blocks       int              `json:"blocks"`
	Ports        int              `json:"ports"`
	MissingPorts int              `json:"missing_ports"`
	Wires        int              `json:"wires"`
	Variables    int              `json:"variables"`
	Portals      int              `json:"portals"`
	Sections     int              `json:"sections"`
	Groups       int              `json:"groups"`
	StickyNotes  int              `json:"sticky_notes"`
	Placemats    int              `json:"placemats"`
	Placeholders []PlaceholderDTO `json:"placeholders"`
	NodeDetails  []NodeDTO        `json:"node_details,omitempty"`
}

// PlaceholderDTO describes one unresolved slot.
type PlaceholderDTO struct {
	Category string `json:"category"`
	Index    int    `json:"index"`
	GUID     string `json:"guid"`
	Reason   string `json:"reason"`
	ToRemove bool   `json:"to_remove,omitempty"`
}

// NodeDTO lists the ports of a node.
type NodeDTO struct {
	GUID    string    `json:"guid"`
	Kind    string    `json:"kind"`
	Title   string    `json:"title"`
	State   string    `json:"state"`
	Inputs  []PortDTO `json:"inputs"`
	Outputs []PortDTO `json:"outputs"`
}

// PortDTO describes a port and how many wires reach it.
type PortDTO struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Kind    string `json:"kind"`
	Wires   int    `json:"wires"`
	Missing bool   `json:"missing,omitempty"`
}

// StoredGraphDTO represents a catalog entry.
type StoredGraphDTO struct {
	GUID         string            `json:"guid"`
	Name         string            `json:"name"`
	Format       string            `json:"format"`
	Nodes        int               `json:"nodes"`
	Wires        int               `json:"wires"`
	Placeholders int               `json:"placeholders"`
	Unresolved   bool              `json:"unresolved"`
	UpdatedAt    string            `json:"updated_at"`
	Missing      []MissingEntryDTO `json:"missing,omitempty"`
}

// MissingEntryDTO mirrors graph.MissingEntry with text GUIDs.
type MissingEntryDTO struct {
	Category  string `json:"category"`
	Index     int    `json:"index"`
	GUID      string `json:"guid"`
	Container string `json:"container,omitempty"`
	ToRemove  bool   `json:"to_remove,omitempty"`
}

// FromGraph summarizes g. withPorts fills NodeDetails.
func FromGraph(g *graph.Graph, withPorts bool) GraphSummaryDTO {
	dto := GraphSummaryDTO{
		GUID:         g.GUID().String(),
		Name:         g.Name(),
		Nodes:        len(g.Nodes()),
		ContextNodes: len(g.ContextNodes()),
		Wires:        len(g.Wires()),
		Variables:    len(g.Variables()),
		Portals:      len(g.Portals()),
		Sections:     len(g.Sections()),
		Groups:       len(g.Groups()),
		StickyNotes:  len(g.StickyNotes()),
		Placemats:    len(g.Placemats()),
		Placeholders: make([]PlaceholderDTO, 0),
	}
	for _, m := range g.ContextNodes() {
		if c, ok := m.(*graph.ContextNode); ok {
			dto.Blocks += len(c.Blocks())
		}
	}

	g.EachNode(func(n *graph.Node) {
		ports := append(n.Inputs().All(), n.Outputs().All()...)
		dto.Ports += len(ports)
		for _, p := range ports {
			if p.IsMissing() {
				dto.MissingPorts++
			}
		}
		if withPorts {
			dto.NodeDetails = append(dto.NodeDetails, fromNode(g, n))
		}
	})

	for _, p := range g.Placeholders() {
		dto.Placeholders = append(dto.Placeholders, PlaceholderDTO{
			Category: p.Category().String(),
			Index:    p.Index(),
			GUID:     p.GUID().String(),
			Reason:   p.Reason(),
			ToRemove: p.ToRemove(),
		})
	}
	return dto
}

func fromNode(g *graph.Graph, n *graph.Node) NodeDTO {
	dto := NodeDTO{
		GUID:    n.GUID().String(),
		Kind:    n.KindTag(),
		Title:   n.Title(),
		State:   n.State().String(),
		Inputs:  make([]PortDTO, 0, n.Inputs().Len()),
		Outputs: make([]PortDTO, 0, n.Outputs().Len()),
	}
	for _, p := range n.Inputs().All() {
		dto.Inputs = append(dto.Inputs, fromPort(g, p))
	}
	for _, p := range n.Outputs().All() {
		dto.Outputs = append(dto.Outputs, fromPort(g, p))
	}
	return dto
}

func fromPort(g *graph.Graph, p *graph.Port) PortDTO {
	return PortDTO{
		Name:    p.UniqueName(),
		Type:    string(p.DataType()),
		Kind:    p.PortKind().String(),
		Wires:   len(g.WiresFor(p)),
		Missing: p.IsMissing(),
	}
}

// FromStoredGraph converts a catalog entry. withMissing fills Missing.
func FromStoredGraph(s *domain.StoredGraph, withMissing bool) StoredGraphDTO {
	stats := s.Stats()
	dto := StoredGraphDTO{
		GUID:         s.GUID(),
		Name:         s.Name(),
		Format:       s.Format(),
		Nodes:        stats.Nodes,
		Wires:        stats.Wires,
		Placeholders: stats.Placeholders,
		Unresolved:   s.HasUnresolved(),
		UpdatedAt:    s.UpdatedAt().UTC().Format(time.RFC3339),
	}
	if withMissing {
		for _, m := range s.Missing() {
			dto.Missing = append(dto.Missing, fromMissingEntry(m))
		}
	}
	return dto
}

// FromStoredGraphs converts a list of catalog entries.
func FromStoredGraphs(list []*domain.StoredGraph) []StoredGraphDTO {
	out := make([]StoredGraphDTO, 0, len(list))
	for _, s := range list {
		out = append(out, FromStoredGraph(s, false))
	}
	return out
}

func fromMissingEntry(m graph.MissingEntry) MissingEntryDTO {
	dto := MissingEntryDTO{
		Category: m.Category.String(),
		Index:    m.Index,
		GUID:     m.GUID.String(),
		ToRemove: m.ToRemove,
	}
	if !m.Container.IsZero() {
		dto.Container = m.Container.String()
	}
	return dto
}
