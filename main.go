// Package main is the entry point for the nodegraph CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/zjrosen/nodegraph/cmd"
)

// Set with -ldflags "-X main.version=...". Unset values fall back to the module
// and VCS data the go tool embeds.
var (
	version string
	commit  string
	date    string
)

func main() {
	cmd.SetVersion(buildVersion(version, commit, date))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func buildVersion(v, rev, at string) string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if v == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && rev == "":
				rev = s.Value
			case s.Key == "vcs.time" && at == "":
				at = s.Value
			}
		}
	}
	if v == "" {
		v = "dev"
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	switch {
	case rev == "":
		return v
	case at == "":
		return fmt.Sprintf("%s (commit: %s)", v, rev)
	default:
		return fmt.Sprintf("%s (commit: %s, built: %s)", v, rev, at)
	}
}
