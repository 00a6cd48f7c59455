package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	catalog "github.com/zjrosen/nodegraph/internal/catalog/application"
	"github.com/zjrosen/nodegraph/internal/catalog/domain"
	"github.com/zjrosen/nodegraph/internal/flags"
	"github.com/zjrosen/nodegraph/internal/log"
	"github.com/zjrosen/nodegraph/internal/presentation"
	"github.com/zjrosen/nodegraph/internal/pubsub"
	"github.com/zjrosen/nodegraph/internal/watcher"
)

var watchSync bool

var watchCmd = &cobra.Command{
	Use:   "watch <file>...",
	Short: "Re-inspect graph documents whenever they change",
	Long: `Watch graph documents and print a fresh summary each time one is saved.
With --sync (or the watch-sync feature flag) every change is also imported
into the catalog.

Stop with Ctrl+C.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchSync, "sync", false, "Import every change into the catalog")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New(watcher.Config{Paths: args, DebounceDur: cfg.Watch.Debounce})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}

	var svc *catalog.Service
	if watchSync || featureFlags().Enabled(flags.FlagWatchSync) {
		s, closeCatalog, err := openCatalog()
		if err != nil {
			return err
		}
		defer closeCatalog()
		svc = s
		go logCatalogEvents(svc.Subscribe(ctx))
	}

	return watchLoop(ctx, cmd.OutOrStdout(), changes, svc)
}

// watchLoop reports every changed path until ctx is done. A document that
// fails to load is reported and watching continues.
func watchLoop(ctx context.Context, out io.Writer, changes <-chan string, svc *catalog.Service) error {
	formatter := presentation.NewFormatter(out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-changes:
			if !ok {
				return nil
			}
			g, err := loadGraph(ctx, path)
			if err != nil {
				log.ErrorErr(log.CatWatcher, "reload failed", err, "path", path)
				fmt.Fprintf(out, "%s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(out, "%s changed\n", path)
			if err := formatter.RenderGraphSummary(presentation.FromGraph(g, false)); err != nil {
				return err
			}
			if svc == nil {
				continue
			}
			if _, err := svc.Import(ctx, g); err != nil {
				log.ErrorErr(log.CatDB, "sync failed", err, "path", path)
				fmt.Fprintf(out, "%s: sync failed: %v\n", path, err)
			}
		}
	}
}

func logCatalogEvents(events <-chan pubsub.Event[*domain.StoredGraph]) {
	for event := range events {
		log.Info(log.CatDB, "catalog event",
			"type", string(event.Type),
			"seq", event.Seq,
			"guid", event.Payload.GUID(),
			"name", event.Payload.Name())
	}
}
