package cmd

import (
	"context"
	"fmt"

	catalog "github.com/zjrosen/nodegraph/internal/catalog/application"
	"github.com/zjrosen/nodegraph/internal/config"
	"github.com/zjrosen/nodegraph/internal/document"
	"github.com/zjrosen/nodegraph/internal/domain/graph"
	"github.com/zjrosen/nodegraph/internal/flags"
	"github.com/zjrosen/nodegraph/internal/infrastructure/sqlite"
	"github.com/zjrosen/nodegraph/internal/log"
	"github.com/zjrosen/nodegraph/internal/nodelib"
)

// graphOptions turns the graph config section into graph options.
func graphOptions() []graph.Option {
	return []graph.Option{
		graph.WithIncrementalWireLimit(cfg.Graph.IncrementalWireLimit),
		graph.WithSelfConnections(cfg.Graph.AllowSelfConnections),
		graph.WithPruneObsoleteWires(cfg.Graph.PruneObsoleteWires),
	}
}

func loadGraph(ctx context.Context, path string) (*graph.Graph, error) {
	return document.LoadFile(ctx, path, nodelib.NewLibrary(), graphOptions()...)
}

// defaultFormat is the configured format, YAML when unset.
func defaultFormat() document.Format {
	f, err := document.ParseFormat(cfg.Document.Format)
	if err != nil {
		return document.FormatYAML
	}
	return f
}

// parseFormatFlag resolves a --format value; empty means "from the path".
func parseFormatFlag(s string) (document.Format, error) {
	if s == "" {
		return "", nil
	}
	return document.ParseFormat(s)
}

func featureFlags() *flags.Registry {
	return flags.New(cfg.Flags)
}

// openCatalog opens the configured sqlite catalog. The returned function
// closes it.
func openCatalog() (*catalog.Service, func(), error) {
	path := cfg.Store.Path
	if path == "" {
		path = config.DefaultStorePath()
	}
	db, err := sqlite.NewDB(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}

	opts := []catalog.Option{catalog.WithFormat(defaultFormat())}
	if cfg.Store.CacheTTL != 0 {
		opts = append(opts, catalog.WithCacheTTL(cfg.Store.CacheTTL))
	}
	svc := catalog.NewService(db.GraphRepository(), nodelib.NewLibrary(), opts...)
	log.Debug(log.CatDB, "catalog opened", "path", path)

	return svc, func() {
		svc.Close()
		if err := db.Close(); err != nil {
			log.ErrorErr(log.CatDB, "closing catalog", err, "path", path)
		}
	}, nil
}
