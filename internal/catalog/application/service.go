// Package catalog stores graph documents in a GraphRepository and loads them back
// as graphs. Reads go through a document cache; writes invalidate it and publish
// catalog events.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/nodegraph/internal/cachemanager"
	"github.com/zjrosen/nodegraph/internal/catalog/domain"
	"github.com/zjrosen/nodegraph/internal/document"
	"github.com/zjrosen/nodegraph/internal/domain/graph"
	"github.com/zjrosen/nodegraph/internal/log"
	"github.com/zjrosen/nodegraph/internal/pubsub"
	"github.com/zjrosen/nodegraph/internal/tracing"
)

// DefaultCacheTTL is how long a decoded document stays cached.
const DefaultCacheTTL = 5 * time.Minute

// Service manages the graph catalog.
type Service struct {
	repo   domain.GraphRepository
	lib    *graph.Library
	format document.Format
	ttl    time.Duration

	cache  *cachemanager.InMemoryCacheManager[string, *document.Document]
	docs   *cachemanager.ReadThroughCache[string, *document.Document]
	broker *pubsub.Broker[*domain.StoredGraph]
}

// Option configures a Service.
type Option func(*Service)

// WithFormat sets the encoding new documents are stored in. Defaults to YAML.
func WithFormat(f document.Format) Option {
	return func(s *Service) { s.format = f }
}

// WithCacheTTL sets the document cache TTL. A negative TTL disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// NewService creates a catalog over repo that instantiates nodes from lib.
func NewService(repo domain.GraphRepository, lib *graph.Library, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		lib:    lib,
		format: document.FormatYAML,
		ttl:    DefaultCacheTTL,
		broker: pubsub.NewBroker[*domain.StoredGraph](),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = cachemanager.NewInMemoryCacheManager[string, *document.Document]("documents", s.ttl, 2*s.ttl)
	if s.ttl < 0 {
		s.docs = cachemanager.NewReadThroughCache[string, *document.Document](nil, s.fetch)
	} else {
		s.docs = cachemanager.NewReadThroughCache[string, *document.Document](s.cache, s.fetch)
	}
	return s
}

// Subscribe streams catalog events until ctx is done.
func (s *Service) Subscribe(ctx context.Context) <-chan pubsub.Event[*domain.StoredGraph] {
	return s.broker.Subscribe(ctx)
}

// CacheStats reports document cache effectiveness.
func (s *Service) CacheStats() cachemanager.Stats {
	return s.cache.Stats()
}

// Close shuts the event broker down. The repository is closed by its owner.
func (s *Service) Close() {
	s.broker.Close()
}

// Import encodes g and stores it under its GUID, replacing any previous version.
func (s *Service) Import(ctx context.Context, g *graph.Graph) (stored *domain.StoredGraph, err error) {
	ctx, span := tracing.Start(ctx, tracing.SpanPrefixRepo+"import",
		attribute.String(tracing.AttrRepoOperation, "import"),
		attribute.String(tracing.AttrGraphGUID, g.GUID().String()),
	)
	defer func() { tracing.End(span, err) }()

	doc, err := document.Encode(ctx, g)
	if err != nil {
		return nil, err
	}
	return s.store(ctx, doc)
}

// ImportFile stores the document at path. The document is decoded first, so
// repairs are applied and a malformed file is rejected.
func (s *Service) ImportFile(ctx context.Context, path string) (*domain.StoredGraph, error) {
	g, err := document.LoadFile(ctx, path, s.lib)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, g)
}

func (s *Service) store(ctx context.Context, doc *document.Document) (*domain.StoredGraph, error) {
	body, err := document.Marshal(doc, s.format)
	if err != nil {
		return nil, err
	}
	stats := doc.Stats()
	guid := doc.GUID.String()

	eventType := pubsub.UpdatedEvent
	stored, err := s.repo.FindByGUID(guid)
	var notFound *domain.GraphNotFoundError
	switch {
	case errors.As(err, &notFound):
		stored = domain.NewStoredGraph(guid, doc.Name, string(s.format), body)
		eventType = pubsub.CreatedEvent
	case err != nil:
		return nil, err
	}
	stored.SetContent(doc.Name, string(s.format), body, domain.Stats{
		Nodes:        stats.Nodes + stats.ContextNodes,
		Wires:        stats.Wires,
		Placeholders: stats.Missing,
	}, doc.Missing)

	if err := s.repo.Save(stored); err != nil {
		return nil, err
	}
	if err := s.docs.Invalidate(ctx, guid); err != nil {
		return nil, err
	}
	s.broker.Publish(eventType, stored)
	log.Info(log.CatDB, "graph stored", "guid", guid, "name", doc.Name, "missing", len(doc.Missing))
	return stored, nil
}

// Document returns the stored document of guid.
func (s *Service) Document(ctx context.Context, guid string) (doc *document.Document, err error) {
	ctx, span := tracing.Start(ctx, tracing.SpanPrefixRepo+"document",
		attribute.String(tracing.AttrRepoOperation, "document"),
		attribute.String(tracing.AttrGraphGUID, guid),
	)
	defer func() { tracing.End(span, err) }()

	doc, hit, err := s.docs.GetWithRefresh(ctx, guid, s.ttl)
	span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, hit))
	return doc, err
}

func (s *Service) fetch(_ context.Context, guid string) (*document.Document, error) {
	stored, err := s.repo.FindByGUID(guid)
	if err != nil {
		return nil, err
	}
	format, err := document.ParseFormat(stored.Format())
	if err != nil {
		return nil, err
	}
	doc, err := document.Unmarshal(stored.Body(), format)
	if err != nil {
		return nil, fmt.Errorf("stored graph %s: %w", guid, err)
	}
	return doc, nil
}

// Load decodes the stored graph guid. Every call returns a fresh graph.
func (s *Service) Load(ctx context.Context, guid string, opts ...graph.Option) (*graph.Graph, error) {
	doc, err := s.Document(ctx, guid)
	if err != nil {
		return nil, err
	}
	return document.Decode(ctx, doc, s.lib, opts...)
}

// Export writes the stored graph guid to path. An empty format is taken from
// the path extension.
func (s *Service) Export(ctx context.Context, guid, path string, format document.Format) error {
	doc, err := s.Document(ctx, guid)
	if err != nil {
		return err
	}
	if format == "" {
		format = document.FormatFromPath(path)
	}
	if err := document.WriteFile(path, doc, format); err != nil {
		return err
	}
	log.Info(log.CatDocument, "graph exported", "guid", guid, "path", path, "format", format)
	return nil
}

// List returns the stored graphs matching filter.
func (s *Service) List(filter domain.ListFilter) ([]*domain.StoredGraph, error) {
	return s.repo.List(filter)
}

// Delete soft-deletes the stored graph guid.
func (s *Service) Delete(ctx context.Context, guid string) error {
	stored, err := s.repo.FindByGUID(guid)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(guid); err != nil {
		return err
	}
	if err := s.docs.Invalidate(ctx, guid); err != nil {
		return err
	}
	stored.SoftDelete()
	s.broker.Publish(pubsub.DeletedEvent, stored)
	log.Info(log.CatDB, "graph deleted", "guid", guid)
	return nil
}
