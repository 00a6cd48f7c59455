package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/nodegraph/internal/domain/graph"
	"github.com/zjrosen/nodegraph/internal/log"
	"github.com/zjrosen/nodegraph/internal/tracing"
)

// ReadFile reads a document, picking the format from the file extension.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user's graph file
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	doc, err := Unmarshal(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// WriteFile writes doc atomically: the data goes to a temp file in the same
// directory which is then renamed over path.
func WriteFile(path string, doc *Document, format Format) error {
	data, err := Marshal(doc, format)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating document directory: %w", err)
	}
	temp, err := os.CreateTemp(dir, ".nodegraph.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// LoadFile reads and decodes the graph stored at path.
func LoadFile(ctx context.Context, path string, lib *graph.Library, opts ...graph.Option) (g *graph.Graph, err error) {
	ctx, span := tracing.Start(ctx, tracing.SpanPrefixDocument+"load",
		attribute.String(tracing.AttrDocumentPath, path),
		attribute.String(tracing.AttrDocumentFormat, string(FormatFromPath(path))),
	)
	defer func() { tracing.End(span, err) }()

	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err = Decode(ctx, doc, lib, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// SaveFile encodes g and writes it to path. An empty format is taken from the
// file extension. The graph is marked unmodified once the file is written.
func SaveFile(ctx context.Context, path string, g *graph.Graph, format Format) (err error) {
	if format == "" {
		format = FormatFromPath(path)
	}
	ctx, span := tracing.Start(ctx, tracing.SpanPrefixDocument+"save",
		attribute.String(tracing.AttrDocumentPath, path),
		attribute.String(tracing.AttrDocumentFormat, string(format)),
	)
	defer func() { tracing.End(span, err) }()

	doc, err := Encode(ctx, g)
	if err != nil {
		return err
	}
	if err := WriteFile(path, doc, format); err != nil {
		return err
	}
	g.ClearModified()
	log.Info(log.CatDocument, "graph saved", "graph", g.GUID(), "path", path, "format", format)
	return nil
}
