// Package testutil provides graph fixtures and database helpers for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/nodegraph/internal/document"
	"github.com/zjrosen/nodegraph/internal/domain/graph"
	"github.com/zjrosen/nodegraph/internal/nodelib"
)

// wireData connects an output of one aliased node to an input of another.
type wireData struct {
	from, out string
	to, in    string
}

// variableData declares a variable and optionally binds variable nodes to it.
type variableData struct {
	spec  graph.VariableSpec
	nodes []string
}

// Builder accumulates nodes, wires and declarations and creates them in the
// correct order.
type Builder struct {
	t         *testing.T
	lib       *graph.Library
	name      string
	opts      []graph.Option
	nodes     []nodeData
	wires     []wireData
	variables []variableData

	g       *graph.Graph
	byAlias map[string]*graph.Node
}

// NewBuilder creates a builder over lib; a nil lib uses nodelib.NewLibrary().
func NewBuilder(t *testing.T, lib *graph.Library) *Builder {
	t.Helper()
	if lib == nil {
		lib = nodelib.NewLibrary()
	}
	return &Builder{t: t, lib: lib, byAlias: make(map[string]*graph.Node)}
}

// WithName sets the graph name.
func (b *Builder) WithName(name string) *Builder {
	b.name = name
	return b
}

// WithGraphOptions passes options to graph.New.
func (b *Builder) WithGraphOptions(opts ...graph.Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// WithNode adds a node of kind, addressed by alias in later calls.
func (b *Builder) WithNode(alias, kind string, opts ...NodeOption) *Builder {
	n := defaultNode(alias, kind)
	for _, opt := range opts {
		opt(&n)
	}
	b.nodes = append(b.nodes, n)
	return b
}

// WithWire connects from.out to to.in.
func (b *Builder) WithWire(from, out, to, in string) *Builder {
	b.wires = append(b.wires, wireData{from: from, out: out, to: to, in: in})
	return b
}

// WithVariable declares a variable and points the aliased variable nodes at it.
func (b *Builder) WithVariable(spec graph.VariableSpec, nodes ...string) *Builder {
	b.variables = append(b.variables, variableData{spec: spec, nodes: nodes})
	return b
}

// Build creates the graph. Declarations come first so variable nodes can
// define their ports; wires come last. The graph is left unmodified.
func (b *Builder) Build() *graph.Graph {
	b.t.Helper()
	g := graph.New(b.lib, b.opts...)
	if b.name != "" {
		g.SetName(b.name)
	}
	b.g = g

	decls := make([]*graph.VariableDeclaration, 0, len(b.variables))
	for _, v := range b.variables {
		decl, err := g.CreateVariable(v.spec)
		require.NoError(b.t, err, "variable %s", v.spec.Name)
		decls = append(decls, decl)
	}
	for _, n := range b.nodes {
		b.insertNode(n)
	}
	for i, v := range b.variables {
		for _, alias := range v.nodes {
			require.NoError(b.t, nodelib.ReferenceVariable(b.Node(alias), decls[i]))
		}
	}
	for _, w := range b.wires {
		b.insertWire(w)
	}
	g.ClearModified()
	return g
}

func (b *Builder) insertNode(n nodeData) {
	b.t.Helper()
	require.NotContains(b.t, b.byAlias, n.alias, "duplicate node alias")
	node, err := b.g.CreateNode(n.kind, n.graphOptions()...)
	require.NoError(b.t, err, "node %s", n.alias)
	b.byAlias[n.alias] = node
}

func (b *Builder) insertWire(w wireData) {
	b.t.Helper()
	out, ok := b.Node(w.from).Output(w.out)
	require.True(b.t, ok, "output %s.%s", w.from, w.out)
	in, ok := b.Node(w.to).Input(w.in)
	require.True(b.t, ok, "input %s.%s", w.to, w.in)
	_, err := b.g.Connect(out, in)
	require.NoError(b.t, err, "wire %s.%s -> %s.%s", w.from, w.out, w.to, w.in)
}

// Graph returns the built graph, building it first if needed.
func (b *Builder) Graph() *graph.Graph {
	b.t.Helper()
	if b.g == nil {
		return b.Build()
	}
	return b.g
}

// Node returns the node created for alias.
func (b *Builder) Node(alias string) *graph.Node {
	b.t.Helper()
	n, ok := b.byAlias[alias]
	require.True(b.t, ok, "unknown node alias %q", alias)
	return n
}

// Document encodes the built graph.
func (b *Builder) Document() *document.Document {
	b.t.Helper()
	doc, err := document.Encode(context.Background(), b.Graph())
	require.NoError(b.t, err)
	return doc
}

// WriteFile saves the built graph to path in the format its extension names.
func (b *Builder) WriteFile(path string) string {
	b.t.Helper()
	require.NoError(b.t, document.WriteFile(path, b.Document(), document.FormatFromPath(path)))
	return path
}
