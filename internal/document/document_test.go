package document

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/nodegraph/internal/domain/graph"
	"github.com/zjrosen/nodegraph/internal/nodelib"
)

// fiveNodes builds constant -> add -> add -> switch -> constant, wired in a
// chain, and encodes it.
func fiveNodes(t *testing.T) (*graph.Graph, *Document) {
	t.Helper()
	g := graph.New(nodelib.NewLibrary())
	g.SetName("chain")
	kinds := []string{nodelib.KindConstant, nodelib.KindAdd, nodelib.KindAdd, nodelib.KindSwitch, nodelib.KindConstant}
	var nodes []*graph.Node
	for i, k := range kinds {
		n, err := g.CreateNode(k, graph.WithPosition(graph.Position{X: float64(100 * i)}))
		require.NoError(t, err)
		nodes = append(nodes, n)
	}
	connect(t, g, nodes[0], "out", nodes[1], "a")
	connect(t, g, nodes[1], "sum", nodes[2], "a")
	connect(t, g, nodes[2], "sum", nodes[3], "a")
	require.NoError(t, nodes[1].SetConstantValue("b", 2.5))

	doc, err := Encode(context.Background(), g)
	require.NoError(t, err)
	return g, doc
}

func connect(t *testing.T, g *graph.Graph, from *graph.Node, out string, to *graph.Node, in string) *graph.Wire {
	t.Helper()
	o, ok := from.Output(out)
	require.True(t, ok)
	i, ok := to.Input(in)
	require.True(t, ok)
	w, err := g.Connect(o, i)
	require.NoError(t, err)
	return w
}

// unresolvable rewrites a node record to a kind the library does not know.
func unresolvable(rec *Record) {
	rec.Data["kind"] = "future.node"
	rec.Data["tuning"] = map[string]any{"level": 11}
}

func TestRoundTrip_Stable(t *testing.T) {
	_, doc := fiveNodes(t)
	require.Equal(t, Version, doc.Version)
	require.Len(t, doc.Nodes, 5)
	require.Len(t, doc.Wires, 3)
	require.Empty(t, doc.Missing)

	g, err := Decode(context.Background(), doc, nodelib.NewLibrary())
	require.NoError(t, err)
	require.False(t, g.Modified(), "decoding does not dirty the graph")
	require.Equal(t, doc.GUID, g.GUID())
	require.Equal(t, "chain", g.Name())

	again, err := Encode(context.Background(), g)
	require.NoError(t, err)
	require.Equal(t, doc, again)
}

func TestRoundTrip_ManualPortOrder(t *testing.T) {
	g := graph.New(nodelib.NewLibrary())
	add, err := g.CreateNode(nodelib.KindAdd)
	require.NoError(t, err)
	a, _ := add.Input("a")
	b, _ := add.Input("b")
	require.NoError(t, add.SwapPorts(a, b))

	doc, err := Encode(context.Background(), g)
	require.NoError(t, err)
	loaded, err := Decode(context.Background(), doc, nodelib.NewLibrary())
	require.NoError(t, err)
	n, ok := loaded.NodeByID(add.GUID())
	require.True(t, ok)
	require.Equal(t, add.Inputs().Names(), n.Inputs().Names())
	require.Equal(t, add.PortOrder(graph.DirectionInput), n.PortOrder(graph.DirectionInput))

	again, err := Encode(context.Background(), loaded)
	require.NoError(t, err)
	require.Equal(t, doc, again)
}

func TestRoundTrip_UnresolvedNodeKeepsSlot(t *testing.T) {
	_, doc := fiveNodes(t)
	raw := doc.Nodes[2]
	unresolvable(raw)

	g, err := Decode(context.Background(), doc, nodelib.NewLibrary())
	require.NoError(t, err)

	slots := g.NodeSlots()
	require.Len(t, slots, 5)
	p, ok := slots[2].(*graph.Placeholder)
	require.True(t, ok, "slot 2 holds a placeholder, got %T", slots[2])
	require.Equal(t, raw.GUID, p.GUID())
	require.Equal(t, graph.NodeStateUnresolved, p.State())
	require.Contains(t, p.Reason(), "unknown node kind")
	require.Equal(t, graph.Position{X: 200}, p.Position())
	for _, i := range []int{0, 1, 3, 4} {
		_, ok := slots[i].(*graph.Node)
		require.True(t, ok, "slot %d resolves", i)
	}
	require.Len(t, g.Wires(), 3, "wires touching the placeholder are kept")

	out, err := Encode(context.Background(), g)
	require.NoError(t, err)
	require.Same(t, raw, out.Nodes[2], "unresolved data is written back verbatim")
	require.Equal(t, doc.Nodes, out.Nodes)
	require.Equal(t, doc.Wires, out.Wires)
	require.Equal(t, []graph.MissingEntry{{Category: graph.CategoryNode, Index: 2, GUID: raw.GUID}}, out.Missing)
}

func TestRoundTrip_UnresolvedThroughFormats(t *testing.T) {
	for _, format := range []Format{FormatYAML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			_, doc := fiveNodes(t)
			unresolvable(doc.Nodes[2])
			g, err := Decode(context.Background(), doc, nodelib.NewLibrary())
			require.NoError(t, err)
			first, err := Encode(context.Background(), g)
			require.NoError(t, err)

			data, err := Marshal(first, format)
			require.NoError(t, err)
			parsed, err := Unmarshal(data, format)
			require.NoError(t, err)
			require.Equal(t, first.Missing, parsed.Missing)

			reloaded, err := Decode(context.Background(), parsed, nodelib.NewLibrary())
			require.NoError(t, err)
			slots := reloaded.NodeSlots()
			require.Len(t, slots, 5)
			p, ok := slots[2].(*graph.Placeholder)
			require.True(t, ok)
			require.Equal(t, doc.Nodes[2].GUID, p.GUID())

			add, ok := slots[1].(*graph.Node)
			require.True(t, ok)
			b, ok := add.Constant("b")
			require.True(t, ok)
			require.Equal(t, 2.5, b.Value())

			final, err := Encode(context.Background(), reloaded)
			require.NoError(t, err)
			require.Equal(t, "future.node", final.Nodes[2].Data["kind"])
			require.Len(t, final.Missing, 1)
		})
	}
}

func TestRoundTrip_NullSlotUsesMetadataGUID(t *testing.T) {
	_, doc := fiveNodes(t)
	lost := graph.NewGUID()
	doc.Nodes[1] = nil
	doc.Missing = []graph.MissingEntry{{Category: graph.CategoryNode, Index: 1, GUID: lost}}

	g, err := Decode(context.Background(), doc, nodelib.NewLibrary())
	require.NoError(t, err)
	p, ok := g.NodeSlots()[1].(*graph.Placeholder)
	require.True(t, ok)
	require.Equal(t, lost, p.GUID())
	require.Nil(t, p.Payload().(*Record))

	out, err := Encode(context.Background(), g)
	require.NoError(t, err)
	require.Nil(t, out.Nodes[1])
	require.Equal(t, doc.Missing, out.Missing)
}

func TestRepair_DeletedPlaceholder(t *testing.T) {
	_, doc := fiveNodes(t)
	unresolvable(doc.Nodes[1])
	unresolvable(doc.Nodes[3])
	kept := doc.Nodes[3]

	g, err := Decode(context.Background(), doc, nodelib.NewLibrary())
	require.NoError(t, err)
	require.Len(t, g.Placeholders(), 2)
	require.NoError(t, g.DeleteElements(g.Placeholders()[0]))

	out, err := Encode(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, out.Nodes, 5, "the deleted slot stays while another is unresolved")
	require.Equal(t, []graph.MissingEntry{
		{Category: graph.CategoryNode, Index: 1, GUID: doc.Nodes[1].GUID, ToRemove: true},
		{Category: graph.CategoryNode, Index: 3, GUID: kept.GUID},
	}, out.Missing)

	repaired, err := Decode(context.Background(), out, nodelib.NewLibrary())
	require.NoError(t, err)
	slots := repaired.NodeSlots()
	require.Len(t, slots, 4)
	p, ok := slots[2].(*graph.Placeholder)
	require.True(t, ok, "later indices shift down")
	require.Equal(t, kept.GUID, p.GUID())

	final, err := Encode(context.Background(), repaired)
	require.NoError(t, err)
	require.Equal(t, []graph.MissingEntry{{Category: graph.CategoryNode, Index: 2, GUID: kept.GUID}}, final.Missing)
}

func TestRoundTrip_Property(t *testing.T) {
	lib := nodelib.NewLibrary()
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "n")
		g := graph.New(lib)
		for i := 0; i < n; i++ {
			_, err := g.CreateNode(nodelib.KindConstant, graph.WithPosition(graph.Position{X: float64(i)}))
			require.NoError(t, err)
		}
		doc, err := Encode(context.Background(), g)
		require.NoError(t, err)

		var want []graph.MissingEntry
		for i, rec := range doc.Nodes {
			if rapid.Bool().Draw(t, fmt.Sprintf("unresolved_%d", i)) {
				unresolvable(rec)
				want = append(want, graph.MissingEntry{Category: graph.CategoryNode, Index: i, GUID: rec.GUID})
			}
		}

		loaded, err := Decode(context.Background(), doc, lib)
		require.NoError(t, err)
		out, err := Encode(context.Background(), loaded)
		require.NoError(t, err)
		require.Equal(t, doc.Nodes, out.Nodes)
		require.Equal(t, want, out.Missing)
	})
}

func TestDecode_ContextNodes(t *testing.T) {
	lib := nodelib.NewLibrary()
	g := graph.New(lib)
	stack, err := g.CreateContextNode(nodelib.KindStack)
	require.NoError(t, err)
	_, err = stack.CreateBlock(nodelib.KindLogBlock)
	require.NoError(t, err)
	scale, err := stack.CreateBlock(nodelib.KindScaleBlock)
	require.NoError(t, err)
	require.NoError(t, scale.SetConstantValue("factor", 3.0))
	other, err := g.CreateContextNode(nodelib.KindStack)
	require.NoError(t, err)
	_, err = other.CreateBlock(nodelib.KindLogBlock)
	require.NoError(t, err)

	doc, err := Encode(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, doc.ContextNodes, 2)

	// An unknown block inside a known context node, and an unknown context node.
	var stackData nodeData
	require.NoError(t, decodeData(doc.ContextNodes[0], &stackData))
	stackData.Blocks[0].Data["kind"] = "block.future"
	rec, err := newRecord(TypeContext, doc.ContextNodes[0].GUID, stackData)
	require.NoError(t, err)
	doc.ContextNodes[0] = rec
	unresolvable(doc.ContextNodes[1])

	loaded, err := Decode(context.Background(), doc, lib)
	require.NoError(t, err)

	c, ok := loaded.ContextNodeSlots()[0].(*graph.ContextNode)
	require.True(t, ok)
	blocks := c.BlockSlots()
	require.Len(t, blocks, 2)
	_, ok = blocks[0].(*graph.Placeholder)
	require.True(t, ok)
	loadedScale, ok := blocks[1].(*graph.Node)
	require.True(t, ok)
	factor, _ := loadedScale.Constant("factor")
	require.Equal(t, 3.0, factor.Value())

	p, ok := loaded.ContextNodeSlots()[1].(*graph.Placeholder)
	require.True(t, ok)
	require.Len(t, p.BlockIDs(), 1)
	_, ok = loaded.Lookup(p.BlockIDs()[0])
	require.True(t, ok, "blocks of an unresolved context node stay addressable")

	out, err := Encode(context.Background(), loaded)
	require.NoError(t, err)
	require.Equal(t, []graph.MissingEntry{
		{Category: graph.CategoryContextNode, Index: 1, GUID: doc.ContextNodes[1].GUID},
		{Category: graph.CategoryBlock, Index: 0, GUID: stackData.Blocks[0].GUID, Container: c.GUID()},
	}, out.Missing)
}

func TestDecode_Declarations(t *testing.T) {
	lib := nodelib.NewLibrary()
	g := graph.New(lib)
	speed, err := g.CreateVariable(graph.VariableSpec{Name: "speed", Type: nodelib.TypeFloat, Scope: graph.ScopeInput, Default: 4.5, Tooltip: "m/s"})
	require.NoError(t, err)
	_, err = g.CreatePortal(graph.PortalSpec{Name: "signal", Type: nodelib.TypeBool})
	require.NoError(t, err)
	get, err := g.CreateNode(nodelib.KindGetVariable)
	require.NoError(t, err)
	require.NoError(t, nodelib.ReferenceVariable(get, speed))
	section := g.CreateSection(graph.GUID{}, "Inputs")
	g.AddToSection(section, speed)
	note := g.CreateStickyNote(graph.GUID{}, "Note", "hello", graph.Rect{Width: 10, Height: 10})
	group := g.CreateGroup(graph.GUID{}, "All", graph.Position{X: 5})
	g.AddToGroup(group, note)
	g.CreatePlacemat(graph.GUID{}, "Mat", graph.Rect{Width: 50, Height: 50}, "#ff0000")

	doc, err := Encode(context.Background(), g)
	require.NoError(t, err)
	loaded, err := Decode(context.Background(), doc, lib)
	require.NoError(t, err)

	v, ok := graph.Get[*graph.VariableDeclaration](loaded, speed.GUID())
	require.True(t, ok)
	require.Equal(t, graph.ScopeInput, v.Scope())
	require.Equal(t, "m/s", v.Tooltip())
	require.Equal(t, 4.5, v.DefaultValue().Value())
	require.Len(t, loaded.Portals(), 1)

	n, ok := loaded.NodeByID(get.GUID())
	require.True(t, ok)
	out, ok := n.Output("value")
	require.True(t, ok, "variable nodes resolve their declaration after load")
	require.Equal(t, "speed", out.Title())

	require.Equal(t, []graph.GUID{speed.GUID()}, loaded.Sections()[0].Items())
	require.Equal(t, []graph.GUID{note.GUID()}, loaded.Groups()[0].Items())
	require.Equal(t, "hello", loaded.StickyNotes()[0].Contents())
	require.Equal(t, "#ff0000", loaded.Placemats()[0].Color())

	again, err := Encode(context.Background(), loaded)
	require.NoError(t, err)
	require.Equal(t, doc, again)
}

func TestDecode_DuplicateVariableBecomesPlaceholder(t *testing.T) {
	lib := nodelib.NewLibrary()
	g := graph.New(lib)
	_, err := g.CreateVariable(graph.VariableSpec{Name: "speed", Type: nodelib.TypeFloat})
	require.NoError(t, err)
	doc, err := Encode(context.Background(), g)
	require.NoError(t, err)
	dup := &Record{Type: TypeVariable, GUID: graph.NewGUID(), Data: doc.Variables[0].Data}
	doc.Variables = append(doc.Variables, dup)

	loaded, err := Decode(context.Background(), doc, lib)
	require.NoError(t, err)
	slots := loaded.VariableSlots()
	require.Len(t, slots, 2)
	p, ok := slots[1].(*graph.Placeholder)
	require.True(t, ok)
	require.Equal(t, "speed", p.Name())
}

func TestDecode_Errors(t *testing.T) {
	lib := nodelib.NewLibrary()

	_, err := Decode(context.Background(), &Document{Version: Version + 1}, lib)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
}

func TestDecode_MalformedContainerRecordsSkipped(t *testing.T) {
	lib := nodelib.NewLibrary()
	g := graph.New(lib)
	g.CreateSection(graph.GUID{}, "Main")
	g.CreateGroup(graph.GUID{}, "Inputs", graph.Position{X: 4})
	g.CreateStickyNote(graph.GUID{}, "Note", "text", graph.Rect{Width: 10, Height: 10})
	doc, err := Encode(context.Background(), g)
	require.NoError(t, err)

	doc.Sections = append([]*Record{nil, {Type: TypeWire}}, doc.Sections...)
	doc.Groups = append(doc.Groups, &Record{Type: TypeGroup, Data: map[string]any{"items": "not a list"}})
	doc.StickyNotes = append([]*Record{nil}, doc.StickyNotes...)
	doc.Placemats = []*Record{nil}

	loaded, err := Decode(context.Background(), doc, lib)
	require.NoError(t, err)
	require.Len(t, loaded.Sections(), 1)
	require.Equal(t, "Main", loaded.Sections()[0].Title())
	require.Len(t, loaded.Groups(), 1)
	require.Len(t, loaded.StickyNotes(), 1)
	require.Empty(t, loaded.Placemats())
	require.False(t, loaded.Modified())

	again, err := Encode(context.Background(), loaded)
	require.NoError(t, err)
	require.Len(t, again.Sections, 1, "skipped records are compacted away")
}

func TestDecode_WirePlaceholder(t *testing.T) {
	_, doc := fiveNodes(t)
	doc.Wires[1].Type = "wire.v2"

	g, err := Decode(context.Background(), doc, nodelib.NewLibrary())
	require.NoError(t, err)
	p, ok := g.WireSlots()[1].(*graph.Placeholder)
	require.True(t, ok)
	require.False(t, p.From().IsZero(), "endpoints are salvaged")
	require.Equal(t, []graph.WireModel{p}, g.WiresAt(p.From().Key()))
}

func TestFiles(t *testing.T) {
	for _, name := range []string{"graph.yaml", "graph.json"} {
		t.Run(name, func(t *testing.T) {
			g, _ := fiveNodes(t)
			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, SaveFile(context.Background(), path, g, ""))
			require.False(t, g.Modified())

			loaded, err := LoadFile(context.Background(), path, nodelib.NewLibrary())
			require.NoError(t, err)
			require.Equal(t, g.GUID(), loaded.GUID())
			require.Len(t, loaded.Nodes(), 5)
			require.Len(t, loaded.Wires(), 3)

			doc, err := ReadFile(path)
			require.NoError(t, err)
			require.Equal(t, Stats{Nodes: 5, Wires: 3}, doc.Stats())
		})
	}

	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestFormats(t *testing.T) {
	f, err := ParseFormat("YML")
	require.NoError(t, err)
	require.Equal(t, FormatYAML, f)
	_, err = ParseFormat("toml")
	require.ErrorIs(t, err, ErrUnknownFormat)
	require.Equal(t, FormatJSON, FormatFromPath("a/b.JSON"))
	require.Equal(t, FormatYAML, FormatFromPath("a/b"))

	_, err = Unmarshal([]byte("  \n"), FormatYAML)
	require.ErrorIs(t, err, ErrEmptyDocument)
	_, err = Unmarshal([]byte("{"), FormatJSON)
	require.Error(t, err)
	_, err = Marshal(&Document{}, "xml")
	require.ErrorIs(t, err, ErrUnknownFormat)
}
