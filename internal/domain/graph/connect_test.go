package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestConnect(t *testing.T) {
	g := newTestGraph(t)
	src := mustNode(t, g, "test.source")
	add := mustNode(t, g, "test.add")

	w, err := g.Connect(mustInput(t, add, "a"), mustOutput(t, src, "F"))
	require.NoError(t, err, "argument order does not matter")
	require.Equal(t, src.GUID(), w.From().NodeID)
	require.Equal(t, "F", w.From().UniqueName)
	require.Equal(t, DirectionOutput, w.From().Direction)
	require.Equal(t, "a", w.To().UniqueName)
	require.True(t, g.IsConnected(mustInput(t, add, "a")))
	require.False(t, g.IsConnected(mustInput(t, add, "b")))

	again, err := g.Connect(mustOutput(t, src, "F"), mustInput(t, add, "a"))
	require.NoError(t, err)
	require.Same(t, w, again, "existing wire is returned")
	require.Len(t, g.Wires(), 1)

	found, ok := Get[*Wire](g, w.GUID())
	require.True(t, ok)
	require.Same(t, w, found)
}

func TestConnect_Rejections(t *testing.T) {
	g := newTestGraph(t)
	src := mustNode(t, g, "test.source")
	add := mustNode(t, g, "test.add")
	other := mustNode(t, g, "test.add")
	seq := mustNode(t, g, "test.seq")
	mode := mustNode(t, g, "test.mode", WithOption("mode", "b"))
	mustConnect(t, g, mustOutput(t, src, "F"), mustInput(t, mode, "left"))
	require.NoError(t, mode.SetOptionValue("mode", "c"))

	foreign := mustNode(t, newTestGraph(t), "test.add")

	tests := []struct {
		name string
		a, b *Port
		want error
	}{
		{"two inputs", mustInput(t, add, "a"), mustInput(t, other, "b"), ErrInvalidConnection},
		{"two outputs", mustOutput(t, add, "sum"), mustOutput(t, other, "sum"), ErrInvalidConnection},
		{"type mismatch", mustOutput(t, src, "Y"), mustInput(t, add, "a"), ErrIncompatibleTypes},
		{"execution to data", mustOutput(t, seq, "then"), mustInput(t, add, "a"), ErrIncompatibleTypes},
		{"self connection", mustOutput(t, add, "sum"), mustInput(t, add, "b"), ErrSelfConnection},
		{"missing port", mustOutput(t, src, "F"), mustInput(t, mode, "left"), ErrInvalidConnection},
		{"node option", mustOutput(t, src, "F"), mustInput(t, mode, "$mode"), ErrPortNotConnectable},
		{"foreign port", mustOutput(t, src, "F"), mustInput(t, foreign, "a"), ErrElementNotInGraph},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(g.Wires())
			_, err := g.Connect(tt.a, tt.b)
			require.ErrorIs(t, err, tt.want)
			require.Len(t, g.Wires(), before)
		})
	}
}

func TestConnect_AnyTypeAccepted(t *testing.T) {
	g := newTestGraph(t)
	src := mustNode(t, g, "test.source")
	n := mustNode(t, g, "test.spec")
	specOf(t, n).inputs = []PortSpec{{ID: "value", Type: TypeAny}}
	n.Define()

	_, err := g.Connect(mustOutput(t, src, "Y"), mustInput(t, n, "value"))
	require.NoError(t, err)
}

func TestConnect_SelfConnectionAllowed(t *testing.T) {
	g := newTestGraph(t)
	loop := mustNode(t, g, "test.loop")
	_, err := g.Connect(mustOutput(t, loop, "out"), mustInput(t, loop, "in"))
	require.NoError(t, err, "kind allows self connections")

	g = newTestGraph(t, WithSelfConnections(true))
	add := mustNode(t, g, "test.add")
	_, err = g.Connect(mustOutput(t, add, "sum"), mustInput(t, add, "a"))
	require.NoError(t, err, "graph allows self connections")
}

func TestConnect_SingleCapacityReplaces(t *testing.T) {
	g := newTestGraph(t)
	src1 := mustNode(t, g, "test.source")
	src2 := mustNode(t, g, "test.source")
	add := mustNode(t, g, "test.add")
	a := mustInput(t, add, "a")

	first := mustConnect(t, g, mustOutput(t, src1, "F"), a)
	second := mustConnect(t, g, mustOutput(t, src2, "F"), a)

	require.Equal(t, []WireModel{second}, g.Wires())
	require.Equal(t, []WireModel{second}, g.WiresFor(a))
	require.Empty(t, g.WiresFor(mustOutput(t, src1, "F")))
	desc := g.CurrentChangeDescription()
	require.True(t, desc.IsRemoved(first.GUID()))
	require.True(t, desc.IsAdded(second.GUID()))
}

func TestConnect_ExecutionOutputIsSingle(t *testing.T) {
	g := newTestGraph(t)
	e1 := mustNode(t, g, "test.exec")
	e2 := mustNode(t, g, "test.exec")
	e3 := mustNode(t, g, "test.exec")
	out := mustOutput(t, e1, "out")
	require.Equal(t, CapacitySingle, out.Capacity())
	require.Equal(t, CapacityMulti, mustInput(t, e2, "in").Capacity())

	mustConnect(t, g, out, mustInput(t, e2, "in"))
	w := mustConnect(t, g, out, mustInput(t, e3, "in"))

	require.Equal(t, []WireModel{w}, g.WiresFor(out))
}

func TestReorderWire(t *testing.T) {
	g := newTestGraph(t)
	seq := mustNode(t, g, "test.seq")
	src := mustNode(t, g, "test.source")
	add := mustNode(t, g, "test.add")
	then := mustOutput(t, seq, "then")

	var targets []*Node
	for i := 0; i < 3; i++ {
		targets = append(targets, mustNode(t, g, "test.exec"))
	}
	w1 := mustConnect(t, g, then, mustInput(t, targets[0], "in"))
	u := mustConnect(t, g, mustOutput(t, src, "F"), mustInput(t, add, "a"))
	w2 := mustConnect(t, g, then, mustInput(t, targets[1], "in"))
	w3 := mustConnect(t, g, then, mustInput(t, targets[2], "in"))

	require.NoError(t, g.ReorderWire(w3, MoveFirst))
	require.Equal(t, []WireModel{w3, w1, w2}, g.WiresFor(then))
	require.Equal(t, []WireModel{w3, u, w1, w2}, g.Wires(), "order projected onto the wire list")
	require.Contains(t, g.CurrentChangeDescription().Hints(w3.GUID()), HintOrder)

	require.NoError(t, g.ReorderWire(w3, MoveDown))
	require.Equal(t, []WireModel{w1, w3, w2}, g.WiresFor(then))
	require.Equal(t, []WireModel{w1, u, w3, w2}, g.Wires())

	g.ClearModified()
	require.NoError(t, g.ReorderWire(w1, MoveUp), "moving the first wire up is a no-op")
	require.False(t, g.Modified())

	require.NoError(t, g.ReorderWire(w1, MoveLast))
	require.Equal(t, []WireModel{w3, w2, w1}, g.WiresFor(then))

	// A rebuilt index agrees with the projected list.
	g.WireIndex().MarkDirty()
	require.Equal(t, []WireModel{w3, w2, w1}, g.WiresFor(then))

	require.ErrorIs(t, g.ReorderWire(u, MoveFirst), ErrNotReorderable)
}

func TestReorderFunc(t *testing.T) {
	a, b, c := NewWire(NewGUID(), PortReference{}, PortReference{}),
		NewWire(NewGUID(), PortReference{}, PortReference{}),
		NewWire(NewGUID(), PortReference{}, PortReference{})

	tests := []struct {
		name  string
		wire  WireModel
		op    ReorderOp
		want  []WireModel
		moved bool
	}{
		{"first", c, MoveFirst, []WireModel{c, a, b}, true},
		{"last", a, MoveLast, []WireModel{b, c, a}, true},
		{"up", b, MoveUp, []WireModel{b, a, c}, true},
		{"down", b, MoveDown, []WireModel{a, c, b}, true},
		{"down at end", c, MoveDown, []WireModel{a, b, c}, false},
		{"first at front", a, MoveFirst, []WireModel{a, b, c}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := []WireModel{a, b, c}
			require.Equal(t, tt.moved, reorder(list, tt.wire, tt.op))
			require.Equal(t, tt.want, list)
		})
	}
	require.Equal(t, "down", MoveDown.String())
}

// Incremental index maintenance returns the same wires, in the same order, as a
// full rebuild from the wire list.
func TestWireIndex_IncrementalMatchesRebuild(t *testing.T) {
	lib := testLibrary(t)

	rapid.Check(t, func(r *rapid.T) {
		limit := rapid.IntRange(1, 8).Draw(r, "limit")
		g := New(lib, WithIncrementalWireLimit(limit))

		var outputs, inputs []*Port
		for i := 0; i < 3; i++ {
			src, err := g.CreateNode("test.source")
			require.NoError(r, err)
			p, _ := src.Output("F")
			outputs = append(outputs, p)
		}
		for i := 0; i < 3; i++ {
			add, err := g.CreateNode("test.add")
			require.NoError(r, err)
			a, _ := add.Input("a")
			b, _ := add.Input("b")
			sum, _ := add.Output("sum")
			inputs = append(inputs, a, b)
			outputs = append(outputs, sum)
		}

		steps := rapid.IntRange(1, 25).Draw(r, "steps")
		for i := 0; i < steps; i++ {
			wires := g.Wires()
			if len(wires) > 0 && rapid.IntRange(0, 3).Draw(r, "op") == 0 {
				victim := wires[rapid.IntRange(0, len(wires)-1).Draw(r, "victim")]
				require.NoError(r, g.DeleteElements(victim))
			} else {
				from := rapid.SampledFrom(outputs).Draw(r, "from")
				to := rapid.SampledFrom(inputs).Draw(r, "to")
				_, _ = g.Connect(from, to) // self connections are rejected
			}

			fresh := newWireIndex(0)
			fresh.rebuild(g.Wires())
			for _, p := range append(append([]*Port{}, outputs...), inputs...) {
				require.Equal(r, fresh.lookup(p.key()), g.WiresFor(p), "port %s", p.key())
			}
		}
	})
}
