package graph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDefine_Idempotent(t *testing.T) {
	g := newTestGraph(t)
	n := mustNode(t, g, "test.vec", WithExpandedPorts("v", "p", "p.pos"))
	src := mustNode(t, g, "test.source")
	w := mustConnect(t, g, mustOutput(t, src, "F"), mustInput(t, n, "p.w"))
	g.ClearModified()

	before := snapshotPorts(n)
	n.Define()

	require.Equal(t, before, snapshotPorts(n))
	require.True(t, g.CurrentChangeDescription().IsEmpty(), "second pass records nothing")
	require.False(t, g.Modified())
	require.Equal(t, []WireModel{w}, g.WiresFor(mustInput(t, n, "p.w")))
}

func TestDefine_ExpandedOrderIsDepthFirst(t *testing.T) {
	g := newTestGraph(t)
	n := mustNode(t, g, "test.vec", WithExpandedPorts("v", "p", "p.pos"))

	require.Equal(t, []string{
		"v", "v.x", "v.y", "v.z",
		"p", "p.pos", "p.pos.x", "p.pos.y", "p.pos.z", "p.w",
		"k",
	}, n.Inputs().Names())

	pos := mustInput(t, n, "p.pos")
	require.Same(t, mustInput(t, n, "p"), pos.Parent())
	require.Len(t, pos.SubPorts(), 3)
	require.ElementsMatch(t, []string{"k", "v"}, n.ConstantNames(), "only top-level typed inputs get constants")
}

// N.X is fed by M.Y. Redefining N with an unchanged declaration keeps the wire
// resolving to the same port objects on both sides.
func TestDefine_RedefineKeepsWire(t *testing.T) {
	g := newTestGraph(t)
	m := mustNode(t, g, "test.source")
	n := mustNode(t, g, "test.sink")
	x := mustInput(t, n, "X")
	y := mustOutput(t, m, "Y")
	w := mustConnect(t, g, y, x)

	n.Define()

	to, ok := g.ResolvePort(w.To())
	require.True(t, ok)
	require.Same(t, x, to)
	require.Same(t, x, mustInput(t, n, "X"))
	from, ok := g.ResolvePort(w.From())
	require.True(t, ok)
	require.Same(t, y, from)

	require.Equal(t, []WireModel{w}, g.WiresFor(x))
	require.Equal(t, []WireModel{w}, g.WiresFor(y))
}

// Ports whose id, type, direction and parent are unchanged keep their object
// and GUID across passes, whatever else changes around them.
func TestDefine_IdentityStabilityProperty(t *testing.T) {
	lib := testLibrary(t)
	types := []TypeHandle{typeFloat, typeInt, typeBool, typeVec3}

	rapid.Check(t, func(r *rapid.T) {
		g := New(lib)
		n, err := g.CreateNode("test.spec")
		require.NoError(r, err)
		def := n.Definition().(*specDefinition)

		count := rapid.IntRange(1, 6).Draw(r, "count")
		for i := 0; i < count; i++ {
			def.inputs = append(def.inputs, PortSpec{
				ID:    fmt.Sprintf("in%d", i),
				Title: fmt.Sprintf("In %d", i),
				Type:  rapid.SampledFrom(types).Draw(r, "type"),
			})
		}
		def.outputs = []PortSpec{{ID: "out", Title: "Out", Type: typeFloat}}
		n.Define()

		before := make(map[string]*Port)
		for _, p := range n.Inputs().All() {
			before[p.UniqueName()] = p
		}

		// Retitle some ports and reverse the declaration order.
		for i := range def.inputs {
			if rapid.Bool().Draw(r, "retitle") {
				def.inputs[i].Title = "renamed"
			}
		}
		for i, j := 0, len(def.inputs)-1; i < j; i, j = i+1, j-1 {
			def.inputs[i], def.inputs[j] = def.inputs[j], def.inputs[i]
		}
		n.Define()

		require.Equal(r, len(before), n.Inputs().Len())
		for name, p := range before {
			got, ok := n.Input(name)
			require.True(r, ok, "port %s", name)
			require.Same(r, p, got)
			require.Equal(r, p.GUID(), got.GUID())
			found, ok := g.Lookup(p.GUID())
			require.True(r, ok)
			require.Same(r, p, found)
		}

		snapshot := snapshotPorts(n)
		n.Define()
		require.Equal(r, snapshot, snapshotPorts(n))
	})
}

func TestDefine_ModeSwitchReattachesWires(t *testing.T) {
	g := newTestGraph(t)
	src := mustNode(t, g, "test.source")
	mode := mustNode(t, g, "test.mode")
	add := mustNode(t, g, "test.add")

	in := mustConnect(t, g, mustOutput(t, src, "F"), mustInput(t, mode, "in"))
	out := mustConnect(t, g, mustOutput(t, mode, "out"), mustInput(t, add, "a"))

	require.NoError(t, mode.SetOptionValue("mode", "b"))

	require.Equal(t, []string{"$mode", "left", "right"}, mode.Inputs().Names())
	require.Equal(t, []string{"result"}, mode.Outputs().Names())
	require.Len(t, g.Wires(), 2)
	require.Equal(t, "left", in.To().UniqueName, "first free float input")
	require.Equal(t, "result", out.From().UniqueName)
	require.Equal(t, NodeStateValid, mode.State())

	desc := g.CurrentChangeDescription()
	require.True(t, desc.IsChanged(in.GUID()))
	require.Contains(t, desc.Hints(in.GUID()), HintWiring)
	require.Contains(t, desc.Hints(mode.GUID()), HintPorts)
}

func TestDefine_ModeSwitchSynthesizesMissingPorts(t *testing.T) {
	g := newTestGraph(t)
	src := mustNode(t, g, "test.source")
	mode := mustNode(t, g, "test.mode", WithOption("mode", "b"))
	add := mustNode(t, g, "test.add")
	in := mustConnect(t, g, mustOutput(t, src, "F"), mustInput(t, mode, "left"))
	out := mustConnect(t, g, mustOutput(t, mode, "result"), mustInput(t, add, "a"))
	leftGUID := mustInput(t, mode, "left").GUID()

	require.NoError(t, mode.SetOptionValue("mode", "c"))

	require.Len(t, g.Wires(), 2, "no wire is lost")
	left := mustInput(t, mode, "left")
	require.True(t, left.IsMissing())
	require.Equal(t, "Left", left.Title())
	require.True(t, mustOutput(t, mode, "result").IsMissing())
	require.Equal(t, NodeStateMissing, mode.State())
	require.Equal(t, []WireModel{in}, g.WiresFor(left))
	require.Equal(t, "left", in.To().UniqueName)
	require.Equal(t, "result", out.From().UniqueName)

	// Missing ports are stable across passes.
	snapshot := snapshotPorts(mode)
	mode.Define()
	require.Equal(t, snapshot, snapshotPorts(mode))

	// Switching back revives the original ports.
	require.NoError(t, mode.SetOptionValue("mode", "b"))
	left = mustInput(t, mode, "left")
	require.False(t, left.IsMissing())
	require.Equal(t, leftGUID, left.GUID())
	require.Equal(t, NodeStateValid, mode.State())
	require.Equal(t, []WireModel{in}, g.WiresFor(left))
}

func TestDefine_MissingPortReattachesByTitle(t *testing.T) {
	g := newTestGraph(t)
	src := mustNode(t, g, "test.source")
	n := mustNode(t, g, "test.spec")
	def := specOf(t, n)
	def.inputs = []PortSpec{{ID: "a", Title: "Alpha", Type: typeFloat}}
	n.Define()
	w := mustConnect(t, g, mustOutput(t, src, "F"), mustInput(t, n, "a"))

	def.inputs = []PortSpec{{ID: "b", Title: "Beta", Type: typeInt}}
	n.Define()
	require.True(t, mustInput(t, n, "a").IsMissing())

	def.inputs = []PortSpec{{ID: "c", Title: "Alpha", Type: typeBool}}
	n.Define()

	require.Equal(t, []string{"c"}, n.Inputs().Names())
	require.Equal(t, "c", w.To().UniqueName)
	require.Equal(t, NodeStateValid, n.State())
}

// A port that just became obsolete only hands its wires to a port of the same
// kind and type. A same-titled port of another type does not take them.
func TestDefine_TitleMatchOnlyForMissingPorts(t *testing.T) {
	g := newTestGraph(t)
	src := mustNode(t, g, "test.source")
	n := mustNode(t, g, "test.spec")
	def := specOf(t, n)
	def.inputs = []PortSpec{{ID: "a", Title: "Alpha", Type: typeFloat}}
	n.Define()
	w := mustConnect(t, g, mustOutput(t, src, "F"), mustInput(t, n, "a"))

	def.inputs = []PortSpec{{ID: "b", Title: "Alpha", Type: typeBool}}
	n.Define()

	a := mustInput(t, n, "a")
	require.True(t, a.IsMissing())
	require.Equal(t, typeFloat, a.DataType())
	require.Equal(t, "a", w.To().UniqueName)
	require.Equal(t, []WireModel{w}, g.WiresFor(a))
	require.Empty(t, g.WiresFor(mustInput(t, n, "b")))

	g.ClearModified()
	snapshot := snapshotPorts(n)
	n.Define()
	require.Equal(t, snapshot, snapshotPorts(n))
	require.Equal(t, "a", w.To().UniqueName, "an unchanged declaration leaves the wire alone")
	require.False(t, g.Modified())
}

func TestDefine_FormerKeyRenamesInPlace(t *testing.T) {
	g := newTestGraph(t)
	src := mustNode(t, g, "test.source")
	n := mustNode(t, g, "test.spec")
	def := specOf(t, n)
	def.inputs = []PortSpec{
		{ID: "v", Title: "V", Type: typeVec3},
		{ID: "k", Title: "K", Type: typeFloat},
	}
	n.Define()
	require.NoError(t, n.SetPortExpanded(mustInput(t, n, "v"), true))
	v := mustInput(t, n, "v")
	vx := mustInput(t, n, "v.x")
	w := mustConnect(t, g, mustOutput(t, src, "F"), vx)
	require.NoError(t, n.SetConstantValue("v", []float64{1, 2, 3}))

	def.inputs[0] = PortSpec{ID: "pos", Title: "Position", Type: typeVec3, FormerKey: "v"}
	n.Define()

	require.Equal(t, []string{"pos", "pos.x", "pos.y", "pos.z", "k"}, n.Inputs().Names())
	require.Same(t, v, mustInput(t, n, "pos"))
	require.Same(t, vx, mustInput(t, n, "pos.x"), "sub-ports follow their parent")
	require.Equal(t, "Position", v.Title())
	require.Equal(t, "pos.x", w.To().UniqueName)
	require.Equal(t, []WireModel{w}, g.WiresFor(vx))
	require.Equal(t, []string{"pos"}, n.ExpandedPorts())
	c, ok := n.Constant("pos")
	require.True(t, ok)
	require.Equal(t, []float64{1, 2, 3}, c.Value())
	require.Equal(t, NodeStateValid, n.State())
	require.Contains(t, g.CurrentChangeDescription().Hints(n.GUID()), HintPorts)

	snapshot := snapshotPorts(n)
	n.Define()
	require.Equal(t, snapshot, snapshotPorts(n))
}

func TestSwapPorts(t *testing.T) {
	g := newTestGraph(t)
	n := mustNode(t, g, "test.vec", WithExpandedPorts("v"))
	p, k := mustInput(t, n, "p"), mustInput(t, n, "k")
	g.ClearModified()

	require.NoError(t, n.SwapPorts(p, k))
	want := []string{"v", "v.x", "v.y", "v.z", "k", "p"}
	require.Equal(t, want, n.Inputs().Names())
	require.Equal(t, []string{"v", "k", "p"}, n.PortOrder(DirectionInput))
	require.Nil(t, n.PortOrder(DirectionOutput))
	require.Contains(t, g.CurrentChangeDescription().Hints(n.GUID()), HintOrder)
	require.True(t, g.Modified())

	n.Define()
	require.Equal(t, want, n.Inputs().Names(), "manual order survives reconciliation")

	require.ErrorIs(t, n.SwapPorts(mustInput(t, n, "v"), k), ErrPortNotMovable)
	require.ErrorIs(t, n.SwapPorts(mustInput(t, n, "v.x"), k), ErrPortNotMovable)
	require.ErrorIs(t, n.SwapPorts(k, mustOutput(t, n, "o")), ErrPortNotMovable)
	other := mustNode(t, g, "test.vec")
	require.ErrorIs(t, n.SwapPorts(k, mustInput(t, other, "k")), ErrPortNotOnNode)

	out, err := g.CloneElements([]Element{n}, Position{})
	require.NoError(t, err)
	clone, ok := out[0].(*Node)
	require.True(t, ok)
	require.Equal(t, want, clone.Inputs().Names())
}

func TestDefine_PruneObsoleteWires(t *testing.T) {
	g := newTestGraph(t, WithPruneObsoleteWires(true))
	src := mustNode(t, g, "test.source")
	mode := mustNode(t, g, "test.mode")
	w := mustConnect(t, g, mustOutput(t, src, "F"), mustInput(t, mode, "in"))

	require.NoError(t, mode.SetOptionValue("mode", "c"))

	require.Empty(t, g.Wires())
	require.True(t, g.CurrentChangeDescription().IsRemoved(w.GUID()))
	require.Equal(t, NodeStateValid, mode.State())
}

func TestDefine_Constants(t *testing.T) {
	g := newTestGraph(t)
	add := mustNode(t, g, "test.add", WithConstant("b", 4))

	a, ok := add.Constant("a")
	require.True(t, ok)
	require.Equal(t, 1.5, a.Value(), "port default")
	b, ok := add.Constant("b")
	require.True(t, ok)
	require.Equal(t, 4.0, b.Value(), "creation value converted to float")

	require.NoError(t, add.SetConstantValue("a", 2))
	require.Equal(t, 2.0, a.Value())
	require.ErrorIs(t, add.SetConstantValue("a", "text"), ErrConstantType)
}

func TestDefine_ConstantsFollowPortType(t *testing.T) {
	g := newTestGraph(t)
	n := mustNode(t, g, "test.spec")
	def := specOf(t, n)
	def.inputs = []PortSpec{{ID: "v", Type: typeFloat}, {ID: "gone", Type: typeFloat}}
	n.Define()
	require.NoError(t, n.SetConstantValue("v", 2.0))
	v := mustInput(t, n, "v")
	id := v.GUID()

	def.inputs = []PortSpec{{ID: "v", Type: typeInt}}
	n.Define()

	require.Same(t, v, mustInput(t, n, "v"), "a retyped port keeps its object")
	require.Equal(t, id, v.GUID())
	require.Equal(t, typeInt, v.DataType())

	c, ok := n.Constant("v")
	require.True(t, ok)
	require.Equal(t, typeInt, c.Type())
	require.Equal(t, int64(2), c.Value())
	_, ok = n.Constant("gone")
	require.False(t, ok, "constants of retired ports are pruned")
}

func TestDefine_PendingConstantAppliedWhenPortAppears(t *testing.T) {
	g := newTestGraph(t)
	n := mustNode(t, g, "test.spec")

	require.NoError(t, n.SetConstantValue("later", "hello"))
	require.Equal(t, map[string]any{"later": "hello"}, n.PendingConstants())

	specOf(t, n).inputs = []PortSpec{{ID: "later", Type: typeString}}
	n.Define()

	c, ok := n.Constant("later")
	require.True(t, ok)
	require.Equal(t, "hello", c.Value())
	require.Empty(t, n.PendingConstants())
}

func TestDefine_NodeOptionPorts(t *testing.T) {
	g := newTestGraph(t)
	src := mustNode(t, g, "test.source")
	mode := mustNode(t, g, "test.mode")

	opt, ok := mode.OptionPort("mode")
	require.True(t, ok)
	require.True(t, opt.IsNodeOption())
	require.True(t, opt.HasOption(PortOptionHidden))
	require.Equal(t, CapacityNone, opt.Capacity())
	require.Equal(t, "a", mode.OptionValue("mode"))
	require.Equal(t, "a", mode.OptionString("mode", "fallback"))
	require.Equal(t, "fallback", mode.OptionString("absent", "fallback"))
	require.NotContains(t, portNames(mode.Inputs().Visible()), "$mode")

	_, err := g.Connect(mustOutput(t, src, "F"), opt)
	require.Error(t, err)
}

func TestDefine_UndeclaredNodeOptionSurvives(t *testing.T) {
	lib := testLibrary(t)
	declare := true
	require.NoError(t, lib.RegisterKind(NodeKind{Tag: "test.toggle", New: func() Definition {
		return toggleDefinition{declare: &declare}
	}}))
	g := New(lib)
	n, err := g.CreateNode("test.toggle", WithOption("speed", 3.0))
	require.NoError(t, err)
	opt, ok := n.OptionPort("speed")
	require.True(t, ok)

	declare = false
	n.Define()

	kept, ok := n.OptionPort("speed")
	require.True(t, ok)
	require.Same(t, opt, kept)
	require.Equal(t, 3.0, n.OptionValue("speed"))
}

type toggleDefinition struct{ declare *bool }

func (d toggleDefinition) DefineOptions(o *OptionDefiner) {
	if *d.declare {
		o.AddOption(OptionSpec{ID: "speed", Type: typeFloat})
	}
}

func (toggleDefinition) DefinePorts(d *PortDefiner) {
	d.AddExecutionInput("in")
}

func TestDefine_InvalidOptionTypeIsLoggedNotFatal(t *testing.T) {
	g := newTestGraph(t)
	n := mustNode(t, g, "test.badopt")

	errs := n.DefinitionErrors()
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], ErrUnknownType)
	require.Equal(t, []string{"$scale", "x"}, n.Inputs().Names(), "rest of the node is defined")
	require.Equal(t, 2.0, n.OptionValue("scale"))
	require.Equal(t, NodeStateMissing, n.State())
}

func TestDefine_RejectedDeclarations(t *testing.T) {
	g := newTestGraph(t)
	n := mustNode(t, g, "test.spec")
	specOf(t, n).inputs = []PortSpec{
		{ID: "a.b", Type: typeFloat},
		{ID: "$x", Type: typeFloat},
		{ID: "ok", Type: typeFloat},
		{ID: "ok", Type: typeInt},
		{Type: typeFloat},
		{ID: "m", Kind: PortKindMissing},
	}
	n.Define()

	require.Equal(t, []string{"ok"}, n.Inputs().Names())
	errs := n.DefinitionErrors()
	require.Len(t, errs, 5)
	require.ErrorIs(t, errs[0], ErrReservedSeparator)
	require.ErrorIs(t, errs[1], ErrReservedSeparator)
	require.ErrorIs(t, errs[2], ErrDuplicatePortName)
	require.ErrorIs(t, errs[3], ErrEmptyName)
	require.ErrorIs(t, errs[4], ErrInvalidConnection)
}

func TestDefine_ReentrantPassIsSkipped(t *testing.T) {
	lib := testLibrary(t)
	calls := 0
	require.NoError(t, lib.RegisterKind(NodeKind{Tag: "test.reentrant", New: func() Definition {
		return DefineFunc(func(d *PortDefiner) {
			calls++
			d.Node().Define()
			d.AddInputPort(PortSpec{ID: "x", Type: typeFloat})
		})
	}}))
	g := New(lib)

	n, err := g.CreateNode("test.reentrant")
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, []string{"x"}, n.Inputs().Names())
	require.Zero(t, g.ChangeDepth())
}

func TestSetPortExpanded(t *testing.T) {
	g := newTestGraph(t)
	n := mustNode(t, g, "test.vec")
	v := mustInput(t, n, "v")

	require.NoError(t, n.SetPortExpanded(v, true))
	require.Equal(t, []string{"v", "v.x", "v.y", "v.z", "p", "k"}, n.Inputs().Names())
	require.True(t, v.Expanded())
	require.Equal(t, []string{"v"}, n.ExpandedPorts())
	desc := g.CurrentChangeDescription()
	require.Contains(t, desc.Hints(v.GUID()), HintExpanded)
	require.Contains(t, desc.Hints(n.GUID()), HintPorts)
	vx := mustInput(t, n, "v.x")
	require.True(t, desc.IsAdded(vx.GUID()))

	src := mustNode(t, g, "test.source")
	w := mustConnect(t, g, mustOutput(t, src, "F"), vx)
	require.ErrorIs(t, n.SetPortExpanded(v, false), ErrSubPortsConnected)

	require.NoError(t, g.DeleteElements(w))
	require.NoError(t, n.SetPortExpanded(v, false))
	require.Equal(t, []string{"v", "p", "k"}, n.Inputs().Names())
	_, ok := g.Lookup(vx.GUID())
	require.False(t, ok, "collapsed sub-ports are unregistered")

	require.NoError(t, n.SetPortExpanded(v, true))
	again := mustInput(t, n, "v.x")
	require.Equal(t, vx.GUID(), again.GUID(), "sub-port GUIDs are content derived")

	snapshot := snapshotPorts(n)
	n.Define()
	require.Equal(t, snapshot, snapshotPorts(n))
}

func TestSetPortExpanded_Errors(t *testing.T) {
	g := newTestGraph(t)
	n := mustNode(t, g, "test.vec")
	other := mustNode(t, g, "test.vec")

	require.ErrorIs(t, n.SetPortExpanded(mustInput(t, n, "k"), true), ErrNotExpandable)
	require.ErrorIs(t, n.SetPortExpanded(mustInput(t, other, "v"), true), ErrPortNotOnNode)
	require.NoError(t, n.SetPortExpanded(mustInput(t, n, "v"), false), "already collapsed")
}

func TestDefine_VariableReferenceFollowsDeclaration(t *testing.T) {
	lib := testLibrary(t)
	var target GUID
	require.NoError(t, lib.RegisterKind(NodeKind{Tag: "test.get", New: func() Definition {
		return &getDefinition{variable: target}
	}}))
	g := New(lib)
	v, err := g.CreateVariable(VariableSpec{Name: "speed", Type: typeFloat})
	require.NoError(t, err)
	target = v.GUID()
	n, err := g.CreateNode("test.get")
	require.NoError(t, err)
	out := mustOutput(t, n, "value")
	require.Equal(t, "speed", out.Title())

	require.NoError(t, g.RenameVariable(v, "velocity"))
	require.Equal(t, "velocity", mustOutput(t, n, "value").Title())

	require.NoError(t, g.SetVariableType(v, typeVec3))
	require.Equal(t, typeVec3, mustOutput(t, n, "value").DataType())

	require.NoError(t, g.DeleteElements(v))
	require.Empty(t, n.Outputs().Names())
}

type getDefinition struct{ variable GUID }

func (d *getDefinition) VariableID() GUID { return d.variable }

func (d *getDefinition) DefinePorts(pd *PortDefiner) {
	v, ok := Get[*VariableDeclaration](pd.Node().Graph(), d.variable)
	if !ok {
		return
	}
	pd.AddOutputPort(PortSpec{ID: "value", Title: v.Name(), Type: v.DataType()})
}

func portNames(ports []*Port) []string {
	out := make([]string, len(ports))
	for i, p := range ports {
		out[i] = p.UniqueName()
	}
	return out
}

func TestDefinitionErrorsAreCopies(t *testing.T) {
	g := newTestGraph(t)
	n := mustNode(t, g, "test.badopt")
	errs := n.DefinitionErrors()
	errs[0] = errors.New("overwritten")
	require.ErrorIs(t, n.DefinitionErrors()[0], ErrUnknownType)
}
