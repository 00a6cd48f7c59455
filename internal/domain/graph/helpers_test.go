package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	typeFloat  TypeHandle = "float"
	typeInt    TypeHandle = "int"
	typeBool   TypeHandle = "bool"
	typeString TypeHandle = "string"
	typeVec3   TypeHandle = "vector3"
	typePair   TypeHandle = "pair"
)

// specDefinition declares whatever ports a test puts in it.
type specDefinition struct {
	inputs  []PortSpec
	outputs []PortSpec
}

func (d *specDefinition) DefinePorts(pd *PortDefiner) {
	for _, s := range d.inputs {
		pd.AddInputPort(s)
	}
	for _, s := range d.outputs {
		pd.AddOutputPort(s)
	}
}

// modeDefinition switches its whole port set on the "mode" option.
type modeDefinition struct{}

func (modeDefinition) DefineOptions(o *OptionDefiner) {
	o.AddOption(OptionSpec{ID: "mode", Title: "Mode", Type: typeString, Default: "a"})
}

func (modeDefinition) DefinePorts(d *PortDefiner) {
	switch d.Option("mode") {
	case "b":
		d.AddInputPort(PortSpec{ID: "left", Title: "Left", Type: typeFloat})
		d.AddInputPort(PortSpec{ID: "right", Title: "Right", Type: typeVec3})
		d.AddOutputPort(PortSpec{ID: "result", Title: "Result", Type: typeFloat})
	case "c":
		d.AddInputPort(PortSpec{ID: "flag", Title: "Flag", Type: typeBool})
	default:
		d.AddInputPort(PortSpec{ID: "in", Title: "In", Type: typeFloat})
		d.AddOutputPort(PortSpec{ID: "out", Title: "Out", Type: typeFloat})
	}
}

// badOptionDefinition declares an option of an unregistered type.
type badOptionDefinition struct{}

func (badOptionDefinition) DefineOptions(o *OptionDefiner) {
	o.AddOption(OptionSpec{ID: "broken", Type: "nope"})
	o.AddOption(OptionSpec{ID: "scale", Type: typeFloat, Default: 2.0})
}

func (badOptionDefinition) DefinePorts(d *PortDefiner) {
	d.AddInputPort(PortSpec{ID: "x", Title: "X", Type: typeFloat})
}

func declaring(dir Direction, specs ...PortSpec) func() Definition {
	return func() Definition {
		if dir == DirectionInput {
			return &specDefinition{inputs: specs}
		}
		return &specDefinition{outputs: specs}
	}
}

func testLibrary(t *testing.T) *Library {
	t.Helper()
	lib := NewLibrary()
	for _, info := range []TypeInfo{
		{Handle: TypeAny, Title: "Any"},
		{Handle: typeFloat, Title: "Float", NewConstant: func() Constant { return NewScalarConstant[float64](typeFloat, 0) }},
		{Handle: typeInt, Title: "Int", NewConstant: func() Constant { return NewScalarConstant[int64](typeInt, 0) }},
		{Handle: typeBool, Title: "Bool", NewConstant: func() Constant { return NewScalarConstant(typeBool, false) }},
		{Handle: typeString, Title: "String", NewConstant: func() Constant { return NewScalarConstant(typeString, "") }},
		{
			Handle:      typeVec3,
			Title:       "Vector 3",
			Fields:      []Field{{Name: "x", Type: typeFloat}, {Name: "y", Type: typeFloat}, {Name: "z", Type: typeFloat}},
			NewConstant: func() Constant { return NewVectorConstant(typeVec3, 3) },
		},
		{
			Handle: typePair,
			Title:  "Pair",
			Fields: []Field{{Name: "pos", Type: typeVec3}, {Name: "w", Type: typeFloat}},
		},
	} {
		require.NoError(t, lib.RegisterType(info))
	}

	for _, k := range []NodeKind{
		{Tag: "test.spec", Title: "Spec", New: func() Definition { return &specDefinition{} }},
		{Tag: "test.source", Title: "Source", New: declaring(DirectionOutput,
			PortSpec{ID: "Y", Title: "Y", Type: typeInt},
			PortSpec{ID: "F", Title: "F", Type: typeFloat},
		)},
		{Tag: "test.sink", Title: "Sink", New: declaring(DirectionInput,
			PortSpec{ID: "X", Title: "X", Type: typeInt},
		)},
		{Tag: "test.add", Title: "Add", New: func() Definition {
			return &specDefinition{
				inputs: []PortSpec{
					{ID: "a", Title: "A", Type: typeFloat, Default: 1.5},
					{ID: "b", Title: "B", Type: typeFloat},
				},
				outputs: []PortSpec{{ID: "sum", Title: "Sum", Type: typeFloat}},
			}
		}},
		{Tag: "test.vec", Title: "Vector", New: func() Definition {
			return &specDefinition{
				inputs: []PortSpec{
					{ID: "v", Title: "V", Type: typeVec3},
					{ID: "p", Title: "P", Type: typePair},
					{ID: "k", Title: "K", Type: typeFloat},
				},
				outputs: []PortSpec{{ID: "o", Title: "O", Type: typeVec3}},
			}
		}},
		{Tag: "test.seq", Title: "Sequence", New: func() Definition {
			return DefineFunc(func(d *PortDefiner) {
				d.AddExecutionInput("in")
				d.AddOutputPort(PortSpec{ID: "then", Title: "Then", Kind: PortKindExecution,
					Capacity: CapacityMulti, Options: PortOptionReorderable})
			})
		}},
		{Tag: "test.exec", Title: "Exec", New: func() Definition {
			return DefineFunc(func(d *PortDefiner) {
				d.AddExecutionInput("in")
				d.AddExecutionOutput("out")
			})
		}},
		{Tag: "test.mode", Title: "Mode", New: func() Definition { return modeDefinition{} }},
		{Tag: "test.badopt", Title: "Bad Option", New: func() Definition { return badOptionDefinition{} }},
		{Tag: "test.loop", Title: "Loop", AllowSelfConnection: true, New: func() Definition {
			return &specDefinition{
				inputs:  []PortSpec{{ID: "in", Title: "In", Type: typeFloat}},
				outputs: []PortSpec{{ID: "out", Title: "Out", Type: typeFloat}},
			}
		}},
		{Tag: "test.ctx", Title: "Context", Role: RoleContext, New: declaring(DirectionOutput,
			PortSpec{ID: "out", Title: "Out", Type: typeFloat},
		)},
		{Tag: "test.block", Title: "Block", Role: RoleBlock, New: declaring(DirectionInput,
			PortSpec{ID: "x", Title: "X", Type: typeFloat},
		)},
	} {
		require.NoError(t, lib.RegisterKind(k))
	}
	return lib
}

func newTestGraph(t *testing.T, opts ...Option) *Graph {
	t.Helper()
	return New(testLibrary(t), opts...)
}

func mustNode(t *testing.T, g *Graph, kind string, opts ...NodeOption) *Node {
	t.Helper()
	n, err := g.CreateNode(kind, opts...)
	require.NoError(t, err)
	return n
}

func mustInput(t *testing.T, n *Node, name string) *Port {
	t.Helper()
	p, ok := n.Input(name)
	require.True(t, ok, "input %q not found on %s, have %v", name, n.KindTag(), n.Inputs().Names())
	return p
}

func mustOutput(t *testing.T, n *Node, name string) *Port {
	t.Helper()
	p, ok := n.Output(name)
	require.True(t, ok, "output %q not found on %s, have %v", name, n.KindTag(), n.Outputs().Names())
	return p
}

func mustConnect(t *testing.T, g *Graph, from, to *Port) *Wire {
	t.Helper()
	w, err := g.Connect(from, to)
	require.NoError(t, err)
	return w
}

// specOf returns the mutable declaration of a test.spec node.
func specOf(t *testing.T, n *Node) *specDefinition {
	t.Helper()
	d, ok := n.Definition().(*specDefinition)
	require.True(t, ok)
	return d
}

// portIdentity captures what must not change across an idempotent pass.
type portIdentity struct {
	port *Port
	guid GUID
	name string
	typ  TypeHandle
}

func snapshotPorts(n *Node) []portIdentity {
	var out []portIdentity
	for _, coll := range []*OrderedPortCollection{n.Inputs(), n.Outputs()} {
		for _, p := range coll.All() {
			out = append(out, portIdentity{port: p, guid: p.GUID(), name: p.UniqueName(), typ: p.DataType()})
		}
	}
	return out
}
