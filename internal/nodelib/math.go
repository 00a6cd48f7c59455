package nodelib

import (
	"github.com/zjrosen/nodegraph/internal/domain/graph"
)

// Switch modes.
const (
	ModeScalar = "scalar"
	ModeVector = "vector"
	ModeSelect = "select"
)

// addDefinition sums two values of the type chosen by its "type" option.
type addDefinition struct{}

func (addDefinition) DefineOptions(o *graph.OptionDefiner) {
	o.AddOption(graph.OptionSpec{ID: "type", Title: "Type", Type: TypeString, Default: string(TypeFloat)})
}

func (addDefinition) DefinePorts(d *graph.PortDefiner) {
	typ := numericType(d, "type")
	d.AddInputPort(graph.PortSpec{ID: "a", Title: "A", Type: typ})
	d.AddInputPort(graph.PortSpec{ID: "b", Title: "B", Type: typ})
	d.AddOutputPort(graph.PortSpec{ID: "sum", Title: "Sum", Type: typ})
}

// numericType reads a type option, falling back to float for anything the
// library does not know.
func numericType(d *graph.PortDefiner, option string) graph.TypeHandle {
	typ := graph.TypeHandle(d.Node().OptionString(option, string(TypeFloat)))
	if lib := d.Library(); lib != nil && !lib.HasType(typ) {
		return TypeFloat
	}
	return typ
}

// switchDefinition declares a different port set per mode.
type switchDefinition struct{}

func (switchDefinition) DefineOptions(o *graph.OptionDefiner) {
	o.AddOption(graph.OptionSpec{ID: "mode", Title: "Mode", Type: TypeString, Default: ModeScalar})
}

func (switchDefinition) DefinePorts(d *graph.PortDefiner) {
	switch d.Node().OptionString("mode", ModeScalar) {
	case ModeVector:
		d.AddInputPort(graph.PortSpec{ID: "v", Title: "V", Type: TypeVector3})
		d.AddOutputPort(graph.PortSpec{ID: "out", Title: "Out", Type: TypeVector3})
	case ModeSelect:
		d.AddInputPort(graph.PortSpec{ID: "condition", Title: "Condition", Type: TypeBool})
		d.AddInputPort(graph.PortSpec{ID: "a", Title: "A", Type: TypeAny})
		d.AddInputPort(graph.PortSpec{ID: "b", Title: "B", Type: TypeAny})
		d.AddOutputPort(graph.PortSpec{ID: "out", Title: "Out", Type: TypeAny})
	default:
		d.AddInputPort(graph.PortSpec{ID: "a", Title: "A", Type: TypeFloat})
		d.AddOutputPort(graph.PortSpec{ID: "out", Title: "Out", Type: TypeFloat})
	}
}

// constantDefinition holds an editable value of its "type" option.
type constantDefinition struct{}

func (constantDefinition) DefineOptions(o *graph.OptionDefiner) {
	o.AddOption(graph.OptionSpec{ID: "type", Title: "Type", Type: TypeString, Default: string(TypeFloat)})
}

func (constantDefinition) DefinePorts(d *graph.PortDefiner) {
	typ := numericType(d, "type")
	d.AddInputPort(graph.PortSpec{ID: "value", Title: "Value", Type: typ, Capacity: graph.CapacityNone})
	d.AddOutputPort(graph.PortSpec{ID: "out", Title: "Out", Type: typ})
}

func defineSplitVector3(d *graph.PortDefiner) {
	d.AddInputPort(graph.PortSpec{ID: "v", Title: "Vector", Type: TypeVector3})
	for _, f := range []string{"x", "y", "z"} {
		d.AddOutputPort(graph.PortSpec{ID: f, Title: f, Type: TypeFloat})
	}
}
