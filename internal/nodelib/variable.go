package nodelib

import (
	"fmt"

	"github.com/zjrosen/nodegraph/internal/domain/graph"
)

const stateVariable = "variable"

// variableDefinition reads or writes a variable declaration. Its ports follow
// the declaration's name and type; without a resolvable declaration it declares
// no data port, so wired ports turn into missing ports.
type variableDefinition struct {
	set      bool
	variable graph.GUID
}

var (
	_ graph.VariableReference  = (*variableDefinition)(nil)
	_ graph.StatefulDefinition = (*variableDefinition)(nil)
)

func (d *variableDefinition) VariableID() graph.GUID { return d.variable }

func (d *variableDefinition) State() map[string]any {
	if d.variable.IsZero() {
		return nil
	}
	return map[string]any{stateVariable: d.variable.String()}
}

func (d *variableDefinition) SetState(state map[string]any) error {
	switch v := state[stateVariable].(type) {
	case nil:
		d.variable = graph.GUID{}
	case graph.GUID:
		d.variable = v
	case string:
		id, err := graph.ParseGUID(v)
		if err != nil {
			return fmt.Errorf("variable reference: %w", err)
		}
		d.variable = id
	default:
		return fmt.Errorf("variable reference: unexpected %T", v)
	}
	return nil
}

func (d *variableDefinition) DefinePorts(pd *graph.PortDefiner) {
	if d.set {
		pd.AddExecutionInput("in")
		pd.AddExecutionOutput("out")
	}
	g := pd.Node().Graph()
	if g == nil {
		return
	}
	v, ok := graph.Get[*graph.VariableDeclaration](g, d.variable)
	if !ok {
		return
	}
	spec := graph.PortSpec{ID: "value", Title: v.Name(), Type: v.DataType()}
	if d.set {
		pd.AddInputPort(spec)
		return
	}
	pd.AddOutputPort(spec)
}

// ReferenceVariable points a variable.get or variable.set node at v and
// redefines it.
func ReferenceVariable(n *graph.Node, v *graph.VariableDeclaration) error {
	if _, ok := n.Definition().(*variableDefinition); !ok {
		return fmt.Errorf("%w: %s does not reference variables", ErrWrongKind, n.KindTag())
	}
	return n.SetDefinitionState(map[string]any{stateVariable: v.GUID().String()})
}
