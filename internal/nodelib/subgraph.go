package nodelib

import (
	"fmt"

	"github.com/zjrosen/nodegraph/internal/domain/graph"
)

// Parameter is one entry of a subgraph interface.
type Parameter struct {
	Name string
	Type graph.TypeHandle
}

// subgraphDefinition exposes the declared interface of a called subgraph.
type subgraphDefinition struct {
	target  string
	inputs  []Parameter
	outputs []Parameter
}

var _ graph.StatefulDefinition = (*subgraphDefinition)(nil)

func (d *subgraphDefinition) State() map[string]any {
	if d.target == "" && len(d.inputs) == 0 && len(d.outputs) == 0 {
		return nil
	}
	return map[string]any{
		"target":  d.target,
		"inputs":  encodeParameters(d.inputs),
		"outputs": encodeParameters(d.outputs),
	}
}

func (d *subgraphDefinition) SetState(state map[string]any) error {
	target, _ := state["target"].(string)
	inputs, err := decodeParameters(state["inputs"])
	if err != nil {
		return fmt.Errorf("inputs: %w", err)
	}
	outputs, err := decodeParameters(state["outputs"])
	if err != nil {
		return fmt.Errorf("outputs: %w", err)
	}
	d.target, d.inputs, d.outputs = target, inputs, outputs
	return nil
}

func (d *subgraphDefinition) DefinePorts(pd *graph.PortDefiner) {
	pd.AddExecutionInput("in")
	pd.AddExecutionOutput("out")
	for _, p := range d.inputs {
		pd.AddInputPort(graph.PortSpec{ID: p.Name, Title: p.Name, Type: p.Type})
	}
	for _, p := range d.outputs {
		pd.AddOutputPort(graph.PortSpec{ID: p.Name, Title: p.Name, Type: p.Type})
	}
}

// SetSubgraphInterface declares the interface of a subgraph.call node and
// redefines it. Wires on parameters that disappear are kept on missing ports.
func SetSubgraphInterface(n *graph.Node, target string, inputs, outputs []Parameter) error {
	if _, ok := n.Definition().(*subgraphDefinition); !ok {
		return fmt.Errorf("%w: %s is not a subgraph call", ErrWrongKind, n.KindTag())
	}
	return n.SetDefinitionState(map[string]any{
		"target":  target,
		"inputs":  encodeParameters(inputs),
		"outputs": encodeParameters(outputs),
	})
}

func encodeParameters(params []Parameter) []any {
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = map[string]any{"name": p.Name, "type": string(p.Type)}
	}
	return out
}

// decodeParameters accepts the encoded form as well as what YAML and JSON
// decoders produce for it.
func decodeParameters(v any) ([]Parameter, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: want a list, got %T", ErrInvalidInterface, v)
	}
	out := make([]Parameter, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: entry %d is %T", ErrInvalidInterface, i, item)
		}
		name, _ := m["name"].(string)
		typ, _ := m["type"].(string)
		if name == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", ErrInvalidInterface, i)
		}
		out = append(out, Parameter{Name: name, Type: graph.TypeHandle(typ)})
	}
	return out, nil
}
