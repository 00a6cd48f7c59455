package testutil

import "github.com/zjrosen/nodegraph/internal/domain/graph"

// nodeData holds everything needed to create one node.
type nodeData struct {
	alias     string
	kind      string
	title     string
	position  graph.Position
	options   map[string]any
	constants map[string]any
	caps      *graph.Capability
}

func defaultNode(alias, kind string) nodeData {
	return nodeData{
		alias:     alias,
		kind:      kind,
		options:   map[string]any{},
		constants: map[string]any{},
	}
}

func (n nodeData) graphOptions() []graph.NodeOption {
	var opts []graph.NodeOption
	if n.title != "" {
		opts = append(opts, graph.WithTitle(n.title))
	}
	opts = append(opts, graph.WithPosition(n.position))
	if n.caps != nil {
		opts = append(opts, graph.WithCapabilities(*n.caps))
	}
	for id, v := range n.options {
		opts = append(opts, graph.WithOption(id, v))
	}
	for port, v := range n.constants {
		opts = append(opts, graph.WithConstant(port, v))
	}
	return opts
}

// NodeOption configures a node during builder setup.
type NodeOption func(*nodeData)

// Title sets the node title.
func Title(title string) NodeOption {
	return func(n *nodeData) { n.title = title }
}

// At places the node.
func At(x, y float64) NodeOption {
	return func(n *nodeData) { n.position = graph.Position{X: x, Y: y} }
}

// Option sets a node option, for example the "type" of math.add.
func Option(id string, v any) NodeOption {
	return func(n *nodeData) { n.options[id] = v }
}

// Constant sets the constant value of an input port.
func Constant(port string, v any) NodeOption {
	return func(n *nodeData) { n.constants[port] = v }
}

// Capabilities replaces the default capability flags.
func Capabilities(caps graph.Capability) NodeOption {
	return func(n *nodeData) { n.caps = &caps }
}
