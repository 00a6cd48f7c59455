package graph

import "fmt"

// PortKey identifies a port slot independently of the port object occupying it.
type PortKey struct {
	Node      GUID
	Direction Direction
	Name      string
}

func (k PortKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Node.Short(), k.Direction, k.Name)
}

// PortReference is how a wire refers to one of its endpoints. Title and Type are
// snapshots used to synthesize a missing port when the endpoint disappears.
type PortReference struct {
	NodeID     GUID       `yaml:"node" json:"node"`
	Direction  Direction  `yaml:"-" json:"-"`
	UniqueName string     `yaml:"port" json:"port"`
	Title      string     `yaml:"title,omitempty" json:"title,omitempty"`
	Type       TypeHandle `yaml:"type,omitempty" json:"type,omitempty"`
}

// Key returns the index key of the referenced port.
func (r PortReference) Key() PortKey {
	return PortKey{Node: r.NodeID, Direction: r.Direction, Name: r.UniqueName}
}

// IsZero reports whether the reference points nowhere.
func (r PortReference) IsZero() bool {
	return r.NodeID.IsZero() && r.UniqueName == ""
}

// WireModel is an entry of the graph wire list: a Wire or a wire Placeholder.
type WireModel interface {
	Element
	From() PortReference
	To() PortReference
}

// Wire connects an output port to an input port.
type Wire struct {
	elementBase
	from PortReference
	to   PortReference
}

// Kind implements Element.
func (w *Wire) Kind() ElementKind { return KindWire }

// From returns the output-side reference.
func (w *Wire) From() PortReference { return w.from }

// To returns the input-side reference.
func (w *Wire) To() PortReference { return w.to }

// Endpoint returns the reference on the given side.
func (w *Wire) Endpoint(dir Direction) PortReference {
	if dir == DirectionOutput {
		return w.from
	}
	return w.to
}

func (w *Wire) setEndpoint(ref PortReference) {
	if ref.Direction == DirectionOutput {
		w.from = ref
	} else {
		w.to = ref
	}
}

// NewWire builds a detached wire. Graphs attach wires with Graph.Connect or
// Graph.AddWire.
func NewWire(id GUID, from, to PortReference) *Wire {
	from.Direction = DirectionOutput
	to.Direction = DirectionInput
	return &Wire{
		elementBase: elementBase{guid: id, caps: CapDeletable | CapSelectable | CapCopiable},
		from:        from,
		to:          to,
	}
}

var (
	_ WireModel = (*Wire)(nil)
	_ WireModel = (*Placeholder)(nil)
)
