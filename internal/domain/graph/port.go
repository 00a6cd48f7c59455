package graph

import (
	"fmt"
	"strings"
)

// Direction is the side of a node a port sits on.
type Direction int

const (
	DirectionInput Direction = iota
	DirectionOutput
)

func (d Direction) String() string {
	switch d {
	case DirectionInput:
		return "input"
	case DirectionOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == DirectionInput {
		return DirectionOutput
	}
	return DirectionInput
}

// ParseDirection parses the text form of a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "input":
		return DirectionInput, nil
	case "output":
		return DirectionOutput, nil
	default:
		return DirectionInput, fmt.Errorf("invalid direction %q", s)
	}
}

// PortKind distinguishes data, execution and missing ports.
type PortKind int

const (
	PortKindData PortKind = iota
	PortKindExecution
	// PortKindMissing marks a port synthesized to keep a wire whose original
	// endpoint no longer exists.
	PortKindMissing
)

func (k PortKind) String() string {
	switch k {
	case PortKindData:
		return "data"
	case PortKindExecution:
		return "execution"
	case PortKindMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Capacity limits how many wires a port accepts.
type Capacity int

const (
	// CapacityDefault resolves to single for data inputs and execution outputs,
	// multi otherwise.
	CapacityDefault Capacity = iota
	CapacityNone
	CapacitySingle
	CapacityMulti
)

func (c Capacity) String() string {
	switch c {
	case CapacityDefault:
		return "default"
	case CapacityNone:
		return "none"
	case CapacitySingle:
		return "single"
	case CapacityMulti:
		return "multi"
	default:
		return "unknown"
	}
}

func resolveCapacity(c Capacity, dir Direction, kind PortKind) Capacity {
	if c != CapacityDefault {
		return c
	}
	if kind == PortKindExecution {
		if dir == DirectionOutput {
			return CapacitySingle
		}
		return CapacityMulti
	}
	if dir == DirectionInput {
		return CapacitySingle
	}
	return CapacityMulti
}

// PortOption is a set of port flags.
type PortOption uint8

const (
	PortOptionHidden PortOption = 1 << iota
	// PortOptionNodeOption marks a port backing a node option. Such ports survive
	// reconciliation passes that do not declare them.
	PortOptionNodeOption
	// PortOptionReorderable lets users reorder the wires leaving the port.
	PortOptionReorderable
)

// Has reports whether every flag in o is set.
func (p PortOption) Has(o PortOption) bool {
	return p&o == o
}

// subPortSeparator joins a parent unique name and a sub-port key.
const subPortSeparator = "."

// optionPortPrefix prefixes the unique names of node-option ports.
const optionPortPrefix = "$"

// ValidatePortID rejects explicit port ids that cannot form a unique name.
func ValidatePortID(id string) error {
	if strings.Contains(id, subPortSeparator) || strings.HasPrefix(id, optionPortPrefix) {
		return fmt.Errorf("%w: %q", ErrReservedSeparator, id)
	}
	return nil
}

// PortSpec declares a port during reconciliation.
type PortSpec struct {
	// ID is the explicit identifier. When empty the title is used.
	ID       string
	Title    string
	Type     TypeHandle
	Kind     PortKind
	Capacity Capacity
	Options  PortOption
	Tooltip  string
	// Default is assigned to the port constant when the constant is created.
	Default any
	// FormerKey is the key the port was declared under before a rename. A
	// previous port under that key is renamed in place and keeps its wires.
	FormerKey string
}

func (s PortSpec) key() string {
	if s.ID != "" {
		return s.ID
	}
	return s.Title
}

// Port is a connection point on a node.
type Port struct {
	elementBase
	nodeID     GUID
	direction  Direction
	kind       PortKind
	dataType   TypeHandle
	capacity   Capacity
	id         string
	title      string
	tooltip    string
	uniqueName string
	parent     *Port
	subPorts   []*Port
	expanded   bool
	options    PortOption
	defaultVal any
	// retiredFor is the candidate signature a missing port was retired against.
	// Empty for live ports and for ports synthesized for loaded wires.
	retiredFor string
}

// Kind implements Element.
func (p *Port) Kind() ElementKind { return KindPort }

func (p *Port) dependents() []Element {
	out := make([]Element, 0, len(p.subPorts))
	for _, sp := range p.subPorts {
		out = append(out, sp)
	}
	return out
}

// NodeID returns the GUID of the owning node.
func (p *Port) NodeID() GUID { return p.nodeID }

// Direction returns the side the port sits on.
func (p *Port) Direction() Direction { return p.direction }

// PortKind returns whether the port carries data, execution or is missing.
func (p *Port) PortKind() PortKind { return p.kind }

// DataType returns the data type handle.
func (p *Port) DataType() TypeHandle { return p.dataType }

// Capacity returns how many wires the port accepts.
func (p *Port) Capacity() Capacity { return p.capacity }

// ID returns the explicit id, or "" when the port is keyed by title.
func (p *Port) ID() string { return p.id }

// Title returns the display name.
func (p *Port) Title() string { return p.title }

// Tooltip returns the port tooltip.
func (p *Port) Tooltip() string { return p.tooltip }

// UniqueName identifies the port within its node and direction.
func (p *Port) UniqueName() string { return p.uniqueName }

// Parent returns the parent port of a sub-port, or nil.
func (p *Port) Parent() *Port { return p.parent }

// SubPorts returns the materialized sub-ports.
func (p *Port) SubPorts() []*Port {
	out := make([]*Port, len(p.subPorts))
	copy(out, p.subPorts)
	return out
}

// Expanded reports whether the sub-ports are materialized.
func (p *Port) Expanded() bool { return p.expanded }

// Options returns the port flags.
func (p *Port) Options() PortOption { return p.options }

// HasOption reports whether the flags in o are set.
func (p *Port) HasOption(o PortOption) bool { return p.options.Has(o) }

// IsMissing reports whether the port was synthesized for an orphaned wire.
func (p *Port) IsMissing() bool { return p.kind == PortKindMissing }

// IsNodeOption reports whether the port backs a node option.
func (p *Port) IsNodeOption() bool { return p.options.Has(PortOptionNodeOption) }

// Reference returns the wire-side reference to this port.
func (p *Port) Reference() PortReference {
	return PortReference{
		NodeID:     p.nodeID,
		Direction:  p.direction,
		UniqueName: p.uniqueName,
		Title:      p.title,
		Type:       p.dataType,
	}
}

func (p *Port) key() PortKey {
	return PortKey{Node: p.nodeID, Direction: p.direction, Name: p.uniqueName}
}

// depth returns how many parents the port has.
func (p *Port) depth() int {
	d := 0
	for cur := p.parent; cur != nil; cur = cur.parent {
		d++
	}
	return d
}

// descendants returns the sub-port tree below p in depth-first order.
func (p *Port) descendants() []*Port {
	var out []*Port
	for _, sp := range p.subPorts {
		out = append(out, sp)
		out = append(out, sp.descendants()...)
	}
	return out
}

// composeUniqueName builds the unique name of a port keyed by key below parent.
func composeUniqueName(parent *Port, key string) string {
	if parent == nil {
		return key
	}
	return parent.uniqueName + subPortSeparator + key
}

// portContentGUID is the content hash used to find a reusable port.
func portContentGUID(node GUID, parent *Port, dir Direction, key string, kind PortKind, typ TypeHandle) GUID {
	parentID := ""
	if parent != nil {
		parentID = parent.guid.String()
	}
	return ContentGUID("port", node.String(), parentID, dir.String(), key, kind.String(), string(typ))
}
