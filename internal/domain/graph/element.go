package graph

import "strings"

// ElementKind identifies the variant of an Element.
type ElementKind int

const (
	KindNode ElementKind = iota
	KindContextNode
	KindBlock
	KindPort
	KindWire
	KindVariable
	KindPortal
	KindSection
	KindGroup
	KindStickyNote
	KindPlacemat
	KindPlaceholder
)

func (k ElementKind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindContextNode:
		return "context-node"
	case KindBlock:
		return "block"
	case KindPort:
		return "port"
	case KindWire:
		return "wire"
	case KindVariable:
		return "variable"
	case KindPortal:
		return "portal"
	case KindSection:
		return "section"
	case KindGroup:
		return "group"
	case KindStickyNote:
		return "sticky-note"
	case KindPlacemat:
		return "placemat"
	case KindPlaceholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// Capability is a set of flags controlling what users may do with an element.
type Capability uint16

const (
	CapDeletable Capability = 1 << iota
	CapMovable
	CapRenamable
	CapCopiable
	CapSelectable
	CapCollapsible
	CapDroppable
	CapColorable
	CapAscendable
)

// CapDefault is the capability set of a freshly created node.
const CapDefault = CapDeletable | CapMovable | CapRenamable | CapCopiable |
	CapSelectable | CapCollapsible | CapDroppable | CapColorable | CapAscendable

var capabilityNames = []struct {
	flag Capability
	name string
}{
	{CapDeletable, "deletable"},
	{CapMovable, "movable"},
	{CapRenamable, "renamable"},
	{CapCopiable, "copiable"},
	{CapSelectable, "selectable"},
	{CapCollapsible, "collapsible"},
	{CapDroppable, "droppable"},
	{CapColorable, "colorable"},
	{CapAscendable, "ascendable"},
}

// Has reports whether every flag in f is set.
func (c Capability) Has(f Capability) bool {
	return c&f == f
}

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	var names []string
	for _, cn := range capabilityNames {
		if c.Has(cn.flag) {
			names = append(names, cn.name)
		}
	}
	return strings.Join(names, "|")
}

// Position is a location on the graph canvas.
type Position struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Element is any graph-visible entity.
type Element interface {
	GUID() GUID
	Kind() ElementKind
	Capabilities() Capability

	// dependents returns the elements owned by this element. Unregistering an
	// element unregisters its dependents too.
	dependents() []Element
}

// elementBase carries the fields shared by every element.
type elementBase struct {
	guid GUID
	caps Capability
}

// GUID returns the element identifier.
func (e *elementBase) GUID() GUID { return e.guid }

// Capabilities returns the element capability flags.
func (e *elementBase) Capabilities() Capability { return e.caps }

// SetCapabilities replaces the capability flags.
func (e *elementBase) SetCapabilities(c Capability) { e.caps = c }

// HasCapability reports whether all flags in c are set.
func (e *elementBase) HasCapability(c Capability) bool { return e.caps.Has(c) }

func (e *elementBase) dependents() []Element { return nil }
