package graph

import (
	"fmt"
	"sort"
)

// Category names the persisted list a placeholder belongs to.
type Category int

const (
	CategoryNode Category = iota
	CategoryContextNode
	CategoryBlock
	CategoryWire
	CategoryVariable
	CategoryPortal
)

func (c Category) String() string {
	switch c {
	case CategoryNode:
		return "node"
	case CategoryContextNode:
		return "context-node"
	case CategoryBlock:
		return "block"
	case CategoryWire:
		return "wire"
	case CategoryVariable:
		return "variable"
	case CategoryPortal:
		return "portal"
	default:
		return "unknown"
	}
}

// ParseCategory parses the text form of a Category.
func ParseCategory(s string) (Category, error) {
	for c := CategoryNode; c <= CategoryPortal; c++ {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedCategory, s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MissingEntry is the persisted metadata row of one placeholder slot.
type MissingEntry struct {
	Category Category `yaml:"category" json:"category"`
	Index    int      `yaml:"index" json:"index"`
	GUID     GUID     `yaml:"guid" json:"guid"`
	// Container is the owning context node of a block slot.
	Container GUID `yaml:"container,omitempty" json:"container,omitzero"`
	// ToRemove marks a slot whose unresolved data the user deleted. The loader
	// drops the slot and shifts later indices of the same list down.
	ToRemove bool `yaml:"to_remove,omitempty" json:"to_remove,omitempty"`
}

// RepairSlots applies the to-remove entries of one persisted list. entries must
// all describe that list. It returns the compacted slots and the entries that
// remain, with their indices shifted to match.
func RepairSlots[T any](slots []T, entries []MissingEntry) ([]T, []MissingEntry) {
	sorted := make([]MissingEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	out := make([]T, len(slots))
	copy(out, slots)
	kept := make([]MissingEntry, 0, len(sorted))
	removed := 0
	for _, e := range sorted {
		e.Index -= removed
		if e.ToRemove {
			if e.Index >= 0 && e.Index < len(out) {
				out = append(out[:e.Index], out[e.Index+1:]...)
				removed++
			}
			continue
		}
		kept = append(kept, e)
	}
	return out, kept
}

// PlaceholderSpec describes the stand-in for an unresolvable element.
type PlaceholderSpec struct {
	GUID      GUID
	Container GUID
	Title     string
	Position  Position
	// From and To keep the endpoints of a wire placeholder when they could be read.
	From PortReference
	To   PortReference
	// BlockIDs are the child blocks of a context-node placeholder.
	BlockIDs []GUID
	// Payload is the raw persisted data, written back unchanged on save.
	Payload any
	Reason  string
}

// Placeholder stands in for an element whose type could not be resolved. It keeps
// the element GUID, its slot in the owning list and its raw data.
type Placeholder struct {
	elementBase
	category  Category
	index     int
	container GUID
	title     string
	position  Position
	from      PortReference
	to        PortReference
	blocks    []*Placeholder
	payload   any
	reason    string
	toRemove  bool
}

func newPlaceholder(cat Category, index int, spec PlaceholderSpec) *Placeholder {
	caps := CapDeletable | CapSelectable
	if cat == CategoryNode || cat == CategoryContextNode {
		caps |= CapMovable
	}
	p := &Placeholder{
		elementBase: elementBase{guid: spec.GUID, caps: caps},
		category:    cat,
		index:       index,
		container:   spec.Container,
		title:       spec.Title,
		position:    spec.Position,
		from:        spec.From,
		to:          spec.To,
		payload:     spec.Payload,
		reason:      spec.Reason,
	}
	p.from.Direction = DirectionOutput
	p.to.Direction = DirectionInput
	if cat == CategoryContextNode {
		for i, id := range spec.BlockIDs {
			b := newPlaceholder(CategoryBlock, i, PlaceholderSpec{GUID: id, Container: spec.GUID})
			b.caps = 0
			p.blocks = append(p.blocks, b)
		}
	}
	return p
}

// Kind implements Element.
func (p *Placeholder) Kind() ElementKind { return KindPlaceholder }

func (p *Placeholder) dependents() []Element {
	out := make([]Element, 0, len(p.blocks))
	for _, b := range p.blocks {
		out = append(out, b)
	}
	return out
}

// Category returns the list the placeholder belongs to.
func (p *Placeholder) Category() Category { return p.category }

// Index returns the slot index recorded at load or at the last persistence pass.
func (p *Placeholder) Index() int { return p.index }

// Container returns the owning context node of a block placeholder.
func (p *Placeholder) Container() GUID { return p.container }

// Title returns the title salvaged from the raw data.
func (p *Placeholder) Title() string { return p.title }

// Name is Title, for declaration placeholders.
func (p *Placeholder) Name() string { return p.title }

// DataType is always unknown for placeholders.
func (p *Placeholder) DataType() TypeHandle { return TypeUnknown }

// Position returns the position salvaged from the raw data.
func (p *Placeholder) Position() Position { return p.position }

// State implements NodeModel.
func (p *Placeholder) State() NodeState { return NodeStateUnresolved }

// From returns the salvaged output endpoint of a wire placeholder.
func (p *Placeholder) From() PortReference { return p.from }

// To returns the salvaged input endpoint of a wire placeholder.
func (p *Placeholder) To() PortReference { return p.to }

// BlockIDs returns the child block GUIDs of a context-node placeholder.
func (p *Placeholder) BlockIDs() []GUID {
	out := make([]GUID, len(p.blocks))
	for i, b := range p.blocks {
		out[i] = b.guid
	}
	return out
}

// Blocks returns the block placeholders of a context-node placeholder.
func (p *Placeholder) Blocks() []*Placeholder {
	out := make([]*Placeholder, len(p.blocks))
	copy(out, p.blocks)
	return out
}

// Payload returns the raw persisted data.
func (p *Placeholder) Payload() any { return p.payload }

// Reason explains why the element could not be resolved.
func (p *Placeholder) Reason() string { return p.reason }

// ToRemove reports whether the user deleted the placeholder.
func (p *Placeholder) ToRemove() bool { return p.toRemove }

// isTombstone reports whether slot is a deleted placeholder kept to hold its index.
func isTombstone(e Element) bool {
	p, ok := e.(*Placeholder)
	return ok && p.toRemove
}
