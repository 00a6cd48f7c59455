package graph

import "fmt"

// Rect is a canvas rectangle.
type Rect struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// DeclarationModel is an entry of the variable or portal list: a declaration or
// a Placeholder standing in for one.
type DeclarationModel interface {
	Element
	Name() string
	DataType() TypeHandle
}

var (
	_ DeclarationModel = (*VariableDeclaration)(nil)
	_ DeclarationModel = (*PortalDeclaration)(nil)
	_ DeclarationModel = (*Placeholder)(nil)
)

// VariableScope says how a variable is exposed.
type VariableScope int

const (
	ScopeLocal VariableScope = iota
	ScopeInput
	ScopeOutput
)

func (s VariableScope) String() string {
	switch s {
	case ScopeLocal:
		return "local"
	case ScopeInput:
		return "input"
	case ScopeOutput:
		return "output"
	default:
		return "unknown"
	}
}

// ParseVariableScope parses the text form of a VariableScope.
func ParseVariableScope(s string) (VariableScope, error) {
	switch s {
	case "", "local":
		return ScopeLocal, nil
	case "input":
		return ScopeInput, nil
	case "output":
		return ScopeOutput, nil
	default:
		return ScopeLocal, fmt.Errorf("invalid variable scope %q", s)
	}
}

// VariableSpec describes a variable declaration to create.
type VariableSpec struct {
	GUID    GUID
	Name    string
	Type    TypeHandle
	Scope   VariableScope
	Tooltip string
	Default any
}

// VariableDeclaration is a named, typed graph variable.
type VariableDeclaration struct {
	elementBase
	name     string
	dataType TypeHandle
	scope    VariableScope
	tooltip  string
	value    Constant
}

// Kind implements Element.
func (v *VariableDeclaration) Kind() ElementKind { return KindVariable }

// Name returns the variable name.
func (v *VariableDeclaration) Name() string { return v.name }

// DataType returns the variable type.
func (v *VariableDeclaration) DataType() TypeHandle { return v.dataType }

// Scope returns how the variable is exposed.
func (v *VariableDeclaration) Scope() VariableScope { return v.scope }

// Tooltip returns the variable tooltip.
func (v *VariableDeclaration) Tooltip() string { return v.tooltip }

// DefaultValue returns the initial value constant, or nil.
func (v *VariableDeclaration) DefaultValue() Constant { return v.value }

// PortalSpec describes a portal declaration to create.
type PortalSpec struct {
	GUID GUID
	Name string
	Type TypeHandle
}

// PortalDeclaration names a value carried between an entry and an exit portal.
type PortalDeclaration struct {
	elementBase
	name     string
	dataType TypeHandle
}

// Kind implements Element.
func (p *PortalDeclaration) Kind() ElementKind { return KindPortal }

// Name returns the portal name.
func (p *PortalDeclaration) Name() string { return p.name }

// DataType returns the type carried through the portal.
func (p *PortalDeclaration) DataType() TypeHandle { return p.dataType }

// itemList is an ordered set of element GUIDs.
type itemList struct {
	items []GUID
}

func (l *itemList) add(id GUID) bool {
	if l.contains(id) {
		return false
	}
	l.items = append(l.items, id)
	return true
}

func (l *itemList) remove(id GUID) bool {
	for i, existing := range l.items {
		if existing == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

func (l *itemList) contains(id GUID) bool {
	for _, existing := range l.items {
		if existing == id {
			return true
		}
	}
	return false
}

// Items returns the member GUIDs in insertion order.
func (l *itemList) Items() []GUID {
	out := make([]GUID, len(l.items))
	copy(out, l.items)
	return out
}

// Section is an ordered blackboard container of declarations.
type Section struct {
	elementBase
	itemList
	title string
}

// Kind implements Element.
func (s *Section) Kind() ElementKind { return KindSection }

// Title returns the section title.
func (s *Section) Title() string { return s.title }

// Group is a titled canvas container of nodes and notes.
type Group struct {
	elementBase
	itemList
	title    string
	position Position
}

// Kind implements Element.
func (g *Group) Kind() ElementKind { return KindGroup }

// Title returns the group title.
func (g *Group) Title() string { return g.title }

// Position returns the group position.
func (g *Group) Position() Position { return g.position }

// StickyNote is a free-text note on the canvas.
type StickyNote struct {
	elementBase
	title    string
	contents string
	rect     Rect
}

// Kind implements Element.
func (n *StickyNote) Kind() ElementKind { return KindStickyNote }

// Title returns the note title.
func (n *StickyNote) Title() string { return n.title }

// Contents returns the note body.
func (n *StickyNote) Contents() string { return n.contents }

// Rect returns the note bounds.
func (n *StickyNote) Rect() Rect { return n.rect }

// Placemat is a colored backdrop drawn behind nodes.
type Placemat struct {
	elementBase
	title string
	rect  Rect
	color string
}

// Kind implements Element.
func (p *Placemat) Kind() ElementKind { return KindPlacemat }

// Title returns the placemat title.
func (p *Placemat) Title() string { return p.title }

// Rect returns the placemat bounds.
func (p *Placemat) Rect() Rect { return p.rect }

// Color returns the placemat color.
func (p *Placemat) Color() string { return p.color }

// ContextNode is a node owning an ordered list of blocks.
type ContextNode struct {
	*Node
	blocks []NodeModel
}

func (c *ContextNode) dependents() []Element {
	out := c.Node.dependents()
	for _, b := range c.blocks {
		if !isTombstone(b) {
			out = append(out, b)
		}
	}
	return out
}

// Blocks returns the blocks in order, placeholders included.
func (c *ContextNode) Blocks() []NodeModel {
	out := make([]NodeModel, 0, len(c.blocks))
	for _, b := range c.blocks {
		if !isTombstone(b) {
			out = append(out, b)
		}
	}
	return out
}

// BlockSlots returns the persisted block list, deleted placeholders included.
func (c *ContextNode) BlockSlots() []NodeModel {
	out := make([]NodeModel, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// CreateBlock instantiates a block kind at the end of the block list.
func (c *ContextNode) CreateBlock(kindTag string, opts ...NodeOption) (*Node, error) {
	if c.g == nil {
		return nil, fmt.Errorf("%w: detached context node", ErrElementNotInGraph)
	}
	return c.g.CreateBlock(c, kindTag, opts...)
}

func (c *ContextNode) removeBlock(id GUID) bool {
	for i, b := range c.blocks {
		if b.GUID() == id {
			c.blocks = append(c.blocks[:i], c.blocks[i+1:]...)
			return true
		}
	}
	return false
}
