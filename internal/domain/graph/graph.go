package graph

import (
	"fmt"

	"github.com/zjrosen/nodegraph/internal/log"
	"github.com/zjrosen/nodegraph/internal/pubsub"
)

// Options tunes graph behavior.
type Options struct {
	// IncrementalWireLimit is the wire count up to which the wire index is
	// maintained in place.
	IncrementalWireLimit int
	// PruneObsoleteWires deletes the wires of retired ports instead of moving
	// them to a compatible or missing port.
	PruneObsoleteWires bool
	// AllowSelfConnections lets every node connect to itself.
	AllowSelfConnections bool
}

// Option configures a Graph.
type Option func(*Options)

// WithIncrementalWireLimit sets Options.IncrementalWireLimit.
func WithIncrementalWireLimit(n int) Option {
	return func(o *Options) { o.IncrementalWireLimit = n }
}

// WithPruneObsoleteWires sets Options.PruneObsoleteWires.
func WithPruneObsoleteWires(prune bool) Option {
	return func(o *Options) { o.PruneObsoleteWires = prune }
}

// WithSelfConnections sets Options.AllowSelfConnections.
func WithSelfConnections(allow bool) Option {
	return func(o *Options) { o.AllowSelfConnections = allow }
}

// Graph is the container of a node graph. A Graph is not safe for concurrent use.
type Graph struct {
	guid GUID
	name string
	lib  *Library
	opts Options

	nodes        []NodeModel
	contextNodes []NodeModel
	wires        []WireModel
	variables    []DeclarationModel
	portals      []DeclarationModel
	sections     []*Section
	groups       []*Group
	notes        []*StickyNote
	placemats    []*Placemat

	registry      *Registry
	registryValid bool
	wireIndex     *WireIndex

	changeStack []*ChangeDescription
	lastChange  *ChangeDescription
	dirtyStack  []*dirtyFrame
	modified    bool
	publisher   pubsub.Publisher[*ChangeDescription]
}

// New creates an empty graph instantiating nodes from lib.
func New(lib *Library, opts ...Option) *Graph {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if lib == nil {
		lib = NewLibrary()
	}
	return &Graph{
		guid:      NewGUID(),
		lib:       lib,
		opts:      o,
		registry:  NewRegistry(),
		wireIndex: newWireIndex(o.IncrementalWireLimit),
	}
}

// GUID returns the graph identifier.
func (g *Graph) GUID() GUID { return g.guid }

// SetGUID replaces the graph identifier, for loaders.
func (g *Graph) SetGUID(id GUID) { g.guid = id }

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// SetName renames the graph.
func (g *Graph) SetName(name string) {
	if g.name == name {
		return
	}
	g.name = name
	g.markDirty()
}

// Library returns the library the graph instantiates from.
func (g *Graph) Library() *Library { return g.lib }

// Options returns the graph options.
func (g *Graph) Options() Options { return g.opts }

// SetPublisher sets where finished change descriptions are published.
func (g *Graph) SetPublisher(p pubsub.Publisher[*ChangeDescription]) { g.publisher = p }

// Registry returns the GUID registry, rebuilding it first when invalidated.
func (g *Graph) Registry() *Registry {
	if !g.registryValid {
		g.rebuildRegistry()
	}
	return g.registry
}

// InvalidateRegistry forces a registry rebuild on next use.
func (g *Graph) InvalidateRegistry() { g.registryValid = false }

func (g *Graph) rebuildRegistry() {
	r := NewRegistry()
	for _, m := range g.nodes {
		if !isTombstone(m) {
			r.RegisterTree(m)
		}
	}
	for _, m := range g.contextNodes {
		if !isTombstone(m) {
			r.RegisterTree(m)
		}
	}
	for _, w := range g.wires {
		if !isTombstone(w) {
			r.RegisterTree(w)
		}
	}
	for _, v := range g.variables {
		if !isTombstone(v) {
			r.RegisterTree(v)
		}
	}
	for _, p := range g.portals {
		if !isTombstone(p) {
			r.RegisterTree(p)
		}
	}
	for _, s := range g.sections {
		r.RegisterTree(s)
	}
	for _, gr := range g.groups {
		r.RegisterTree(gr)
	}
	for _, n := range g.notes {
		r.RegisterTree(n)
	}
	for _, p := range g.placemats {
		r.RegisterTree(p)
	}
	g.registry = r
	g.registryValid = true
	log.Debug(log.CatRegistry, "registry rebuilt", "graph", g.guid, "elements", r.Len())
}

func (g *Graph) register(e Element) {
	if g.registryValid {
		g.registry.RegisterTree(e)
	}
}

func (g *Graph) unregister(e Element) {
	if g.registryValid {
		g.registry.Unregister(e)
	}
}

// Lookup returns the element with the given GUID.
func (g *Graph) Lookup(id GUID) (Element, bool) {
	return g.Registry().Lookup(id)
}

// Get returns the element with the given GUID when it has type T.
func Get[T Element](g *Graph, id GUID) (T, bool) {
	return LookupAs[T](g.Registry(), id)
}

// NodeByID returns the node, context node or block with the given GUID.
func (g *Graph) NodeByID(id GUID) (*Node, bool) {
	switch e, _ := g.Lookup(id); v := e.(type) {
	case *Node:
		return v, true
	case *ContextNode:
		return v.Node, true
	default:
		return nil, false
	}
}

// ResolvePort returns the port a reference points at.
func (g *Graph) ResolvePort(ref PortReference) (*Port, bool) {
	n, ok := g.NodeByID(ref.NodeID)
	if !ok {
		return nil, false
	}
	return n.Port(ref.Direction, ref.UniqueName)
}

// --- change and dirty scopes ---

// EnterChangeScope pushes a change description. Mutations record into the
// innermost scope until its handle is closed.
func (g *Graph) EnterChangeScope() *ChangeScope {
	d := NewChangeDescription()
	g.changeStack = append(g.changeStack, d)
	return &ChangeScope{g: g, desc: d}
}

func (g *Graph) popChangeScope(d *ChangeDescription) {
	idx := -1
	for i := len(g.changeStack) - 1; i >= 0; i-- {
		if g.changeStack[i] == d {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	for i := len(g.changeStack) - 1; i > idx; i-- {
		g.changeStack[i-1].merge(g.changeStack[i])
	}
	g.changeStack = g.changeStack[:idx]
	if idx > 0 {
		g.changeStack[idx-1].merge(d)
		return
	}
	g.lastChange = d
	if g.publisher != nil && !d.IsEmpty() {
		g.publisher.Publish(pubsub.ChangedEvent, d)
	}
}

// ChangeDepth returns the number of open change scopes.
func (g *Graph) ChangeDepth() int { return len(g.changeStack) }

// CurrentChangeDescription returns the innermost open description, or the last
// completed outermost description when no scope is open.
func (g *Graph) CurrentChangeDescription() *ChangeDescription {
	if n := len(g.changeStack); n > 0 {
		return g.changeStack[n-1]
	}
	if g.lastChange != nil {
		return g.lastChange
	}
	return NewChangeDescription()
}

func (g *Graph) recorder() changeRecorder {
	if n := len(g.changeStack); n > 0 {
		return g.changeStack[n-1]
	}
	return nopRecorder{}
}

// touch records a change to e inside its own scope and marks the graph dirty.
func (g *Graph) touch(e Element, hints ...ChangeHint) {
	scope := g.EnterChangeScope()
	g.recorder().recordChanged(e, hints...)
	g.markDirty()
	scope.Close()
}

// EnterDirtyScope pushes a dirty scope. Marks made inside propagate outward when
// it closes.
func (g *Graph) EnterDirtyScope() *DirtyScope {
	f := &dirtyFrame{}
	g.dirtyStack = append(g.dirtyStack, f)
	return &DirtyScope{g: g, frame: f}
}

// EnterBlockedDirtyScope pushes a dirty scope that swallows every mark made
// inside it, for loads and migrations.
func (g *Graph) EnterBlockedDirtyScope() *DirtyScope {
	f := &dirtyFrame{blocked: true}
	g.dirtyStack = append(g.dirtyStack, f)
	return &DirtyScope{g: g, frame: f}
}

func (g *Graph) popDirtyScope(f *dirtyFrame) {
	idx := -1
	for i := len(g.dirtyStack) - 1; i >= 0; i-- {
		if g.dirtyStack[i] == f {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	dirty := false
	for _, frame := range g.dirtyStack[idx:] {
		dirty = dirty || frame.dirty
	}
	g.dirtyStack = g.dirtyStack[:idx]
	if !dirty {
		return
	}
	if idx > 0 {
		g.dirtyStack[idx-1].dirty = true
		return
	}
	g.modified = true
}

func (g *Graph) markDirty() {
	for _, f := range g.dirtyStack {
		if f.blocked {
			return
		}
	}
	if n := len(g.dirtyStack); n > 0 {
		g.dirtyStack[n-1].dirty = true
		return
	}
	g.modified = true
}

// Modified reports whether the graph changed since it was loaded or last cleared.
func (g *Graph) Modified() bool { return g.modified }

// ClearModified resets the modified flag, typically after saving.
func (g *Graph) ClearModified() { g.modified = false }

// --- nodes ---

type nodeConfig struct {
	guid        GUID
	title       *string
	position    Position
	caps        *Capability
	values      map[string]any
	state       map[string]any
	expanded    []string
	order       [2][]string
	deferDefine bool
}

// NodeOption configures a node at creation.
type NodeOption func(*nodeConfig)

// WithGUID sets the node GUID instead of generating one.
func WithGUID(id GUID) NodeOption {
	return func(c *nodeConfig) { c.guid = id }
}

// WithTitle overrides the kind title.
func WithTitle(title string) NodeOption {
	return func(c *nodeConfig) { c.title = &title }
}

// WithPosition sets the canvas position.
func WithPosition(pos Position) NodeOption {
	return func(c *nodeConfig) { c.position = pos }
}

// WithCapabilities overrides the default capabilities.
func WithCapabilities(caps Capability) NodeOption {
	return func(c *nodeConfig) { c.caps = &caps }
}

// WithOption sets a node option value.
func WithOption(id string, v any) NodeOption {
	return func(c *nodeConfig) { c.values[optionPortPrefix+id] = v }
}

// WithConstant sets the constant of an input port.
func WithConstant(port string, v any) NodeOption {
	return func(c *nodeConfig) { c.values[port] = v }
}

// WithState restores the definition state.
func WithState(state map[string]any) NodeOption {
	return func(c *nodeConfig) { c.state = state }
}

// WithExpandedPorts expands the named ports.
func WithExpandedPorts(names ...string) NodeOption {
	return func(c *nodeConfig) { c.expanded = append(c.expanded, names...) }
}

// WithPortOrder restores the manual display order of one side.
func WithPortOrder(dir Direction, names ...string) NodeOption {
	return func(c *nodeConfig) { c.order[dir] = names }
}

// WithoutDefine skips the initial reconciliation pass. Loaders use it and call
// RestoreAfterLoad once every element is in place.
func WithoutDefine() NodeOption {
	return func(c *nodeConfig) { c.deferDefine = true }
}

func (g *Graph) buildNode(kindTag string, role KindRole, elemKind ElementKind, opts []NodeOption) (*Node, *nodeConfig, error) {
	kind, ok := g.lib.Kind(kindTag)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownNodeKind, kindTag)
	}
	if kind.Role != role {
		return nil, nil, fmt.Errorf("%w: %s is a %s kind", ErrWrongKindRole, kindTag, kind.Role)
	}
	cfg := &nodeConfig{values: make(map[string]any)}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.guid.IsZero() {
		cfg.guid = NewGUID()
	}
	if _, taken := g.Lookup(cfg.guid); taken {
		log.Warn(log.CatRegistry, "node guid already in use", "guid", cfg.guid, "kind", kindTag)
	}

	n := newNode(g, kind, cfg.guid, elemKind)
	if cfg.title != nil {
		n.title = *cfg.title
	}
	n.position = cfg.position
	if cfg.caps != nil {
		n.caps = *cfg.caps
	}
	for name, v := range cfg.values {
		n.pending[name] = v
	}
	for _, name := range cfg.expanded {
		n.expanded[name] = true
	}
	n.portOrder = cfg.order
	if cfg.state != nil {
		if sd, ok := n.def.(StatefulDefinition); ok {
			if err := sd.SetState(cfg.state); err != nil {
				return nil, nil, fmt.Errorf("node %s state: %w", cfg.guid, err)
			}
		}
	}
	return n, cfg, nil
}

// CreateNode instantiates a node kind at the end of the node list.
func (g *Graph) CreateNode(kindTag string, opts ...NodeOption) (*Node, error) {
	n, cfg, err := g.buildNode(kindTag, RoleNode, KindNode, opts)
	if err != nil {
		return nil, err
	}
	scope := g.EnterChangeScope()
	defer scope.Close()

	g.nodes = append(g.nodes, n)
	g.register(n)
	g.recorder().recordAdded(n)
	g.markDirty()
	if !cfg.deferDefine {
		n.Define()
	}
	return n, nil
}

// CreateContextNode instantiates a context kind at the end of the context list.
func (g *Graph) CreateContextNode(kindTag string, opts ...NodeOption) (*ContextNode, error) {
	n, cfg, err := g.buildNode(kindTag, RoleContext, KindContextNode, opts)
	if err != nil {
		return nil, err
	}
	c := &ContextNode{Node: n}
	n.outer = c

	scope := g.EnterChangeScope()
	defer scope.Close()

	g.contextNodes = append(g.contextNodes, c)
	g.register(c)
	g.recorder().recordAdded(c)
	g.markDirty()
	if !cfg.deferDefine {
		n.Define()
	}
	return c, nil
}

// CreateBlock instantiates a block kind at the end of a context node's blocks.
func (g *Graph) CreateBlock(ctx *ContextNode, kindTag string, opts ...NodeOption) (*Node, error) {
	if ctx == nil || ctx.g != g {
		return nil, fmt.Errorf("%w: context node", ErrElementNotInGraph)
	}
	n, cfg, err := g.buildNode(kindTag, RoleBlock, KindBlock, opts)
	if err != nil {
		return nil, err
	}
	n.container = ctx.guid

	scope := g.EnterChangeScope()
	defer scope.Close()

	ctx.blocks = append(ctx.blocks, n)
	g.register(n)
	g.recorder().recordAdded(n)
	g.recorder().recordChanged(ctx, HintData)
	g.markDirty()
	if !cfg.deferDefine {
		n.Define()
	}
	return n, nil
}

// Nodes returns the node list, placeholders included, deleted placeholders excluded.
func (g *Graph) Nodes() []NodeModel { return liveSlots(g.nodes) }

// NodeSlots returns the persisted node list.
func (g *Graph) NodeSlots() []NodeModel { return copySlots(g.nodes) }

// ContextNodes returns the context node list, placeholders included.
func (g *Graph) ContextNodes() []NodeModel { return liveSlots(g.contextNodes) }

// ContextNodeSlots returns the persisted context node list.
func (g *Graph) ContextNodeSlots() []NodeModel { return copySlots(g.contextNodes) }

// Wires returns the wire list, placeholders included.
func (g *Graph) Wires() []WireModel { return liveSlots(g.wires) }

// WireSlots returns the persisted wire list.
func (g *Graph) WireSlots() []WireModel { return copySlots(g.wires) }

// Variables returns the variable list, placeholders included.
func (g *Graph) Variables() []DeclarationModel { return liveSlots(g.variables) }

// VariableSlots returns the persisted variable list.
func (g *Graph) VariableSlots() []DeclarationModel { return copySlots(g.variables) }

// Portals returns the portal list, placeholders included.
func (g *Graph) Portals() []DeclarationModel { return liveSlots(g.portals) }

// PortalSlots returns the persisted portal list.
func (g *Graph) PortalSlots() []DeclarationModel { return copySlots(g.portals) }

// Sections returns the blackboard sections.
func (g *Graph) Sections() []*Section { return copySlots(g.sections) }

// Groups returns the canvas groups.
func (g *Graph) Groups() []*Group { return copySlots(g.groups) }

// StickyNotes returns the sticky notes.
func (g *Graph) StickyNotes() []*StickyNote { return copySlots(g.notes) }

// Placemats returns the placemats.
func (g *Graph) Placemats() []*Placemat { return copySlots(g.placemats) }

// EachNode calls fn for every resolved node, context node and block, in list order.
func (g *Graph) EachNode(fn func(*Node)) {
	for _, m := range g.nodes {
		if n, ok := m.(*Node); ok {
			fn(n)
		}
	}
	for _, m := range g.contextNodes {
		c, ok := m.(*ContextNode)
		if !ok {
			continue
		}
		fn(c.Node)
		for _, b := range c.blocks {
			if n, ok := b.(*Node); ok {
				fn(n)
			}
		}
	}
}

// Placeholders returns every live placeholder, blocks of resolved context nodes
// included.
func (g *Graph) Placeholders() []*Placeholder {
	var out []*Placeholder
	collect := func(e Element) {
		if p, ok := e.(*Placeholder); ok && !p.toRemove {
			out = append(out, p)
		}
	}
	for _, m := range g.nodes {
		collect(m)
	}
	for _, m := range g.contextNodes {
		collect(m)
		if c, ok := m.(*ContextNode); ok {
			for _, b := range c.blocks {
				collect(b)
			}
		}
	}
	for _, w := range g.wires {
		collect(w)
	}
	for _, v := range g.variables {
		collect(v)
	}
	for _, p := range g.portals {
		collect(p)
	}
	return out
}

func liveSlots[T Element](slots []T) []T {
	out := make([]T, 0, len(slots))
	for _, s := range slots {
		if !isTombstone(s) {
			out = append(out, s)
		}
	}
	return out
}

func copySlots[T any](slots []T) []T {
	out := make([]T, len(slots))
	copy(out, slots)
	return out
}

// --- declarations and containers ---

// CreateVariable declares a variable.
func (g *Graph) CreateVariable(spec VariableSpec) (*VariableDeclaration, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: variable", ErrEmptyName)
	}
	if !g.lib.HasType(spec.Type) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, spec.Type)
	}
	if g.variableNamed(spec.Name) != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateVariable, spec.Name)
	}
	if spec.GUID.IsZero() {
		spec.GUID = NewGUID()
	}
	v := &VariableDeclaration{
		elementBase: elementBase{guid: spec.GUID, caps: CapDeletable | CapRenamable | CapCopiable | CapSelectable | CapDroppable},
		name:        spec.Name,
		dataType:    spec.Type,
		scope:       spec.Scope,
		tooltip:     spec.Tooltip,
	}
	if c, ok := g.lib.NewConstant(spec.Type); ok {
		if spec.Default != nil {
			if err := c.SetValue(spec.Default); err != nil {
				return nil, fmt.Errorf("variable %s default: %w", spec.Name, err)
			}
		}
		v.value = c
	}

	scope := g.EnterChangeScope()
	defer scope.Close()
	g.variables = append(g.variables, v)
	g.register(v)
	g.recorder().recordAdded(v)
	g.markDirty()
	return v, nil
}

func (g *Graph) variableNamed(name string) *VariableDeclaration {
	for _, m := range g.variables {
		if v, ok := m.(*VariableDeclaration); ok && v.name == name {
			return v
		}
	}
	return nil
}

// RenameVariable renames a declaration and redefines every node reading it.
func (g *Graph) RenameVariable(v *VariableDeclaration, name string) error {
	if !v.caps.Has(CapRenamable) {
		return fmt.Errorf("%w: variable %s is not renamable", ErrCapabilityLocked, v.name)
	}
	if name == "" {
		return fmt.Errorf("%w: variable", ErrEmptyName)
	}
	if other := g.variableNamed(name); other != nil && other != v {
		return fmt.Errorf("%w: %s", ErrDuplicateVariable, name)
	}
	scope := g.EnterChangeScope()
	defer scope.Close()
	v.name = name
	g.recorder().recordChanged(v, HintTitle)
	g.markDirty()
	g.redefineReferences(v.guid)
	return nil
}

// SetVariableType changes a declaration's type and redefines every node reading it.
func (g *Graph) SetVariableType(v *VariableDeclaration, typ TypeHandle) error {
	if !g.lib.HasType(typ) {
		return fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	if v.dataType == typ {
		return nil
	}
	scope := g.EnterChangeScope()
	defer scope.Close()
	v.dataType = typ
	v.value = nil
	if c, ok := g.lib.NewConstant(typ); ok {
		v.value = c
	}
	g.recorder().recordChanged(v, HintType)
	g.markDirty()
	g.redefineReferences(v.guid)
	return nil
}

func (g *Graph) redefineReferences(id GUID) {
	g.EachNode(func(n *Node) {
		if ref, ok := n.def.(VariableReference); ok && ref.VariableID() == id {
			n.Define()
		}
	})
}

// CreatePortal declares a portal.
func (g *Graph) CreatePortal(spec PortalSpec) (*PortalDeclaration, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: portal", ErrEmptyName)
	}
	if !g.lib.HasType(spec.Type) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, spec.Type)
	}
	if spec.GUID.IsZero() {
		spec.GUID = NewGUID()
	}
	p := &PortalDeclaration{
		elementBase: elementBase{guid: spec.GUID, caps: CapDeletable | CapRenamable | CapCopiable | CapSelectable},
		name:        spec.Name,
		dataType:    spec.Type,
	}
	scope := g.EnterChangeScope()
	defer scope.Close()
	g.portals = append(g.portals, p)
	g.register(p)
	g.recorder().recordAdded(p)
	g.markDirty()
	return p, nil
}

// CreateSection adds a blackboard section.
func (g *Graph) CreateSection(id GUID, title string) *Section {
	if id.IsZero() {
		id = NewGUID()
	}
	s := &Section{elementBase: elementBase{guid: id, caps: CapRenamable | CapSelectable}, title: title}
	g.addSimple(s, func() { g.sections = append(g.sections, s) })
	return s
}

// CreateGroup adds a canvas group.
func (g *Graph) CreateGroup(id GUID, title string, pos Position) *Group {
	if id.IsZero() {
		id = NewGUID()
	}
	gr := &Group{elementBase: elementBase{guid: id, caps: CapDefault}, title: title, position: pos}
	g.addSimple(gr, func() { g.groups = append(g.groups, gr) })
	return gr
}

// CreateStickyNote adds a sticky note.
func (g *Graph) CreateStickyNote(id GUID, title, contents string, rect Rect) *StickyNote {
	if id.IsZero() {
		id = NewGUID()
	}
	n := &StickyNote{elementBase: elementBase{guid: id, caps: CapDefault}, title: title, contents: contents, rect: rect}
	g.addSimple(n, func() { g.notes = append(g.notes, n) })
	return n
}

// CreatePlacemat adds a placemat.
func (g *Graph) CreatePlacemat(id GUID, title string, rect Rect, color string) *Placemat {
	if id.IsZero() {
		id = NewGUID()
	}
	p := &Placemat{elementBase: elementBase{guid: id, caps: CapDefault}, title: title, rect: rect, color: color}
	g.addSimple(p, func() { g.placemats = append(g.placemats, p) })
	return p
}

func (g *Graph) addSimple(e Element, appendFn func()) {
	scope := g.EnterChangeScope()
	defer scope.Close()
	appendFn()
	g.register(e)
	g.recorder().recordAdded(e)
	g.markDirty()
}

// AddToSection appends an element to a section.
func (g *Graph) AddToSection(s *Section, e Element) {
	if s.add(e.GUID()) {
		g.touch(s, HintData)
	}
}

// AddToGroup appends an element to a group.
func (g *Graph) AddToGroup(gr *Group, e Element) {
	if gr.add(e.GUID()) {
		g.touch(gr, HintData)
	}
}

func (g *Graph) removeFromContainers(id GUID) {
	for _, s := range g.sections {
		if s.remove(id) {
			g.recorder().recordChanged(s, HintData)
		}
	}
	for _, gr := range g.groups {
		if gr.remove(id) {
			g.recorder().recordChanged(gr, HintData)
		}
	}
}

// --- deletion ---

// DeleteElements removes elements and everything depending on them. It fails
// before changing anything when an element is not deletable.
func (g *Graph) DeleteElements(elems ...Element) error {
	for _, e := range elems {
		if !e.Capabilities().Has(CapDeletable) {
			return fmt.Errorf("%w: %s %s is not deletable", ErrCapabilityLocked, e.Kind(), e.GUID())
		}
	}
	scope := g.EnterChangeScope()
	defer scope.Close()
	for _, e := range elems {
		g.deleteElement(e)
	}
	g.markDirty()
	return nil
}

func (g *Graph) deleteElement(e Element) {
	switch v := e.(type) {
	case *ContextNode:
		for _, b := range v.blocks {
			g.deleteBlockBody(b)
		}
		v.blocks = nil
		g.contextNodes = removeSlot(g.contextNodes, NodeModel(v))
		g.deleteNodeBody(v, v.guid)
	case *Node:
		if v.elemKind == KindBlock {
			if c, ok := Get[*ContextNode](g, v.container); ok {
				c.removeBlock(v.guid)
				g.recorder().recordChanged(c, HintData)
			}
			g.deleteNodeBody(v, v.guid)
			return
		}
		g.nodes = removeSlot(g.nodes, NodeModel(v))
		g.deleteNodeBody(v, v.guid)
	case *Wire:
		g.detachWire(v)
	case *Placeholder:
		g.tombstone(v)
	case *VariableDeclaration:
		g.variables = removeSlot(g.variables, DeclarationModel(v))
		g.unregister(v)
		g.recorder().recordRemoved(v)
		g.redefineReferences(v.guid)
	case *PortalDeclaration:
		g.portals = removeSlot(g.portals, DeclarationModel(v))
		g.unregister(v)
		g.recorder().recordRemoved(v)
	case *Section:
		g.sections = removeSlot(g.sections, v)
		g.unregister(v)
		g.recorder().recordRemoved(v)
	case *Group:
		g.groups = removeSlot(g.groups, v)
		g.unregister(v)
		g.recorder().recordRemoved(v)
	case *StickyNote:
		g.notes = removeSlot(g.notes, v)
		g.unregister(v)
		g.recorder().recordRemoved(v)
	case *Placemat:
		g.placemats = removeSlot(g.placemats, v)
		g.unregister(v)
		g.recorder().recordRemoved(v)
	default:
		log.Warn(log.CatRegistry, "delete of unsupported element ignored", "kind", e.Kind(), "guid", e.GUID())
		return
	}
	g.removeFromContainers(e.GUID())
}

func (g *Graph) deleteBlockBody(b NodeModel) {
	switch v := b.(type) {
	case *Node:
		g.deleteNodeBody(v, v.guid)
	case *Placeholder:
		g.detachWiresOf(v.guid)
		g.unregister(v)
		g.recorder().recordRemoved(v)
	}
}

func (g *Graph) deleteNodeBody(e Element, id GUID) {
	g.detachWiresOf(id)
	g.unregister(e)
	g.recorder().recordRemoved(e)
}

func (g *Graph) detachWiresOf(node GUID) {
	var doomed []WireModel
	for _, w := range g.wires {
		if isTombstone(w) {
			continue
		}
		if w.From().NodeID == node || w.To().NodeID == node {
			doomed = append(doomed, w)
		}
	}
	for _, w := range doomed {
		g.detachWire(w)
	}
}

// tombstone hides a deleted placeholder while keeping its slot, so the indices
// of other unresolved entries stay valid until the next persistence pass.
func (g *Graph) tombstone(p *Placeholder) {
	if p.toRemove {
		return
	}
	if p.category != CategoryWire {
		g.detachWiresOf(p.guid)
	} else {
		g.wireIndex.MarkDirty()
	}
	p.toRemove = true
	g.unregister(p)
	g.recorder().recordRemoved(p)
	log.Info(log.CatPlaceholder, "placeholder marked for removal",
		"category", p.category, "index", p.index, "guid", p.guid)
}

func removeSlot[T comparable](slots []T, target T) []T {
	for i, s := range slots {
		if s == target {
			return append(slots[:i], slots[i+1:]...)
		}
	}
	return slots
}
