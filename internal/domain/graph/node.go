package graph

import (
	"fmt"
	"slices"
	"sort"

	"github.com/zjrosen/nodegraph/internal/log"
)

// Definition declares the ports of a node. DefinePorts is called on every
// reconciliation pass and must be deterministic for a given node state.
type Definition interface {
	DefinePorts(d *PortDefiner)
}

// DefineFunc adapts a function to Definition.
type DefineFunc func(d *PortDefiner)

// DefinePorts calls f(d).
func (f DefineFunc) DefinePorts(d *PortDefiner) { f(d) }

// OptionsDefinition is implemented by definitions exposing node options. Options
// are declared before ports, so DefinePorts can read their values.
type OptionsDefinition interface {
	DefineOptions(o *OptionDefiner)
}

// StatefulDefinition is implemented by definitions carrying persisted state.
type StatefulDefinition interface {
	State() map[string]any
	SetState(state map[string]any) error
}

// VariableReference is implemented by definitions whose ports come from a
// variable declaration. Renaming or retyping the declaration redefines the node.
type VariableReference interface {
	VariableID() GUID
}

// NodeState summarizes whether a node is fully resolved.
type NodeState int

const (
	NodeStateValid NodeState = iota
	// NodeStateMissing means the node carries missing ports or failed to define
	// some of its declared ports.
	NodeStateMissing
	// NodeStateUnresolved is reported by placeholders.
	NodeStateUnresolved
)

func (s NodeState) String() string {
	switch s {
	case NodeStateValid:
		return "valid"
	case NodeStateMissing:
		return "missing"
	case NodeStateUnresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// NodeModel is an entry of a graph node list: a Node, a ContextNode or a
// Placeholder standing in for one.
type NodeModel interface {
	Element
	Title() string
	Position() Position
	State() NodeState
}

// Node is a graph node with input and output ports.
type Node struct {
	elementBase
	elemKind  ElementKind
	kindTag   string
	title     string
	position  Position
	def       Definition
	g         *Graph
	outer     Element
	container GUID
	allowSelf bool

	inputs  *OrderedPortCollection
	outputs *OrderedPortCollection

	// previous is the port generation being replaced; set only while defining.
	previous *portGeneration
	defining bool

	constants map[string]Constant
	pending   map[string]any
	expanded  map[string]bool
	// portOrder is the manual display order of top-level ports, per direction.
	portOrder  [2][]string
	defineErrs []error
}

var (
	_ NodeModel = (*Node)(nil)
	_ NodeModel = (*ContextNode)(nil)
	_ NodeModel = (*Placeholder)(nil)
)

func newNode(g *Graph, kind NodeKind, id GUID, elemKind ElementKind) *Node {
	n := &Node{
		elementBase: elementBase{guid: id, caps: CapDefault},
		elemKind:    elemKind,
		kindTag:     kind.Tag,
		title:       kind.Title,
		g:           g,
		allowSelf:   kind.AllowSelfConnection,
		constants:   make(map[string]Constant),
		pending:     make(map[string]any),
		expanded:    make(map[string]bool),
	}
	if kind.New != nil {
		n.def = kind.New()
	}
	n.inputs = NewOrderedPortCollection(DirectionInput, n.portsChanged)
	n.outputs = NewOrderedPortCollection(DirectionOutput, n.portsChanged)
	return n
}

// Kind implements Element.
func (n *Node) Kind() ElementKind { return n.elemKind }

func (n *Node) dependents() []Element {
	var out []Element
	for _, coll := range [2]*OrderedPortCollection{n.inputs, n.outputs} {
		for _, p := range coll.seq {
			if p.parent == nil {
				out = append(out, p)
			}
		}
	}
	return out
}

// KindTag returns the library tag the node was created from.
func (n *Node) KindTag() string { return n.kindTag }

// Title returns the display title.
func (n *Node) Title() string { return n.title }

// Position returns the canvas position.
func (n *Node) Position() Position { return n.position }

// Definition returns the port declaration of the node.
func (n *Node) Definition() Definition { return n.def }

// Graph returns the owning graph, or nil for a detached node.
func (n *Node) Graph() *Graph { return n.g }

// ContainerID returns the GUID of the owning context node for blocks.
func (n *Node) ContainerID() GUID { return n.container }

// AllowsSelfConnection reports whether wires may connect two ports of this node.
func (n *Node) AllowsSelfConnection() bool { return n.allowSelf }

// Inputs returns the input port collection.
func (n *Node) Inputs() *OrderedPortCollection { return n.inputs }

// Outputs returns the output port collection.
func (n *Node) Outputs() *OrderedPortCollection { return n.outputs }

// Ports returns the collection for a direction.
func (n *Node) Ports(dir Direction) *OrderedPortCollection {
	if dir == DirectionOutput {
		return n.outputs
	}
	return n.inputs
}

// Port returns the port with the given unique name.
func (n *Node) Port(dir Direction, name string) (*Port, bool) {
	return n.Ports(dir).Get(name)
}

// Input returns the input port with the given unique name.
func (n *Node) Input(name string) (*Port, bool) { return n.inputs.Get(name) }

// Output returns the output port with the given unique name.
func (n *Node) Output(name string) (*Port, bool) { return n.outputs.Get(name) }

// State reports whether the node is fully resolved.
func (n *Node) State() NodeState {
	if len(n.defineErrs) > 0 {
		return NodeStateMissing
	}
	for _, coll := range [2]*OrderedPortCollection{n.inputs, n.outputs} {
		for _, p := range coll.seq {
			if p.kind == PortKindMissing {
				return NodeStateMissing
			}
		}
	}
	return NodeStateValid
}

// DefinitionErrors returns the problems reported by the last reconciliation pass.
func (n *Node) DefinitionErrors() []error {
	out := make([]error, len(n.defineErrs))
	copy(out, n.defineErrs)
	return out
}

// SetTitle renames the node.
func (n *Node) SetTitle(title string) error {
	if !n.caps.Has(CapRenamable) {
		return fmt.Errorf("%w: %s is not renamable", ErrCapabilityLocked, n.guid)
	}
	if n.title == title {
		return nil
	}
	n.title = title
	n.changed(HintTitle)
	return nil
}

// SetPosition moves the node.
func (n *Node) SetPosition(pos Position) error {
	if !n.caps.Has(CapMovable) {
		return fmt.Errorf("%w: %s is not movable", ErrCapabilityLocked, n.guid)
	}
	if n.position == pos {
		return nil
	}
	n.position = pos
	n.changed(HintPosition)
	return nil
}

// Constant returns the constant attached to an input port.
func (n *Node) Constant(name string) (Constant, bool) {
	c, ok := n.constants[name]
	return c, ok
}

// ConstantNames returns the ports carrying a constant, sorted.
func (n *Node) ConstantNames() []string {
	names := make([]string, 0, len(n.constants))
	for name := range n.constants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PendingConstants returns raw values that are waiting for their port to appear.
func (n *Node) PendingConstants() map[string]any {
	out := make(map[string]any, len(n.pending))
	for k, v := range n.pending {
		out[k] = v
	}
	return out
}

// SetConstantValue assigns the constant of an input port. Values for ports that
// do not exist yet are kept and applied once a reconciliation pass creates them.
func (n *Node) SetConstantValue(name string, v any) error {
	if c, ok := n.constants[name]; ok {
		if err := c.SetValue(v); err != nil {
			return fmt.Errorf("set constant %s: %w", name, err)
		}
		n.changed(HintValue)
		return nil
	}
	if p, ok := n.inputs.Get(name); ok && p.kind == PortKindData && p.parent == nil {
		c, ok := n.library().NewConstant(p.dataType)
		if ok {
			if err := c.SetValue(v); err != nil {
				return fmt.Errorf("set constant %s: %w", name, err)
			}
			n.constants[name] = c
			n.changed(HintValue)
			return nil
		}
	}
	n.pending[name] = v
	n.changed(HintValue)
	return nil
}

// OptionValue returns the current value of a node option, or nil.
func (n *Node) OptionValue(id string) any {
	name := optionPortPrefix + id
	if c, ok := n.constants[name]; ok {
		return c.Value()
	}
	if v, ok := n.pending[name]; ok {
		return v
	}
	if p, ok := n.inputs.Get(name); ok {
		return p.defaultVal
	}
	return nil
}

// OptionString returns a string option, or fallback when unset or not a string.
func (n *Node) OptionString(id, fallback string) string {
	if s, ok := n.OptionValue(id).(string); ok && s != "" {
		return s
	}
	return fallback
}

// OptionPort returns the port backing a node option.
func (n *Node) OptionPort(id string) (*Port, bool) {
	return n.inputs.Get(optionPortPrefix + id)
}

// SetOptionValue assigns a node option and redefines the node.
func (n *Node) SetOptionValue(id string, v any) error {
	if n.g != nil {
		scope := n.g.EnterChangeScope()
		defer scope.Close()
	}
	if err := n.SetConstantValue(optionPortPrefix+id, v); err != nil {
		return err
	}
	n.Define()
	return nil
}

// ExpandedPorts returns the unique names of expanded ports, sorted.
func (n *Node) ExpandedPorts() []string {
	out := make([]string, 0, len(n.expanded))
	for name, on := range n.expanded {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// PortOrder returns the manual display order of one side, or nil when the
// declaration order applies.
func (n *Node) PortOrder(dir Direction) []string {
	return slices.Clone(n.portOrder[dir])
}

// SwapPorts exchanges the display positions of two top-level ports on the same
// side. The resulting order is kept across reconciliation passes. Sub-ports and
// ports with expanded sub-ports cannot be moved.
func (n *Node) SwapPorts(a, b *Port) error {
	if a.direction != b.direction {
		return fmt.Errorf("%w: %s and %s are on different sides", ErrPortNotMovable, a.uniqueName, b.uniqueName)
	}
	coll := n.Ports(a.direction)
	for _, p := range [2]*Port{a, b} {
		if p.nodeID != n.guid || !coll.Contains(p) {
			return fmt.Errorf("%w: %s", ErrPortNotOnNode, p.uniqueName)
		}
		if p.parent != nil || len(p.subPorts) > 0 {
			return fmt.Errorf("%w: %s", ErrPortNotMovable, p.uniqueName)
		}
	}
	if a == b {
		return nil
	}
	if err := coll.SwapOrder(a, b); err != nil {
		return err
	}
	var names []string
	for _, p := range coll.seq {
		if p.parent == nil {
			names = append(names, p.uniqueName)
		}
	}
	n.portOrder[a.direction] = names
	n.changed(HintOrder)
	return nil
}

// applyPortOrder restores the manual display order after a reconciliation pass.
// Ports the order does not name, and ports carrying sub-ports, keep their slots.
func (n *Node) applyPortOrder(coll *OrderedPortCollection) {
	order := n.portOrder[coll.direction]
	if len(order) == 0 {
		return
	}
	rank := make(map[string]int, len(order))
	for i, name := range order {
		rank[name] = i
	}
	var slots []int
	var ports []*Port
	for i, p := range coll.seq {
		if _, ok := rank[p.uniqueName]; ok && p.parent == nil && len(p.subPorts) == 0 {
			slots = append(slots, i)
			ports = append(ports, p)
		}
	}
	slices.SortStableFunc(ports, func(a, b *Port) int {
		return rank[a.uniqueName] - rank[b.uniqueName]
	})
	for i, want := range ports {
		if cur := coll.seq[slots[i]]; cur != want {
			_ = coll.SwapOrder(cur, want)
		}
	}
}

// DefinitionState returns the persisted definition state, or nil.
func (n *Node) DefinitionState() map[string]any {
	if sd, ok := n.def.(StatefulDefinition); ok {
		return sd.State()
	}
	return nil
}

// SetDefinitionState restores definition state and redefines the node.
func (n *Node) SetDefinitionState(state map[string]any) error {
	sd, ok := n.def.(StatefulDefinition)
	if !ok {
		return nil
	}
	if err := sd.SetState(state); err != nil {
		return fmt.Errorf("node %s state: %w", n.guid, err)
	}
	n.changed(HintState)
	if !n.defining {
		n.Define()
	}
	return nil
}

func (n *Node) library() *Library {
	if n.g == nil {
		return nil
	}
	return n.g.lib
}

func (n *Node) recorder() changeRecorder {
	if n.g == nil {
		return nopRecorder{}
	}
	return n.g.recorder()
}

// element returns the registered element wrapping n: the enclosing ContextNode
// for context nodes, n itself otherwise.
func (n *Node) element() Element {
	if n.outer != nil {
		return n.outer
	}
	return n
}

func (n *Node) changed(hints ...ChangeHint) {
	if n.g == nil {
		return
	}
	n.g.touch(n.element(), hints...)
}

func (n *Node) portsChanged() {
	if n.g != nil {
		n.g.wireIndex.MarkDirty()
	}
}

func (n *Node) defineError(err error) {
	n.defineErrs = append(n.defineErrs, err)
	log.ErrorErr(log.CatDefine, "port declaration rejected", err, "node", n.guid, "kind", n.kindTag)
}

// PortDefiner is handed to Definition.DefinePorts to declare ports.
type PortDefiner struct {
	node *Node
}

// Node returns the node being defined.
func (d *PortDefiner) Node() *Node { return d.node }

// Library returns the library of the owning graph, or nil.
func (d *PortDefiner) Library() *Library { return d.node.library() }

// Option returns the current value of a node option.
func (d *PortDefiner) Option(id string) any { return d.node.OptionValue(id) }

// AddInputPort declares an input port. It returns nil when the declaration is
// rejected; the problem is logged and reported by Node.DefinitionErrors.
func (d *PortDefiner) AddInputPort(spec PortSpec) *Port {
	return d.add(DirectionInput, spec)
}

// AddOutputPort declares an output port.
func (d *PortDefiner) AddOutputPort(spec PortSpec) *Port {
	return d.add(DirectionOutput, spec)
}

// AddExecutionInput declares an execution input.
func (d *PortDefiner) AddExecutionInput(id string) *Port {
	return d.add(DirectionInput, PortSpec{ID: id, Title: id, Kind: PortKindExecution})
}

// AddExecutionOutput declares an execution output.
func (d *PortDefiner) AddExecutionOutput(id string) *Port {
	return d.add(DirectionOutput, PortSpec{ID: id, Title: id, Kind: PortKindExecution})
}

func (d *PortDefiner) add(dir Direction, spec PortSpec) *Port {
	n := d.node
	key := spec.key()
	if key == "" {
		n.defineError(fmt.Errorf("%w: port without id or title", ErrEmptyName))
		return nil
	}
	if err := ValidatePortID(key); err != nil {
		n.defineError(err)
		return nil
	}
	if spec.Kind == PortKindMissing {
		n.defineError(fmt.Errorf("%w: missing ports cannot be declared", ErrInvalidConnection))
		return nil
	}
	if lib := n.library(); lib != nil && spec.Kind == PortKindData && !lib.HasType(spec.Type) {
		log.Warn(log.CatDefine, "port declared with unknown type",
			"node", n.guid, "port", key, "type", spec.Type)
	}
	live := n.Ports(dir)
	name := key
	if spec.Options.Has(PortOptionNodeOption) {
		name = optionPortPrefix + key
	}
	if _, dup := live.Get(name); dup {
		n.defineError(fmt.Errorf("%w: %s %s", ErrDuplicatePortName, dir, name))
		return nil
	}
	p := n.acquirePort(dir, spec, nil, name)
	if err := live.Add(p); err != nil {
		n.defineError(err)
		return nil
	}
	return p
}

// OptionSpec declares a node option.
type OptionSpec struct {
	ID      string
	Title   string
	Type    TypeHandle
	Default any
	Tooltip string
}

// OptionDefiner is handed to OptionsDefinition.DefineOptions.
type OptionDefiner struct {
	d *PortDefiner
}

// Node returns the node being defined.
func (o *OptionDefiner) Node() *Node { return o.d.node }

// AddOption declares a node option backed by a hidden node-option input port.
// Options with an unregistered type are rejected and logged.
func (o *OptionDefiner) AddOption(spec OptionSpec) *Port {
	n := o.d.node
	if lib := n.library(); lib != nil && !lib.HasType(spec.Type) {
		n.defineError(fmt.Errorf("%w: option %s has type %s", ErrUnknownType, spec.ID, spec.Type))
		return nil
	}
	title := spec.Title
	if title == "" {
		title = spec.ID
	}
	return o.d.add(DirectionInput, PortSpec{
		ID:       spec.ID,
		Title:    title,
		Type:     spec.Type,
		Kind:     PortKindData,
		Capacity: CapacityNone,
		Options:  PortOptionNodeOption | PortOptionHidden,
		Tooltip:  spec.Tooltip,
		Default:  spec.Default,
	})
}
