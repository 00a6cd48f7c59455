package graph

// ChangeHint says which aspect of a changed element changed.
type ChangeHint string

const (
	HintData     ChangeHint = "data"
	HintTitle    ChangeHint = "title"
	HintPosition ChangeHint = "position"
	HintPorts    ChangeHint = "ports"
	HintType     ChangeHint = "type"
	HintOrder    ChangeHint = "order"
	HintExpanded ChangeHint = "expanded"
	HintValue    ChangeHint = "value"
	HintWiring   ChangeHint = "wiring"
	HintState    ChangeHint = "state"
)

// ChangeDescription is the diff accumulated by a change scope. Its exported
// methods are read-only; only the graph records into it.
//
// The sets are normalized as they are built: an element added and then removed
// within one description disappears entirely, an element removed and then added
// again is reported as changed, and changes to an added element are folded into
// the addition.
type ChangeDescription struct {
	added   elementSet
	changed elementSet
	removed elementSet
	hints   map[GUID][]ChangeHint
}

// NewChangeDescription creates an empty description.
func NewChangeDescription() *ChangeDescription {
	return &ChangeDescription{
		added:   newElementSet(),
		changed: newElementSet(),
		removed: newElementSet(),
		hints:   make(map[GUID][]ChangeHint),
	}
}

// Added returns the added elements in recording order.
func (c *ChangeDescription) Added() []Element { return c.added.list() }

// Changed returns the changed elements in recording order.
func (c *ChangeDescription) Changed() []Element { return c.changed.list() }

// Removed returns the removed elements in recording order.
func (c *ChangeDescription) Removed() []Element { return c.removed.list() }

// Hints returns the hints recorded for a changed element.
func (c *ChangeDescription) Hints(id GUID) []ChangeHint {
	out := make([]ChangeHint, len(c.hints[id]))
	copy(out, c.hints[id])
	return out
}

// IsAdded reports whether id is in the added set.
func (c *ChangeDescription) IsAdded(id GUID) bool { return c.added.has(id) }

// IsChanged reports whether id is in the changed set.
func (c *ChangeDescription) IsChanged(id GUID) bool { return c.changed.has(id) }

// IsRemoved reports whether id is in the removed set.
func (c *ChangeDescription) IsRemoved(id GUID) bool { return c.removed.has(id) }

// IsEmpty reports whether nothing was recorded.
func (c *ChangeDescription) IsEmpty() bool {
	return c.added.len() == 0 && c.changed.len() == 0 && c.removed.len() == 0
}

func (c *ChangeDescription) recordAdded(e Element) {
	id := e.GUID()
	if c.removed.has(id) {
		c.removed.delete(id)
		c.changed.put(e)
		return
	}
	c.added.put(e)
}

func (c *ChangeDescription) recordChanged(e Element, hints ...ChangeHint) {
	id := e.GUID()
	if c.added.has(id) || c.removed.has(id) {
		return
	}
	c.changed.put(e)
	for _, h := range hints {
		c.addHint(id, h)
	}
}

func (c *ChangeDescription) recordRemoved(e Element) {
	id := e.GUID()
	c.changed.delete(id)
	delete(c.hints, id)
	if c.added.has(id) {
		c.added.delete(id)
		return
	}
	c.removed.put(e)
}

func (c *ChangeDescription) addHint(id GUID, h ChangeHint) {
	for _, existing := range c.hints[id] {
		if existing == h {
			return
		}
	}
	c.hints[id] = append(c.hints[id], h)
}

// merge folds child into c as if child's records had been made on c directly.
func (c *ChangeDescription) merge(child *ChangeDescription) {
	for _, e := range child.removed.list() {
		c.recordRemoved(e)
	}
	for _, e := range child.added.list() {
		c.recordAdded(e)
	}
	for _, e := range child.changed.list() {
		c.recordChanged(e, child.hints[e.GUID()]...)
	}
}

// changeRecorder receives mutation records.
type changeRecorder interface {
	recordAdded(e Element)
	recordChanged(e Element, hints ...ChangeHint)
	recordRemoved(e Element)
}

// nopRecorder is the recorder used when no change scope is active.
type nopRecorder struct{}

func (nopRecorder) recordAdded(Element)                  {}
func (nopRecorder) recordChanged(Element, ...ChangeHint) {}
func (nopRecorder) recordRemoved(Element)                {}

var (
	_ changeRecorder = (*ChangeDescription)(nil)
	_ changeRecorder = nopRecorder{}
)

// elementSet is an insertion-ordered set of elements keyed by GUID.
type elementSet struct {
	order []GUID
	items map[GUID]Element
}

func newElementSet() elementSet {
	return elementSet{items: make(map[GUID]Element)}
}

func (s *elementSet) put(e Element) {
	id := e.GUID()
	if _, ok := s.items[id]; !ok {
		s.order = append(s.order, id)
	}
	s.items[id] = e
}

func (s *elementSet) delete(id GUID) {
	if _, ok := s.items[id]; !ok {
		return
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *elementSet) has(id GUID) bool {
	_, ok := s.items[id]
	return ok
}

func (s *elementSet) len() int { return len(s.order) }

func (s *elementSet) list() []Element {
	out := make([]Element, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// ChangeScope is a handle on an entered change scope.
type ChangeScope struct {
	g      *Graph
	desc   *ChangeDescription
	closed bool
}

// Description returns the description accumulated by this scope so far.
func (s *ChangeScope) Description() *ChangeDescription { return s.desc }

// Close leaves the scope. The description is folded into the enclosing scope, or
// published when this was the outermost scope. Closing twice is a no-op.
func (s *ChangeScope) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	s.g.popChangeScope(s.desc)
}

// DirtyScope is a handle on an entered dirty scope.
type DirtyScope struct {
	g      *Graph
	frame  *dirtyFrame
	closed bool
}

// Close leaves the scope, propagating its dirty state outward.
func (s *DirtyScope) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	s.g.popDirtyScope(s.frame)
}

// discard drops the marks made inside the scope so far.
func (s *DirtyScope) discard() {
	s.frame.dirty = false
}

type dirtyFrame struct {
	blocked bool
	dirty   bool
}
