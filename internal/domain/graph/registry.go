package graph

import "github.com/zjrosen/nodegraph/internal/log"

// Registry maps GUIDs to elements. It is derived state: a graph rebuilds it from
// its authoritative lists whenever it has been invalidated.
type Registry struct {
	elements map[GUID]Element
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{elements: make(map[GUID]Element)}
}

// Register inserts e. A different element already registered under the same GUID
// is kept and an integrity warning is logged; Register then reports false.
func (r *Registry) Register(e Element) bool {
	if e == nil {
		return false
	}
	id := e.GUID()
	if existing, ok := r.elements[id]; ok && existing != e {
		log.Warn(log.CatRegistry, "guid already registered",
			"guid", id, "existing", existing.Kind(), "rejected", e.Kind())
		return false
	}
	r.elements[id] = e
	return true
}

// RegisterTree registers e and, recursively, everything it owns.
func (r *Registry) RegisterTree(e Element) {
	if e == nil {
		return
	}
	r.Register(e)
	for _, d := range e.dependents() {
		r.RegisterTree(d)
	}
}

// Unregister removes e and, recursively, everything it owns. Entries occupied by a
// different element with the same GUID are left untouched.
func (r *Registry) Unregister(e Element) {
	if e == nil {
		return
	}
	if existing, ok := r.elements[e.GUID()]; ok && existing == e {
		delete(r.elements, e.GUID())
	}
	for _, d := range e.dependents() {
		r.Unregister(d)
	}
}

// Lookup returns the element registered under id.
func (r *Registry) Lookup(id GUID) (Element, bool) {
	e, ok := r.elements[id]
	return e, ok
}

// Len returns the number of registered elements.
func (r *Registry) Len() int {
	return len(r.elements)
}

// LookupAs returns the element registered under id when it has type T.
func LookupAs[T Element](r *Registry, id GUID) (T, bool) {
	var zero T
	e, ok := r.Lookup(id)
	if !ok {
		return zero, false
	}
	t, ok := e.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
