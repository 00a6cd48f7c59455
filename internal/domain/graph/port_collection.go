package graph

import "fmt"

// OrderedPortCollection stores the ports of one node side. Ports are keyed by
// unique name; display order is kept separately so renames and range insertions
// do not disturb it.
type OrderedPortCollection struct {
	direction Direction
	byName    map[string]*Port
	order     map[string]int
	seq       []*Port
	onChange  func()
}

// NewOrderedPortCollection creates an empty collection. onChange, when set, runs
// after every structural change.
func NewOrderedPortCollection(dir Direction, onChange func()) *OrderedPortCollection {
	return &OrderedPortCollection{
		direction: dir,
		byName:    make(map[string]*Port),
		order:     make(map[string]int),
		onChange:  onChange,
	}
}

// Direction returns the side the collection belongs to.
func (c *OrderedPortCollection) Direction() Direction { return c.direction }

// Len returns the number of ports.
func (c *OrderedPortCollection) Len() int { return len(c.seq) }

// Add appends p at the end of the display order.
func (c *OrderedPortCollection) Add(p *Port) error {
	if _, ok := c.byName[p.uniqueName]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePortName, p.uniqueName)
	}
	c.byName[p.uniqueName] = p
	c.order[p.uniqueName] = len(c.seq)
	c.seq = append(c.seq, p)
	c.changed()
	return nil
}

// InsertRange inserts ports at display index, shifting every port at or after
// index. Ports whose name is already present are rejected before anything changes.
func (c *OrderedPortCollection) InsertRange(index int, ports []*Port) error {
	if index < 0 || index > len(c.seq) {
		return fmt.Errorf("%w: insert at %d of %d", ErrInvalidIndex, index, len(c.seq))
	}
	seen := make(map[string]struct{}, len(ports))
	for _, p := range ports {
		if _, ok := c.byName[p.uniqueName]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePortName, p.uniqueName)
		}
		if _, ok := seen[p.uniqueName]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePortName, p.uniqueName)
		}
		seen[p.uniqueName] = struct{}{}
	}
	if len(ports) == 0 {
		return nil
	}

	n := len(ports)
	for i := index; i < len(c.seq); i++ {
		c.order[c.seq[i].uniqueName] += n
	}
	tail := append([]*Port(nil), c.seq[index:]...)
	c.seq = append(c.seq[:index], ports...)
	c.seq = append(c.seq, tail...)
	for i, p := range ports {
		c.byName[p.uniqueName] = p
		c.order[p.uniqueName] = index + i
	}
	c.changed()
	return nil
}

// Remove deletes p and compacts the display order. It reports whether p was present.
func (c *OrderedPortCollection) Remove(p *Port) bool {
	existing, ok := c.byName[p.uniqueName]
	if !ok || existing != p {
		return false
	}
	return c.RemoveName(p.uniqueName)
}

// RemoveName deletes the port stored under name and compacts the display order.
func (c *OrderedPortCollection) RemoveName(name string) bool {
	idx, ok := c.order[name]
	if !ok {
		return false
	}
	delete(c.byName, name)
	delete(c.order, name)
	c.seq = append(c.seq[:idx], c.seq[idx+1:]...)
	for i := idx; i < len(c.seq); i++ {
		c.order[c.seq[i].uniqueName] = i
	}
	c.changed()
	return true
}

// SwapOrder exchanges the display positions of two ports.
func (c *OrderedPortCollection) SwapOrder(a, b *Port) error {
	ia, okA := c.order[a.uniqueName]
	ib, okB := c.order[b.uniqueName]
	if !okA || !okB {
		return fmt.Errorf("%w: swap of ports not in collection", ErrInvalidIndex)
	}
	c.seq[ia], c.seq[ib] = c.seq[ib], c.seq[ia]
	c.order[a.uniqueName], c.order[b.uniqueName] = ib, ia
	c.changed()
	return nil
}

// ChangeName re-keys p, which must be stored under oldName and already carry its
// new unique name, keeping its display position.
func (c *OrderedPortCollection) ChangeName(p *Port, oldName string) error {
	existing, ok := c.byName[oldName]
	if !ok || existing != p {
		return fmt.Errorf("%w: %s", ErrPortNotOnNode, oldName)
	}
	if oldName == p.uniqueName {
		return nil
	}
	if _, taken := c.byName[p.uniqueName]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicatePortName, p.uniqueName)
	}
	idx := c.order[oldName]
	delete(c.byName, oldName)
	delete(c.order, oldName)
	c.byName[p.uniqueName] = p
	c.order[p.uniqueName] = idx
	c.changed()
	return nil
}

// Get returns the port stored under a unique name.
func (c *OrderedPortCollection) Get(name string) (*Port, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// Contains reports whether p itself is stored in the collection.
func (c *OrderedPortCollection) Contains(p *Port) bool {
	existing, ok := c.byName[p.uniqueName]
	return ok && existing == p
}

// At returns the port at a display index. It panics when i is out of range.
func (c *OrderedPortCollection) At(i int) *Port {
	if i < 0 || i >= len(c.seq) {
		panic(fmt.Errorf("%w: port %d of %d", ErrInvalidIndex, i, len(c.seq)))
	}
	return c.seq[i]
}

// IndexOf returns the display index of the port stored under name.
func (c *OrderedPortCollection) IndexOf(name string) (int, bool) {
	i, ok := c.order[name]
	return i, ok
}

// All returns the ports in display order.
func (c *OrderedPortCollection) All() []*Port {
	out := make([]*Port, len(c.seq))
	copy(out, c.seq)
	return out
}

// Visible returns the ports that are not hidden, in display order.
func (c *OrderedPortCollection) Visible() []*Port {
	out := make([]*Port, 0, len(c.seq))
	for _, p := range c.seq {
		if !p.HasOption(PortOptionHidden) {
			out = append(out, p)
		}
	}
	return out
}

// Names returns the unique names in display order.
func (c *OrderedPortCollection) Names() []string {
	out := make([]string, len(c.seq))
	for i, p := range c.seq {
		out[i] = p.uniqueName
	}
	return out
}

// Clear removes every port.
func (c *OrderedPortCollection) Clear() {
	if len(c.seq) == 0 {
		return
	}
	c.byName = make(map[string]*Port)
	c.order = make(map[string]int)
	c.seq = nil
	c.changed()
}

func (c *OrderedPortCollection) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
