package graph

// DefaultIncrementalWireLimit is the wire count up to which the index is updated
// in place instead of being marked dirty.
const DefaultIncrementalWireLimit = 512

// WireIndex maps port slots to their incident wires, in wire-list order.
type WireIndex struct {
	byPort map[PortKey][]WireModel
	dirty  bool
	limit  int
}

func newWireIndex(limit int) *WireIndex {
	if limit <= 0 {
		limit = DefaultIncrementalWireLimit
	}
	return &WireIndex{byPort: make(map[PortKey][]WireModel), dirty: true, limit: limit}
}

// MarkDirty forces a rebuild on the next query.
func (x *WireIndex) MarkDirty() { x.dirty = true }

// Dirty reports whether the index must be rebuilt before use.
func (x *WireIndex) Dirty() bool { return x.dirty }

func (x *WireIndex) rebuild(wires []WireModel) {
	x.byPort = make(map[PortKey][]WireModel, len(wires)*2)
	for _, w := range wires {
		x.insert(w)
	}
	x.dirty = false
}

func (x *WireIndex) insert(w WireModel) {
	for _, ref := range [2]PortReference{w.From(), w.To()} {
		if ref.IsZero() {
			continue
		}
		k := ref.Key()
		x.byPort[k] = append(x.byPort[k], w)
	}
}

// wireAdded appends w when the index is clean and the list is small enough.
// The caller has already appended w to the end of the wire list.
func (x *WireIndex) wireAdded(w WireModel, total int) {
	if x.dirty {
		return
	}
	if total > x.limit {
		x.dirty = true
		return
	}
	x.insert(w)
}

func (x *WireIndex) wireRemoved(w WireModel, total int) {
	if x.dirty {
		return
	}
	if total > x.limit {
		x.dirty = true
		return
	}
	for _, ref := range [2]PortReference{w.From(), w.To()} {
		if ref.IsZero() {
			continue
		}
		k := ref.Key()
		list := x.byPort[k]
		for i, existing := range list {
			if existing == w {
				list = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(x.byPort, k)
		} else {
			x.byPort[k] = list
		}
	}
}

func (x *WireIndex) lookup(k PortKey) []WireModel {
	list := x.byPort[k]
	out := make([]WireModel, len(list))
	copy(out, list)
	return out
}

// ReorderOp moves a wire within the wires of its output port.
type ReorderOp int

const (
	MoveFirst ReorderOp = iota
	MoveUp
	MoveDown
	MoveLast
)

func (o ReorderOp) String() string {
	switch o {
	case MoveFirst:
		return "first"
	case MoveUp:
		return "up"
	case MoveDown:
		return "down"
	case MoveLast:
		return "last"
	default:
		return "unknown"
	}
}

// reorder moves w inside list according to op and reports whether anything moved.
func reorder(list []WireModel, w WireModel, op ReorderOp) bool {
	idx := -1
	for i, existing := range list {
		if existing == w {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	target := idx
	switch op {
	case MoveFirst:
		target = 0
	case MoveUp:
		target = idx - 1
	case MoveDown:
		target = idx + 1
	case MoveLast:
		target = len(list) - 1
	}
	if target < 0 || target >= len(list) || target == idx {
		return false
	}
	moved := list[idx]
	if target < idx {
		copy(list[target+1:idx+1], list[target:idx])
	} else {
		copy(list[idx:target], list[idx+1:target+1])
	}
	list[target] = moved
	return true
}
