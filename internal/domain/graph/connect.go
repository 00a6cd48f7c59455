package graph

import (
	"fmt"

	"github.com/zjrosen/nodegraph/internal/log"
)

// Connect wires an output port to an input port; the arguments may come in
// either order. Connecting already connected ports returns the existing wire.
// A single-capacity endpoint drops its previous wire.
func (g *Graph) Connect(a, b *Port) (*Wire, error) {
	from, to := a, b
	if from.direction == DirectionInput {
		from, to = b, a
	}
	if from.direction != DirectionOutput || to.direction != DirectionInput {
		return nil, fmt.Errorf("%w: %s and %s have the same direction", ErrInvalidConnection, a.uniqueName, b.uniqueName)
	}
	fromNode, ok := g.NodeByID(from.nodeID)
	if !ok || !fromNode.outputs.Contains(from) {
		return nil, fmt.Errorf("%w: port %s", ErrElementNotInGraph, from.uniqueName)
	}
	toNode, ok := g.NodeByID(to.nodeID)
	if !ok || !toNode.inputs.Contains(to) {
		return nil, fmt.Errorf("%w: port %s", ErrElementNotInGraph, to.uniqueName)
	}
	if from.capacity == CapacityNone || to.capacity == CapacityNone {
		return nil, fmt.Errorf("%w: %s -> %s", ErrPortNotConnectable, from.uniqueName, to.uniqueName)
	}
	if from.nodeID == to.nodeID && !fromNode.allowSelf && !g.opts.AllowSelfConnections {
		return nil, fmt.Errorf("%w: %s", ErrSelfConnection, fromNode.guid)
	}
	if from.kind == PortKindMissing || to.kind == PortKindMissing {
		return nil, fmt.Errorf("%w: missing ports accept no new wires", ErrInvalidConnection)
	}
	if (from.kind == PortKindExecution) != (to.kind == PortKindExecution) {
		return nil, fmt.Errorf("%w: execution and data ports cannot connect", ErrIncompatibleTypes)
	}
	if !g.lib.Compatible(from.dataType, to.dataType) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIncompatibleTypes, from.dataType, to.dataType)
	}

	for _, existing := range g.wiresAt(from.key()) {
		if existing.To().Key() == to.key() {
			if w, ok := existing.(*Wire); ok {
				return w, nil
			}
		}
	}

	scope := g.EnterChangeScope()
	defer scope.Close()

	for _, p := range [2]*Port{from, to} {
		if p.capacity != CapacitySingle {
			continue
		}
		for _, old := range g.wiresAt(p.key()) {
			g.detachWire(old)
		}
	}

	w := NewWire(NewGUID(), from.Reference(), to.Reference())
	g.appendWire(w)
	log.Debug(log.CatWire, "wire connected", "wire", w.guid, "from", from.key(), "to", to.key())
	return w, nil
}

// AddWire appends a prepared wire or wire placeholder, for loaders and paste.
// Endpoints are not validated.
func (g *Graph) AddWire(w WireModel) {
	scope := g.EnterChangeScope()
	defer scope.Close()
	g.appendWire(w)
}

func (g *Graph) appendWire(w WireModel) {
	g.wires = append(g.wires, w)
	g.wireIndex.wireAdded(w, len(g.wires))
	g.register(w)
	g.recorder().recordAdded(w)
	g.markDirty()
}

// detachWire removes w from the wire list and the index.
func (g *Graph) detachWire(w WireModel) {
	idx := -1
	for i, existing := range g.wires {
		if existing == w {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	g.wires = append(g.wires[:idx], g.wires[idx+1:]...)
	g.wireIndex.wireRemoved(w, len(g.wires))
	g.unregister(w)
	g.recorder().recordRemoved(w)
	g.markDirty()
}

// retargetWire moves one endpoint of w to p, on p's side.
func (g *Graph) retargetWire(w *Wire, p *Port) {
	w.setEndpoint(p.Reference())
	g.wireIndex.MarkDirty()
	g.recorder().recordChanged(w, HintWiring)
	g.markDirty()
}

func (g *Graph) ensureWireIndex() {
	if !g.wireIndex.Dirty() {
		return
	}
	g.wireIndex.rebuild(liveSlots(g.wires))
	log.Debug(log.CatWire, "wire index rebuilt", "graph", g.guid, "wires", len(g.wires))
}

func (g *Graph) wiresAt(k PortKey) []WireModel {
	g.ensureWireIndex()
	return g.wireIndex.lookup(k)
}

// WiresFor returns the wires attached to p, in wire-list order.
func (g *Graph) WiresFor(p *Port) []WireModel {
	return g.wiresAt(p.key())
}

// WiresAt returns the wires attached to the port slot k.
func (g *Graph) WiresAt(k PortKey) []WireModel {
	return g.wiresAt(k)
}

// IsConnected reports whether p has at least one wire.
func (g *Graph) IsConnected(p *Port) bool {
	return len(g.wiresAt(p.key())) > 0
}

// WireIndex exposes the wire index, for diagnostics.
func (g *Graph) WireIndex() *WireIndex { return g.wireIndex }

func (g *Graph) hasFreeCapacity(p *Port) bool {
	switch p.capacity {
	case CapacityNone:
		return false
	case CapacitySingle:
		return len(g.wiresAt(p.key())) == 0
	default:
		return true
	}
}

// ReorderWire moves w among the wires leaving its output port, which must be
// reorderable. The new order is written back to the wire list, so the persisted
// order matches the displayed one.
func (g *Graph) ReorderWire(w *Wire, op ReorderOp) error {
	port, ok := g.ResolvePort(w.from)
	if !ok || !port.HasOption(PortOptionReorderable) {
		return fmt.Errorf("%w: %s", ErrNotReorderable, w.from.Key())
	}
	g.ensureWireIndex()
	k := w.from.Key()
	list := g.wireIndex.byPort[k]

	members := make(map[WireModel]struct{}, len(list))
	for _, m := range list {
		members[m] = struct{}{}
	}
	positions := make([]int, 0, len(list))
	for i, existing := range g.wires {
		if _, ok := members[existing]; ok {
			positions = append(positions, i)
		}
	}
	if len(positions) != len(list) {
		g.wireIndex.MarkDirty()
		return fmt.Errorf("%w: wire index out of sync", ErrInvalidIndex)
	}
	if !reorder(list, w, op) {
		return nil
	}

	scope := g.EnterChangeScope()
	defer scope.Close()
	for i, pos := range positions {
		g.wires[pos] = list[i]
	}
	g.recorder().recordChanged(w, HintOrder)
	g.markDirty()
	log.Debug(log.CatWire, "wire reordered", "wire", w.guid, "op", op)
	return nil
}
