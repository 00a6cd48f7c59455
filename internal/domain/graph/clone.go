package graph

import (
	"fmt"

	"github.com/zjrosen/nodegraph/internal/log"
)

// CloneElements duplicates nodes, context nodes (with their blocks), sticky notes
// and placemats with fresh GUIDs, offset by delta. Wires whose both endpoints are
// duplicated are duplicated too; an endpoint on a missing port gets a missing
// port on the copy. It returns the new elements in input order, followed by the
// new wires. On error nothing is left in the graph.
func (g *Graph) CloneElements(elems []Element, delta Position) ([]Element, error) {
	for _, e := range elems {
		if !e.Capabilities().Has(CapCopiable) {
			return nil, fmt.Errorf("%w: %s %s is not copiable", ErrCapabilityLocked, e.Kind(), e.GUID())
		}
		if n, ok := e.(*Node); ok && n.elemKind != KindBlock {
			if _, known := g.lib.Kind(n.kindTag); !known {
				return nil, fmt.Errorf("%w: %s", ErrUnknownNodeKind, n.kindTag)
			}
		}
	}

	scope := g.EnterChangeScope()
	defer scope.Close()
	dirty := g.EnterDirtyScope()
	defer dirty.Close()

	remap := make(map[GUID]GUID)
	var out []Element
	fail := func(err error) ([]Element, error) {
		for i := len(out) - 1; i >= 0; i-- {
			g.deleteElement(out[i])
		}
		dirty.discard()
		log.Warn(log.CatRegistry, "clone rolled back", "elements", len(out), "error", err)
		return nil, err
	}

	for _, e := range elems {
		switch v := e.(type) {
		case *ContextNode:
			c, err := g.CreateContextNode(v.kindTag, cloneOptions(v.Node, delta)...)
			if err != nil {
				return fail(err)
			}
			out = append(out, c)
			remap[v.guid] = c.guid
			for _, b := range v.blocks {
				bn, ok := b.(*Node)
				if !ok {
					continue
				}
				nb, err := g.CreateBlock(c, bn.kindTag, cloneOptions(bn, Position{})...)
				if err != nil {
					return fail(err)
				}
				remap[bn.guid] = nb.guid
			}
		case *Node:
			if v.elemKind == KindBlock {
				continue
			}
			n, err := g.CreateNode(v.kindTag, cloneOptions(v, delta)...)
			if err != nil {
				return fail(err)
			}
			remap[v.guid] = n.guid
			out = append(out, n)
		case *StickyNote:
			r := v.rect
			r.X += delta.X
			r.Y += delta.Y
			out = append(out, g.CreateStickyNote(GUID{}, v.title, v.contents, r))
		case *Placemat:
			r := v.rect
			r.X += delta.X
			r.Y += delta.Y
			out = append(out, g.CreatePlacemat(GUID{}, v.title, r, v.color))
		}
	}

	var copies []*Wire
	for _, wm := range g.Wires() {
		w, ok := wm.(*Wire)
		if !ok {
			continue
		}
		from, okFrom := remap[w.from.NodeID]
		to, okTo := remap[w.to.NodeID]
		if !okFrom || !okTo {
			continue
		}
		fromRef, toRef := g.cloneEndpoint(w.from, from), g.cloneEndpoint(w.to, to)
		copies = append(copies, NewWire(NewGUID(), fromRef, toRef))
	}
	for _, w := range copies {
		g.wires = append(g.wires, w)
		g.register(w)
		g.recorder().recordAdded(w)
		out = append(out, w)
	}
	if len(copies) > 0 {
		g.wireIndex.MarkDirty()
		g.markDirty()
	}
	return out, nil
}

// cloneEndpoint moves ref to the copied node id. When the original endpoint is a
// missing port, or does not resolve, the copy gets a missing port standing for it.
func (g *Graph) cloneEndpoint(ref PortReference, id GUID) PortReference {
	src, resolved := g.ResolvePort(ref)
	if resolved {
		ref = src.Reference()
	}
	ref.NodeID = id
	n, ok := g.NodeByID(id)
	if !ok {
		return ref
	}
	if _, ok := n.Port(ref.Direction, ref.UniqueName); ok {
		return ref
	}
	if p := n.addMissingPort(ref); p != nil && resolved {
		p.retiredFor = src.retiredFor
	}
	return ref
}

func cloneOptions(n *Node, delta Position) []NodeOption {
	opts := []NodeOption{
		WithTitle(n.title),
		WithPosition(Position{X: n.position.X + delta.X, Y: n.position.Y + delta.Y}),
		WithCapabilities(n.caps),
		WithExpandedPorts(n.ExpandedPorts()...),
		WithPortOrder(DirectionInput, n.PortOrder(DirectionInput)...),
		WithPortOrder(DirectionOutput, n.PortOrder(DirectionOutput)...),
	}
	if state := n.DefinitionState(); state != nil {
		opts = append(opts, WithState(state))
	}
	for name, c := range n.constants {
		opts = append(opts, WithConstant(name, c.Value()))
	}
	for name, v := range n.pending {
		opts = append(opts, WithConstant(name, v))
	}
	return opts
}
