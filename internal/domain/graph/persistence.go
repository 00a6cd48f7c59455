package graph

import (
	"fmt"
	"slices"

	"github.com/zjrosen/nodegraph/internal/log"
)

// CreatePlaceholder inserts a placeholder into the list of its category at index.
// Block placeholders need spec.Container to name a resolved context node.
func (g *Graph) CreatePlaceholder(cat Category, index int, spec PlaceholderSpec) (*Placeholder, error) {
	if spec.GUID.IsZero() {
		spec.GUID = NewGUID()
	}
	p := newPlaceholder(cat, index, spec)

	scope := g.EnterChangeScope()
	defer scope.Close()

	var err error
	switch cat {
	case CategoryNode:
		g.nodes, err = insertSlot(g.nodes, index, NodeModel(p))
	case CategoryContextNode:
		g.contextNodes, err = insertSlot(g.contextNodes, index, NodeModel(p))
	case CategoryBlock:
		c, ok := Get[*ContextNode](g, spec.Container)
		if !ok {
			return nil, &ElementNotFoundError{GUID: spec.Container, Want: KindContextNode}
		}
		c.blocks, err = insertSlot(c.blocks, index, NodeModel(p))
	case CategoryWire:
		g.wires, err = insertSlot(g.wires, index, WireModel(p))
		g.wireIndex.MarkDirty()
	case CategoryVariable:
		g.variables, err = insertSlot(g.variables, index, DeclarationModel(p))
	case CategoryPortal:
		g.portals, err = insertSlot(g.portals, index, DeclarationModel(p))
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCategory, cat)
	}
	if err != nil {
		return nil, err
	}
	g.register(p)
	g.recorder().recordAdded(p)
	log.Info(log.CatPlaceholder, "placeholder created",
		"category", cat, "index", index, "guid", p.guid, "reason", p.reason)
	return p, nil
}

func insertSlot[T any](slots []T, index int, v T) ([]T, error) {
	if index < 0 || index > len(slots) {
		return slots, fmt.Errorf("%w: slot %d of %d", ErrInvalidIndex, index, len(slots))
	}
	slots = append(slots, v)
	copy(slots[index+1:], slots[index:])
	slots[index] = v
	return slots, nil
}

// PrepareForPersistence brings the graph into its persisted shape and returns the
// placeholder metadata table. Deleted placeholders keep their slot while another
// unresolved entry lives in the same list; otherwise their slots are dropped.
// Wire endpoint snapshots are refreshed from the resolved ports.
func (g *Graph) PrepareForPersistence() []MissingEntry {
	var entries []MissingEntry
	g.nodes, entries = compactList(g.nodes, CategoryNode, GUID{}, entries)
	g.contextNodes, entries = compactList(g.contextNodes, CategoryContextNode, GUID{}, entries)
	for _, m := range g.contextNodes {
		if c, ok := m.(*ContextNode); ok {
			c.blocks, entries = compactList(c.blocks, CategoryBlock, c.guid, entries)
		}
	}
	g.wires, entries = compactList(g.wires, CategoryWire, GUID{}, entries)
	g.variables, entries = compactList(g.variables, CategoryVariable, GUID{}, entries)
	g.portals, entries = compactList(g.portals, CategoryPortal, GUID{}, entries)
	g.wireIndex.MarkDirty()

	for _, wm := range g.wires {
		w, ok := wm.(*Wire)
		if !ok {
			continue
		}
		if p, ok := g.ResolvePort(w.from); ok {
			w.from.Title, w.from.Type = p.title, p.dataType
		}
		if p, ok := g.ResolvePort(w.to); ok {
			w.to.Title, w.to.Type = p.title, p.dataType
		}
	}
	return entries
}

func compactList[T Element](slots []T, cat Category, container GUID, entries []MissingEntry) ([]T, []MissingEntry) {
	unresolved := false
	for _, s := range slots {
		if p, ok := any(s).(*Placeholder); ok && !p.toRemove {
			unresolved = true
			break
		}
	}
	if !unresolved {
		slots = liveSlots(slots)
	}
	for i, s := range slots {
		p, ok := any(s).(*Placeholder)
		if !ok {
			continue
		}
		p.index = i
		entries = append(entries, MissingEntry{
			Category:  cat,
			Index:     i,
			GUID:      p.guid,
			Container: container,
			ToRemove:  p.toRemove,
		})
	}
	return slots, entries
}

// RestoreAfterLoad finishes a load: it rebuilds the registry and the wire index,
// defines every node and synthesizes missing ports for wire endpoints that do not
// resolve. Nodes that got such ports are defined once more so the ports can
// reattach, which leaves the loaded graph reconciled. Nothing done here marks the
// graph modified.
func (g *Graph) RestoreAfterLoad() {
	dirty := g.EnterBlockedDirtyScope()
	defer dirty.Close()
	scope := g.EnterChangeScope()
	defer scope.Close()

	g.InvalidateRegistry()
	g.Registry()
	g.wireIndex.MarkDirty()

	g.EachNode(func(n *Node) { n.Define() })
	for _, n := range g.synthesizeMissingEndpoints() {
		n.Define()
	}
	g.ensureWireIndex()
	g.modified = false
	log.Info(log.CatPlaceholder, "graph restored", "graph", g.guid,
		"placeholders", len(g.Placeholders()), "wires", len(g.Wires()))
}

func (g *Graph) synthesizeMissingEndpoints() []*Node {
	var touched []*Node
	for _, w := range g.Wires() {
		for _, ref := range [2]PortReference{w.From(), w.To()} {
			if ref.IsZero() {
				continue
			}
			e, ok := g.Lookup(ref.NodeID)
			if !ok {
				log.Warn(log.CatWire, "wire endpoint node not found",
					"wire", w.GUID(), "node", ref.NodeID, "port", ref.UniqueName)
				continue
			}
			if _, isPlaceholder := e.(*Placeholder); isPlaceholder {
				continue
			}
			n, ok := g.NodeByID(ref.NodeID)
			if !ok {
				continue
			}
			if _, ok := n.Port(ref.Direction, ref.UniqueName); ok {
				continue
			}
			if n.addMissingPort(ref) != nil && !slices.Contains(touched, n) {
				touched = append(touched, n)
			}
		}
	}
	return touched
}

// addMissingPort appends a missing port standing for ref.
func (n *Node) addMissingPort(ref PortReference) *Port {
	title := ref.Title
	if title == "" {
		title = ref.UniqueName
	}
	p := &Port{
		elementBase: elementBase{
			guid: portContentGUID(n.guid, nil, ref.Direction, ref.UniqueName, PortKindMissing, ref.Type),
			caps: CapSelectable,
		},
		nodeID:     n.guid,
		direction:  ref.Direction,
		kind:       PortKindMissing,
		dataType:   ref.Type,
		capacity:   CapacityMulti,
		title:      title,
		uniqueName: ref.UniqueName,
	}
	if err := n.Ports(ref.Direction).Add(p); err != nil {
		log.ErrorErr(log.CatDefine, "missing port rejected", err, "node", n.guid, "port", ref.UniqueName)
		return nil
	}
	if n.g != nil {
		n.g.register(p)
	}
	n.recorder().recordAdded(p)
	log.Info(log.CatDefine, "missing port synthesized for wire", "node", n.guid, "port", ref.UniqueName)
	return p
}
