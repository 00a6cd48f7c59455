package graph

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/zjrosen/nodegraph/internal/log"
)

// portGeneration is the port set a reconciliation pass replaces.
type portGeneration struct {
	inputs  *OrderedPortCollection
	outputs *OrderedPortCollection
}

func newPortGeneration(in, out []*Port) *portGeneration {
	pg := &portGeneration{
		inputs:  NewOrderedPortCollection(DirectionInput, nil),
		outputs: NewOrderedPortCollection(DirectionOutput, nil),
	}
	for _, p := range in {
		_ = pg.inputs.Add(p)
	}
	for _, p := range out {
		_ = pg.outputs.Add(p)
	}
	return pg
}

func (pg *portGeneration) ports(dir Direction) *OrderedPortCollection {
	if dir == DirectionOutput {
		return pg.outputs
	}
	return pg.inputs
}

func (pg *portGeneration) get(dir Direction, name string) (*Port, bool) {
	if pg == nil {
		return nil, false
	}
	return pg.ports(dir).Get(name)
}

func (pg *portGeneration) contains(p *Port) bool {
	return pg != nil && pg.ports(p.direction).Contains(p)
}

// Define reconciles the node's ports with its definition.
//
// Ports that match a declaration by content GUID or unique name are reused, so
// wires and constants attached to them survive. Ports that are no longer declared
// are retired: node-option ports are kept, wires on other ports reattach to a
// compatible port or keep their endpoint as a missing port. Calling Define twice
// without changing the node state leaves the node unchanged.
func (n *Node) Define() {
	if n.defining {
		log.Warn(log.CatDefine, "reentrant define skipped", "node", n.guid, "kind", n.kindTag)
		return
	}
	n.defining = true
	defer func() {
		n.defining = false
		n.previous = nil
	}()

	var scope *ChangeScope
	if n.g != nil {
		scope = n.g.EnterChangeScope()
		defer scope.Close()
	}

	beforeIn, beforeOut := n.inputs.Names(), n.outputs.Names()
	n.previous = newPortGeneration(n.inputs.All(), n.outputs.All())
	n.inputs.Clear()
	n.outputs.Clear()
	n.defineErrs = nil

	d := &PortDefiner{node: n}
	if od, ok := n.def.(OptionsDefinition); ok {
		od.DefineOptions(&OptionDefiner{d: d})
	}
	if n.def != nil {
		n.def.DefinePorts(d)
	}

	n.expandAll(n.inputs)
	n.expandAll(n.outputs)
	n.retire(n.previous.inputs.All(), n.inputs)
	n.retire(n.previous.outputs.All(), n.outputs)
	n.applyPortOrder(n.inputs)
	n.applyPortOrder(n.outputs)
	n.reconcileConstants()

	if !slices.Equal(beforeIn, n.inputs.Names()) || !slices.Equal(beforeOut, n.outputs.Names()) {
		n.recorder().recordChanged(n.element(), HintPorts)
	}
	if scope != nil && !scope.Description().IsEmpty() {
		n.g.markDirty()
	}
	log.Debug(log.CatDefine, "node defined", "node", n.guid, "kind", n.kindTag,
		"inputs", n.inputs.Len(), "outputs", n.outputs.Len())
}

// acquirePort returns the port for a declaration. A registered port with the same
// content GUID is reused, and renamed in place when its parent chain changed its
// unique name. Otherwise the previous generation port with the same unique name,
// or with the name derived from spec.FormerKey, is reused.
func (n *Node) acquirePort(dir Direction, spec PortSpec, parent *Port, name string) *Port {
	kind := spec.Kind
	typ := spec.Type
	if kind == PortKindExecution {
		typ = TypeExecution
	}
	hash := portContentGUID(n.guid, parent, dir, spec.key(), kind, typ)
	live := n.Ports(dir)

	var port *Port
	if n.g != nil {
		if p, ok := LookupAs[*Port](n.g.Registry(), hash); ok &&
			p.nodeID == n.guid && p.direction == dir && !live.Contains(p) {
			if p.uniqueName == name || (n.previous.contains(p) && n.renamePort(p, name)) {
				port = p
			}
		}
	}
	if port == nil {
		if p, ok := n.previous.get(dir, name); ok && !live.Contains(p) {
			port = p
		}
	}
	if port == nil && spec.FormerKey != "" {
		if p, ok := n.previous.get(dir, composeUniqueName(parent, spec.FormerKey)); ok &&
			!live.Contains(p) && n.renamePort(p, name) {
			port = p
		}
	}

	if port != nil {
		retyped := port.dataType != typ || port.kind != kind
		port.kind = kind
		port.dataType = typ
		port.id = spec.ID
		port.title = spec.Title
		port.tooltip = spec.Tooltip
		port.options = spec.Options
		port.capacity = resolveCapacity(spec.Capacity, dir, kind)
		port.parent = parent
		port.defaultVal = spec.Default
		port.retiredFor = ""
		if retyped {
			n.recorder().recordChanged(port, HintType)
		}
	} else {
		if n.g != nil {
			if _, taken := n.g.Registry().Lookup(hash); taken {
				// A renamed port still holds the GUID derived from its former key.
				hash = ContentGUID("port", hash.String(), name)
			}
		}
		port = &Port{
			elementBase: elementBase{guid: hash, caps: CapSelectable},
			nodeID:      n.guid,
			direction:   dir,
			kind:        kind,
			dataType:    typ,
			capacity:    resolveCapacity(spec.Capacity, dir, kind),
			id:          spec.ID,
			title:       spec.Title,
			tooltip:     spec.Tooltip,
			uniqueName:  name,
			parent:      parent,
			options:     spec.Options,
			defaultVal:  spec.Default,
		}
		if n.g != nil {
			n.g.register(port)
		}
		n.recorder().recordAdded(port)
	}
	port.expanded = n.expanded[name]
	return port
}

func (n *Node) expandAll(coll *OrderedPortCollection) {
	for _, p := range coll.All() {
		if p.parent == nil {
			n.expandPort(coll, p)
		}
	}
}

// expandPort materializes the sub-ports of p, splices them right after it and
// recurses into them, giving a depth-first order.
func (n *Node) expandPort(coll *OrderedPortCollection, p *Port) {
	p.subPorts = nil
	if !p.expanded || p.kind != PortKindData {
		return
	}
	info, ok := n.library().Type(p.dataType)
	if !ok || !info.Expandable() {
		return
	}
	subs := make([]*Port, 0, len(info.Fields))
	for _, f := range info.Fields {
		name := composeUniqueName(p, f.Name)
		if _, dup := coll.Get(name); dup {
			n.defineError(fmt.Errorf("%w: %s", ErrDuplicatePortName, name))
			continue
		}
		spec := PortSpec{
			ID:      f.Name,
			Title:   f.Name,
			Type:    f.Type,
			Kind:    PortKindData,
			Options: p.options &^ (PortOptionNodeOption | PortOptionReorderable),
		}
		subs = append(subs, n.acquirePort(p.direction, spec, p, name))
	}
	idx, _ := coll.IndexOf(p.uniqueName)
	if err := coll.InsertRange(idx+1, subs); err != nil {
		n.defineError(err)
		return
	}
	p.subPorts = subs
	for _, sp := range subs {
		n.expandPort(coll, sp)
	}
}

// retire handles the previous-generation ports that were not declared again.
func (n *Node) retire(prev []*Port, live *OrderedPortCollection) {
	for _, p := range prev {
		if live.Contains(p) {
			continue
		}
		if p.IsNodeOption() && p.parent == nil {
			if err := live.Add(p); err != nil {
				n.dropPort(p)
			}
			continue
		}
		n.retirePort(p, live)
	}
}

// retirePort moves the wires of an obsolete port and drops it, or keeps it as a
// missing port when some wire has nowhere else to go.
//
// Wires of a port that was live move to the first port of the same kind and data
// type. Wires of a port that was already missing move to the first port with the
// same title, unless the port was retired by this node against the very same
// candidate ports.
func (n *Node) retirePort(p *Port, live *OrderedPortCollection) {
	if other, ok := live.Get(p.uniqueName); n.g == nil || (ok && other != p) {
		n.dropPort(p)
		return
	}
	wires := n.g.wiresAt(p.key())
	if len(wires) == 0 {
		n.dropPort(p)
		return
	}

	candidates := candidateSignature(live)
	if !p.IsMissing() {
		if n.g.opts.PruneObsoleteWires {
			for _, w := range wires {
				n.g.detachWire(w)
			}
			n.dropPort(p)
			return
		}
		wires = n.reattach(wires, func(candidate *Port) bool {
			return candidate.kind == p.kind && candidate.dataType == p.dataType
		}, live)
		if len(wires) == 0 {
			n.dropPort(p)
			return
		}
		n.convertToMissing(p)
		p.retiredFor = candidates
	} else if p.retiredFor != candidates {
		title := p.title
		wires = n.reattach(wires, func(candidate *Port) bool {
			return candidate.title == title
		}, live)
		if len(wires) == 0 {
			n.dropPort(p)
			return
		}
		if p.retiredFor != "" {
			p.retiredFor = candidates
		}
	}

	if err := live.Add(p); err != nil {
		log.ErrorErr(log.CatDefine, "missing port could not be kept", err, "node", n.guid, "port", p.uniqueName)
		return
	}
	log.Debug(log.CatDefine, "wired missing port kept", "node", n.guid, "port", p.uniqueName, "wires", len(wires))
}

// candidateSignature lists the ports a retired wire may move to.
func candidateSignature(live *OrderedPortCollection) string {
	var b strings.Builder
	for _, c := range live.seq {
		if c.kind == PortKindMissing || c.IsNodeOption() {
			continue
		}
		fmt.Fprintf(&b, "%s|%s|%s\n", c.uniqueName, c.title, c.dataType)
	}
	return b.String()
}

// reattach moves each wire to the first live port, in display order, accepted by
// match and having free capacity. It returns the wires that could not move.
func (n *Node) reattach(wires []WireModel, match func(*Port) bool, live *OrderedPortCollection) []WireModel {
	var stuck []WireModel
	for _, wm := range wires {
		w, ok := wm.(*Wire)
		if !ok {
			stuck = append(stuck, wm)
			continue
		}
		var target *Port
		for _, candidate := range live.seq {
			if candidate.kind == PortKindMissing || candidate.IsNodeOption() {
				continue
			}
			if !match(candidate) || !n.g.hasFreeCapacity(candidate) {
				continue
			}
			target = candidate
			break
		}
		if target == nil {
			stuck = append(stuck, wm)
			continue
		}
		n.g.retargetWire(w, target)
		log.Debug(log.CatWire, "wire reattached", "wire", w.guid, "port", target.uniqueName)
	}
	return stuck
}

// convertToMissing turns an obsolete port into a missing port keeping its unique
// name, so the wires still referencing it keep resolving.
func (n *Node) convertToMissing(p *Port) {
	for _, sp := range p.subPorts {
		sp.parent = nil
	}
	p.subPorts = nil
	p.parent = nil
	p.kind = PortKindMissing
	p.capacity = CapacityMulti
	p.options &^= PortOptionNodeOption | PortOptionReorderable
	n.recorder().recordChanged(p, HintType)
	log.Info(log.CatDefine, "missing port synthesized", "node", n.guid, "port", p.uniqueName, "title", p.title)
}

func (n *Node) dropPort(p *Port) {
	p.subPorts = nil
	if n.g != nil {
		n.g.unregister(p)
	}
	n.recorder().recordRemoved(p)
}

// renamePort re-keys a previous generation port to name. Its wires, constant,
// pending value and expansion state follow it, and so do those of its sub-ports.
// It reports false when another previous port already holds name.
func (n *Node) renamePort(p *Port, name string) bool {
	old := p.uniqueName
	if old == name {
		return true
	}
	var wires []WireModel
	if n.g != nil {
		wires = n.g.wiresAt(p.key())
	}
	p.uniqueName = name
	if err := n.previous.ports(p.direction).ChangeName(p, old); err != nil {
		p.uniqueName = old
		log.Debug(log.CatDefine, "port rename skipped", "node", n.guid, "from", old, "to", name, "error", err)
		return false
	}
	rekey(n.constants, old, name)
	rekey(n.pending, old, name)
	rekey(n.expanded, old, name)
	if i := slices.Index(n.portOrder[p.direction], old); i >= 0 {
		n.portOrder[p.direction][i] = name
	}
	for _, wm := range wires {
		if w, ok := wm.(*Wire); ok {
			n.g.retargetWire(w, p)
		}
	}
	n.recorder().recordChanged(p, HintTitle)
	log.Debug(log.CatDefine, "port renamed", "node", n.guid, "from", old, "to", name)
	return true
}

// rekey moves the entries stored under old, or below it, to name.
func rekey[V any](m map[string]V, old, name string) {
	moved := make(map[string]V)
	for k, v := range m {
		switch {
		case k == old:
			moved[name] = v
		case strings.HasPrefix(k, old+subPortSeparator):
			moved[name+k[len(old):]] = v
		default:
			continue
		}
		delete(m, k)
	}
	maps.Copy(m, moved)
}

// reconcileConstants prunes constants of ports that disappeared, recreates the
// ones whose type changed and creates defaults for new data inputs.
func (n *Node) reconcileConstants() {
	lib := n.library()
	for name, c := range n.constants {
		p, ok := n.inputs.Get(name)
		if !ok || p.parent != nil || p.kind == PortKindExecution {
			delete(n.constants, name)
			n.recorder().recordChanged(n.element(), HintValue)
			continue
		}
		if p.kind == PortKindMissing || c.Type() == p.dataType {
			continue
		}
		if nc, ok := lib.NewConstant(p.dataType); ok {
			if err := nc.SetValue(c.Value()); err != nil {
				log.Debug(log.CatDefine, "constant reset on type change",
					"node", n.guid, "port", name, "from", c.Type(), "to", p.dataType)
			}
			n.constants[name] = nc
		} else {
			delete(n.constants, name)
		}
		n.recorder().recordChanged(n.element(), HintValue)
	}

	for _, p := range n.inputs.seq {
		if p.parent != nil || p.kind != PortKindData {
			continue
		}
		if _, ok := n.constants[p.uniqueName]; ok {
			continue
		}
		c, ok := lib.NewConstant(p.dataType)
		if !ok {
			continue
		}
		if raw, has := n.pending[p.uniqueName]; has {
			if err := c.SetValue(raw); err != nil {
				log.Warn(log.CatDefine, "stored constant does not fit port",
					"node", n.guid, "port", p.uniqueName, "error", err)
			}
			delete(n.pending, p.uniqueName)
		} else if p.defaultVal != nil {
			if err := c.SetValue(p.defaultVal); err != nil {
				log.Warn(log.CatDefine, "port default does not fit type",
					"node", n.guid, "port", p.uniqueName, "error", err)
			}
		}
		n.constants[p.uniqueName] = c
	}
}

// SetPortExpanded shows or hides the sub-ports of an expandable port. Collapsing
// fails with ErrSubPortsConnected while a sub-port has wires.
func (n *Node) SetPortExpanded(p *Port, expanded bool) error {
	coll := n.Ports(p.direction)
	if p.nodeID != n.guid || !coll.Contains(p) {
		return fmt.Errorf("%w: %s", ErrPortNotOnNode, p.uniqueName)
	}
	if p.kind != PortKindData || !n.library().Expandable(p.dataType) {
		return fmt.Errorf("%w: %s of type %s", ErrNotExpandable, p.uniqueName, p.dataType)
	}
	if p.expanded == expanded {
		return nil
	}
	old := p.descendants()
	if !expanded && n.g != nil {
		for _, sp := range old {
			if len(n.g.wiresAt(sp.key())) > 0 {
				return fmt.Errorf("%w: %s", ErrSubPortsConnected, sp.uniqueName)
			}
		}
	}
	if n.defining {
		return fmt.Errorf("%w: %s", ErrReentrantDefine, n.guid)
	}

	n.defining = true
	defer func() {
		n.defining = false
		n.previous = nil
	}()
	if n.g != nil {
		scope := n.g.EnterChangeScope()
		defer scope.Close()
	}

	if p.direction == DirectionInput {
		n.previous = newPortGeneration(old, nil)
	} else {
		n.previous = newPortGeneration(nil, old)
	}
	for _, sp := range old {
		coll.Remove(sp)
	}
	p.expanded = expanded
	if expanded {
		n.expanded[p.uniqueName] = true
	} else {
		delete(n.expanded, p.uniqueName)
	}
	n.expandPort(coll, p)
	for _, sp := range old {
		if !coll.Contains(sp) {
			n.dropPort(sp)
		}
	}
	n.recorder().recordChanged(p, HintExpanded)
	n.recorder().recordChanged(n.element(), HintPorts)
	if n.g != nil {
		n.g.markDirty()
	}
	return nil
}
