package document

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/nodegraph/internal/domain/graph"
	"github.com/zjrosen/nodegraph/internal/log"
	"github.com/zjrosen/nodegraph/internal/tracing"
)

var errUnexpectedType = errors.New("unexpected record type")

// Decode materializes doc into a graph instantiating nodes from lib. Records that
// cannot be resolved load as placeholders in their original slot; slots marked
// to-remove are dropped first. The returned graph is not modified.
func Decode(ctx context.Context, doc *Document, lib *graph.Library, opts ...graph.Option) (g *graph.Graph, err error) {
	_, span := tracing.Start(ctx, tracing.SpanPrefixDocument+"decode",
		attribute.String(tracing.AttrGraphGUID, doc.GUID.String()),
		attribute.String(tracing.AttrGraphName, doc.Name),
	)
	defer func() { tracing.End(span, err) }()

	if doc.Version > Version {
		return nil, &DecodeError{Err: fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)}
	}

	g = graph.New(lib, opts...)
	if !doc.GUID.IsZero() {
		g.SetGUID(doc.GUID)
	}
	g.SetName(doc.Name)

	d := &decoder{g: g, span: span, missing: make(map[listKey][]graph.MissingEntry)}
	for _, e := range doc.Missing {
		k := listKey{e.Category, e.Container}
		d.missing[k] = append(d.missing[k], e)
	}

	for i, rec := range d.repair(graph.CategoryVariable, graph.GUID{}, doc.Variables) {
		d.variable(i, rec)
	}
	for i, rec := range d.repair(graph.CategoryPortal, graph.GUID{}, doc.Portals) {
		d.portal(i, rec)
	}
	for i, rec := range d.repair(graph.CategoryNode, graph.GUID{}, doc.Nodes) {
		d.node(graph.CategoryNode, i, rec, nil)
	}
	for i, rec := range d.repair(graph.CategoryContextNode, graph.GUID{}, doc.ContextNodes) {
		d.contextNode(i, rec)
	}
	for i, rec := range d.repair(graph.CategoryWire, graph.GUID{}, doc.Wires) {
		d.wire(i, rec)
	}
	d.containers(doc)

	g.RestoreAfterLoad()
	g.ClearModified()

	span.SetAttributes(
		attribute.Int(tracing.AttrNodeCount, len(g.Nodes())+len(g.ContextNodes())),
		attribute.Int(tracing.AttrWireCount, len(g.Wires())),
		attribute.Int(tracing.AttrPlaceholderCount, d.placeholders),
	)
	log.Info(log.CatDocument, "graph decoded", "graph", g.GUID(), "name", g.Name(),
		"nodes", len(g.Nodes()), "wires", len(g.Wires()), "placeholders", d.placeholders, "skipped", d.skipped)
	return g, nil
}

type listKey struct {
	cat       graph.Category
	container graph.GUID
}

type decoder struct {
	g       *graph.Graph
	span    trace.Span
	missing map[listKey][]graph.MissingEntry
	// slotGUID holds the metadata GUID of unresolved slots after repair.
	slotGUID     map[listKey]map[int]graph.GUID
	placeholders int
	skipped      int
}

// repair drops the slots the metadata marks to-remove and remembers the GUIDs of
// the remaining unresolved slots.
func (d *decoder) repair(cat graph.Category, container graph.GUID, records []*Record) []*Record {
	k := listKey{cat, container}
	entries := d.missing[k]
	if len(entries) == 0 {
		return records
	}
	out, kept := graph.RepairSlots(records, entries)
	if dropped := len(records) - len(out); dropped > 0 {
		log.Info(log.CatPlaceholder, "removed deleted slots", "category", cat, "count", dropped)
		d.span.AddEvent(tracing.EventRepairApplied, trace.WithAttributes(
			attribute.String("category", cat.String()),
			attribute.Int("dropped", dropped),
		))
	}
	if d.slotGUID == nil {
		d.slotGUID = make(map[listKey]map[int]graph.GUID)
	}
	ids := make(map[int]graph.GUID, len(kept))
	for _, e := range kept {
		ids[e.Index] = e.GUID
	}
	d.slotGUID[k] = ids
	return out
}

// placeholder stands in for rec at index of its list.
func (d *decoder) placeholder(cat graph.Category, index int, container graph.GUID, rec *Record, reason error) *graph.Placeholder {
	spec := graph.PlaceholderSpec{Container: container, Payload: rec, Reason: reason.Error()}
	if rec != nil {
		spec.GUID = rec.GUID
		spec.Title, spec.Position = salvage(rec)
	}
	if spec.GUID.IsZero() {
		spec.GUID = d.slotGUID[listKey{cat, container}][index]
	}
	switch cat {
	case graph.CategoryWire:
		if rec != nil {
			var w wireData
			if decodeData(rec, &w) == nil {
				spec.From, spec.To = w.From, w.To
			}
		}
	case graph.CategoryContextNode:
		if rec != nil {
			var n nodeData
			if decodeData(rec, &n) == nil {
				for _, b := range n.Blocks {
					if b != nil && !b.GUID.IsZero() {
						spec.BlockIDs = append(spec.BlockIDs, b.GUID)
					}
				}
			}
		}
	}

	p, err := d.g.CreatePlaceholder(cat, index, spec)
	if err != nil {
		// Indices come from our own sequential walk; a failure is a bug.
		log.ErrorErr(log.CatPlaceholder, "placeholder rejected", err, "category", cat, "index", index)
		return nil
	}
	d.placeholders++
	d.span.AddEvent(tracing.EventPlaceholderCreated, trace.WithAttributes(
		attribute.String("category", cat.String()),
		attribute.Int("index", index),
		attribute.String("reason", spec.Reason),
	))
	log.Warn(log.CatPlaceholder, "unresolved record kept as placeholder",
		"category", cat, "index", index, "guid", p.GUID(), "reason", spec.Reason)
	return p
}

func expectType(rec *Record, typ string) error {
	if rec == nil {
		return fmt.Errorf("%w: null", errUnexpectedType)
	}
	if rec.Type != typ {
		return fmt.Errorf("%w: %q in %s list", errUnexpectedType, rec.Type, typ)
	}
	return nil
}

func nodeOptions(rec *Record, data nodeData) []graph.NodeOption {
	opts := []graph.NodeOption{
		graph.WithoutDefine(),
		graph.WithPosition(data.Position),
	}
	if !rec.GUID.IsZero() {
		opts = append(opts, graph.WithGUID(rec.GUID))
	}
	if data.Title != "" {
		opts = append(opts, graph.WithTitle(data.Title))
	}
	if data.State != nil {
		opts = append(opts, graph.WithState(data.State))
	}
	if len(data.Expanded) > 0 {
		opts = append(opts, graph.WithExpandedPorts(data.Expanded...))
	}
	if len(data.InputOrder) > 0 {
		opts = append(opts, graph.WithPortOrder(graph.DirectionInput, data.InputOrder...))
	}
	if len(data.OutputOrder) > 0 {
		opts = append(opts, graph.WithPortOrder(graph.DirectionOutput, data.OutputOrder...))
	}
	for name, v := range data.Constants {
		opts = append(opts, graph.WithConstant(name, v))
	}
	return opts
}

// node decodes a node or, when ctxNode is set, a block of ctxNode.
func (d *decoder) node(cat graph.Category, index int, rec *Record, ctxNode *graph.ContextNode) {
	typ, container := TypeNode, graph.GUID{}
	if cat == graph.CategoryBlock {
		typ, container = TypeBlock, ctxNode.GUID()
	}
	if err := expectType(rec, typ); err != nil {
		d.placeholder(cat, index, container, rec, err)
		return
	}
	var data nodeData
	if err := decodeData(rec, &data); err != nil {
		d.placeholder(cat, index, container, rec, err)
		return
	}
	var err error
	if cat == graph.CategoryBlock {
		_, err = d.g.CreateBlock(ctxNode, data.Kind, nodeOptions(rec, data)...)
	} else {
		_, err = d.g.CreateNode(data.Kind, nodeOptions(rec, data)...)
	}
	if err != nil {
		d.placeholder(cat, index, container, rec, err)
	}
}

func (d *decoder) contextNode(index int, rec *Record) {
	if err := expectType(rec, TypeContext); err != nil {
		d.placeholder(graph.CategoryContextNode, index, graph.GUID{}, rec, err)
		return
	}
	var data nodeData
	if err := decodeData(rec, &data); err != nil {
		d.placeholder(graph.CategoryContextNode, index, graph.GUID{}, rec, err)
		return
	}
	c, err := d.g.CreateContextNode(data.Kind, nodeOptions(rec, data)...)
	if err != nil {
		d.placeholder(graph.CategoryContextNode, index, graph.GUID{}, rec, err)
		return
	}
	for i, b := range d.repair(graph.CategoryBlock, c.GUID(), data.Blocks) {
		d.node(graph.CategoryBlock, i, b, c)
	}
}

func (d *decoder) wire(index int, rec *Record) {
	if err := expectType(rec, TypeWire); err != nil {
		d.placeholder(graph.CategoryWire, index, graph.GUID{}, rec, err)
		return
	}
	var data wireData
	if err := decodeData(rec, &data); err != nil {
		d.placeholder(graph.CategoryWire, index, graph.GUID{}, rec, err)
		return
	}
	if data.From.IsZero() || data.To.IsZero() {
		d.placeholder(graph.CategoryWire, index, graph.GUID{}, rec, errors.New("wire endpoint missing"))
		return
	}
	id := rec.GUID
	if id.IsZero() {
		id = graph.NewGUID()
	}
	d.g.AddWire(graph.NewWire(id, data.From, data.To))
}

func (d *decoder) variable(index int, rec *Record) {
	if err := expectType(rec, TypeVariable); err != nil {
		d.placeholder(graph.CategoryVariable, index, graph.GUID{}, rec, err)
		return
	}
	var data variableData
	if err := decodeData(rec, &data); err != nil {
		d.placeholder(graph.CategoryVariable, index, graph.GUID{}, rec, err)
		return
	}
	scope, err := graph.ParseVariableScope(data.Scope)
	if err != nil {
		d.placeholder(graph.CategoryVariable, index, graph.GUID{}, rec, err)
		return
	}
	_, err = d.g.CreateVariable(graph.VariableSpec{
		GUID:    rec.GUID,
		Name:    data.Name,
		Type:    graph.TypeHandle(data.Type),
		Scope:   scope,
		Tooltip: data.Tooltip,
		Default: data.Default,
	})
	if err != nil {
		d.placeholder(graph.CategoryVariable, index, graph.GUID{}, rec, err)
	}
}

func (d *decoder) portal(index int, rec *Record) {
	if err := expectType(rec, TypePortal); err != nil {
		d.placeholder(graph.CategoryPortal, index, graph.GUID{}, rec, err)
		return
	}
	var data portalData
	if err := decodeData(rec, &data); err != nil {
		d.placeholder(graph.CategoryPortal, index, graph.GUID{}, rec, err)
		return
	}
	_, err := d.g.CreatePortal(graph.PortalSpec{GUID: rec.GUID, Name: data.Name, Type: graph.TypeHandle(data.Type)})
	if err != nil {
		d.placeholder(graph.CategoryPortal, index, graph.GUID{}, rec, err)
	}
}

// containers decodes the lists without placeholder support. Their records are
// plain data, so a malformed one is logged and left out.
func (d *decoder) containers(doc *Document) {
	for i, rec := range doc.StickyNotes {
		var data stickyNoteData
		if !d.plain(rec, TypeStickyNote, "sticky_notes", i, &data) {
			continue
		}
		d.g.CreateStickyNote(rec.GUID, data.Title, data.Contents, data.Rect)
	}
	for i, rec := range doc.Placemats {
		var data placematData
		if !d.plain(rec, TypePlacemat, "placemats", i, &data) {
			continue
		}
		d.g.CreatePlacemat(rec.GUID, data.Title, data.Rect, data.Color)
	}
	for i, rec := range doc.Sections {
		var data sectionData
		if !d.plain(rec, TypeSection, "sections", i, &data) {
			continue
		}
		s := d.g.CreateSection(rec.GUID, data.Title)
		for _, id := range data.Items {
			if e, ok := d.member(id); ok {
				d.g.AddToSection(s, e)
			}
		}
	}
	for i, rec := range doc.Groups {
		var data groupData
		if !d.plain(rec, TypeGroup, "groups", i, &data) {
			continue
		}
		gr := d.g.CreateGroup(rec.GUID, data.Title, data.Position)
		for _, id := range data.Items {
			if e, ok := d.member(id); ok {
				d.g.AddToGroup(gr, e)
			}
		}
	}
}

func (d *decoder) plain(rec *Record, typ, list string, index int, out any) bool {
	err := expectType(rec, typ)
	if err == nil {
		err = decodeData(rec, out)
	}
	if err == nil {
		return true
	}
	d.skipped++
	log.Warn(log.CatDocument, "malformed record skipped", "list", list, "index", index, "error", err)
	d.span.AddEvent(tracing.EventRecordSkipped, trace.WithAttributes(
		attribute.String("list", list),
		attribute.Int("index", index),
		attribute.String("error", err.Error()),
	))
	return false
}

// member resolves a container item; items that no longer exist are dropped.
func (d *decoder) member(id graph.GUID) (graph.Element, bool) {
	if e, ok := d.g.Lookup(id); ok {
		return e, true
	}
	log.Warn(log.CatDocument, "container item not found", "guid", id)
	return nil, false
}
