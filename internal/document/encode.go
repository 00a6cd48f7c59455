package document

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/nodegraph/internal/domain/graph"
	"github.com/zjrosen/nodegraph/internal/log"
	"github.com/zjrosen/nodegraph/internal/tracing"
)

// Encode prepares g for persistence and serializes it. Placeholders are written
// back as the raw records they were loaded from.
func Encode(ctx context.Context, g *graph.Graph) (doc *Document, err error) {
	_, span := tracing.Start(ctx, tracing.SpanPrefixDocument+"encode",
		attribute.String(tracing.AttrGraphGUID, g.GUID().String()),
		attribute.String(tracing.AttrGraphName, g.Name()),
	)
	defer func() { tracing.End(span, err) }()

	entries := g.PrepareForPersistence()
	e := &encoder{lib: g.Library()}
	doc = &Document{
		Version: Version,
		GUID:    g.GUID(),
		Name:    g.Name(),
		Missing: entries,
	}

	for _, m := range g.NodeSlots() {
		rec, err := e.nodeModel(m, TypeNode)
		if err != nil {
			return nil, err
		}
		doc.Nodes = append(doc.Nodes, rec)
	}
	for _, m := range g.ContextNodeSlots() {
		rec, err := e.nodeModel(m, TypeContext)
		if err != nil {
			return nil, err
		}
		doc.ContextNodes = append(doc.ContextNodes, rec)
	}
	for _, m := range g.WireSlots() {
		rec, err := e.wire(m)
		if err != nil {
			return nil, err
		}
		doc.Wires = append(doc.Wires, rec)
	}
	for _, m := range g.VariableSlots() {
		rec, err := e.declaration(m)
		if err != nil {
			return nil, err
		}
		doc.Variables = append(doc.Variables, rec)
	}
	for _, m := range g.PortalSlots() {
		rec, err := e.declaration(m)
		if err != nil {
			return nil, err
		}
		doc.Portals = append(doc.Portals, rec)
	}
	if err := e.containers(g, doc); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int(tracing.AttrNodeCount, len(doc.Nodes)+len(doc.ContextNodes)),
		attribute.Int(tracing.AttrWireCount, len(doc.Wires)),
		attribute.Int(tracing.AttrPlaceholderCount, len(entries)),
	)
	log.Debug(log.CatDocument, "graph encoded", "graph", g.GUID(),
		"nodes", len(doc.Nodes), "wires", len(doc.Wires), "missing", len(entries))
	return doc, nil
}

type encoder struct {
	lib *graph.Library
}

// placeholderRecord returns the raw record a placeholder was loaded from.
func placeholderRecord(p *graph.Placeholder) *Record {
	rec, _ := p.Payload().(*Record)
	return rec
}

func (e *encoder) nodeModel(m graph.NodeModel, typ string) (*Record, error) {
	switch v := m.(type) {
	case *graph.Placeholder:
		return placeholderRecord(v), nil
	case *graph.ContextNode:
		var blocks []*Record
		for _, b := range v.BlockSlots() {
			rec, err := e.nodeModel(b, TypeBlock)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, rec)
		}
		return e.node(v.Node, typ, blocks)
	case *graph.Node:
		return e.node(v, typ, nil)
	default:
		return nil, fmt.Errorf("encode %s: unexpected %T", typ, m)
	}
}

func (e *encoder) node(n *graph.Node, typ string, blocks []*Record) (*Record, error) {
	data := nodeData{
		Kind:        n.KindTag(),
		Position:    n.Position(),
		State:       n.DefinitionState(),
		Expanded:    n.ExpandedPorts(),
		InputOrder:  n.PortOrder(graph.DirectionInput),
		OutputOrder: n.PortOrder(graph.DirectionOutput),
		Blocks:      blocks,
	}
	if kind, ok := e.lib.Kind(n.KindTag()); !ok || kind.Title != n.Title() {
		data.Title = n.Title()
	}
	constants := n.PendingConstants()
	for _, name := range n.ConstantNames() {
		c, _ := n.Constant(name)
		constants[name] = c.Value()
	}
	if len(constants) > 0 {
		data.Constants = constants
	}
	return newRecord(typ, n.GUID(), data)
}

func (e *encoder) wire(m graph.WireModel) (*Record, error) {
	switch v := m.(type) {
	case *graph.Placeholder:
		return placeholderRecord(v), nil
	case *graph.Wire:
		return newRecord(TypeWire, v.GUID(), wireData{From: v.From(), To: v.To()})
	default:
		return nil, fmt.Errorf("encode wire: unexpected %T", m)
	}
}

func (e *encoder) declaration(m graph.DeclarationModel) (*Record, error) {
	switch v := m.(type) {
	case *graph.Placeholder:
		return placeholderRecord(v), nil
	case *graph.VariableDeclaration:
		data := variableData{
			Name:    v.Name(),
			Type:    string(v.DataType()),
			Scope:   v.Scope().String(),
			Tooltip: v.Tooltip(),
		}
		if c := v.DefaultValue(); c != nil {
			data.Default = c.Value()
		}
		return newRecord(TypeVariable, v.GUID(), data)
	case *graph.PortalDeclaration:
		return newRecord(TypePortal, v.GUID(), portalData{Name: v.Name(), Type: string(v.DataType())})
	default:
		return nil, fmt.Errorf("encode declaration: unexpected %T", m)
	}
}

func (e *encoder) containers(g *graph.Graph, doc *Document) error {
	for _, s := range g.Sections() {
		rec, err := newRecord(TypeSection, s.GUID(), sectionData{Title: s.Title(), Items: s.Items()})
		if err != nil {
			return err
		}
		doc.Sections = append(doc.Sections, rec)
	}
	for _, gr := range g.Groups() {
		rec, err := newRecord(TypeGroup, gr.GUID(), groupData{Title: gr.Title(), Position: gr.Position(), Items: gr.Items()})
		if err != nil {
			return err
		}
		doc.Groups = append(doc.Groups, rec)
	}
	for _, n := range g.StickyNotes() {
		rec, err := newRecord(TypeStickyNote, n.GUID(), stickyNoteData{Title: n.Title(), Contents: n.Contents(), Rect: n.Rect()})
		if err != nil {
			return err
		}
		doc.StickyNotes = append(doc.StickyNotes, rec)
	}
	for _, p := range g.Placemats() {
		rec, err := newRecord(TypePlacemat, p.GUID(), placematData{Title: p.Title(), Rect: p.Rect(), Color: p.Color()})
		if err != nil {
			return err
		}
		doc.Placemats = append(doc.Placemats, rec)
	}
	return nil
}
