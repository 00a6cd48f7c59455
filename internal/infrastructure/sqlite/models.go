package sqlite

import (
	"time"

	"github.com/zjrosen/nodegraph/internal/catalog/domain"
	"github.com/zjrosen/nodegraph/internal/domain/graph"
)

// GraphModel represents a row of the graphs table. Times are Unix seconds.
type GraphModel struct {
	ID               int64
	GUID             string
	Name             string
	Format           string
	Body             []byte
	NodeCount        int
	WireCount        int
	PlaceholderCount int
	CreatedAt        int64
	UpdatedAt        int64
	DeletedAt        *int64 // nullable
}

// MissingEntryModel represents a row of the graph_missing_entries table.
type MissingEntryModel struct {
	GraphID   int64
	Position  int
	Category  string
	SlotIndex int
	GUID      string
	Container string // empty for top-level lists
	ToRemove  bool
}

func toGraphModel(g *domain.StoredGraph) *GraphModel {
	m := &GraphModel{
		ID:               g.ID(),
		GUID:             g.GUID(),
		Name:             g.Name(),
		Format:           g.Format(),
		Body:             g.Body(),
		NodeCount:        g.Stats().Nodes,
		WireCount:        g.Stats().Wires,
		PlaceholderCount: g.Stats().Placeholders,
		CreatedAt:        g.CreatedAt().Unix(),
		UpdatedAt:        g.UpdatedAt().Unix(),
	}
	if g.DeletedAt() != nil {
		deletedAt := g.DeletedAt().Unix()
		m.DeletedAt = &deletedAt
	}
	if m.Body == nil {
		m.Body = []byte{}
	}
	return m
}

func (m *GraphModel) toDomain(missing []graph.MissingEntry) *domain.StoredGraph {
	var deletedAt *time.Time
	if m.DeletedAt != nil {
		t := time.Unix(*m.DeletedAt, 0)
		deletedAt = &t
	}
	return domain.ReconstituteStoredGraph(
		m.ID,
		m.GUID,
		m.Name,
		m.Format,
		m.Body,
		domain.Stats{Nodes: m.NodeCount, Wires: m.WireCount, Placeholders: m.PlaceholderCount},
		missing,
		time.Unix(m.CreatedAt, 0),
		time.Unix(m.UpdatedAt, 0),
		deletedAt,
	)
}

func toMissingEntryModel(graphID int64, position int, e graph.MissingEntry) MissingEntryModel {
	m := MissingEntryModel{
		GraphID:   graphID,
		Position:  position,
		Category:  e.Category.String(),
		SlotIndex: e.Index,
		GUID:      e.GUID.String(),
		ToRemove:  e.ToRemove,
	}
	if !e.Container.IsZero() {
		m.Container = e.Container.String()
	}
	return m
}

func (m MissingEntryModel) toDomain() (graph.MissingEntry, error) {
	cat, err := graph.ParseCategory(m.Category)
	if err != nil {
		return graph.MissingEntry{}, err
	}
	e := graph.MissingEntry{Category: cat, Index: m.SlotIndex, ToRemove: m.ToRemove}
	if e.GUID, err = graph.ParseGUID(m.GUID); err != nil {
		return graph.MissingEntry{}, err
	}
	if m.Container != "" {
		if e.Container, err = graph.ParseGUID(m.Container); err != nil {
			return graph.MissingEntry{}, err
		}
	}
	return e, nil
}
