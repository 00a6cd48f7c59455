// Package domain defines the catalog of stored graphs: the StoredGraph entity,
// its repository interface and domain errors. It has no infrastructure
// dependencies; the SQLite implementation lives in internal/infrastructure/sqlite.
package domain

import (
	"time"

	"github.com/zjrosen/nodegraph/internal/domain/graph"
)

// Stats counts what a stored document holds, so listings need no decoding.
type Stats struct {
	Nodes        int
	Wires        int
	Placeholders int
}

// StoredGraph is a serialized graph document kept in the catalog.
type StoredGraph struct {
	id      int64
	guid    string
	name    string
	format  string
	body    []byte
	stats   Stats
	missing []graph.MissingEntry

	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewStoredGraph creates an unsaved StoredGraph. The ID stays zero until the
// repository assigns one.
func NewStoredGraph(guid, name, format string, body []byte) *StoredGraph {
	now := time.Now()
	return &StoredGraph{
		guid:      guid,
		name:      name,
		format:    format,
		body:      body,
		createdAt: now,
		updatedAt: now,
	}
}

// ReconstituteStoredGraph rebuilds a StoredGraph from persisted data.
func ReconstituteStoredGraph(
	id int64,
	guid, name, format string,
	body []byte,
	stats Stats,
	missing []graph.MissingEntry,
	createdAt, updatedAt time.Time,
	deletedAt *time.Time,
) *StoredGraph {
	return &StoredGraph{
		id:        id,
		guid:      guid,
		name:      name,
		format:    format,
		body:      body,
		stats:     stats,
		missing:   missing,
		createdAt: createdAt,
		updatedAt: updatedAt,
		deletedAt: deletedAt,
	}
}

func (s *StoredGraph) ID() int64 { return s.id }

// SetID is called by the repository after an insert.
func (s *StoredGraph) SetID(id int64) { s.id = id }

func (s *StoredGraph) GUID() string                  { return s.guid }
func (s *StoredGraph) Name() string                  { return s.name }
func (s *StoredGraph) Format() string                { return s.format }
func (s *StoredGraph) Body() []byte                  { return s.body }
func (s *StoredGraph) Stats() Stats                  { return s.stats }
func (s *StoredGraph) Missing() []graph.MissingEntry { return s.missing }
func (s *StoredGraph) CreatedAt() time.Time          { return s.createdAt }
func (s *StoredGraph) UpdatedAt() time.Time          { return s.updatedAt }
func (s *StoredGraph) DeletedAt() *time.Time         { return s.deletedAt }

// IsDeleted reports whether the graph was soft-deleted.
func (s *StoredGraph) IsDeleted() bool { return s.deletedAt != nil }

// HasUnresolved reports whether the document carries unresolved slots that are
// not marked for removal.
func (s *StoredGraph) HasUnresolved() bool {
	for _, e := range s.missing {
		if !e.ToRemove {
			return true
		}
	}
	return false
}

// SetContent replaces the serialized document and its summary.
func (s *StoredGraph) SetContent(name, format string, body []byte, stats Stats, missing []graph.MissingEntry) {
	s.name = name
	s.format = format
	s.body = body
	s.stats = stats
	s.missing = missing
	s.updatedAt = time.Now()
}

// SoftDelete marks the graph deleted.
func (s *StoredGraph) SoftDelete() {
	now := time.Now()
	s.deletedAt = &now
	s.updatedAt = now
}
