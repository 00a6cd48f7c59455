package domain

import "github.com/zjrosen/nodegraph/internal/domain/graph"

// ListFilter provides filtering options for listing stored graphs.
type ListFilter struct {
	// NamePrefix keeps graphs whose name starts with the prefix.
	NamePrefix string

	// OnlyUnresolved keeps graphs holding at least one unresolved slot.
	OnlyUnresolved bool

	// Limit restricts the number of graphs returned. 0 means no limit.
	Limit int

	// IncludeDeleted includes soft-deleted graphs in results.
	IncludeDeleted bool
}

// GraphRepository defines the persistence interface for StoredGraph entities.
type GraphRepository interface {
	// Save persists a graph. Saving a GUID that is already stored replaces its
	// content and revives it when it was soft-deleted; the ID is set either way.
	Save(g *StoredGraph) error

	// FindByGUID returns the stored graph with the given GUID.
	// Returns GraphNotFoundError if none exists. Soft-deleted graphs are not returned.
	FindByGUID(guid string) (*StoredGraph, error)

	// List returns the graphs matching filter, most recently updated first.
	List(filter ListFilter) ([]*StoredGraph, error)

	// MissingEntries returns the unresolved slot table of a stored graph.
	MissingEntries(guid string) ([]graph.MissingEntry, error)

	// Delete soft-deletes a graph.
	// Returns GraphNotFoundError if no matching graph exists.
	Delete(guid string) error

	// Close releases any resources held by the repository.
	Close() error
}
