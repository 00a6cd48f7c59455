package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/nodegraph/internal/domain/graph"
)

func TestNewStoredGraph(t *testing.T) {
	before := time.Now()
	s := NewStoredGraph("g-1", "chain", "yaml", []byte("version: 1\n"))

	require.Zero(t, s.ID())
	require.Equal(t, "g-1", s.GUID())
	require.Equal(t, "chain", s.Name())
	require.Equal(t, "yaml", s.Format())
	require.False(t, s.CreatedAt().Before(before))
	require.Equal(t, s.CreatedAt(), s.UpdatedAt())
	require.False(t, s.IsDeleted())
	require.False(t, s.HasUnresolved())
}

func TestStoredGraph_HasUnresolved(t *testing.T) {
	s := NewStoredGraph("g-1", "chain", "yaml", nil)
	s.SetContent("chain", "yaml", nil, Stats{Nodes: 2, Placeholders: 1},
		[]graph.MissingEntry{{Category: graph.CategoryNode, Index: 1, ToRemove: true}})
	require.False(t, s.HasUnresolved(), "to-remove slots do not count")

	s.SetContent("chain", "yaml", nil, Stats{Nodes: 2, Placeholders: 1},
		[]graph.MissingEntry{{Category: graph.CategoryNode, Index: 1}})
	require.True(t, s.HasUnresolved())
	require.Equal(t, 1, s.Stats().Placeholders)
}

func TestStoredGraph_SoftDelete(t *testing.T) {
	s := NewStoredGraph("g-1", "chain", "yaml", nil)
	s.SoftDelete()
	require.True(t, s.IsDeleted())
	require.NotNil(t, s.DeletedAt())
	require.Equal(t, *s.DeletedAt(), s.UpdatedAt())
}

func TestGraphNotFoundError(t *testing.T) {
	err := &GraphNotFoundError{GUID: "abc"}
	require.Equal(t, "graph not found: abc", err.Error())
}
