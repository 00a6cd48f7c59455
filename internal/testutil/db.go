package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/nodegraph/internal/catalog/domain"
	"github.com/zjrosen/nodegraph/internal/infrastructure/sqlite"
)

// NewTestDB opens a migrated sqlite database in a temp directory.
// It is closed when the test finishes.
func NewTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "graphs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewTestRepository returns a graph repository over a fresh test database.
func NewTestRepository(t *testing.T) domain.GraphRepository {
	t.Helper()
	return NewTestDB(t).GraphRepository()
}
