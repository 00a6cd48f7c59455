package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/nodegraph/internal/catalog/domain"
	"github.com/zjrosen/nodegraph/internal/domain/graph"
	"github.com/zjrosen/nodegraph/internal/log"
)

const graphColumns = `id, guid, name, format, body, node_count, wire_count, placeholder_count,
	created_at, updated_at, deleted_at`

// graphRepository implements domain.GraphRepository using SQLite.
type graphRepository struct {
	db *sql.DB
}

func newGraphRepository(db *sql.DB) *graphRepository {
	return &graphRepository{db: db}
}

var _ domain.GraphRepository = (*graphRepository)(nil)

func scanGraph(scanner interface{ Scan(...any) error }) (*GraphModel, error) {
	var model GraphModel
	err := scanner.Scan(
		&model.ID, &model.GUID, &model.Name, &model.Format, &model.Body,
		&model.NodeCount, &model.WireCount, &model.PlaceholderCount,
		&model.CreatedAt, &model.UpdatedAt, &model.DeletedAt,
	)
	return &model, err
}

// Save upserts the graph row by GUID and replaces its missing entries, in one
// transaction. Saving revives a soft-deleted row.
func (r *graphRepository) Save(g *domain.StoredGraph) (err error) {
	model := toGraphModel(g)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var id int64
	err = tx.QueryRow(
		`INSERT INTO graphs (
			guid, name, format, body, node_count, wire_count, placeholder_count,
			created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(guid) DO UPDATE SET
			name = excluded.name, format = excluded.format, body = excluded.body,
			node_count = excluded.node_count, wire_count = excluded.wire_count,
			placeholder_count = excluded.placeholder_count,
			updated_at = excluded.updated_at, deleted_at = excluded.deleted_at
		RETURNING id`,
		model.GUID, model.Name, model.Format, model.Body,
		model.NodeCount, model.WireCount, model.PlaceholderCount,
		model.CreatedAt, model.UpdatedAt, model.DeletedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to save graph: %w", err)
	}

	if _, err = tx.Exec(`DELETE FROM graph_missing_entries WHERE graph_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear missing entries: %w", err)
	}
	for i, e := range g.Missing() {
		m := toMissingEntryModel(id, i, e)
		_, err = tx.Exec(
			`INSERT INTO graph_missing_entries (graph_id, position, category, slot_index, guid, container, to_remove)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			m.GraphID, m.Position, m.Category, m.SlotIndex, m.GUID, m.Container, m.ToRemove,
		)
		if err != nil {
			return fmt.Errorf("failed to insert missing entry: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit graph: %w", err)
	}
	g.SetID(id)
	log.Debug(log.CatDB, "graph saved", "guid", model.GUID, "id", id, "missing", len(g.Missing()))
	return nil
}

// FindByGUID returns the live graph with the given GUID.
func (r *graphRepository) FindByGUID(guid string) (*domain.StoredGraph, error) {
	row := r.db.QueryRow(
		`SELECT `+graphColumns+` FROM graphs WHERE guid = ? AND deleted_at IS NULL`,
		guid,
	)
	model, err := scanGraph(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.GraphNotFoundError{GUID: guid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find graph by guid: %w", err)
	}
	missing, err := r.missingEntries(model.ID)
	if err != nil {
		return nil, err
	}
	return model.toDomain(missing), nil
}

// List returns the graphs matching filter, most recently updated first.
func (r *graphRepository) List(filter domain.ListFilter) ([]*domain.StoredGraph, error) {
	query := `SELECT ` + graphColumns + ` FROM graphs WHERE 1 = 1`
	var args []any

	if filter.NamePrefix != "" {
		query += ` AND substr(name, 1, ?) = ?`
		args = append(args, len(filter.NamePrefix), filter.NamePrefix)
	}
	if filter.OnlyUnresolved {
		query += ` AND EXISTS (SELECT 1 FROM graph_missing_entries m WHERE m.graph_id = graphs.id AND m.to_remove = 0)`
	}
	if !filter.IncludeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY updated_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}
	var models []*GraphModel
	for rows.Next() {
		model, err := scanGraph(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan graph row: %w", err)
		}
		models = append(models, model)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating graph rows: %w", err)
	}

	graphs := make([]*domain.StoredGraph, 0, len(models))
	for _, model := range models {
		missing, err := r.missingEntries(model.ID)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, model.toDomain(missing))
	}
	return graphs, nil
}

// MissingEntries returns the unresolved slot table of a live graph.
func (r *graphRepository) MissingEntries(guid string) ([]graph.MissingEntry, error) {
	var id int64
	err := r.db.QueryRow(`SELECT id FROM graphs WHERE guid = ? AND deleted_at IS NULL`, guid).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.GraphNotFoundError{GUID: guid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find graph by guid: %w", err)
	}
	return r.missingEntries(id)
}

func (r *graphRepository) missingEntries(graphID int64) ([]graph.MissingEntry, error) {
	rows, err := r.db.Query(
		`SELECT graph_id, position, category, slot_index, guid, container, to_remove
		 FROM graph_missing_entries WHERE graph_id = ? ORDER BY position`,
		graphID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query missing entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []graph.MissingEntry
	for rows.Next() {
		var m MissingEntryModel
		if err := rows.Scan(&m.GraphID, &m.Position, &m.Category, &m.SlotIndex, &m.GUID, &m.Container, &m.ToRemove); err != nil {
			return nil, fmt.Errorf("failed to scan missing entry: %w", err)
		}
		e, err := m.toDomain()
		if err != nil {
			return nil, fmt.Errorf("corrupt missing entry of graph %d: %w", graphID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating missing entries: %w", err)
	}
	return entries, nil
}

// Delete soft-deletes a graph.
func (r *graphRepository) Delete(guid string) error {
	now := time.Now().Unix()
	result, err := r.db.Exec(
		`UPDATE graphs SET deleted_at = ?, updated_at = ?
		 WHERE guid = ? AND deleted_at IS NULL`,
		now, now, guid,
	)
	if err != nil {
		return fmt.Errorf("failed to delete graph: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &domain.GraphNotFoundError{GUID: guid}
	}
	return nil
}

// Close is a no-op: the connection belongs to DB.
func (r *graphRepository) Close() error {
	return nil
}
