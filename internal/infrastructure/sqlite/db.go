// Package sqlite implements the graph catalog on SQLite. The schema is managed
// with golang-migrate from embedded migration files.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver" // registers the "sqlite3" database/sql driver
	_ "github.com/ncruces/go-sqlite3/embed"  // embeds the SQLite wasm build

	"github.com/zjrosen/nodegraph/internal/catalog/domain"
	"github.com/zjrosen/nodegraph/internal/log"
)

// BusyTimeoutMillis is how long a connection waits on a locked database.
const BusyTimeoutMillis = 5000

// DB owns the connection pool of a catalog database.
type DB struct {
	conn *sql.DB
	path string
}

// NewDB opens the database at path, creating its directory (0700) when needed.
// An existing database file is copied to path+".bak" before migrations run.
// Connections use WAL journaling with foreign keys enforced.
func NewDB(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := backupFile(path, path+".bak"); err != nil {
			return nil, fmt.Errorf("failed to back up database: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(wal)&_pragma=foreign_keys(1)",
		filepath.ToSlash(path), BusyTimeoutMillis)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	log.Info(log.CatDB, "database opened", "path", path)
	return &DB{conn: conn, path: path}, nil
}

// Close closes the connection pool.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Connection returns the underlying *sql.DB.
func (d *DB) Connection() *sql.DB {
	return d.conn
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// GraphRepository returns the catalog repository backed by this database.
func (d *DB) GraphRepository() domain.GraphRepository {
	return newGraphRepository(d.conn)
}

func backupFile(src, dst string) (err error) {
	in, err := os.Open(src) //nolint:gosec // G304: path is the configured database file
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600) //nolint:gosec // G304: sibling of the database file
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Join(err, os.Remove(dst))
	}
	return nil
}
