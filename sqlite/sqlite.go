// Package sqlite stores merger records in SQLite for the lookup service.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB represents a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open opens the database connection and creates the schema if needed.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer, and an in-memory database exists per connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// WAL is not supported for in-memory databases.
	if db.path != ":memory:" {
		if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
			conn.Close()
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db.db = conn

	if err := db.createSchema(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// BeginTx starts a transaction.
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, nil)
}

// createSchema creates the database tables if they don't exist.
//
// A unit has at most one row: province rows use an empty commune code. The
// search_* columns hold lowercased text for case-insensitive matching of
// non-ASCII names.
func (db *DB) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			province_code TEXT NOT NULL,
			province_name TEXT NOT NULL DEFAULT '',
			commune_code TEXT NOT NULL DEFAULT '',
			commune_name TEXT NOT NULL DEFAULT '',
			level TEXT NOT NULL,
			source_url TEXT NOT NULL DEFAULT '',
			before_text TEXT NOT NULL DEFAULT '',
			after_text TEXT NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT '',
			change_count INTEGER NOT NULL DEFAULT 0,
			has_info INTEGER NOT NULL DEFAULT 0,
			search_province TEXT NOT NULL DEFAULT '',
			search_commune TEXT NOT NULL DEFAULT '',
			search_before TEXT NOT NULL DEFAULT '',
			content_hash TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE (province_code, commune_code)
		);

		CREATE INDEX IF NOT EXISTS idx_records_province_name ON records(province_name);
		CREATE INDEX IF NOT EXISTS idx_records_has_info ON records(has_info);
	`

	_, err := db.db.Exec(schema)
	return err
}
