// Package sqlite implements the repository interfaces on SQLite.
//
// modernc.org/sqlite is a pure Go translation of SQLite — no CGo, so the
// binary cross-compiles cleanly. Use ":memory:" as the path for an
// in-memory database in tests.
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository interfaces.
type DB struct {
	conn *sql.DB
}

// dsnOptions applies to every connection the pool opens. WAL allows
// concurrent reads during a write. Foreign keys are off by default in SQLite
// and are per-connection state; the component_files cascade depends on them,
// so they must ride in the DSN rather than a one-off PRAGMA Exec (which would
// configure only whichever pooled connection ran it).
const dsnOptions = "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

// New opens the database at dbPath, configures it, and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database exists per connection; cap the pool at one so
	// every statement sees the same database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every startup.
//
// date_added is stored as TEXT in 2006-01-02 form so that the listing order
// (date_added DESC, name ASC) is an exact SQL sort.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS components (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL DEFAULT '',
			section      TEXT NOT NULL DEFAULT '',
			tags         TEXT NOT NULL DEFAULT '',
			date_added   TEXT NOT NULL,
			code         TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			notes        TEXT NOT NULL DEFAULT '',
			instructions TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL DEFAULT 'not_started'
		);
		CREATE INDEX IF NOT EXISTS idx_components_date_added ON components(date_added);
	`)
	if err != nil {
		return fmt.Errorf("creating components table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS component_files (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			component_id TEXT NOT NULL REFERENCES components(id) ON DELETE CASCADE,
			name         TEXT NOT NULL,
			url          TEXT NOT NULL,
			size         INTEGER NOT NULL DEFAULT 0,
			uploaded_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_component_files_component_id
			ON component_files(component_id);
	`)
	if err != nil {
		return fmt.Errorf("creating component_files table: %w", err)
	}

	return nil
}
