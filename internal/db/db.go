// Package db is the local state store: due-date watermarks of recurring
// items and the history of cycles.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const dbFile = "autodoist.db"

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	dir  string
}

// Open opens (creating if needed) the state database in dir and runs any
// pending migrations
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	conn, err := sql.Open("sqlite", filepath.Join(dir, dbFile))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode so `history` can read while the daemon writes
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// Slightly faster writes, still safe with WAL
	conn.Exec("PRAGMA synchronous=NORMAL")

	db, err := New(conn, dir)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// OpenMemory opens a store that lives only as long as the process
func OpenMemory() (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Every pooled connection would get its own in-memory database
	conn.SetMaxOpenConns(1)

	db, err := New(conn, "")
	if err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// New wraps an open connection and runs migrations
func New(conn *sql.DB, dir string) (*DB, error) {
	db := &DB{conn: conn, dir: dir}
	if _, err := db.RunMigrations(); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// Close closes the database
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Dir returns the state directory; empty for in-memory stores
func (db *DB) Dir() string {
	return db.dir
}

// GetSchemaVersion returns the current schema version from the database
func (db *DB) GetSchemaVersion() (int, error) {
	var version int
	err := db.conn.QueryRow("SELECT CAST(value AS INTEGER) FROM schema_info WHERE key = 'version'").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		// Table might not exist yet
		return 0, nil
	}
	return version, nil
}

func (db *DB) setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec(`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', ?)`,
		fmt.Sprintf("%d", version))
	return err
}

// RunMigrations runs any pending migrations and returns how many ran
func (db *DB) RunMigrations() (int, error) {
	if _, err := db.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_info (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return 0, fmt.Errorf("create schema_info: %w", err)
	}

	current, err := db.GetSchemaVersion()
	if err != nil {
		return 0, fmt.Errorf("get schema version: %w", err)
	}
	if current >= SchemaVersion {
		return 0, nil
	}

	run := 0
	for _, m := range Migrations {
		if m.Version <= current {
			continue
		}
		tx, err := db.conn.Begin()
		if err != nil {
			return run, err
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return run, fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if err := db.setSchemaVersion(tx, m.Version); err != nil {
			tx.Rollback()
			return run, fmt.Errorf("set version %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return run, err
		}
		run++
	}
	return run, nil
}
