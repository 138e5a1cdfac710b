package db

import (
	"database/sql"
	"time"
)

// Cycle statuses
const (
	CycleOK     = "ok"
	CycleFailed = "failed"
)

// maxCycles bounds the history table
const maxCycles = 1000

// Cycle represents a row from the cycles table
type Cycle struct {
	ID        int64
	StartedAt time.Time
	Duration  time.Duration
	Items     int // items in the snapshot
	Updates   int // item updates in the batch
	Status    string
	Error     string
	DryRun    bool
}

// parseTimestamp tries common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		time.RFC3339,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &time.ParseError{Layout: time.RFC3339, Value: s}
}

// RecordCycle inserts a cycle and prunes old rows. Returns the new row ID.
func (db *DB) RecordCycle(c Cycle) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO cycles (started_at, duration_ms, items, updates, status, error, dry_run)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.StartedAt.UTC().Format(time.RFC3339Nano), c.Duration.Milliseconds(), c.Items, c.Updates, c.Status, c.Error, c.DryRun)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := pruneCycles(tx, maxCycles); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// CycleTail returns the last N cycles in chronological order (oldest first).
func (db *DB) CycleTail(limit int) ([]Cycle, error) {
	rows, err := db.conn.Query(`
		SELECT id, started_at, duration_ms, items, updates, status, error, dry_run
		FROM cycles
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	cycles, err := scanCycles(rows)
	if err != nil {
		return nil, err
	}

	// Reverse to chronological order
	for i, j := 0, len(cycles)-1; i < j; i, j = i+1, j-1 {
		cycles[i], cycles[j] = cycles[j], cycles[i]
	}
	return cycles, nil
}

// CyclesAfter returns cycles with id > afterID, oldest first. Used for
// follow-mode polling.
func (db *DB) CyclesAfter(afterID int64, limit int) ([]Cycle, error) {
	rows, err := db.conn.Query(`
		SELECT id, started_at, duration_ms, items, updates, status, error, dry_run
		FROM cycles
		WHERE id > ?
		ORDER BY id ASC
		LIMIT ?
	`, afterID, limit)
	if err != nil {
		return nil, err
	}
	return scanCycles(rows)
}

func scanCycles(rows *sql.Rows) ([]Cycle, error) {
	defer rows.Close()

	var cycles []Cycle
	for rows.Next() {
		var c Cycle
		var ts string
		var ms int64
		if err := rows.Scan(&c.ID, &ts, &ms, &c.Items, &c.Updates, &c.Status, &c.Error, &c.DryRun); err != nil {
			return nil, err
		}
		started, err := parseTimestamp(ts)
		if err != nil {
			return nil, err
		}
		c.StartedAt = started
		c.Duration = time.Duration(ms) * time.Millisecond
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// pruneCycles deletes rows not in the newest maxRows entries.
func pruneCycles(tx *sql.Tx, maxRows int) error {
	_, err := tx.Exec(`
		DELETE FROM cycles WHERE id NOT IN (
			SELECT id FROM cycles ORDER BY id DESC LIMIT ?
		)
	`, maxRows)
	return err
}
