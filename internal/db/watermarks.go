package db

import (
	"fmt"
	"time"
)

// Watermarks returns every stored watermark keyed by item ID
func (db *DB) Watermarks() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT item_id, due_date FROM watermarks`)
	if err != nil {
		return nil, fmt.Errorf("query watermarks: %w", err)
	}
	defer rows.Close()

	marks := make(map[string]string)
	for rows.Next() {
		var id, due string
		if err := rows.Scan(&id, &due); err != nil {
			return nil, err
		}
		marks[id] = due
	}
	return marks, rows.Err()
}

// SetWatermarks stores watermarks in one transaction. An empty due date
// deletes the entry.
func (db *DB) SetWatermarks(marks map[string]string) error {
	if len(marks) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for id, due := range marks {
		if due == "" {
			if _, err := tx.Exec(`DELETE FROM watermarks WHERE item_id = ?`, id); err != nil {
				return fmt.Errorf("delete watermark %s: %w", id, err)
			}
			continue
		}
		_, err := tx.Exec(`
			INSERT INTO watermarks (item_id, due_date, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(item_id) DO UPDATE SET due_date = excluded.due_date, updated_at = excluded.updated_at
		`, id, due, now)
		if err != nil {
			return fmt.Errorf("set watermark %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// PruneWatermarks deletes watermarks of items not in keep and returns how
// many were removed
func (db *DB) PruneWatermarks(keep map[string]bool) (int, error) {
	marks, err := db.Watermarks()
	if err != nil {
		return 0, err
	}

	var stale []string
	for id := range marks {
		if !keep[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, id := range stale {
		if _, err := tx.Exec(`DELETE FROM watermarks WHERE item_id = ?`, id); err != nil {
			return 0, fmt.Errorf("prune watermark %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(stale), nil
}
