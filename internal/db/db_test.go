package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// newTestDB opens an in-memory database through the cgo driver
func newTestDB(t *testing.T) *DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	conn.SetMaxOpenConns(1)
	db, err := New(conn, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")

	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, dbFile)); os.IsNotExist(err) {
		t.Error("database file not created")
	}
	if db.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", db.Dir(), dir)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := newTestDB(t)

	v, err := db.GetSchemaVersion()
	if err != nil {
		t.Fatalf("GetSchemaVersion: %v", err)
	}
	if v != SchemaVersion {
		t.Errorf("schema version = %d, want %d", v, SchemaVersion)
	}

	n, err := db.RunMigrations()
	if err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	if n != 0 {
		t.Errorf("second RunMigrations ran %d migrations, want 0", n)
	}
}

func TestWatermarks(t *testing.T) {
	db := newTestDB(t)

	if err := db.SetWatermarks(map[string]string{"1": "2026-02-18", "2": "2026-02-19"}); err != nil {
		t.Fatalf("SetWatermarks: %v", err)
	}
	if err := db.SetWatermarks(map[string]string{"1": "2026-02-25"}); err != nil {
		t.Fatalf("SetWatermarks update: %v", err)
	}

	marks, err := db.Watermarks()
	if err != nil {
		t.Fatalf("Watermarks: %v", err)
	}
	if len(marks) != 2 || marks["1"] != "2026-02-25" || marks["2"] != "2026-02-19" {
		t.Errorf("unexpected watermarks: %v", marks)
	}

	// Empty value deletes
	if err := db.SetWatermarks(map[string]string{"2": ""}); err != nil {
		t.Fatalf("SetWatermarks delete: %v", err)
	}
	marks, _ = db.Watermarks()
	if _, ok := marks["2"]; ok {
		t.Error("watermark 2 should be deleted")
	}
}

func TestSetWatermarksEmpty(t *testing.T) {
	db := newTestDB(t)
	if err := db.SetWatermarks(nil); err != nil {
		t.Fatalf("SetWatermarks(nil) should not error: %v", err)
	}
}

func TestPruneWatermarks(t *testing.T) {
	db := newTestDB(t)
	db.SetWatermarks(map[string]string{"1": "2026-02-18", "2": "2026-02-18", "3": "2026-02-18"})

	n, err := db.PruneWatermarks(map[string]bool{"2": true})
	if err != nil {
		t.Fatalf("PruneWatermarks: %v", err)
	}
	if n != 2 {
		t.Errorf("pruned %d, want 2", n)
	}

	marks, _ := db.Watermarks()
	if len(marks) != 1 || marks["2"] == "" {
		t.Errorf("unexpected watermarks after prune: %v", marks)
	}
}

func TestOpenMemory(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	if err := db.SetWatermarks(map[string]string{"1": "2026-02-18"}); err != nil {
		t.Fatalf("SetWatermarks: %v", err)
	}
	marks, err := db.Watermarks()
	if err != nil {
		t.Fatalf("Watermarks: %v", err)
	}
	if marks["1"] != "2026-02-18" {
		t.Errorf("watermark not kept in memory: %v", marks)
	}
}
