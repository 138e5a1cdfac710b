package db

// SchemaVersion is the current database schema version
const SchemaVersion = 2

// Migration is one step of the schema history
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations are applied in order to bring a database to SchemaVersion
var Migrations = []Migration{
	{
		Version:     1,
		Description: "watermarks and cycle history",
		SQL: `
-- Last seen due date of recurring root items
CREATE TABLE IF NOT EXISTS watermarks (
    item_id TEXT PRIMARY KEY,
    due_date TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

-- One row per engine cycle
CREATE TABLE IF NOT EXISTS cycles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at TEXT NOT NULL,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    items INTEGER NOT NULL DEFAULT 0,
    updates INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT ''
);
`,
	},
	{
		Version:     2,
		Description: "record dry runs",
		SQL:         `ALTER TABLE cycles ADD COLUMN dry_run INTEGER NOT NULL DEFAULT 0;`,
	},
}
