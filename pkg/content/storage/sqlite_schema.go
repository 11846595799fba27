package storage

// SchemaVersion is the current catalog schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the catalog schema.
//
// Dates are stored as Unix milliseconds. effective_date and expiration_date
// hold the real values and may be NULL; effective_idx and expires_idx are the
// indexed values and fall back to the floor and ceiling sentinels.
const Schema = `
CREATE TABLE IF NOT EXISTS items (
    id TEXT PRIMARY KEY,
    path TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL DEFAULT '',
    portal_type TEXT NOT NULL,
    review_state TEXT NOT NULL,

    -- Real dates
    effective_date INTEGER,
    expiration_date INTEGER,

    -- Indexed dates, never NULL
    effective_idx INTEGER NOT NULL,
    expires_idx INTEGER NOT NULL,

    enable_autopublishing BOOLEAN NOT NULL DEFAULT 0,
    modified INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_review_state ON items(review_state);
CREATE INDEX IF NOT EXISTS idx_items_portal_type ON items(portal_type);
CREATE INDEX IF NOT EXISTS idx_items_effective_range ON items(effective_idx, expires_idx);
CREATE INDEX IF NOT EXISTS idx_items_expires ON items(expires_idx);
CREATE INDEX IF NOT EXISTS idx_items_autopublish ON items(enable_autopublishing);
CREATE INDEX IF NOT EXISTS idx_items_path ON items(path);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

// sqliteIndexNames maps SQLite index names to catalog index names.
var sqliteIndexNames = map[string]string{
	"idx_items_review_state":    "review_state",
	"idx_items_portal_type":     "portal_type",
	"idx_items_effective_range": "effectiveRange",
	"idx_items_expires":         "expires",
	"idx_items_autopublish":     "enableAutopublishing",
	"idx_items_path":            "path",
}
