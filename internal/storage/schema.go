package storage

import (
	"github.com/graphnav/graph-navigator/db"
)

// ---------------------------------------------------------------------------
// Schema version
// ---------------------------------------------------------------------------

// SchemaVersion is the current database schema version.
const SchemaVersion = 2

// GetSchema returns the full embedded SQL schema as a string.
// The returned SQL can be executed directly against a SQLite database.
func GetSchema() string {
	return db.SchemaSQL
}

// ---------------------------------------------------------------------------
// Migration support
// ---------------------------------------------------------------------------

// Migration describes a single schema migration that can be applied to the
// database. Migrations are ordered by Version and are idempotent.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations is the ordered list of all schema migrations.
// Apply them sequentially; skip any whose Version is already recorded
// in the schema_migrations table.
var Migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema — nodes and edges with cascade deletes",
		SQL:         db.SchemaSQL,
	},
	{
		Version:     2,
		Description: "Traversal indexes on edges(source_node_id), edges(target_node_id) and nodes(name)",
		SQL: `
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_node_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_node_id);
CREATE INDEX IF NOT EXISTS idx_nodes_name   ON nodes(name);
`,
	},
}
