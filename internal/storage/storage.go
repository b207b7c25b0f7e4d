package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/graphnav/graph-navigator/internal/graph"
)

// ---------------------------------------------------------------------------
// Storage
// ---------------------------------------------------------------------------

// Storage is a thread-safe wrapper around a SQLite database that persists
// the directed graph. All reads are safe to run concurrently; SQLite allows
// a single writer, so the connection pool is capped at one.
type Storage struct {
	db *sql.DB
	mu sync.RWMutex
}

// ============================= LIFECYCLE ==================================

// New opens (or creates) the SQLite database at dbPath, applies the
// recommended PRAGMAs, runs any pending migrations and returns a ready
// *Storage.
func New(dbPath string) (*Storage, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: open db %q: %w", dbPath, err)
	}

	// Only one writer at a time for SQLite.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("storage: set pragma %q: %w", p, err)
		}
	}

	s := &Storage{db: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// ============================ MIGRATIONS ==================================

// migrate ensures the schema_migrations table exists, then applies every
// unapplied Migration from the package-level Migrations slice.
func (s *Storage) migrate() error {
	const createMigTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version     INTEGER PRIMARY KEY,
		applied_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		description TEXT
	)`
	if _, err := s.db.Exec(createMigTable); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range Migrations {
		var exists int
		err := s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.Version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration v%d: %w", m.Version, err)
		}
		if exists > 0 {
			continue
		}

		if _, err := s.db.Exec(m.SQL); err != nil {
			return fmt.Errorf("apply migration v%d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			return fmt.Errorf("record migration v%d: %w", m.Version, err)
		}
	}
	return nil
}

// ========================== NODE OPERATIONS ===============================

// CreateNode inserts a node and returns it with the store-assigned id.
func (s *Storage) CreateNode(ctx context.Context, name string) (*graph.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `INSERT INTO nodes (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("storage: create node %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("storage: node %q insert id: %w", name, err)
	}
	return &graph.Node{ID: id, Name: name}, nil
}

// CreateNodes batch-inserts nodes inside a single transaction and returns
// them with their assigned ids, in input order.
func (s *Storage) CreateNodes(ctx context.Context, names []string) ([]*graph.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: begin tx (create nodes): %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO nodes (name) VALUES (?)`)
	if err != nil {
		return nil, fmt.Errorf("storage: prepare create-node stmt: %w", err)
	}
	defer stmt.Close()

	nodes := make([]*graph.Node, 0, len(names))
	for _, name := range names {
		res, err := stmt.ExecContext(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("storage: insert node %q: %w", name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("storage: node %q insert id: %w", name, err)
		}
		nodes = append(nodes, &graph.Node{ID: id, Name: name})
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("storage: commit create nodes: %w", err)
	}
	return nodes, nil
}

// GetNode retrieves a single node by id.
// Returns graph.ErrNodeNotFound when no such node exists.
func (s *Storage) GetNode(ctx context.Context, id int64) (*graph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := &graph.Node{}
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM nodes WHERE id = ?`, id).
		Scan(&n.ID, &n.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: node %d: %w", id, graph.ErrNodeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get node %d: %w", id, err)
	}
	return n, nil
}

// GetNodeByName retrieves the lowest-id node with the given name. Names are
// not unique; ties resolve to the oldest node.
// Returns graph.ErrNodeNotFound when no such node exists.
func (s *Storage) GetNodeByName(ctx context.Context, name string) (*graph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := &graph.Node{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM nodes WHERE name = ? ORDER BY id LIMIT 1`, name).
		Scan(&n.ID, &n.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: node %q: %w", name, graph.ErrNodeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get node by name %q: %w", name, err)
	}
	return n, nil
}

// NodeExists reports whether a node with the given id exists.
func (s *Storage) NodeExists(ctx context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM nodes WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: node exists %d: %w", id, err)
	}
	return true, nil
}

// GetAllNodes returns every node ordered by id. Used for bulk-loading the
// in-memory graph index on startup.
func (s *Storage) GetAllNodes(ctx context.Context) ([]*graph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM nodes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("storage: get all nodes: %w", err)
	}
	defer rows.Close()

	var result []*graph.Node
	for rows.Next() {
		n := &graph.Node{}
		if err := rows.Scan(&n.ID, &n.Name); err != nil {
			return nil, fmt.Errorf("storage: scan node row: %w", err)
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// DeleteNode removes a node. Edges where it is source or target are
// cascade-deleted via foreign key constraints.
// Returns graph.ErrNodeNotFound when no such node exists.
func (s *Storage) DeleteNode(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage: delete node %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("storage: node %d: %w", id, graph.ErrNodeNotFound)
	}
	return nil
}

// ========================== EDGE OPERATIONS ===============================

// CreateEdge inserts a directed edge and returns it with its assigned id.
// Both endpoints must exist; a missing endpoint surfaces as
// graph.ErrNodeNotFound rather than a bare foreign-key violation.
func (s *Storage) CreateEdge(ctx context.Context, sourceID, targetID int64) (*graph.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range []int64{sourceID, targetID} {
		var one int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM nodes WHERE id = ?`, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("storage: edge endpoint %d: %w", id, graph.ErrNodeNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("storage: check edge endpoint %d: %w", id, err)
		}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO edges (source_node_id, target_node_id) VALUES (?, ?)`,
		sourceID, targetID)
	if err != nil {
		return nil, fmt.Errorf("storage: create edge %d->%d: %w", sourceID, targetID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("storage: edge %d->%d insert id: %w", sourceID, targetID, err)
	}
	return &graph.Edge{ID: id, SourceID: sourceID, TargetID: targetID}, nil
}

// CreateEdges batch-inserts edges in a single transaction. Endpoint
// existence is enforced by the foreign key constraints; any violation rolls
// back the whole batch.
func (s *Storage) CreateEdges(ctx context.Context, pairs [][2]int64) ([]*graph.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: begin tx (create edges): %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO edges (source_node_id, target_node_id) VALUES (?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("storage: prepare create-edge stmt: %w", err)
	}
	defer stmt.Close()

	edges := make([]*graph.Edge, 0, len(pairs))
	for _, p := range pairs {
		res, err := stmt.ExecContext(ctx, p[0], p[1])
		if err != nil {
			return nil, fmt.Errorf("storage: insert edge %d->%d: %w", p[0], p[1], err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("storage: edge %d->%d insert id: %w", p[0], p[1], err)
		}
		edges = append(edges, &graph.Edge{ID: id, SourceID: p[0], TargetID: p[1]})
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("storage: commit create edges: %w", err)
	}
	return edges, nil
}

// GetAllEdges returns every edge. Used for bulk-loading the in-memory
// graph index on startup.
func (s *Storage) GetAllEdges(ctx context.Context) ([]*graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_node_id, target_node_id FROM edges ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("storage: get all edges: %w", err)
	}
	defer rows.Close()

	var result []*graph.Edge
	for rows.Next() {
		e := &graph.Edge{}
		if err := rows.Scan(&e.ID, &e.SourceID, &e.TargetID); err != nil {
			return nil, fmt.Errorf("storage: scan edge row: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// OutgoingEdges returns the target ids of every edge originating at id,
// satisfying traverse.EdgeSource. Returns graph.ErrNodeNotFound when the
// node does not exist, which is distinct from a node with no edges.
func (s *Storage) OutgoingEdges(ctx context.Context, id int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM nodes WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: node %d: %w", id, graph.ErrNodeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: check node %d: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT target_node_id FROM edges WHERE source_node_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("storage: outgoing edges of %d: %w", id, err)
	}
	defer rows.Close()

	var targets []int64
	for rows.Next() {
		var t int64
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("storage: scan edge target: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// ========================== REACHABILITY ==================================

// ReachableFrom computes the set of nodes reachable from startID in a single
// recursive CTE query, pushing the whole traversal into SQLite. UNION (as
// opposed to UNION ALL) deduplicates discovered ids, so cyclic graphs
// terminate inside the database engine. The start node is excluded from the
// result even when a cycle leads back to it.
//
// Returns graph.ErrNodeNotFound when startID does not exist.
func (s *Storage) ReachableFrom(ctx context.Context, startID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM nodes WHERE id = ?`, startID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: node %d: %w", startID, graph.ErrNodeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: check node %d: %w", startID, err)
	}

	const q = `WITH RECURSIVE reachable(node_id) AS (
		SELECT target_node_id FROM edges WHERE source_node_id = ?
		UNION
		SELECT e.target_node_id
		FROM edges e
		JOIN reachable r ON e.source_node_id = r.node_id
	)
	SELECT node_id FROM reachable WHERE node_id <> ? ORDER BY node_id`

	rows, err := s.db.QueryContext(ctx, q, startID, startID)
	if err != nil {
		return nil, fmt.Errorf("storage: reachable from %d: %w", startID, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage: scan reachable id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ============================== STATS ====================================

// GraphStats summarises the persisted graph.
type GraphStats struct {
	TotalNodes int `json:"total_nodes"`
	TotalEdges int `json:"total_edges"`
}

// GetGraphStats returns aggregate counts for the graph database.
func (s *Storage) GetGraphStats(ctx context.Context) (*GraphStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &GraphStats{}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&stats.TotalNodes); err != nil {
		return nil, fmt.Errorf("storage: stats nodes: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`).Scan(&stats.TotalEdges); err != nil {
		return nil, fmt.Errorf("storage: stats edges: %w", err)
	}
	return stats, nil
}
