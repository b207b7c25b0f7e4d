package graph

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// ---------------------------------------------------------------------------
// storageLoader is the minimal interface the Index needs to bulk-load from
// the persistence layer. This avoids a direct dependency on the concrete
// storage package (which already imports graph).
// ---------------------------------------------------------------------------

type storageLoader interface {
	GetAllNodes(ctx context.Context) ([]*Node, error)
	GetAllEdges(ctx context.Context) ([]*Edge, error)
}

// ---------------------------------------------------------------------------
// IndexStats
// ---------------------------------------------------------------------------

// IndexStats summarises the contents of the in-memory graph index.
type IndexStats struct {
	TotalNodes    int     `json:"total_nodes"`
	TotalEdges    int     `json:"total_edges"`
	RootNodes     []int64 `json:"root_nodes"`
	IsolatedNodes []int64 `json:"isolated_nodes"`
}

// ---------------------------------------------------------------------------
// Index
// ---------------------------------------------------------------------------

// Index is an in-memory mirror of the graph stored in SQLite. It is loaded
// once on startup and kept in sync via write-through on every mutation.
// It backs the in-process traversal strategy and the visualization endpoint,
// sparing both a round trip per expanded node.
//
// All public methods are goroutine-safe.
type Index struct {
	mu       sync.RWMutex
	nodes    map[int64]*Node
	outEdges map[int64][]*Edge // source id -> edges
	inDegree map[int64]int     // target id -> incoming edge count
	edges    int
}

// NewIndex returns an empty, initialised Index ready for use.
func NewIndex() *Index {
	return &Index{
		nodes:    make(map[int64]*Node),
		outEdges: make(map[int64][]*Edge),
		inDegree: make(map[int64]int),
	}
}

// ============================= LOADING ====================================

// LoadFromStorage bulk-loads every node and edge from the persistence layer
// into the in-memory index. It accepts any value that satisfies the
// storageLoader interface (e.g. *storage.Storage).
func (g *Index) LoadFromStorage(ctx context.Context, store storageLoader) error {
	nodes, err := store.GetAllNodes(ctx)
	if err != nil {
		return err
	}
	edges, err := store.GetAllEdges(ctx)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes = make(map[int64]*Node, len(nodes))
	g.outEdges = make(map[int64][]*Edge)
	g.inDegree = make(map[int64]int)
	g.edges = 0

	for _, n := range nodes {
		g.nodes[n.ID] = n
	}
	for _, e := range edges {
		g.indexEdgeLocked(e)
	}

	slog.Info("graph index loaded", "nodes", len(nodes), "edges", len(edges))
	return nil
}

// indexEdgeLocked inserts an edge into the adjacency maps.
// Caller MUST hold g.mu write lock.
func (g *Index) indexEdgeLocked(e *Edge) {
	g.outEdges[e.SourceID] = append(g.outEdges[e.SourceID], e)
	g.inDegree[e.TargetID]++
	g.edges++
}

// ============================ MUTATIONS ==================================

// AddNode adds (or replaces) a node in the index.
func (g *Index) AddNode(node *Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[node.ID] = node
}

// AddEdge adds an edge to the index.
func (g *Index) AddEdge(edge *Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.indexEdgeLocked(edge)
}

// RemoveNode removes a node and every edge where it is source or target,
// mirroring the store's ON DELETE CASCADE.
func (g *Index) RemoveNode(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return
	}
	delete(g.nodes, id)

	// Drop outgoing edges.
	for _, e := range g.outEdges[id] {
		g.inDegree[e.TargetID]--
		if g.inDegree[e.TargetID] <= 0 {
			delete(g.inDegree, e.TargetID)
		}
		g.edges--
	}
	delete(g.outEdges, id)

	// Drop incoming edges.
	for src, edges := range g.outEdges {
		filtered := edges[:0]
		for _, e := range edges {
			if e.TargetID == id {
				g.edges--
				continue
			}
			filtered = append(filtered, e)
		}
		if len(filtered) == 0 {
			delete(g.outEdges, src)
		} else {
			g.outEdges[src] = filtered
		}
	}
	delete(g.inDegree, id)
}

// ============================= QUERIES ===================================

// GetNode returns the node with the given id.
func (g *Index) GetNode(id int64) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// NodeExists reports whether the node is present in the index. The error
// return exists to satisfy traverse.EdgeSource; it is always nil here.
func (g *Index) NodeExists(ctx context.Context, id int64) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok, nil
}

// OutgoingEdges returns the target ids of every edge originating at id.
// Returns ErrNodeNotFound when the node is not in the index.
func (g *Index) OutgoingEdges(ctx context.Context, id int64) ([]int64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[id]; !ok {
		return nil, ErrNodeNotFound
	}
	edges := g.outEdges[id]
	targets := make([]int64, 0, len(edges))
	for _, e := range edges {
		targets = append(targets, e.TargetID)
	}
	return targets, nil
}

// OutTargets returns the target ids of every edge originating at id, in
// insertion order. Unknown ids yield nil. Unlike OutgoingEdges this never
// fails; it exists for callers like the visualizer that walk the index
// without a store contract.
func (g *Index) OutTargets(id int64) []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := g.outEdges[id]
	if len(edges) == 0 {
		return nil
	}
	targets := make([]int64, 0, len(edges))
	for _, e := range edges {
		targets = append(targets, e.TargetID)
	}
	return targets
}

// NodeCount returns the number of nodes in the index.
func (g *Index) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the index.
func (g *Index) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges
}

// AllNodes returns every node ordered by id.
func (g *Index) AllNodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Roots returns the ids of nodes with outgoing edges but no incoming ones,
// sorted ascending. These are the tree roots of the visualization.
func (g *Index) Roots() []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var roots []int64
	for id := range g.nodes {
		if g.inDegree[id] == 0 && len(g.outEdges[id]) > 0 {
			roots = append(roots, id)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	return roots
}

// Isolated returns the ids of nodes with no incoming or outgoing edges,
// sorted ascending.
func (g *Index) Isolated() []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var isolated []int64
	for id := range g.nodes {
		if g.inDegree[id] == 0 && len(g.outEdges[id]) == 0 {
			isolated = append(isolated, id)
		}
	}
	sort.Slice(isolated, func(i, j int) bool { return isolated[i] < isolated[j] })
	return isolated
}

// Stats returns a summary of the index contents.
func (g *Index) Stats() IndexStats {
	return IndexStats{
		TotalNodes:    g.NodeCount(),
		TotalEdges:    g.EdgeCount(),
		RootNodes:     g.Roots(),
		IsolatedNodes: g.Isolated(),
	}
}
