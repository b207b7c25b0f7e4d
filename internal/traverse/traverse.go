// Package traverse implements graph reachability: the set of all nodes
// reachable from a starting node by following directed edges.
//
// The engine is deliberately storage-agnostic. It speaks to any EdgeSource —
// the SQLite store, the in-memory index, or a test stub — and performs a
// breadth-first traversal with a visited set, so cycles terminate and each
// node's outgoing edges are fetched at most once.
package traverse

import (
	"context"
	"fmt"
	"sort"

	"github.com/graphnav/graph-navigator/internal/graph"
)

// EdgeSource is the read-only capability the engine needs from a graph
// store. Implementations must be safe for concurrent use; the engine itself
// holds no state between calls, so any number of traversals may run in
// parallel against the same source.
type EdgeSource interface {
	// NodeExists reports whether the node id is present in the graph.
	NodeExists(ctx context.Context, id int64) (bool, error)

	// OutgoingEdges returns the target node ids of every edge originating
	// at id. It returns graph.ErrNodeNotFound when id does not exist.
	// Order is not significant and duplicates are permitted.
	OutgoingEdges(ctx context.Context, id int64) ([]int64, error)
}

// Reachable returns the ids of every node reachable from startID by a
// directed path of length >= 1, sorted ascending. The start node itself is
// never part of the result, even when the graph cycles back to it.
//
// Returns graph.ErrNodeNotFound when startID does not exist; no edge lookups
// are performed in that case. Any store failure aborts the traversal and
// propagates to the caller — there are no retries and no partial results.
func Reachable(ctx context.Context, src EdgeSource, startID int64) ([]int64, error) {
	ok, err := src.NodeExists(ctx, startID)
	if err != nil {
		return nil, fmt.Errorf("traverse: check node %d: %w", startID, err)
	}
	if !ok {
		return nil, fmt.Errorf("traverse: start node %d: %w", startID, graph.ErrNodeNotFound)
	}

	visited := map[int64]struct{}{}
	queue := []int64{startID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}

		targets, err := src.OutgoingEdges(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("traverse: edges of node %d: %w", id, err)
		}
		for _, t := range targets {
			if _, seen := visited[t]; !seen {
				queue = append(queue, t)
			}
		}
	}

	result := make([]int64, 0, len(visited)-1)
	for id := range visited {
		if id != startID {
			result = append(result, id)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}
