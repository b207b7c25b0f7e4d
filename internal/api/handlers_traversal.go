package api

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/graphnav/graph-navigator/internal/graph"
	"github.com/graphnav/graph-navigator/internal/metrics"
	"github.com/graphnav/graph-navigator/internal/traverse"
)

// connectedResponse is the payload for every connected-* endpoint.
type connectedResponse struct {
	SourceNodeID     int64   `json:"source_node_id"`
	ConnectedNodeIDs []int64 `json:"connected_node_ids"`
	TotalCount       int     `json:"total_count"`
	ExecutionTimeMS  float64 `json:"execution_time_ms"`
}

// strategy selects where the traversal runs.
type strategy string

const (
	strategyCTE strategy = "cte" // single recursive query inside SQLite
	strategyDFS strategy = "dfs" // in-memory engine over the graph index
)

// runTraversal executes the chosen strategy for startID and writes the
// response, timing the computation from request arrival.
func (s *Server) runTraversal(w http.ResponseWriter, r *http.Request, startID int64, strat strategy) {
	start := time.Now()

	var (
		ids []int64
		err error
	)
	switch strat {
	case strategyCTE:
		ids, err = s.store.ReachableFrom(r.Context(), startID)
	case strategyDFS:
		ids, err = traverse.Reachable(r.Context(), s.index, startID)
	}

	if errors.Is(err, graph.ErrNodeNotFound) {
		writeError(w, http.StatusNotFound, "NODE_NOT_FOUND", "node not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "TRAVERSAL_ERROR",
			"reachability query failed: "+err.Error())
		return
	}

	metrics.TraversalsTotal.WithLabelValues(string(strat)).Inc()

	elapsed := float64(time.Since(start).Microseconds()) / 1000.0
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": connectedResponse{
			SourceNodeID:     startID,
			ConnectedNodeIDs: ids,
			TotalCount:       len(ids),
			ExecutionTimeMS:  math.Round(elapsed*100) / 100,
		},
	})
}

// resolveByName maps a node name to its id, answering 404 itself when the
// name is unknown. The bool reports whether the caller should proceed.
func (s *Server) resolveByName(w http.ResponseWriter, r *http.Request) (int64, bool) {
	name := r.PathValue("name")
	node, err := s.store.GetNodeByName(r.Context(), name)
	if errors.Is(err, graph.ErrNodeNotFound) {
		writeError(w, http.StatusNotFound, "NODE_NOT_FOUND", "node not found")
		return 0, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "GET_ERROR",
			"failed to resolve node name: "+err.Error())
		return 0, false
	}
	return node.ID, true
}

// ---------------------------------------------------------------------------
// GET /api/nodes/{id}/connected-cte
// GET /api/nodes/{id}/connected-dfs
// ---------------------------------------------------------------------------

func (s *Server) handleConnectedCTE(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_NODE_ID",
			"node id must be a non-negative integer")
		return
	}
	s.runTraversal(w, r, id, strategyCTE)
}

func (s *Server) handleConnectedDFS(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_NODE_ID",
			"node id must be a non-negative integer")
		return
	}
	s.runTraversal(w, r, id, strategyDFS)
}

// ---------------------------------------------------------------------------
// GET /api/nodes/by-name/{name}/connected-cte
// GET /api/nodes/by-name/{name}/connected-dfs
// ---------------------------------------------------------------------------

func (s *Server) handleConnectedCTEByName(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolveByName(w, r)
	if !ok {
		return
	}
	s.runTraversal(w, r, id, strategyCTE)
}

func (s *Server) handleConnectedDFSByName(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolveByName(w, r)
	if !ok {
		return
	}
	s.runTraversal(w, r, id, strategyDFS)
}
