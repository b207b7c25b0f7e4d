package api

import (
	"net/http"

	"github.com/graphnav/graph-navigator/internal/viz"
)

// ---------------------------------------------------------------------------
// GET /api/graph/viz
// ---------------------------------------------------------------------------

func (s *Server) handleGraphViz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(viz.Render(s.index)))
}

// ---------------------------------------------------------------------------
// GET /api/graph/stats
// ---------------------------------------------------------------------------

func (s *Server) handleGraphStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetGraphStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STATS_ERROR",
			"failed to get graph stats: "+err.Error())
		return
	}

	idxStats := s.index.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"total_nodes":    stats.TotalNodes,
			"total_edges":    stats.TotalEdges,
			"root_nodes":     idxStats.RootNodes,
			"isolated_nodes": idxStats.IsolatedNodes,
		},
	})
}
