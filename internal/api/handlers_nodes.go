package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/graphnav/graph-navigator/internal/graph"
	"github.com/graphnav/graph-navigator/internal/metrics"
)

// ---------------------------------------------------------------------------
// GET /api/nodes
// ---------------------------------------------------------------------------

func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.store.GetAllNodes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "LIST_ERROR",
			"failed to list nodes: "+err.Error())
		return
	}
	if nodes == nil {
		nodes = []*graph.Node{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"nodes": nodes,
			"total": len(nodes),
		},
	})
}

// ---------------------------------------------------------------------------
// POST /api/nodes
// ---------------------------------------------------------------------------

type createNodeRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var req createNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY",
			"request body must be JSON with a name field")
		return
	}
	if req.Name == "" || len(req.Name) > 255 {
		writeError(w, http.StatusBadRequest, "INVALID_NAME",
			"name must be between 1 and 255 characters")
		return
	}

	node, err := s.store.CreateNode(r.Context(), req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "CREATE_ERROR",
			"failed to create node: "+err.Error())
		return
	}

	// Write-through to the in-memory index.
	s.index.AddNode(node)
	metrics.GraphNodes.Set(float64(s.index.NodeCount()))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": node,
	})
}

// ---------------------------------------------------------------------------
// GET /api/nodes/{id}
// ---------------------------------------------------------------------------

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_NODE_ID",
			"node id must be a non-negative integer")
		return
	}

	node, err := s.store.GetNode(r.Context(), id)
	if errors.Is(err, graph.ErrNodeNotFound) {
		writeError(w, http.StatusNotFound, "NODE_NOT_FOUND", "node not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "GET_ERROR",
			"failed to get node: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": node,
	})
}

// ---------------------------------------------------------------------------
// DELETE /api/nodes/{id}
// ---------------------------------------------------------------------------

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_NODE_ID",
			"node id must be a non-negative integer")
		return
	}

	err := s.store.DeleteNode(r.Context(), id)
	if errors.Is(err, graph.ErrNodeNotFound) {
		writeError(w, http.StatusNotFound, "NODE_NOT_FOUND", "node not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DELETE_ERROR",
			"failed to delete node: "+err.Error())
		return
	}

	// Mirror the store's cascade in the index.
	s.index.RemoveNode(id)
	metrics.GraphNodes.Set(float64(s.index.NodeCount()))
	metrics.GraphEdges.Set(float64(s.index.EdgeCount()))

	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// GET /api/nodes/by-name/{name}
// ---------------------------------------------------------------------------

func (s *Server) handleGetNodeByName(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "INVALID_NAME", "name is required")
		return
	}

	node, err := s.store.GetNodeByName(r.Context(), name)
	if errors.Is(err, graph.ErrNodeNotFound) {
		writeError(w, http.StatusNotFound, "NODE_NOT_FOUND", "node not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "GET_ERROR",
			"failed to get node: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": node,
	})
}

// ---------------------------------------------------------------------------
// POST /api/edges
// ---------------------------------------------------------------------------

type createEdgeRequest struct {
	SourceNodeID *int64 `json:"source_node_id"`
	TargetNodeID *int64 `json:"target_node_id"`
}

func (s *Server) handleCreateEdge(w http.ResponseWriter, r *http.Request) {
	var req createEdgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY",
			"request body must be JSON with source_node_id and target_node_id")
		return
	}
	if req.SourceNodeID == nil || req.TargetNodeID == nil ||
		*req.SourceNodeID < 0 || *req.TargetNodeID < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_EDGE",
			"source_node_id and target_node_id must be non-negative integers")
		return
	}

	edge, err := s.store.CreateEdge(r.Context(), *req.SourceNodeID, *req.TargetNodeID)
	if errors.Is(err, graph.ErrNodeNotFound) {
		writeError(w, http.StatusNotFound, "NODE_NOT_FOUND",
			"edge endpoint node not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "CREATE_ERROR",
			"failed to create edge: "+err.Error())
		return
	}

	s.index.AddEdge(edge)
	metrics.GraphEdges.Set(float64(s.index.EdgeCount()))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": edge,
	})
}
