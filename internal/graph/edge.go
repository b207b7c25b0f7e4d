package graph

// Edge is a directed connection between two nodes, source -> target.
// Both endpoints must reference live nodes; the store enforces this with
// foreign keys and cascade-deletes edges when either endpoint is removed.
type Edge struct {
	ID       int64 `json:"id"`
	SourceID int64 `json:"source_node_id"`
	TargetID int64 `json:"target_node_id"`
}
