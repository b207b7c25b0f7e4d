package graph

import "errors"

// ErrNodeNotFound is returned by lookups and traversals whose subject node
// does not exist in the graph.
var ErrNodeNotFound = errors.New("graph: node not found")

// ---------------------------------------------------------------------------
// Node
// ---------------------------------------------------------------------------

// Node is a vertex in the directed graph. The identifier is assigned by the
// store on creation and is the only handle used during traversal; the name
// is a free-form display label with no uniqueness guarantee.
type Node struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
