package viz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/graphnav/graph-navigator/internal/graph"
)

func buildIndex(nodes []int64, edges [][2]int64) *graph.Index {
	idx := graph.NewIndex()
	for _, id := range nodes {
		idx.AddNode(&graph.Node{ID: id, Name: "node"})
	}
	for i, e := range edges {
		idx.AddEdge(&graph.Edge{ID: int64(i + 1), SourceID: e[0], TargetID: e[1]})
	}
	return idx
}

func TestRenderTree(t *testing.T) {
	idx := buildIndex(
		[]int64{1, 2, 3, 4, 6},
		[][2]int64{{1, 2}, {1, 3}, {2, 4}},
	)

	out := Render(idx)

	assert.Contains(t, out, "├─ 2")
	assert.Contains(t, out, "│  └─ 4")
	assert.Contains(t, out, "└─ 3")
	assert.Contains(t, out, "Isolated nodes: 6")
	assert.Contains(t, out, "Total nodes: 5 | Total edges: 3")
}

func TestRenderMarksCycles(t *testing.T) {
	// 1 -> 2 -> 3 -> 2 cycles back; the renderer must terminate.
	idx := buildIndex(
		[]int64{1, 2, 3},
		[][2]int64{{1, 2}, {2, 3}, {3, 2}},
	)

	out := Render(idx)

	assert.Contains(t, out, "[CYCLE]")
	// Node 2 is drawn once as a child and once as the cycle marker.
	assert.Equal(t, 2, strings.Count(out, "2"))
}

func TestRenderEmptyGraph(t *testing.T) {
	idx := graph.NewIndex()
	out := Render(idx)
	assert.Contains(t, out, "Total nodes: 0 | Total edges: 0")
}
