// Package viz renders the whole graph as an indented ASCII tree, one tree
// per root node, with cycle markers and an isolated-node summary.
package viz

import (
	"fmt"
	"strings"

	"github.com/graphnav/graph-navigator/internal/graph"
)

const rule = "============================================================"

// Render returns a plain-text visualization of the graph held in idx.
//
// Each root (a node with outgoing edges but no incoming ones) is drawn as a
// separate tree. A node reached a second time within the same tree is shown
// with a [CYCLE] marker and not expanded further, so cyclic graphs render in
// finite space.
func Render(idx *graph.Index) string {
	var b strings.Builder

	b.WriteString("Graph Visualization\n")
	b.WriteString(rule + "\n\n")

	for _, root := range idx.Roots() {
		visited := map[int64]bool{root: true}
		fmt.Fprintf(&b, "%d\n", root)
		writeChildren(&b, idx, root, "", visited)
		b.WriteString("\n")
	}

	if isolated := idx.Isolated(); len(isolated) > 0 {
		parts := make([]string, len(isolated))
		for i, id := range isolated {
			parts[i] = fmt.Sprintf("%d", id)
		}
		fmt.Fprintf(&b, "Isolated nodes: %s\n\n", strings.Join(parts, ", "))
	}

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Total nodes: %d | Total edges: %d\n", idx.NodeCount(), idx.EdgeCount())
	return b.String()
}

// writeChildren draws the subtree below id, one line per child, using
// box-drawing connectors. visited guards against infinite recursion.
func writeChildren(b *strings.Builder, idx *graph.Index, id int64, prefix string, visited map[int64]bool) {
	children := idx.OutTargets(id)
	for i, child := range children {
		connector, childPrefix := "├─ ", prefix+"│  "
		if i == len(children)-1 {
			connector, childPrefix = "└─ ", prefix+"   "
		}

		if visited[child] {
			fmt.Fprintf(b, "%s%s%d [CYCLE]\n", prefix, connector, child)
			continue
		}
		visited[child] = true

		fmt.Fprintf(b, "%s%s%d\n", prefix, connector, child)
		writeChildren(b, idx, child, childPrefix, visited)
	}
}
