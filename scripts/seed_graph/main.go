// ===========================================================================
// scripts/seed_graph — Populate a database with a multi-level demo graph.
//
// Builds a directed graph five levels deep with multiple outgoing edges per
// node (~117 nodes, ~116 edges), matching the layout used in manual testing:
//
//   Level 0:  1 root
//   Level 1:  3 children of the root
//   Level 2:  9 children (3 per level-1 node)
//   Level 3: 18 children (2 per level-2 node)
//   Level 4: 36 children (2 per level-3 node)
//   Level 5: 50 children spread round-robin over level-4 nodes
//
// Usage:
//   go run ./scripts/seed_graph --db-path ./graphnav.db [--reset]
// ===========================================================================
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/graphnav/graph-navigator/internal/graph"
	"github.com/graphnav/graph-navigator/internal/storage"
)

var (
	dbPath = flag.String("db-path", "./graphnav.db", "SQLite database path")
	reset  = flag.Bool("reset", false, "Delete the database file before seeding")
)

// fanOut describes how many children each node of a level receives.
var fanOut = []int{3, 3, 2, 2}

const lastLevelCount = 50

func main() {
	flag.Parse()
	ctx := context.Background()

	if *reset {
		os.Remove(*dbPath)
	}

	store, err := storage.New(*dbPath)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer store.Close()

	counter := 0
	nextName := func() string {
		name := fmt.Sprintf("Node %d", counter)
		counter++
		return name
	}

	createLevel := func(parents []*graph.Node, childrenPer int) []*graph.Node {
		names := make([]string, 0, len(parents)*childrenPer)
		for range parents {
			for i := 0; i < childrenPer; i++ {
				names = append(names, nextName())
			}
		}
		nodes, err := store.CreateNodes(ctx, names)
		if err != nil {
			log.Fatalf("create nodes: %v", err)
		}

		pairs := make([][2]int64, 0, len(nodes))
		for pi, parent := range parents {
			for i := 0; i < childrenPer; i++ {
				child := nodes[pi*childrenPer+i]
				pairs = append(pairs, [2]int64{parent.ID, child.ID})
			}
		}
		if _, err := store.CreateEdges(ctx, pairs); err != nil {
			log.Fatalf("create edges: %v", err)
		}
		return nodes
	}

	// Level 0: the root.
	roots, err := store.CreateNodes(ctx, []string{nextName()})
	if err != nil {
		log.Fatalf("create root: %v", err)
	}
	log.Printf("level 0: root id=%d", roots[0].ID)

	level := roots
	for depth, per := range fanOut {
		level = createLevel(level, per)
		log.Printf("level %d: %d nodes", depth+1, len(level))
	}

	// Level 5: 50 children spread round-robin over the level-4 nodes.
	names := make([]string, lastLevelCount)
	for i := range names {
		names[i] = nextName()
	}
	leaves, err := store.CreateNodes(ctx, names)
	if err != nil {
		log.Fatalf("create leaf nodes: %v", err)
	}
	pairs := make([][2]int64, len(leaves))
	for i, leaf := range leaves {
		parent := level[i%len(level)]
		pairs[i] = [2]int64{parent.ID, leaf.ID}
	}
	if _, err := store.CreateEdges(ctx, pairs); err != nil {
		log.Fatalf("create leaf edges: %v", err)
	}
	log.Printf("level 5: %d nodes", len(leaves))

	stats, err := store.GetGraphStats(ctx)
	if err != nil {
		log.Fatalf("stats: %v", err)
	}
	log.Printf("seed complete: %d nodes, %d edges in %s",
		stats.TotalNodes, stats.TotalEdges, *dbPath)
	log.Printf("try: curl localhost:8080/api/nodes/%d/connected-cte", roots[0].ID)
}
