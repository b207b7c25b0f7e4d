package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphnav/graph-navigator/internal/graph"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "graphnav-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seedChain creates n nodes and links them 1->2->...->n, returning the ids.
func seedChain(t *testing.T, s *Storage, n int) []int64 {
	t.Helper()
	ctx := context.Background()

	names := make([]string, n)
	for i := range names {
		names[i] = "Node"
	}
	nodes, err := s.CreateNodes(ctx, names)
	require.NoError(t, err)

	ids := make([]int64, n)
	for i, node := range nodes {
		ids[i] = node.ID
	}
	for i := 0; i < n-1; i++ {
		_, err := s.CreateEdge(ctx, ids[i], ids[i+1])
		require.NoError(t, err)
	}
	return ids
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "graphnav.db")

	s1, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	// Reopening must not re-apply migrations.
	s2, err := New(dbPath)
	require.NoError(t, err)
	defer s2.Close()

	var applied int
	err = s2.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied)
	require.NoError(t, err)
	assert.Equal(t, len(Migrations), applied)
}

func TestNodeCRUD(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	created, err := s.CreateNode(ctx, "alpha")
	require.NoError(t, err)
	assert.Positive(t, created.ID)

	got, err := s.GetNode(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	byName, err := s.GetNodeByName(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	exists, err := s.NodeExists(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = s.GetNode(ctx, created.ID+100)
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)

	_, err = s.GetNodeByName(ctx, "does-not-exist")
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)

	require.NoError(t, s.DeleteNode(ctx, created.ID))
	assert.ErrorIs(t, s.DeleteNode(ctx, created.ID), graph.ErrNodeNotFound)
}

func TestGetNodeByNamePrefersOldest(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first, err := s.CreateNode(ctx, "dup")
	require.NoError(t, err)
	_, err = s.CreateNode(ctx, "dup")
	require.NoError(t, err)

	got, err := s.GetNodeByName(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestEdgeEndpointsMustExist(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	n, err := s.CreateNode(ctx, "lonely")
	require.NoError(t, err)

	_, err = s.CreateEdge(ctx, n.ID, n.ID+999)
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)

	_, err = s.CreateEdge(ctx, n.ID+999, n.ID)
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
}

func TestDeleteNodeCascadesEdges(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	ids := seedChain(t, s, 3)

	// Deleting the middle node must remove both edges touching it.
	require.NoError(t, s.DeleteNode(ctx, ids[1]))

	edges, err := s.GetAllEdges(ctx)
	require.NoError(t, err)
	assert.Empty(t, edges)

	// The remaining nodes are untouched.
	nodes, err := s.GetAllNodes(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
}

func TestOutgoingEdges(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	ids := seedChain(t, s, 2)

	targets, err := s.OutgoingEdges(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[1]}, targets)

	// Leaf node: empty, not an error.
	targets, err = s.OutgoingEdges(ctx, ids[1])
	require.NoError(t, err)
	assert.Empty(t, targets)

	// Missing node: NotFound, distinguishable from the leaf case.
	_, err = s.OutgoingEdges(ctx, ids[1]+999)
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
}

func TestReachableFrom(t *testing.T) {
	ctx := context.Background()

	t.Run("linear chain", func(t *testing.T) {
		s := newTestStorage(t)
		ids := seedChain(t, s, 4)

		got, err := s.ReachableFrom(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, ids[1:], got)
	})

	t.Run("no outgoing edges yields empty set", func(t *testing.T) {
		s := newTestStorage(t)
		ids := seedChain(t, s, 2)

		got, err := s.ReachableFrom(ctx, ids[1])
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("cycle terminates and excludes start", func(t *testing.T) {
		s := newTestStorage(t)
		ids := seedChain(t, s, 2)
		_, err := s.CreateEdge(ctx, ids[1], ids[0])
		require.NoError(t, err)

		got, err := s.ReachableFrom(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, []int64{ids[1]}, got)
	})

	t.Run("diamond counts merge node once", func(t *testing.T) {
		s := newTestStorage(t)
		nodes, err := s.CreateNodes(ctx, []string{"a", "b", "c", "d"})
		require.NoError(t, err)
		a, b, c, d := nodes[0].ID, nodes[1].ID, nodes[2].ID, nodes[3].ID
		_, err = s.CreateEdges(ctx, [][2]int64{{a, b}, {a, c}, {b, d}, {c, d}})
		require.NoError(t, err)

		got, err := s.ReachableFrom(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, []int64{b, c, d}, got)
	})

	t.Run("disconnected branch excluded", func(t *testing.T) {
		s := newTestStorage(t)
		ids := seedChain(t, s, 3)
		island, err := s.CreateNode(ctx, "island")
		require.NoError(t, err)

		got, err := s.ReachableFrom(ctx, ids[0])
		require.NoError(t, err)
		assert.NotContains(t, got, island.ID)
	})

	t.Run("duplicate edges are inert", func(t *testing.T) {
		s := newTestStorage(t)
		ids := seedChain(t, s, 2)
		for i := 0; i < 3; i++ {
			_, err := s.CreateEdge(ctx, ids[0], ids[1])
			require.NoError(t, err)
		}

		got, err := s.ReachableFrom(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, []int64{ids[1]}, got)
	})

	t.Run("unknown start fails with NotFound", func(t *testing.T) {
		s := newTestStorage(t)
		_, err := s.ReachableFrom(ctx, 12345)
		assert.ErrorIs(t, err, graph.ErrNodeNotFound)
	})
}

func TestGetGraphStats(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	seedChain(t, s, 5)

	stats, err := s.GetGraphStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalNodes)
	assert.Equal(t, 4, stats.TotalEdges)
}
