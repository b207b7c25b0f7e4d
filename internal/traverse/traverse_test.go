package traverse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphnav/graph-navigator/internal/graph"
)

// stubSource is an in-memory EdgeSource that records how often each node's
// outgoing edges are fetched.
type stubSource struct {
	adjacency   map[int64][]int64
	edgeCalls   map[int64]int
	existsCalls int
	failEdges   error
}

func newStubSource(adjacency map[int64][]int64) *stubSource {
	return &stubSource{
		adjacency: adjacency,
		edgeCalls: map[int64]int{},
	}
}

func (s *stubSource) NodeExists(ctx context.Context, id int64) (bool, error) {
	s.existsCalls++
	_, ok := s.adjacency[id]
	return ok, nil
}

func (s *stubSource) OutgoingEdges(ctx context.Context, id int64) ([]int64, error) {
	s.edgeCalls[id]++
	if s.failEdges != nil {
		return nil, s.failEdges
	}
	targets, ok := s.adjacency[id]
	if !ok {
		return nil, graph.ErrNodeNotFound
	}
	return targets, nil
}

func (s *stubSource) totalEdgeCalls() int {
	total := 0
	for _, n := range s.edgeCalls {
		total += n
	}
	return total
}

func TestReachable(t *testing.T) {
	ctx := context.Background()

	t.Run("node with no outgoing edges yields empty set", func(t *testing.T) {
		src := newStubSource(map[int64][]int64{1: {}})
		got, err := Reachable(ctx, src, 1)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("linear chain", func(t *testing.T) {
		src := newStubSource(map[int64][]int64{
			1: {2},
			2: {3},
			3: {4},
			4: {},
		})
		got, err := Reachable(ctx, src, 1)
		require.NoError(t, err)
		assert.Equal(t, []int64{2, 3, 4}, got)
	})

	t.Run("two-node cycle terminates and excludes start", func(t *testing.T) {
		src := newStubSource(map[int64][]int64{
			1: {2},
			2: {1},
		})
		got, err := Reachable(ctx, src, 1)
		require.NoError(t, err)
		assert.Equal(t, []int64{2}, got)
	})

	t.Run("diamond counts merge node once", func(t *testing.T) {
		src := newStubSource(map[int64][]int64{
			1: {2, 3},
			2: {4},
			3: {4},
			4: {},
		})
		got, err := Reachable(ctx, src, 1)
		require.NoError(t, err)
		assert.Equal(t, []int64{2, 3, 4}, got)
	})

	t.Run("disconnected node never appears", func(t *testing.T) {
		src := newStubSource(map[int64][]int64{
			1: {2},
			2: {},
			5: {1}, // points into the component but nothing points at it
		})
		got, err := Reachable(ctx, src, 1)
		require.NoError(t, err)
		assert.NotContains(t, got, int64(5))
		assert.Equal(t, []int64{2}, got)
	})

	t.Run("unknown start fails with ErrNodeNotFound before any edge lookup", func(t *testing.T) {
		src := newStubSource(map[int64][]int64{1: {2}})
		_, err := Reachable(ctx, src, 99)
		require.Error(t, err)
		assert.ErrorIs(t, err, graph.ErrNodeNotFound)
		assert.Equal(t, 1, src.existsCalls)
		assert.Zero(t, src.totalEdgeCalls())
	})

	t.Run("repeated calls are idempotent", func(t *testing.T) {
		src := newStubSource(map[int64][]int64{
			1: {2, 3},
			2: {3, 1},
			3: {},
		})
		first, err := Reachable(ctx, src, 1)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := Reachable(ctx, src, 1)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})

	t.Run("each expanded node fetched exactly once", func(t *testing.T) {
		src := newStubSource(map[int64][]int64{
			1: {2, 3},
			2: {4, 3},
			3: {4, 1},
			4: {1},
		})
		got, err := Reachable(ctx, src, 1)
		require.NoError(t, err)
		assert.Equal(t, []int64{2, 3, 4}, got)

		// Start plus every reachable node, one lookup each.
		assert.Equal(t, len(got)+1, src.totalEdgeCalls())
		for id, calls := range src.edgeCalls {
			assert.Equalf(t, 1, calls, "node %d expanded more than once", id)
		}
	})

	t.Run("duplicate edges are inert", func(t *testing.T) {
		src := newStubSource(map[int64][]int64{
			1: {2, 2, 2},
			2: {},
		})
		got, err := Reachable(ctx, src, 1)
		require.NoError(t, err)
		assert.Equal(t, []int64{2}, got)
		assert.Equal(t, 1, src.edgeCalls[2])
	})

	t.Run("store failure propagates without partial result", func(t *testing.T) {
		boom := errors.New("database is locked")
		src := newStubSource(map[int64][]int64{1: {2}, 2: {}})
		src.failEdges = boom

		got, err := Reachable(ctx, src, 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, got)
	})
}
