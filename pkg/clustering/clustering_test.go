package clustering

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-knn-clustering/pkg/graph"
)

// bridgedTriangles is {0,1,2} and {3,4,5} joined by the edge 2-3
func bridgedTriangles(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.FromEdges(6, []graph.Edge{
		{U: 0, V: 1}, {U: 1, V: 2}, {U: 0, V: 2},
		{U: 3, V: 4}, {U: 4, V: 5}, {U: 3, V: 5},
		{U: 2, V: 3},
	})
	require.NoError(t, err)
	return g
}

func separatedTriangles(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.FromEdges(6, []graph.Edge{
		{U: 0, V: 1}, {U: 1, V: 2}, {U: 0, V: 2},
		{U: 3, V: 4}, {U: 4, V: 5}, {U: 3, V: 5},
	})
	require.NoError(t, err)
	return g
}

func quietConfig(k int) *Config {
	config := NewConfig()
	config.Set("algorithm.clusters", k)
	config.Set("logging.level", "disabled")
	return config
}

func TestRunScenarioBridgedTriangles(t *testing.T) {
	result, err := Run(context.Background(), bridgedTriangles(t), quietConfig(2))
	require.NoError(t, err)

	a := result.Assignment
	require.Len(t, a, 6)
	assert.Equal(t, a[0], a[1])
	assert.Equal(t, a[0], a[2])
	assert.Equal(t, a[3], a[4])
	assert.Equal(t, a[3], a[5])
	assert.NotEqual(t, a[0], a[3])

	assert.Equal(t, []int{3, 3}, result.Statistics.ClusterSizes)
	assert.Equal(t, 4, result.Statistics.SeededVertices)
	assert.Equal(t, 2, result.Statistics.ResidualVertices)
	assert.Equal(t, 1, result.Statistics.ResidualRounds)
	assert.Equal(t, [][]int{{0, 1, 2}, {2, 3}}, result.SeedSlots)
}

func TestClusterDisconnectedGraph(t *testing.T) {
	_, err := Cluster(context.Background(), separatedTriangles(t), 2)
	require.Error(t, err)

	var structural *StructuralError
	require.True(t, errors.As(err, &structural))
	assert.Equal(t, 2, structural.Components)
	assert.Equal(t, 9, structural.UnreachablePairs)
	assert.ErrorIs(t, err, ErrDisconnected)
}

func TestRunDisconnectedProceedsToConvergenceError(t *testing.T) {
	config := quietConfig(2)
	config.Set("algorithm.allow_disconnected", true)

	_, err := Run(context.Background(), separatedTriangles(t), config)
	require.Error(t, err)

	var convergence *ConvergenceError
	require.True(t, errors.As(err, &convergence))
	assert.Equal(t, []int{3, 4, 5}, convergence.Pending)
	assert.ErrorIs(t, err, ErrUnresolvedResidual)
}

func TestRunRejectsBadInput(t *testing.T) {
	_, err := Run(context.Background(), bridgedTriangles(t), quietConfig(0))
	assert.Error(t, err)

	_, err = Run(context.Background(), graph.New(0), quietConfig(2))
	assert.Error(t, err)
}

func TestRunFourCycleTieBreak(t *testing.T) {
	// every pair rejects, so 0, 1 and 2 seed singleton slots and 3 never offers
	g, err := graph.FromEdges(4, []graph.Edge{{U: 0, V: 1}, {U: 1, V: 2}, {U: 2, V: 3}, {U: 3, V: 0}})
	require.NoError(t, err)

	result, err := Run(context.Background(), g, quietConfig(4))
	require.NoError(t, err)

	assert.Equal(t, [][]int{{0}, {1}, {2}, nil}, result.SeedSlots)
	assert.Equal(t, Assignment{0: 0, 1: 1, 2: 2, 3: 0}, result.Assignment)
	assert.Equal(t, []int{2, 1, 1, 0}, result.Statistics.ClusterSizes)
}

func TestResolveResidualsSkipsFullySeededGraph(t *testing.T) {
	full := &SeedResult{
		Assignment: Assignment{0: 0, 1: 0, 2: 0, 3: 1, 4: 1, 5: 1},
		Pending:    []int{},
	}

	// a cancelled context shows the propagator is never entered
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rounds, err := resolveResiduals(ctx, bridgedNeighborhoods, full)
	require.NoError(t, err)
	assert.Equal(t, 0, rounds)
	assert.Equal(t, Assignment{0: 0, 1: 0, 2: 0, 3: 1, 4: 1, 5: 1}, full.Assignment)

	partial := &SeedResult{
		Assignment: Assignment{0: 0, 1: 0, 2: 0, 3: 1},
		Pending:    []int{4, 5},
	}
	rounds, err = resolveResiduals(context.Background(), bridgedNeighborhoods, partial)
	require.NoError(t, err)
	assert.Equal(t, 1, rounds)
	assert.Equal(t, Assignment{0: 0, 1: 0, 2: 0, 3: 1, 4: 1, 5: 1}, partial.Assignment)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, bridgedTriangles(t), quietConfig(2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTotalCoverageOnRandomPartitionGraphs(t *testing.T) {
	for _, tc := range []struct{ n, k int }{{30, 2}, {60, 3}, {80, 4}} {
		g := plantedGraph(t, tc.n, tc.k)

		assignment, err := Cluster(context.Background(), g, tc.k)
		require.NoError(t, err)
		require.Len(t, assignment, tc.n)
		for v := 0; v < tc.n; v++ {
			c, ok := assignment[v]
			require.True(t, ok, "vertex %d unassigned", v)
			assert.GreaterOrEqual(t, c, 0)
			assert.Less(t, c, tc.k)
		}
	}
}

// plantedGraph builds k cliques of n/k vertices chained by single bridges
func plantedGraph(t *testing.T, n, k int) *graph.Graph {
	t.Helper()
	g := graph.New(n)
	size := n / k
	for b := 0; b < k; b++ {
		lo, hi := b*size, (b+1)*size
		if b == k-1 {
			hi = n
		}
		for u := lo; u < hi; u++ {
			for v := u + 1; v < hi; v++ {
				require.NoError(t, g.AddEdge(u, v))
			}
		}
		if b > 0 {
			require.NoError(t, g.AddEdge(lo-1, lo))
		}
	}
	return g
}

func TestComputeDistances(t *testing.T) {
	g := bridgedTriangles(t)

	dm, err := ComputeDistances(context.Background(), g, 3)
	require.NoError(t, err)
	require.Equal(t, 6, dm.Size())

	assert.Equal(t, 0.0, dm.At(4, 4))
	assert.Equal(t, 1.0, dm.At(2, 3))
	assert.Equal(t, 2.0, dm.At(1, 3))
	assert.Equal(t, 3.0, dm.At(0, 5))

	for u := 0; u < dm.Size(); u++ {
		assert.Equal(t, 0.0, dm.At(u, u))
		for v := 0; v < dm.Size(); v++ {
			assert.Equal(t, dm.At(u, v), dm.At(v, u))
		}
	}
}

func TestComputeDistancesDisconnected(t *testing.T) {
	dm, err := ComputeDistances(context.Background(), separatedTriangles(t), 1)
	require.Error(t, err)
	require.NotNil(t, dm, "table must still be usable")

	assert.True(t, math.IsInf(dm.At(0, 5), 1))
	assert.False(t, dm.Reachable(2, 3))
	assert.True(t, dm.Reachable(0, 2))
}

func TestClosedNeighborhoods(t *testing.T) {
	dm, err := ComputeDistances(context.Background(), bridgedTriangles(t), 2)
	require.NoError(t, err)

	nb := ClosedNeighborhoods(dm)
	assert.Equal(t, VertexSet{0, 1, 2, 3}, nb[2])
	assert.Equal(t, VertexSet{3, 4, 5}, nb[4])

	for v := range nb {
		assert.True(t, nb[v].Contains(v), "closed neighborhood must contain %d", v)
		for _, u := range nb[v] {
			assert.True(t, nb[u].Contains(v), "adjacency must be symmetric for %d-%d", u, v)
		}
	}
}

func TestAssignmentHelpers(t *testing.T) {
	a := Assignment{0: 1, 1: 0, 2: 1, 3: 1}

	assert.Equal(t, [][]int{{1}, {0, 2, 3}, {}}, a.Clusters(3))
	assert.Equal(t, []int{1, 3, 0}, a.Sizes(3))

	clone := a.Clone()
	clone[0] = 0
	assert.Equal(t, 1, a[0])
}

func TestAgreement(t *testing.T) {
	a := Assignment{0: 0, 1: 0, 2: 1, 3: 1}
	relabelled := Assignment{0: 1, 1: 1, 2: 0, 3: 0}
	assert.Equal(t, 1.0, Agreement(a, relabelled))

	split := Assignment{0: 0, 1: 1, 2: 1, 3: 1}
	// pairs: 01 differ, 02 agree, 03 agree, 12 differ, 13 differ, 23 agree
	assert.InDelta(t, 0.5, Agreement(a, split), 1e-9)

	assert.Equal(t, 1.0, Agreement(a, Assignment{9: 0}))
}

func TestConfigDefaults(t *testing.T) {
	config := NewConfig()
	assert.Equal(t, 3, config.NumClusters())
	assert.False(t, config.AllowDisconnected())
	assert.Positive(t, config.NumWorkers())
	assert.Equal(t, ToleranceAdmission{Divisor: 3}, config.Admission())

	config.Set("algorithm.admission_divisor", 5)
	assert.Equal(t, ToleranceAdmission{Divisor: 5}, config.Admission())
}
