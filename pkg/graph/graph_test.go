package graph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoTriangles(t *testing.T) *Graph {
	t.Helper()
	g, err := FromEdges(6, []Edge{
		{0, 1}, {1, 2}, {0, 2},
		{3, 4}, {4, 5}, {3, 5},
		{2, 3},
	})
	require.NoError(t, err)
	return g
}

func TestAddEdge(t *testing.T) {
	tests := []struct {
		name    string
		u, v    int
		wantErr bool
	}{
		{"valid", 0, 1, false},
		{"negative", -1, 1, true},
		{"out of range", 0, 3, true},
		{"self loop", 2, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(3)
			err := g.AddEdge(tt.u, tt.v)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSelfLoopsAndDuplicatesAreTolerated(t *testing.T) {
	g := New(3)
	require.NoError(t, g.AddEdge(0, 1))
	require.NoError(t, g.AddEdge(1, 0))
	require.NoError(t, g.AddEdge(2, 2))

	assert.Equal(t, 1, g.NumEdges())
	assert.Equal(t, 1, g.SelfLoops)
	assert.Empty(t, g.Neighbors(2))
	assert.True(t, g.HasEdge(1, 0))
}

func TestNeighborsSorted(t *testing.T) {
	g := twoTriangles(t)

	assert.Equal(t, []int{0, 1, 3}, g.Neighbors(2))
	assert.Equal(t, []int{2, 4, 5}, g.Neighbors(3))
	assert.Equal(t, 3, g.Degree(2))
	assert.Nil(t, g.Neighbors(17))
}

func TestEdgesSortedAndCanonical(t *testing.T) {
	g := twoTriangles(t)

	edges := g.Edges()
	require.Len(t, edges, 7)
	assert.Equal(t, Edge{0, 1}, edges[0])
	assert.Equal(t, Edge{4, 5}, edges[len(edges)-1])
	for _, e := range edges {
		assert.Less(t, e.U, e.V)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := twoTriangles(t)
	clone := g.Clone()
	require.NoError(t, clone.AddEdge(0, 5))

	assert.True(t, clone.HasEdge(0, 5))
	assert.False(t, g.HasEdge(0, 5))
}

func TestWithVertex(t *testing.T) {
	g := twoTriangles(t)

	extended, id, err := g.WithVertex([]int{0, 1})
	require.NoError(t, err)

	assert.Equal(t, 6, id)
	assert.Equal(t, 7, extended.NumVertices)
	assert.Equal(t, []int{0, 1}, extended.Neighbors(6))
	assert.Equal(t, 6, g.NumVertices, "original graph must be untouched")
	assert.NoError(t, extended.Validate())

	_, _, err = g.WithVertex([]int{42})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.Error(t, New(0).Validate())
	assert.NoError(t, New(4).Validate())
}

func TestEdgeListRoundTrip(t *testing.T) {
	g := twoTriangles(t)
	// trailing isolated vertex
	g2, err := FromEdges(8, g.Edges())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteEdgeList(&buf, g2))

	parsed, err := ReadEdgeList(&buf)
	require.NoError(t, err)
	assert.Equal(t, 8, parsed.NumVertices)
	assert.Equal(t, g2.Edges(), parsed.Edges())
}

func TestReadEdgeList(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantN     int
		wantEdges int
		wantErr   bool
	}{
		{"inferred count", "0 1\n1 2\n", 3, 2, false},
		{"comments and blanks", "# a comment\n\n0 1\n", 2, 1, false},
		{"header", "# vertices 5\n0 1\n", 5, 1, false},
		{"header too small", "# vertices 1\n0 3\n", 0, 0, true},
		{"bad token", "0 x\n", 0, 0, true},
		{"single column", "0\n", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ReadEdgeList(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantN, g.NumVertices)
			assert.Equal(t, tt.wantEdges, g.NumEdges())
		})
	}
}
