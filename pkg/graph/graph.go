// Package graph holds the undirected, unweighted vertex/edge model consumed by the
// clustering engine. Vertex identifiers are the contiguous range 0..NumVertices-1 and
// double as gonum node IDs, so the vertex-to-index bijection is fixed at ingestion.
package graph

import (
	"fmt"
	"sort"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// Edge is an undirected edge between two vertices.
type Edge struct {
	U int `json:"u"`
	V int `json:"v"`
}

// Graph represents an undirected unweighted graph over vertices 0..NumVertices-1
type Graph struct {
	NumVertices int `json:"num_vertices"`
	SelfLoops   int `json:"self_loops"` // tolerated, never stored

	g *simple.UndirectedGraph
}

// New creates a graph with n isolated vertices
func New(n int) *Graph {
	g := &Graph{
		NumVertices: n,
		g:           simple.NewUndirectedGraph(),
	}
	for i := 0; i < n; i++ {
		g.g.AddNode(simple.Node(i))
	}
	return g
}

// FromEdges builds a graph with n vertices and the given edges
func FromEdges(n int, edges []Edge) (*Graph, error) {
	g := New(n)
	for _, e := range edges {
		if err := g.AddEdge(e.U, e.V); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// AddEdge adds an undirected edge between u and v. Adding an existing edge is a
// no-op; a self-loop is counted but not stored since it never changes a distance.
func (g *Graph) AddEdge(u, v int) error {
	if u < 0 || u >= g.NumVertices || v < 0 || v >= g.NumVertices {
		return fmt.Errorf("vertex index out of range: u=%d, v=%d, numVertices=%d", u, v, g.NumVertices)
	}

	if u == v {
		g.SelfLoops++
		return nil
	}

	if g.g.HasEdgeBetween(int64(u), int64(v)) {
		return nil
	}

	g.g.SetEdge(simple.Edge{F: simple.Node(u), T: simple.Node(v)})
	return nil
}

// HasEdge reports whether u and v are adjacent
func (g *Graph) HasEdge(u, v int) bool {
	if u < 0 || u >= g.NumVertices || v < 0 || v >= g.NumVertices {
		return false
	}
	return g.g.HasEdgeBetween(int64(u), int64(v))
}

// Neighbors returns the direct neighbors of v in ascending order
func (g *Graph) Neighbors(v int) []int {
	if v < 0 || v >= g.NumVertices {
		return nil
	}

	it := g.g.From(int64(v))
	neighbors := make([]int, 0, it.Len())
	for it.Next() {
		neighbors = append(neighbors, int(it.Node().ID()))
	}
	sort.Ints(neighbors)
	return neighbors
}

// Degree returns the number of distinct neighbors of v
func (g *Graph) Degree(v int) int {
	if v < 0 || v >= g.NumVertices {
		return 0
	}
	return g.g.From(int64(v)).Len()
}

// NumEdges returns the number of stored (non self-loop) edges
func (g *Graph) NumEdges() int {
	return g.g.Edges().Len()
}

// Edges returns every edge once with U < V, sorted
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.NumEdges())
	it := g.g.Edges()
	for it.Next() {
		e := it.Edge()
		u, v := int(e.From().ID()), int(e.To().ID())
		if u > v {
			u, v = v, u
		}
		edges = append(edges, Edge{U: u, V: v})
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].U != edges[j].U {
			return edges[i].U < edges[j].U
		}
		return edges[i].V < edges[j].V
	})
	return edges
}

// Undirected exposes the backing gonum graph for read-only use by path, topology
// and encoding routines.
func (g *Graph) Undirected() gonum.Undirected {
	return g.g
}

// Clone creates a deep copy of the graph
func (g *Graph) Clone() *Graph {
	clone := New(g.NumVertices)
	clone.SelfLoops = g.SelfLoops
	for _, e := range g.Edges() {
		clone.g.SetEdge(simple.Edge{F: simple.Node(e.U), T: simple.Node(e.V)})
	}
	return clone
}

// WithVertex returns a copy of g extended by one vertex connected to every
// candidate, together with the new vertex's identifier.
func (g *Graph) WithVertex(candidates []int) (*Graph, int, error) {
	extended := g.Clone()
	id := extended.NumVertices
	extended.NumVertices++
	extended.g.AddNode(simple.Node(id))

	for _, c := range candidates {
		if err := extended.AddEdge(id, c); err != nil {
			return nil, 0, fmt.Errorf("failed to connect new vertex: %w", err)
		}
	}
	return extended, id, nil
}

// Validate checks graph consistency
func (g *Graph) Validate() error {
	if g.NumVertices <= 0 {
		return fmt.Errorf("graph must have positive number of vertices")
	}

	if got := g.g.Nodes().Len(); got != g.NumVertices {
		return fmt.Errorf("graph holds %d nodes, expected %d", got, g.NumVertices)
	}

	for i := 0; i < g.NumVertices; i++ {
		if g.g.Node(int64(i)) == nil {
			return fmt.Errorf("vertex %d missing: identifiers must be contiguous from 0", i)
		}
	}

	return nil
}
