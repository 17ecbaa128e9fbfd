// Package layout places vertices in the plane for rendering. Positions come from
// classical multidimensional scaling of the shortest path table, radii from
// PageRank.
package layout

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/mds"

	"github.com/gilchrisn/graph-knn-clustering/pkg/clustering"
	"github.com/gilchrisn/graph-knn-clustering/pkg/graph"
)

// Position represents a 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// VertexLayout is the rendered position and size of one vertex
type VertexLayout struct {
	Position
	Radius   float64 `json:"radius"`
	PageRank float64 `json:"pagerank"`
}

// Calculator computes layouts. The zero value is not usable; use New.
type Calculator struct {
	dampingFactor float64
	tolerance     float64
	minRadius     float64
	maxRadius     float64
	extent        float64
}

// New creates a calculator with damping 0.85, tolerance 1e-6, radii in [3, 20] and
// coordinates in [-100, 100].
func New() *Calculator {
	return &Calculator{
		dampingFactor: 0.85,
		tolerance:     1e-6,
		minRadius:     3,
		maxRadius:     20,
		extent:        100,
	}
}

// WithRadius sets the radius range
func (c *Calculator) WithRadius(minRadius, maxRadius float64) *Calculator {
	c.minRadius, c.maxRadius = minRadius, maxRadius
	return c
}

// WithExtent sets the half-width of the coordinate square
func (c *Calculator) WithExtent(extent float64) *Calculator {
	c.extent = extent
	return c
}

// Compute lays out every vertex of g using its distance table dm. Unreachable
// pairs are placed one step beyond the largest finite distance.
func (c *Calculator) Compute(g *graph.Graph, dm *clustering.DistanceMatrix) ([]VertexLayout, error) {
	n := g.NumVertices
	if n == 0 {
		return nil, fmt.Errorf("graph has no vertices")
	}
	if dm.Size() != n {
		return nil, fmt.Errorf("distance table covers %d vertices, graph has %d", dm.Size(), n)
	}

	positions, err := c.positions(dm)
	if err != nil {
		return nil, err
	}
	scores := c.pageRank(g)

	minScore, maxScore := math.Inf(1), math.Inf(-1)
	for _, s := range scores {
		minScore = math.Min(minScore, s)
		maxScore = math.Max(maxScore, s)
	}

	out := make([]VertexLayout, n)
	for v := 0; v < n; v++ {
		score := scores[int64(v)]
		normalized := 1.0
		if maxScore > minScore {
			normalized = (score - minScore) / (maxScore - minScore)
		}
		out[v] = VertexLayout{
			Position: positions[v],
			Radius:   c.minRadius + normalized*(c.maxRadius-c.minRadius),
			PageRank: score,
		}
	}
	return out, nil
}

// pageRank scores the graph with each undirected edge expanded to both directions
func (c *Calculator) pageRank(g *graph.Graph) map[int64]float64 {
	directed := simple.NewDirectedGraph()
	for v := 0; v < g.NumVertices; v++ {
		directed.AddNode(simple.Node(v))
	}
	for _, e := range g.Edges() {
		directed.SetEdge(simple.Edge{F: simple.Node(e.U), T: simple.Node(e.V)})
		directed.SetEdge(simple.Edge{F: simple.Node(e.V), T: simple.Node(e.U)})
	}
	return network.PageRank(directed, c.dampingFactor, c.tolerance)
}

// positions runs Torgerson scaling and scales the first two coordinates into the
// extent square.
func (c *Calculator) positions(dm *clustering.DistanceMatrix) ([]Position, error) {
	n := dm.Size()
	if n == 1 {
		return []Position{{}}, nil
	}

	farthest := 0.0
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			if dm.Reachable(u, v) {
				farthest = math.Max(farthest, dm.At(u, v))
			}
		}
	}

	dis := mat.NewSymDense(n, nil)
	for u := 0; u < n; u++ {
		for v := u; v < n; v++ {
			d := dm.At(u, v)
			if !dm.Reachable(u, v) {
				d = farthest + 1
			}
			dis.SetSym(u, v, d)
		}
	}

	var coords mat.Dense
	k, _ := mds.TorgersonScaling(&coords, nil, dis)
	if k == 0 {
		return nil, fmt.Errorf("no positive eigenvalues found in MDS")
	}

	_, cols := coords.Dims()
	raw := make([]Position, n)
	for i := 0; i < n; i++ {
		if cols > 0 {
			raw[i].X = coords.At(i, 0)
		}
		if cols > 1 {
			raw[i].Y = coords.At(i, 1)
		}
	}

	return c.scale(raw), nil
}

func (c *Calculator) scale(raw []Position) []Position {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range raw {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	norm := func(x, lo, hi float64) float64 {
		if hi == lo {
			return 0
		}
		return -c.extent + (x-lo)/(hi-lo)*2*c.extent
	}

	out := make([]Position, len(raw))
	for i, p := range raw {
		out[i] = Position{X: norm(p.X, minX, maxX), Y: norm(p.Y, minY, maxY)}
	}
	return out
}
