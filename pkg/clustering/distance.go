package clustering

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/graph-knn-clustering/pkg/graph"
)

// DistanceMatrix is the dense all-pairs shortest path table of a graph, indexed by
// vertex identifier. Unreachable pairs hold +Inf.
type DistanceMatrix struct {
	d *mat.SymDense
}

// At returns the shortest path length between u and v
func (dm *DistanceMatrix) At(u, v int) float64 {
	return dm.d.At(u, v)
}

// Size returns the number of vertices covered by the table
func (dm *DistanceMatrix) Size() int {
	return dm.d.SymmetricDim()
}

// Reachable reports whether a path exists between u and v
func (dm *DistanceMatrix) Reachable(u, v int) bool {
	return !math.IsInf(dm.d.At(u, v), 1)
}

// Symmetric exposes the table for read-only numeric consumers such as MDS
func (dm *DistanceMatrix) Symmetric() mat.Symmetric {
	return dm.d
}

// ComputeDistances computes unit-weight shortest path lengths for every vertex
// pair. Sources are searched concurrently with at most workers goroutines.
//
// On a disconnected graph the complete table is returned together with a
// *StructuralError; unreachable entries are +Inf so they are never neighbors.
func ComputeDistances(ctx context.Context, g *graph.Graph, workers int) (*DistanceMatrix, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	if workers < 1 {
		workers = 1
	}

	n := g.NumVertices
	d := mat.NewSymDense(n, nil)
	ug := g.Undirected()

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(workers)

	for u := 0; u < n; u++ {
		grp.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			shortest := path.DijkstraFrom(simple.Node(u), ug)
			// each source owns the upper triangle of its row
			for v := u; v < n; v++ {
				d.SetSym(u, v, shortest.WeightTo(int64(v)))
			}
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}

	dm := &DistanceMatrix{d: d}

	unreachable := 0
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			if !dm.Reachable(u, v) {
				unreachable++
			}
		}
	}

	if unreachable > 0 {
		return dm, &StructuralError{
			Components:       len(topo.ConnectedComponents(ug)),
			UnreachablePairs: unreachable,
		}
	}

	return dm, nil
}
