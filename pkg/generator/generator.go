// Package generator samples synthetic graphs with a planted cluster structure.
package generator

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-playground/validator/v10"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gilchrisn/graph-knn-clustering/pkg/graph"
)

var validate = validator.New()

// Params configures a gaussian random partition graph
type Params struct {
	Vertices int     `json:"vertices" validate:"min=1"`
	MeanSize float64 `json:"mean_size" validate:"gt=0"`
	Shape    float64 `json:"shape" validate:"gt=0"` // block size std-dev is MeanSize/Shape
	PIn      float64 `json:"p_in" validate:"gte=0,lte=1"`
	POut     float64 `json:"p_out" validate:"gte=0,lte=1"`
	Seed     uint64  `json:"seed"`
}

// DefaultParams returns parameters producing roughly k tight clusters over n
// vertices: near-constant block sizes n/k, p_in 0.99 and p_out k/n.
func DefaultParams(n, k int) Params {
	k = max(k, 1)
	return Params{
		Vertices: n,
		MeanSize: float64(max(n/k, 1)),
		Shape:    float64(n) * 10000,
		PIn:      0.99,
		POut:     float64(k) / float64(max(n, 1)),
		Seed:     42,
	}
}

// Validate checks parameter ranges
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid generator parameters: %w", err)
	}
	return nil
}

// Sample is a generated graph with its planted partition
type Sample struct {
	Graph     *graph.Graph
	Partition []int // vertex -> block index
	Blocks    [][]int
}

// Generate samples a gaussian random partition graph. Block sizes are drawn from
// a normal distribution (rounded down, redrawn when below one) until they cover
// every vertex, the last block taking the remainder. Each pair inside a block is
// joined with probability PIn, each pair across blocks with POut. The output is
// deterministic for a seed.
func Generate(p Params) (*Sample, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	src := rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15)
	sizes := blockSizes(p, src)

	sample := &Sample{
		Graph:     graph.New(p.Vertices),
		Partition: make([]int, p.Vertices),
		Blocks:    make([][]int, len(sizes)),
	}

	v := 0
	for b, size := range sizes {
		sample.Blocks[b] = make([]int, 0, size)
		for i := 0; i < size; i++ {
			sample.Partition[v] = b
			sample.Blocks[b] = append(sample.Blocks[b], v)
			v++
		}
	}

	inside := distuv.Bernoulli{P: p.PIn, Src: src}
	across := distuv.Bernoulli{P: p.POut, Src: src}

	for u := 0; u < p.Vertices; u++ {
		for w := u + 1; w < p.Vertices; w++ {
			draw := across
			if sample.Partition[u] == sample.Partition[w] {
				draw = inside
			}
			if draw.Rand() == 1 {
				if err := sample.Graph.AddEdge(u, w); err != nil {
					return nil, err
				}
			}
		}
	}

	return sample, nil
}

func blockSizes(p Params, src rand.Source) []int {
	normal := distuv.Normal{Mu: p.MeanSize, Sigma: p.MeanSize/p.Shape + 0.5, Src: src}

	sizes := make([]int, 0)
	total := 0
	for {
		size := int(math.Floor(normal.Rand()))
		if size < 1 {
			continue
		}
		if total+size >= p.Vertices {
			sizes = append(sizes, p.Vertices-total)
			return sizes
		}
		total += size
		sizes = append(sizes, size)
	}
}

// Connected reports whether g has a single connected component
func Connected(g *graph.Graph) bool {
	return len(topo.ConnectedComponents(g.Undirected())) == 1
}

// GenerateConnected samples with successive seeds until a connected graph appears
// or attempts are exhausted.
func GenerateConnected(p Params, attempts int) (*Sample, error) {
	for i := 0; i < attempts; i++ {
		sample, err := Generate(p)
		if err != nil {
			return nil, err
		}
		if Connected(sample.Graph) {
			return sample, nil
		}
		p.Seed++
	}
	return nil, fmt.Errorf("no connected sample after %d attempts; increase inter-cluster edge probability", attempts)
}
