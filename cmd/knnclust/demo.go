package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/graph-knn-clustering/pkg/clustering"
	"github.com/gilchrisn/graph-knn-clustering/pkg/generator"
	"github.com/gilchrisn/graph-knn-clustering/pkg/graph"
	"github.com/gilchrisn/graph-knn-clustering/pkg/knn"
	"github.com/gilchrisn/graph-knn-clustering/pkg/layout"
	"github.com/gilchrisn/graph-knn-clustering/pkg/render"
)

type demoOptions struct {
	vertices  int
	clusters  int
	pIn       float64
	pOut      float64
	seed      uint64
	attempts  int
	input     string
	outDir    string
	configRef string
}

func newDemoCommand() *cobra.Command {
	opts := demoOptions{}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Generate a partition graph, cluster it and classify a new vertex",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.vertices, "vertices", "n", 60, "number of vertices")
	flags.IntVarP(&opts.clusters, "clusters", "k", 3, "number of clusters")
	flags.Float64Var(&opts.pIn, "p-in", -1, "intra-cluster edge probability (default 0.99)")
	flags.Float64Var(&opts.pOut, "p-out", -1, "inter-cluster edge probability (default clusters/vertices)")
	flags.Uint64Var(&opts.seed, "seed", 42, "random seed")
	flags.IntVar(&opts.attempts, "attempts", 10, "generation attempts before giving up on connectivity")
	flags.StringVarP(&opts.input, "input", "i", "", "edge list to cluster instead of a generated graph")
	flags.StringVarP(&opts.outDir, "out", "o", ".", "output directory")
	flags.StringVar(&opts.configRef, "config", "", "clustering configuration file")

	return cmd
}

func runDemo(ctx context.Context, opts demoOptions) error {
	g, partition, err := loadOrGenerate(opts)
	if err != nil {
		return err
	}

	if err := writeEdgeList(filepath.Join(opts.outDir, "graph.edgelist"), g); err != nil {
		return err
	}

	config := clustering.NewConfig()
	if opts.configRef != "" {
		if err := config.LoadFromFile(opts.configRef); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	config.Set("algorithm.clusters", opts.clusters)

	result, err := clustering.Run(ctx, g, config)
	if err != nil {
		var structural *clustering.StructuralError
		if errors.As(err, &structural) {
			return fmt.Errorf("%w; try a larger --p-out", err)
		}
		return err
	}

	event := log.Info().Ints("cluster_sizes", result.Statistics.ClusterSizes)
	if partition != nil {
		truth := make(clustering.Assignment, len(partition))
		for v, b := range partition {
			truth[v] = b
		}
		event = event.Float64("agreement", clustering.Agreement(result.Assignment, truth))
	}
	event.Msg("Graph clustered")

	// the new vertex attaches to floor(sqrt(N))+1 random vertices
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed+1))
	m := min(int(math.Sqrt(float64(g.NumVertices)))+1, g.NumVertices)
	candidates := rng.Perm(g.NumVertices)[:m]

	classifier := knn.Fit(result.Assignment).WithLogger(log.Logger)
	probabilities, err := classifier.ComputeProbabilities(candidates, len(candidates))
	if err != nil {
		return err
	}
	predicted := knn.Argmax(probabilities)

	log.Info().
		Ints("candidates", candidates).
		Floats64("probabilities", probabilities).
		Int("predicted_cluster", predicted).
		Msg("New vertex classified")

	extended, id, err := g.WithVertex(candidates)
	if err != nil {
		return err
	}
	extendedLabels := result.Assignment.Clone()
	extendedLabels[id] = predicted

	palette := render.NewPalette(opts.clusters)
	if err := writeDOT(ctx, filepath.Join(opts.outDir, "clustered.dot"), g, result.Assignment, render.Options{
		Name:    "clustered",
		Palette: palette,
	}); err != nil {
		return err
	}
	if err := writeDOT(ctx, filepath.Join(opts.outDir, "extended.dot"), extended, extendedLabels, render.Options{
		Name:      "extended",
		Palette:   palette,
		Highlight: []int{id},
	}); err != nil {
		return err
	}

	log.Info().Str("dir", opts.outDir).Msg("DOT files written")
	return nil
}

// loadOrGenerate reads opts.input, or samples a connected partition graph and
// returns its planted blocks as well.
func loadOrGenerate(opts demoOptions) (*graph.Graph, []int, error) {
	if opts.input != "" {
		f, err := os.Open(opts.input)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()

		g, err := graph.ReadEdgeList(f)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", opts.input, err)
		}
		log.Info().
			Str("input", opts.input).
			Int("vertices", g.NumVertices).
			Int("edges", g.NumEdges()).
			Msg("Graph loaded")
		return g, nil, nil
	}

	params := generator.DefaultParams(opts.vertices, opts.clusters)
	params.Seed = opts.seed
	if opts.pIn >= 0 {
		params.PIn = opts.pIn
	}
	if opts.pOut >= 0 {
		params.POut = opts.pOut
	}

	sample, err := generator.GenerateConnected(params, opts.attempts)
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Int("vertices", sample.Graph.NumVertices).
		Int("edges", sample.Graph.NumEdges()).
		Int("planted_blocks", len(sample.Blocks)).
		Msg("Graph generated")
	return sample.Graph, sample.Partition, nil
}

func writeEdgeList(path string, g *graph.Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := graph.WriteEdgeList(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeDOT(ctx context.Context, path string, g *graph.Graph, labels clustering.Assignment, opts render.Options) error {
	dm, err := clustering.ComputeDistances(ctx, g, runtime.NumCPU())
	if dm == nil {
		return err
	}
	positions, err := layout.New().Compute(g, dm)
	if err != nil {
		return fmt.Errorf("layout failed: %w", err)
	}
	opts.Layout = positions

	doc, err := render.DOT(g, labels, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, doc, 0o644)
}
