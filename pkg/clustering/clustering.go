// Package clustering assigns every vertex of an undirected graph to one of K
// clusters using neighborhood overlap seeding followed by majority-vote
// propagation of the residual vertices.
package clustering

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gilchrisn/graph-knn-clustering/pkg/graph"
)

// Assignment maps a vertex identifier to its cluster index in [0, K)
type Assignment map[int]int

// Clusters returns the members of every cluster 0..k-1 in ascending order
func (a Assignment) Clusters(k int) [][]int {
	clusters := make([][]int, k)
	for i := range clusters {
		clusters[i] = make([]int, 0)
	}
	for v, c := range a {
		if c >= 0 && c < k {
			clusters[c] = append(clusters[c], v)
		}
	}
	for _, members := range clusters {
		sort.Ints(members)
	}
	return clusters
}

// Sizes returns the number of vertices in every cluster 0..k-1
func (a Assignment) Sizes(k int) []int {
	sizes := make([]int, k)
	for _, c := range a {
		if c >= 0 && c < k {
			sizes[c]++
		}
	}
	return sizes
}

// Clone returns an independent copy
func (a Assignment) Clone() Assignment {
	out := make(Assignment, len(a))
	for v, c := range a {
		out[v] = c
	}
	return out
}

// Result represents the algorithm output
type Result struct {
	Assignment  Assignment `json:"assignment"`
	NumClusters int        `json:"num_clusters"`
	SeedSlots   [][]int    `json:"seed_slots"`
	Statistics  Statistics `json:"statistics"`
}

// Statistics contains per-stage counters
type Statistics struct {
	Vertices         int            `json:"vertices"`
	Edges            int            `json:"edges"`
	SeededVertices   int            `json:"seeded_vertices"`
	ResidualVertices int            `json:"residual_vertices"`
	ResidualRounds   int            `json:"residual_rounds"`
	Placements       map[string]int `json:"placements"`
	ClusterSizes     []int          `json:"cluster_sizes"`
	Disconnected     bool           `json:"disconnected"`
	Components       int            `json:"components"`
	RuntimeMS        int64          `json:"runtime_ms"`
}

// Run executes distance computation, neighborhood extraction, seeding and residual
// propagation in sequence.
//
// A disconnected graph fails with *StructuralError unless
// algorithm.allow_disconnected is set, in which case the warning is logged and
// unreachable pairs are treated as infinitely far apart; an unseeded component then
// surfaces as *ConvergenceError.
func Run(ctx context.Context, g *graph.Graph, config *Config) (*Result, error) {
	startTime := time.Now()
	logger := config.CreateLogger()

	k := config.NumClusters()
	if k < 1 {
		return nil, fmt.Errorf("cluster count must be positive, got %d", k)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}

	logger.Info().
		Int("vertices", g.NumVertices).
		Int("edges", g.NumEdges()).
		Int("clusters", k).
		Msg("Starting neighborhood clustering")

	stats := Statistics{
		Vertices:   g.NumVertices,
		Edges:      g.NumEdges(),
		Components: 1,
	}

	// Stage 1: all-pairs distances
	dm, err := ComputeDistances(ctx, g, config.NumWorkers())
	if err != nil {
		var structural *StructuralError
		if !errors.As(err, &structural) || !config.AllowDisconnected() {
			return nil, err
		}

		logger.Warn().
			Int("components", structural.Components).
			Int("unreachable_pairs", structural.UnreachablePairs).
			Msg(ErrDisconnected.Error())
		stats.Disconnected = true
		stats.Components = structural.Components
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: closed neighborhoods
	nb := ClosedNeighborhoods(dm)

	// Stage 3: seeding
	seed, err := SeedClusters(ctx, nb, k, config.Admission())
	if err != nil {
		return nil, err
	}
	assignment := seed.Assignment

	stats.SeededVertices = len(assignment)
	stats.ResidualVertices = len(seed.Pending)
	stats.Placements = make(map[string]int, len(seed.Placements))
	for p, count := range seed.Placements {
		stats.Placements[p.String()] = count
	}

	if config.EnableProgress() {
		logger.Info().
			Int("seeded", stats.SeededVertices).
			Int("residual", stats.ResidualVertices).
			Interface("placements", stats.Placements).
			Msg("Seeding completed")
	}

	// Stage 4: residual propagation
	rounds, err := resolveResiduals(ctx, nb, seed)
	stats.ResidualRounds = rounds
	if err != nil {
		logger.Error().Err(err).Int("rounds", rounds).Msg("Residual propagation failed")
		return nil, err
	}
	if rounds > 0 {
		logger.Debug().Int("rounds", rounds).Msg("Residual propagation converged")
	}

	stats.ClusterSizes = assignment.Sizes(k)
	stats.RuntimeMS = time.Since(startTime).Milliseconds()

	slots := make([][]int, len(seed.Slots))
	for i, s := range seed.Slots {
		slots[i] = []int(s)
	}

	result := &Result{
		Assignment:  assignment,
		NumClusters: k,
		SeedSlots:   slots,
		Statistics:  stats,
	}

	logger.Info().
		Ints("cluster_sizes", stats.ClusterSizes).
		Int64("runtime_ms", stats.RuntimeMS).
		Msg("Neighborhood clustering completed")

	return result, nil
}

// resolveResiduals labels the vertices seeding left pending. It does no work and
// reports zero rounds when seeding covered every vertex.
func resolveResiduals(ctx context.Context, nb Neighborhoods, seed *SeedResult) (int, error) {
	if len(seed.Pending) == 0 {
		return 0, nil
	}
	return PropagateResiduals(ctx, nb, seed.Assignment, seed.Pending)
}

// Cluster runs the clustering engine with default configuration and k clusters,
// returning only the vertex to cluster mapping.
func Cluster(ctx context.Context, g *graph.Graph, k int) (Assignment, error) {
	config := NewConfig()
	config.Set("algorithm.clusters", k)
	config.Set("logging.level", "warn")

	result, err := Run(ctx, g, config)
	if err != nil {
		return nil, err
	}
	return result.Assignment, nil
}
