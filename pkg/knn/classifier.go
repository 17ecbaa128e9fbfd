// Package knn classifies a vertex from the clusters of the vertices it would be
// attached to.
//
// A classifier is fitted on a complete vertex to cluster mapping. Given a set of
// candidate vertices and a sample size k, every k-combination of the candidates is
// scored per cluster as (members of the cluster in the combination) divided by
// (training size of the cluster), and the best score per cluster is kept. Dividing
// by cluster size rather than k favours small clusters over a plain majority vote.
//
// The best score of a cluster with m candidates and S training vertices is
// min(k, m)/S, so scoring is linear in the candidate count and never enumerates
// the C(n, k) combinations.
package knn

import (
	"github.com/rs/zerolog"

	"github.com/gilchrisn/graph-knn-clustering/pkg/clustering"
)

// Classifier holds read-only training labels
type Classifier struct {
	labels clustering.Assignment
	k      int
	logger zerolog.Logger
}

// Fit stores a copy of the labels. The cluster count is the largest label plus one.
func Fit(labels clustering.Assignment) *Classifier {
	k := 0
	for _, c := range labels {
		if c+1 > k {
			k = c + 1
		}
	}
	return &Classifier{
		labels: labels.Clone(),
		k:      k,
		logger: zerolog.Nop(),
	}
}

// WithLogger sets the logger used for per-call debug events
func (c *Classifier) WithLogger(logger zerolog.Logger) *Classifier {
	c.logger = logger
	return c
}

// NumClusters returns the number of clusters seen at fit time
func (c *Classifier) NumClusters() int { return c.k }

// Labels returns a copy of the training labels
func (c *Classifier) Labels() clustering.Assignment { return c.labels.Clone() }

// ClusterSizes counts the training vertices of every cluster
func (c *Classifier) ClusterSizes() []int {
	return c.labels.Sizes(c.k)
}

// ComputeProbabilities returns one score in [0, 1] per cluster. Each score is the
// largest fraction of that cluster's training vertices covered by any k-combination
// of the candidates.
func (c *Classifier) ComputeProbabilities(candidates []int, k int) ([]float64, error) {
	clusterOf, err := c.validate(candidates, k)
	if err != nil {
		return nil, err
	}

	sizes := c.ClusterSizes()
	for cluster, size := range sizes {
		if size == 0 {
			return nil, inputError(ErrEmptyCluster, "cluster %d has no training vertices", cluster)
		}
	}

	// a k-combination can take at most min(k, m) of the m candidates in a cluster,
	// and one that takes exactly that many always exists
	inCluster := make([]int, c.k)
	for _, cluster := range clusterOf {
		inCluster[cluster]++
	}

	best := make([]float64, c.k)
	for cluster, m := range inCluster {
		best[cluster] = float64(min(k, m)) / float64(sizes[cluster])
	}

	c.logger.Debug().
		Int("candidates", len(candidates)).
		Int("k", k).
		Ints("candidates_per_cluster", inCluster).
		Floats64("scores", best).
		Msg("Candidate combinations scored")

	return best, nil
}

// Predict returns the cluster with the highest score, the lowest index on ties
func (c *Classifier) Predict(candidates []int, k int) (int, error) {
	probabilities, err := c.ComputeProbabilities(candidates, k)
	if err != nil {
		return -1, err
	}
	return Argmax(probabilities), nil
}

// Argmax returns the index of the first maximum, or -1 for an empty slice
func Argmax(scores []float64) int {
	best := -1
	for i, s := range scores {
		if best < 0 || s > scores[best] {
			best = i
		}
	}
	return best
}

// validate checks the arguments and returns the cluster of every candidate by
// candidate position.
func (c *Classifier) validate(candidates []int, k int) ([]int, error) {
	if k < 1 {
		return nil, inputError(ErrInvalidK, "got %d", k)
	}
	if k > len(candidates) {
		return nil, inputError(ErrKExceedsCandidates, "k=%d, %d candidates", k, len(candidates))
	}

	seen := make(map[int]bool, len(candidates))
	clusterOf := make([]int, len(candidates))
	for i, v := range candidates {
		if seen[v] {
			return nil, inputError(ErrDuplicateCandidate, "vertex %d", v)
		}
		seen[v] = true

		cluster, ok := c.labels[v]
		if !ok || cluster < 0 {
			return nil, inputError(ErrUnknownVertex, "vertex %d", v)
		}
		clusterOf[i] = cluster
	}
	return clusterOf, nil
}
