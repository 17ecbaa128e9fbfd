package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/graph-knn-clustering/internal/metrics"
	"github.com/gilchrisn/graph-knn-clustering/internal/models"
	"github.com/gilchrisn/graph-knn-clustering/pkg/generator"
	"github.com/gilchrisn/graph-knn-clustering/pkg/graph"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidGraph = errors.New("invalid graph")
)

// StoredGraph is an ingested graph and its metadata
type StoredGraph struct {
	Record models.GraphRecord
	Graph  *graph.Graph
}

// GraphService keeps uploaded and generated graphs in memory
type GraphService struct {
	graphs  map[string]*StoredGraph
	metrics *metrics.Collector
	mutex   sync.RWMutex
}

// NewGraphService creates a new graph service
func NewGraphService(m *metrics.Collector) *GraphService {
	return &GraphService{
		graphs:  make(map[string]*StoredGraph),
		metrics: m,
	}
}

// Create stores the graph described by req: either an explicit vertex count and
// edge list, or generator parameters.
func (s *GraphService) Create(req models.CreateGraphRequest) (*models.GraphRecord, error) {
	var (
		g         *graph.Graph
		partition []int
		err       error
	)

	switch {
	case req.Generator != nil:
		g, partition, err = generate(*req.Generator)
	case req.NumVertices > 0:
		g, err = graph.FromEdges(req.NumVertices, req.Edges)
	default:
		err = fmt.Errorf("numVertices or generator is required")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGraph, err)
	}

	name := req.Name
	if name == "" {
		name = "Unnamed Graph"
	}

	stored := &StoredGraph{
		Record: models.GraphRecord{
			ID:          uuid.New().String(),
			Name:        name,
			NumVertices: g.NumVertices,
			NumEdges:    g.NumEdges(),
			Connected:   generator.Connected(g),
			Generated:   req.Generator != nil,
			Partition:   partition,
			CreatedAt:   time.Now(),
		},
		Graph: g,
	}

	s.mutex.Lock()
	s.graphs[stored.Record.ID] = stored
	s.mutex.Unlock()

	s.metrics.GraphsCreated.Inc()

	log.Info().
		Str("graph_id", stored.Record.ID).
		Int("vertices", stored.Record.NumVertices).
		Int("edges", stored.Record.NumEdges).
		Bool("connected", stored.Record.Connected).
		Msg("Graph stored")

	record := stored.Record
	return &record, nil
}

func generate(req models.GeneratorRequest) (*graph.Graph, []int, error) {
	params := generator.DefaultParams(req.Vertices, req.Clusters)
	if req.PIn != nil {
		params.PIn = *req.PIn
	}
	if req.POut != nil {
		params.POut = *req.POut
	}
	if req.Seed != nil {
		params.Seed = *req.Seed
	}

	sample, err := generator.Generate(params)
	if err != nil {
		return nil, nil, err
	}
	return sample.Graph, sample.Partition, nil
}

// Get retrieves a graph by ID
func (s *GraphService) Get(graphID string) (*StoredGraph, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stored, exists := s.graphs[graphID]
	if !exists {
		return nil, fmt.Errorf("graph %s: %w", graphID, ErrNotFound)
	}
	return stored, nil
}

// Count returns the number of stored graphs
func (s *GraphService) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.graphs)
}
