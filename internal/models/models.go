package models

import (
	"time"

	"github.com/gilchrisn/graph-knn-clustering/pkg/clustering"
	"github.com/gilchrisn/graph-knn-clustering/pkg/graph"
	"github.com/gilchrisn/graph-knn-clustering/pkg/layout"
)

// APIResponse is the envelope of every JSON response
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// GraphRecord describes a stored graph
type GraphRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	NumVertices int       `json:"numVertices"`
	NumEdges    int       `json:"numEdges"`
	Connected   bool      `json:"connected"`
	Generated   bool      `json:"generated"`
	Partition   []int     `json:"partition,omitempty"` // planted blocks of a generated graph
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateGraphRequest uploads an explicit edge list or asks for a generated graph
type CreateGraphRequest struct {
	Name        string            `json:"name"`
	NumVertices int               `json:"numVertices" validate:"gte=0"`
	Edges       []graph.Edge      `json:"edges"`
	Generator   *GeneratorRequest `json:"generator,omitempty"`
}

type GeneratorRequest struct {
	Vertices int      `json:"vertices" validate:"min=1"`
	Clusters int      `json:"clusters" validate:"min=1"`
	PIn      *float64 `json:"pIn,omitempty" validate:"omitempty,gte=0,lte=1"`
	POut     *float64 `json:"pOut,omitempty" validate:"omitempty,gte=0,lte=1"`
	Seed     *uint64  `json:"seed,omitempty"`
}

// GraphResponse is a stored graph with its edges
type GraphResponse struct {
	GraphRecord
	Edges []graph.Edge `json:"edges"`
}

type ClusteringRequest struct {
	Clusters          int  `json:"clusters" validate:"min=1"`
	AdmissionDivisor  int  `json:"admissionDivisor" validate:"min=0"`
	AllowDisconnected bool `json:"allowDisconnected"`
	IncludeLayout     bool `json:"includeLayout"`
}

// Job represents a clustering job
type Job struct {
	ID          string            `json:"id"`
	GraphID     string            `json:"graphId"`
	Parameters  ClusteringRequest `json:"parameters"`
	Status      JobStatus         `json:"status"`
	Progress    JobProgress       `json:"progress"`
	Result      *JobResult        `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	ErrorKind   string            `json:"errorKind,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	StartedAt   *time.Time        `json:"startedAt,omitempty"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
}

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

type JobProgress struct {
	Percentage int    `json:"percentage"`
	Message    string `json:"message"`
}

type JobResult struct {
	Assignment       clustering.Assignment `json:"assignment"`
	NumClusters      int                   `json:"numClusters"`
	Agreement        *float64              `json:"agreement,omitempty"` // against the planted partition
	ProcessingTimeMS int64                 `json:"processingTimeMS"`
	Statistics       clustering.Statistics `json:"statistics"`
	Layout           []layout.VertexLayout `json:"layout,omitempty"`
}

type PredictRequest struct {
	Candidates []int `json:"candidates" validate:"required,min=1,dive,min=0"`
	K          int   `json:"k" validate:"min=1"`
}

type PredictResponse struct {
	Cluster       int       `json:"cluster"`
	Probabilities []float64 `json:"probabilities"`
	Candidates    []int     `json:"candidates"`
	K             int       `json:"k"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Graphs    int       `json:"graphs"`
	Jobs      int       `json:"jobs"`
	Timestamp time.Time `json:"timestamp"`
}
