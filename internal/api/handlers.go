package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/graph-knn-clustering/internal/models"
	"github.com/gilchrisn/graph-knn-clustering/internal/service"
	"github.com/gilchrisn/graph-knn-clustering/internal/utils"
)

// Handlers contains HTTP request handlers
type Handlers struct {
	graphService *service.GraphService
	jobService   *service.JobService
}

// NewHandlers creates new API handlers
func NewHandlers(graphService *service.GraphService, jobService *service.JobService) *Handlers {
	return &Handlers{
		graphService: graphService,
		jobService:   jobService,
	}
}

// statusFor maps service and algorithm errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrJobNotReady):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidGraph):
		return http.StatusBadRequest
	}

	switch service.ErrorKind(err) {
	case service.KindInput:
		return http.StatusBadRequest
	case service.KindStructural, service.KindConvergence:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// CreateGraph stores an uploaded edge list or a generated graph
func (h *Handlers) CreateGraph(w http.ResponseWriter, r *http.Request) {
	var req models.CreateGraphRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}

	record, err := h.graphService.Create(req)
	if err != nil {
		log.Error().Err(err).Msg("Graph creation failed")
		utils.WriteErrorResponse(w, statusFor(err), "Graph creation failed", err)
		return
	}

	utils.WriteStatusResponse(w, http.StatusCreated, "Graph created successfully", record)
}

// GetGraph retrieves a stored graph with its edges
func (h *Handlers) GetGraph(w http.ResponseWriter, r *http.Request) {
	graphID := mux.Vars(r)["graphId"]

	stored, err := h.graphService.Get(graphID)
	if err != nil {
		utils.WriteErrorResponse(w, statusFor(err), "Graph not found", err)
		return
	}

	utils.WriteSuccessResponse(w, "Graph retrieved successfully", models.GraphResponse{
		GraphRecord: stored.Record,
		Edges:       stored.Graph.Edges(),
	})
}

// StartClustering queues a clustering job for a graph
func (h *Handlers) StartClustering(w http.ResponseWriter, r *http.Request) {
	graphID := mux.Vars(r)["graphId"]

	var req models.ClusteringRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}

	job, err := h.jobService.Submit(graphID, req)
	if err != nil {
		log.Error().
			Str("graph_id", graphID).
			Err(err).
			Msg("Failed to start clustering")
		utils.WriteErrorResponse(w, statusFor(err), "Failed to start clustering", err)
		return
	}

	utils.WriteStatusResponse(w, http.StatusAccepted, "Clustering job started", job)
}

// GetJob retrieves job status and, once complete, its result
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	job, err := h.jobService.Get(jobID)
	if err != nil {
		utils.WriteErrorResponse(w, statusFor(err), "Job not found", err)
		return
	}

	utils.WriteSuccessResponse(w, "Job retrieved successfully", job)
}

// Predict classifies a vertex attached to the given candidates
func (h *Handlers) Predict(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	var req models.PredictRequest
	if !utils.DecodeAndValidate(w, r, &req) {
		return
	}

	prediction, err := h.jobService.Predict(jobID, req.Candidates, req.K)
	if err != nil {
		utils.WriteErrorResponse(w, statusFor(err), "Prediction failed", err)
		return
	}

	utils.WriteSuccessResponse(w, "Prediction computed", prediction)
}

// HealthCheck reports service liveness
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccessResponse(w, "Service is healthy", models.HealthResponse{
		Status:    "healthy",
		Graphs:    h.graphService.Count(),
		Jobs:      h.jobService.Count(),
		Timestamp: time.Now(),
	})
}
