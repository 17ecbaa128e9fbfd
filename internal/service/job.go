package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/graph-knn-clustering/internal/config"
	"github.com/gilchrisn/graph-knn-clustering/internal/metrics"
	"github.com/gilchrisn/graph-knn-clustering/internal/models"
	"github.com/gilchrisn/graph-knn-clustering/pkg/clustering"
	"github.com/gilchrisn/graph-knn-clustering/pkg/knn"
	"github.com/gilchrisn/graph-knn-clustering/pkg/layout"
)

var ErrJobNotReady = errors.New("job has not completed")

// Error kinds reported on failed jobs
const (
	KindStructural  = "structural"
	KindConvergence = "convergence"
	KindInput       = "input"
	KindTimeout     = "timeout"
	KindInternal    = "internal"
)

// ErrorKind classifies a clustering or classifier error
func ErrorKind(err error) string {
	var (
		structural  *clustering.StructuralError
		convergence *clustering.ConvergenceError
		input       *knn.InputError
	)
	switch {
	case errors.As(err, &structural):
		return KindStructural
	case errors.As(err, &convergence):
		return KindConvergence
	case errors.As(err, &input):
		return KindInput
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		return KindInternal
	}
}

// JobService runs clustering jobs in the background on a bounded number of
// workers and keeps their classifiers for prediction until the result expires.
type JobService struct {
	jobs        map[string]*models.Job
	classifiers map[string]*knn.Classifier
	workers     chan struct{}
	graphs      *GraphService
	metrics     *metrics.Collector
	jobCfg      config.JobConfig
	clusterCfg  config.ClusteringConfig
	mutex       sync.RWMutex
	inflight    sync.WaitGroup
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewJobService creates a new job service and starts its cleanup loop
func NewJobService(graphs *GraphService, m *metrics.Collector, jobCfg config.JobConfig, clusterCfg config.ClusteringConfig) *JobService {
	service := &JobService{
		jobs:        make(map[string]*models.Job),
		classifiers: make(map[string]*knn.Classifier),
		workers:     make(chan struct{}, max(jobCfg.MaxWorkers, 1)),
		graphs:      graphs,
		metrics:     m,
		jobCfg:      jobCfg,
		clusterCfg:  clusterCfg,
		stop:        make(chan struct{}),
	}

	go service.cleanupLoop()

	return service
}

// Submit creates and queues a new clustering job
func (s *JobService) Submit(graphID string, params models.ClusteringRequest) (*models.Job, error) {
	if _, err := s.graphs.Get(graphID); err != nil {
		return nil, err
	}

	now := time.Now()
	job := &models.Job{
		ID:         uuid.New().String(),
		GraphID:    graphID,
		Parameters: params,
		Status:     models.JobStatusQueued,
		Progress: models.JobProgress{
			Percentage: 0,
			Message:    "Queued",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mutex.Lock()
	s.jobs[job.ID] = job
	snapshot := *job
	s.mutex.Unlock()

	s.metrics.JobsSubmitted.Inc()

	log.Info().
		Str("job_id", job.ID).
		Str("graph_id", graphID).
		Int("clusters", params.Clusters).
		Msg("Job submitted")

	s.inflight.Add(1)
	go s.processJob(job.ID)

	return &snapshot, nil
}

// Get returns a snapshot of a job
func (s *JobService) Get(jobID string) (*models.Job, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}

	snapshot := *job
	return &snapshot, nil
}

// Count returns the number of tracked jobs
func (s *JobService) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.jobs)
}

// Predict classifies a new vertex attached to candidates using the labels of a
// completed job.
func (s *JobService) Predict(jobID string, candidates []int, k int) (*models.PredictResponse, error) {
	s.mutex.RLock()
	job, exists := s.jobs[jobID]
	var (
		status     models.JobStatus
		classifier *knn.Classifier
	)
	if exists {
		status = job.Status
		classifier = s.classifiers[jobID]
	}
	s.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	if status != models.JobStatusCompleted || classifier == nil {
		return nil, fmt.Errorf("job %s is %s: %w", jobID, status, ErrJobNotReady)
	}

	probabilities, err := classifier.ComputeProbabilities(candidates, k)
	if err != nil {
		s.metrics.Predictions.WithLabelValues("rejected").Inc()
		return nil, err
	}
	s.metrics.Predictions.WithLabelValues("ok").Inc()

	cluster := knn.Argmax(probabilities)

	log.Debug().
		Str("job_id", jobID).
		Ints("candidates", candidates).
		Int("k", k).
		Int("cluster", cluster).
		Msg("Prediction served")

	return &models.PredictResponse{
		Cluster:       cluster,
		Probabilities: probabilities,
		Candidates:    candidates,
		K:             k,
	}, nil
}

// Wait blocks until every submitted job has finished
func (s *JobService) Wait() {
	s.inflight.Wait()
}

// Close stops the cleanup loop
func (s *JobService) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// processJob processes a job in the background
func (s *JobService) processJob(jobID string) {
	defer s.inflight.Done()

	// Acquire worker slot
	s.workers <- struct{}{}
	defer func() { <-s.workers }()

	s.mutex.RLock()
	job, exists := s.jobs[jobID]
	var (
		graphID string
		params  models.ClusteringRequest
	)
	if exists {
		graphID, params = job.GraphID, job.Parameters
	}
	s.mutex.RUnlock()

	if !exists {
		log.Error().Str("job_id", jobID).Msg("Job not found during processing")
		return
	}

	startTime := time.Now()
	s.updateJobStatus(jobID, models.JobStatusRunning, 10, "Clustering", &startTime)

	stored, err := s.graphs.Get(graphID)
	if err != nil {
		s.failJob(jobID, fmt.Errorf("failed to get graph: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.jobCfg.JobTimeout)
	defer cancel()

	cfg := clustering.NewConfig()
	cfg.Set("algorithm.clusters", params.Clusters)
	cfg.Set("algorithm.admission_divisor", params.AdmissionDivisor)
	cfg.Set("algorithm.allow_disconnected", params.AllowDisconnected || s.clusterCfg.AllowDisconnected)
	cfg.Set("performance.num_workers", s.clusterCfg.NumWorkers)
	cfg.Set("logging.level", s.clusterCfg.LogLevel)
	cfg.Set("logging.enable_progress", false)

	result, err := clustering.Run(ctx, stored.Graph, cfg)
	s.metrics.ClusteringDuration.Observe(time.Since(startTime).Seconds())
	if err != nil {
		s.failJob(jobID, err)
		return
	}
	s.metrics.ResidualRounds.Observe(float64(result.Statistics.ResidualRounds))

	jobResult := &models.JobResult{
		Assignment:       result.Assignment,
		NumClusters:      result.NumClusters,
		ProcessingTimeMS: result.Statistics.RuntimeMS,
		Statistics:       result.Statistics,
	}

	if len(stored.Record.Partition) == stored.Graph.NumVertices {
		truth := make(clustering.Assignment, len(stored.Record.Partition))
		for v, b := range stored.Record.Partition {
			truth[v] = b
		}
		agreement := clustering.Agreement(result.Assignment, truth)
		jobResult.Agreement = &agreement
	}

	if params.IncludeLayout {
		s.updateJobStatus(jobID, models.JobStatusRunning, 70, "Computing layout", nil)

		// a disconnected graph still yields a usable table here
		dm, _ := clustering.ComputeDistances(ctx, stored.Graph, s.clusterCfg.NumWorkers)
		if dm == nil {
			s.failJob(jobID, fmt.Errorf("layout distances: %w", ctx.Err()))
			return
		}
		positions, err := layout.New().Compute(stored.Graph, dm)
		if err != nil {
			s.failJob(jobID, fmt.Errorf("layout failed: %w", err))
			return
		}
		jobResult.Layout = positions
	}

	s.completeJob(jobID, jobResult, knn.Fit(result.Assignment))
}

// updateJobStatus updates job progress and, when given, its start time
func (s *JobService) updateJobStatus(jobID string, status models.JobStatus, percentage int, message string, startTime *time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return
	}

	job.Status = status
	job.Progress.Percentage = percentage
	job.Progress.Message = message
	job.UpdatedAt = time.Now()
	if startTime != nil {
		job.StartedAt = startTime
	}

	log.Debug().
		Str("job_id", jobID).
		Str("status", string(status)).
		Int("percentage", percentage).
		Str("message", message).
		Msg("Job status updated")
}

// completeJob marks a job as completed and keeps its classifier
func (s *JobService) completeJob(jobID string, result *models.JobResult, classifier *knn.Classifier) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return
	}

	job.Status = models.JobStatusCompleted
	job.Progress.Percentage = 100
	job.Progress.Message = "Complete"
	now := time.Now()
	job.CompletedAt = &now
	job.UpdatedAt = now
	job.Result = result

	s.classifiers[jobID] = classifier
	s.metrics.JobsFinished.WithLabelValues(string(models.JobStatusCompleted), "").Inc()

	log.Info().
		Str("job_id", jobID).
		Ints("cluster_sizes", result.Statistics.ClusterSizes).
		Int("residual_rounds", result.Statistics.ResidualRounds).
		Int64("processing_time_ms", result.ProcessingTimeMS).
		Msg("Job completed successfully")
}

// failJob marks a job as failed
func (s *JobService) failJob(jobID string, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return
	}

	kind := ErrorKind(err)

	job.Status = models.JobStatusFailed
	job.Error = err.Error()
	job.ErrorKind = kind
	job.Progress.Message = "Failed"
	now := time.Now()
	job.CompletedAt = &now
	job.UpdatedAt = now

	s.metrics.JobsFinished.WithLabelValues(string(models.JobStatusFailed), kind).Inc()

	log.Error().
		Str("job_id", jobID).
		Str("kind", kind).
		Err(err).
		Msg("Job failed")
}

// cleanupLoop periodically cleans up old jobs and classifiers
func (s *JobService) cleanupLoop() {
	ticker := time.NewTicker(max(s.jobCfg.CleanupInterval, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup(time.Now())
		case <-s.stop:
			return
		}
	}
}

// cleanup removes finished jobs not updated since now - ResultTTL
func (s *JobService) cleanup(now time.Time) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := now.Add(-s.jobCfg.ResultTTL)
	cleaned := 0

	for jobID, job := range s.jobs {
		finished := job.Status == models.JobStatusCompleted || job.Status == models.JobStatusFailed
		if finished && job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, jobID)
			delete(s.classifiers, jobID)
			cleaned++
		}
	}

	if cleaned > 0 {
		log.Info().
			Int("cleaned_jobs", cleaned).
			Msg("Job cleanup completed")
	}
	return cleaned
}
