package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-knn-clustering/internal/config"
	"github.com/gilchrisn/graph-knn-clustering/internal/metrics"
	"github.com/gilchrisn/graph-knn-clustering/internal/models"
	"github.com/gilchrisn/graph-knn-clustering/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	handler http.Handler
	jobs    *service.JobService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	collector := metrics.NewCollector("test")
	graphs := service.NewGraphService(collector)
	jobs := service.NewJobService(graphs, collector,
		config.JobConfig{MaxWorkers: 2, JobTimeout: time.Minute, CleanupInterval: time.Minute, ResultTTL: time.Hour},
		config.ClusteringConfig{NumWorkers: 2, LogLevel: "disabled"},
	)
	t.Cleanup(jobs.Close)

	return &testServer{
		handler: NewRouter(NewHandlers(graphs, jobs), collector),
		jobs:    jobs,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

const bridgedTrianglesBody = `{
	"name": "bridged",
	"numVertices": 6,
	"edges": [
		{"u": 0, "v": 1}, {"u": 1, "v": 2}, {"u": 0, "v": 2},
		{"u": 3, "v": 4}, {"u": 4, "v": 5}, {"u": 3, "v": 5},
		{"u": 2, "v": 3}
	]
}`

func TestClusteringWorkflow(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, "POST", "/api/v1/graphs", bridgedTrianglesBody)
	require.Equal(t, http.StatusCreated, code, env.Error)
	var record models.GraphRecord
	require.NoError(t, json.Unmarshal(env.Data, &record))
	assert.Equal(t, 6, record.NumVertices)
	assert.Equal(t, 7, record.NumEdges)
	assert.True(t, record.Connected)

	code, env = s.do(t, "GET", "/api/v1/graphs/"+record.ID, "")
	require.Equal(t, http.StatusOK, code)
	var graphResp models.GraphResponse
	require.NoError(t, json.Unmarshal(env.Data, &graphResp))
	assert.Len(t, graphResp.Edges, 7)

	code, env = s.do(t, "POST", "/api/v1/graphs/"+record.ID+"/clustering", `{"clusters": 2}`)
	require.Equal(t, http.StatusAccepted, code, env.Error)
	var job models.Job
	require.NoError(t, json.Unmarshal(env.Data, &job))

	s.jobs.Wait()

	code, env = s.do(t, "GET", "/api/v1/jobs/"+job.ID, "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &job))
	require.Equal(t, models.JobStatusCompleted, job.Status, job.Error)
	home := job.Result.Assignment[0]

	code, env = s.do(t, "POST", "/api/v1/jobs/"+job.ID+"/predict", `{"candidates": [0, 1], "k": 1}`)
	require.Equal(t, http.StatusOK, code, env.Error)
	var prediction models.PredictResponse
	require.NoError(t, json.Unmarshal(env.Data, &prediction))
	assert.Equal(t, home, prediction.Cluster)
	assert.Len(t, prediction.Probabilities, 2)

	code, env = s.do(t, "POST", "/api/v1/jobs/"+job.ID+"/predict", `{"candidates": [0, 1], "k": 3}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "k exceeds candidate count")

	code, _ = s.do(t, "POST", "/api/v1/jobs/"+job.ID+"/predict", `{"candidates": [0, 42], "k": 1}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestFailedJobAndPrediction(t *testing.T) {
	s := newTestServer(t)

	body := `{"numVertices": 4, "edges": [{"u": 0, "v": 1}, {"u": 2, "v": 3}]}`
	code, env := s.do(t, "POST", "/api/v1/graphs", body)
	require.Equal(t, http.StatusCreated, code)
	var record models.GraphRecord
	require.NoError(t, json.Unmarshal(env.Data, &record))
	assert.False(t, record.Connected)

	code, env = s.do(t, "POST", "/api/v1/graphs/"+record.ID+"/clustering", `{"clusters": 2}`)
	require.Equal(t, http.StatusAccepted, code)
	var job models.Job
	require.NoError(t, json.Unmarshal(env.Data, &job))
	s.jobs.Wait()

	_, env = s.do(t, "GET", "/api/v1/jobs/"+job.ID, "")
	require.NoError(t, json.Unmarshal(env.Data, &job))
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, service.KindStructural, job.ErrorKind)

	code, _ = s.do(t, "POST", "/api/v1/jobs/"+job.ID+"/predict", `{"candidates": [0], "k": 1}`)
	assert.Equal(t, http.StatusConflict, code)
}

func TestRequestErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"missing graph", "GET", "/api/v1/graphs/nope", "", http.StatusNotFound},
		{"missing job", "GET", "/api/v1/jobs/nope", "", http.StatusNotFound},
		{"clustering unknown graph", "POST", "/api/v1/graphs/nope/clustering", `{"clusters": 2}`, http.StatusNotFound},
		{"malformed body", "POST", "/api/v1/graphs", `{"numVertices": `, http.StatusBadRequest},
		{"unknown field", "POST", "/api/v1/graphs", `{"vertices": 3}`, http.StatusBadRequest},
		{"empty graph", "POST", "/api/v1/graphs", `{}`, http.StatusBadRequest},
		{"edge out of range", "POST", "/api/v1/graphs", `{"numVertices": 2, "edges": [{"u": 0, "v": 9}]}`, http.StatusBadRequest},
		{"bad generator", "POST", "/api/v1/graphs", `{"generator": {"vertices": 10, "clusters": 2, "pIn": 2}}`, http.StatusBadRequest},
		{"zero clusters", "POST", "/api/v1/graphs/nope/clustering", `{"clusters": 0}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, code)
			assert.False(t, env.Success)
		})
	}
}

func TestHealthMetricsAndCORS(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, "GET", "/api/v1/health", "")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_http_requests_total{method="GET",route="/api/v1/health",status="200"} 1`)

	req := httptest.NewRequest("OPTIONS", "/api/v1/graphs", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
