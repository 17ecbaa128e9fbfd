package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/gilchrisn/graph-knn-clustering/internal/metrics"
)

func SetupRoutes(router *mux.Router, handlers *Handlers) {
	// API version prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	// Graph endpoints
	graphs := api.PathPrefix("/graphs").Subrouter()
	graphs.HandleFunc("", handlers.CreateGraph).Methods("POST")
	graphs.HandleFunc("/{graphId}", handlers.GetGraph).Methods("GET")
	graphs.HandleFunc("/{graphId}/clustering", handlers.StartClustering).Methods("POST")

	// Job endpoints
	jobs := api.PathPrefix("/jobs").Subrouter()
	jobs.HandleFunc("/{jobId}", handlers.GetJob).Methods("GET")
	jobs.HandleFunc("/{jobId}/predict", handlers.Predict).Methods("POST")

	// Health check endpoint
	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
}

// NewRouter builds the router with routes, metrics and the middleware stack
func NewRouter(handlers *Handlers, collector *metrics.Collector) http.Handler {
	router := mux.NewRouter()
	SetupRoutes(router, handlers)
	router.Handle("/metrics", collector.Handler()).Methods("GET")

	router.Use(LoggingMiddleware)
	router.Use(MetricsMiddleware(collector))
	router.Use(RecoveryMiddleware)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	})
	return c.Handler(router)
}
