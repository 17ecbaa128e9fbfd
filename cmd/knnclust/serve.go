package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gilchrisn/graph-knn-clustering/internal/api"
	"github.com/gilchrisn/graph-knn-clustering/internal/config"
	"github.com/gilchrisn/graph-knn-clustering/internal/metrics"
	"github.com/gilchrisn/graph-knn-clustering/internal/service"
)

func newServeCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the clustering HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFrom(v)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("address", ":8080", "listen address")
	flags.Int("max-workers", 4, "concurrent clustering jobs")
	flags.Bool("allow-disconnected", false, "cluster disconnected graphs instead of rejecting them")

	// flags override the environment only when set explicitly
	_ = v.BindPFlag("server_address", flags.Lookup("address"))
	_ = v.BindPFlag("job_max_workers", flags.Lookup("max-workers"))
	_ = v.BindPFlag("cluster_allow_disconnected", flags.Lookup("allow-disconnected"))

	return cmd
}

func serve(cfg *config.Config) error {
	log.Info().
		Str("address", cfg.Server.Address).
		Int("max_workers", cfg.Jobs.MaxWorkers).
		Dur("job_timeout", cfg.Jobs.JobTimeout).
		Msg("Configuration loaded")

	collector := metrics.NewCollector("knnclust")
	graphService := service.NewGraphService(collector)
	jobService := service.NewJobService(graphService, collector, cfg.Jobs, cfg.Clustering)
	defer jobService.Close()

	handler := api.NewRouter(api.NewHandlers(graphService, jobService), collector)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
		log.Info().Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	log.Info().Msg("Server shutdown complete")
	return nil
}
