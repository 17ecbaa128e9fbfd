package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Jobs       JobConfig
	Clustering ClusteringConfig
}

type ServerConfig struct {
	Address      string        `validate:"required"`
	ReadTimeout  time.Duration `validate:"gt=0"`
	WriteTimeout time.Duration `validate:"gt=0"`
}

type JobConfig struct {
	MaxWorkers      int           `validate:"min=1"`
	JobTimeout      time.Duration `validate:"gt=0"`
	CleanupInterval time.Duration `validate:"gt=0"`
	ResultTTL       time.Duration `validate:"gt=0"`
}

type ClusteringConfig struct {
	NumWorkers        int `validate:"min=1"`
	AllowDisconnected bool
	LogLevel          string `validate:"oneof=trace debug info warn error disabled"`
}

// Load reads configuration from the environment, e.g. SERVER_ADDRESS or
// JOB_MAX_WORKERS, falling back to defaults.
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom reads configuration through v, letting callers bind flags first
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.SetDefault("server_address", ":8080")
	v.SetDefault("server_read_timeout", 30*time.Second)
	v.SetDefault("server_write_timeout", 30*time.Second)

	v.SetDefault("job_max_workers", 4)
	v.SetDefault("job_timeout", 10*time.Minute)
	v.SetDefault("job_cleanup_interval", 5*time.Minute)
	v.SetDefault("job_result_ttl", 1*time.Hour)

	v.SetDefault("cluster_workers", runtime.NumCPU())
	v.SetDefault("cluster_allow_disconnected", false)
	v.SetDefault("cluster_log_level", "warn")

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Address:      v.GetString("server_address"),
			ReadTimeout:  v.GetDuration("server_read_timeout"),
			WriteTimeout: v.GetDuration("server_write_timeout"),
		},
		Jobs: JobConfig{
			MaxWorkers:      v.GetInt("job_max_workers"),
			JobTimeout:      v.GetDuration("job_timeout"),
			CleanupInterval: v.GetDuration("job_cleanup_interval"),
			ResultTTL:       v.GetDuration("job_result_ttl"),
		},
		Clustering: ClusteringConfig{
			NumWorkers:        v.GetInt("cluster_workers"),
			AllowDisconnected: v.GetBool("cluster_allow_disconnected"),
			LogLevel:          v.GetString("cluster_log_level"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
