package clustering

import (
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages clustering configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Algorithm parameters
	v.SetDefault("algorithm.clusters", 3)
	v.SetDefault("algorithm.admission_divisor", 0) // 0 = use the cluster count
	v.SetDefault("algorithm.allow_disconnected", false)

	// Performance parameters
	v.SetDefault("performance.num_workers", runtime.NumCPU())

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.enable_progress", true)

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// Getters for algorithm parameters
func (c *Config) NumClusters() int        { return c.v.GetInt("algorithm.clusters") }
func (c *Config) AdmissionDivisor() int   { return c.v.GetInt("algorithm.admission_divisor") }
func (c *Config) AllowDisconnected() bool { return c.v.GetBool("algorithm.allow_disconnected") }

func (c *Config) NumWorkers() int { return c.v.GetInt("performance.num_workers") }

func (c *Config) LogLevel() string     { return c.v.GetString("logging.level") }
func (c *Config) EnableProgress() bool { return c.v.GetBool("logging.enable_progress") }

// Admission returns the admission policy used by the seed clusterer
func (c *Config) Admission() AdmissionPolicy {
	divisor := c.AdmissionDivisor()
	if divisor <= 0 {
		divisor = c.NumClusters()
	}
	return ToleranceAdmission{Divisor: divisor}
}

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "clustering").Logger()
}
