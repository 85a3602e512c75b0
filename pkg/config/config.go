package config

import (
	"fmt"

	"github.com/ajitpratap0/lazperf/pkg/compression"
	"github.com/ajitpratap0/lazperf/pkg/laszip"
	"github.com/ajitpratap0/lazperf/pkg/logger"
)

// Config is the top-level configuration.
type Config struct {
	// Codec settings control how chunks are sealed
	Codec CodecConfig `yaml:"codec" json:"codec" mapstructure:"codec"`

	// Logging configures the global zap logger
	Logging logger.Config `yaml:"logging" json:"logging" mapstructure:"logging"`

	// Observability toggles metrics and tracing
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`
}

// CodecConfig contains the chunk codec settings recorded in the LASzip VLR.
type CodecConfig struct {
	// Algorithm selects the block codec (none, zstd, lz4, s2, snappy, gzip, deflate)
	Algorithm string `yaml:"algorithm" json:"algorithm" mapstructure:"algorithm"`
	// Level sets compression ratio vs speed (fastest, default, better, best)
	Level string `yaml:"level" json:"level" mapstructure:"level"`
	// ChunkSize is the number of points per chunk
	ChunkSize uint32 `yaml:"chunk_size" json:"chunk_size" mapstructure:"chunk_size"`
}

// ObservabilityConfig contains monitoring settings.
type ObservabilityConfig struct {
	// EnableMetrics serves Prometheus metrics on MetricsAddr
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics" mapstructure:"enable_metrics"`
	// MetricsAddr is the listen address of the metrics endpoint
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr" mapstructure:"metrics_addr"`
	// EnableTracing exports spans to stdout
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing" mapstructure:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate" mapstructure:"tracing_sample_rate"`
}

// Default returns a Config with production defaults: zstd at the default
// level and the LASzip default chunk size.
//
// Example:
//
//	cfg := config.Default()
//	cfg.Codec.ChunkSize = 10000 // Override default
func Default() *Config {
	return &Config{
		Codec: CodecConfig{
			Algorithm: string(compression.Zstd),
			Level:     compression.Default.String(),
			ChunkSize: laszip.DefaultChunkSize,
		},
		Logging: logger.Config{
			Level:       "info",
			Encoding:    "console",
			OutputPaths: []string{"stderr"},
		},
		Observability: ObservabilityConfig{
			EnableMetrics:     false,
			MetricsAddr:       ":9090",
			EnableTracing:     false,
			TracingSampleRate: 1.0,
		},
	}
}

// Validate checks that values are within acceptable ranges.
func (c *Config) Validate() error {
	if _, err := c.Codec.CompressionConfig(); err != nil {
		return err
	}
	if c.Codec.ChunkSize == 0 || c.Codec.ChunkSize == laszip.VariableChunkSize {
		return fmt.Errorf("chunk_size must be positive and fixed, got %d", c.Codec.ChunkSize)
	}
	if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
		return fmt.Errorf("tracing_sample_rate must be within [0, 1], got %g", c.Observability.TracingSampleRate)
	}
	if c.Observability.EnableMetrics && c.Observability.MetricsAddr == "" {
		return fmt.Errorf("metrics_addr is required when metrics are enabled")
	}
	return nil
}

// CompressionConfig parses the algorithm and level names.
func (c *CodecConfig) CompressionConfig() (*compression.Config, error) {
	algorithm, err := compression.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("codec.algorithm: %w", err)
	}
	level, err := compression.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("codec.level: %w", err)
	}
	return &compression.Config{Algorithm: algorithm, Level: level}, nil
}
