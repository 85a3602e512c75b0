// Package config provides the configuration for lazperf tools and sessions.
//
// # Overview
//
// A single Config structure groups every setting:
//
//	type Config struct {
//		Codec         CodecConfig         `yaml:"codec"`
//		Logging       logger.Config       `yaml:"logging"`
//		Observability ObservabilityConfig `yaml:"observability"`
//	}
//
// - Codec: block codec, level, and points per chunk
// - Logging: zap level, encoding, and outputs
// - Observability: Prometheus endpoint and stdout tracing
//
// # Usage Pattern
//
// 1. Start from config.Default()
// 2. Overlay a YAML file with config.Load(); ${VAR} and ${VAR:-default} references are replaced
// with environment values before parsing
// 3. Call Validate() before building sessions
//
// Example YAML:
//
//	codec:
//	  algorithm: zstd
//	  level: best
//	  chunk_size: 50000
//	logging:
//	  level: ${LAZPERF_LOG_LEVEL}
package config
