// Package metrics provides Prometheus instrumentation for lazperf sessions.
//
// # Overview
//
// The metrics package provides:
//   - Counters for points, sealed chunks, and bytes moved through sessions
//   - A counter of failures by error type
//   - A histogram of chunk seal latency
//   - A Timer helper for measuring operations
//
// # Basic Usage
//
//	metrics.PointsProcessed.WithLabelValues(metrics.OpCompress).Inc()
//
//	timer := metrics.NewTimer("seal_chunk")
//	sealChunk()
//	metrics.ChunkLatency.WithLabelValues(metrics.OpCompress).Observe(timer.Stop().Seconds())
//
// All metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation label values.
const (
	OpCompress   = "compress"
	OpDecompress = "decompress"
)

var (
	// PointsProcessed counts point records encoded or decoded.
	// Labels: operation (compress/decompress)
	PointsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazperf_points_total",
			Help: "Total number of point records processed",
		},
		[]string{"operation"},
	)

	// ChunksProcessed counts chunks sealed by encoders or opened by decoders.
	// Labels: operation (compress/decompress)
	ChunksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazperf_chunks_total",
			Help: "Total number of chunks sealed or opened",
		},
		[]string{"operation"},
	)

	// BytesProcessed counts compressed bytes emitted by encoders or consumed by decoders.
	// Labels: operation (compress/decompress)
	BytesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazperf_compressed_bytes_total",
			Help: "Total number of compressed bytes emitted or consumed",
		},
		[]string{"operation"},
	)

	// Errors counts session failures.
	// Labels: operation, type (error type such as precondition or decompression_failed)
	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazperf_errors_total",
			Help: "Total number of session errors",
		},
		[]string{"operation", "type"},
	)

	// ChunkLatency tracks how long sealing or opening one chunk takes, in seconds.
	// Labels: operation
	ChunkLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "lazperf_chunk_duration_seconds",
			Help: "Time spent sealing or opening a chunk",
			Buckets: []float64{
				1e-5, // 10μs - tiny chunks
				1e-4, // 100μs
				1e-3, // 1ms
				1e-2, // 10ms - default 50k point chunks
				1e-1, // 100ms
				1,    // 1s - very large chunks at best level
			},
		},
		[]string{"operation"},
	)

	// ActiveSessions tracks open compressor and decompressor sessions.
	// Labels: operation
	ActiveSessions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lazperf_active_sessions",
			Help: "Number of open codec sessions",
		},
		[]string{"operation"},
	)
)

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer name
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It can be called
// multiple times.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
