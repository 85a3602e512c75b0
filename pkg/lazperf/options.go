package lazperf

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/lazperf/pkg/compression"
	"github.com/ajitpratap0/lazperf/pkg/engine"
	"github.com/ajitpratap0/lazperf/pkg/laszip"
	"github.com/ajitpratap0/lazperf/pkg/logger"
)

// Option configures a session.
type Option func(*options)

type options struct {
	compression compression.Config
	chunkSize   uint32
	logger      *zap.Logger
	factory     engine.Factory
}

func newOptions(opts []Option) *options {
	o := &options{
		compression: *compression.DefaultConfig(),
		chunkSize:   laszip.DefaultChunkSize,
		factory:     engine.Default,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	return o
}

// WithAlgorithm selects the block codec used to seal chunks. Decompressors
// take the codec from the VLR and ignore this option.
func WithAlgorithm(algorithm compression.Algorithm) Option {
	return func(o *options) {
		o.compression.Algorithm = algorithm
	}
}

// WithLevel sets the block codec level.
func WithLevel(level compression.Level) Option {
	return func(o *options) {
		o.compression.Level = level
	}
}

// WithChunkSize sets the number of points per chunk.
func WithChunkSize(points uint32) Option {
	return func(o *options) {
		o.chunkSize = points
	}
}

// WithLogger sets the logger sessions derive their loggers from.
// The global logger is used by default.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithEngine replaces the engine factory.
func WithEngine(f engine.Factory) Option {
	return func(o *options) {
		o.factory = f
	}
}
