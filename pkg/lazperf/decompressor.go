package lazperf

import (
	"math"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lazperf/pkg/engine"
	"github.com/ajitpratap0/lazperf/pkg/errors"
	"github.com/ajitpratap0/lazperf/pkg/laszip"
	"github.com/ajitpratap0/lazperf/pkg/logger"
	"github.com/ajitpratap0/lazperf/pkg/metrics"
)

// Decompressor decodes point records sequentially from a compressed stream.
type Decompressor struct {
	id        ksuid.KSUID
	logger    *zap.Logger
	engine    engine.Decoder
	vlr       *laszip.Vlr
	pointSize int
	read      uint64
	closed    bool
}

// NewDecompressor binds a session to compressed, which starts at the first
// chunk (any chunk table offset prefix already removed), and to the VLR
// payload produced by the compressor. compressed is read in place and must
// not be modified while the session is open.
func NewDecompressor(compressed []byte, pointSize int, vlr []byte, opts ...Option) (*Decompressor, error) {
	if pointSize <= 0 {
		return nil, record(metrics.OpDecompress, errors.Newf(errors.ErrorTypePrecondition,
			"point size must be positive, got %d", pointSize))
	}
	parsed, err := laszip.ParseVlr(vlr)
	if err != nil {
		return nil, record(metrics.OpDecompress, errors.Wrap(err, errors.ErrorTypePrecondition, "invalid laszip vlr"))
	}
	if parsed.PointSize() != pointSize {
		return nil, record(metrics.OpDecompress, errors.Newf(errors.ErrorTypePrecondition,
			"laszip vlr describes %d byte points, caller passed %d", parsed.PointSize(), pointSize))
	}

	o := newOptions(opts)
	id := ksuid.New()
	log := o.logger.With(zap.String(string(logger.SessionIDKey), id.String()))

	dec, err := o.factory.NewDecoder(compressed, parsed, log)
	if err != nil {
		return nil, record(metrics.OpDecompress, errors.Wrap(err, errors.ErrorTypeEngineInit, "failed to create decompression engine"))
	}

	metrics.ActiveSessions.WithLabelValues(metrics.OpDecompress).Inc()
	log.Debug("decompressor opened",
		zap.Int("point_size", pointSize),
		zap.Int("compressed_bytes", len(compressed)),
		zap.Uint16("coder", parsed.Coder))

	return &Decompressor{
		id:        id,
		logger:    log,
		engine:    dec,
		vlr:       parsed,
		pointSize: pointSize,
	}, nil
}

// ID returns the session id used in log fields.
func (d *Decompressor) ID() string {
	return d.id.String()
}

// Vlr returns the parsed VLR payload.
func (d *Decompressor) Vlr() *laszip.Vlr {
	return d.vlr
}

// PointsRead returns the number of points decoded so far.
func (d *Decompressor) PointsRead() uint64 {
	return d.read
}

// DecompressOneTo decodes the next point into out, which must be exactly one
// point long. Reading past the last point fails with ErrorTypeDecompression.
func (d *Decompressor) DecompressOneTo(out []byte) error {
	if d.closed {
		return d.fail(errors.New(errors.ErrorTypePrecondition, "DecompressOneTo called on closed decompressor"))
	}
	if len(out) != d.pointSize {
		return d.fail(errors.Newf(errors.ErrorTypePrecondition,
			"output is %d bytes, point size is %d", len(out), d.pointSize))
	}
	if err := d.engine.DecompressOne(out); err != nil {
		return d.fail(errors.Wrap(err, errors.ErrorTypeDecompression, "failed to decode point").
			WithDetail("point", d.read))
	}
	d.read++
	return nil
}

// Close releases the engine. It is safe to call more than once.
func (d *Decompressor) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	err := d.engine.Close()
	d.engine = nil
	metrics.ActiveSessions.WithLabelValues(metrics.OpDecompress).Dec()
	d.logger.Debug("decompressor closed", zap.Uint64("points", d.read))
	if err != nil {
		return d.fail(errors.Wrap(err, errors.ErrorTypeInternal, "failed to release decompression engine"))
	}
	return nil
}

func (d *Decompressor) fail(err error) error {
	return record(metrics.OpDecompress, err)
}

// DecompressPoints decodes numPoints records in one call and returns exactly
// numPoints*pointSize bytes. Failures are returned, never fatal.
func DecompressPoints(compressed, vlr []byte, numPoints, pointSize int, opts ...Option) ([]byte, error) {
	if numPoints < 0 {
		return nil, record(metrics.OpDecompress, errors.Newf(errors.ErrorTypePrecondition,
			"point count must not be negative, got %d", numPoints))
	}
	if pointSize > 0 && numPoints > math.MaxInt/pointSize {
		return nil, record(metrics.OpDecompress, errors.Newf(errors.ErrorTypePrecondition,
			"%d points of %d bytes overflow the output buffer", numPoints, pointSize))
	}

	d, err := NewDecompressor(compressed, pointSize, vlr, opts...)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	out := make([]byte, numPoints*pointSize)
	for i := 0; i < numPoints; i++ {
		if err := d.DecompressOneTo(out[i*pointSize : (i+1)*pointSize]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
