package lazperf

import (
	"fmt"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lazperf/pkg/engine"
	"github.com/ajitpratap0/lazperf/pkg/errors"
	"github.com/ajitpratap0/lazperf/pkg/logger"
	"github.com/ajitpratap0/lazperf/pkg/metrics"
)

// State is the lifecycle state of a Compressor.
type State int

const (
	// StateActive accepts points.
	StateActive State = iota
	// StateFinalized follows Done; only draining and the chunk table remain.
	StateFinalized
	// StateClosed follows Close.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateFinalized:
		return "finalized"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Compressor compresses point records of one schema into a chunked stream.
//
// The output is produced into an engine-owned buffer. After every call that
// reports available bytes the caller copies InternalData and calls ResetSize.
type Compressor struct {
	id        ksuid.KSUID
	logger    *zap.Logger
	engine    engine.Encoder
	pointSize int
	state     State
	points    uint64

	// viewed is set while bytes handed out by InternalData are still in the
	// engine buffer.
	viewed       bool
	tableWritten bool
	vlr          []byte
}

// NewCompressor binds a new engine to schema. The schema's layout is copied;
// later pushes do not affect the compressor.
func NewCompressor(schema *RecordSchema, opts ...Option) (*Compressor, error) {
	if schema == nil {
		return nil, record(metrics.OpCompress, errors.New(errors.ErrorTypePrecondition, "schema is nil"))
	}
	if err := schema.Err(); err != nil {
		return nil, record(metrics.OpCompress, errors.Wrap(err, errors.ErrorTypePrecondition, "invalid schema"))
	}
	if schema.SizeInBytes() == 0 {
		return nil, record(metrics.OpCompress, errors.New(errors.ErrorTypePrecondition, "schema is empty"))
	}

	o := newOptions(opts)
	id := ksuid.New()
	log := o.logger.With(zap.String(string(logger.SessionIDKey), id.String()))

	enc, err := o.factory.NewEncoder(engine.EncoderConfig{
		Items:       schema.Items(),
		Compression: o.compression,
		ChunkSize:   o.chunkSize,
		Logger:      log,
	})
	if err != nil {
		return nil, record(metrics.OpCompress, errors.Wrap(err, errors.ErrorTypeEngineInit, "failed to create compression engine"))
	}

	metrics.ActiveSessions.WithLabelValues(metrics.OpCompress).Inc()
	log.Debug("compressor opened",
		zap.Int("point_size", schema.SizeInBytes()),
		zap.String("algorithm", string(o.compression.Algorithm)))

	return &Compressor{
		id:        id,
		logger:    log,
		engine:    enc,
		pointSize: schema.SizeInBytes(),
		state:     StateActive,
	}, nil
}

// ID returns the session id used in log fields.
func (c *Compressor) ID() string {
	return c.id.String()
}

// State returns the lifecycle state.
func (c *Compressor) State() State {
	return c.state
}

// PointCount returns the number of points accepted so far.
func (c *Compressor) PointCount() uint64 {
	return c.points
}

// PointSize returns the record size the compressor accepts.
func (c *Compressor) PointSize() int {
	return c.pointSize
}

// CompressOne submits one point record and returns the number of bytes now
// available in the output buffer. Zero is a normal result: the engine holds
// points until a chunk seals.
func (c *Compressor) CompressOne(point []byte) (int, error) {
	if err := c.mutable("CompressOne", StateActive); err != nil {
		return 0, err
	}
	if len(point) != c.pointSize {
		return 0, c.fail(errors.Newf(errors.ErrorTypePrecondition,
			"point is %d bytes, schema expects %d", len(point), c.pointSize))
	}
	n, err := c.engine.Compress(point)
	if err != nil {
		return 0, c.fail(errors.Wrap(err, errors.ErrorTypeInternal, "failed to compress point").
			WithDetail("point", c.points))
	}
	c.points++
	return n, nil
}

// InternalData returns a view of the bytes in the output buffer. The view
// is borrowed: it is valid until the next call on the compressor, and its
// capacity is clipped so appends to it never write into engine storage.
// Reading it twice without an intervening call returns the same bytes.
func (c *Compressor) InternalData() []byte {
	if c.state == StateClosed {
		return nil
	}
	buf := c.engine.Buffer()
	c.viewed = len(buf) > 0
	return buf[:len(buf):len(buf)]
}

// ResetSize empties the output buffer, keeping its storage. Call it once the
// bytes from InternalData have been copied.
func (c *Compressor) ResetSize() {
	if c.state == StateClosed {
		return
	}
	c.engine.ResetSize()
	c.viewed = false
}

// Done seals the open chunk and moves the compressor to StateFinalized. It
// returns the number of bytes available in the output buffer.
func (c *Compressor) Done() (uint64, error) {
	if err := c.mutable("Done", StateActive); err != nil {
		return 0, err
	}
	n, err := c.engine.Done()
	if err != nil {
		return 0, c.fail(errors.Wrap(err, errors.ErrorTypeInternal, "failed to finish stream"))
	}
	c.state = StateFinalized
	c.logger.Debug("compressor finalized",
		zap.Uint64("points", c.points),
		zap.Int64("chunk_table_offset", c.engine.ChunkTableOffset()))
	return n, nil
}

// WriteChunkTable appends the chunk table to the output buffer and returns
// the number of bytes available. It is valid once, after Done.
func (c *Compressor) WriteChunkTable() (uint64, error) {
	if err := c.mutable("WriteChunkTable", StateFinalized); err != nil {
		return 0, err
	}
	if c.tableWritten {
		return 0, c.fail(errors.New(errors.ErrorTypePrecondition, "chunk table already written"))
	}
	n, err := c.engine.WriteChunkTable()
	if err != nil {
		return 0, c.fail(errors.Wrap(err, errors.ErrorTypeInternal, "failed to write chunk table"))
	}
	c.tableWritten = true
	return n, nil
}

// LaszipVlrData returns the LASzip VLR payload a decompressor needs. The
// payload is fetched from the engine once and cached; every call returns a
// fresh copy. After Close only a payload fetched earlier can be returned.
func (c *Compressor) LaszipVlrData() ([]byte, error) {
	if c.vlr == nil {
		if c.state == StateClosed {
			return nil, c.fail(errors.New(errors.ErrorTypePrecondition,
				"LaszipVlrData called on closed compressor before the payload was fetched"))
		}
		buf, err := c.engine.VlrData()
		if err != nil {
			return nil, c.fail(errors.Wrap(err, errors.ErrorTypeInternal, "failed to read laszip vlr"))
		}
		c.vlr = make([]byte, len(buf))
		copy(c.vlr, buf)
		c.engine.ReleaseBuffer(buf)
	}
	out := make([]byte, len(c.vlr))
	copy(out, c.vlr)
	return out, nil
}

// ChunkTableOffset returns the stream position of the chunk table, counted
// from the first byte of the drained stream. It is known after Done.
func (c *Compressor) ChunkTableOffset() (int64, error) {
	if c.state != StateFinalized {
		return 0, c.fail(errors.Newf(errors.ErrorTypePrecondition,
			"ChunkTableOffset requires a finalized compressor, state is %s", c.state))
	}
	return c.engine.ChunkTableOffset(), nil
}

// Close releases the engine. It is safe to call more than once and on every
// exit path, including abandoned streams.
func (c *Compressor) Close() error {
	if c.state == StateClosed {
		return nil
	}
	c.state = StateClosed
	err := c.engine.Close()
	c.engine = nil
	metrics.ActiveSessions.WithLabelValues(metrics.OpCompress).Dec()
	c.logger.Debug("compressor closed", zap.Uint64("points", c.points))
	if err != nil {
		return c.fail(errors.Wrap(err, errors.ErrorTypeInternal, "failed to release compression engine"))
	}
	return nil
}

// mutable checks that op may run in the current state and that no drained
// view is pending.
func (c *Compressor) mutable(op string, want State) error {
	if c.state != want {
		return c.fail(errors.Newf(errors.ErrorTypePrecondition,
			"%s requires state %s, compressor is %s", op, want, c.state))
	}
	if c.viewed {
		return c.fail(errors.Newf(errors.ErrorTypePrecondition,
			"%s called while data from InternalData is still buffered; call ResetSize first", op))
	}
	return nil
}

func (c *Compressor) fail(err error) error {
	return record(metrics.OpCompress, err)
}

// record counts err by operation and error type.
func record(op string, err error) error {
	metrics.Errors.WithLabelValues(op, string(errors.TypeOf(err))).Inc()
	return err
}
