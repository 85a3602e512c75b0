package engine

import (
	"encoding/binary"
	"fmt"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lazperf/pkg/compression"
	"github.com/ajitpratap0/lazperf/pkg/laszip"
	"github.com/ajitpratap0/lazperf/pkg/metrics"
	"github.com/ajitpratap0/lazperf/pkg/pool"
)

// initialChunkPoints bounds the residual buffer taken from the pool up front;
// larger chunks grow it by append.
const initialChunkPoints = 4096

type chunkedEncoder struct {
	id        ksuid.KSUID
	logger    *zap.Logger
	vlr       *laszip.Vlr
	widths    []int
	pointSize int
	chunkSize uint32
	codec     compression.Codec

	prev        []byte
	undo        []byte // prev before the last point, restored when a seal fails
	residuals   []byte
	chunkPoints uint32

	out           []byte
	emitted       uint64 // bytes appended to out over the encoder lifetime
	prefixWritten bool
	chunks        []chunkEntry
	tableOffset   int64

	done         bool
	tableWritten bool
	closed       bool
}

func newChunkedEncoder(cfg EncoderConfig) (*chunkedEncoder, error) {
	if len(cfg.Items) == 0 {
		return nil, fmt.Errorf("encoder needs at least one item")
	}
	for i, it := range cfg.Items {
		if err := it.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	chunkSize := cfg.ChunkSize
	if chunkSize == 0 {
		chunkSize = laszip.DefaultChunkSize
	}
	if chunkSize == laszip.VariableChunkSize {
		return nil, fmt.Errorf("variable chunk size is not supported")
	}

	codec, err := compression.NewCodec(&cfg.Compression)
	if err != nil {
		return nil, fmt.Errorf("failed to create block codec: %w", err)
	}
	coder, err := cfg.Compression.Algorithm.CoderID()
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := ksuid.New()
	pointSize := laszip.PointSize(cfg.Items)

	initial := int(chunkSize)
	if initial > initialChunkPoints {
		initial = initialChunkPoints
	}

	e := &chunkedEncoder{
		id:          id,
		logger:      logger.With(zap.String("engine_id", id.String())),
		vlr:         laszip.NewVlr(cfg.Items, coder, chunkSize),
		widths:      layout(cfg.Items),
		pointSize:   pointSize,
		chunkSize:   chunkSize,
		codec:       codec,
		prev:        pool.GlobalBufferPool.Get(pointSize),
		undo:        pool.GlobalBufferPool.Get(pointSize),
		residuals:   pool.GlobalBufferPool.Get(initial * pointSize)[:0],
		tableOffset: -1,
	}

	e.logger.Debug("encoder created",
		zap.Int("point_size", pointSize),
		zap.Uint32("chunk_size", chunkSize),
		zap.String("algorithm", string(cfg.Compression.Algorithm)),
		zap.Stringer("level", cfg.Compression.Level))

	return e, nil
}

func (e *chunkedEncoder) Compress(point []byte) (int, error) {
	if e.closed {
		return 0, ErrClosed
	}
	if e.done {
		return 0, ErrFinished
	}
	if len(point) != e.pointSize {
		return 0, fmt.Errorf("point is %d bytes, expected %d", len(point), e.pointSize)
	}

	if e.chunkPoints == 0 {
		clear(e.prev)
	}
	mark := len(e.residuals)
	copy(e.undo, e.prev)
	e.residuals = predict(e.residuals, point, e.prev, e.widths)
	copy(e.prev, point)
	e.chunkPoints++

	if e.chunkPoints == e.chunkSize {
		if err := e.seal(); err != nil {
			// the point is not accepted
			e.residuals = e.residuals[:mark]
			copy(e.prev, e.undo)
			e.chunkPoints--
			return 0, err
		}
	}
	metrics.PointsProcessed.WithLabelValues(metrics.OpCompress).Inc()
	return len(e.out), nil
}

func (e *chunkedEncoder) writePrefix() {
	if e.prefixWritten {
		return
	}
	e.append(binary.LittleEndian.AppendUint64(nil, uint64(0xFFFFFFFFFFFFFFFF)))
	e.prefixWritten = true
}

func (e *chunkedEncoder) append(b []byte) {
	e.out = append(e.out, b...)
	e.emitted += uint64(len(b))
}

// seal compresses the open chunk into the output buffer.
func (e *chunkedEncoder) seal() error {
	timer := metrics.NewTimer("seal_chunk")

	planes := pool.GlobalBufferPool.Get(len(e.residuals))
	transpose(planes, e.residuals, e.pointSize)
	payload, err := e.codec.Compress(planes)
	pool.GlobalBufferPool.Put(planes)
	if err != nil {
		return fmt.Errorf("failed to seal chunk %d: %w", len(e.chunks), err)
	}

	e.writePrefix()
	before := e.emitted
	e.out = appendChunk(e.out, e.chunkPoints, payload)
	e.emitted += uint64(chunkHeaderSize + len(payload))
	e.chunks = append(e.chunks, chunkEntry{Points: e.chunkPoints, Bytes: e.emitted - before})

	metrics.ChunksProcessed.WithLabelValues(metrics.OpCompress).Inc()
	metrics.BytesProcessed.WithLabelValues(metrics.OpCompress).Add(float64(e.emitted - before))
	metrics.ChunkLatency.WithLabelValues(metrics.OpCompress).Observe(timer.Stop().Seconds())
	e.logger.Debug("chunk sealed",
		zap.Int("chunk", len(e.chunks)-1),
		zap.Uint32("points", e.chunkPoints),
		zap.Int("raw_bytes", len(e.residuals)),
		zap.Int("compressed_bytes", len(payload)),
		zap.Duration("duration", timer.Stop()))

	e.residuals = e.residuals[:0]
	e.chunkPoints = 0
	return nil
}

func (e *chunkedEncoder) Done() (uint64, error) {
	if e.closed {
		return 0, ErrClosed
	}
	if e.done {
		return 0, ErrFinished
	}
	if e.chunkPoints > 0 {
		if err := e.seal(); err != nil {
			return 0, err
		}
	}
	e.writePrefix()
	e.done = true
	e.tableOffset = int64(e.emitted)
	e.logger.Debug("encoder done",
		zap.Int("chunks", len(e.chunks)),
		zap.Int64("chunk_table_offset", e.tableOffset))
	return uint64(len(e.out)), nil
}

func (e *chunkedEncoder) WriteChunkTable() (uint64, error) {
	if e.closed {
		return 0, ErrClosed
	}
	if !e.done {
		return 0, fmt.Errorf("chunk table requested before done")
	}
	if e.tableWritten {
		return 0, fmt.Errorf("chunk table already written")
	}
	before := len(e.out)
	e.out = appendChunkTable(e.out, e.chunks)
	e.emitted += uint64(len(e.out) - before)
	e.tableWritten = true
	return uint64(len(e.out)), nil
}

func (e *chunkedEncoder) Buffer() []byte {
	return e.out
}

func (e *chunkedEncoder) ResetSize() {
	e.out = e.out[:0]
}

func (e *chunkedEncoder) VlrData() ([]byte, error) {
	if e.closed {
		return nil, ErrClosed
	}
	buf := pool.GlobalBufferPool.Get(e.vlr.Size())
	return e.vlr.AppendBinary(buf[:0]), nil
}

func (e *chunkedEncoder) ReleaseBuffer(buf []byte) {
	pool.GlobalBufferPool.Put(buf)
}

func (e *chunkedEncoder) ChunkTableOffset() int64 {
	return e.tableOffset
}

func (e *chunkedEncoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	pool.GlobalBufferPool.Put(e.prev)
	pool.GlobalBufferPool.Put(e.undo)
	pool.GlobalBufferPool.Put(e.residuals)
	e.prev, e.undo, e.residuals, e.out = nil, nil, nil, nil
	return nil
}
