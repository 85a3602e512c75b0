package engine

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/ajitpratap0/lazperf/pkg/compression"
	"github.com/ajitpratap0/lazperf/pkg/laszip"
	"github.com/ajitpratap0/lazperf/pkg/metrics"
	"github.com/ajitpratap0/lazperf/pkg/pool"
)

type chunkedDecoder struct {
	logger    *zap.Logger
	data      []byte
	pos       int
	widths    []int
	pointSize int
	chunkSize uint32
	codec     compression.Codec

	chunkIndex  int
	chunk       []byte // residuals of the open chunk, point-major
	chunkPoints int
	next        int
	prev        []byte

	err    error // sticky once the stream is found corrupt or exhausted
	closed bool
}

func newChunkedDecoder(compressed []byte, vlr *laszip.Vlr, logger *zap.Logger) (*chunkedDecoder, error) {
	if vlr == nil {
		return nil, fmt.Errorf("missing laszip vlr")
	}
	if err := vlr.Validate(); err != nil {
		return nil, err
	}
	codec, err := compression.NewCodecForCoder(vlr.Coder)
	if err != nil {
		return nil, fmt.Errorf("failed to create block codec: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	pointSize := vlr.PointSize()
	return &chunkedDecoder{
		logger:    logger,
		data:      compressed,
		widths:    layout(vlr.Items),
		pointSize: pointSize,
		chunkSize: vlr.ChunkSize,
		codec:     codec,
		prev:      pool.GlobalBufferPool.Get(pointSize),
	}, nil
}

func (d *chunkedDecoder) DecompressOne(out []byte) error {
	if d.closed {
		return ErrClosed
	}
	if len(out) != d.pointSize {
		return fmt.Errorf("output is %d bytes, expected %d", len(out), d.pointSize)
	}
	if d.err != nil {
		return d.err
	}
	if d.next == d.chunkPoints {
		if err := d.openChunk(); err != nil {
			d.err = err
			return err
		}
	}

	off := d.next * d.pointSize
	reconstruct(out, d.chunk[off:off+d.pointSize], d.prev, d.widths)
	copy(d.prev, out)
	d.next++
	metrics.PointsProcessed.WithLabelValues(metrics.OpDecompress).Inc()
	return nil
}

// openChunk decodes the next chunk's residuals.
func (d *chunkedDecoder) openChunk() error {
	timer := metrics.NewTimer("open_chunk")

	points, payload, err := readChunk(d.data[d.pos:])
	if err != nil {
		return fmt.Errorf("chunk %d at offset %d: %w", d.chunkIndex, d.pos, err)
	}
	// no chunk holds more than the VLR chunk size
	if points > d.chunkSize || uint64(points) > uint64(math.MaxInt32/d.pointSize) {
		return fmt.Errorf("%w: chunk %d claims %d points, chunk size is %d",
			ErrCorrupt, d.chunkIndex, points, d.chunkSize)
	}
	size := int(points) * d.pointSize

	raw, err := d.codec.Decompress(payload, size)
	if err != nil {
		return fmt.Errorf("%w: chunk %d: %v", ErrCorrupt, d.chunkIndex, err)
	}

	if d.chunk != nil {
		pool.GlobalBufferPool.Put(d.chunk)
	}
	d.chunk = pool.GlobalBufferPool.Get(size)
	untranspose(d.chunk, raw, d.pointSize)

	consumed := chunkHeaderSize + len(payload)
	d.pos += consumed
	d.chunkPoints = int(points)
	d.next = 0
	clear(d.prev)

	metrics.ChunksProcessed.WithLabelValues(metrics.OpDecompress).Inc()
	metrics.BytesProcessed.WithLabelValues(metrics.OpDecompress).Add(float64(consumed))
	metrics.ChunkLatency.WithLabelValues(metrics.OpDecompress).Observe(timer.Stop().Seconds())
	d.logger.Debug("chunk opened",
		zap.Int("chunk", d.chunkIndex),
		zap.Uint32("points", points),
		zap.Int("compressed_bytes", len(payload)))

	d.chunkIndex++
	return nil
}

func (d *chunkedDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	pool.GlobalBufferPool.Put(d.prev)
	if d.chunk != nil {
		pool.GlobalBufferPool.Put(d.chunk)
	}
	d.prev, d.chunk, d.data = nil, nil, nil
	return nil
}
