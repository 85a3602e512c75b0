// Package pipeline drives lazperf sessions between readers and writers.
//
// CompressStream reads fixed-size records from an io.Reader, runs them
// through a Compressor with the full drain protocol, and writes the stream.
// DecompressStream does the reverse into an io.Writer. Both check the
// context between points so long runs can be interrupted.
package pipeline

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/lazperf/pkg/engine"
	"github.com/ajitpratap0/lazperf/pkg/lazperf"
	"github.com/ajitpratap0/lazperf/pkg/logger"
	"github.com/ajitpratap0/lazperf/pkg/observability"
)

// checkEvery is the number of points between context checks.
const checkEvery = 4096

// Result summarizes one compression run.
type Result struct {
	Points           uint64        `json:"points"`
	PointSize        int           `json:"point_size"`
	InputBytes       int64         `json:"input_bytes"`
	OutputBytes      int64         `json:"output_bytes"`
	ChunkTableOffset int64         `json:"chunk_table_offset"`
	Vlr              []byte        `json:"-"`
	Duration         time.Duration `json:"duration"`
}

// Ratio returns output bytes per input byte.
func (r *Result) Ratio() float64 {
	if r.InputBytes == 0 {
		return 0
	}
	return float64(r.OutputBytes) / float64(r.InputBytes)
}

// patchable writers get the real chunk table offset written into the prefix.
type patchable interface {
	io.WriterAt
	io.Seeker
}

// CompressStream compresses every record of src into w. The stream written
// starts with the chunk table offset prefix; when w is seekable and
// supports WriteAt (an *os.File does) the prefix is patched in place.
func CompressStream(ctx context.Context, w io.Writer, src io.Reader, schema *lazperf.RecordSchema,
	log *zap.Logger, opts ...lazperf.Option) (res *Result, err error) {
	ctx, span := observability.StartSpan(ctx, "pipeline.compress")
	defer func() { span.Finish(err) }()
	if log == nil {
		log = logger.Get()
	}

	start := time.Now()
	var base int64 = -1
	if p, ok := w.(patchable); ok {
		if pos, serr := p.Seek(0, io.SeekCurrent); serr == nil {
			base = pos
		}
	}

	c, err := lazperf.NewCompressor(schema, append([]lazperf.Option{lazperf.WithLogger(log)}, opts...)...)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	bw := bufio.NewWriterSize(w, 1<<20)
	res = &Result{PointSize: schema.SizeInBytes()}

	drain := func() error {
		data := c.InternalData()
		if len(data) == 0 {
			return nil
		}
		n, werr := bw.Write(data)
		res.OutputBytes += int64(n)
		c.ResetSize()
		return werr
	}

	point := make([]byte, res.PointSize)
	for {
		if res.Points%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if _, rerr := io.ReadFull(src, point); rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			if errors.Is(rerr, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("input ends inside point %d: %w", res.Points, rerr)
			}
			return nil, fmt.Errorf("failed to read point %d: %w", res.Points, rerr)
		}
		n, err := c.CompressOne(point)
		if err != nil {
			return nil, err
		}
		res.Points++
		res.InputBytes += int64(len(point))
		if n > 0 {
			if err := drain(); err != nil {
				return nil, fmt.Errorf("failed to write stream: %w", err)
			}
		}
	}

	if _, err := c.Done(); err != nil {
		return nil, err
	}
	if err := drain(); err != nil {
		return nil, fmt.Errorf("failed to write stream: %w", err)
	}
	if _, err := c.WriteChunkTable(); err != nil {
		return nil, err
	}
	if err := drain(); err != nil {
		return nil, fmt.Errorf("failed to write stream: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush stream: %w", err)
	}

	if res.ChunkTableOffset, err = c.ChunkTableOffset(); err != nil {
		return nil, err
	}
	if res.Vlr, err = c.LaszipVlrData(); err != nil {
		return nil, err
	}

	if base >= 0 {
		prefix := binary.LittleEndian.AppendUint64(nil, uint64(res.ChunkTableOffset))
		if _, err := w.(patchable).WriteAt(prefix, base); err != nil {
			return nil, fmt.Errorf("failed to patch chunk table offset: %w", err)
		}
	}

	res.Duration = time.Since(start)
	span.SetAttribute("points", res.Points)
	span.SetAttribute("output_bytes", res.OutputBytes)
	log.Info("stream compressed",
		zap.String("session_id", c.ID()),
		zap.Uint64("points", res.Points),
		zap.Int64("input_bytes", res.InputBytes),
		zap.Int64("output_bytes", res.OutputBytes),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// DecompressStream decodes numPoints records from stream, which includes
// the chunk table offset prefix, and writes them to w.
func DecompressStream(ctx context.Context, w io.Writer, stream, vlr []byte, numPoints uint64, pointSize int,
	log *zap.Logger, opts ...lazperf.Option) (written int64, err error) {
	ctx, span := observability.StartSpan(ctx, "pipeline.decompress")
	defer func() { span.Finish(err) }()
	if log == nil {
		log = logger.Get()
	}

	if len(stream) < engine.PrefixSize {
		return 0, fmt.Errorf("stream of %d bytes has no chunk table offset prefix", len(stream))
	}

	d, err := lazperf.NewDecompressor(stream[engine.PrefixSize:], pointSize, vlr,
		append([]lazperf.Option{lazperf.WithLogger(log)}, opts...)...)
	if err != nil {
		return 0, err
	}
	defer d.Close()

	bw := bufio.NewWriterSize(w, 1<<20)
	point := make([]byte, pointSize)
	for i := uint64(0); i < numPoints; i++ {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return written, err
			}
		}
		if err := d.DecompressOneTo(point); err != nil {
			return written, err
		}
		n, werr := bw.Write(point)
		written += int64(n)
		if werr != nil {
			return written, fmt.Errorf("failed to write points: %w", werr)
		}
	}
	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("failed to flush points: %w", err)
	}

	span.SetAttribute("points", numPoints)
	log.Info("stream decompressed",
		zap.String("session_id", d.ID()),
		zap.Uint64("points", numPoints),
		zap.Int64("bytes", written))
	return written, nil
}
