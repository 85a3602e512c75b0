// Package compression provides the block codecs that seal chunks of point
// residuals in the lazperf engine.
//
// # Overview
//
// The compression package provides:
//   - Multiple block algorithms (Zstd, LZ4, S2, Snappy, Gzip, Deflate)
//   - Configurable compression levels (Fastest, Default, Better, Best)
//   - A stable numeric coder id per algorithm, recorded in the LASzip VLR so a
//     decoder can rebuild the same codec from the metadata alone
//   - Bounded decompression: callers pass the expected decoded size and any
//     block that inflates past it is rejected
//
// # Algorithm Selection
//
//   - Zstd: best ratio on delta residuals, the default
//   - LZ4 / S2 / Snappy: fastest, moderate ratio
//   - Gzip / Deflate: wide compatibility
//
// # Basic Usage
//
//	codec, err := compression.NewCodec(&compression.Config{
//	    Algorithm: compression.Zstd,
//	    Level:     compression.Default,
//	})
//	sealed, err := codec.Compress(residuals)
//	raw, err := codec.Decompress(sealed, len(residuals))
//
// All codecs are safe for concurrent use.
package compression

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/lazperf/pkg/pool"
)

// Algorithm represents a block compression algorithm.
type Algorithm string

const (
	// None stores blocks uncompressed
	None Algorithm = "none"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// S2 represents s2 block compression
	S2 Algorithm = "s2"
	// Snappy represents snappy block compression
	Snappy Algorithm = "snappy"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Deflate represents raw deflate compression
	Deflate Algorithm = "deflate"
)

// Coder ids written to the coder field of the LASzip VLR. Zero is the LASzip
// arithmetic coder, which no codec here implements.
const (
	CoderArithmetic uint16 = 0
	coderNone       uint16 = 1
	coderZstd       uint16 = 2
	coderLZ4        uint16 = 3
	coderS2         uint16 = 4
	coderSnappy     uint16 = 5
	coderGzip       uint16 = 6
	coderDeflate    uint16 = 7
)

var coderIDs = map[Algorithm]uint16{
	None:    coderNone,
	Zstd:    coderZstd,
	LZ4:     coderLZ4,
	S2:      coderS2,
	Snappy:  coderSnappy,
	Gzip:    coderGzip,
	Deflate: coderDeflate,
}

// Algorithms lists every supported algorithm.
func Algorithms() []Algorithm {
	return []Algorithm{None, Zstd, LZ4, S2, Snappy, Gzip, Deflate}
}

// CoderID returns the VLR coder id of the algorithm.
func (a Algorithm) CoderID() (uint16, error) {
	id, ok := coderIDs[a]
	if !ok {
		return 0, fmt.Errorf("unsupported compression algorithm: %s", a)
	}
	return id, nil
}

// AlgorithmForCoder maps a VLR coder id back to its algorithm.
func AlgorithmForCoder(id uint16) (Algorithm, error) {
	for alg, cid := range coderIDs {
		if cid == id {
			return alg, nil
		}
	}
	if id == CoderArithmetic {
		return "", fmt.Errorf("arithmetic coder is not supported")
	}
	return "", fmt.Errorf("unknown coder id: %d", id)
}

// ParseAlgorithm parses a case-insensitive algorithm name.
func ParseAlgorithm(s string) (Algorithm, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := coderIDs[alg]; !ok {
		return "", fmt.Errorf("unsupported compression algorithm: %s", s)
	}
	return alg, nil
}

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

// String returns the level name
func (l Level) String() string {
	switch l {
	case Fastest:
		return "fastest"
	case Default:
		return "default"
	case Better:
		return "better"
	case Best:
		return "best"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel parses a level name such as "best".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fastest":
		return Fastest, nil
	case "", "default":
		return Default, nil
	case "better":
		return Better, nil
	case "best":
		return Best, nil
	default:
		return 0, fmt.Errorf("unknown compression level: %s", s)
	}
}

// Codec compresses and decompresses whole blocks.
type Codec interface {
	// Compress returns the compressed form of data. The input is not modified.
	Compress(data []byte) ([]byte, error)

	// Decompress returns the decoded form of data, which must be exactly
	// size bytes long.
	Decompress(data []byte, size int) ([]byte, error)

	// Algorithm returns the compression algorithm used.
	Algorithm() Algorithm

	// Level returns the compression level configured.
	Level() Level
}

// Config represents codec configuration.
type Config struct {
	Algorithm Algorithm // Compression algorithm to use
	Level     Level     // Compression level
}

// DefaultConfig returns the default codec configuration: zstd at the default level.
func DefaultConfig() *Config {
	return &Config{
		Algorithm: Zstd,
		Level:     Default,
	}
}

// NewCodec creates a codec from config. If config is nil, DefaultConfig is used.
func NewCodec(config *Config) (Codec, error) {
	if config == nil {
		config = DefaultConfig()
	}
	level := config.Level
	if level == 0 {
		level = Default
	}

	base := baseCodec{algorithm: config.Algorithm, level: level}
	switch config.Algorithm {
	case None:
		return &noneCodec{baseCodec: base}, nil
	case Zstd:
		return newZstdCodec(base)
	case LZ4:
		return &lz4Codec{baseCodec: base, compressionLevel: mapLZ4Level(level)}, nil
	case S2:
		return &s2Codec{baseCodec: base}, nil
	case Snappy:
		return &snappyCodec{baseCodec: base}, nil
	case Gzip:
		return newGzipCodec(base)
	case Deflate:
		return &deflateCodec{baseCodec: base, flateLevel: mapDeflateLevel(level)}, nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", config.Algorithm)
	}
}

// NewCodecForCoder creates the codec recorded under a VLR coder id.
func NewCodecForCoder(id uint16) (Codec, error) {
	alg, err := AlgorithmForCoder(id)
	if err != nil {
		return nil, err
	}
	return NewCodec(&Config{Algorithm: alg, Level: Default})
}

// scratch buffers for the stream-oriented codecs
var bufferPool = pool.New(
	func() *bytes.Buffer { return new(bytes.Buffer) },
	func(b *bytes.Buffer) { b.Reset() },
)

func checkSize(algorithm Algorithm, got, want int) error {
	if got != want {
		return fmt.Errorf("%s decompress: expected %d bytes, got %d", algorithm, want, got)
	}
	return nil
}

// readBounded drains r into a fresh slice, failing once more than size bytes appear.
func readBounded(algorithm Algorithm, r io.Reader, size int) ([]byte, error) {
	buf := bufferPool.Get()
	defer bufferPool.Put(buf)

	buf.Grow(size)
	n, err := io.Copy(buf, io.LimitReader(r, int64(size)+1))
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %w", algorithm, err)
	}
	if err := checkSize(algorithm, int(n), size); err != nil {
		return nil, err
	}

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// Base codec implementation
type baseCodec struct {
	algorithm Algorithm
	level     Level
}

// Algorithm returns the compression algorithm
func (bc *baseCodec) Algorithm() Algorithm {
	return bc.algorithm
}

// Level returns the compression level
func (bc *baseCodec) Level() Level {
	return bc.level
}

// None codec (no compression)
type noneCodec struct {
	baseCodec
}

func (nc *noneCodec) Compress(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (nc *noneCodec) Decompress(data []byte, size int) ([]byte, error) {
	if err := checkSize(nc.algorithm, len(data), size); err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Zstd codec
type zstdCodec struct {
	baseCodec
	encoderPool sync.Pool
	decoderPool sync.Pool
}

func newZstdCodec(base baseCodec) (*zstdCodec, error) {
	level := mapZstdLevel(base.level)

	// Fail fast on a broken encoder configuration instead of inside the pool.
	probe, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}

	zc := &zstdCodec{baseCodec: base}
	zc.encoderPool.Put(probe)

	zc.encoderPool.New = func() interface{} {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
		return enc
	}

	zc.decoderPool.New = func() interface{} {
		dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		return dec
	}

	return zc, nil
}

func (zc *zstdCodec) Compress(data []byte) ([]byte, error) {
	enc := zc.encoderPool.Get().(*zstd.Encoder)
	defer zc.encoderPool.Put(enc)

	return enc.EncodeAll(data, nil), nil
}

func (zc *zstdCodec) Decompress(data []byte, size int) ([]byte, error) {
	dec := zc.decoderPool.Get().(*zstd.Decoder)
	defer zc.decoderPool.Put(dec)

	out, err := dec.DecodeAll(data, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if err := checkSize(zc.algorithm, len(out), size); err != nil {
		return nil, err
	}
	return out, nil
}

// LZ4 codec
type lz4Codec struct {
	baseCodec
	compressionLevel lz4.CompressionLevel
}

func (lc *lz4Codec) Compress(data []byte) ([]byte, error) {
	buf := bufferPool.Get()
	defer bufferPool.Put(buf)

	w := lz4.NewWriter(buf)
	if err := w.Apply(lz4.CompressionLevelOption(lc.compressionLevel)); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

func (lc *lz4Codec) Decompress(data []byte, size int) ([]byte, error) {
	return readBounded(lc.algorithm, lz4.NewReader(bytes.NewReader(data)), size)
}

// S2 codec
type s2Codec struct {
	baseCodec
}

func (sc *s2Codec) Compress(data []byte) ([]byte, error) {
	if sc.level >= Better {
		return s2.EncodeBetter(nil, data), nil
	}
	return s2.Encode(nil, data), nil
}

func (sc *s2Codec) Decompress(data []byte, size int) ([]byte, error) {
	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("s2 decompress: %w", err)
	}
	if err := checkSize(sc.algorithm, n, size); err != nil {
		return nil, err
	}
	out, err := s2.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("s2 decompress: %w", err)
	}
	return out, nil
}

// Snappy codec
type snappyCodec struct {
	baseCodec
}

func (sc *snappyCodec) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (sc *snappyCodec) Decompress(data []byte, size int) ([]byte, error) {
	n, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress: %w", err)
	}
	if err := checkSize(sc.algorithm, n, size); err != nil {
		return nil, err
	}
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress: %w", err)
	}
	return out, nil
}

// Gzip codec
type gzipCodec struct {
	baseCodec
	writerPool sync.Pool
}

func newGzipCodec(base baseCodec) (*gzipCodec, error) {
	level := mapGzipLevel(base.level)
	if _, err := gzip.NewWriterLevel(io.Discard, level); err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}

	gc := &gzipCodec{baseCodec: base}
	gc.writerPool.New = func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, level)
		return w
	}
	return gc, nil
}

func (gc *gzipCodec) Compress(data []byte) ([]byte, error) {
	buf := bufferPool.Get()
	defer bufferPool.Put(buf)

	w := gc.writerPool.Get().(*gzip.Writer)
	defer gc.writerPool.Put(w)

	w.Reset(buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

func (gc *gzipCodec) Decompress(data []byte, size int) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip decompress: %w", err)
	}
	defer r.Close()
	return readBounded(gc.algorithm, r, size)
}

// Deflate codec
type deflateCodec struct {
	baseCodec
	flateLevel int
}

func (dc *deflateCodec) Compress(data []byte) ([]byte, error) {
	buf := bufferPool.Get()
	defer bufferPool.Put(buf)

	w, err := flate.NewWriter(buf, dc.flateLevel)
	if err != nil {
		return nil, fmt.Errorf("deflate compress: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("deflate compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("deflate compress: %w", err)
	}

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

func (dc *deflateCodec) Decompress(data []byte, size int) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	return readBounded(dc.algorithm, r, size)
}

// Helper functions to map compression levels

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func mapDeflateLevel(level Level) int {
	switch level {
	case Fastest:
		return flate.BestSpeed
	case Best:
		return flate.BestCompression
	default:
		return flate.DefaultCompression
	}
}
