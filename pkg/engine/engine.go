// Package engine provides the point compression engines that sessions drive.
//
// An engine turns fixed-size point records into a chunked byte stream and
// back. Sessions in package lazperf own exactly one engine each and never
// share it; engines are therefore not safe for concurrent use.
//
// The Default factory builds the chunked predictive engine: each point is
// predicted from the previous point of the same chunk field by field, the
// wrapping residuals are gathered per chunk and sealed with a block codec
// from package compression.
//
// # Stream layout
//
//	prefix      int64 LE chunk table offset, written as -1
//	chunk...    u32 points | u32 payload length | u32 CRC-32 | payload
//	chunk table u32 version | u32 chunk count | (u32 points, u64 bytes)...
//
// Decoders take the stream with the 8-byte prefix already removed, the way
// LAZ readers skip it before point data.
package engine

import (
	"errors"

	"go.uber.org/zap"

	"github.com/ajitpratap0/lazperf/pkg/compression"
	"github.com/ajitpratap0/lazperf/pkg/laszip"
)

// PrefixSize is the size of the chunk table offset that precedes the chunks.
const PrefixSize = 8

var (
	// ErrEndOfPoints is returned when a decoder is asked for a point after the
	// last chunk.
	ErrEndOfPoints = errors.New("no more points in stream")
	// ErrCorrupt marks streams whose framing or checksums do not verify.
	ErrCorrupt = errors.New("corrupt chunk stream")
	// ErrFinished is returned by encoders asked to accept points after Done.
	ErrFinished = errors.New("encoder already finished")
	// ErrClosed is returned by engines used after Close.
	ErrClosed = errors.New("engine closed")
)

// Encoder compresses point records into an internal output buffer.
type Encoder interface {
	// Compress adds one point and returns the number of bytes available in
	// the output buffer. Zero is the normal result until a chunk seals.
	Compress(point []byte) (int, error)
	// Done seals the open chunk and returns the bytes available.
	Done() (uint64, error)
	// WriteChunkTable appends the chunk table and returns the bytes available.
	WriteChunkTable() (uint64, error)
	// Buffer returns the output buffer. It is owned by the encoder.
	Buffer() []byte
	// ResetSize empties the output buffer without releasing its storage.
	ResetSize()
	// VlrData returns the LASzip VLR payload in a pooled buffer that must be
	// handed back with ReleaseBuffer.
	VlrData() ([]byte, error)
	// ReleaseBuffer returns a buffer obtained from VlrData.
	ReleaseBuffer(buf []byte)
	// ChunkTableOffset is the stream position of the chunk table, known
	// after Done. It is -1 before.
	ChunkTableOffset() int64
	// Close releases pooled storage.
	Close() error
}

// Decoder decompresses point records one at a time.
type Decoder interface {
	// DecompressOne writes the next point into out, which must be exactly
	// one point long.
	DecompressOne(out []byte) error
	// Close releases pooled storage.
	Close() error
}

// EncoderConfig describes the stream an encoder produces.
type EncoderConfig struct {
	Items       []laszip.Item
	Compression compression.Config
	// ChunkSize is the number of points per chunk. Zero means the LASzip default.
	ChunkSize uint32
	Logger    *zap.Logger
}

// Factory builds engines.
type Factory interface {
	NewEncoder(cfg EncoderConfig) (Encoder, error)
	// NewDecoder builds a decoder over compressed, which starts at the first
	// chunk.
	NewDecoder(compressed []byte, vlr *laszip.Vlr, logger *zap.Logger) (Decoder, error)
}

// Default is the chunked predictive engine.
var Default Factory = chunkedFactory{}

type chunkedFactory struct{}

func (chunkedFactory) NewEncoder(cfg EncoderConfig) (Encoder, error) {
	return newChunkedEncoder(cfg)
}

func (chunkedFactory) NewDecoder(compressed []byte, vlr *laszip.Vlr, logger *zap.Logger) (Decoder, error) {
	return newChunkedDecoder(compressed, vlr, logger)
}
