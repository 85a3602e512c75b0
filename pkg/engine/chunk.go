package engine

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

const (
	chunkHeaderSize   = 12
	tableHeaderSize   = 8
	tableEntrySize    = 12
	chunkTableVersion = 0
)

// chunkEntry is one row of the chunk table.
type chunkEntry struct {
	Points uint32
	Bytes  uint64
}

// appendChunk frames payload as a chunk of points records. The checksum
// covers the point count and length words as well as the payload.
func appendChunk(dst []byte, points uint32, payload []byte) []byte {
	start := len(dst)
	dst = binary.LittleEndian.AppendUint32(dst, points)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(payload)))
	dst = binary.LittleEndian.AppendUint32(dst, chunkSum(dst[start:start+8], payload))
	return append(dst, payload...)
}

func chunkSum(header, payload []byte) uint32 {
	return crc32.Update(crc32.ChecksumIEEE(header), crc32.IEEETable, payload)
}

// readChunk parses the chunk at the start of data. It returns ErrEndOfPoints
// when data starts with the chunk table or is empty.
func readChunk(data []byte) (points uint32, payload []byte, err error) {
	if len(data) == 0 {
		return 0, nil, ErrEndOfPoints
	}
	if len(data) < 4 {
		return 0, nil, fmt.Errorf("%w: truncated chunk header", ErrCorrupt)
	}
	points = binary.LittleEndian.Uint32(data)
	if points == 0 {
		// the chunk table version word
		return 0, nil, ErrEndOfPoints
	}
	if len(data) < chunkHeaderSize {
		return 0, nil, fmt.Errorf("%w: truncated chunk header", ErrCorrupt)
	}
	size := binary.LittleEndian.Uint32(data[4:])
	sum := binary.LittleEndian.Uint32(data[8:])
	if uint64(size) > uint64(len(data)-chunkHeaderSize) {
		return 0, nil, fmt.Errorf("%w: chunk payload of %d bytes exceeds remaining %d",
			ErrCorrupt, size, len(data)-chunkHeaderSize)
	}
	payload = data[chunkHeaderSize : chunkHeaderSize+int(size)]
	if got := chunkSum(data[:8], payload); got != sum {
		return 0, nil, fmt.Errorf("%w: crc mismatch (want %08x, got %08x)", ErrCorrupt, sum, got)
	}
	return points, payload, nil
}

// appendChunkTable encodes the chunk table.
func appendChunkTable(dst []byte, entries []chunkEntry) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, chunkTableVersion)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(entries)))
	for _, e := range entries {
		dst = binary.LittleEndian.AppendUint32(dst, e.Points)
		dst = binary.LittleEndian.AppendUint64(dst, e.Bytes)
	}
	return dst
}

// ParseChunkTable decodes a chunk table and returns the points and byte size
// of every chunk.
func ParseChunkTable(data []byte) (points []uint32, sizes []uint64, err error) {
	if len(data) < tableHeaderSize {
		return nil, nil, fmt.Errorf("%w: truncated chunk table", ErrCorrupt)
	}
	if v := binary.LittleEndian.Uint32(data); v != chunkTableVersion {
		return nil, nil, fmt.Errorf("%w: unknown chunk table version %d", ErrCorrupt, v)
	}
	count := int(binary.LittleEndian.Uint32(data[4:]))
	if len(data) != tableHeaderSize+count*tableEntrySize {
		return nil, nil, fmt.Errorf("%w: chunk table of %d entries has %d bytes", ErrCorrupt, count, len(data))
	}
	points = make([]uint32, count)
	sizes = make([]uint64, count)
	off := tableHeaderSize
	for i := 0; i < count; i++ {
		points[i] = binary.LittleEndian.Uint32(data[off:])
		sizes[i] = binary.LittleEndian.Uint64(data[off+4:])
		off += tableEntrySize
	}
	return points, sizes, nil
}
