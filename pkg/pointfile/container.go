package pointfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Container layout:
//
//	"LZPF" u16 version              header
//	stream                          compressed stream, chunk table offset prefix included
//	vlr                             LASzip VLR payload
//	u32 vlr length | u64 points | u16 point size | u16 version | "LZPF"   trailer
//
// The trailer comes last so that a container can be written in one pass.
const (
	ContainerVersion uint16 = 1
	headerLen               = 6
	trailerLen              = 4 + 8 + 2 + 2 + 4
)

// MaxPointSize is the largest record size the trailer can describe.
const MaxPointSize = 0xFFFF

var magic = []byte("LZPF")

// Container is a parsed lazperf container.
type Container struct {
	Version    uint16
	PointSize  int
	PointCount uint64
	Vlr        []byte
	// Stream is the compressed stream including its 8-byte prefix.
	Stream []byte
	// StreamOffset is the file offset of Stream.
	StreamOffset int64
}

// WriteHeader writes the container header. The compressed stream follows it.
func WriteHeader(w io.Writer) (int64, error) {
	buf := append([]byte(nil), magic...)
	buf = binary.LittleEndian.AppendUint16(buf, ContainerVersion)
	n, err := w.Write(buf)
	return int64(n), err
}

// WriteTrailer writes the VLR and trailer after the stream.
func WriteTrailer(w io.Writer, vlr []byte, points uint64, pointSize int) (int64, error) {
	if pointSize <= 0 || pointSize > MaxPointSize {
		return 0, fmt.Errorf("point size %d out of range", pointSize)
	}
	buf := append([]byte(nil), vlr...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(vlr)))
	buf = binary.LittleEndian.AppendUint64(buf, points)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(pointSize))
	buf = binary.LittleEndian.AppendUint16(buf, ContainerVersion)
	buf = append(buf, magic...)
	n, err := w.Write(buf)
	return int64(n), err
}

// ParseContainer slices data into its parts without copying.
func ParseContainer(data []byte) (*Container, error) {
	if len(data) < headerLen+trailerLen {
		return nil, fmt.Errorf("container too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:4], magic) || !bytes.Equal(data[len(data)-4:], magic) {
		return nil, fmt.Errorf("not a lazperf container")
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != ContainerVersion {
		return nil, fmt.Errorf("unsupported container version %d", v)
	}

	t := data[len(data)-trailerLen:]
	vlrLen := int(binary.LittleEndian.Uint32(t))
	points := binary.LittleEndian.Uint64(t[4:])
	pointSize := int(binary.LittleEndian.Uint16(t[12:]))
	version := binary.LittleEndian.Uint16(t[14:])

	streamEnd := len(data) - trailerLen - vlrLen
	if vlrLen < 0 || streamEnd < headerLen {
		return nil, fmt.Errorf("container vlr length %d exceeds file", vlrLen)
	}

	return &Container{
		Version:      version,
		PointSize:    pointSize,
		PointCount:   points,
		Vlr:          data[streamEnd : streamEnd+vlrLen],
		Stream:       data[headerLen:streamEnd],
		StreamOffset: headerLen,
	}, nil
}
