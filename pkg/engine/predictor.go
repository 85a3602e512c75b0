package engine

import (
	"encoding/binary"

	"github.com/ajitpratap0/lazperf/pkg/laszip"
)

// layout returns the word widths of a whole point record.
func layout(items []laszip.Item) []int {
	var widths []int
	for _, it := range items {
		widths = append(widths, it.WordWidths()...)
	}
	return widths
}

// predict appends the residuals of cur against prev to dst. Words are
// little-endian and subtraction wraps at the word width.
func predict(dst, cur, prev []byte, widths []int) []byte {
	off := 0
	for _, w := range widths {
		c, p := cur[off:off+w], prev[off:off+w]
		switch w {
		case 1:
			dst = append(dst, c[0]-p[0])
		case 2:
			dst = binary.LittleEndian.AppendUint16(dst,
				binary.LittleEndian.Uint16(c)-binary.LittleEndian.Uint16(p))
		case 4:
			dst = binary.LittleEndian.AppendUint32(dst,
				binary.LittleEndian.Uint32(c)-binary.LittleEndian.Uint32(p))
		case 8:
			dst = binary.LittleEndian.AppendUint64(dst,
				binary.LittleEndian.Uint64(c)-binary.LittleEndian.Uint64(p))
		}
		off += w
	}
	return dst
}

// reconstruct writes prev plus residual into out.
func reconstruct(out, residual, prev []byte, widths []int) {
	off := 0
	for _, w := range widths {
		o, r, p := out[off:off+w], residual[off:off+w], prev[off:off+w]
		switch w {
		case 1:
			o[0] = r[0] + p[0]
		case 2:
			binary.LittleEndian.PutUint16(o,
				binary.LittleEndian.Uint16(r)+binary.LittleEndian.Uint16(p))
		case 4:
			binary.LittleEndian.PutUint32(o,
				binary.LittleEndian.Uint32(r)+binary.LittleEndian.Uint32(p))
		case 8:
			binary.LittleEndian.PutUint64(o,
				binary.LittleEndian.Uint64(r)+binary.LittleEndian.Uint64(p))
		}
		off += w
	}
}

// transpose regroups point-major residuals so that byte j of every point is
// contiguous. Block codecs see long runs of near-zero high bytes this way.
func transpose(dst, src []byte, pointSize int) {
	n := len(src) / pointSize
	for i := 0; i < n; i++ {
		row := src[i*pointSize : (i+1)*pointSize]
		for j, b := range row {
			dst[j*n+i] = b
		}
	}
}

// untranspose is the inverse of transpose.
func untranspose(dst, src []byte, pointSize int) {
	n := len(src) / pointSize
	for i := 0; i < n; i++ {
		row := dst[i*pointSize : (i+1)*pointSize]
		for j := range row {
			row[j] = src[j*n+i]
		}
	}
}
