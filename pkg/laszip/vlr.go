package laszip

import (
	"encoding/binary"
	"fmt"
)

// LAS VLR identification of the LASzip payload. Container writers put the
// marshaled payload into a VLR with this user id and record id.
const (
	UserID   = "laszip encoded"
	RecordID = 22204
)

// Compressor kinds of the LASzip VLR.
const (
	CompressorNone              uint16 = 0
	CompressorPointwise         uint16 = 1
	CompressorPointwiseChunked  uint16 = 2
	CompressorLayeredChunked    uint16 = 3
	DefaultChunkSize            uint32 = 50000
	VariableChunkSize           uint32 = 0xFFFFFFFF
	headerSize                         = 34
	itemRecordSize                     = 6
	versionMajor                uint8  = 2
	versionMinor                uint8  = 2
	versionRevision             uint16 = 0
	noSpecialEVLRs              int64  = -1
)

// Vlr is the decoded LASzip VLR payload.
type Vlr struct {
	Compressor         uint16 `json:"compressor"`
	Coder              uint16 `json:"coder"`
	VersionMajor       uint8  `json:"version_major"`
	VersionMinor       uint8  `json:"version_minor"`
	VersionRevision    uint16 `json:"version_revision"`
	Options            uint32 `json:"options"`
	ChunkSize          uint32 `json:"chunk_size"`
	NumSpecialEVLRs    int64  `json:"num_special_evlrs"`
	OffsetSpecialEVLRs int64  `json:"offset_special_evlrs"`
	Items              []Item `json:"items"`
}

// NewVlr builds the payload for a pointwise-chunked stream.
func NewVlr(items []Item, coder uint16, chunkSize uint32) *Vlr {
	copied := make([]Item, len(items))
	copy(copied, items)
	return &Vlr{
		Compressor:         CompressorPointwiseChunked,
		Coder:              coder,
		VersionMajor:       versionMajor,
		VersionMinor:       versionMinor,
		VersionRevision:    versionRevision,
		ChunkSize:          chunkSize,
		NumSpecialEVLRs:    noSpecialEVLRs,
		OffsetSpecialEVLRs: noSpecialEVLRs,
		Items:              copied,
	}
}

// PointSize returns the record size described by the items.
func (v *Vlr) PointSize() int {
	return PointSize(v.Items)
}

// Size returns the marshaled payload size.
func (v *Vlr) Size() int {
	return headerSize + itemRecordSize*len(v.Items)
}

// Validate checks the fields a decoder depends on.
func (v *Vlr) Validate() error {
	if v.Compressor != CompressorPointwiseChunked {
		return fmt.Errorf("unsupported laszip compressor %d", v.Compressor)
	}
	if v.ChunkSize == 0 || v.ChunkSize == VariableChunkSize {
		return fmt.Errorf("unsupported chunk size %d", v.ChunkSize)
	}
	if len(v.Items) == 0 {
		return fmt.Errorf("laszip vlr has no items")
	}
	for i, it := range v.Items {
		if err := it.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// MarshalBinary encodes the payload in LASzip little-endian layout.
func (v *Vlr) MarshalBinary() ([]byte, error) {
	if len(v.Items) > 0xFFFF {
		return nil, fmt.Errorf("too many items: %d", len(v.Items))
	}
	buf := make([]byte, v.Size())
	v.put(buf)
	return buf, nil
}

// AppendBinary appends the encoded payload to dst.
func (v *Vlr) AppendBinary(dst []byte) []byte {
	start := len(dst)
	dst = append(dst, make([]byte, v.Size())...)
	v.put(dst[start:])
	return dst
}

func (v *Vlr) put(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:], v.Compressor)
	binary.LittleEndian.PutUint16(buf[2:], v.Coder)
	buf[4] = v.VersionMajor
	buf[5] = v.VersionMinor
	binary.LittleEndian.PutUint16(buf[6:], v.VersionRevision)
	binary.LittleEndian.PutUint32(buf[8:], v.Options)
	binary.LittleEndian.PutUint32(buf[12:], v.ChunkSize)
	binary.LittleEndian.PutUint64(buf[16:], uint64(v.NumSpecialEVLRs))
	binary.LittleEndian.PutUint64(buf[24:], uint64(v.OffsetSpecialEVLRs))
	binary.LittleEndian.PutUint16(buf[32:], uint16(len(v.Items)))

	off := headerSize
	for _, it := range v.Items {
		binary.LittleEndian.PutUint16(buf[off:], uint16(it.Type))
		binary.LittleEndian.PutUint16(buf[off+2:], it.Size)
		binary.LittleEndian.PutUint16(buf[off+4:], it.Version)
		off += itemRecordSize
	}
}

// UnmarshalBinary decodes a LASzip VLR payload. Trailing bytes are rejected.
func (v *Vlr) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("laszip vlr too short: %d bytes", len(data))
	}

	numItems := int(binary.LittleEndian.Uint16(data[32:]))
	want := headerSize + itemRecordSize*numItems
	if len(data) != want {
		return fmt.Errorf("laszip vlr size mismatch: %d items need %d bytes, got %d", numItems, want, len(data))
	}

	v.Compressor = binary.LittleEndian.Uint16(data[0:])
	v.Coder = binary.LittleEndian.Uint16(data[2:])
	v.VersionMajor = data[4]
	v.VersionMinor = data[5]
	v.VersionRevision = binary.LittleEndian.Uint16(data[6:])
	v.Options = binary.LittleEndian.Uint32(data[8:])
	v.ChunkSize = binary.LittleEndian.Uint32(data[12:])
	v.NumSpecialEVLRs = int64(binary.LittleEndian.Uint64(data[16:]))
	v.OffsetSpecialEVLRs = int64(binary.LittleEndian.Uint64(data[24:]))

	v.Items = make([]Item, numItems)
	off := headerSize
	for i := range v.Items {
		v.Items[i] = Item{
			Type:    ItemType(binary.LittleEndian.Uint16(data[off:])),
			Size:    binary.LittleEndian.Uint16(data[off+2:]),
			Version: binary.LittleEndian.Uint16(data[off+4:]),
		}
		off += itemRecordSize
	}
	return nil
}

// ParseVlr decodes and validates a payload.
func ParseVlr(data []byte) (*Vlr, error) {
	v := &Vlr{}
	if err := v.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}
