package lazperf

import (
	"fmt"

	"github.com/ajitpratap0/lazperf/pkg/laszip"
)

// RecordSchema is the ordered list of items that make up one point record.
// Items are kept in append order because their byte offsets are cumulative.
// The zero value is an empty schema.
type RecordSchema struct {
	items []laszip.Item
	size  int
	err   error
}

// NewRecordSchema returns an empty schema of size 0.
func NewRecordSchema() *RecordSchema {
	return &RecordSchema{}
}

// PushPoint appends the 20-byte base geometry item.
func (s *RecordSchema) PushPoint() *RecordSchema {
	return s.push(laszip.Point10())
}

// PushGpsTime appends the 8-byte GPS time item.
func (s *RecordSchema) PushGpsTime() *RecordSchema {
	return s.push(laszip.GpsTime11())
}

// PushRgb appends the 6-byte color item.
func (s *RecordSchema) PushRgb() *RecordSchema {
	return s.push(laszip.RGB12())
}

// PushExtraBytes appends count trailing bytes. A count of zero changes
// nothing. A count outside [0, 65535] leaves the size unchanged and makes
// the schema unusable for compression; see Err.
func (s *RecordSchema) PushExtraBytes(count int) *RecordSchema {
	switch {
	case count == 0:
		return s
	case count < 0 || count > laszip.MaxItemSize:
		if s.err == nil {
			s.err = fmt.Errorf("extra bytes count %d out of range [0, %d]", count, laszip.MaxItemSize)
		}
		return s
	}
	return s.push(laszip.ExtraBytes(uint16(count)))
}

func (s *RecordSchema) push(it laszip.Item) *RecordSchema {
	s.items = append(s.items, it)
	s.size += int(it.Size)
	return s
}

// SizeInBytes returns the record size.
func (s *RecordSchema) SizeInBytes() int {
	return s.size
}

// Items returns a copy of the items in append order.
func (s *RecordSchema) Items() []laszip.Item {
	items := make([]laszip.Item, len(s.items))
	copy(items, s.items)
	return items
}

// Err reports the first invalid push, if any.
func (s *RecordSchema) Err() error {
	return s.err
}

// SchemaFromVlr rebuilds the schema described by LASzip VLR items.
func SchemaFromVlr(vlr *laszip.Vlr) *RecordSchema {
	s := NewRecordSchema()
	for _, it := range vlr.Items {
		s.push(it)
	}
	return s
}
