// Package pointview exposes decoded point records as Apache Arrow record
// batches, one column per field of the record layout.
//
// Point10 contributes x, y, z (int32), intensity (uint16), return_bits,
// class_bits, scan_angle_rank (int8), user_data (uint8 each), and
// point_source_id (uint16). GpsTime11 adds gps_time (float64), RGB12 adds
// red, green, blue (uint16), and extra bytes become one binary column.
package pointview

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/lazperf/pkg/laszip"
)

// field decodes one column from a record starting at offset.
type field struct {
	name   string
	typ    arrow.DataType
	offset int
	size   int
}

// Builder accumulates records into Arrow columns.
type Builder struct {
	schema    *arrow.Schema
	fields    []field
	pointSize int
	builder   *array.RecordBuilder
	rows      int
}

// Schema returns the Arrow schema for items.
func Schema(items []laszip.Item) (*arrow.Schema, error) {
	fields, _, err := layoutFields(items)
	if err != nil {
		return nil, err
	}
	return arrowSchema(fields), nil
}

func arrowSchema(fields []field) *arrow.Schema {
	af := make([]arrow.Field, len(fields))
	for i, f := range fields {
		af[i] = arrow.Field{Name: f.name, Type: f.typ}
	}
	return arrow.NewSchema(af, nil)
}

func layoutFields(items []laszip.Item) ([]field, int, error) {
	var fields []field
	off := 0
	extra := 0
	for i, it := range items {
		if err := it.Validate(); err != nil {
			return nil, 0, fmt.Errorf("item %d: %w", i, err)
		}
		switch it.Type {
		case laszip.ItemPoint10:
			fields = append(fields,
				field{"x", arrow.PrimitiveTypes.Int32, off, 4},
				field{"y", arrow.PrimitiveTypes.Int32, off + 4, 4},
				field{"z", arrow.PrimitiveTypes.Int32, off + 8, 4},
				field{"intensity", arrow.PrimitiveTypes.Uint16, off + 12, 2},
				field{"return_bits", arrow.PrimitiveTypes.Uint8, off + 14, 1},
				field{"class_bits", arrow.PrimitiveTypes.Uint8, off + 15, 1},
				field{"scan_angle_rank", arrow.PrimitiveTypes.Int8, off + 16, 1},
				field{"user_data", arrow.PrimitiveTypes.Uint8, off + 17, 1},
				field{"point_source_id", arrow.PrimitiveTypes.Uint16, off + 18, 2},
			)
		case laszip.ItemGpsTime11:
			fields = append(fields, field{"gps_time", arrow.PrimitiveTypes.Float64, off, 8})
		case laszip.ItemRGB12:
			fields = append(fields,
				field{"red", arrow.PrimitiveTypes.Uint16, off, 2},
				field{"green", arrow.PrimitiveTypes.Uint16, off + 2, 2},
				field{"blue", arrow.PrimitiveTypes.Uint16, off + 4, 2},
			)
		case laszip.ItemByte:
			name := "extra_bytes"
			if extra > 0 {
				name = fmt.Sprintf("extra_bytes_%d", extra)
			}
			extra++
			fields = append(fields, field{name, arrow.BinaryTypes.Binary, off, int(it.Size)})
		}
		off += int(it.Size)
	}
	return fields, off, nil
}

// NewBuilder returns a builder for records laid out as items. A nil
// allocator selects the Go allocator.
func NewBuilder(items []laszip.Item, mem memory.Allocator) (*Builder, error) {
	fields, pointSize, err := layoutFields(items)
	if err != nil {
		return nil, err
	}
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	schema := arrowSchema(fields)
	return &Builder{
		schema:    schema,
		fields:    fields,
		pointSize: pointSize,
		builder:   array.NewRecordBuilder(mem, schema),
	}, nil
}

// Schema returns the Arrow schema of built records.
func (b *Builder) Schema() *arrow.Schema {
	return b.schema
}

// Rows returns the number of records appended since the last NewRecord.
func (b *Builder) Rows() int {
	return b.rows
}

// Append decodes one point record.
func (b *Builder) Append(point []byte) error {
	if len(point) != b.pointSize {
		return fmt.Errorf("point is %d bytes, expected %d", len(point), b.pointSize)
	}
	for i, f := range b.fields {
		v := point[f.offset : f.offset+f.size]
		switch fb := b.builder.Field(i).(type) {
		case *array.Int32Builder:
			fb.Append(int32(binary.LittleEndian.Uint32(v)))
		case *array.Uint16Builder:
			fb.Append(binary.LittleEndian.Uint16(v))
		case *array.Uint8Builder:
			fb.Append(v[0])
		case *array.Int8Builder:
			fb.Append(int8(v[0]))
		case *array.Float64Builder:
			fb.Append(math.Float64frombits(binary.LittleEndian.Uint64(v)))
		case *array.BinaryBuilder:
			fb.Append(v)
		default:
			return fmt.Errorf("column %s has unexpected builder %T", f.name, fb)
		}
	}
	b.rows++
	return nil
}

// AppendAll decodes consecutive records from points.
func (b *Builder) AppendAll(points []byte) error {
	if len(points)%b.pointSize != 0 {
		return fmt.Errorf("%d bytes is not a multiple of %d byte records", len(points), b.pointSize)
	}
	for off := 0; off < len(points); off += b.pointSize {
		if err := b.Append(points[off : off+b.pointSize]); err != nil {
			return err
		}
	}
	return nil
}

// NewRecord returns the accumulated rows as a record batch and resets the
// builder. The caller releases the record.
func (b *Builder) NewRecord() arrow.Record {
	b.rows = 0
	return b.builder.NewRecord()
}

// Release frees the builder's memory.
func (b *Builder) Release() {
	b.builder.Release()
}
