package lazperf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lazperf/pkg/laszip"
)

func TestSchemaSizes(t *testing.T) {
	tests := []struct {
		name   string
		schema *RecordSchema
		want   int
	}{
		{"empty", NewRecordSchema(), 0},
		{"point", NewRecordSchema().PushPoint(), 20},
		{"point gps", NewRecordSchema().PushPoint().PushGpsTime(), 28},
		{"point gps rgb", NewRecordSchema().PushPoint().PushGpsTime().PushRgb(), 34},
		{"point gps rgb extra", NewRecordSchema().PushPoint().PushGpsTime().PushRgb().PushExtraBytes(6), 40},
		{"point twice", NewRecordSchema().PushPoint().PushPoint(), 40},
		{"zero value", &RecordSchema{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.schema.SizeInBytes())
			assert.Equal(t, tt.want, laszip.PointSize(tt.schema.Items()))
			assert.NoError(t, tt.schema.Err())
		})
	}
}

func TestSchemaKeepsAppendOrder(t *testing.T) {
	s := NewRecordSchema().PushPoint().PushRgb().PushExtraBytes(3).PushGpsTime()
	want := []laszip.Item{laszip.Point10(), laszip.RGB12(), laszip.ExtraBytes(3), laszip.GpsTime11()}
	assert.Equal(t, want, s.Items())
}

func TestPushExtraBytesZeroIsNoOp(t *testing.T) {
	s := NewRecordSchema().PushPoint().PushExtraBytes(0)
	assert.Equal(t, 20, s.SizeInBytes())
	assert.Len(t, s.Items(), 1)
	assert.NoError(t, s.Err())
}

func TestPushExtraBytesOutOfRange(t *testing.T) {
	for _, count := range []int{-1, laszip.MaxItemSize + 1} {
		s := NewRecordSchema().PushPoint().PushExtraBytes(count)
		assert.Equal(t, 20, s.SizeInBytes(), "size unchanged for %d", count)
		require.Error(t, s.Err())

		// the first error sticks
		first := s.Err()
		s.PushExtraBytes(-5)
		assert.Equal(t, first, s.Err())
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	s := NewRecordSchema().PushPoint()
	items := s.Items()
	items[0].Size = 1
	assert.Equal(t, uint16(20), s.Items()[0].Size)
}

func TestSchemaFromVlr(t *testing.T) {
	vlr := laszip.NewVlr([]laszip.Item{laszip.Point10(), laszip.ExtraBytes(4)}, 2, 100)
	s := SchemaFromVlr(vlr)
	assert.Equal(t, 24, s.SizeInBytes())
	assert.Equal(t, vlr.Items, s.Items())
}
