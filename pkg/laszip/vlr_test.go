package laszip

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVlrSizeMatchesReferencePayload(t *testing.T) {
	// Point + GpsTime + Rgb streams carry a 52 byte LASzip payload.
	v := NewVlr([]Item{Point10(), GpsTime11(), RGB12()}, 2, DefaultChunkSize)
	assert.Equal(t, 52, v.Size())
	assert.Equal(t, 34, v.PointSize())

	data, err := v.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, 52)
}

func TestVlrRoundTrip(t *testing.T) {
	v := NewVlr([]Item{Point10(), RGB12(), ExtraBytes(6)}, 3, 1000)

	data, err := v.MarshalBinary()
	require.NoError(t, err)

	got, err := ParseVlr(data)
	require.NoError(t, err)
	if diff := cmp.Diff(v, got); diff != "" {
		t.Fatalf("vlr mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int64(-1), got.NumSpecialEVLRs)
	assert.Equal(t, CompressorPointwiseChunked, got.Compressor)
}

func TestVlrAppendBinary(t *testing.T) {
	v := NewVlr([]Item{Point10()}, 2, 10)
	prefix := []byte{1, 2, 3}

	out := v.AppendBinary(prefix)
	require.Len(t, out, 3+v.Size())

	want, err := v.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, want, out[3:])
}

func TestParseVlrErrors(t *testing.T) {
	good, err := NewVlr([]Item{Point10()}, 2, 100).MarshalBinary()
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func([]byte) []byte
		wantErr string
	}{
		{"too short", func(b []byte) []byte { return b[:20] }, "too short"},
		{"trailing bytes", func(b []byte) []byte { return append(b, 0) }, "size mismatch"},
		{"wrong compressor", func(b []byte) []byte { b[0] = 3; return b }, "unsupported laszip compressor"},
		{"zero chunk size", func(b []byte) []byte { b[12], b[13], b[14], b[15] = 0, 0, 0, 0; return b }, "chunk size"},
		{"bad point10 size", func(b []byte) []byte { b[36] = 19; return b }, "POINT10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), good...))
			_, err := ParseVlr(data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestItemWordWidthsCoverItem(t *testing.T) {
	for _, it := range []Item{Point10(), GpsTime11(), RGB12(), ExtraBytes(5)} {
		total := 0
		for _, w := range it.WordWidths() {
			total += w
		}
		assert.Equal(t, int(it.Size), total, it.Type.String())
	}
}

func TestItemValidate(t *testing.T) {
	assert.NoError(t, Point10().Validate())
	assert.Error(t, ExtraBytes(0).Validate())
	assert.Error(t, Item{Type: ItemWavepkt13, Size: 29}.Validate())
	assert.Equal(t, "ITEM(42)", ItemType(42).String())
}
