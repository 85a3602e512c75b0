package pipeline

import (
	"bytes"
	"context"
	"encoding/binary"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/lazperf/pkg/engine"
	"github.com/ajitpratap0/lazperf/pkg/errors"
	"github.com/ajitpratap0/lazperf/pkg/lazperf"
)

func randomPoints(n, size int) []byte {
	rng := rand.New(rand.NewSource(7))
	buf := make([]byte, n*size)
	for i := 0; i < n; i++ {
		p := buf[i*size : (i+1)*size]
		binary.LittleEndian.PutUint32(p, uint32(1000+i*3))
		p[12] = byte(rng.Intn(8))
	}
	return buf
}

func TestCompressDecompressStream(t *testing.T) {
	schema := lazperf.NewRecordSchema().PushPoint().PushRgb()
	points := randomPoints(500, schema.SizeInBytes())
	log := zaptest.NewLogger(t)

	var out bytes.Buffer
	res, err := CompressStream(context.Background(), &out, bytes.NewReader(points), schema, log,
		lazperf.WithChunkSize(128))
	require.NoError(t, err)
	assert.Equal(t, uint64(500), res.Points)
	assert.Equal(t, int64(len(points)), res.InputBytes)
	assert.Equal(t, int64(out.Len()), res.OutputBytes)
	assert.Greater(t, res.Ratio(), 0.0)

	// a plain writer keeps the placeholder prefix
	assert.Equal(t, uint64(0xFFFFFFFFFFFFFFFF), binary.LittleEndian.Uint64(out.Bytes()))

	var decoded bytes.Buffer
	n, err := DecompressStream(context.Background(), &decoded, out.Bytes(), res.Vlr, res.Points,
		schema.SizeInBytes(), log)
	require.NoError(t, err)
	assert.Equal(t, int64(len(points)), n)
	assert.Equal(t, points, decoded.Bytes())
}

func TestCompressStreamPatchesFilePrefix(t *testing.T) {
	schema := lazperf.NewRecordSchema().PushPoint()
	points := randomPoints(100, 20)

	f, err := os.Create(filepath.Join(t.TempDir(), "out.lzs"))
	require.NoError(t, err)
	defer f.Close()
	_, err = f.Write([]byte("HDR"))
	require.NoError(t, err)

	res, err := CompressStream(context.Background(), f, bytes.NewReader(points), schema, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	stream := data[3:]
	assert.Equal(t, res.ChunkTableOffset, int64(binary.LittleEndian.Uint64(stream)))

	counts, _, err := engine.ParseChunkTable(stream[res.ChunkTableOffset:])
	require.NoError(t, err)
	assert.Equal(t, []uint32{100}, counts)
}

func TestCompressStreamRejectsPartialPoint(t *testing.T) {
	schema := lazperf.NewRecordSchema().PushPoint()
	_, err := CompressStream(context.Background(), &bytes.Buffer{}, bytes.NewReader(make([]byte, 30)), schema,
		zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "inside point 1")
}

func TestCompressStreamHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	schema := lazperf.NewRecordSchema().PushPoint()
	_, err := CompressStream(ctx, &bytes.Buffer{}, bytes.NewReader(randomPoints(10, 20)), schema,
		zaptest.NewLogger(t))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = DecompressStream(ctx, &bytes.Buffer{}, make([]byte, 16), nil, 1, 20, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestDecompressStreamErrors(t *testing.T) {
	log := zaptest.NewLogger(t)
	_, err := DecompressStream(context.Background(), &bytes.Buffer{}, []byte{1, 2}, nil, 1, 20, log)
	assert.ErrorContains(t, err, "prefix")

	schema := lazperf.NewRecordSchema().PushPoint()
	var out bytes.Buffer
	res, err := CompressStream(context.Background(), &out, bytes.NewReader(randomPoints(3, 20)), schema, log)
	require.NoError(t, err)

	_, err = DecompressStream(context.Background(), &bytes.Buffer{}, out.Bytes(), res.Vlr, 4, 20, log)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDecompression))
}
