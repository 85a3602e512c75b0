package pointfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderMapsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.bin")
	data := bytes.Repeat([]byte{1, 2, 3, 4}, 10)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, data, r.Bytes())
	n, err := r.Records(4)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, []byte{1, 2, 3, 4}, r.Record(9, 4))

	_, err = r.Records(3)
	assert.Error(t, err)
	_, err = r.Records(0)
	assert.Error(t, err)
}

func TestReaderEmptyAndMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	r, err := Open(path)
	require.NoError(t, err)
	assert.Zero(t, r.Len())
	require.NoError(t, r.Close())

	_, err = Open(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)
}

func TestContainerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(headerLen), n)

	stream := []byte("stream-bytes")
	buf.Write(stream)
	vlr := []byte{9, 8, 7}
	_, err = WriteTrailer(&buf, vlr, 1065, 34)
	require.NoError(t, err)

	c, err := ParseContainer(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, stream, c.Stream)
	assert.Equal(t, vlr, c.Vlr)
	assert.Equal(t, uint64(1065), c.PointCount)
	assert.Equal(t, 34, c.PointSize)
	assert.Equal(t, int64(headerLen), c.StreamOffset)
}

func TestParseContainerErrors(t *testing.T) {
	_, err := ParseContainer([]byte("LZPF"))
	assert.Error(t, err)

	junk := bytes.Repeat([]byte{0}, 64)
	_, err = ParseContainer(junk)
	assert.ErrorContains(t, err, "not a lazperf container")

	var buf bytes.Buffer
	_, _ = WriteHeader(&buf)
	_, _ = WriteTrailer(&buf, []byte{1}, 1, 20)
	data := buf.Bytes()
	data[len(data)-trailerLen] = 200 // vlr length beyond file
	_, err = ParseContainer(data)
	assert.Error(t, err)

	_, err = WriteTrailer(&buf, nil, 0, 0)
	assert.Error(t, err)
	_, err = WriteTrailer(&buf, nil, 0, MaxPointSize+1)
	assert.Error(t, err)
}
