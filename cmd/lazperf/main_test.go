package main

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePoints writes n point,gpstime,rgb records to a temporary file.
func writePoints(t *testing.T, dir string, n int) (string, []byte) {
	t.Helper()
	data := make([]byte, 0, n*34)
	for i := 0; i < n; i++ {
		rec := make([]byte, 34)
		binary.LittleEndian.PutUint32(rec[0:], uint32(1000+i*3))
		binary.LittleEndian.PutUint32(rec[4:], uint32(2000-i))
		binary.LittleEndian.PutUint32(rec[8:], uint32(i*i))
		binary.LittleEndian.PutUint16(rec[12:], uint16(i%300))
		rec[14] = byte(i % 7)
		rec[15] = 2
		rec[16] = byte(int8(i%60 - 30))
		binary.LittleEndian.PutUint16(rec[18:], 7)
		binary.LittleEndian.PutUint64(rec[20:], math.Float64bits(float64(i)*0.25))
		binary.LittleEndian.PutUint16(rec[28:], uint16(i))
		binary.LittleEndian.PutUint16(rec[30:], uint16(i*2))
		binary.LittleEndian.PutUint16(rec[32:], uint16(i*3))
		data = append(data, rec...)
	}
	path := filepath.Join(dir, "points.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path, data
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := newApp()
	root := a.rootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error", "--no-color"}, args...))
	err := root.Execute()
	a.close()
	return out.String(), err
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	dir := t.TempDir()
	input, want := writePoints(t, dir, 1065)
	container := filepath.Join(dir, "points.lzp")
	output := filepath.Join(dir, "decoded.bin")

	out, err := run(t, "compress", input, container, "--chunk-size", "500", "--algorithm", "lz4")
	require.NoError(t, err)
	assert.Contains(t, out, "Points:")
	assert.Contains(t, out, "1065")

	out, err = run(t, "info", container, "--json")
	require.NoError(t, err)
	var info containerInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, uint64(1065), info.Points)
	assert.Equal(t, 34, info.PointSize)
	assert.Equal(t, "lz4", info.Codec)
	assert.Equal(t, uint32(500), info.Vlr.ChunkSize)
	require.Len(t, info.Chunks, 3)
	assert.Equal(t, []uint32{500, 500, 65}, []uint32{info.Chunks[0].Points, info.Chunks[1].Points, info.Chunks[2].Points})

	_, err = run(t, "decompress", container, output)
	require.NoError(t, err)
	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestInfoText(t *testing.T) {
	dir := t.TempDir()
	input, _ := writePoints(t, dir, 10)
	container := filepath.Join(dir, "points.lzp")

	_, err := run(t, "compress", input, container)
	require.NoError(t, err)

	out, err := run(t, "info", container)
	require.NoError(t, err)
	assert.Contains(t, out, "LASzip VLR")
	assert.Contains(t, out, "POINT10 20 bytes")
	assert.Contains(t, out, "Chunks (1")
}

func TestExportArrow(t *testing.T) {
	dir := t.TempDir()
	input, _ := writePoints(t, dir, 300)
	container := filepath.Join(dir, "points.lzp")
	arrowFile := filepath.Join(dir, "points.arrow")

	_, err := run(t, "compress", input, container, "--algorithm", "zstd")
	require.NoError(t, err)
	out, err := run(t, "export", container, arrowFile, "--batch-size", "128")
	require.NoError(t, err)
	assert.Contains(t, out, "Batches:")

	f, err := os.Open(arrowFile)
	require.NoError(t, err)
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 3, r.NumRecords())
	rows := int64(0)
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		require.NoError(t, err)
		rows += rec.NumRows()
	}
	assert.Equal(t, int64(300), rows)
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	input, _ := writePoints(t, dir, 4)

	_, err := run(t, "compress", input, filepath.Join(dir, "out.lzp"), "--schema", "point")
	require.Error(t, err, "34 byte records do not divide into 20 byte records evenly")

	_, err = run(t, "compress", input, filepath.Join(dir, "out.lzp"), "--algorithm", "brotli")
	require.Error(t, err)

	_, err = run(t, "decompress", input, filepath.Join(dir, "out.bin"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a lazperf container")

	_, err = run(t, "info", filepath.Join(dir, "missing.lzp"))
	require.Error(t, err)
}

func TestCompressRejectsOversizedRecords(t *testing.T) {
	dir := t.TempDir()
	input, _ := writePoints(t, dir, 4)
	output := filepath.Join(dir, "out.lzp")

	_, err := run(t, "compress", input, output, "--schema", "point,extra=65535")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "container limit")
	assert.NoFileExists(t, output)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	input, _ := writePoints(t, dir, 20)
	cfgPath := filepath.Join(dir, "lazperf.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("codec:\n  algorithm: snappy\n  level: fastest\n  chunk_size: 8\n"), 0o600))
	container := filepath.Join(dir, "points.lzp")

	_, err := run(t, "--config", cfgPath, "compress", input, container)
	require.NoError(t, err)

	out, err := run(t, "info", container, "--json")
	require.NoError(t, err)
	var info containerInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "snappy", info.Codec)
	assert.Len(t, info.Chunks, 3)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lazperf v"+version)
	assert.Contains(t, out, "zstd")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KiB", formatBytes(1536))
	assert.Equal(t, "2.0 MiB", formatBytes(2<<20))
}
