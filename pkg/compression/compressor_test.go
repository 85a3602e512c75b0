package compression

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// residualLike mimics delta residuals: mostly small values with occasional noise.
func residualLike(n int) []byte {
	rng := rand.New(rand.NewSource(42))
	out := make([]byte, n)
	for i := 0; i+4 <= n; i += 4 {
		binary.LittleEndian.PutUint32(out[i:], uint32(rng.Intn(16)))
	}
	return out
}

func TestCodecRoundTrip(t *testing.T) {
	data := residualLike(64 * 1024)

	for _, alg := range Algorithms() {
		for _, level := range []Level{Fastest, Default, Better, Best} {
			t.Run(string(alg)+"/"+level.String(), func(t *testing.T) {
				codec, err := NewCodec(&Config{Algorithm: alg, Level: level})
				require.NoError(t, err)
				assert.Equal(t, alg, codec.Algorithm())
				assert.Equal(t, level, codec.Level())

				compressed, err := codec.Compress(data)
				require.NoError(t, err)

				decompressed, err := codec.Decompress(compressed, len(data))
				require.NoError(t, err)
				assert.True(t, bytes.Equal(data, decompressed))

				if alg != None {
					t.Logf("%s/%s: %d -> %d bytes", alg, level, len(data), len(compressed))
				}
			})
		}
	}
}

func TestCodecEmptyBlock(t *testing.T) {
	for _, alg := range Algorithms() {
		t.Run(string(alg), func(t *testing.T) {
			codec, err := NewCodec(&Config{Algorithm: alg})
			require.NoError(t, err)

			compressed, err := codec.Compress(nil)
			require.NoError(t, err)

			out, err := codec.Decompress(compressed, 0)
			require.NoError(t, err)
			assert.Empty(t, out)
		})
	}
}

func TestCodecRejectsSizeMismatch(t *testing.T) {
	data := residualLike(4096)

	for _, alg := range Algorithms() {
		t.Run(string(alg), func(t *testing.T) {
			codec, err := NewCodec(&Config{Algorithm: alg})
			require.NoError(t, err)

			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			_, err = codec.Decompress(compressed, len(data)-1)
			assert.Error(t, err)
			_, err = codec.Decompress(compressed, len(data)+1)
			assert.Error(t, err)
		})
	}
}

func TestCodecRejectsGarbage(t *testing.T) {
	garbage := bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 64)

	for _, alg := range []Algorithm{Zstd, LZ4, S2, Snappy, Gzip} {
		t.Run(string(alg), func(t *testing.T) {
			codec, err := NewCodec(&Config{Algorithm: alg})
			require.NoError(t, err)

			_, err = codec.Decompress(garbage, 1024)
			assert.Error(t, err)
		})
	}
}

func TestCoderIDs(t *testing.T) {
	seen := make(map[uint16]Algorithm)
	for _, alg := range Algorithms() {
		id, err := alg.CoderID()
		require.NoError(t, err)
		assert.NotEqual(t, CoderArithmetic, id)
		_, dup := seen[id]
		assert.False(t, dup, "duplicate coder id %d", id)
		seen[id] = alg

		back, err := AlgorithmForCoder(id)
		require.NoError(t, err)
		assert.Equal(t, alg, back)
	}

	_, err := AlgorithmForCoder(CoderArithmetic)
	assert.ErrorContains(t, err, "arithmetic")

	_, err = AlgorithmForCoder(999)
	assert.Error(t, err)

	_, err = Algorithm("brotli").CoderID()
	assert.Error(t, err)
}

func TestNewCodecForCoder(t *testing.T) {
	id, err := LZ4.CoderID()
	require.NoError(t, err)

	codec, err := NewCodecForCoder(id)
	require.NoError(t, err)
	assert.Equal(t, LZ4, codec.Algorithm())
}

func TestParseAlgorithmAndLevel(t *testing.T) {
	alg, err := ParseAlgorithm(" ZSTD ")
	require.NoError(t, err)
	assert.Equal(t, Zstd, alg)

	_, err = ParseAlgorithm("brotli")
	assert.Error(t, err)

	level, err := ParseLevel("Best")
	require.NoError(t, err)
	assert.Equal(t, Best, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, Default, level)

	_, err = ParseLevel("extreme")
	assert.Error(t, err)
}

func TestNewCodecDefaults(t *testing.T) {
	codec, err := NewCodec(nil)
	require.NoError(t, err)
	assert.Equal(t, Zstd, codec.Algorithm())
	assert.Equal(t, Default, codec.Level())

	_, err = NewCodec(&Config{Algorithm: "brotli"})
	assert.Error(t, err)
}

func BenchmarkCodecCompress(b *testing.B) {
	data := residualLike(50000 * 34)

	for _, alg := range Algorithms() {
		b.Run(string(alg), func(b *testing.B) {
			codec, err := NewCodec(&Config{Algorithm: alg})
			if err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			b.SetBytes(int64(len(data)))

			for i := 0; i < b.N; i++ {
				if _, err := codec.Compress(data); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
