package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolResetsOnPut(t *testing.T) {
	p := New(
		func() *bytes.Buffer { return new(bytes.Buffer) },
		func(b *bytes.Buffer) { b.Reset() },
	)

	b := p.Get()
	b.WriteString("chunk")
	p.Put(b)

	allocated, inUse, _, misses := p.Stats()
	assert.Equal(t, int64(1), allocated)
	assert.Equal(t, int64(0), inUse)
	assert.Equal(t, int64(1), misses)

	again := p.Get()
	assert.Equal(t, 0, again.Len())
	p.Put(again)
}

func TestBufferPoolBuckets(t *testing.T) {
	bp := NewBufferPool()

	tests := []struct {
		name    string
		size    int
		wantCap int
	}{
		{"tiny", 10, 512},
		{"exact", 4096, 4096},
		{"chunk of 34 byte points", 50000 * 34, 4194304},
		{"oversized", 20 << 20, 20 << 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := bp.Get(tt.size)
			require.Len(t, buf, tt.size)
			assert.Equal(t, tt.wantCap, cap(buf))
			bp.Put(buf)
		})
	}
}

func TestBufferPoolIgnoresForeignBuffers(t *testing.T) {
	bp := NewBufferPool()
	bp.Put(make([]byte, 100))

	allocated, inUse, _, _ := bp.Stats()
	assert.Equal(t, int64(0), allocated)
	assert.Equal(t, int64(0), inUse)
}
