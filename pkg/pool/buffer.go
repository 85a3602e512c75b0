package pool

// BufferPool manages byte buffer pooling with size-based buckets.
// It maintains one pool per bucket size and picks the smallest bucket that
// fits a request. Chunk residual buffers and decoded chunk buffers of the
// codec engine come from here.
type BufferPool struct {
	pools []*Pool[[]byte]
	sizes []int
}

// GlobalBufferPool is the process-wide buffer pool.
var GlobalBufferPool = NewBufferPool()

// NewBufferPool creates a new buffer pool with predefined size buckets.
// The predefined sizes are:
//   - 512B, 4KB, 64KB, 256KB, 1MB, 4MB, 16MB
//
// A default 50 000 point chunk of 34-byte records needs 1.7MB, which lands in
// the 4MB bucket. Requests above 16MB are allocated directly.
func NewBufferPool() *BufferPool {
	sizes := []int{
		512,      // 512B
		4096,     // 4KB
		65536,    // 64KB
		262144,   // 256KB
		1048576,  // 1MB
		4194304,  // 4MB
		16777216, // 16MB
	}

	pools := make([]*Pool[[]byte], len(sizes))
	for i, size := range sizes {
		size := size
		pools[i] = New(
			func() []byte {
				return make([]byte, size)
			},
			nil,
		)
	}

	return &BufferPool{
		pools: pools,
		sizes: sizes,
	}
}

// Get returns a buffer of length size whose capacity may be larger.
//
// Example:
//
//	buf := bufferPool.Get(2048) // 4KB buffer with length 2048
//	defer bufferPool.Put(buf)
func (p *BufferPool) Get(size int) []byte {
	for i, s := range p.sizes {
		if s >= size {
			buf := p.pools[i].Get()
			return buf[:size]
		}
	}

	// Fallback to allocation for very large buffers
	return make([]byte, size)
}

// Put returns a buffer to the pool for reuse. Buffers whose capacity does not
// match a bucket are left to the garbage collector. The content is not cleared.
func (p *BufferPool) Put(buf []byte) {
	size := cap(buf)

	for i, s := range p.sizes {
		if s == size {
			p.pools[i].Put(buf[:size])
			return
		}
	}
}

// Stats returns the aggregated statistics of all buckets.
func (p *BufferPool) Stats() (allocated, inUse, hits, misses int64) {
	for _, bucket := range p.pools {
		a, u, h, m := bucket.Stats()
		allocated += a
		inUse += u
		hits += h
		misses += m
	}
	return allocated, inUse, hits, misses
}
