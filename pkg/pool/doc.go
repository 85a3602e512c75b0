// Package pool provides type-safe object pooling and size-bucketed byte buffer
// pooling for the codec engine.
//
// The engine allocates one residual buffer per chunk on the write path and one
// decoded chunk buffer per chunk on the read path. Both are drawn from
// GlobalBufferPool and handed back when the chunk is sealed or fully consumed,
// so long streams run with a bounded number of live allocations.
//
// Basic usage:
//
//	buf := pool.GlobalBufferPool.Get(chunkBytes)
//	defer pool.GlobalBufferPool.Put(buf)
//
// Custom pools:
//
//	scratch := pool.New(
//	    func() *bytes.Buffer { return new(bytes.Buffer) },
//	    func(b *bytes.Buffer) { b.Reset() },
//	)
//	b := scratch.Get()
//	defer scratch.Put(b)
package pool
