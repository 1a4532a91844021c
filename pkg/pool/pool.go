// Package pool provides object pooling to reduce GC pressure
package pool

import (
	"bytes"
	"sync"
)

// maxPooledBuffer caps the capacity of buffers returned to the pool so a
// single huge context does not pin memory.
const maxPooledBuffer = 64 << 10

// BufferPool pools bytes.Buffer for context windows
var BufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// CountsPool pools map[string]int for per-document scratch counts
var CountsPool = sync.Pool{
	New: func() interface{} {
		return make(map[string]int, 64)
	},
}

// GetBuffer gets an empty buffer from pool
func GetBuffer() *bytes.Buffer {
	b := BufferPool.Get().(*bytes.Buffer)
	b.Reset()
	return b
}

// PutBuffer returns a buffer to pool
func PutBuffer(b *bytes.Buffer) {
	if b.Cap() > maxPooledBuffer {
		return
	}
	BufferPool.Put(b)
}

// GetCounts gets an empty map from pool
func GetCounts() map[string]int {
	m := CountsPool.Get().(map[string]int)
	for k := range m {
		delete(m, k)
	}
	return m
}

// PutCounts returns a map to pool
func PutCounts(m map[string]int) {
	CountsPool.Put(m)
}
