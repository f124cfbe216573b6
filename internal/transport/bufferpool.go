package transport

import (
	"bytes"
	"sync"
)

// BufferPool recycles the byte buffers used to assemble outgoing frames,
// reducing GC pressure under the timer engine's per-tick flood/hello
// emission. Adapted from the teacher's buffer_pool.go, which pooled
// bytes.Buffer the same way for its packet-crafting TUI.
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool returns a ready-to-use buffer pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() any { return new(bytes.Buffer) },
		},
	}
}

// Get returns an empty buffer, either recycled or freshly allocated.
func (p *BufferPool) Get() *bytes.Buffer {
	buf := p.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns buf to the pool for reuse. Callers must not touch buf again
// afterward.
func (p *BufferPool) Put(buf *bytes.Buffer) {
	p.pool.Put(buf)
}
