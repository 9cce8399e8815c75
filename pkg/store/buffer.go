package store

import (
	"sync"
)

// Buffer is a fixed-capacity byte value with a touched flag.
type Buffer struct {
	mu      sync.Mutex
	key     string
	path    string
	data    []byte
	length  int
	touched bool
	gen     uint64
}

func newBuffer(spec BufferSpec) *Buffer {
	return &Buffer{
		key:  spec.Key,
		path: spec.Path,
		data: make([]byte, spec.Capacity),
	}
}

// Key returns the buffer key.
func (b *Buffer) Key() string {
	return b.key
}

// Path returns the storage path, or "" for a volatile buffer.
func (b *Buffer) Path() string {
	return b.path
}

// Capacity returns the fixed buffer size.
func (b *Buffer) Capacity() int {
	return len(b.data)
}

// Touched returns true if the buffer changed since the last flush.
func (b *Buffer) Touched() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.touched
}

// Bytes returns a copy of the current value.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.data[:b.length]...)
}

// write copies p at offset and marks the buffer touched. Bytes past the
// write are kept; the value only grows. The caller has checked the bounds.
func (b *Buffer) write(p []byte, offset int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	copy(b.data[offset:], p)
	b.length = max(b.length, offset+len(p))
	b.touched = true
	b.gen++
}

// replace overwrites the whole value, truncated to capacity, without
// touching the buffer.
func (b *Buffer) replace(p []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := copy(b.data, p)
	b.setLength(n)
}

// setLength moves the end of the value, zeroing anything past it.
func (b *Buffer) setLength(n int) {
	if n < b.length {
		clear(b.data[n:b.length])
	}
	b.length = n
}

// snapshot returns the value to persist and the write generation it
// reflects, or ok=false if the buffer is not touched.
func (b *Buffer) snapshot() (data []byte, gen uint64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.touched {
		return nil, 0, false
	}
	return append([]byte(nil), b.data[:b.length]...), b.gen, true
}

// settle clears touched if no write happened since the snapshot at gen.
func (b *Buffer) settle(gen uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gen != gen {
		return false
	}
	b.touched = false
	return true
}
