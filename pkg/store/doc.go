// Package store keeps in-memory mirrors of the tag's externally writable
// values and flushes them to storage only when they were touched.
//
// Each Buffer has a fixed capacity and a touched flag. Remote writes go
// through WriteBuffer, which bounds-checks offset and length, updates the
// buffer and marks it touched without persisting. Load refreshes a buffer
// from storage without marking it touched. FlushIfTouched persists a touched
// buffer and clears the flag; it performs no I/O for an untouched buffer.
//
// A buffer's value has a length: a write at offset o of n bytes sets the
// length to max(length, o+n). A shorter write overwrites in place and keeps
// the bytes after it. Bytes past the length are kept zero.
//
// All access to a buffer is serialized by a per-buffer mutex. A flush takes
// a snapshot under the lock, writes it to storage outside the lock, and only
// clears touched if no write happened in between, so every change is
// flushed at least once and an unchanged buffer is never rewritten.
package store
