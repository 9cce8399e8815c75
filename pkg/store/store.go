package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/asset-tag/tag-go/pkg/storage"
)

// DefaultCapacity is the size of the tag's writable values.
const DefaultCapacity = 128

// Store errors.
var (
	ErrInvalidOffset = errors.New("invalid offset")
	ErrUnknownKey    = errors.New("unknown buffer key")
	ErrDuplicateKey  = errors.New("duplicate buffer key")
	ErrInvalidSpec   = errors.New("invalid buffer spec")
)

// BufferSpec declares one buffer.
type BufferSpec struct {
	// Key names the buffer.
	Key string

	// Path is the storage path. Empty means the buffer is never persisted.
	Path string

	// Capacity is the fixed size in bytes (default: 128).
	Capacity int
}

// WriteHandler is called after a successful WriteBuffer.
type WriteHandler func(key string, offset, length int)

// Config configures a Store.
type Config struct {
	// Storage persists touched buffers.
	Storage storage.Storage

	// Buffers declares the buffers in flush order.
	Buffers []BufferSpec

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// Store holds the tag's buffers.
type Store struct {
	storage storage.Storage
	buffers map[string]*Buffer
	order   []*Buffer
	logger  *slog.Logger

	mu      sync.RWMutex
	onWrite []WriteHandler
}

// New creates a store with the declared buffers, all empty and untouched.
func New(cfg Config) (*Store, error) {
	s := &Store{
		storage: cfg.Storage,
		buffers: make(map[string]*Buffer, len(cfg.Buffers)),
		logger:  cfg.Logger,
	}
	for _, spec := range cfg.Buffers {
		if spec.Key == "" {
			return nil, fmt.Errorf("%w: empty key", ErrInvalidSpec)
		}
		if spec.Capacity < 0 {
			return nil, fmt.Errorf("%w: %s: negative capacity", ErrInvalidSpec, spec.Key)
		}
		if spec.Capacity == 0 {
			spec.Capacity = DefaultCapacity
		}
		if _, exists := s.buffers[spec.Key]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, spec.Key)
		}
		b := newBuffer(spec)
		s.buffers[spec.Key] = b
		s.order = append(s.order, b)
	}
	if s.storage == nil && s.hasPersistent() {
		return nil, fmt.Errorf("%w: persistent buffers need storage", ErrInvalidSpec)
	}
	return s, nil
}

func (s *Store) hasPersistent() bool {
	for _, b := range s.order {
		if b.path != "" {
			return true
		}
	}
	return false
}

// Keys returns the buffer keys in declaration order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.order))
	for _, b := range s.order {
		keys = append(keys, b.key)
	}
	return keys
}

// Buffer returns the buffer for key.
func (s *Store) Buffer(key string) (*Buffer, error) {
	b, ok := s.buffers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return b, nil
}

// OnWrite registers a handler called after each successful WriteBuffer.
func (s *Store) OnWrite(fn WriteHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onWrite = append(s.onWrite, fn)
}

// Load refreshes the buffer from storage without marking it touched and
// returns the loaded value. A missing value loads as empty. Content longer
// than the buffer is truncated.
func (s *Store) Load(key string) ([]byte, error) {
	b, err := s.Buffer(key)
	if err != nil {
		return nil, err
	}
	if b.path == "" {
		return b.Bytes(), nil
	}

	data, err := s.storage.Read(b.path)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.debug("no stored value, starting empty", "key", key, "path", b.path)
		data = nil
	case err != nil:
		return nil, err
	}

	b.replace(data)
	s.debug("loaded value", "key", key, "len", min(len(data), b.Capacity()))
	return b.Bytes(), nil
}

// LoadAll loads every persistent buffer. Failures are collected; buffers
// that failed to load stay as they were.
func (s *Store) LoadAll() error {
	var errs []error
	for _, b := range s.order {
		if b.path == "" {
			continue
		}
		if _, err := s.Load(b.key); err != nil {
			errs = append(errs, fmt.Errorf("load %s: %w", b.key, err))
		}
	}
	return errors.Join(errs...)
}

// WriteBuffer copies data into the buffer at offset and marks it touched.
// Writes reaching past the buffer capacity are rejected with
// ErrInvalidOffset and leave the buffer unchanged.
func (s *Store) WriteBuffer(key string, data []byte, offset int) (int, error) {
	b, err := s.Buffer(key)
	if err != nil {
		return 0, err
	}
	if offset < 0 || offset+len(data) > b.Capacity() {
		return 0, fmt.Errorf("%w: %s: offset %d + length %d exceeds %d",
			ErrInvalidOffset, key, offset, len(data), b.Capacity())
	}

	b.write(data, offset)

	s.mu.RLock()
	handlers := s.onWrite
	s.mu.RUnlock()
	for _, fn := range handlers {
		fn(key, offset, len(data))
	}
	return len(data), nil
}

// Read returns the buffer value from offset.
func (s *Store) Read(key string, offset int) ([]byte, error) {
	b, err := s.Buffer(key)
	if err != nil {
		return nil, err
	}
	data := b.Bytes()
	if offset < 0 || offset > len(data) {
		return nil, fmt.Errorf("%w: %s: offset %d beyond length %d", ErrInvalidOffset, key, offset, len(data))
	}
	return data[offset:], nil
}

// Set replaces the value locally, truncating to capacity, without marking
// the buffer touched.
func (s *Store) Set(key string, data []byte) error {
	b, err := s.Buffer(key)
	if err != nil {
		return err
	}
	b.replace(data)
	return nil
}

// Touched reports whether the buffer changed since its last flush.
func (s *Store) Touched(key string) bool {
	b, err := s.Buffer(key)
	if err != nil {
		return false
	}
	return b.Touched()
}

// AnyTouched reports whether any buffer awaits a flush.
func (s *Store) AnyTouched() bool {
	for _, b := range s.order {
		if b.Touched() {
			return true
		}
	}
	return false
}

// FlushIfTouched persists a touched buffer and clears its touched flag.
// It returns false without I/O for an untouched buffer. On a storage error
// the buffer stays touched.
func (s *Store) FlushIfTouched(key string) (bool, error) {
	b, err := s.Buffer(key)
	if err != nil {
		return false, err
	}

	data, gen, ok := b.snapshot()
	if !ok {
		return false, nil
	}
	if b.path != "" {
		if err := s.storage.Write(b.path, data); err != nil {
			return false, err
		}
	}
	if !b.settle(gen) {
		s.debug("buffer written during flush, staying touched", "key", key)
	}
	s.debug("flushed value", "key", key, "path", b.path, "len", len(data))
	return true, nil
}

// FlushTouched flushes every touched buffer in declaration order and
// returns the keys that were persisted. Failures are collected; the
// remaining buffers are still flushed.
func (s *Store) FlushTouched() ([]string, error) {
	var flushed []string
	var errs []error
	for _, b := range s.order {
		ok, err := s.FlushIfTouched(b.key)
		if err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", b.key, err))
			continue
		}
		if ok {
			flushed = append(flushed, b.key)
		}
	}
	return flushed, errors.Join(errs...)
}

func (s *Store) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
