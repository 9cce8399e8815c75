package storage

import (
	"fmt"
	"sync"
)

// MemoryVolume keeps values in memory. Faults can be injected for tests.
type MemoryVolume struct {
	mu        sync.Mutex
	files     map[string][]byte
	mounted   bool
	bootCount uint32
	reads     int
	writes    int
	readErr   error
	writeErr  error
	mountErr  error
}

// NewMemoryVolume creates an empty, unmounted memory volume.
func NewMemoryVolume() *MemoryVolume {
	return &MemoryVolume{files: make(map[string][]byte)}
}

// Mount marks the volume mounted and increments the boot counter.
func (v *MemoryVolume) Mount() error {
	v.mu.Lock()
	if v.mountErr != nil {
		err := v.mountErr
		v.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrMount, err)
	}
	v.mounted = true
	v.mu.Unlock()

	count, err := updateBootCount(v)
	if err != nil {
		return fmt.Errorf("%w: boot count: %v", ErrMount, err)
	}
	v.mu.Lock()
	v.bootCount = count
	v.mu.Unlock()
	return nil
}

// BootCount returns the boot counter observed by the last Mount.
func (v *MemoryVolume) BootCount() uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bootCount
}

// Read returns a copy of the value at path.
func (v *MemoryVolume) Read(path string) ([]byte, error) {
	if err := validPath(path); err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		return nil, ErrNotMounted
	}
	v.reads++
	if v.readErr != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, path, v.readErr)
	}
	data, ok := v.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return append([]byte(nil), data...), nil
}

// Write stores a copy of data at path.
func (v *MemoryVolume) Write(path string, data []byte) error {
	if err := validPath(path); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		return ErrNotMounted
	}
	v.writes++
	if v.writeErr != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorage, path, v.writeErr)
	}
	v.files[path] = append([]byte(nil), data...)
	return nil
}

// Close unmounts the volume. Stored values survive a later Mount.
func (v *MemoryVolume) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mounted = false
	return nil
}

// Reads returns the number of Read calls on a mounted volume.
func (v *MemoryVolume) Reads() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reads
}

// Writes returns the number of Write calls on a mounted volume, including
// the boot counter update.
func (v *MemoryVolume) Writes() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.writes
}

// SetReadError makes subsequent reads fail with err (nil clears it).
func (v *MemoryVolume) SetReadError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.readErr = err
}

// SetWriteError makes subsequent writes fail with err (nil clears it).
func (v *MemoryVolume) SetWriteError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.writeErr = err
}

// SetMountError makes subsequent mounts fail with err (nil clears it).
func (v *MemoryVolume) SetMountError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mountErr = err
}

// Compile-time interface satisfaction check.
var _ Volume = (*MemoryVolume)(nil)
