// Package storage provides the byte-oriented persistent storage used by the
// asset tag.
//
// Storage is addressed by short relative paths ("value", "data",
// "boot_count"). A Volume adds mounting and a boot counter that is
// incremented once per successful mount. Three volumes are provided: a
// directory of files (the host stand-in for the tag's flash filesystem), a
// SQLite database and an in-memory map for tests.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
)

// BootCountPath is the file holding the little-endian uint32 boot counter.
const BootCountPath = "boot_count"

// Storage errors.
var (
	ErrNotFound    = errors.New("storage: not found")
	ErrStorage     = errors.New("storage failure")
	ErrMount       = errors.New("storage mount failed")
	ErrNotMounted  = errors.New("storage not mounted")
	ErrInvalidPath = errors.New("invalid storage path")
)

// Storage reads and writes whole byte values by path.
type Storage interface {
	// Read returns the stored bytes. Missing paths return ErrNotFound.
	Read(path string) ([]byte, error)

	// Write replaces the stored bytes.
	Write(path string, data []byte) error
}

// Volume is a mountable Storage.
type Volume interface {
	Storage

	// Mount prepares the volume and increments the boot counter.
	Mount() error

	// BootCount returns the boot counter observed by the last Mount.
	BootCount() uint32

	// Close releases the volume.
	Close() error
}

// validPath rejects absolute paths and paths escaping the volume root.
func validPath(path string) error {
	if path == "" || !filepath.IsLocal(path) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return nil
}

// ReadBootCount returns the stored boot counter without changing it. A
// missing counter reads as 0.
func ReadBootCount(s Storage) (uint32, error) {
	data, err := s.Read(BootCountPath)
	switch {
	case errors.Is(err, ErrNotFound):
		return 0, nil
	case err != nil:
		return 0, err
	case len(data) < 4:
		return 0, fmt.Errorf("%w: short boot counter (%d bytes)", ErrStorage, len(data))
	}
	return binary.LittleEndian.Uint32(data), nil
}

// updateBootCount reads, increments and writes the boot counter.
func updateBootCount(s Storage) (uint32, error) {
	var count uint32

	data, err := s.Read(BootCountPath)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return 0, err
	case len(data) >= 4:
		count = binary.LittleEndian.Uint32(data)
	}

	count++
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, count)
	if err := s.Write(BootCountPath, buf); err != nil {
		return 0, err
	}
	return count, nil
}
