package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// DirConfig configures a DirVolume.
type DirConfig struct {
	// Root is the mount point directory.
	Root string

	// Wipe erases the volume before mounting.
	Wipe bool

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// DirVolume stores each path as a file under a root directory.
type DirVolume struct {
	mu        sync.Mutex
	cfg       DirConfig
	mounted   bool
	opened    bool
	bootCount uint32
}

// NewDirVolume creates a directory volume. Call Mount before use.
func NewDirVolume(cfg DirConfig) *DirVolume {
	return &DirVolume{cfg: cfg}
}

// Root returns the mount point.
func (v *DirVolume) Root() string {
	return v.cfg.Root
}

// Open makes the existing root readable without mounting it: the
// directory is not created and the boot counter is left unchanged. Writes
// still require Mount.
func (v *DirVolume) Open() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cfg.Root == "" {
		return fmt.Errorf("%w: empty root", ErrMount)
	}
	info, err := os.Stat(v.cfg.Root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMount, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrMount, v.cfg.Root)
	}
	v.opened = true
	return nil
}

// Mount creates the root directory, wipes it if configured, and increments
// the boot counter.
func (v *DirVolume) Mount() error {
	v.mu.Lock()
	if v.cfg.Root == "" {
		v.mu.Unlock()
		return fmt.Errorf("%w: empty root", ErrMount)
	}
	if v.cfg.Wipe {
		if err := os.RemoveAll(v.cfg.Root); err != nil {
			v.mu.Unlock()
			return fmt.Errorf("%w: wipe %s: %v", ErrMount, v.cfg.Root, err)
		}
	}
	if err := os.MkdirAll(v.cfg.Root, 0755); err != nil {
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

	if v.cfg.Logger != nil {
		v.cfg.Logger.Info("storage mounted", "root", v.cfg.Root, "boot_count", count)
	}
	return nil
}

// BootCount returns the boot counter observed by the last Mount.
func (v *DirVolume) BootCount() uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bootCount
}

// Read returns the content of the file at path.
func (v *DirVolume) Read(path string) ([]byte, error) {
	full, err := v.resolve(path, false)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, path, err)
	}
	return data, nil
}

// Write replaces the file at path. The new content is written to a
// temporary file and renamed into place.
func (v *DirVolume) Write(path string, data []byte) error {
	full, err := v.resolve(path, true)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorage, path, err)
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorage, path, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: write %s: %v", ErrStorage, path, err)
	}
	return nil
}

// Close unmounts the volume.
func (v *DirVolume) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mounted = false
	v.opened = false
	return nil
}

func (v *DirVolume) resolve(path string, write bool) (string, error) {
	if err := validPath(path); err != nil {
		return "", err
	}
	v.mu.Lock()
	ok := v.mounted || (v.opened && !write)
	v.mu.Unlock()
	if !ok {
		return "", ErrNotMounted
	}
	return filepath.Join(v.cfg.Root, path), nil
}

// Compile-time interface satisfaction check.
var _ Volume = (*DirVolume)(nil)
