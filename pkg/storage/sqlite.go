package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS files (
	path       TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);`

// SQLiteConfig configures a SQLiteVolume.
type SQLiteConfig struct {
	// Path is the database file. ":memory:" is accepted for tests.
	Path string

	// Wipe deletes all stored values before mounting.
	Wipe bool

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// SQLiteVolume stores values as rows of a single SQLite table.
type SQLiteVolume struct {
	mu        sync.Mutex
	cfg       SQLiteConfig
	db        *sql.DB
	bootCount uint32
}

// NewSQLiteVolume creates a SQLite volume. Call Mount before use.
func NewSQLiteVolume(cfg SQLiteConfig) *SQLiteVolume {
	return &SQLiteVolume{cfg: cfg}
}

// Open opens the database and applies the schema without touching the
// boot counter. Mount calls it; read-only tools call it directly.
func (v *SQLiteVolume) Open() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.open()
}

func (v *SQLiteVolume) open() error {
	if v.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite3", v.cfg.Path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrMount, v.cfg.Path, err)
	}
	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("%w: connect %s: %v", ErrMount, v.cfg.Path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return fmt.Errorf("%w: schema: %v", ErrMount, err)
	}
	v.db = db
	return nil
}

// Mount opens the database, applies the schema and increments the boot
// counter.
func (v *SQLiteVolume) Mount() error {
	v.mu.Lock()
	if err := v.open(); err != nil {
		v.mu.Unlock()
		return err
	}
	if v.cfg.Wipe {
		if _, err := v.db.Exec(`DELETE FROM files`); err != nil {
			v.mu.Unlock()
			return fmt.Errorf("%w: wipe: %v", ErrMount, err)
		}
	}
	v.mu.Unlock()

	count, err := updateBootCount(v)
	if err != nil {
		return fmt.Errorf("%w: boot count: %v", ErrMount, err)
	}

	v.mu.Lock()
	v.bootCount = count
	v.mu.Unlock()

	if v.cfg.Logger != nil {
		v.cfg.Logger.Info("storage mounted", "db", v.cfg.Path, "boot_count", count)
	}
	return nil
}

// BootCount returns the boot counter observed by the last Mount.
func (v *SQLiteVolume) BootCount() uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bootCount
}

// Read returns the value stored at path.
func (v *SQLiteVolume) Read(path string) ([]byte, error) {
	db, err := v.handle(path)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = db.QueryRow(`SELECT data FROM files WHERE path = ?`, path).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, path, err)
	}
	return data, nil
}

// Write replaces the value stored at path.
func (v *SQLiteVolume) Write(path string, data []byte) error {
	db, err := v.handle(path)
	if err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}

	_, err = db.Exec(`
		INSERT INTO files (path, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		path, data, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorage, path, err)
	}
	return nil
}

// Close closes the database.
func (v *SQLiteVolume) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.db == nil {
		return nil
	}
	err := v.db.Close()
	v.db = nil
	return err
}

func (v *SQLiteVolume) handle(path string) (*sql.DB, error) {
	if err := validPath(path); err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.db == nil {
		return nil, ErrNotMounted
	}
	return v.db, nil
}

// Compile-time interface satisfaction check.
var _ Volume = (*SQLiteVolume)(nil)
