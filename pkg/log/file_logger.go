package log

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig configures a FileLogger.
type FileConfig struct {
	// Path of the active event file.
	Path string

	// MaxSizeMB rotates the file once it exceeds this size (default: 1).
	MaxSizeMB int

	// MaxBackups bounds the number of rotated files kept (default: 2).
	MaxBackups int
}

// FileLogger writes events to a rotating file in CBOR format.
// It is safe for concurrent use.
type FileLogger struct {
	out     io.WriteCloser
	encoder *cbor.Encoder
	mu      sync.Mutex
	closed  bool
	errs    int
}

// NewFileLogger opens the event file, creating its directory if needed.
// Existing events are kept and new events appended.
func NewFileLogger(cfg FileConfig) (*FileLogger, error) {
	if cfg.Path == "" {
		return nil, errors.New("event log: path is required")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	out := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    max(cfg.MaxSizeMB, 1),
		MaxBackups: max(cfg.MaxBackups, 2),
	}
	return newFileLogger(out), nil
}

func newFileLogger(out io.WriteCloser) *FileLogger {
	return &FileLogger{
		out:     out,
		encoder: NewEncoder(out),
	}
}

// Log appends an event. Encoding errors are counted, not returned.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if err := l.encoder.Encode(event); err != nil {
		l.errs++
	}
}

// Errors returns the number of events that could not be written.
func (l *FileLogger) Errors() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errs
}

// Close closes the file. Later Log calls are ignored.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.out.Close()
}

var _ Logger = (*FileLogger)(nil)
