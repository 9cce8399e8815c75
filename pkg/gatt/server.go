package gatt

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/asset-tag/tag-go/pkg/store"
)

// ServerConfig configures a Server.
type ServerConfig struct {
	// Store holds the characteristic buffers. It must declare a buffer for
	// every characteristic.
	Store *store.Store

	// Characteristics is the service table (default: Characteristics()).
	Characteristics []Characteristic

	// Version is the firmware version exposed by the version characteristic.
	Version string

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// Server answers attribute reads and writes from a peer.
type Server struct {
	store  *store.Store
	chars  []Characteristic
	byUUID map[uuid.UUID]*Characteristic
	byName map[string]*Characteristic
	logger *slog.Logger
}

// NewServer creates a server over the store and publishes the version.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("gatt: store is required")
	}
	chars := cfg.Characteristics
	if chars == nil {
		chars = Characteristics()
	}

	s := &Server{
		store:  cfg.Store,
		chars:  chars,
		byUUID: make(map[uuid.UUID]*Characteristic, len(chars)),
		byName: make(map[string]*Characteristic, len(chars)),
		logger: cfg.Logger,
	}
	for i := range s.chars {
		c := &s.chars[i]
		if _, err := cfg.Store.Buffer(c.Buffer.Key); err != nil {
			return nil, fmt.Errorf("gatt: characteristic %s: %w", c.Name, err)
		}
		s.byUUID[c.UUID] = c
		s.byName[c.Name] = c
	}

	if _, ok := s.byName[CharVersion]; ok {
		if err := cfg.Store.Set(CharVersion, []byte(cfg.Version)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Characteristics returns the service table.
func (s *Server) Characteristics() []Characteristic {
	return append([]Characteristic(nil), s.chars...)
}

// Lookup returns the characteristic with the given name or UUID string.
func (s *Server) Lookup(nameOrUUID string) (Characteristic, bool) {
	if c, ok := s.byName[nameOrUUID]; ok {
		return *c, true
	}
	id, err := uuid.Parse(nameOrUUID)
	if err != nil {
		return Characteristic{}, false
	}
	c, ok := s.byUUID[id]
	if !ok {
		return Characteristic{}, false
	}
	return *c, true
}

// Read returns the characteristic value from offset.
func (s *Server) Read(id uuid.UUID, offset int) ([]byte, error) {
	c, ok := s.byUUID[id]
	if !ok {
		return nil, &E{C: ErrAttributeNotFound, Op: "read " + id.String()}
	}
	if !c.Access.CanRead() {
		return nil, &E{C: ErrReadNotPermitted, Op: "read " + c.Name}
	}
	data, err := s.store.Read(c.Buffer.Key, offset)
	if err != nil {
		return nil, &E{C: Of(err), Op: "read " + c.Name, Err: err}
	}
	return data, nil
}

// Write copies data into the characteristic at offset. The change is only
// held in memory until the store flushes it.
func (s *Server) Write(id uuid.UUID, data []byte, offset int) (int, error) {
	c, ok := s.byUUID[id]
	if !ok {
		return 0, &E{C: ErrAttributeNotFound, Op: "write " + id.String()}
	}
	if !c.Access.CanWrite() {
		return 0, &E{C: ErrWriteNotPermitted, Op: "write " + c.Name}
	}
	n, err := s.store.WriteBuffer(c.Buffer.Key, data, offset)
	if err != nil {
		return 0, &E{C: Of(err), Op: "write " + c.Name, Err: err}
	}
	if s.logger != nil {
		s.logger.Info("characteristic written", "char", c.Name, "offset", offset, "len", n)
	}
	return n, nil
}

// ReportError publishes msg through the error characteristic.
func (s *Server) ReportError(msg string) {
	if err := s.store.Set(CharError, []byte(msg)); err != nil {
		if s.logger != nil {
			s.logger.Warn("cannot publish error", "error", err)
		}
		return
	}
	if s.logger != nil {
		s.logger.Info("error published", "message", msg)
	}
}

// Name returns the content of the data characteristic up to the first NUL
// byte. The tag advertises it as its name.
func (s *Server) Name() string {
	data, err := s.store.Read(CharData, 0)
	if err != nil {
		return ""
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data)
}
