// Package log records the tag's lifecycle as a machine-readable event trace.
//
// It is separate from operational logging (slog): every wake cycle phase,
// remote write, flush, state change and error becomes an Event that can be
// replayed later with the events command.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// On the tag: write to a size-bounded, rotating file
//	cfg.EventLogger, _ = log.NewFileLogger(log.FileConfig{Path: "./events.tlog"})
//
//	// Both: use MultiLogger
//	cfg.EventLogger = log.NewMultiLogger(console, file)
//
// # File Format
//
// Event files are a stream of CBOR items with integer keys (.tlog).
// Rotation happens between events, so every file decodes on its own.
package log
