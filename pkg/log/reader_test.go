package log

import (
	"io"
	"path/filepath"
	"testing"
	"time"
)

func createTestLogFile(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.tlog")

	logger, err := NewFileLogger(FileConfig{Path: path})
	if err != nil {
		t.Fatalf("failed to create test log: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()
	return path
}

func readAll(t *testing.T, r *Reader) []Event {
	t.Helper()
	var out []Event
	for {
		e, err := r.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		out = append(out, e)
	}
}

func TestReaderIteratesEvents(t *testing.T) {
	now := time.Now()
	path := createTestLogFile(t, []Event{
		{Timestamp: now, Cycle: 1, Layer: LayerStore, Category: CategoryFlush},
		{Timestamp: now, Cycle: 1, Layer: LayerBattery, Category: CategoryPhase},
		{Timestamp: now, Cycle: 1, Layer: LayerRadio, Category: CategoryPhase},
	})

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	read := readAll(t, reader)
	if len(read) != 3 {
		t.Fatalf("got %d events, want 3", len(read))
	}
	if read[0].Layer != LayerStore || read[2].Layer != LayerRadio {
		t.Errorf("events out of order: %v, %v", read[0].Layer, read[2].Layer)
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing.tlog")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, []Event{
		{Timestamp: base, TagID: "a", Cycle: 1, Layer: LayerStore, Category: CategoryWrite},
		{Timestamp: base.Add(time.Second), TagID: "a", Cycle: 1, Layer: LayerRadio, Category: CategoryPhase},
		{Timestamp: base.Add(2 * time.Second), TagID: "b", Cycle: 2, Layer: LayerRadio, Category: CategoryError},
		{Timestamp: base.Add(3 * time.Second), TagID: "a", Cycle: 2, Layer: LayerLifecycle, Category: CategoryState},
	})

	radio := LayerRadio
	errCat := CategoryError
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"All", Filter{}, 4},
		{"Layer", Filter{Layer: &radio}, 2},
		{"Category", Filter{Category: &errCat}, 1},
		{"TagID", Filter{TagID: "a"}, 3},
		{"Cycle", Filter{Cycle: 2}, 2},
		{"TimeRange", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"Combined", Filter{Layer: &radio, TagID: "a"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			defer reader.Close()
			if got := len(readAll(t, reader)); got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
		})
	}
}
