package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/asset-tag/tag-go/pkg/log"
)

const testTagID = "0f8fad5b-d9cb-469f-a165-70867728950e"

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.tlog")

	logger, err := log.NewFileLogger(log.FileConfig{Path: path})
	if err != nil {
		t.Fatalf("failed to create event file: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close event file: %v", err)
	}
	return path
}

// wakeCycleEvents returns the events of one complete wake cycle.
func wakeCycleEvents(ts time.Time, boot uint32, cycle uint64, percent uint8) []log.Event {
	base := log.Event{TagID: testTagID, BootCount: boot, Cycle: cycle}
	at := func(d time.Duration, e log.Event) log.Event {
		e.Timestamp = ts.Add(d)
		e.TagID, e.BootCount, e.Cycle = base.TagID, base.BootCount, base.Cycle
		return e
	}
	return []log.Event{
		at(0, log.Event{Layer: log.LayerStore, Category: log.CategoryFlush, Flush: &log.FlushEvent{Keys: []string{"value"}}}),
		at(time.Millisecond, log.Event{Layer: log.LayerBattery, Category: log.CategoryPhase,
			Phase: &log.PhaseEvent{Phase: log.PhaseSample, Millivolts: 2950, Percent: percent}}),
		at(2*time.Millisecond, log.Event{Layer: log.LayerRadio, Category: log.CategoryPhase,
			Phase: &log.PhaseEvent{Phase: log.PhaseAdvertiseStart, Name: "Pallet 7"}}),
		at(16*time.Second, log.Event{Layer: log.LayerRadio, Category: log.CategoryPhase,
			Phase: &log.PhaseEvent{Phase: log.PhaseHold, Duration: 16 * time.Second}}),
		at(16*time.Second, log.Event{Layer: log.LayerLifecycle, Category: log.CategoryPhase,
			Phase: &log.PhaseEvent{Phase: log.PhaseComplete}}),
	}
}
