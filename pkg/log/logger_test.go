package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// recordingLogger records events for testing.
type recordingLogger struct {
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.events = append(r.events, event)
}

func TestNoopLoggerIsZeroValue(t *testing.T) {
	var logger NoopLogger
	logger.Log(Event{})
	logger.Log(Event{Error: &ErrorEventData{Message: "ignored"}})
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	r := &recordingLogger{}
	if OrNoop(r) != Logger(r) {
		t.Error("OrNoop should return a non-nil logger unchanged")
	}
}

func TestMultiLoggerCallsAll(t *testing.T) {
	r1, r2 := &recordingLogger{}, &recordingLogger{}
	multi := NewMultiLogger(r1, nil, r2)

	multi.Log(Event{Timestamp: time.Now(), Cycle: 9, Layer: LayerTimer})

	for i, r := range []*recordingLogger{r1, r2} {
		if len(r.events) != 1 || r.events[0].Cycle != 9 {
			t.Errorf("logger %d: got %+v", i, r.events)
		}
	}
}

func TestMultiLoggerEmpty(t *testing.T) {
	NewMultiLogger().Log(Event{})
}

func decodeJSONLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterLogsPhase(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Log(Event{
		Timestamp: time.Now(),
		TagID:     "tag-9",
		Cycle:     3,
		Layer:     LayerBattery,
		Category:  CategoryPhase,
		Phase:     &PhaseEvent{Phase: PhaseSample, Millivolts: 2950, Percent: 71},
	})

	entry := decodeJSONLine(t, &buf)
	checks := map[string]any{
		"msg":        "event",
		"level":      "DEBUG",
		"layer":      "BATTERY",
		"phase":      "SAMPLE",
		"tag_id":     "tag-9",
		"cycle":      float64(3),
		"millivolts": float64(2950),
		"percent":    float64(71),
	}
	for k, want := range checks {
		if entry[k] != want {
			t.Errorf("%s: got %v, want %v", k, entry[k], want)
		}
	}
}

func TestSlogAdapterLogsErrorsAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, nil)))

	adapter.Log(Event{
		Layer:    LayerRadio,
		Category: CategoryError,
		Error:    &ErrorEventData{Layer: LayerRadio, Message: "register failed", Kind: "TRANSPORT", Fatal: true},
	})

	entry := decodeJSONLine(t, &buf)
	if entry["level"] != "ERROR" {
		t.Errorf("level: got %v", entry["level"])
	}
	if entry["kind"] != "TRANSPORT" || entry["fatal"] != true {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestSlogAdapterBelowLevelIsDropped(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))

	adapter.Log(Event{Layer: LayerStore, Category: CategoryWrite, Write: &WriteEvent{Key: "value"}})
	if buf.Len() != 0 {
		t.Errorf("debug event logged at info level: %q", buf.String())
	}
}

func TestAttrsForWriteAndFlush(t *testing.T) {
	var keys []string
	for _, a := range Attrs(Event{Write: &WriteEvent{Key: "data", Offset: 1, Length: 2}}) {
		keys = append(keys, a.Key)
	}
	if got := strings.Join(keys, ","); got != "layer,category,key,offset,length" {
		t.Errorf("write attrs: %s", got)
	}

	attrs := Attrs(Event{Flush: &FlushEvent{Keys: []string{"value"}}})
	if last := attrs[len(attrs)-1]; last.Key != "keys" {
		t.Errorf("flush attrs end with %q", last.Key)
	}
}
