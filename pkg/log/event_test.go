package log

import (
	"testing"
	"time"
)

func TestLayerString(t *testing.T) {
	tests := []struct {
		layer Layer
		want  string
	}{
		{LayerLifecycle, "LIFECYCLE"},
		{LayerTimer, "TIMER"},
		{LayerWork, "WORK"},
		{LayerStore, "STORE"},
		{LayerRadio, "RADIO"},
		{LayerPower, "POWER"},
		{LayerBattery, "BATTERY"},
		{Layer(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.layer.String(); got != tt.want {
			t.Errorf("Layer(%d).String() = %q, want %q", tt.layer, got, tt.want)
		}
		if tt.want == "UNKNOWN" {
			continue
		}
		parsed, ok := ParseLayer(tt.want)
		if !ok || parsed != tt.layer {
			t.Errorf("ParseLayer(%q) = %v, %v", tt.want, parsed, ok)
		}
	}
	if _, ok := ParseLayer("WIRE"); ok {
		t.Error("ParseLayer accepted an unknown name")
	}
}

func TestCategoryString(t *testing.T) {
	names := map[Category]string{
		CategoryState: "STATE",
		CategoryPhase: "PHASE",
		CategoryWrite: "WRITE",
		CategoryFlush: "FLUSH",
		CategoryError: "ERROR",
		Category(42):  "UNKNOWN",
	}
	for c, want := range names {
		if got := c.String(); got != want {
			t.Errorf("Category(%d).String() = %q, want %q", c, got, want)
		}
	}
	if c, ok := ParseCategory("FLUSH"); !ok || c != CategoryFlush {
		t.Errorf("ParseCategory(FLUSH) = %v, %v", c, ok)
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseAdvertiseStart.String() != "ADVERTISE_START" {
		t.Errorf("got %q", PhaseAdvertiseStart.String())
	}
	if Phase(200).String() != "UNKNOWN" {
		t.Errorf("got %q", Phase(200).String())
	}
}

func TestEventRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	events := []Event{
		{
			Timestamp: ts, TagID: "tag-1", BootCount: 7,
			Layer: LayerLifecycle, Category: CategoryState,
			StateChange: &StateChangeEvent{OldState: "RUNNING", NewState: "DONE", Reason: "finished"},
		},
		{
			Timestamp: ts, Layer: LayerBattery, Category: CategoryPhase, Cycle: 3,
			Phase: &PhaseEvent{Phase: PhaseSample, Duration: 2 * time.Millisecond, Millivolts: 2950, Percent: 71},
		},
		{
			Timestamp: ts, Layer: LayerStore, Category: CategoryWrite,
			Write: &WriteEvent{Key: "data", Offset: 4, Length: 10},
		},
		{
			Timestamp: ts, Layer: LayerStore, Category: CategoryFlush, Cycle: 4,
			Flush: &FlushEvent{Keys: []string{"value", "data"}},
		},
		{
			Timestamp: ts, Layer: LayerRadio, Category: CategoryError,
			Error: &ErrorEventData{Layer: LayerRadio, Message: "no multicast", Kind: "TRANSPORT", Fatal: true},
		},
	}

	for _, want := range events {
		data, err := EncodeEvent(want)
		if err != nil {
			t.Fatalf("EncodeEvent: %v", err)
		}
		got, err := DecodeEvent(data)
		if err != nil {
			t.Fatalf("DecodeEvent: %v", err)
		}
		if !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("Timestamp: got %v, want %v", got.Timestamp, want.Timestamp)
		}
		if got.Layer != want.Layer || got.Category != want.Category || got.Cycle != want.Cycle {
			t.Errorf("header mismatch: got %+v, want %+v", got, want)
		}
		switch {
		case want.StateChange != nil:
			if got.StateChange == nil || *got.StateChange != *want.StateChange {
				t.Errorf("StateChange: got %+v", got.StateChange)
			}
		case want.Phase != nil:
			if got.Phase == nil || *got.Phase != *want.Phase {
				t.Errorf("Phase: got %+v", got.Phase)
			}
		case want.Write != nil:
			if got.Write == nil || *got.Write != *want.Write {
				t.Errorf("Write: got %+v", got.Write)
			}
		case want.Flush != nil:
			if got.Flush == nil || len(got.Flush.Keys) != 2 || got.Flush.Keys[1] != "data" {
				t.Errorf("Flush: got %+v", got.Flush)
			}
		case want.Error != nil:
			if got.Error == nil || *got.Error != *want.Error {
				t.Errorf("Error: got %+v", got.Error)
			}
		}
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	e := Event{
		Timestamp: time.Unix(0, 42).UTC(),
		Layer:     LayerStore,
		Category:  CategoryWrite,
		Write:     &WriteEvent{Key: "value", Length: 3},
	}
	a, err := EncodeEvent(e)
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncodeEvent(e)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("encoding differs between calls")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xff, 0x00}); err == nil {
		t.Error("expected error for invalid CBOR")
	}
}
