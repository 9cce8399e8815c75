package log

import (
	"time"
)

// Event is one entry of the lifecycle trace.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// TagID identifies the tag (UUID).
	TagID string `cbor:"2,keyasint,omitempty"`

	// BootCount is the boot counter at the time of the event.
	BootCount uint32 `cbor:"3,keyasint,omitempty"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Cycle is the wake cycle number (0 outside a cycle).
	Cycle uint64 `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	StateChange *StateChangeEvent `cbor:"10,keyasint,omitempty"`
	Phase       *PhaseEvent       `cbor:"11,keyasint,omitempty"`
	Write       *WriteEvent       `cbor:"12,keyasint,omitempty"`
	Flush       *FlushEvent       `cbor:"13,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Layer indicates which component captured the event.
type Layer uint8

const (
	LayerLifecycle Layer = 0
	LayerTimer     Layer = 1
	LayerWork      Layer = 2
	LayerStore     Layer = 3
	LayerRadio     Layer = 4
	LayerPower     Layer = 5
	LayerBattery   Layer = 6
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerLifecycle:
		return "LIFECYCLE"
	case LayerTimer:
		return "TIMER"
	case LayerWork:
		return "WORK"
	case LayerStore:
		return "STORE"
	case LayerRadio:
		return "RADIO"
	case LayerPower:
		return "POWER"
	case LayerBattery:
		return "BATTERY"
	default:
		return "UNKNOWN"
	}
}

// ParseLayer returns the layer with the given name.
func ParseLayer(s string) (Layer, bool) {
	for l := LayerLifecycle; l <= LayerBattery; l++ {
		if l.String() == s {
			return l, true
		}
	}
	return 0, false
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryState indicates a state change.
	CategoryState Category = 0
	// CategoryPhase indicates a wake cycle phase.
	CategoryPhase Category = 1
	// CategoryWrite indicates a remote write.
	CategoryWrite Category = 2
	// CategoryFlush indicates a flush of touched values.
	CategoryFlush Category = 3
	// CategoryError indicates an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategoryPhase:
		return "PHASE"
	case CategoryWrite:
		return "WRITE"
	case CategoryFlush:
		return "FLUSH"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory returns the category with the given name.
func ParseCategory(s string) (Category, bool) {
	for c := CategoryState; c <= CategoryError; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// StateChangeEvent captures lifecycle state transitions.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// Phase is a step of the wake cycle.
type Phase uint8

const (
	PhaseFlush          Phase = 0
	PhaseSample         Phase = 1
	PhaseAdvertiseStart Phase = 2
	PhaseHold           Phase = 3
	PhaseAdvertiseStop  Phase = 4
	PhaseComplete       Phase = 5
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseFlush:
		return "FLUSH"
	case PhaseSample:
		return "SAMPLE"
	case PhaseAdvertiseStart:
		return "ADVERTISE_START"
	case PhaseHold:
		return "HOLD"
	case PhaseAdvertiseStop:
		return "ADVERTISE_STOP"
	case PhaseComplete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// PhaseEvent captures one completed wake cycle phase.
type PhaseEvent struct {
	Phase Phase `cbor:"1,keyasint"`

	// Duration of the phase (nanoseconds).
	Duration time.Duration `cbor:"2,keyasint,omitempty"`

	// Millivolts and Percent are set for the sample phase.
	Millivolts int32 `cbor:"3,keyasint,omitempty"`
	Percent    uint8 `cbor:"4,keyasint,omitempty"`

	// Name is the advertised name for the advertise start phase.
	Name string `cbor:"5,keyasint,omitempty"`
}

// WriteEvent captures a remote write into a value buffer.
type WriteEvent struct {
	Key    string `cbor:"1,keyasint"`
	Offset int    `cbor:"2,keyasint"`
	Length int    `cbor:"3,keyasint"`
}

// FlushEvent captures the buffers persisted by a flush.
type FlushEvent struct {
	Keys []string `cbor:"1,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Kind classifies the failure (e.g. TRANSPORT, STORAGE).
	Kind string `cbor:"3,keyasint,omitempty"`

	// Fatal is set when the error ends the lifecycle.
	Fatal bool `cbor:"4,keyasint,omitempty"`
}
