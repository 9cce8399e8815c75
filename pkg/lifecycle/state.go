package lifecycle

import (
	"errors"

	"github.com/asset-tag/tag-go/pkg/battery"
	"github.com/asset-tag/tag-go/pkg/power"
	"github.com/asset-tag/tag-go/pkg/radio"
	"github.com/asset-tag/tag-go/pkg/storage"
	"github.com/asset-tag/tag-go/pkg/timer"
)

// State is the lifecycle state.
type State uint8

const (
	// StateRunning is the initial state; wake cycles only run here.
	StateRunning State = iota
	// StateError ends the lifecycle after a fatal failure.
	StateError
	// StateDone ends the lifecycle normally and powers the tag off.
	StateDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateError:
		return "ERROR"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the state ends the lifecycle.
func (s State) Terminal() bool {
	return s == StateError || s == StateDone
}

// FailureKind classifies errors for the fail-fast policy.
type FailureKind uint8

const (
	FailureNone FailureKind = iota
	FailureResourceExhausted
	FailureTransport
	FailureStorage
	FailureConversion
	FailurePower
	FailureUnknown
)

// String returns the failure kind name.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "NONE"
	case FailureResourceExhausted:
		return "RESOURCE_EXHAUSTED"
	case FailureTransport:
		return "TRANSPORT"
	case FailureStorage:
		return "STORAGE"
	case FailureConversion:
		return "CONVERSION"
	case FailurePower:
		return "POWER"
	default:
		return "UNKNOWN"
	}
}

// Classify maps an error to its failure kind.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, timer.ErrResourceExhausted):
		return FailureResourceExhausted
	case errors.Is(err, radio.ErrTransport):
		return FailureTransport
	case errors.Is(err, storage.ErrStorage),
		errors.Is(err, storage.ErrMount),
		errors.Is(err, storage.ErrNotMounted):
		return FailureStorage
	case errors.Is(err, battery.ErrConversion):
		return FailureConversion
	case errors.Is(err, power.ErrPowerOffFailed), errors.Is(err, power.ErrPlatform):
		return FailurePower
	default:
		return FailureUnknown
	}
}
