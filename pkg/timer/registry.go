package timer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Registry constants.
const (
	// DefaultCapacity is the default number of timer bindings.
	DefaultCapacity = 5
)

// Registry errors.
var (
	ErrResourceExhausted = errors.New("timer registry capacity exhausted")
	ErrInvalidPeriod     = errors.New("invalid timer period")
	ErrInvalidDelay      = errors.New("invalid timer delay")
)

// Identity identifies a registered timer for the life of the process.
type Identity uint64

// nextIdentity is shared by all registries so identities never repeat.
var nextIdentity atomic.Uint64

func newIdentity() Identity {
	return Identity(nextIdentity.Add(1))
}

// Kind distinguishes periodic from one-shot timers.
type Kind uint8

const (
	// KindPeriodic fires repeatedly until stopped.
	KindPeriodic Kind = iota

	// KindOneShot fires once.
	KindOneShot
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPeriodic:
		return "PERIODIC"
	case KindOneShot:
		return "ONE_SHOT"
	default:
		return "UNKNOWN"
	}
}

// binding is one entry of the dispatch table.
type binding struct {
	id       Identity
	name     string
	kind     Kind
	initial  time.Duration
	period   time.Duration
	callback func()
	live     atomic.Bool
	fired    atomic.Uint64
}

// BindingInfo is a read-only snapshot of a table entry.
type BindingInfo struct {
	ID      Identity
	Name    string
	Kind    Kind
	Initial time.Duration
	Period  time.Duration
	Live    bool
	Fired   uint64
}

// Config configures a Registry.
type Config struct {
	// Capacity is the maximum number of bindings (default: 5).
	Capacity int

	// Source schedules firings. If nil, the wall clock is used.
	Source Source

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// Registry binds a fixed number of timers to dispatch callbacks.
type Registry struct {
	mu       sync.RWMutex
	bindings []*binding
	capacity int
	source   Source
	logger   *slog.Logger
	dropped  atomic.Uint64
}

// NewRegistry creates a registry with the given configuration.
func NewRegistry(cfg Config) *Registry {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Source == nil {
		cfg.Source = WallClock()
	}
	return &Registry{
		bindings: make([]*binding, 0, cfg.Capacity),
		capacity: cfg.Capacity,
		source:   cfg.Source,
		logger:   cfg.Logger,
	}
}

// Cap returns the capacity of the binding table.
func (r *Registry) Cap() int {
	return r.capacity
}

// Len returns the number of occupied table entries, live or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// Dropped returns the number of firings that matched no live binding.
func (r *Registry) Dropped() uint64 {
	return r.dropped.Load()
}

// Bindings returns a snapshot of the table in registration order.
func (r *Registry) Bindings() []BindingInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]BindingInfo, 0, len(r.bindings))
	for _, b := range r.bindings {
		out = append(out, BindingInfo{
			ID:      b.id,
			Name:    b.name,
			Kind:    b.kind,
			Initial: b.initial,
			Period:  b.period,
			Live:    b.live.Load(),
			Fired:   b.fired.Load(),
		})
	}
	return out
}

// RegisterPeriodic registers a timer firing every scale/hz seconds.
// The first firing happens 1/hz seconds after registration. A zero scale
// is treated as 1.
func (r *Registry) RegisterPeriodic(name string, hz, scale uint, callback func()) (*Handle, error) {
	if hz == 0 {
		return nil, fmt.Errorf("%w: zero frequency", ErrInvalidPeriod)
	}
	if scale == 0 {
		scale = 1
	}
	initial := time.Second / time.Duration(hz)
	period := time.Duration(scale) * time.Second / time.Duration(hz)
	return r.register(name, KindPeriodic, initial, period, callback)
}

// RegisterEvery registers a periodic timer from a period. Whole seconds
// map to a 1 Hz timer, anything else to a 1 kHz timer; periods that are not
// a whole number of milliseconds are rejected.
func (r *Registry) RegisterEvery(name string, period time.Duration, callback func()) (*Handle, error) {
	switch {
	case period <= 0 || period%time.Millisecond != 0:
		return nil, fmt.Errorf("%w: %v", ErrInvalidPeriod, period)
	case period%time.Second == 0:
		return r.RegisterPeriodic(name, 1, uint(period/time.Second), callback)
	default:
		return r.RegisterPeriodic(name, 1000, uint(period/time.Millisecond), callback)
	}
}

// RegisterOneShot registers a timer firing once after delay.
func (r *Registry) RegisterOneShot(name string, delay time.Duration, callback func()) (*Handle, error) {
	if delay < 0 {
		return nil, ErrInvalidDelay
	}
	return r.register(name, KindOneShot, delay, 0, callback)
}

func (r *Registry) register(name string, kind Kind, initial, period time.Duration, callback func()) (*Handle, error) {
	if callback == nil {
		callback = func() {}
	}

	r.mu.Lock()
	if len(r.bindings) >= r.capacity {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %d of %d in use, cannot register %q",
			ErrResourceExhausted, r.capacity, r.capacity, name)
	}
	b := &binding{
		id:       newIdentity(),
		name:     name,
		kind:     kind,
		initial:  initial,
		period:   period,
		callback: callback,
	}
	b.live.Store(true)
	r.bindings = append(r.bindings, b)
	index := len(r.bindings) - 1
	r.mu.Unlock()

	r.debug("registering timer", "index", index, "name", name, "id", b.id, "kind", kind.String(), "period", period)

	id := b.id
	stop := r.source.Schedule(initial, period, func() {
		r.Dispatch(id)
	})

	return &Handle{registry: r, binding: b, stop: stop}, nil
}

// Dispatch delivers a firing to the binding with the given identity.
// It runs on the expiry context: unknown or stopped identities are dropped
// silently.
func (r *Registry) Dispatch(id Identity) {
	var callback func()

	r.mu.RLock()
	for _, b := range r.bindings {
		if b.id == id && b.live.Load() {
			b.fired.Add(1)
			callback = b.callback
			break
		}
	}
	r.mu.RUnlock()

	if callback == nil {
		r.dropped.Add(1)
		return
	}
	callback()
}

func (r *Registry) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

// Handle owns a registered timer.
type Handle struct {
	registry *Registry
	binding  *binding
	stop     func()
	once     sync.Once
}

// ID returns the identity of the timer.
func (h *Handle) ID() Identity {
	return h.binding.id
}

// Name returns the registration name.
func (h *Handle) Name() string {
	return h.binding.name
}

// Fired returns how many firings were dispatched to this timer's callback.
func (h *Handle) Fired() uint64 {
	return h.binding.fired.Load()
}

// Stopped returns true once Stop has been called.
func (h *Handle) Stopped() bool {
	return !h.binding.live.Load()
}

// Stop cancels the timer. No firing is dispatched after Stop returns,
// although a callback already running may still complete.
// It is safe to call Stop multiple times.
func (h *Handle) Stop() {
	h.once.Do(func() {
		// Taking the write lock waits out any Dispatch still scanning the table.
		h.registry.mu.Lock()
		h.binding.live.Store(false)
		h.registry.mu.Unlock()
		if h.stop != nil {
			h.stop()
		}
		h.registry.debug("stopped timer", "name", h.binding.name, "id", h.binding.id)
	})
}
