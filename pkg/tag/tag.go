package tag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/asset-tag/tag-go/pkg/battery"
	"github.com/asset-tag/tag-go/pkg/gatt"
	"github.com/asset-tag/tag-go/pkg/lifecycle"
	eventlog "github.com/asset-tag/tag-go/pkg/log"
	"github.com/asset-tag/tag-go/pkg/power"
	"github.com/asset-tag/tag-go/pkg/radio"
	"github.com/asset-tag/tag-go/pkg/storage"
	"github.com/asset-tag/tag-go/pkg/store"
	"github.com/asset-tag/tag-go/pkg/timer"
	"github.com/asset-tag/tag-go/pkg/work"
)

// Tag errors.
var (
	ErrAlreadyStarted = errors.New("tag already started")
	ErrInvalidConfig  = errors.New("invalid tag configuration")
)

// State is the run state of a Tag.
type State uint8

const (
	// StateIdle - created but not started.
	StateIdle State = iota

	// StateBooting - waiting for the startup delay, mounting and loading.
	StateBooting

	// StateRunning - the lifecycle is running.
	StateRunning

	// StateStopped - Run has returned.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateBooting:
		return "BOOTING"
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Config configures a Tag.
type Config struct {
	// Name is advertised while the data value is empty.
	Name string

	// Version is the firmware version exposed through the version value.
	Version string

	// TagID identifies the tag in advertisements and events.
	TagID uuid.UUID

	// StartupDelay passes before the first storage access.
	StartupDelay time.Duration

	// Period, DutyCyclePercent and MaxCycles configure the lifecycle.
	Period           time.Duration
	DutyCyclePercent uint
	MaxCycles        uint64

	// Curve maps millivolts to a battery level (default: battery.DefaultCurve).
	Curve battery.Curve

	// TimerCapacity sizes the timer registry (default: timer.DefaultCapacity).
	TimerCapacity int

	// StatusInterval schedules the status report on the base slot
	// (0 disables it).
	StatusInterval time.Duration

	// PowerTimeout bounds the wait for a wake after power-off.
	PowerTimeout time.Duration

	// OnFatal is called once with the first fatal lifecycle error.
	OnFatal func(error)

	// Logger is the optional operational logger.
	Logger *slog.Logger

	// EventLogger receives lifecycle and store events (optional).
	EventLogger eventlog.Logger
}

// Deps are the platform-facing collaborators of a Tag.
type Deps struct {
	Volume     storage.Volume
	Sampler    battery.Sampler
	Advertiser radio.Advertiser
	Platform   power.Platform

	// TimerSource drives the registry (default: the wall clock).
	TimerSource timer.Source
}

// Tag is an assembled asset tag.
type Tag struct {
	config Config
	logger *slog.Logger
	events eventlog.Logger

	volume   storage.Volume
	store    *store.Store
	server   *gatt.Server
	registry *timer.Registry
	worker   *work.Worker
	base     *work.Slot
	wake     *work.Slot
	life     *lifecycle.Controller
	power    *power.Controller

	mu           sync.RWMutex
	state        State
	bootCount    uint32
	statusTimer  *timer.Handle
	statusReport *work.Installation
}

// New assembles a tag. It performs no I/O; storage is mounted by Run.
func New(config Config, deps Deps) (*Tag, error) {
	switch {
	case deps.Volume == nil:
		return nil, fmt.Errorf("%w: volume required", ErrInvalidConfig)
	case deps.Sampler == nil:
		return nil, fmt.Errorf("%w: sampler required", ErrInvalidConfig)
	case deps.Advertiser == nil:
		return nil, fmt.Errorf("%w: advertiser required", ErrInvalidConfig)
	case deps.Platform == nil:
		return nil, fmt.Errorf("%w: power platform required", ErrInvalidConfig)
	case config.StartupDelay < 0:
		return nil, fmt.Errorf("%w: negative startup delay", ErrInvalidConfig)
	}
	if config.TagID == uuid.Nil {
		config.TagID = uuid.New()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t := &Tag{
		config: config,
		logger: logger,
		events: eventlog.OrNoop(config.EventLogger),
		volume: deps.Volume,
	}

	chars := gatt.Characteristics()
	st, err := store.New(store.Config{
		Storage: deps.Volume,
		Buffers: gatt.BufferSpecs(chars),
		Logger:  logger.With("component", "store"),
	})
	if err != nil {
		return nil, err
	}
	st.OnWrite(t.onWrite)
	t.store = st

	t.server, err = gatt.NewServer(gatt.ServerConfig{
		Store:           st,
		Characteristics: chars,
		Version:         config.Version,
		Logger:          logger.With("component", "gatt"),
	})
	if err != nil {
		return nil, err
	}

	t.registry = timer.NewRegistry(timer.Config{
		Capacity: config.TimerCapacity,
		Source:   deps.TimerSource,
		Logger:   logger.With("component", "timer"),
	})
	t.worker = work.NewWorker(work.WorkerConfig{
		Name:   "wake_work_q",
		Logger: logger.With("component", "work"),
	})
	t.base = t.worker.NewSlot("base")
	t.wake = t.worker.NewSlot("wake")

	t.power = power.NewController(deps.Platform, power.Config{
		Timeout: config.PowerTimeout,
		Logger:  logger.With("component", "power"),
	})

	t.life, err = lifecycle.New(lifecycle.Config{
		Period:           config.Period,
		DutyCyclePercent: config.DutyCyclePercent,
		MaxCycles:        config.MaxCycles,
		Curve:            config.Curve,
		TagID:            config.TagID,
		ServiceUUID:      gatt.ServiceUUID,
		Version:          config.Version,
		OnFatal:          config.OnFatal,
		OnScopeExit:      t.stopStatus,
		Logger:           logger.With("component", "lifecycle"),
		EventLogger:      t,
	}, lifecycle.Deps{
		Store:      st,
		Sampler:    deps.Sampler,
		Advertiser: deps.Advertiser,
		Attributes: attributes{server: t.server, fallback: config.Name},
		Registry:   t.registry,
		Slot:       t.wake,
		Power:      t.power,
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Run boots the tag and runs the lifecycle. It returns nil when the tag
// powered off and woke up again, the fatal error when the lifecycle failed
// and ctx.Err() when ctx ended first. The volume is closed on return.
func (t *Tag) Run(ctx context.Context) (err error) {
	t.mu.Lock()
	if t.state != StateIdle {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	t.state = StateBooting
	t.mu.Unlock()

	defer func() {
		if cerr := t.volume.Close(); cerr != nil {
			t.logger.Warn("closing storage failed", "error", cerr)
		}
		t.setState(StateStopped)
	}()

	t.logger.Info("Beginning main", "version", t.config.Version, "tag_id", t.config.TagID)

	if err := sleep(ctx, t.config.StartupDelay); err != nil {
		return err
	}

	if err := t.volume.Mount(); err != nil {
		return t.bootFailure(err)
	}
	t.mu.Lock()
	t.bootCount = t.volume.BootCount()
	t.mu.Unlock()
	t.logger.Info("storage mounted", "boot_count", t.BootCount())

	if err := t.store.LoadAll(); err != nil {
		t.loadFailure(err)
	}

	t.worker.Start(ctx)
	defer t.worker.Stop()

	if t.config.StatusInterval > 0 {
		inst := t.base.Install(t.reportStatus)
		h, err := t.registry.RegisterEvery("status", t.config.StatusInterval, t.base.Submit)
		if err != nil {
			inst.Release()
			return t.bootFailure(err)
		}
		t.mu.Lock()
		t.statusTimer, t.statusReport = h, inst
		t.mu.Unlock()
		defer t.stopStatus()
	}

	t.setState(StateRunning)
	err = t.life.Run(ctx)
	t.logger.Info("Lifecycle ended", "state", t.life.State(), "cycles", t.life.Cycles())
	return err
}

// bootFailure reports an error raised before the lifecycle started. The
// lifecycle never ran, so the fatal handler is called here.
func (t *Tag) bootFailure(err error) error {
	kind := lifecycle.Classify(err)
	t.logger.Error("boot failed", "kind", kind, "error", err)
	t.server.ReportError(fmt.Sprintf("%s: %v", kind, err))
	t.Log(eventlog.Event{
		Timestamp: time.Now(),
		Layer:     eventlog.LayerStore,
		Category:  eventlog.CategoryError,
		Error:     &eventlog.ErrorEventData{Layer: eventlog.LayerStore, Message: err.Error(), Kind: kind.String(), Fatal: true},
	})
	if t.config.OnFatal != nil {
		t.config.OnFatal(err)
	}
	return err
}

// stopStatus stops the status report timer and releases its base slot
// installation. The lifecycle calls it on leaving its scope so that nothing
// fires during power-off.
func (t *Tag) stopStatus() {
	t.mu.RLock()
	h, inst := t.statusTimer, t.statusReport
	t.mu.RUnlock()
	if h != nil {
		h.Stop()
	}
	if inst != nil {
		inst.Release()
	}
}

// loadFailure reports values that could not be loaded. Their buffers stay
// empty and the tag keeps booting.
func (t *Tag) loadFailure(err error) {
	kind := lifecycle.Classify(err)
	t.logger.Warn("loading values failed", "kind", kind, "error", err)
	t.Log(eventlog.Event{
		Timestamp: time.Now(),
		Layer:     eventlog.LayerStore,
		Category:  eventlog.CategoryError,
		Error:     &eventlog.ErrorEventData{Layer: eventlog.LayerStore, Message: err.Error(), Kind: kind.String()},
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	tm := time.NewTimer(d)
	defer tm.Stop()
	select {
	case <-tm.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tag) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// State returns the run state.
func (t *Tag) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// BootCount returns the boot counter read at mount (0 before mount).
func (t *Tag) BootCount() uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.bootCount
}

// TagID returns the tag identity.
func (t *Tag) TagID() uuid.UUID {
	return t.config.TagID
}

// Server returns the attribute server.
func (t *Tag) Server() *gatt.Server {
	return t.server
}

// Store returns the value store.
func (t *Tag) Store() *store.Store {
	return t.store
}

// Lifecycle returns the lifecycle controller.
func (t *Tag) Lifecycle() *lifecycle.Controller {
	return t.life
}

// Registry returns the timer registry.
func (t *Tag) Registry() *timer.Registry {
	return t.registry
}

// Finish ends the lifecycle; the tag then powers off.
func (t *Tag) Finish(reason string) {
	t.life.Finish(reason)
}

// Wake requests an immediate wake cycle.
func (t *Tag) Wake() {
	t.life.Wake()
}

// Status is a point-in-time summary of the tag.
type Status struct {
	State      State
	Lifecycle  lifecycle.State
	Cycles     uint64
	BootCount  uint32
	Touched    bool
	Timers     int
	TimerCap   int
	Drops      uint64
	WakeStats  work.SlotStats
	PowerTries int
}

// Status returns a summary of the tag.
func (t *Tag) Status() Status {
	return Status{
		State:      t.State(),
		Lifecycle:  t.life.State(),
		Cycles:     t.life.Cycles(),
		BootCount:  t.BootCount(),
		Touched:    t.store.AnyTouched(),
		Timers:     t.registry.Len(),
		TimerCap:   t.registry.Cap(),
		Drops:      t.worker.Drops() + t.registry.Dropped(),
		WakeStats:  t.wake.Stats(),
		PowerTries: t.power.Attempts(),
	}
}

func (t *Tag) reportStatus() {
	s := t.Status()
	t.logger.Info("status",
		"state", s.Lifecycle,
		"cycles", s.Cycles,
		"boot_count", s.BootCount,
		"touched", s.Touched,
		"timers", fmt.Sprintf("%d/%d", s.Timers, s.TimerCap),
		"drops", s.Drops)
}

// Log implements eventlog.Logger. It stamps the tag identity and boot
// count on events before forwarding them.
func (t *Tag) Log(e eventlog.Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	e.TagID = t.config.TagID.String()
	e.BootCount = t.BootCount()
	t.events.Log(e)
}

func (t *Tag) onWrite(key string, offset, length int) {
	t.logger.Debug("value written", "key", key, "offset", offset, "length", length)
	t.Log(eventlog.Event{
		Layer:    eventlog.LayerStore,
		Category: eventlog.CategoryWrite,
		Write:    &eventlog.WriteEvent{Key: key, Offset: offset, Length: length},
	})
}

// attributes adapts the server to the lifecycle, falling back to a fixed
// name while the data value is empty.
type attributes struct {
	server   *gatt.Server
	fallback string
}

func (a attributes) Name() string {
	if name := a.server.Name(); name != "" {
		return name
	}
	return a.fallback
}

func (a attributes) ReportError(msg string) {
	a.server.ReportError(msg)
}

var (
	_ eventlog.Logger      = (*Tag)(nil)
	_ lifecycle.Attributes = attributes{}
)
