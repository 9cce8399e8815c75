package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/asset-tag/tag-go/pkg/battery"
	eventlog "github.com/asset-tag/tag-go/pkg/log"
	"github.com/asset-tag/tag-go/pkg/radio"
	"github.com/asset-tag/tag-go/pkg/store"
	"github.com/asset-tag/tag-go/pkg/timer"
	"github.com/asset-tag/tag-go/pkg/work"
)

// Defaults.
const (
	DefaultPeriod           = 20 * time.Second
	DefaultDutyCyclePercent = 80
)

// Errors.
var (
	ErrInvalidConfig = errors.New("invalid lifecycle config")
	ErrMissingDep    = errors.New("missing lifecycle dependency")
)

// Config configures a Controller.
type Config struct {
	// Period between wake cycles (default: 20s). Must be a whole number of
	// milliseconds.
	Period time.Duration

	// DutyCyclePercent is the share of the period spent advertising
	// (default: 80, at most 100).
	DutyCyclePercent uint

	// MaxCycles finishes the lifecycle after this many cycles (0: never).
	MaxCycles uint64

	// Curve converts millivolts to a battery level (default:
	// battery.DefaultCurve).
	Curve battery.Curve

	// TagID, ServiceUUID and Version are advertised with every cycle.
	TagID       uuid.UUID
	ServiceUUID uuid.UUID
	Version     string

	// BootCount tags emitted events.
	BootCount uint32

	// OnFatal is called once, with the first fatal error.
	OnFatal func(error)

	// OnScopeExit is called when Run leaves the lifecycle scope, after the
	// last cycle has finished and before power-off.
	OnScopeExit func()

	// Logger is the optional operational logger.
	Logger *slog.Logger

	// EventLogger receives lifecycle events (optional).
	EventLogger eventlog.Logger
}

// Attributes is the attribute service seen by the lifecycle.
type Attributes interface {
	// Name returns the name to advertise.
	Name() string

	// ReportError publishes a fatal error message to peers.
	ReportError(msg string)
}

// PowerOffer performs the terminal power transition.
type PowerOffer interface {
	PowerOff(ctx context.Context) error
}

// Deps are the collaborators of a Controller.
type Deps struct {
	// Store holds the touched values flushed at the start of each cycle.
	Store *store.Store

	// Sampler measures the supply voltage.
	Sampler battery.Sampler

	// Advertiser broadcasts the tag.
	Advertiser radio.Advertiser

	// Attributes provides the advertised name and the error value.
	Attributes Attributes

	// Registry and Slot drive periodic wake cycles in Run.
	Registry *timer.Registry
	Slot     *work.Slot

	// Power is invoked when the lifecycle finishes (optional).
	Power PowerOffer
}

// Controller runs the tag lifecycle.
type Controller struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
	events eventlog.Logger

	mu       sync.Mutex
	state    State
	fatalErr error
	done     chan struct{}

	// cycleMu serializes wake cycles and lets Run wait out the last one.
	cycleMu   sync.Mutex
	cycles    atomic.Uint64
	fatalOnce sync.Once
}

// New creates a controller in state RUNNING.
func New(cfg Config, deps Deps) (*Controller, error) {
	if cfg.Period == 0 {
		cfg.Period = DefaultPeriod
	}
	if cfg.DutyCyclePercent == 0 {
		cfg.DutyCyclePercent = DefaultDutyCyclePercent
	}
	if cfg.Curve == nil {
		cfg.Curve = battery.DefaultCurve
	}
	if cfg.Period < 0 || cfg.Period%time.Millisecond != 0 {
		return nil, fmt.Errorf("%w: period %v", ErrInvalidConfig, cfg.Period)
	}
	if cfg.DutyCyclePercent > 100 {
		return nil, fmt.Errorf("%w: duty cycle %d%%", ErrInvalidConfig, cfg.DutyCyclePercent)
	}
	if err := cfg.Curve.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch {
	case deps.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingDep)
	case deps.Sampler == nil:
		return nil, fmt.Errorf("%w: sampler", ErrMissingDep)
	case deps.Advertiser == nil:
		return nil, fmt.Errorf("%w: advertiser", ErrMissingDep)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		events: eventlog.OrNoop(cfg.EventLogger),
		done:   make(chan struct{}),
	}, nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the first fatal error, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fatalErr
}

// Done is closed when the state leaves RUNNING.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Cycles returns the number of wake cycles started.
func (c *Controller) Cycles() uint64 {
	return c.cycles.Load()
}

// AdvertiseWindow returns how long each cycle advertises.
func (c *Controller) AdvertiseWindow() time.Duration {
	return c.cfg.Period * time.Duration(c.cfg.DutyCyclePercent) / 100
}

// Finish ends the lifecycle normally. It has no effect once the
// lifecycle has ended.
func (c *Controller) Finish(reason string) {
	c.transition(StateDone, reason, nil)
}

// transition leaves RUNNING for a terminal state. It returns false if the
// lifecycle had already ended.
func (c *Controller) transition(to State, reason string, cause error) bool {
	c.mu.Lock()
	from := c.state
	if from.Terminal() {
		c.mu.Unlock()
		return false
	}
	c.state = to
	c.fatalErr = cause
	close(c.done)
	c.mu.Unlock()

	c.logger.Info("lifecycle state changed", "from", from, "to", to, "reason", reason)
	c.emit(eventlog.Event{
		Layer:       eventlog.LayerLifecycle,
		Category:    eventlog.CategoryState,
		StateChange: &eventlog.StateChangeEvent{OldState: from.String(), NewState: to.String(), Reason: reason},
	})
	return true
}

// fail records a fatal error: state ERROR, the message published through
// the error value and OnFatal called once.
func (c *Controller) fail(layer eventlog.Layer, err error) error {
	kind := Classify(err)
	msg := fmt.Sprintf("%s: %v", kind, err)

	c.logger.Error("fatal error", "kind", kind, "error", err)
	c.emit(eventlog.Event{
		Layer:    layer,
		Category: eventlog.CategoryError,
		Cycle:    c.cycles.Load(),
		Error:    &eventlog.ErrorEventData{Layer: layer, Message: err.Error(), Kind: kind.String(), Fatal: true},
	})

	if !c.transition(StateError, msg, err) {
		return err
	}
	if c.deps.Attributes != nil {
		c.deps.Attributes.ReportError(msg)
	}
	c.fatalOnce.Do(func() {
		if c.cfg.OnFatal != nil {
			c.cfg.OnFatal(err)
		}
	})
	return err
}

func (c *Controller) emit(e eventlog.Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if c.cfg.TagID != uuid.Nil {
		e.TagID = c.cfg.TagID.String()
	}
	e.BootCount = c.cfg.BootCount
	c.events.Log(e)
}

func (c *Controller) phase(cycle uint64, layer eventlog.Layer, p eventlog.PhaseEvent) {
	c.emit(eventlog.Event{
		Layer:    layer,
		Category: eventlog.CategoryPhase,
		Cycle:    cycle,
		Phase:    &p,
	})
}

// RunWakeCycle flushes touched values, samples the battery, advertises for
// the advertise window and stops advertising. Sampling and advertising
// failures are fatal; flush failures are logged and the cycle continues.
// Cycles never overlap and are skipped once the lifecycle has ended.
func (c *Controller) RunWakeCycle(ctx context.Context) error {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	if ctx.Err() != nil || c.State() != StateRunning {
		c.logger.Debug("wake cycle skipped", "state", c.State())
		return nil
	}
	cycle := c.cycles.Add(1)
	c.logger.Debug("wake cycle", "cycle", cycle)

	// Flush.
	start := time.Now()
	flushed, err := c.deps.Store.FlushTouched()
	if err != nil {
		c.logger.Warn("flush failed", "error", err)
		c.emit(eventlog.Event{
			Layer:    eventlog.LayerStore,
			Category: eventlog.CategoryError,
			Cycle:    cycle,
			Error:    &eventlog.ErrorEventData{Layer: eventlog.LayerStore, Message: err.Error(), Kind: Classify(err).String()},
		})
	}
	if len(flushed) > 0 {
		c.logger.Info("flushed values", "keys", flushed)
		c.emit(eventlog.Event{
			Layer:    eventlog.LayerStore,
			Category: eventlog.CategoryFlush,
			Cycle:    cycle,
			Flush:    &eventlog.FlushEvent{Keys: flushed},
		})
	}
	c.phase(cycle, eventlog.LayerStore, eventlog.PhaseEvent{Phase: eventlog.PhaseFlush, Duration: time.Since(start)})

	// Sample.
	start = time.Now()
	mv, err := c.deps.Sampler.SampleCalibrated(ctx, battery.VDD)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return c.fail(eventlog.LayerBattery, fmt.Errorf("sample battery: %w", err))
	}
	pct := c.cfg.Curve.Percent(mv)
	c.deps.Advertiser.SetBatteryLevel(pct)
	c.logger.Debug("battery sampled", "millivolts", mv, "percent", pct)
	c.phase(cycle, eventlog.LayerBattery, eventlog.PhaseEvent{
		Phase: eventlog.PhaseSample, Duration: time.Since(start), Millivolts: mv, Percent: pct,
	})

	// Advertise.
	payload := c.payload()
	c.logger.Info("Start advertising", "name", payload.InstanceName())
	start = time.Now()
	if err := c.deps.Advertiser.Start(ctx, payload); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return c.fail(eventlog.LayerRadio, fmt.Errorf("start advertising: %w", err))
	}
	c.phase(cycle, eventlog.LayerRadio, eventlog.PhaseEvent{
		Phase: eventlog.PhaseAdvertiseStart, Duration: time.Since(start), Name: payload.InstanceName(),
	})

	start = time.Now()
	holdErr := c.hold(ctx, c.AdvertiseWindow())
	c.phase(cycle, eventlog.LayerRadio, eventlog.PhaseEvent{Phase: eventlog.PhaseHold, Duration: time.Since(start)})

	c.logger.Info("Stop advertising")
	start = time.Now()
	if err := c.deps.Advertiser.Stop(); err != nil {
		c.logger.Warn("stop advertising failed", "error", err)
	}
	c.phase(cycle, eventlog.LayerRadio, eventlog.PhaseEvent{Phase: eventlog.PhaseAdvertiseStop, Duration: time.Since(start)})

	if holdErr != nil {
		return holdErr
	}
	c.phase(cycle, eventlog.LayerLifecycle, eventlog.PhaseEvent{Phase: eventlog.PhaseComplete})

	if c.cfg.MaxCycles > 0 && cycle >= c.cfg.MaxCycles {
		c.Finish(fmt.Sprintf("completed %d cycles", cycle))
	}
	return nil
}

func (c *Controller) payload() radio.Payload {
	p := radio.Payload{
		ServiceUUID: c.cfg.ServiceUUID,
		TagID:       c.cfg.TagID,
		Version:     c.cfg.Version,
	}
	if c.deps.Attributes != nil {
		p.Name = c.deps.Attributes.Name()
	}
	return p
}

// hold waits for d, returning early when ctx is done or the lifecycle
// ends.
func (c *Controller) hold(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-c.done:
		c.logger.Debug("advertise window cut short", "state", c.State())
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wake requests an immediate wake cycle through the wake slot.
func (c *Controller) Wake() {
	if c.deps.Slot != nil {
		c.deps.Slot.Submit()
	}
}

// Run installs the wake cycle into the wake slot, fires it periodically
// and supervises the lifecycle until it ends or ctx is done. It then stops
// the timer, releases the installation, waits for an in-flight cycle and
// calls OnScopeExit.
//
// On DONE it powers off and returns the power-off result: nil means the
// tag woke from the lowest power state. On ERROR it returns the fatal
// error. If ctx ends first it returns ctx.Err().
func (c *Controller) Run(ctx context.Context) error {
	if c.deps.Registry == nil || c.deps.Slot == nil {
		return fmt.Errorf("%w: registry and slot", ErrMissingDep)
	}

	inst := c.deps.Slot.Install(func() {
		if err := c.RunWakeCycle(ctx); err != nil && ctx.Err() == nil {
			c.logger.Error("wake cycle failed", "error", err)
		}
	})

	handle, err := c.deps.Registry.RegisterEvery("wake", c.cfg.Period, c.deps.Slot.Submit)
	if err != nil {
		inst.Release()
		return c.fail(eventlog.LayerTimer, err)
	}
	c.logger.Info("lifecycle running",
		"period", c.cfg.Period,
		"advertise_window", c.AdvertiseWindow())

	select {
	case <-c.done:
	case <-ctx.Done():
	}

	handle.Stop()
	inst.Release()
	c.cycleMu.Lock()
	//nolint:staticcheck // empty critical section waits for the last cycle
	c.cycleMu.Unlock()
	c.logger.Debug("Leaving lifecycle scope")
	if c.cfg.OnScopeExit != nil {
		c.cfg.OnScopeExit()
	}

	switch c.State() {
	case StateError:
		return c.Err()
	case StateDone:
		if c.deps.Power == nil {
			return nil
		}
		err := c.deps.Power.PowerOff(ctx)
		if err != nil && ctx.Err() == nil {
			c.emit(eventlog.Event{
				Layer:    eventlog.LayerPower,
				Category: eventlog.CategoryError,
				Error:    &eventlog.ErrorEventData{Layer: eventlog.LayerPower, Message: err.Error(), Kind: Classify(err).String(), Fatal: true},
			})
		}
		return err
	default:
		return ctx.Err()
	}
}
