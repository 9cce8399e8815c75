// Package power performs the tag's terminal transition into its lowest
// power state.
//
// PowerOff asks the platform for the deepest available sleep and waits for
// the platform to signal a wake. If no wake arrives within the configured
// timeout, the transition failed and the caller must reset the tag.
package power

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout bounds the wait for the platform to wake.
const DefaultTimeout = time.Millisecond

// Errors.
var (
	// ErrPowerOffFailed indicates the platform never signalled a wake
	// within the timeout. The tag must be reset.
	ErrPowerOffFailed = errors.New("system off failed")

	// ErrPlatform wraps failures reported by the platform.
	ErrPlatform = errors.New("power platform failure")
)

// Platform is the sleep primitive of the hardware.
type Platform interface {
	// EnterLowestPowerState requests the deepest available sleep.
	EnterLowestPowerState() error

	// Wake signals re-entry from the lowest power state.
	Wake() <-chan struct{}
}

// Config configures a Controller.
type Config struct {
	// Timeout bounds the wait for a wake (default: DefaultTimeout).
	Timeout time.Duration

	// Logger is the optional logger.
	Logger *slog.Logger
}

// Controller drives the power-off transition.
type Controller struct {
	platform Platform
	timeout  time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	attempts int
}

// NewController creates a controller for platform p.
func NewController(p Platform, cfg Config) *Controller {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		platform: p,
		timeout:  cfg.Timeout,
		logger:   logger,
	}
}

// Attempts returns the number of PowerOff calls.
func (c *Controller) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// PowerOff enters the lowest power state and blocks until the platform
// wakes, the timeout elapses or ctx is done. It returns nil on wake and
// ErrPowerOffFailed on timeout.
func (c *Controller) PowerOff(ctx context.Context) error {
	c.mu.Lock()
	c.attempts++
	c.mu.Unlock()

	wake := c.platform.Wake()
	// Discard a wake left over from before this request.
	select {
	case <-wake:
	default:
	}

	c.logger.Warn("Entering lowest power state, waiting for wake source")
	if err := c.platform.EnterLowestPowerState(); err != nil {
		return fmt.Errorf("%w: %v", ErrPlatform, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-wake:
		c.logger.Info("Woke from lowest power state")
		return nil
	case <-timer.C:
		c.logger.Error("System off failed", "timeout", c.timeout)
		return ErrPowerOffFailed
	case <-ctx.Done():
		return ctx.Err()
	}
}
