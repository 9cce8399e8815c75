package radio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// LogAdvertiser logs advertising instead of broadcasting.
type LogAdvertiser struct {
	logger *slog.Logger

	mu          sync.Mutex
	advertising bool
	payload     Payload
	battery     uint8
	starts      int
}

// NewLogAdvertiser creates an advertiser that writes to logger (nil uses
// slog.Default()).
func NewLogAdvertiser(logger *slog.Logger) *LogAdvertiser {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogAdvertiser{logger: logger}
}

// Start logs the advertisement.
func (a *LogAdvertiser) Start(ctx context.Context, payload Payload) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.advertising = true
	a.payload = payload
	a.starts++
	a.logger.Info("Start advertising",
		"name", payload.InstanceName(),
		"service", payload.ServiceUUID,
		"battery", a.battery)
	return nil
}

// Stop logs the end of the advertisement.
func (a *LogAdvertiser) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.advertising {
		a.advertising = false
		a.logger.Info("Stop advertising", "name", a.payload.InstanceName())
	}
	return nil
}

// SetBatteryLevel records the battery level.
func (a *LogAdvertiser) SetBatteryLevel(percent uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.battery = min(percent, 100)
}

// Snapshot returns the current advertising state.
func (a *LogAdvertiser) Snapshot() (advertising bool, payload Payload, battery uint8, starts int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.advertising, a.payload, a.battery, a.starts
}

var _ Advertiser = (*LogAdvertiser)(nil)
