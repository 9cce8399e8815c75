package power

import (
	"sync"
	"time"
)

// SimPlatform simulates the sleep primitive. After entering the lowest
// power state it signals a wake once WakeAfter has elapsed; a zero
// WakeAfter never wakes on its own.
type SimPlatform struct {
	wakeAfter time.Duration
	wake      chan struct{}

	mu      sync.Mutex
	entries int
	err     error
	timer   *time.Timer
}

// NewSimPlatform creates a simulated platform.
func NewSimPlatform(wakeAfter time.Duration) *SimPlatform {
	return &SimPlatform{
		wakeAfter: wakeAfter,
		wake:      make(chan struct{}, 1),
	}
}

// EnterLowestPowerState records the request and arms the wake source.
func (p *SimPlatform) EnterLowestPowerState() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries++
	if p.err != nil {
		return p.err
	}
	if p.wakeAfter > 0 {
		if p.timer != nil {
			p.timer.Stop()
		}
		p.timer = time.AfterFunc(p.wakeAfter, p.TriggerWake)
	}
	return nil
}

// Wake returns the wake channel.
func (p *SimPlatform) Wake() <-chan struct{} {
	return p.wake
}

// TriggerWake signals a wake, as a wake-up button would.
func (p *SimPlatform) TriggerWake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Entries returns the number of EnterLowestPowerState calls.
func (p *SimPlatform) Entries() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entries
}

// SetError makes subsequent requests fail with err (nil clears it).
func (p *SimPlatform) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

var _ Platform = (*SimPlatform)(nil)
