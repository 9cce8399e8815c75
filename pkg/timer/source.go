package timer

import (
	"sync"
	"time"
)

// Source schedules timer firings.
//
// Schedule arranges for fire to be called once after initial and, when
// period is positive, every period after that. The returned function stops
// all future calls; it must be safe to call more than once.
type Source interface {
	Schedule(initial, period time.Duration, fire func()) (stop func())
}

// WallClock returns a Source backed by time.AfterFunc.
// Periodic firings are scheduled relative to the registration instant, so
// slow callbacks do not accumulate drift.
func WallClock() Source {
	return wallClock{}
}

type wallClock struct{}

func (wallClock) Schedule(initial, period time.Duration, fire func()) func() {
	k := &ticker{
		start:   time.Now(),
		initial: initial,
		period:  period,
		fire:    fire,
	}
	k.mu.Lock()
	k.timer = time.AfterFunc(initial, k.run)
	k.mu.Unlock()
	return k.stop
}

// ticker re-arms an AfterFunc timer for periodic firings.
type ticker struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool

	start   time.Time
	initial time.Duration
	period  time.Duration
	n       int64
	fire    func()
}

func (k *ticker) run() {
	k.mu.Lock()
	if k.stopped {
		k.mu.Unlock()
		return
	}
	if k.period > 0 {
		k.n++
		due := k.start.Add(k.initial + time.Duration(k.n)*k.period)
		d := time.Until(due)
		if d < 0 {
			d = 0
		}
		k.timer.Reset(d)
	} else {
		k.stopped = true
	}
	k.mu.Unlock()

	k.fire()
}

func (k *ticker) stop() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.stopped {
		return
	}
	k.stopped = true
	if k.timer != nil {
		k.timer.Stop()
	}
}
