package work

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Worker defaults.
const (
	// DefaultSignalQueueSize bounds the number of Slots waiting for the Worker.
	DefaultSignalQueueSize = 8
)

// WorkerConfig configures a Worker.
type WorkerConfig struct {
	// Name identifies the worker in logs.
	Name string

	// SignalQueueSize bounds the pending Slot signals (default: 8).
	// A Slot occupies at most one entry, so a size at least equal to the
	// number of Slots never drops a signal.
	SignalQueueSize int

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// Worker runs deferred closures sequentially on a dedicated goroutine.
type Worker struct {
	name   string
	logger *slog.Logger

	// Written from the expiry context; MUST NOT block.
	signals chan *Slot

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	stopped chan struct{}

	drops atomic.Uint64
	busy  atomic.Bool
}

// NewWorker creates a worker. Call Start to begin running closures.
func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.SignalQueueSize <= 0 {
		cfg.SignalQueueSize = DefaultSignalQueueSize
	}
	if cfg.Name == "" {
		cfg.Name = "worker"
	}
	return &Worker{
		name:    cfg.Name,
		logger:  cfg.Logger,
		signals: make(chan *Slot, cfg.SignalQueueSize),
		stopped: make(chan struct{}),
	}
}

// Name returns the worker name.
func (w *Worker) Name() string {
	return w.name
}

// Start launches the worker goroutine. It returns immediately; the goroutine
// exits when ctx is cancelled or Stop is called. Calling Start twice is a
// no-op.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true

	ctx, w.cancel = context.WithCancel(ctx)
	w.debug("worker started")

	go func() {
		defer close(w.stopped)
		for {
			select {
			case <-ctx.Done():
				w.debug("worker stopped")
				return
			case s := <-w.signals:
				s.queued.Store(false)
				inst := s.pending.Swap(nil)
				if inst == nil {
					continue
				}
				w.busy.Store(true)
				s.run(inst)
				w.busy.Store(false)
			}
		}
	}()
}

// Stop cancels the worker and waits for the closure in flight, if any.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	started := w.started
	w.mu.Unlock()

	if !started {
		return
	}
	cancel()
	<-w.stopped
}

// Done returns a channel closed once the worker goroutine has exited.
func (w *Worker) Done() <-chan struct{} {
	return w.stopped
}

// Busy returns true while a closure is running.
func (w *Worker) Busy() bool {
	return w.busy.Load()
}

// Drops returns the number of signals lost to a full signal queue.
func (w *Worker) Drops() uint64 {
	return w.drops.Load()
}

// NewSlot creates a Slot served by this worker. Until a closure is
// installed, submissions run the fallback.
func (w *Worker) NewSlot(name string) *Slot {
	return w.NewSlotWithFallback(name, nil)
}

// NewSlotWithFallback creates a Slot with a custom fallback action.
// A nil fallback logs the late invocation at debug level.
func (w *Worker) NewSlotWithFallback(name string, fallback func()) *Slot {
	s := &Slot{name: name, worker: w}
	if fallback == nil {
		fallback = func() {
			w.debug("slot invoked without a live installation", "slot", name)
		}
	}
	s.idle = &Installation{slot: s, fn: fallback}
	s.current.Store(s.idle)
	return s
}

// signal queues s for the worker without blocking.
func (w *Worker) signal(s *Slot) {
	if !s.queued.CompareAndSwap(false, true) {
		return
	}
	select {
	case w.signals <- s:
	default:
		s.queued.Store(false)
		w.drops.Add(1) // protect the expiry context
	}
}

func (w *Worker) debug(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Debug(msg, append([]any{"worker", w.name}, args...)...)
	}
}
