package work

import (
	"sync/atomic"
)

// Slot holds at most one installed closure and a single-item mailbox.
type Slot struct {
	name   string
	worker *Worker

	// idle is the fallback installation; it never dies.
	idle    *Installation
	current atomic.Pointer[Installation]
	pending atomic.Pointer[Installation]
	queued  atomic.Bool

	installs  atomic.Uint64
	submits   atomic.Uint64
	runs      atomic.Uint64
	fallbacks atomic.Uint64
}

// Name returns the slot name.
func (s *Slot) Name() string {
	return s.name
}

// Install places fn into the slot, replacing the previous closure, and
// returns the Installation owned by the calling scope.
func (s *Slot) Install(fn func()) *Installation {
	if fn == nil {
		fn = func() {}
	}
	inst := &Installation{slot: s, fn: fn}
	inst.alive.Store(true)
	s.current.Store(inst)
	s.installs.Add(1)
	return inst
}

// Submit schedules the currently installed closure to run once on the
// worker. It never blocks and is safe to call from the expiry context.
func (s *Slot) Submit() {
	s.submits.Add(1)
	s.pending.Store(s.current.Load())
	s.worker.signal(s)
}

// Installed returns true if a live installation is current.
func (s *Slot) Installed() bool {
	cur := s.current.Load()
	return cur != s.idle && cur.alive.Load()
}

// Stats returns the slot counters.
func (s *Slot) Stats() SlotStats {
	return SlotStats{
		Installs:  s.installs.Load(),
		Submits:   s.submits.Load(),
		Runs:      s.runs.Load(),
		Fallbacks: s.fallbacks.Load(),
	}
}

func (s *Slot) run(inst *Installation) {
	if inst != s.idle && inst.alive.Load() {
		s.runs.Add(1)
		inst.fn()
		return
	}
	s.fallbacks.Add(1)
	s.idle.fn()
}

// SlotStats counts slot activity.
type SlotStats struct {
	Installs  uint64
	Submits   uint64
	Runs      uint64
	Fallbacks uint64
}

// Installation is the owned handle for a closure installed into a Slot.
type Installation struct {
	slot  *Slot
	fn    func()
	alive atomic.Bool
}

// Alive returns true until Release is called.
func (i *Installation) Alive() bool {
	return i.alive.Load()
}

// Release ends the installation. Later runs that resolve to it execute the
// slot's fallback instead. If a newer installation has replaced this one, the
// newer one stays current. It is safe to call Release multiple times.
func (i *Installation) Release() {
	if i == i.slot.idle || !i.alive.CompareAndSwap(true, false) {
		return
	}
	i.slot.current.CompareAndSwap(i, i.slot.idle)
}
