// Package timertest provides a manually advanced timer.Source for tests.
package timertest

import (
	"sync"
	"time"
)

// Source is a timer.Source driven by Advance instead of the wall clock.
// Firings run synchronously on the goroutine calling Advance.
type Source struct {
	mu      sync.Mutex
	now     time.Duration
	entries []*entry
}

type entry struct {
	due     time.Duration
	period  time.Duration
	fire    func()
	stopped bool
}

// NewSource creates a manual source at time zero.
func NewSource() *Source {
	return &Source{}
}

// Schedule implements timer.Source.
func (s *Source) Schedule(initial, period time.Duration, fire func()) func() {
	s.mu.Lock()
	e := &entry{due: s.now + initial, period: period, fire: fire}
	s.entries = append(s.entries, e)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		e.stopped = true
		s.mu.Unlock()
	}
}

// Now returns the elapsed manual time.
func (s *Source) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of scheduled, unstopped entries.
func (s *Source) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if !e.stopped {
			n++
		}
	}
	return n
}

// Advance moves time forward by d, firing every entry that comes due in
// chronological order.
func (s *Source) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		var next *entry
		for _, e := range s.entries {
			if e.stopped || e.due > target {
				continue
			}
			if next == nil || e.due < next.due {
				next = e
			}
		}
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = next.due
		if next.period > 0 {
			next.due += next.period
		} else {
			next.stopped = true
		}
		fire := next.fire
		s.mu.Unlock()

		fire()
	}
}
