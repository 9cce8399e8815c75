package battery

import (
	"context"
	"fmt"
	"sync"
)

// SimSampler is a simulated ADC. It reports a configurable supply voltage,
// optionally draining by a fixed step per sample.
type SimSampler struct {
	mu      sync.Mutex
	mv      int32
	drain   int32
	floor   int32
	err     error
	samples int
}

// NewSimSampler creates a sampler reporting mv millivolts.
func NewSimSampler(mv int32) *SimSampler {
	return &SimSampler{mv: mv}
}

// SetMillivolts sets the next reading.
func (s *SimSampler) SetMillivolts(mv int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mv = mv
}

// SetDrain lowers the reading by step after each sample, never below floor.
func (s *SimSampler) SetDrain(step, floor int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drain = step
	s.floor = floor
}

// SetError makes subsequent samples fail with err (nil clears it).
func (s *SimSampler) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Samples returns the number of sample attempts.
func (s *SimSampler) Samples() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples
}

// SampleCalibrated returns the simulated reading, passed through the
// channel's raw conversion.
func (s *SimSampler) SampleCalibrated(ctx context.Context, ch Channel) (int32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples++
	if s.err != nil {
		return 0, fmt.Errorf("%w: channel %d: %v", ErrConversion, ch.ID, s.err)
	}

	mv := s.mv
	if s.drain > 0 {
		s.mv = max(s.mv-s.drain, s.floor)
	}

	raw, err := millivoltsToRaw(ch, mv)
	if err != nil {
		return 0, err
	}
	return RawToMillivolts(ch, raw)
}

func millivoltsToRaw(ch Channel, mv int32) (int32, error) {
	if ch.Gain.Num <= 0 || ch.Gain.Den <= 0 || ch.Bits == 0 || ch.Bits > 24 {
		return 0, fmt.Errorf("%w: channel %d: bad gain or resolution", ErrConversion, ch.ID)
	}
	full := int64(1) << ch.Bits
	// Round up so the reverse conversion returns mv.
	num := int64(mv) * int64(ch.Gain.Num) * full
	den := int64(ReferenceMillivolts) * int64(ch.Gain.Den)
	raw := (num + den - 1) / den
	return int32(clamp(raw, 0, full-1)), nil
}

var _ Sampler = (*SimSampler)(nil)
