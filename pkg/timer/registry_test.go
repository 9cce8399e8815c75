package timer

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asset-tag/tag-go/pkg/timer/timertest"
)

func newManualRegistry(capacity int) (*Registry, *timertest.Source) {
	src := timertest.NewSource()
	return NewRegistry(Config{Capacity: capacity, Source: src}), src
}

func TestRegistryDefaults(t *testing.T) {
	r := NewRegistry(Config{})
	if r.Cap() != DefaultCapacity {
		t.Errorf("Cap() = %d, want %d", r.Cap(), DefaultCapacity)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestRegisterPeriodicFiresAtPeriod(t *testing.T) {
	r, src := newManualRegistry(5)

	var count atomic.Int32
	h, err := r.RegisterPeriodic("wake", 1, 20, func() { count.Add(1) })
	require.NoError(t, err)
	defer h.Stop()

	// First firing after 1/hz.
	src.Advance(999 * time.Millisecond)
	assert.Equal(t, int32(0), count.Load())
	src.Advance(time.Millisecond)
	assert.Equal(t, int32(1), count.Load())

	// Then every scale/hz.
	src.Advance(20 * time.Second)
	assert.Equal(t, int32(2), count.Load())
	src.Advance(60 * time.Second)
	assert.Equal(t, int32(5), count.Load())
	assert.Equal(t, uint64(5), h.Fired())
}

func TestRegisterPeriodicZeroScale(t *testing.T) {
	r, src := newManualRegistry(1)

	var count atomic.Int32
	_, err := r.RegisterPeriodic("fast", 10, 0, func() { count.Add(1) })
	require.NoError(t, err)

	src.Advance(time.Second)
	assert.Equal(t, int32(10), count.Load())
}

func TestRegisterPeriodicInvalidFrequency(t *testing.T) {
	r, _ := newManualRegistry(1)

	_, err := r.RegisterPeriodic("bad", 0, 1, func() {})
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("err = %v, want ErrInvalidPeriod", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after rejected registration", r.Len())
	}
}

func TestRegisterEvery(t *testing.T) {
	r, _ := newManualRegistry(5)

	tests := []struct {
		period  time.Duration
		initial time.Duration
	}{
		{20 * time.Second, time.Second},
		{250 * time.Millisecond, time.Millisecond},
		{1500 * time.Millisecond, time.Millisecond},
	}
	for _, tt := range tests {
		h, err := r.RegisterEvery("every", tt.period, func() {})
		require.NoError(t, err)
		h.Stop()
	}
	infos := r.Bindings()
	require.Len(t, infos, len(tests))
	for i, tt := range tests {
		assert.Equal(t, tt.period, infos[i].Period)
		assert.Equal(t, tt.initial, infos[i].Initial)
	}

	for _, bad := range []time.Duration{0, -time.Second, 1500 * time.Microsecond} {
		_, err := r.RegisterEvery("bad", bad, func() {})
		assert.ErrorIs(t, err, ErrInvalidPeriod, "%v", bad)
	}
	assert.Equal(t, len(tests), r.Len())
}

func TestRegisterOneShot(t *testing.T) {
	r, src := newManualRegistry(2)

	var count atomic.Int32
	h, err := r.RegisterOneShot("once", 500*time.Millisecond, func() { count.Add(1) })
	require.NoError(t, err)

	src.Advance(10 * time.Second)
	assert.Equal(t, int32(1), count.Load())
	assert.Equal(t, uint64(1), h.Fired())

	_, err = r.RegisterOneShot("negative", -time.Second, func() {})
	assert.ErrorIs(t, err, ErrInvalidDelay)
}

func TestRegistryCapacityExhausted(t *testing.T) {
	r, src := newManualRegistry(5)

	var counts [5]atomic.Int32
	for i := range counts {
		_, err := r.RegisterPeriodic("t", 1, 1, func() { counts[i].Add(1) })
		require.NoError(t, err, "registration %d", i)
	}

	sixth := false
	_, err := r.RegisterPeriodic("sixth", 1, 1, func() { sixth = true })
	require.ErrorIs(t, err, ErrResourceExhausted)
	assert.Equal(t, 5, r.Len())

	src.Advance(3 * time.Second)
	for i := range counts {
		assert.Equal(t, int32(3), counts[i].Load(), "timer %d", i)
	}
	assert.False(t, sixth, "rejected callback must never fire")
}

func TestHandleStopPreventsFutureFirings(t *testing.T) {
	r, src := newManualRegistry(2)

	var count atomic.Int32
	h, err := r.RegisterPeriodic("wake", 1, 1, func() { count.Add(1) })
	require.NoError(t, err)

	src.Advance(2 * time.Second)
	h.Stop()
	h.Stop()
	src.Advance(10 * time.Second)

	assert.Equal(t, int32(2), count.Load())
	assert.True(t, h.Stopped())
	assert.Equal(t, 0, src.Pending())
}

func TestStoppedBindingKeepsTableSlot(t *testing.T) {
	r, _ := newManualRegistry(1)

	h, err := r.RegisterOneShot("first", time.Second, func() {})
	require.NoError(t, err)
	h.Stop()

	_, err = r.RegisterOneShot("second", time.Second, func() {})
	assert.ErrorIs(t, err, ErrResourceExhausted)

	infos := r.Bindings()
	require.Len(t, infos, 1)
	assert.Equal(t, "first", infos[0].Name)
	assert.False(t, infos[0].Live)
}

func TestDispatchDropsUnknownAndStale(t *testing.T) {
	r, _ := newManualRegistry(2)

	var count atomic.Int32
	h, err := r.RegisterOneShot("x", time.Hour, func() { count.Add(1) })
	require.NoError(t, err)

	r.Dispatch(Identity(0))
	assert.Equal(t, uint64(1), r.Dropped())

	r.Dispatch(h.ID())
	assert.Equal(t, int32(1), count.Load())

	h.Stop()
	r.Dispatch(h.ID())
	assert.Equal(t, int32(1), count.Load())
	assert.Equal(t, uint64(2), r.Dropped())
}

func TestIdentitiesUniqueAcrossRegistries(t *testing.T) {
	seen := map[Identity]bool{}
	for i := 0; i < 3; i++ {
		r, _ := newManualRegistry(3)
		for j := 0; j < 3; j++ {
			h, err := r.RegisterOneShot("t", time.Hour, func() {})
			require.NoError(t, err)
			if seen[h.ID()] {
				t.Fatalf("identity %d reused", h.ID())
			}
			seen[h.ID()] = true
		}
	}
}

func TestWallClockPeriodic(t *testing.T) {
	r := NewRegistry(Config{Capacity: 1})

	fired := make(chan struct{}, 16)
	h, err := r.RegisterPeriodic("fast", 50, 1, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		select {
		case <-fired:
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for firing %d", i)
		}
	}

	h.Stop()
	n := h.Fired()
	time.Sleep(100 * time.Millisecond)
	if got := h.Fired(); got != n {
		t.Errorf("Fired() = %d after Stop, want %d", got, n)
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindPeriodic, "PERIODIC"},
		{KindOneShot, "ONE_SHOT"},
		{Kind(9), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
