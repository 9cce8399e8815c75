package assettag_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asset-tag/tag-go/pkg/battery"
	"github.com/asset-tag/tag-go/pkg/gatt"
	eventlog "github.com/asset-tag/tag-go/pkg/log"
	"github.com/asset-tag/tag-go/pkg/power"
	"github.com/asset-tag/tag-go/pkg/radio"
	"github.com/asset-tag/tag-go/pkg/storage"
	"github.com/asset-tag/tag-go/pkg/tag"
)

// TestE2E_Discovery tests that a scanner finds an advertising tag via mDNS.
func TestE2E_Discovery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tagID := uuid.New()
	adv := radio.NewMDNSAdvertiser(radio.DefaultMDNSConfig())
	adv.SetBatteryLevel(71)
	payload := radio.Payload{
		Name:        "E2E " + tagID.String()[:8],
		ServiceUUID: gatt.ServiceUUID,
		TagID:       tagID,
		Version:     "0.3.0",
	}
	if err := adv.Start(ctx, payload); err != nil {
		t.Fatalf("Failed to start advertising: %v", err)
	}
	defer adv.Stop()

	// Give mDNS time to propagate
	time.Sleep(500 * time.Millisecond)

	browseCtx, browseCancel := context.WithTimeout(ctx, 5*time.Second)
	defer browseCancel()

	sightings, err := radio.NewScanner(radio.DefaultMDNSConfig()).Scan(browseCtx)
	if err != nil {
		t.Fatalf("Failed to scan: %v", err)
	}

	for s := range sightings {
		if s.Payload.TagID != tagID {
			continue
		}
		if s.InstanceName != payload.Name {
			t.Errorf("Name mismatch: expected %s, got %s", payload.Name, s.InstanceName)
		}
		if s.Battery != 71 {
			t.Errorf("Battery mismatch: expected 71, got %d", s.Battery)
		}
		if s.Payload.Version != "0.3.0" {
			t.Errorf("Version mismatch: expected 0.3.0, got %s", s.Payload.Version)
		}
		return
	}
	t.Fatal("tag not found before timeout")
}

type writingSampler struct {
	*battery.SimSampler
	onSample func(n int)
	n        int
}

func (s *writingSampler) SampleCalibrated(ctx context.Context, ch battery.Channel) (int32, error) {
	s.n++
	if s.onSample != nil {
		s.onSample(s.n)
	}
	return s.SimSampler.SampleCalibrated(ctx, ch)
}

type recorder struct {
	mu     sync.Mutex
	events []eventlog.Event
}

func (r *recorder) Log(e eventlog.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func bootTag(t *testing.T, dbPath string, cycles uint64, sampler battery.Sampler, adv radio.Advertiser, events eventlog.Logger) *tag.Tag {
	t.Helper()
	tg, err := tag.New(tag.Config{
		Name:             "asset-tag",
		Version:          "0.3.0",
		TagID:            uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"),
		Period:           30 * time.Millisecond,
		DutyCyclePercent: 30,
		MaxCycles:        cycles,
		PowerTimeout:     time.Second,
		EventLogger:      events,
	}, tag.Deps{
		Volume:     storage.NewSQLiteVolume(storage.SQLiteConfig{Path: dbPath}),
		Sampler:    sampler,
		Advertiser: adv,
		Platform:   power.NewSimPlatform(time.Millisecond),
	})
	require.NoError(t, err)
	return tg
}

// TestE2E_PersistenceAcrossBoots tests that a peer write survives a power
// cycle and renames the tag on the next boot.
func TestE2E_PersistenceAcrossBoots(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tag.db")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Boot 1: a peer writes during the first cycle, the second cycle flushes.
	sampler := &writingSampler{SimSampler: battery.NewSimSampler(2950)}
	first := &recorder{}
	tg := bootTag(t, dbPath, 2, sampler, radio.NewLogAdvertiser(nil), first)
	sampler.onSample = func(n int) {
		if n == 1 {
			_, err := tg.Server().Write(gatt.DataUUID, []byte("Dock 4"), 0)
			assert.NoError(t, err)
			_, err = tg.Server().Write(gatt.ValueUUID, []byte{0x2a}, 0)
			assert.NoError(t, err)
		}
	}
	require.NoError(t, tg.Run(ctx))
	assert.Equal(t, uint32(1), tg.BootCount())
	assert.Equal(t, tag.StateStopped, tg.State())

	var flushed []string
	for _, e := range first.events {
		if e.Flush != nil {
			flushed = append(flushed, e.Flush.Keys...)
		}
	}
	assert.ElementsMatch(t, []string{gatt.CharValue, gatt.CharData}, flushed)

	// Boot 2: the persisted name is advertised from the first cycle.
	adv := radio.NewLogAdvertiser(nil)
	tg = bootTag(t, dbPath, 1, battery.NewSimSampler(2950), adv, nil)
	require.NoError(t, tg.Run(ctx))
	assert.Equal(t, uint32(2), tg.BootCount())

	_, payload, level, starts := adv.Snapshot()
	assert.Equal(t, "Dock 4", payload.Name)
	assert.Equal(t, uint8(71), level)
	assert.Equal(t, 1, starts)

	value, err := tg.Server().Read(gatt.ValueUUID, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x2a}, value)

	// Read back without mounting.
	vol := storage.NewSQLiteVolume(storage.SQLiteConfig{Path: dbPath})
	require.NoError(t, vol.Open())
	defer vol.Close()
	boots, err := storage.ReadBootCount(vol)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), boots)
}
