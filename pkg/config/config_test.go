package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	assert.Equal(t, "asset-tag", c.Tag.Name)
	assert.Equal(t, 2*time.Second, c.Tag.StartupDelay)
	assert.Equal(t, 20*time.Second, c.Wake.Period)
	assert.Equal(t, uint(80), c.Wake.DutyCyclePercent)
	assert.Equal(t, 5, c.Timers.Capacity)
	assert.Equal(t, time.Minute, c.Timers.StatusInterval)
	assert.Equal(t, StorageDir, c.Storage.Kind)
	assert.True(t, c.Radio.Enabled)
	assert.Equal(t, 5683, c.Radio.Port)
	assert.Equal(t, 120*time.Second, c.Radio.TTL)
	assert.Equal(t, time.Millisecond, c.Power.Timeout)
	assert.Zero(t, c.Power.WakeAfter)
	assert.Empty(t, c.Events.Path)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tag:
  id: 0f8fad5b-d9cb-469f-a165-70867728950e
wake:
  period: 500ms
  duty_cycle_percent: 40
storage:
  kind: memory
log:
  level: debug
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, c.Wake.Period)
	assert.Equal(t, uint(40), c.Wake.DutyCyclePercent)
	assert.Equal(t, StorageMemory, c.Storage.Kind)
	assert.Equal(t, "asset-tag", c.Tag.Name, "unset keys keep defaults")
	assert.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e", c.TagID().String())
}

func TestLoadEmptyPath(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	c := Default()
	err := Parse([]byte("wake:\n  perod: 1s\n"), c)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"BadTagID", func(c *Config) { c.Tag.ID = "pallet" }},
		{"ZeroPeriod", func(c *Config) { c.Wake.Period = 0 }},
		{"SubMillisecondPeriod", func(c *Config) { c.Wake.Period = 1500 * time.Microsecond }},
		{"DutyAbove100", func(c *Config) { c.Wake.DutyCyclePercent = 101 }},
		{"ZeroCapacity", func(c *Config) { c.Timers.Capacity = 0 }},
		{"NegativeStatus", func(c *Config) { c.Timers.StatusInterval = -time.Second }},
		{"UnknownStorage", func(c *Config) { c.Storage.Kind = "nvs" }},
		{"DirWithoutPath", func(c *Config) { c.Storage.Path = "" }},
		{"BadPort", func(c *Config) { c.Radio.Port = 70000 }},
		{"ShortTTL", func(c *Config) { c.Radio.TTL = 0 }},
		{"NoBattery", func(c *Config) { c.Battery.Millivolts = 0 }},
		{"ZeroPowerTimeout", func(c *Config) { c.Power.Timeout = 0 }},
		{"BadLevel", func(c *Config) { c.Log.Level = "loud" }},
		{"BadFormat", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	c := Default()
	c.Wake.Period = 0
	c.Log.Format = "xml"
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wake.period")
	assert.Contains(t, err.Error(), "log.format")
}

func TestTagIDRandomWhenUnset(t *testing.T) {
	c := Default()
	assert.NotEqual(t, c.TagID(), c.TagID())
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("trace")
	assert.Error(t, err)
}
