// Package config loads the asset tag configuration from YAML.
//
// Defaults are embedded and decoded first; a user file is decoded on top
// of them, so it only needs the keys it changes.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Storage kinds.
const (
	StorageDir    = "dir"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config is the complete tag configuration.
type Config struct {
	Tag     TagConfig     `yaml:"tag"`
	Wake    WakeConfig    `yaml:"wake"`
	Timers  TimersConfig  `yaml:"timers"`
	Storage StorageConfig `yaml:"storage"`
	Radio   RadioConfig   `yaml:"radio"`
	Battery BatteryConfig `yaml:"battery"`
	Power   PowerConfig   `yaml:"power"`
	Log     LogConfig     `yaml:"log"`
	Events  EventsConfig  `yaml:"events"`
}

// TagConfig identifies the tag.
type TagConfig struct {
	// Name is advertised while the data value is empty.
	Name string `yaml:"name"`

	// ID is the tag UUID. Empty generates a random one per run.
	ID string `yaml:"id"`

	// StartupDelay passes before the first storage access.
	StartupDelay time.Duration `yaml:"startup_delay"`
}

// WakeConfig controls the duty cycle.
type WakeConfig struct {
	Period           time.Duration `yaml:"period"`
	DutyCyclePercent uint          `yaml:"duty_cycle_percent"`
	MaxCycles        uint64        `yaml:"max_cycles"`
}

// TimersConfig sizes the timer registry.
type TimersConfig struct {
	Capacity int `yaml:"capacity"`

	// StatusInterval schedules the periodic status report (0 disables).
	StatusInterval time.Duration `yaml:"status_interval"`
}

// StorageConfig selects the storage backend.
type StorageConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
	Wipe bool   `yaml:"wipe"`
}

// RadioConfig configures mDNS advertising.
type RadioConfig struct {
	// Enabled selects mDNS; false logs advertisements only.
	Enabled   bool          `yaml:"enabled"`
	Interface string        `yaml:"interface"`
	TTL       time.Duration `yaml:"ttl"`
	Port      int           `yaml:"port"`
}

// BatteryConfig drives the simulated supply.
type BatteryConfig struct {
	Millivolts int32 `yaml:"millivolts"`
	DrainMV    int32 `yaml:"drain_mv"`
	FloorMV    int32 `yaml:"floor_mv"`
}

// PowerConfig controls the power-off transition.
type PowerConfig struct {
	Timeout time.Duration `yaml:"timeout"`

	// WakeAfter wakes the simulated platform from the lowest power state.
	// Zero never wakes, so power-off fails after Timeout.
	WakeAfter time.Duration `yaml:"wake_after"`
}

// LogConfig configures the operational logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// EventsConfig configures the event log. An empty path disables it.
type EventsConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the embedded defaults.
func Default() *Config {
	var c Config
	if err := yaml.Unmarshal(defaultYAML, &c); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return &c
}

// Load reads the file at path over the defaults and validates the result.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, c.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := Parse(data, c); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse decodes data over c. Unknown keys are rejected.
func Parse(data []byte, c *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	if c.Tag.ID != "" {
		_, err := uuid.Parse(c.Tag.ID)
		check(err == nil, "tag.id %q is not a UUID", c.Tag.ID)
	}
	check(c.Tag.StartupDelay >= 0, "tag.startup_delay must not be negative")
	check(c.Wake.Period > 0 && c.Wake.Period%time.Millisecond == 0,
		"wake.period %v must be a positive whole number of milliseconds", c.Wake.Period)
	check(c.Wake.DutyCyclePercent > 0 && c.Wake.DutyCyclePercent <= 100,
		"wake.duty_cycle_percent %d must be within 1..100", c.Wake.DutyCyclePercent)
	check(c.Timers.Capacity > 0, "timers.capacity must be positive")
	check(c.Timers.StatusInterval >= 0 && c.Timers.StatusInterval%time.Millisecond == 0,
		"timers.status_interval %v must be a whole number of milliseconds", c.Timers.StatusInterval)

	switch c.Storage.Kind {
	case StorageDir, StorageSQLite:
		check(c.Storage.Path != "", "storage.path is required for %s storage", c.Storage.Kind)
	case StorageMemory:
	default:
		check(false, "storage.kind %q must be dir, sqlite or memory", c.Storage.Kind)
	}

	check(c.Radio.Port > 0 && c.Radio.Port < 1<<16, "radio.port %d out of range", c.Radio.Port)
	check(c.Radio.TTL >= time.Second, "radio.ttl must be at least 1s")
	check(c.Battery.Millivolts > 0, "battery.millivolts must be positive")
	check(c.Battery.DrainMV >= 0, "battery.drain_mv must not be negative")
	check(c.Power.Timeout > 0, "power.timeout must be positive")
	check(c.Power.WakeAfter >= 0, "power.wake_after must not be negative")

	_, err := ParseLevel(c.Log.Level)
	check(err == nil, "log.level %q", c.Log.Level)
	check(c.Log.Format == "text" || c.Log.Format == "json", "log.format %q must be text or json", c.Log.Format)
	check(c.Events.MaxSizeMB >= 0 && c.Events.MaxBackups >= 0, "events sizes must not be negative")

	return errors.Join(errs...)
}

// TagID returns the configured tag UUID, or a new random one.
func (c *Config) TagID() uuid.UUID {
	if id, err := uuid.Parse(c.Tag.ID); err == nil {
		return id
	}
	return uuid.New()
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
