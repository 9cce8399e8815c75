package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/asset-tag/tag-go/cmd/asset-tag/interactive"
	"github.com/asset-tag/tag-go/pkg/battery"
	"github.com/asset-tag/tag-go/pkg/config"
	eventlog "github.com/asset-tag/tag-go/pkg/log"
	"github.com/asset-tag/tag-go/pkg/power"
	"github.com/asset-tag/tag-go/pkg/radio"
	"github.com/asset-tag/tag-go/pkg/storage"
	"github.com/asset-tag/tag-go/pkg/tag"
	"github.com/asset-tag/tag-go/pkg/version"
)

// ErrReset is returned when the tag could not power off. The process exits
// non-zero so a supervisor restarts it, which stands in for a device reset.
var ErrReset = errors.New("power-off failed, reset required")

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	NoRadio     bool
	Interactive bool
	MaxCycles   uint64
	EventsPath  string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Boot the tag and run its lifecycle",
		Long: `Boot the tag and run its wake cycles until the lifecycle ends.

Values written by a peer are persisted on the next wake. With --interactive
a console plays the peer.

Example:
  asset-tag run --config tag.yaml
  asset-tag run --no-radio --interactive --events ./events.tlog`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTag(cmd.Context(), opts, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&opts.NoRadio, "no-radio", false, "log advertisements instead of publishing them over mDNS")
	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "start the interactive console")
	cmd.Flags().Uint64Var(&opts.MaxCycles, "max-cycles", 0, "finish the lifecycle after this many wake cycles (overrides config)")
	cmd.Flags().StringVar(&opts.EventsPath, "events", "", "event log path (overrides config)")

	return cmd
}

func runTag(ctx context.Context, opts *RunOptions, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.MaxCycles > 0 {
		cfg.Wake.MaxCycles = opts.MaxCycles
	}
	if opts.EventsPath != "" {
		cfg.Events.Path = opts.EventsPath
	}
	if opts.NoRadio {
		cfg.Radio.Enabled = false
	}

	var console *interactive.Console
	logOut := stderr
	if opts.Interactive {
		// Created before the tag so log output goes through the prompt.
		console, err = interactive.New(nil)
		if err != nil {
			return err
		}
		logOut = console.Stdout()
	}

	logger, err := newLogger(cfg.Log, logOut)
	if err != nil {
		return err
	}

	events, closeEvents, err := newEventLogger(cfg.Events, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	t, err := buildTag(cfg, logger, events)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := t.Run(gctx)
		cancel()
		if console != nil {
			console.Close()
		}
		return err
	})
	if console != nil {
		console.Attach(t)
		g.Go(func() error {
			console.Run(gctx, cancel)
			return nil
		})
	}

	err = g.Wait()
	switch {
	case err == nil:
		logger.Info("tag woke from power-off", "boot_count", t.BootCount())
		return nil
	case errors.Is(err, context.Canceled):
		logger.Info("shut down", "state", t.State(), "cycles", t.Lifecycle().Cycles())
		return nil
	case errors.Is(err, power.ErrPowerOffFailed):
		logger.Error("power-off failed", "error", err)
		return fmt.Errorf("%w: %w", ErrReset, err)
	default:
		return err
	}
}

// buildTag assembles a tag from the config with simulated hardware.
func buildTag(cfg *config.Config, logger *slog.Logger, events eventlog.Logger) (*tag.Tag, error) {
	sampler := battery.NewSimSampler(cfg.Battery.Millivolts)
	if cfg.Battery.DrainMV > 0 {
		sampler.SetDrain(cfg.Battery.DrainMV, cfg.Battery.FloorMV)
	}

	return tag.New(tag.Config{
		Name:             cfg.Tag.Name,
		Version:          version.Current,
		TagID:            cfg.TagID(),
		StartupDelay:     cfg.Tag.StartupDelay,
		Period:           cfg.Wake.Period,
		DutyCyclePercent: cfg.Wake.DutyCyclePercent,
		MaxCycles:        cfg.Wake.MaxCycles,
		TimerCapacity:    cfg.Timers.Capacity,
		StatusInterval:   cfg.Timers.StatusInterval,
		PowerTimeout:     cfg.Power.Timeout,
		OnFatal: func(err error) {
			logger.Error("fatal error, lifecycle stopped", "error", err)
		},
		Logger:      logger,
		EventLogger: events,
	}, tag.Deps{
		Volume:     newVolume(cfg.Storage, logger),
		Sampler:    sampler,
		Advertiser: newAdvertiser(cfg.Radio, logger),
		Platform:   power.NewSimPlatform(cfg.Power.WakeAfter),
	})
}

func newVolume(cfg config.StorageConfig, logger *slog.Logger) storage.Volume {
	switch cfg.Kind {
	case config.StorageSQLite:
		return storage.NewSQLiteVolume(storage.SQLiteConfig{Path: cfg.Path, Wipe: cfg.Wipe, Logger: logger})
	case config.StorageMemory:
		return storage.NewMemoryVolume()
	default:
		return storage.NewDirVolume(storage.DirConfig{Root: cfg.Path, Wipe: cfg.Wipe, Logger: logger})
	}
}

func newAdvertiser(cfg config.RadioConfig, logger *slog.Logger) radio.Advertiser {
	if !cfg.Enabled {
		return radio.NewLogAdvertiser(logger)
	}
	mc := radio.DefaultMDNSConfig()
	mc.Interface = cfg.Interface
	mc.TTL = cfg.TTL
	mc.Port = cfg.Port
	mc.Logger = logger
	return radio.NewMDNSAdvertiser(mc)
}

// newEventLogger returns the event sink: the slog adapter, plus the event
// file when a path is configured.
func newEventLogger(cfg config.EventsConfig, logger *slog.Logger) (eventlog.Logger, func(), error) {
	adapter := eventlog.NewSlogAdapter(logger)
	if cfg.Path == "" {
		return adapter, func() {}, nil
	}
	file, err := eventlog.NewFileLogger(eventlog.FileConfig{
		Path:       cfg.Path,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening event log: %w", err)
	}
	logger.Info("recording events", "path", cfg.Path)
	closeFn := func() {
		if err := file.Close(); err != nil {
			logger.Warn("closing event log failed", "error", err)
		}
	}
	return eventlog.NewMultiLogger(adapter, file), closeFn, nil
}
