package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger at Debug level, or Error
// level for error events.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Attrs returns the slog attributes describing event.
func Attrs(event Event) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.TagID != "" {
		attrs = append(attrs, slog.String("tag_id", event.TagID))
	}
	if event.Cycle != 0 {
		attrs = append(attrs, slog.Uint64("cycle", event.Cycle))
	}

	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Phase != nil:
		attrs = append(attrs,
			slog.String("phase", event.Phase.Phase.String()),
			slog.Duration("duration", event.Phase.Duration),
		)
		if event.Phase.Phase == PhaseSample {
			attrs = append(attrs,
				slog.Int("millivolts", int(event.Phase.Millivolts)),
				slog.Int("percent", int(event.Phase.Percent)),
			)
		}
		if event.Phase.Name != "" {
			attrs = append(attrs, slog.String("name", event.Phase.Name))
		}
	case event.Write != nil:
		attrs = append(attrs,
			slog.String("key", event.Write.Key),
			slog.Int("offset", event.Write.Offset),
			slog.Int("length", event.Write.Length),
		)
	case event.Flush != nil:
		attrs = append(attrs, slog.Any("keys", event.Flush.Keys))
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.Bool("fatal", event.Error.Fatal),
		)
		if event.Error.Kind != "" {
			attrs = append(attrs, slog.String("kind", event.Error.Kind))
		}
	}
	return attrs
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	level := slog.LevelDebug
	if event.Category == CategoryError {
		level = slog.LevelError
	}
	a.logger.LogAttrs(context.Background(), level, "event", Attrs(event)...)
}

var _ Logger = (*SlogAdapter)(nil)
