// Package commands implements the asset-tag CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/asset-tag/tag-go/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [tag:id] #cycle LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	tagID := shortenID(event.TagID)

	var typeLabel string
	switch {
	case event.Phase != nil:
		typeLabel = event.Phase.Phase.String()
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Write != nil:
		typeLabel = "Write"
	case event.Flush != nil:
		typeLabel = "Flush"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [tag:%s] boot %d cycle %d %s %s\n",
		ts, tagID, event.BootCount, event.Cycle, event.Layer.String(), typeLabel)

	switch {
	case event.Phase != nil:
		formatPhaseDetails(w, event.Phase)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Write != nil:
		fmt.Fprintf(w, "  Key: %s  Offset: %d  Length: %d\n", event.Write.Key, event.Write.Offset, event.Write.Length)
	case event.Flush != nil:
		fmt.Fprintf(w, "  Keys: %s\n", strings.Join(event.Flush.Keys, ", "))
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenID returns the first 8 characters of a tag ID.
func shortenID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatPhaseDetails(w io.Writer, p *log.PhaseEvent) {
	if p.Duration > 0 {
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(p.Duration))
	}
	if p.Phase == log.PhaseSample {
		fmt.Fprintf(w, "  Battery: %d mV (%d%%)\n", p.Millivolts, p.Percent)
	}
	if p.Name != "" {
		fmt.Fprintf(w, "  Name: %s\n", p.Name)
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Kind != "" {
		fmt.Fprintf(w, "  Kind: %s\n", err.Kind)
	}
	if err.Fatal {
		fmt.Fprintln(w, "  Fatal: yes")
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseLayerFlag parses a layer name (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	l, ok := log.ParseLayer(strings.ToUpper(s))
	if !ok {
		return 0, fmt.Errorf("invalid layer: %s (must be lifecycle, timer, work, store, radio, power or battery)", s)
	}
	return l, nil
}

// ParseCategoryFlag parses a category name (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	c, ok := log.ParseCategory(strings.ToUpper(s))
	if !ok {
		return 0, fmt.Errorf("invalid category: %s (must be state, phase, write, flush or error)", s)
	}
	return c, nil
}

// ViewOptions are the string flags of the view and export commands.
type ViewOptions struct {
	Layer     string
	Category  string
	TagID     string
	Cycle     uint64
	TimeStart string
	TimeEnd   string
}

// Filter converts the options to an event filter.
func (o ViewOptions) Filter() (log.Filter, error) {
	f := log.Filter{TagID: o.TagID, Cycle: o.Cycle}
	if o.Layer != "" {
		l, err := ParseLayerFlag(o.Layer)
		if err != nil {
			return f, err
		}
		f.Layer = &l
	}
	if o.Category != "" {
		c, err := ParseCategoryFlag(o.Category)
		if err != nil {
			return f, err
		}
		f.Category = &c
	}
	if o.TimeStart != "" {
		ts, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return f, fmt.Errorf("invalid time-start: %w", err)
		}
		f.TimeStart = &ts
	}
	if o.TimeEnd != "" {
		te, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return f, fmt.Errorf("invalid time-end: %w", err)
		}
		f.TimeEnd = &te
	}
	return f, nil
}

// RunView prints the events of the file at path that match filter.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open event file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
}
