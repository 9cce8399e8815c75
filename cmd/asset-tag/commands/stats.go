package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/asset-tag/tag-go/pkg/log"
)

// Stats holds aggregate statistics about an event file.
type Stats struct {
	TotalEvents      int
	EventsByLayer    map[log.Layer]int
	EventsByCategory map[log.Category]int
	Boots            map[uint32]bool
	Cycles           int
	Writes           int
	Flushes          int
	Errors           int
	FatalErrors      int
	MinPercent       uint8
	MaxPercent       uint8
	Samples          int
	HoldTotal        time.Duration
	Holds            int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// RunStats analyzes the event file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open event file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:    make(map[log.Layer]int),
		EventsByCategory: make(map[log.Category]int),
		Boots:            make(map[uint32]bool),
		MinPercent:       100,
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	if event.BootCount != 0 {
		s.Boots[event.BootCount] = true
	}

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	switch {
	case event.Phase != nil:
		switch event.Phase.Phase {
		case log.PhaseSample:
			s.Samples++
			s.MinPercent = min(s.MinPercent, event.Phase.Percent)
			s.MaxPercent = max(s.MaxPercent, event.Phase.Percent)
		case log.PhaseHold:
			s.Holds++
			s.HoldTotal += event.Phase.Duration
		case log.PhaseComplete:
			s.Cycles++
		}
	case event.Write != nil:
		s.Writes++
	case event.Flush != nil:
		s.Flushes++
	case event.Error != nil:
		s.Errors++
		if event.Error.Fatal {
			s.FatalErrors++
		}
	}
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Asset Tag Event Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Boots:        %d\n", len(stats.Boots))
	fmt.Fprintf(w, "Wake Cycles:  %d\n", stats.Cycles)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for l := log.LayerLifecycle; l <= log.LayerBattery; l++ {
		if count := stats.EventsByLayer[l]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", l.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for c := log.CategoryState; c <= log.CategoryError; c++ {
		if count := stats.EventsByCategory[c]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", c.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if stats.Samples > 0 {
		fmt.Fprintf(w, "Battery:      %d%% .. %d%% over %d samples\n", stats.MinPercent, stats.MaxPercent, stats.Samples)
	}
	if stats.Holds > 0 {
		fmt.Fprintf(w, "Average Hold: %s\n", formatDuration(stats.HoldTotal/time.Duration(stats.Holds)))
	}
	fmt.Fprintf(w, "Writes:       %d\n", stats.Writes)
	fmt.Fprintf(w, "Flushes:      %d\n", stats.Flushes)

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d (%d fatal)\n", stats.Errors, stats.FatalErrors)
	}
}
