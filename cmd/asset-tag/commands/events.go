package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

// EventsOptions holds flags shared by the events subcommands.
type EventsOptions struct {
	*RootOptions
	ViewOptions
	Path string
}

// path returns the --file flag or the configured event log path.
func (o *EventsOptions) path() (string, error) {
	if o.Path != "" {
		return o.Path, nil
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.Events.Path == "" {
		return "", errors.New("no event log: pass --file or set events.path")
	}
	return cfg.Events.Path, nil
}

// NewEventsCommand creates the events command and its view, stats and
// export subcommands.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect recorded lifecycle events",
	}
	cmd.PersistentFlags().StringVarP(&opts.Path, "file", "f", "", "event log file (default: events.path from config)")

	addFilterFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&opts.Layer, "layer", "", "filter by layer (lifecycle|timer|work|store|radio|power|battery)")
		c.Flags().StringVar(&opts.Category, "category", "", "filter by category (state|phase|write|flush|error)")
		c.Flags().StringVar(&opts.TagID, "tag", "", "filter by tag ID")
		c.Flags().Uint64Var(&opts.Cycle, "cycle", 0, "filter by wake cycle")
		c.Flags().StringVar(&opts.TimeStart, "since", "", "only events at or after this RFC3339 time")
		c.Flags().StringVar(&opts.TimeEnd, "until", "", "only events at or before this RFC3339 time")
	}

	view := &cobra.Command{
		Use:           "view",
		Short:         "Print events",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.path()
			if err != nil {
				return err
			}
			filter, err := opts.Filter()
			if err != nil {
				return err
			}
			return RunView(path, filter, cmd.OutOrStdout())
		},
	}
	addFilterFlags(view)

	stats := &cobra.Command{
		Use:           "stats",
		Short:         "Summarize events",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.path()
			if err != nil {
				return err
			}
			return RunStats(path, cmd.OutOrStdout())
		},
	}

	var format, output string
	export := &cobra.Command{
		Use:           "export",
		Short:         "Export events as JSON lines or CSV",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.path()
			if err != nil {
				return err
			}
			filter, err := opts.Filter()
			if err != nil {
				return err
			}
			return RunExport(path, format, output, filter)
		},
	}
	addFilterFlags(export)
	export.Flags().StringVar(&format, "format", "jsonl", "output format (jsonl|csv)")
	export.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	cmd.AddCommand(view, stats, export)
	return cmd
}
