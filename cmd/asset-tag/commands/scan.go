package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/asset-tag/tag-go/pkg/radio"
)

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Browse for advertising tags",
		Long: `Browse mDNS for advertising tags and print each one once.

Example:
  asset-tag scan --timeout 30s`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			mc := radio.DefaultMDNSConfig()
			mc.Interface = cfg.Radio.Interface
			mc.Logger = logger
			sightings, err := radio.NewScanner(mc).Scan(ctx)
			if err != nil {
				return err
			}
			n := printSightings(cmd.OutOrStdout(), sightings)
			fmt.Fprintf(cmd.OutOrStdout(), "%d tag(s) found\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 10*time.Second, "stop browsing after this long (0 browses until interrupted)")
	return cmd
}

// printSightings prints sightings until the channel closes and returns the
// number printed.
func printSightings(w io.Writer, sightings <-chan radio.Sighting) int {
	n := 0
	for s := range sightings {
		n++
		fmt.Fprintf(w, "%s  battery %d%%  tag %s  version %s\n",
			s.InstanceName, s.Battery, s.Payload.TagID, s.Payload.Version)
		addr := strings.Join(s.Addresses, ", ")
		if addr == "" {
			addr = "-"
		}
		fmt.Fprintf(w, "  %s:%d [%s]\n", s.Host, s.Port, addr)
	}
	return n
}
