package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asset-tag/tag-go/pkg/version"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the firmware version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fw, err := version.Parse(version.Current)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "asset-tag %s\n", fw)
			return nil
		},
	}
}
