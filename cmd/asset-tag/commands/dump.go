package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/asset-tag/tag-go/pkg/config"
	"github.com/asset-tag/tag-go/pkg/gatt"
	"github.com/asset-tag/tag-go/pkg/storage"
)

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the persisted values and boot counter",
		Long: `Print what the tag has persisted. The volume is opened without mounting,
so the boot counter is left unchanged.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			return RunDump(cfg.Storage, cmd.OutOrStdout())
		},
	}
}

// RunDump prints the boot counter and persisted characteristics of the
// configured volume.
func RunDump(cfg config.StorageConfig, w io.Writer) error {
	var s storage.Storage
	switch cfg.Kind {
	case config.StorageMemory:
		return errors.New("memory storage keeps nothing between runs")
	case config.StorageSQLite:
		if _, err := os.Stat(cfg.Path); err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		vol := storage.NewSQLiteVolume(storage.SQLiteConfig{Path: cfg.Path})
		if err := vol.Open(); err != nil {
			return err
		}
		defer vol.Close()
		s = vol
	default:
		vol := storage.NewDirVolume(storage.DirConfig{Root: cfg.Path})
		if err := vol.Open(); err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer vol.Close()
		s = vol
	}

	boots, err := storage.ReadBootCount(s)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Storage:    %s %s\n", cfg.Kind, cfg.Path)
	fmt.Fprintf(w, "Boot count: %d\n", boots)

	for _, char := range gatt.Characteristics() {
		if char.Buffer.Path == "" {
			continue
		}
		data, err := s.Read(char.Buffer.Path)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			fmt.Fprintf(w, "%-10s  (never written)\n", char.Name+":")
		case err != nil:
			return err
		default:
			fmt.Fprintf(w, "%-10s  %q (%d bytes)\n", char.Name+":", data, len(data))
		}
	}
	return nil
}
