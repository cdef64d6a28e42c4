package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/kirmah/internal/bundle"
	"github.com/idelchi/kirmah/internal/config"
	"github.com/idelchi/kirmah/internal/logic"
)

// NewSplitCommand creates a new cobra command for the split subcommand.
func NewSplitCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "split [flags] files...",
		Short:   "Split files into bundles of encrypted parts",
		Long:    "Split each file into encrypted parts bundled as <file>.tark.",
		Args:    cobra.MinimumNArgs(1),
		PreRunE: preRun(cfg),
		RunE:    runWith(cfg, logic.RunSplit),
	}

	cmd.Flags().IntP("parts", "p", bundle.DefaultParts, "Number of parts, 12 to 62")

	return cmd
}
