package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/kirmah/internal/config"
	"github.com/idelchi/kirmah/internal/logic"
)

// NewMergeCommand creates a new cobra command for the merge subcommand.
func NewMergeCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "merge [flags] bundles...",
		Short: "Restore files from bundles",
		Long: `Restore files from .tark bundles. Extracted parts are merged from their .kcf
file or from the directory holding them. An existing file is never replaced,
a unique suffix is added instead.`,
		Args:    cobra.MinimumNArgs(1),
		PreRunE: preRun(cfg),
		RunE:    runWith(cfg, logic.RunMerge),
	}
}
