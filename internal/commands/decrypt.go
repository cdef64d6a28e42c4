package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/kirmah/internal/config"
	"github.com/idelchi/kirmah/internal/logic"
)

// NewDecryptCommand creates a new cobra command for the decrypt subcommand.
func NewDecryptCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "decrypt [flags] files...",
		Aliases: []string{"dec"},
		Short:   "Decrypt files",
		Long:    "Decrypt files, stripping the .kmh extension or appending .dec when there is none.",
		Args:    cobra.MinimumNArgs(1),
		PreRunE: preRun(cfg),
		RunE:    runWith(cfg, logic.RunDecrypt),
	}
}
