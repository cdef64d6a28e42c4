package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/kirmah/internal/config"
	"github.com/idelchi/kirmah/internal/logic"
)

// NewEncryptCommand creates a new cobra command for the encrypt subcommand.
func NewEncryptCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "encrypt [flags] files...",
		Aliases: []string{"enc"},
		Short:   "Encrypt files",
		Long: `Encrypt files to <file>.kmh.
Without a compression flag, text files are compressed fully and other files
only at the end.`,
		Args:    cobra.MinimumNArgs(1),
		PreRunE: preRun(cfg),
		RunE:    runWith(cfg, logic.RunEncrypt),
	}

	flags := cmd.Flags()

	flags.BoolP("compress-all", "a", false, "Compress before and after the cipher")
	flags.BoolP("compress-end", "z", false, "Compress only the final payload")
	flags.BoolP("no-compress", "Z", false, "Disable compression")
	flags.BoolP("random", "r", false, "Randomize the chunk order (default)")
	flags.BoolP("no-random", "R", false, "Disable chunk randomization")
	flags.BoolP("mix", "m", false, "Mix the payload with noise (default)")
	flags.BoolP("no-mix", "M", false, "Disable mixing")

	return cmd
}
