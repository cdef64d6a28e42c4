package commands

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/idelchi/kirmah/internal/config"
	"github.com/idelchi/kirmah/internal/keys"
	"github.com/idelchi/kirmah/internal/logic"
)

// NewKeyCommand creates a new cobra command for the key subcommand.
func NewKeyCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key [flags]",
		Aliases: []string{"gen"},
		Short:   "Generate a new key",
		Long:    "Generate a new key. It is written to --output, or to --key-file when no output is given.",
		Args:    cobra.NoArgs,
		PreRunE: preRun(cfg),
		RunE: runWith(cfg, func(_ context.Context, cfg *config.Config, log *logrus.Logger) error {
			return logic.RunKey(cfg, log)
		}),
	}

	cmd.Flags().IntP("length", "l", keys.DefaultLength, "Key length in characters, 128 to 4096")

	return cmd
}
