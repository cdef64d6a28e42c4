// Package commands provides the command-line interface for the kirmah tool.
//
// It implements commands for:
//   - key generation
//   - encryption and decryption
//   - splitting into and merging from bundles
//
// The package handles command-line parsing, configuration validation,
// and environment variable binding through cobra and viper.
package commands

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idelchi/gogen/pkg/cobraext"
	"github.com/idelchi/kirmah/internal/bundle"
	"github.com/idelchi/kirmah/internal/config"
	"github.com/idelchi/kirmah/internal/keys"
	"github.com/idelchi/kirmah/internal/logic"
)

// loadConfig sets the defaults of the sub-command flags and merges the
// optional --config file below flags and environment.
func loadConfig(_ *cobra.Command, _ []string) error {
	viper.SetDefault("length", keys.DefaultLength)
	viper.SetDefault("parts", bundle.DefaultParts)

	if path := viper.GetString("config"); path != "" {
		return config.LoadFile(viper.GetViper(), path)
	}

	return nil
}

// preRun returns a PreRunE handler that sets the positional args as
// cfg.Files and validates the configuration.
func preRun(cfg *config.Config) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		cfg.Files = args

		return cobraext.Validate(cfg, cfg)
	}
}

// runWith returns a RunE handler calling fn with the command context and a
// logger configured from cfg.
func runWith(
	cfg *config.Config,
	fn func(context.Context, *config.Config, *logrus.Logger) error,
) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return fn(cmd.Context(), cfg, logic.NewLogger(cfg, os.Stderr))
	}
}
