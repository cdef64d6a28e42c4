package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/gogen/pkg/cobraext"
	"github.com/idelchi/kirmah/internal/config"
)

// NewRootCommand creates the root command with common configuration.
// It sets up environment variable binding and flag handling.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	root := cobraext.NewDefaultRootCommand(version, loadConfig)

	root.Use = "kirmah [flags] command [flags]"
	root.Short = "Bespoke file encryption utility"
	root.Long = `Kirmah encrypts files with a key of printable characters through a chain
of compression, cipher, randomization and mixing stages, and splits files into
bundles of encrypted parts.`

	flags := root.PersistentFlags()

	flags.BoolP("show", "s", false, "Show the configuration and exit")
	flags.String("config", "", "Path to a JSONC file with flag defaults")
	flags.StringP("key-file", "k", config.DefaultKeyFile(), "Path to the key file")
	flags.StringP("output", "o", "", "Output path, only with a single input")
	flags.BoolP("force", "f", false, "Overwrite existing output files without asking")
	flags.IntP("parallel", "j", 1, "Number of cipher workers, 1 to 8")
	flags.BoolP("quiet", "q", false, "Suppress non-error output")
	flags.Bool("debug", false, "Log every pipeline stage")
	flags.Bool("stats", false, "Print statistics when done")

	root.AddCommand(
		NewKeyCommand(cfg),
		NewEncryptCommand(cfg),
		NewDecryptCommand(cfg),
		NewSplitCommand(cfg),
		NewMergeCommand(cfg),
	)

	return root
}
