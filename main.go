// Command kirmah encrypts, decrypts, splits and merges files with a
// bespoke key based cipher.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/idelchi/gogen/pkg/cobraext"
	"github.com/idelchi/kirmah/internal/commands"
	"github.com/idelchi/kirmah/internal/config"
)

// Global variable for CI stamping.
var version = "unknown - unofficial & generated by unknown" //nolint:gochecknoglobals

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cfg := &config.Config{}

	err := commands.NewRootCommand(cfg, version).ExecuteContext(ctx)

	stop()

	if err != nil && !errors.Is(err, cobraext.ErrExitGracefully) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
