// Package logic implements the command flows of kirmah: key generation,
// encryption, decryption, splitting and merging.
package logic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/idelchi/kirmah/internal/config"
	"github.com/idelchi/kirmah/internal/encryption"
	"github.com/idelchi/kirmah/internal/keys"
)

// NewLogger returns the logger used by all commands. It writes to w at
// warning level, or debug level when cfg.Debug is set.
func NewLogger(cfg *config.Config, w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.WarnLevel)

	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
	}

	return log
}

// newProcessor loads the configured key and binds a Processor to it.
func newProcessor(cfg *config.Config, log *logrus.Logger) (*encryption.Processor, error) {
	key, err := keys.Load(cfg.KeyFile)
	if err != nil {
		return nil, err
	}

	log.WithField("key-file", cfg.KeyFile).Debug("key loaded")

	proc, err := encryption.NewProcessor(key, log)
	if err != nil {
		return nil, fmt.Errorf("creating processor: %w", err)
	}

	return proc, nil
}

// outcome is what a per file action reports back to forEach.
type outcome struct {
	output string
	size   int64
}

type stats struct {
	processed int
	errored   int
	size      int64
	start     time.Time
}

// forEach applies fn to every configured file in order. Failures are
// reported and collected, the remaining files are still processed unless
// ctx is done.
func forEach(ctx context.Context, cfg *config.Config, fn func(context.Context, string) (outcome, error)) error {
	st := stats{start: time.Now()}

	var errs []error

	for _, file := range cfg.Files {
		if ctx.Err() != nil {
			errs = append(errs, context.Cause(ctx))

			break
		}

		out, err := fn(ctx, file)
		if err != nil {
			st.errored++

			fmt.Fprintf(os.Stderr, "Error processing %q: %v\n", file, err)

			errs = append(errs, fmt.Errorf("%s: %w", file, err))

			continue
		}

		st.processed++
		st.size += out.size

		if !cfg.Quiet {
			fmt.Printf("Processed %q -> %q\n", file, out.output) //nolint:forbidigo
		}
	}

	if cfg.Stats {
		printStats(st)
	}

	return errors.Join(errs...)
}

func printStats(st stats) {
	fmt.Fprintf(os.Stderr, "\nStats\n")
	fmt.Fprintf(os.Stderr, "  Processed: %d\n", st.processed)
	fmt.Fprintf(os.Stderr, "  Errors:    %d\n", st.errored)
	//nolint:gosec // size is always non-negative (sum of file sizes)
	fmt.Fprintf(os.Stderr, "  Size:      %s\n", humanize.IBytes(uint64(max(0, st.size))))
	fmt.Fprintf(os.Stderr, "  Duration:  %s\n", time.Since(st.start).Round(time.Millisecond))
}
