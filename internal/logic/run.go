package logic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/idelchi/kirmah/internal/bundle"
	"github.com/idelchi/kirmah/internal/config"
	"github.com/idelchi/kirmah/internal/encryption"
	"github.com/idelchi/kirmah/internal/fileutil"
	"github.com/idelchi/kirmah/internal/keys"
)

// RunKey generates a key of cfg.Length characters and writes it to the
// output path, or to the key file when no output is given.
func RunKey(cfg *config.Config, log *logrus.Logger) error {
	path := cfg.Output
	if path == "" {
		path = cfg.KeyFile
	}

	if err := checkOutput(path, cfg.Force, os.Stdin, os.Stderr); err != nil {
		return err
	}

	key, err := keys.Generate(cfg.Length)
	if err != nil {
		return fmt.Errorf("generating key: %w", err)
	}

	const ownerOnly = 0o700

	if err := os.MkdirAll(filepath.Dir(path), ownerOnly); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}

	if err := key.Save(path); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{"path": path, "length": cfg.Length}).Debug("key generated")

	if !cfg.Quiet {
		fmt.Printf("Generated key %q\n", path) //nolint:forbidigo
	}

	return nil
}

// RunEncrypt encrypts every configured file.
func RunEncrypt(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	proc, err := newProcessor(cfg, log)
	if err != nil {
		return err
	}

	return forEach(ctx, cfg, func(ctx context.Context, file string) (outcome, error) {
		dst := encryptedPath(file, cfg.Output)

		if err := checkOutput(dst, cfg.Force, os.Stdin, os.Stderr); err != nil {
			return outcome{}, err
		}

		res, err := proc.Encrypt(ctx, file, dst, encryption.Options{
			Modes:    resolveModes(cfg, file),
			Parallel: cfg.Parallel,
		})
		if err != nil {
			return outcome{}, err
		}

		return outcome{output: res.Output, size: res.OutputSize}, nil
	})
}

// RunDecrypt decrypts every configured file.
func RunDecrypt(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	proc, err := newProcessor(cfg, log)
	if err != nil {
		return err
	}

	return forEach(ctx, cfg, func(ctx context.Context, file string) (outcome, error) {
		dst := decryptedPath(file, cfg.Output)

		if err := checkOutput(dst, cfg.Force, os.Stdin, os.Stderr); err != nil {
			return outcome{}, err
		}

		res, err := proc.Decrypt(ctx, file, dst, encryption.Options{Parallel: cfg.Parallel})
		if err != nil {
			return outcome{}, err
		}

		return outcome{output: res.Output, size: res.OutputSize}, nil
	})
}

// RunSplit splits every configured file into a bundle of cfg.Parts parts.
func RunSplit(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	proc, err := newProcessor(cfg, log)
	if err != nil {
		return err
	}

	bundler := bundle.New(proc)

	return forEach(ctx, cfg, func(ctx context.Context, file string) (outcome, error) {
		dst := bundlePath(file, cfg.Output)

		if err := checkOutput(dst, cfg.Force, os.Stdin, os.Stderr); err != nil {
			return outcome{}, err
		}

		path, err := bundler.Split(ctx, file, cfg.Parts, dst)
		if err != nil {
			return outcome{}, err
		}

		size, err := fileutil.Size(path)
		if err != nil {
			return outcome{}, err
		}

		return outcome{output: path, size: size}, nil
	})
}

// RunMerge restores the file of every configured bundle. Existing files
// are never replaced.
func RunMerge(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	proc, err := newProcessor(cfg, log)
	if err != nil {
		return err
	}

	bundler := bundle.New(proc)

	return forEach(ctx, cfg, func(ctx context.Context, file string) (outcome, error) {
		path, err := bundler.Merge(ctx, file, cfg.Output)
		if err != nil {
			return outcome{}, err
		}

		size, err := fileutil.Size(path)
		if err != nil {
			return outcome{}, err
		}

		return outcome{output: path, size: size}, nil
	})
}
