// Package config holds the command line configuration of kirmah and its
// validation rules.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/idelchi/gogen/pkg/validator"

	"github.com/idelchi/kirmah/internal/header"
	"github.com/idelchi/kirmah/internal/kerrors"
)

// Config is the merged configuration of flags, environment and config file.
type Config struct {
	// Show the configuration and exit
	Show bool `label:"--show"`

	// Common flags
	KeyFile  string `mapstructure:"key-file" label:"--key-file"`
	Output   string `label:"--output"`
	Parallel int    `label:"--parallel" validate:"min=1,max=8"`
	Force    bool
	Quiet    bool
	Debug    bool
	Stats    bool

	// encrypt flags
	CompressAll bool `mapstructure:"compress-all" label:"--compress-all" validate:"exclusive=--compress-end --no-compress"`
	CompressEnd bool `mapstructure:"compress-end" label:"--compress-end" validate:"exclusive=--no-compress"`
	NoCompress  bool `mapstructure:"no-compress"  label:"--no-compress"`
	Random      bool `label:"--random"            validate:"exclusive=--no-random"`
	NoRandom    bool `mapstructure:"no-random"    label:"--no-random"`
	Mix         bool `label:"--mix"               validate:"exclusive=--no-mix"`
	NoMix       bool `mapstructure:"no-mix"       label:"--no-mix"`

	// key flags
	Length int `label:"--length" validate:"min=128,max=4096"`

	// split flags
	Parts int `label:"--parts" validate:"min=12,max=62"`

	// Positional arguments
	Files []string `label:"files" validate:"dive,required"`
}

// DefaultKeyFile returns the key path used when none is configured.
func DefaultKeyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".kirmah", ".default.key")
	}

	return filepath.Join(home, ".kirmah", ".default.key")
}

// Compression returns the compression mode the flags ask for, and false
// when no compression flag was given.
func (c *Config) Compression() (header.Compression, bool) {
	switch {
	case c.CompressAll:
		return header.All, true
	case c.CompressEnd:
		return header.End, true
	case c.NoCompress:
		return header.None, true
	default:
		return header.None, false
	}
}

// Display returns the value of the Show field.
func (c *Config) Display() bool {
	return c.Show
}

// Validate validates config against the struct tags, then checks the rules
// spanning several fields. All failures wrap ErrInvalidParameter.
func (c *Config) Validate(config any) error {
	validator := validator.NewValidator()

	if err := registerExclusive(validator); err != nil {
		return err
	}

	errs := validator.Validate(config)

	if c.Output != "" && len(c.Files) > 1 {
		errs = append(errs, kerrors.Invalid("--output", c.Output, "cannot be combined with several input files"))
	}

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%w: %w", kerrors.ErrInvalidParameter, errs[0])
	default:
		return fmt.Errorf("%w:\n%w", kerrors.ErrInvalidParameter, errors.Join(errs...))
	}
}
