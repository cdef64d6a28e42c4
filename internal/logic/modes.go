package logic

import (
	"github.com/gabriel-vasile/mimetype"

	"github.com/idelchi/kirmah/internal/config"
	"github.com/idelchi/kirmah/internal/encryption"
	"github.com/idelchi/kirmah/internal/header"
)

// resolveModes merges the mode flags with the defaults. Without a
// compression flag, text files are compressed as a whole and anything
// else only at the end of the pipeline.
func resolveModes(cfg *config.Config, file string) header.Modes {
	modes := encryption.DefaultModes

	if c, ok := cfg.Compression(); ok {
		modes.Compression = c
	} else if isText(file) {
		modes.Compression = header.All
	}

	modes.Random = !cfg.NoRandom
	modes.Mix = !cfg.NoMix

	return modes
}

// isText reports whether file is detected as plain text or a subtype of it.
func isText(file string) bool {
	mtype, err := mimetype.DetectFile(file)
	if err != nil {
		return false
	}

	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}

	return false
}
