package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"
)

// LoadFile merges the JSONC file at path into v. Keys use the long flag
// names, e.g. {"key-file": "~/.kirmah/work.key", "parallel": 4}.
func LoadFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is from user-supplied config
	if err != nil {
		return fmt.Errorf("reading config file %q: %w", path, err)
	}

	v.SetConfigType("json")

	if err := v.MergeConfig(bytes.NewReader(jsonc.ToJSONInPlace(data))); err != nil {
		return fmt.Errorf("parsing config file %q: %w", path, err)
	}

	return nil
}
