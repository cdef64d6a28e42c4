// Package testutil loads the golden vectors shared by the package tests.
package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/goccy/go-yaml"
)

// Permutation is a golden permutation of mark2 bytes.
type Permutation struct {
	Size   int   `yaml:"size"`
	Values []int `yaml:"values"`
}

// Sizes is a golden randomize chunk layout.
type Sizes struct {
	File  int64 `yaml:"file"`
	Chunk int64 `yaml:"chunk"`
	Count int64 `yaml:"count"`
}

// Part is a golden part table row.
type Part struct {
	Index    int    `yaml:"index"`
	Name     string `yaml:"name"`
	Prefix   int    `yaml:"prefix"`
	Suffix   int    `yaml:"suffix"`
	Position int    `yaml:"position"`
}

// Table is the golden part table for a name.
type Table struct {
	Name  string `yaml:"name"`
	Root  string `yaml:"root"`
	Parts []Part `yaml:"parts"`
}

// Header is a golden header encoding.
type Header struct {
	Length      int64  `yaml:"length"`
	Compression int    `yaml:"compression"`
	Random      bool   `yaml:"random"`
	Mix         bool   `yaml:"mix"`
	Hex         string `yaml:"hex"`
}

// Stage is a golden stage output for a generated input. The input is
// Text when set, otherwise byte(i*Mul + Add) for i in [0, Length).
type Stage struct {
	Name         string `yaml:"name"`
	Length       int    `yaml:"length"`
	Mul          int    `yaml:"mul"`
	Add          int    `yaml:"add"`
	Text         string `yaml:"text"`
	OutputLength int    `yaml:"output_length"`
	SHA256       string `yaml:"sha256"`
	Hex          string `yaml:"hex"`
}

// Input returns the stage input.
func (s Stage) Input() []byte {
	if s.Text != "" {
		return []byte(s.Text)
	}

	data := make([]byte, s.Length)
	for i := range data {
		data[i] = byte(i*s.Mul + s.Add)
	}

	return data
}

// Check compares out with the golden output.
func (s Stage) Check(t *testing.T, out []byte) {
	t.Helper()

	if len(out) != s.OutputLength {
		t.Fatalf("%s: output length %d, want %d", s.Name, len(out), s.OutputLength)
	}

	if s.Hex != "" && hex.EncodeToString(out) != s.Hex {
		t.Errorf("%s: output\n got %x\nwant %s", s.Name, out, s.Hex)
	}

	sum := sha256.Sum256(out)
	if got := hex.EncodeToString(sum[:]); got != s.SHA256 {
		t.Errorf("%s: sha256 %s, want %s", s.Name, got, s.SHA256)
	}
}

// MixOffsets are the golden slot offsets of the mix stage for a payload
// size. The last entry is the total mixed length.
type MixOffsets struct {
	Size    int64   `yaml:"size"`
	Offsets []int64 `yaml:"offsets"`
}

// Vectors is the whole golden file.
type Vectors struct {
	Key          string        `yaml:"key"`
	Mark         string        `yaml:"mark"`
	Mark2        string        `yaml:"mark2"`
	Salt         string        `yaml:"salt"`
	Permutations []Permutation `yaml:"permutations"`
	Sizes        []Sizes       `yaml:"sizes"`
	Table        Table         `yaml:"table"`
	Headers      []Header      `yaml:"headers"`
	Cipher       []Stage       `yaml:"cipher"`
	Randomize    []Stage       `yaml:"randomize"`
	MixOffsets   []MixOffsets  `yaml:"mix_offsets"`
	Encrypt      []Stage       `yaml:"encrypt"`
}

// Load reads internal/testdata/vectors.yml.
func Load(t *testing.T) Vectors {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("locating testutil source")
	}

	path := filepath.Join(filepath.Dir(file), "..", "testdata", "vectors.yml")

	data, err := os.ReadFile(path) //nolint:gosec // test helper reads known testdata files
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}

	var v Vectors
	if err := yaml.Unmarshal(data, &v); err != nil {
		t.Fatalf("parsing %s: %v", path, err)
	}

	return v
}

// KeyBytes returns the golden key as raw bytes.
func (v Vectors) KeyBytes() []byte {
	return []byte(v.Key)
}
