// Package keys generates, loads and fingerprints kirmah keys.
//
// A key is a UTF-8 string of MinLength to MaxLength runes. The cipher
// consumes its raw UTF-8 bytes, while the fingerprint ("mark") is computed
// over a sample of its distinct runes.
package keys

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/idelchi/kirmah/internal/kerrors"
)

const (
	// MinLength is the shortest accepted key, in runes.
	MinLength = 128
	// MaxLength is the longest accepted key, in runes.
	MaxLength = 4096
	// DefaultLength is the length of generated keys when none is requested.
	DefaultLength = 1024

	sampleLength = 24
	sampleStep   = 5
	markSalt     = "-¤-Kirmah-¤-"
)

// Key holds the raw bytes of a key.
type Key []byte

// Generate returns a random key of length runes drawn from Charset.
func Generate(length int) (Key, error) {
	if length < MinLength || length > MaxLength {
		return nil, kerrors.Invalid("key length", length, fmt.Sprintf("must be between %d and %d", MinLength, MaxLength))
	}

	limit := big.NewInt(int64(len(charset)))

	var buf bytes.Buffer

	buf.Grow(length * 2)

	for range length {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return nil, fmt.Errorf("reading random source: %w", err)
		}

		buf.WriteRune(charset[n.Int64()])
	}

	return Key(buf.Bytes()), nil
}

// Load reads and validates a key file. A single trailing newline is ignored.
func Load(path string) (Key, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user supplied
	if err != nil {
		return nil, kerrors.IO("reading key file", path, err)
	}

	data = bytes.TrimSuffix(data, []byte("\n"))
	data = bytes.TrimSuffix(data, []byte("\r"))

	key := Key(data)
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("key file %q: %w", path, err)
	}

	return key, nil
}

// Validate checks the key encoding and length.
func (k Key) Validate() error {
	if !utf8.Valid(k) {
		return kerrors.Invalid("key", "", "not valid UTF-8")
	}

	n := utf8.RuneCount(k)
	if n < MinLength || n > MaxLength {
		return kerrors.Invalid("key length", n, fmt.Sprintf("must be between %d and %d", MinLength, MaxLength))
	}

	for _, r := range string(k) {
		if unicode.IsControl(r) {
			return kerrors.Invalid("key", fmt.Sprintf("%U", r), "control characters are not allowed")
		}
	}

	return nil
}

// Save writes the key to path with owner-only permissions.
func (k Key) Save(path string) error {
	const ownerReadWrite = 0o600

	return kerrors.IO("writing key file", path, os.WriteFile(path, k, ownerReadWrite))
}

// Mark returns the 64 character hex fingerprint of the key.
func Mark(k Key) string {
	seen := make(map[rune]struct{})

	var distinct []rune

	for _, r := range string(k) {
		if _, ok := seen[r]; ok {
			continue
		}

		seen[r] = struct{}{}
		distinct = append(distinct, r)
	}

	slices.Sort(distinct)

	sample := make([]rune, 0, sampleLength)

	for i := len(distinct) - 1; i >= 0 && len(sample) < sampleLength; i -= sampleStep {
		sample = append(sample, distinct[i])
	}

	return Hash(markSalt + string(sample))
}

// SecondaryMark derives the 128 character configuration key from a mark:
// the hash of the mark followed by the mark reversed.
func SecondaryMark(mark string) string {
	reversed := []byte(mark)
	slices.Reverse(reversed)

	return Hash(mark) + string(reversed)
}

// Hash returns the lowercase hex SHA-256 of s.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))

	return hex.EncodeToString(sum[:])
}
