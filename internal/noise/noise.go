// Package noise sizes and produces the random padding placed around
// partitions and split parts.
//
// Only the lengths are derived from the key. The padding bytes come from the
// OS random source and are never regenerated, so decoders rely on the
// lengths alone.
package noise

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/idelchi/kirmah/internal/kerrors"
)

const (
	// MinPrefix is the smallest prefix length Build returns.
	MinPrefix = 24
	// MinSuffix is the smallest suffix length Build returns.
	MinSuffix = 10

	seedDivisor   = 4.20583
	suffixDivisor = 2.1934
	fixedPrefix   = 7
	fixedSuffix   = 44
)

// Lengths are the padding sizes around one part.
type Lengths struct {
	Prefix int
	Suffix int
}

// Total returns Prefix + Suffix.
func (l Lengths) Total() int {
	return l.Prefix + l.Suffix
}

// Noiser derives padding lengths from a key.
type Noiser struct {
	key []byte
}

// New returns a Noiser over key.
func New(key []byte) *Noiser {
	return &Noiser{key: key}
}

// Build computes the padding lengths of part, using the key byte at seed
// as additional entropy.
func (n *Noiser) Build(part, seed int) (Lengths, error) {
	if part < 0 || seed < 0 || part+2 >= len(n.key) || seed >= len(n.key) || fixedSuffix >= len(n.key) {
		return Lengths{}, kerrors.Invalid("noise offset", part, fmt.Sprintf("out of range for a %d byte key", len(n.key)))
	}

	v := int(math.Ceil(float64(int(n.key[seed])+seed) / seedDivisor))

	prefix := abs(int(math.Ceil(float64(v)/2)) - int(n.key[part]) + int(n.key[fixedPrefix])) //nolint:mnd
	suffix := abs(int(float64(v-prefix-int(n.key[part+2])) - float64(n.key[fixedSuffix])/suffixDivisor))

	if prefix < MinPrefix {
		prefix += MinPrefix
	}

	if suffix < MinSuffix {
		suffix += MinSuffix
	}

	return Lengths{Prefix: prefix, Suffix: suffix}, nil
}

// Random returns length random bytes. When armored, the bytes are URL-safe
// base64 text truncated to length.
func Random(length int, armored bool) ([]byte, error) {
	if length <= 0 {
		return []byte{}, nil
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("reading random source: %w", err)
	}

	if !armored {
		return buf, nil
	}

	return []byte(base64.URLEncoding.EncodeToString(buf)[:length]), nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}
