// Package parttable builds the deterministic per-part metadata shared by the
// mix stage and the split/merge bundler.
package parttable

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/idelchi/kirmah/internal/kerrors"
	"github.com/idelchi/kirmah/internal/keys"
	"github.com/idelchi/kirmah/internal/noise"
	"github.com/idelchi/kirmah/internal/permute"
)

const (
	// MaxCount bounds the number of parts a table can describe.
	MaxCount = 64

	nameLength = 61
	saltStep   = 10
)

// Descriptor describes one part.
type Descriptor struct {
	// Index is the logical position of the part.
	Index int
	// Name is the opaque file name of the part.
	Name string
	// PrefixNoise and SuffixNoise are the padding lengths around the part.
	PrefixNoise int
	SuffixNoise int
	// Scatter is the storage order of the part.
	Scatter int
	// Position is the partition of the input the part carries.
	Position int
}

// Noise returns the total padding length.
func (d Descriptor) Noise() int {
	return d.PrefixNoise + d.SuffixNoise
}

// Table is a generated part table.
type Table struct {
	Name      string
	Count     int
	Root      string
	ConfigKey string
	Parts     []Descriptor
}

// ByIndex returns the descriptors ordered by Index.
func (t *Table) ByIndex() []Descriptor {
	return t.sorted(func(a, b Descriptor) int { return cmp.Compare(a.Index, b.Index) })
}

// ByScatter returns the descriptors ordered by Scatter.
func (t *Table) ByScatter() []Descriptor {
	return t.sorted(func(a, b Descriptor) int { return cmp.Compare(a.Scatter, b.Scatter) })
}

func (t *Table) sorted(fn func(a, b Descriptor) int) []Descriptor {
	parts := slices.Clone(t.Parts)
	slices.SortFunc(parts, fn)

	return parts
}

// Generator builds tables from a configuration key.
type Generator struct {
	key    []byte
	salt   string
	noiser *noise.Noiser
}

// NewGenerator returns a Generator over configKey, the secondary mark of a key.
func NewGenerator(configKey string) *Generator {
	key := []byte(configKey)

	salt := make([]byte, 0, len(key)/saltStep+3) //nolint:mnd
	salt = append(salt, "b'"...)

	for i := len(key) - 1; i >= 0; i -= saltStep {
		salt = append(salt, key[i])
	}

	salt = append(salt, '\'')

	return &Generator{key: key, salt: string(salt), noiser: noise.New(key)}
}

// Salt returns the salt mixed into every hash of the table.
func (g *Generator) Salt() string {
	return g.salt
}

// Build returns the table of count parts for name. When sorted is set the
// parts are ordered by scatter position, otherwise by index.
func (g *Generator) Build(name string, count int, sorted bool) (*Table, error) {
	if count < 1 || count > MaxCount {
		return nil, kerrors.Invalid("part count", count, fmt.Sprintf("must be between 1 and %d", MaxCount))
	}

	root := keys.Hash(g.salt + name)
	positions := permute.Permute(g.key, count)
	scatter := permute.Permute([]byte(root), count)

	table := &Table{
		Name:      name,
		Count:     count,
		Root:      root,
		ConfigKey: string(g.key),
		Parts:     make([]Descriptor, 0, count),
	}

	for i := range count {
		digits := 2
		if i%2 == 1 {
			digits = 1
		}

		lengths, err := g.noiser.Build(i, sumDigits(keys.Hash(strconv.Itoa(i)+g.salt+name), digits))
		if err != nil {
			return nil, fmt.Errorf("sizing noise of part %d: %w", i, err)
		}

		partName := keys.Hash(fmt.Sprintf("%s%s.part%02d", g.salt, name, i))[:nameLength] +
			fmt.Sprintf("%03d", root[i])

		table.Parts = append(table.Parts, Descriptor{
			Index:       i,
			Name:        partName,
			PrefixNoise: lengths.Prefix,
			SuffixNoise: lengths.Suffix,
			Scatter:     scatter[i],
			Position:    positions[i],
		})
	}

	if sorted {
		table.Parts = table.ByScatter()
	}

	return table, nil
}

// sumDigits adds the first count decimal digits found in s.
func sumDigits(s string, count int) int {
	sum := 0

	for _, c := range s {
		if count == 0 {
			break
		}

		if c >= '0' && c <= '9' {
			sum += int(c - '0')
			count--
		}
	}

	return sum
}
