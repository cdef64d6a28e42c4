package header_test

import (
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/idelchi/kirmah/internal/header"
	"github.com/idelchi/kirmah/internal/keys"
	"github.com/idelchi/kirmah/internal/testutil"
)

func TestBuildGolden(t *testing.T) {
	t.Parallel()

	v := testutil.Load(t)
	codec := header.NewCodec(v.Mark)

	for _, tc := range v.Headers {
		modes := header.Modes{
			Compression: header.Compression(tc.Compression),
			Random:      tc.Random,
			Mix:         tc.Mix,
		}

		t.Run(fmt.Sprintf("%d_%s", tc.Length, modes.Compression), func(t *testing.T) {
			t.Parallel()

			got, err := codec.Build(tc.Length, modes)
			if err != nil {
				t.Fatal(err)
			}

			if hex.EncodeToString(got) != tc.Hex {
				t.Errorf("Build = %x, want %s", got, tc.Hex)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	marks := []string{testutil.Load(t).Mark}

	for i := range 8 {
		marks = append(marks, keys.Hash(fmt.Sprint("mark", i)))
	}

	for _, mark := range marks {
		codec := header.NewCodec(mark)

		for _, c := range []header.Compression{header.None, header.All, header.End} {
			for _, random := range []bool{false, true} {
				for _, mix := range []bool{false, true} {
					modes := header.Modes{Compression: c, Random: random, Mix: mix}

					for _, length := range []int64{0, 1, 63, 64, 1 << 20} {
						b, err := codec.Build(length, modes)
						if err != nil {
							t.Fatal(err)
						}

						if len(b) != header.Size {
							t.Fatalf("header length %d", len(b))
						}

						h, ok := codec.Read(b)
						if !ok {
							t.Fatalf("Read rejected %q", b)
						}

						if h.Modes != modes || h.Version != 2 {
							t.Fatalf("Read = %+v, want modes %+v", h, modes)
						}

						if h.Secure != codec.Expected(length) {
							t.Fatalf("secure %d, want %d", h.Secure, codec.Expected(length))
						}
					}
				}
			}
		}
	}
}

func TestReadRejects(t *testing.T) {
	t.Parallel()

	v := testutil.Load(t)
	codec := header.NewCodec(v.Mark)

	valid, err := codec.Build(11, header.Modes{})
	if err != nil {
		t.Fatal(err)
	}

	mutate := func(i int, c byte) []byte {
		b := append([]byte(nil), valid...)
		b[i] = c

		return b
	}

	tests := map[string][]byte{
		"short":          valid[:header.Size-1],
		"magic":          mutate(0, 'x'),
		"version digit":  mutate(5, 'x'),
		"missing Z":      mutate(7, 'z'),
		"missing R":      mutate(12, 'r'),
		"missing M":      mutate(15, 'm'),
		"missing S":      mutate(18, 's'),
		"position digit": mutate(13, 'x'),
		"position range": mutate(13, '9'),
		"secure range":   []byte(strings.Replace(string(valid), "S055", "S999", 1)),
		"plain text":     []byte("HELLO WORLD, HELLO WORLD"),
	}

	for name, b := range tests {
		if _, ok := codec.Read(b); ok {
			t.Errorf("%s: Read accepted %q", name, b)
		}
	}
}
