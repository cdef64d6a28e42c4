package noise_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/idelchi/kirmah/internal/kerrors"
	"github.com/idelchi/kirmah/internal/noise"
	"github.com/idelchi/kirmah/internal/testutil"
)

func TestBuildMinimums(t *testing.T) {
	t.Parallel()

	v := testutil.Load(t)
	n := noise.New([]byte(v.Mark2))

	for part := range 64 {
		for _, seed := range []int{0, 9, 18, 22} {
			l, err := n.Build(part, seed)
			if err != nil {
				t.Fatalf("Build(%d, %d): %v", part, seed, err)
			}

			if l.Prefix < noise.MinPrefix || l.Suffix < noise.MinSuffix {
				t.Fatalf("Build(%d, %d) = %+v below minimums", part, seed, l)
			}

			again, _ := n.Build(part, seed)
			if again != l {
				t.Fatalf("Build(%d, %d) not deterministic", part, seed)
			}
		}
	}
}

func TestBuildKnownValues(t *testing.T) {
	t.Parallel()

	v := testutil.Load(t)
	n := noise.New([]byte(v.Mark2))

	// Seeds of the first parts of the file.bin table.
	for _, tc := range []struct {
		part, seed int
		want       noise.Lengths
	}{
		{part: 0, seed: 6, want: noise.Lengths{Prefix: 53, Suffix: 149}},
		{part: 1, seed: 0, want: noise.Lengths{Prefix: 50, Suffix: 110}},
		{part: 3, seed: 8, want: noise.Lengths{Prefix: 61, Suffix: 163}},
	} {
		got, err := n.Build(tc.part, tc.seed)
		if err != nil {
			t.Fatal(err)
		}

		if got != tc.want {
			t.Errorf("Build(%d, %d) = %+v, want %+v", tc.part, tc.seed, got, tc.want)
		}
	}
}

func TestBuildOutOfRange(t *testing.T) {
	t.Parallel()

	n := noise.New(bytes.Repeat([]byte{'a'}, 50))

	for _, part := range []int{-1, 48, 60} {
		if _, err := n.Build(part, 0); !errors.Is(err, kerrors.ErrInvalidParameter) {
			t.Errorf("Build(%d, 0) error = %v, want ErrInvalidParameter", part, err)
		}
	}

	if _, err := noise.New([]byte("short")).Build(0, 0); err == nil {
		t.Error("Build on a key shorter than 45 bytes should fail")
	}
}

func TestRandom(t *testing.T) {
	t.Parallel()

	for _, length := range []int{0, 1, 24, 163} {
		raw, err := noise.Random(length, false)
		if err != nil {
			t.Fatal(err)
		}

		if len(raw) != length {
			t.Errorf("Random(%d, false) length %d", length, len(raw))
		}

		armored, err := noise.Random(length, true)
		if err != nil {
			t.Fatal(err)
		}

		if len(armored) != length {
			t.Errorf("Random(%d, true) length %d", length, len(armored))
		}

		for _, c := range armored {
			if !bytes.ContainsRune([]byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_="), rune(c)) {
				t.Fatalf("armored noise contains %q", c)
			}
		}
	}

}
