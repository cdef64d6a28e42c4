package parttable_test

import (
	"errors"
	"testing"

	"github.com/idelchi/kirmah/internal/kerrors"
	"github.com/idelchi/kirmah/internal/parttable"
	"github.com/idelchi/kirmah/internal/testutil"
)

func TestSaltGolden(t *testing.T) {
	t.Parallel()

	v := testutil.Load(t)

	if got := parttable.NewGenerator(v.Mark2).Salt(); got != v.Salt {
		t.Errorf("Salt = %q, want %q", got, v.Salt)
	}
}

func TestBuildGolden(t *testing.T) {
	t.Parallel()

	v := testutil.Load(t)

	table, err := parttable.NewGenerator(v.Mark2).Build(v.Table.Name, len(v.Table.Parts), false)
	if err != nil {
		t.Fatal(err)
	}

	if table.Root != v.Table.Root {
		t.Errorf("Root = %s, want %s", table.Root, v.Table.Root)
	}

	if table.ConfigKey != v.Mark2 || table.Count != len(v.Table.Parts) || table.Name != v.Table.Name {
		t.Errorf("unexpected table head %q/%d", table.Name, table.Count)
	}

	for i, want := range v.Table.Parts {
		got := table.Parts[i]

		if got.Index != want.Index || got.Name != want.Name ||
			got.PrefixNoise != want.Prefix || got.SuffixNoise != want.Suffix ||
			got.Position != want.Position {
			t.Errorf("part %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	t.Parallel()

	v := testutil.Load(t)
	gen := parttable.NewGenerator(v.Mark2)

	first, err := gen.Build("file.bin", 22, true)
	if err != nil {
		t.Fatal(err)
	}

	second, err := gen.Build("file.bin", 22, false)
	if err != nil {
		t.Fatal(err)
	}

	a, b := first.ByIndex(), second.ByIndex()

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("descriptor %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}

	seen := make(map[int]bool)

	for i, d := range first.Parts {
		if d.Scatter != i {
			t.Errorf("sorted table entry %d has scatter %d", i, d.Scatter)
		}

		if d.Scatter < 0 || d.Scatter >= 22 || seen[d.Scatter] {
			t.Errorf("scatter %d out of range or repeated", d.Scatter)
		}

		seen[d.Scatter] = true
	}

	if len(seen) != 22 {
		t.Errorf("got %d distinct scatter positions, want 22", len(seen))
	}
}

func TestBuildNamesDiffer(t *testing.T) {
	t.Parallel()

	v := testutil.Load(t)
	gen := parttable.NewGenerator(v.Mark2)

	a, err := gen.Build("a.txt", 12, false)
	if err != nil {
		t.Fatal(err)
	}

	b, err := gen.Build("b.txt", 12, false)
	if err != nil {
		t.Fatal(err)
	}

	if a.Root == b.Root || a.Parts[0].Name == b.Parts[0].Name {
		t.Error("different names produced identical tables")
	}

	names := make(map[string]bool)
	for _, d := range a.Parts {
		names[d.Name] = true
	}

	if len(names) != 12 {
		t.Errorf("part names are not unique: %d distinct", len(names))
	}
}

func TestBuildCountRange(t *testing.T) {
	t.Parallel()

	gen := parttable.NewGenerator(testutil.Load(t).Mark2)

	for _, count := range []int{0, -1, parttable.MaxCount + 1} {
		if _, err := gen.Build("x", count, false); !errors.Is(err, kerrors.ErrInvalidParameter) {
			t.Errorf("Build(count=%d) error = %v, want ErrInvalidParameter", count, err)
		}
	}

	if _, err := gen.Build("x", parttable.MaxCount, false); err != nil {
		t.Errorf("Build(count=%d): %v", parttable.MaxCount, err)
	}
}
