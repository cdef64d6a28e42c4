package permute_test

import (
	"fmt"
	"slices"
	"testing"

	"github.com/idelchi/kirmah/internal/permute"
	"github.com/idelchi/kirmah/internal/testutil"
)

func TestPermuteGolden(t *testing.T) {
	t.Parallel()

	v := testutil.Load(t)
	key := []byte(v.Mark2)

	for _, tc := range v.Permutations {
		t.Run(fmt.Sprintf("size_%d", tc.Size), func(t *testing.T) {
			t.Parallel()

			got := permute.Permute(key, tc.Size)
			if !slices.Equal(got, tc.Values) {
				t.Errorf("Permute(mark2, %d)\n got  %v\n want %v", tc.Size, got, tc.Values)
			}
		})
	}
}

func TestPermuteIsBijection(t *testing.T) {
	t.Parallel()

	v := testutil.Load(t)

	inputs := map[string][]byte{
		"mark2":  []byte(v.Mark2),
		"key":    v.KeyBytes(),
		"digits": []byte("0123456789"),
		"single": {200},
	}

	for name, key := range inputs {
		for _, size := range []int{1, 3, 4, 9, 10, 64, 255, 256, 1000, 4000} {
			order := permute.Permute(key, size)
			if len(order) != size {
				t.Fatalf("%s/%d: length %d", name, size, len(order))
			}

			seen := make([]bool, size)

			for _, n := range order {
				if n < 0 || n >= size || seen[n] {
					t.Fatalf("%s/%d: value %d out of range or repeated", name, size, n)
				}

				seen[n] = true
			}

			if again := permute.Permute(key, size); !slices.Equal(order, again) {
				t.Fatalf("%s/%d: second call returned a different order", name, size)
			}
		}
	}
}

func TestPermuteEmpty(t *testing.T) {
	t.Parallel()

	if got := permute.Permute([]byte("abc"), 0); len(got) != 0 {
		t.Errorf("Permute(_, 0) = %v, want empty", got)
	}

	if got := permute.Permute(nil, 3); !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("Permute(nil, 3) = %v, want identity", got)
	}
}

func TestInterleave(t *testing.T) {
	t.Parallel()

	tests := []struct {
		list  []int
		block int
		want  []int
	}{
		{list: []int{0, 1, 2, 3, 4, 5, 6, 7}, block: 4, want: []int{0, 4, 1, 5, 2, 6, 3, 7}},
		{list: []int{0, 1, 2, 3, 4}, block: 2, want: []int{0, 2, 4, 1, 3}},
		{list: []int{3, 1, 2, 0}, block: 0, want: []int{3, 1, 2, 0}},
		{list: []int{2, 0, 1}, block: 10, want: []int{2, 0, 1}},
	}

	for _, tc := range tests {
		if got := permute.Interleave(tc.list, tc.block); !slices.Equal(got, tc.want) {
			t.Errorf("Interleave(%v, %d) = %v, want %v", tc.list, tc.block, got, tc.want)
		}
	}
}
