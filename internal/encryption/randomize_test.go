package encryption_test

import (
	"fmt"
	"testing"

	"github.com/idelchi/kirmah/internal/encryption"
	"github.com/idelchi/kirmah/internal/testutil"
)

func TestChunkLayoutGolden(t *testing.T) {
	t.Parallel()

	for _, tc := range testutil.Load(t).Sizes {
		t.Run(fmt.Sprint(tc.File), func(t *testing.T) {
			t.Parallel()

			chunk, count := encryption.ChunkLayout(tc.File)
			if chunk != tc.Chunk || count != tc.Count {
				t.Errorf("ChunkLayout(%d) = (%d, %d), want (%d, %d)", tc.File, chunk, count, tc.Chunk, tc.Count)
			}
		})
	}
}

func TestChunkLayoutBound(t *testing.T) {
	t.Parallel()

	for _, size := range []int64{0, 1, 4000, 4001, 1 << 20, 1 << 30, 1 << 34} {
		chunk, count := encryption.ChunkLayout(size)
		if chunk < 1 || count > 4000 || chunk*count < size {
			t.Errorf("ChunkLayout(%d) = (%d, %d)", size, chunk, count)
		}
	}
}
