// Package permute derives deterministic permutations from key bytes.
//
// No OS randomness is involved: the same key and size always produce the
// same order, so a consumer can rebuild the permutation a producer used
// without it ever being stored.
package permute

import "slices"

// columns is the fixed block size of the two outer interleave passes.
const columns = 4

// Permute returns a permutation of [0, size) derived from key.
func Permute(key []byte, size int) []int {
	if size <= 0 {
		return []int{}
	}

	if len(key) == 0 {
		order := make([]int, size)
		for i := range order {
			order[i] = i
		}

		return order
	}

	used := make([]bool, size)
	order := make([]int, 0, size)
	low, high := 0, size-1
	upward := false

	for i, j := 0, 0; i < size; i, j = i+1, j+1 {
		if j >= len(key) {
			j = 0
		}

		r := int(key[j])

		if r >= size || used[r] {
			if upward {
				r = low
			} else {
				r = high
			}

			for used[r] {
				if upward {
					r++
				} else {
					r--
				}

				switch {
				case r > size-1:
					r = 0
				case r < 0:
					r = size - 1
				}
			}

			if upward {
				low = r
			} else {
				high = r
			}
		}

		used[r] = true
		order = append(order, r)
		upward = !upward
	}

	limit, delta := size/5, size/10 //nolint:mnd
	if limit == 0 {
		limit = size * 2
	}

	if delta == 0 {
		delta = size
	}

	return Reshuffle(order, blockSize(key, limit, delta))
}

// Reshuffle interleaves order with block, reverses the result of a second
// pass with the fixed column count, and interleaves once more.
func Reshuffle(order []int, block int) []int {
	out := Interleave(Interleave(order, block), columns)
	slices.Reverse(out)

	return Interleave(out, columns)
}

// Interleave reads list as block interleaved columns and concatenates them
// column by column. A non-positive block returns a copy of list.
// list must hold distinct values in [0, len(list)).
func Interleave(list []int, block int) []int {
	if block <= 0 {
		return slices.Clone(list)
	}

	size := len(list)
	rows := (size + block - 1) / block
	seen := make([]bool, size)
	out := make([]int, 0, size)

	for i := 0; i <= block; i++ {
		for j := 0; j <= rows; j++ {
			pos := j*block + i
			if pos >= size || seen[list[pos]] {
				continue
			}

			seen[list[pos]] = true
			out = append(out, list[pos])
		}
	}

	return out
}

// blockSize walks key backwards, reading ASCII digits as their value, and
// accumulates every value above 2 that keeps the sum near limit.
func blockSize(key []byte, limit, delta int) int {
	sum := 0

	for i := len(key) - 1; i >= 0; i-- {
		c := int(key[i])
		if key[i] >= '0' && key[i] <= '9' {
			c = int(key[i] - '0')
		}

		if c > 2 && (limit-delta > c+sum || c+sum < limit+delta) {
			sum += c
		}
	}

	return sum
}
