package kdtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// permutations calls fn with every permutation of [0, n).
func permutations(n int, fn func([]int)) {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	var rec func(k int)
	rec = func(k int) {
		if k == n {
			fn(append([]int(nil), p...))
			return
		}
		for i := k; i < n; i++ {
			p[k], p[i] = p[i], p[k]
			rec(k + 1)
			p[k], p[i] = p[i], p[k]
		}
	}
	rec(0)
}

func TestMedianSplit_AllPermutations(t *testing.T) {
	for size := 0; size <= 7; size++ {
		// Dividing values collapses neighbours into duplicates.
		for divisor := 1; divisor <= size+1; divisor++ {
			permutations(size, func(perm []int) {
				values := make([]int, size)
				for i, v := range perm {
					values[i] = v / divisor
				}
				less := func(a, b int) bool { return values[a] < values[b] }

				// Embed in a larger slice to exercise from/to offsets.
				idx := make([]int, size+2)
				for i := range idx {
					idx[i] = -1
				}
				for i := 0; i < size; i++ {
					idx[i+1] = i
				}
				from, to := 1, size+1

				split := MedianSplit(idx, from, to, less)

				require.Equal(t, (to-from)/2, min(split-from, to-split), "size=%d divisor=%d perm=%v", size, divisor, perm)
				for l := from; l < split; l++ {
					for r := split; r < to; r++ {
						require.False(t, less(idx[r], idx[l]), "size=%d divisor=%d perm=%v idx=%v", size, divisor, perm, idx)
					}
				}

				// Untouched borders and a permutation of the input.
				require.Equal(t, -1, idx[0])
				require.Equal(t, -1, idx[size+1])
				seen := make([]bool, size)
				for _, v := range idx[from:to] {
					require.False(t, seen[v])
					seen[v] = true
				}
			})
		}
	}
}

func TestMedianSplit_AllEqual(t *testing.T) {
	idx := make([]int, 1001)
	for i := range idx {
		idx[i] = i
	}
	split := MedianSplit(idx, 0, len(idx), func(a, b int) bool { return false })
	require.Equal(t, 500, split)
}
