package kdtree

// MedianSplit reorders idx[from:to] so that every element left of the returned
// split index is not greater than any element at or right of it, with
// split = from + (to-from)/2. less compares element values, not positions.
//
// It is an exact selection (three-way quickselect), so duplicate-heavy inputs
// stay linear on average and the split always halves the range.
func MedianSplit(idx []int, from, to int, less func(a, b int) bool) int {
	k := from + (to-from)/2
	lo, hi := from, to-1
	for lo < hi {
		lt, gt := partition3(idx, lo, hi, less)
		switch {
		case k < lt:
			hi = lt - 1
		case k > gt:
			lo = gt + 1
		default:
			return k
		}
	}
	return k
}

// partition3 partitions idx[lo:hi+1] around a median-of-three pivot into
// [< pivot | == pivot | > pivot] and returns the bounds of the middle block.
func partition3(idx []int, lo, hi int, less func(a, b int) bool) (int, int) {
	pivot := idx[medianOfThree(idx, lo, lo+(hi-lo)/2, hi, less)]

	lt, i, gt := lo, lo, hi
	for i <= gt {
		switch {
		case less(idx[i], pivot):
			idx[lt], idx[i] = idx[i], idx[lt]
			lt++
			i++
		case less(pivot, idx[i]):
			idx[i], idx[gt] = idx[gt], idx[i]
			gt--
		default:
			i++
		}
	}
	return lt, gt
}

func medianOfThree(idx []int, a, b, c int, less func(a, b int) bool) int {
	if less(idx[b], idx[a]) {
		a, b = b, a
	}
	if less(idx[c], idx[b]) {
		b = c
		if less(idx[b], idx[a]) {
			b = a
		}
	}
	return b
}
