// Package sizing provides overflow-safe offset arithmetic.
package sizing

import "math"

// AddOffset adds a byte count to a non-negative stream offset,
// returning (result, false) on overflow or a negative offset.
func AddOffset(off int64, n uint64) (int64, bool) {
	if off < 0 || n > uint64(math.MaxInt64-off) {
		return 0, false
	}
	return off + int64(n), true
}

// Within reports whether the range [off, off+n) lies inside a stream of the given size.
func Within(off int64, n uint64, size int64) bool {
	end, ok := AddOffset(off, n)
	return ok && end <= size
}
