package safe

import (
	"math"
	"testing"
)

// FuzzAdd checks Add never wraps silently: it either panics or the result
// is consistent with Sub.
func FuzzAdd(f *testing.F) {
	f.Add(int64(0), int64(0))
	f.Add(int64(1), int64(2))
	f.Add(int64(-1), int64(1))
	f.Add(int64(math.MaxInt64), int64(0))
	f.Add(int64(math.MinInt64), int64(0))

	f.Fuzz(func(t *testing.T, a, b int64) {
		defer func() { recover() }() // Overflow panic is expected behavior
		sum := Add(a, b)
		if Sub(sum, b) != a {
			t.Errorf("Add(%d, %d) = %d is not invertible", a, b, sum)
		}
	})
}

// FuzzMulDiv checks the 128-bit path agrees with plain arithmetic whenever
// the naive product fits in int64.
func FuzzMulDiv(f *testing.F) {
	f.Add(int64(100_250_000), int64(1_500_000), int64(1_000_000))
	f.Add(int64(-7), int64(3), int64(2))
	f.Add(int64(0), int64(5), int64(1))

	f.Fuzz(func(t *testing.T, a, b, den int64) {
		if den == 0 {
			return
		}
		defer func() { recover() }()
		got := MulDiv(a, b, den)

		// Cross-check against the overflow-checked slow path when safe.
		if a == 0 || (Abs(a) <= math.MaxInt64/max64(Abs(b), 1)) {
			prod := a * b
			want := prod / den
			rem := prod % den
			if 2*Abs(rem) >= Abs(den) {
				if (prod < 0) != (den < 0) {
					want--
				} else {
					want++
				}
			}
			if got != want {
				t.Errorf("MulDiv(%d, %d, %d) = %d, want %d", a, b, den, got, want)
			}
		}
	})
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
