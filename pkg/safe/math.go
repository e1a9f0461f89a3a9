// Package safe provides overflow-checked int64 arithmetic for the
// fixed-point ledger. A silent wraparound would corrupt financial totals,
// so every violation panics loudly with a CAPS tag the runner can dump on.
package safe

import (
	"math"
	"math/bits"
)

// Add performs int64 addition and panics on overflow/underflow.
func Add(a, b int64) int64 {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		panic("LEDGER_ADD_OVERFLOW")
	}
	return a + b
}

// Sub performs int64 subtraction and panics on overflow/underflow.
func Sub(a, b int64) int64 {
	if (b > 0 && a < math.MinInt64+b) || (b < 0 && a > math.MaxInt64+b) {
		panic("LEDGER_SUB_OVERFLOW")
	}
	return a - b
}

// Mul performs int64 multiplication and panics on overflow/underflow.
func Mul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > 0 {
		if b > 0 {
			if a > math.MaxInt64/b {
				panic("LEDGER_MUL_OVERFLOW")
			}
		} else {
			if b < math.MinInt64/a {
				panic("LEDGER_MUL_OVERFLOW")
			}
		}
	} else {
		if b > 0 {
			if a < math.MinInt64/b {
				panic("LEDGER_MUL_OVERFLOW")
			}
		} else {
			if a < math.MaxInt64/b {
				panic("LEDGER_MUL_OVERFLOW")
			}
		}
	}
	return a * b
}

// Div performs int64 division and panics on division by zero.
func Div(a, b int64) int64 {
	if b == 0 {
		panic("LEDGER_DIV_BY_ZERO")
	}
	if a == math.MinInt64 && b == -1 {
		panic("LEDGER_DIV_OVERFLOW")
	}
	return a / b
}

// MulDiv computes a*b/den with a 128-bit intermediate, rounding the
// quotient half away from zero. This is the workhorse for notional and
// PnL terms (priceMicros * qtyMicros / Scale), where the plain product
// can exceed int64 even though the result fits comfortably.
func MulDiv(a, b, den int64) int64 {
	if den == 0 {
		panic("LEDGER_DIV_BY_ZERO")
	}

	neg := false
	ua, ub, uden := uint64(a), uint64(b), uint64(den)
	if a < 0 {
		neg = !neg
		ua = uint64(-a)
	}
	if b < 0 {
		neg = !neg
		ub = uint64(-b)
	}
	if den < 0 {
		neg = !neg
		uden = uint64(-den)
	}

	hi, lo := bits.Mul64(ua, ub)
	if hi >= uden {
		panic("LEDGER_MULDIV_OVERFLOW")
	}
	quo, rem := bits.Div64(hi, lo, uden)

	// Round half away from zero.
	if rem*2 >= uden {
		quo++
	}

	if neg {
		if quo > uint64(math.MaxInt64)+1 {
			panic("LEDGER_MULDIV_OVERFLOW")
		}
		return -int64(quo)
	}
	if quo > uint64(math.MaxInt64) {
		panic("LEDGER_MULDIV_OVERFLOW")
	}
	return int64(quo)
}

// Abs returns |a| and panics on MinInt64, which has no positive twin.
func Abs(a int64) int64 {
	if a == math.MinInt64 {
		panic("LEDGER_ABS_OVERFLOW")
	}
	if a < 0 {
		return -a
	}
	return a
}
