package quant

import (
	"fmt"
	"math"
)

// PriceMicros represents a price multiplied by 1,000,000 (10^6).
// E.g., 100.25 USD = 100,250,000 PriceMicros.
type PriceMicros int64

// QtyMicros represents a quantity multiplied by 1,000,000 (10^6).
// E.g., 1.5 units = 1,500,000 QtyMicros.
type QtyMicros int64

// CashMicros represents a cash amount multiplied by 1,000,000 (10^6).
// All ledger arithmetic (cash, notional, fees) is done in CashMicros.
type CashMicros int64

// Scale is the fixed-point factor shared by all micro types.
// Six decimal digits is the precision ceiling of the whole kernel:
// finer input is truncated at the boundary, never inside the ledger.
const Scale = 1_000_000

// ToPriceMicros converts a float64 to PriceMicros, rounding half away
// from zero. Only used at the boundary; internal logic stays in micros.
func ToPriceMicros(f float64) PriceMicros {
	return PriceMicros(math.Round(f * Scale))
}

// ToQtyMicros converts a float64 quantity to QtyMicros. Values on the
// 6-decimal grid convert exactly; anything finer is truncated toward
// zero — never rounded up past the precision ceiling. The second return
// reports exactness: false means digits were dropped, and callers must
// surface that loss (counter or log), not swallow it.
func ToQtyMicros(f float64) (QtyMicros, bool) {
	scaled := f * Scale
	// The rounded candidate only wins if it reproduces the input, i.e.
	// the value really sits on the grid and the product just carried
	// float noise.
	if r := QtyMicros(math.Round(scaled)); float64(r)/Scale == f {
		return r, true
	}
	return QtyMicros(math.Trunc(scaled)), false
}

// ToCashMicros converts a float64 cash amount to CashMicros.
func ToCashMicros(f float64) CashMicros {
	return CashMicros(math.Round(f * Scale))
}

// Float returns the price as a float64. Reporting boundary only.
func (p PriceMicros) Float() float64 { return float64(p) / Scale }

// Float returns the quantity as a float64. Reporting boundary only.
func (q QtyMicros) Float() float64 { return float64(q) / Scale }

// Float returns the cash amount as a float64. Reporting boundary only.
func (c CashMicros) Float() float64 { return float64(c) / Scale }

func (p PriceMicros) String() string { return fmt.Sprintf("%.6f", p.Float()) }
func (q QtyMicros) String() string   { return fmt.Sprintf("%.6f", q.Float()) }
func (c CashMicros) String() string  { return fmt.Sprintf("%.6f", c.Float()) }
