package domain

import "fmt"

// Side is the aggressive trade direction observed in the market.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return fmt.Sprintf("SIDE(%d)", uint8(s))
	}
}

// ParseSide converts a wire string ("BUY"/"SELL") to a Side.
func ParseSide(s string) (Side, error) {
	switch s {
	case "BUY", "buy":
		return SideBuy, nil
	case "SELL", "sell":
		return SideSell, nil
	default:
		return 0, fmt.Errorf("%w: invalid side %q", ErrValidation, s)
	}
}

// Tick is one aggregated trade observation: volume at a quantized price
// level and timestamp. Immutable once constructed. The side records which
// direction last traded, i.e. which side of the synthetic spread was hit.
type Tick struct {
	TsMs      int64   `json:"ts_ms,string"` // milliseconds, monotonic non-decreasing
	PriceTick int64   `json:"price_tick,string"`
	Qty       float64 `json:"qty"`
	Side      Side    `json:"side"`
}

// Validate rejects non-positive quantities before any state is touched.
func (t Tick) Validate() error {
	if t.Qty <= 0 {
		return fmt.Errorf("%w: tick qty must be positive, got %v", ErrValidation, t.Qty)
	}
	return nil
}
