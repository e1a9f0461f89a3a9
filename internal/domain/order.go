package domain

import "fmt"

// OrderType distinguishes aggressive (MARKET) from resting (LIMIT) orders.
type OrderType uint8

const (
	OrderMarket OrderType = iota
	OrderLimit
)

func (ot OrderType) String() string {
	switch ot {
	case OrderMarket:
		return "MARKET"
	case OrderLimit:
		return "LIMIT"
	default:
		return fmt.Sprintf("ORDER(%d)", uint8(ot))
	}
}

// ParseOrderType converts a wire string ("MARKET"/"LIMIT") to an OrderType.
func ParseOrderType(s string) (OrderType, error) {
	switch s {
	case "MARKET", "market":
		return OrderMarket, nil
	case "LIMIT", "limit":
		return OrderLimit, nil
	default:
		return 0, fmt.Errorf("%w: invalid order type %q", ErrValidation, s)
	}
}

// Order is a trader request evaluated against the synthetic market on
// subsequent ticks. Orders are atomic units: each either fills in full or
// keeps resting. There is no partial-fill state.
type Order struct {
	ID         int64     `json:"id,string"` // 0 lets the engine auto-assign
	Type       OrderType `json:"type"`
	Side       Side      `json:"side"`
	Qty        float64   `json:"qty"`
	LimitPrice float64   `json:"limit_price,omitempty"` // required for LIMIT, ignored for MARKET
}

// Validate rejects malformed orders at placement, before queueing.
func (o Order) Validate() error {
	if o.Qty <= 0 {
		return fmt.Errorf("%w: order qty must be positive, got %v", ErrValidation, o.Qty)
	}
	if o.Type == OrderLimit && o.LimitPrice <= 0 {
		return fmt.Errorf("%w: limit order requires a positive limit price", ErrValidation)
	}
	return nil
}
