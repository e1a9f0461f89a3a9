// Package feed captures live trade streams over websocket and quantizes
// them onto the tick grid for later replay.
package feed

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/boryxf/ag-kernel/internal/domain"
)

// tradeMessage is the wire shape of one trade event. Price and qty arrive
// as strings and are parsed with decimal arithmetic; float64 parsing of
// exchange payloads is how precision bugs get in.
type tradeMessage struct {
	TsMs  int64  `json:"ts"`
	Price string `json:"price"`
	Qty   string `json:"qty"`
	Side  string `json:"side"`
}

// parseTrade converts one raw trade message into a tick. The price is
// snapped to the nearest grid level; the remainder is the exchange's
// problem, not ours.
func parseTrade(raw []byte, tickSize decimal.Decimal) (domain.Tick, error) {
	var m tradeMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return domain.Tick{}, fmt.Errorf("malformed trade message: %w", err)
	}

	price, err := decimal.NewFromString(m.Price)
	if err != nil {
		return domain.Tick{}, fmt.Errorf("bad trade price %q: %w", m.Price, err)
	}
	qty, err := decimal.NewFromString(m.Qty)
	if err != nil {
		return domain.Tick{}, fmt.Errorf("bad trade qty %q: %w", m.Qty, err)
	}
	side, err := domain.ParseSide(m.Side)
	if err != nil {
		return domain.Tick{}, err
	}

	if !qty.IsPositive() {
		return domain.Tick{}, fmt.Errorf("%w: trade qty must be positive, got %s", domain.ErrValidation, qty)
	}

	priceTick := price.Div(tickSize).Round(0).IntPart()
	qtyF, _ := qty.Float64()

	return domain.Tick{
		TsMs:      m.TsMs,
		PriceTick: priceTick,
		Qty:       qtyF,
		Side:      side,
	}, nil
}
