// Package market maintains the synthetic one-level market the matcher
// fills against. No depth is modeled: liquidity is assumed infinite at the
// synthetic bid/ask derived from the last traded price and the configured
// spread.
package market

import (
	"github.com/boryxf/ag-kernel/internal/domain"
	"github.com/boryxf/ag-kernel/pkg/quant"
	"github.com/boryxf/ag-kernel/pkg/safe"
)

const centiBpsScale = 1_000_000 // spread in centi-bps: value/100 bps, /10_000 fraction

// Book derives (best bid, best ask) from the latest tick. All prices are
// fixed-point micros so both engine arithmetics observe the same market.
type Book struct {
	tickSizeMicros int64
	spreadAbs      quant.PriceMicros // used when hasSpreadAbs
	spreadCentiBps int64
	hasSpreadAbs   bool

	lastTsMs int64
	last     quant.PriceMicros
	bid      quant.PriceMicros
	ask      quant.PriceMicros
	lastSide domain.Side
	primed   bool
}

// New builds a book for the given tick size and spread model. A non-nil
// spreadAbs overrides spreadBps.
func New(tickSize, spreadBps float64, spreadAbs *float64) *Book {
	b := &Book{
		tickSizeMicros: int64(quant.ToPriceMicros(tickSize)),
		spreadCentiBps: int64(quant.ToPriceMicros(spreadBps)) / 10_000, // bps with 2 decimals
	}
	if spreadAbs != nil {
		b.spreadAbs = quant.ToPriceMicros(*spreadAbs)
		b.hasSpreadAbs = true
	}
	return b
}

// Update recomputes last price and the synthetic spread from a tick.
// Must run before matching is attempted for that tick.
func (b *Book) Update(t domain.Tick) {
	b.lastTsMs = t.TsMs
	b.last = quant.PriceMicros(safe.Mul(t.PriceTick, b.tickSizeMicros))
	b.lastSide = t.Side

	var spread int64
	if b.hasSpreadAbs {
		spread = int64(b.spreadAbs)
	} else {
		spread = safe.MulDiv(int64(b.last), b.spreadCentiBps, centiBpsScale)
	}

	half := spread / 2
	b.bid = b.last - quant.PriceMicros(half)
	b.ask = b.last + quant.PriceMicros(half)
	b.primed = true
}

// Reset clears the market state without touching the spread configuration.
func (b *Book) Reset() {
	b.lastTsMs = 0
	b.last, b.bid, b.ask = 0, 0, 0
	b.lastSide = domain.SideBuy
	b.primed = false
}

// Primed reports whether at least one tick has been observed. Orders can
// only fill against a primed book.
func (b *Book) Primed() bool { return b.primed }

// LastPrice returns the last traded price (price_tick * tick_size).
func (b *Book) LastPrice() quant.PriceMicros { return b.last }

// BestBid returns the synthetic best bid.
func (b *Book) BestBid() quant.PriceMicros { return b.bid }

// BestAsk returns the synthetic best ask.
func (b *Book) BestAsk() quant.PriceMicros { return b.ask }

// LastSide returns which side of the spread last traded.
func (b *Book) LastSide() domain.Side { return b.lastSide }

// LastTsMs returns the timestamp of the last observed tick.
func (b *Book) LastTsMs() int64 { return b.lastTsMs }

// TickSizeMicros exposes the price increment for order price scaling.
func (b *Book) TickSizeMicros() int64 { return b.tickSizeMicros }
