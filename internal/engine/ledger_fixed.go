package engine

import (
	"github.com/boryxf/ag-kernel/internal/domain"
	"github.com/boryxf/ag-kernel/pkg/quant"
	"github.com/boryxf/ag-kernel/pkg/safe"
)

const ppmScale = 1_000_000 // fee rates carried as parts-per-million

// fixedLedger is the int64-micros ledger. All cash, notional, fee and PnL
// arithmetic happens on the fixed-point grid so arbitrarily long tick
// sequences reproduce bit-for-bit. Float64 exists only in view().
type fixedLedger struct {
	initialCash quant.CashMicros
	makerFeePpm int64
	takerFeePpm int64

	cash     quant.CashMicros
	position quant.QtyMicros // signed: +long / -short
	avgEntry quant.PriceMicros
	realized quant.CashMicros
}

func newFixedLedger(cfg Config) *fixedLedger {
	return &fixedLedger{
		initialCash: quant.ToCashMicros(cfg.InitialCash),
		makerFeePpm: int64(quant.ToCashMicros(cfg.MakerFee)), // fraction * 1e6 = ppm
		takerFeePpm: int64(quant.ToCashMicros(cfg.TakerFee)),
	}
}

func (l *fixedLedger) reset() {
	l.cash = l.initialCash
	l.position = 0
	l.avgEntry = 0
	l.realized = 0
}

func (l *fixedLedger) applyFill(price quant.PriceMicros, qty quant.QtyMicros, side domain.Side, taker bool) (float64, float64) {
	notional := quant.CashMicros(safe.MulDiv(int64(price), int64(qty), quant.Scale))

	feePpm := l.makerFeePpm
	if taker {
		feePpm = l.takerFeePpm
	}
	fee := quant.CashMicros(safe.MulDiv(int64(notional), feePpm, ppmScale))

	// Fees are a cash drag only. Realized PnL stays gross of fees;
	// deducting them twice was the historical double-count defect.
	signedQty := int64(qty)
	if side == domain.SideSell {
		signedQty = -signedQty
		l.cash = quant.CashMicros(safe.Add(int64(l.cash), safe.Sub(int64(notional), int64(fee))))
	} else {
		l.cash = quant.CashMicros(safe.Sub(int64(l.cash), safe.Add(int64(notional), int64(fee))))
	}

	oldPos := int64(l.position)
	newPos := safe.Add(oldPos, signedQty)

	switch {
	case oldPos == 0:
		// Opening from flat.
		l.avgEntry = price

	case (oldPos > 0) == (signedQty > 0):
		// Adding to the position: blend the entry as a qty-weighted
		// average, computed incrementally to stay inside int64.
		delta := safe.MulDiv(safe.Sub(int64(price), int64(l.avgEntry)), int64(qty), safe.Abs(newPos))
		l.avgEntry = quant.PriceMicros(safe.Add(int64(l.avgEntry), delta))

	default:
		// Reducing or flipping: realize PnL on the closed portion only.
		closed := int64(qty)
		if safe.Abs(oldPos) < closed {
			closed = safe.Abs(oldPos)
		}

		perUnit := safe.Sub(int64(price), int64(l.avgEntry))
		if oldPos < 0 {
			perUnit = -perUnit
		}
		l.realized = quant.CashMicros(safe.Add(int64(l.realized), safe.MulDiv(perUnit, closed, quant.Scale)))

		if newPos == 0 {
			l.avgEntry = 0
		} else if (oldPos > 0) != (newPos > 0) {
			// Flip: the excess opens the opposite position at fill price.
			l.avgEntry = price
		}
	}

	l.position = quant.QtyMicros(newPos)
	return notional.Float(), fee.Float()
}

func (l *fixedLedger) view(last quant.PriceMicros) ledgerView {
	var upnl quant.CashMicros
	if l.position != 0 {
		upnl = quant.CashMicros(safe.MulDiv(safe.Sub(int64(last), int64(l.avgEntry)), int64(l.position), quant.Scale))
	}
	return ledgerView{
		Cash:          l.cash.Float(),
		Position:      l.position.Float(),
		AvgEntryPrice: l.avgEntry.Float(),
		RealizedPnL:   l.realized.Float(),
		UnrealizedPnL: upnl.Float(),
	}
}
