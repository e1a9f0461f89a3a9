package engine

import (
	"math"

	"github.com/boryxf/ag-kernel/internal/domain"
	"github.com/boryxf/ag-kernel/pkg/quant"
)

// floatLedger is the float64 reference implementation of the ledger
// contract. It mirrors fixedLedger operation for operation and exists to
// cross-check the fixed-point kernel; both are driven through the same
// matching code and see identical micro-scaled inputs.
type floatLedger struct {
	initialCash float64
	makerFee    float64
	takerFee    float64

	cash     float64
	position float64
	avgEntry float64
	realized float64
}

func newFloatLedger(cfg Config) *floatLedger {
	return &floatLedger{
		initialCash: cfg.InitialCash,
		makerFee:    cfg.MakerFee,
		takerFee:    cfg.TakerFee,
	}
}

func (l *floatLedger) reset() {
	l.cash = l.initialCash
	l.position = 0
	l.avgEntry = 0
	l.realized = 0
}

func (l *floatLedger) applyFill(price quant.PriceMicros, qty quant.QtyMicros, side domain.Side, taker bool) (float64, float64) {
	p := price.Float()
	q := qty.Float()
	notional := p * q

	fee := notional * l.makerFee
	if taker {
		fee = notional * l.takerFee
	}

	signedQty := q
	if side == domain.SideSell {
		signedQty = -q
		l.cash += notional - fee
	} else {
		l.cash -= notional + fee
	}

	oldPos := l.position
	newPos := oldPos + signedQty

	switch {
	case oldPos == 0:
		l.avgEntry = p

	case (oldPos > 0) == (signedQty > 0):
		l.avgEntry = (l.avgEntry*math.Abs(oldPos) + p*q) / (math.Abs(oldPos) + q)

	default:
		closed := math.Min(q, math.Abs(oldPos))
		perUnit := p - l.avgEntry
		if oldPos < 0 {
			perUnit = -perUnit
		}
		l.realized += perUnit * closed

		if newPos == 0 {
			l.avgEntry = 0
		} else if (oldPos > 0) != (newPos > 0) {
			l.avgEntry = p
		}
	}

	l.position = newPos
	return notional, fee
}

func (l *floatLedger) view(last quant.PriceMicros) ledgerView {
	var upnl float64
	if l.position != 0 {
		upnl = l.position * (last.Float() - l.avgEntry)
	}
	return ledgerView{
		Cash:          l.cash,
		Position:      l.position,
		AvgEntryPrice: l.avgEntry,
		RealizedPnL:   l.realized,
		UnrealizedPnL: upnl,
	}
}
