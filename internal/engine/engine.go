// Package engine implements the backtesting execution kernel: a
// single-threaded state machine that matches trader orders against a
// synthetic market and maintains the position ledger tick by tick.
//
// Determinism contract: every public operation runs to completion in
// caller order. Nothing here is concurrent, and the ledger is never
// exposed by mutable reference — snapshots and histories are copies.
package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/boryxf/ag-kernel/internal/domain"
	"github.com/boryxf/ag-kernel/internal/market"
	"github.com/boryxf/ag-kernel/pkg/quant"
)

// Engine is the shared contract both arithmetic implementations sit behind.
type Engine interface {
	// Reset reinitializes the ledger from initial cash and clears all
	// history. The configuration is untouched.
	Reset()

	// StepTick ingests one tick: updates the synthetic market, fills
	// resting orders, applies fills to the ledger and appends a snapshot.
	StepTick(t domain.Tick) error

	// StepBatch processes parallel arrays in index order. It is an
	// ordering-preserving convenience: the resulting ledger state must be
	// numerically identical to the equivalent StepTick sequence.
	StepBatch(tsMs []int64, priceTicks []int64, qtys []float64, sides []domain.Side) error

	// PlaceOrder queues an order for evaluation on subsequent ticks.
	PlaceOrder(o domain.Order) (int64, error)

	// CancelOrder removes a resting order by id.
	CancelOrder(id int64) error

	// Snapshot returns the current ledger view with equity recomputed.
	Snapshot() domain.Snapshot

	// History returns a copy of the per-tick snapshot history.
	History() []domain.Snapshot

	// Trades returns a copy of the fill records.
	Trades() []domain.FillRecord

	// PrecisionLossCount reports how many boundary quantities were
	// truncated beyond the 6-decimal fixed-point grid. Informational,
	// never fatal.
	PrecisionLossCount() uint64
}

// ledgerCore is the arithmetic strategy: fixed-point int64 or float64.
// Prices and quantities cross this boundary already scaled to micros so
// both implementations observe identical inputs.
type ledgerCore interface {
	reset()

	// applyFill applies one atomic fill and returns notional and fee at
	// the reporting boundary.
	applyFill(price quant.PriceMicros, qty quant.QtyMicros, side domain.Side, taker bool) (notional, fee float64)

	// view materializes the ledger against the given mark price.
	view(last quant.PriceMicros) ledgerView
}

type ledgerView struct {
	Cash          float64
	Position      float64
	AvgEntryPrice float64
	RealizedPnL   float64
	UnrealizedPnL float64
}

type restingOrder struct {
	order domain.Order
	qty   quant.QtyMicros
	limit quant.PriceMicros // tick-grid quantized; 0 for MARKET
}

// kernel drives matching, recording and validation. The arithmetic lives
// behind ledgerCore, selected once at construction.
type kernel struct {
	cfg  Config
	book *market.Book
	core ledgerCore

	resting []restingOrder
	nextID  int64

	history []domain.Snapshot
	trades  []domain.FillRecord

	precisionLoss uint64
}

// New constructs an engine for the given configuration.
func New(cfg Config) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var core ledgerCore
	switch cfg.arithmetic() {
	case ArithmeticFixed:
		core = newFixedLedger(cfg)
	case ArithmeticFloat:
		core = newFloatLedger(cfg)
	}

	k := &kernel{
		cfg:    cfg,
		book:   market.New(cfg.TickSize, cfg.SpreadBps, cfg.SpreadAbs),
		core:   core,
		nextID: 1,
	}
	k.core.reset()
	return k, nil
}

func (k *kernel) Reset() {
	k.core.reset()
	k.book.Reset()
	k.resting = k.resting[:0]
	k.nextID = 1
	k.history = nil
	k.trades = nil
	k.precisionLoss = 0
}

func (k *kernel) StepTick(t domain.Tick) error {
	if err := t.Validate(); err != nil {
		return err
	}
	k.stepTick(t)
	return nil
}

// stepTick is the validated hotpath shared by single-tick and batch mode.
func (k *kernel) stepTick(t domain.Tick) {
	if _, exact := quant.ToQtyMicros(t.Qty); !exact {
		k.notePrecisionLoss("tick qty", t.Qty)
	}

	// 1. Market first: orders fill against the market this tick creates.
	k.book.Update(t)

	// 2. Evaluate resting orders in placement order. Fills are atomic:
	// an order either fills in full or keeps resting.
	kept := k.resting[:0]
	for _, ro := range k.resting {
		fillPrice, ok := k.fillPrice(ro)
		if !ok {
			kept = append(kept, ro)
			continue
		}

		taker := ro.order.Type == domain.OrderMarket
		notional, fee := k.core.applyFill(fillPrice, ro.qty, ro.order.Side, taker)
		k.trades = append(k.trades, domain.FillRecord{
			OrderID:  ro.order.ID,
			TsMs:     t.TsMs,
			Type:     ro.order.Type,
			Side:     ro.order.Side,
			Price:    fillPrice.Float(),
			Qty:      ro.qty.Float(),
			Notional: notional,
			Fee:      fee,
		})
		slog.Debug("FILL",
			slog.Int64("order_id", ro.order.ID),
			slog.String("side", ro.order.Side.String()),
			slog.String("price", fillPrice.String()),
			slog.String("qty", ro.qty.String()))
	}
	k.resting = kept

	// 3. Snapshot after the tick is fully processed.
	k.history = append(k.history, k.snapshotAt(t.TsMs))
}

// fillPrice decides whether a resting order fills against the current
// synthetic market, and at what price.
//
// MARKET orders fill at the relevant side of the spread: buys lift the
// ask, sells hit the bid. LIMIT orders fill at their limit price when the
// market crosses it — conservative: never at the (better) synthetic price.
func (k *kernel) fillPrice(ro restingOrder) (quant.PriceMicros, bool) {
	switch ro.order.Type {
	case domain.OrderMarket:
		if ro.order.Side == domain.SideBuy {
			return k.book.BestAsk(), true
		}
		return k.book.BestBid(), true

	case domain.OrderLimit:
		if ro.order.Side == domain.SideBuy {
			if k.book.BestAsk() <= ro.limit {
				return ro.limit, true
			}
		} else {
			if k.book.BestBid() >= ro.limit {
				return ro.limit, true
			}
		}
	}
	return 0, false
}

func (k *kernel) StepBatch(tsMs []int64, priceTicks []int64, qtys []float64, sides []domain.Side) error {
	n := len(tsMs)
	if len(priceTicks) != n || len(qtys) != n || len(sides) != n {
		return fmt.Errorf("%w: batch length mismatch: ts=%d price_ticks=%d qtys=%d sides=%d",
			domain.ErrValidation, n, len(priceTicks), len(qtys), len(sides))
	}

	// Validate the whole batch up front: a public operation mutates
	// either completely or not at all.
	for i := 0; i < n; i++ {
		if qtys[i] <= 0 {
			return fmt.Errorf("%w: batch qty at index %d must be positive, got %v",
				domain.ErrValidation, i, qtys[i])
		}
		if sides[i] != domain.SideBuy && sides[i] != domain.SideSell {
			return fmt.Errorf("%w: batch side at index %d is invalid", domain.ErrValidation, i)
		}
	}

	for i := 0; i < n; i++ {
		k.stepTick(domain.Tick{TsMs: tsMs[i], PriceTick: priceTicks[i], Qty: qtys[i], Side: sides[i]})
	}
	return nil
}

func (k *kernel) PlaceOrder(o domain.Order) (int64, error) {
	if err := o.Validate(); err != nil {
		return 0, err
	}

	qty, exact := quant.ToQtyMicros(o.Qty)
	if !exact {
		k.notePrecisionLoss("order qty", o.Qty)
	}

	var limit quant.PriceMicros
	if o.Type == domain.OrderLimit {
		// Quantize the limit to the tick grid, like every other price in
		// the kernel.
		ticks := int64(math.Round(o.LimitPrice / k.cfg.TickSize))
		limit = quant.PriceMicros(ticks * k.book.TickSizeMicros())
	}

	if o.ID == 0 {
		o.ID = k.nextID
		k.nextID++
	} else if o.ID >= k.nextID {
		// Keep auto-assignment ahead of caller-supplied ids so a later
		// auto id can never collide with an explicit one.
		k.nextID = o.ID + 1
	}

	k.resting = append(k.resting, restingOrder{order: o, qty: qty, limit: limit})
	return o.ID, nil
}

func (k *kernel) CancelOrder(id int64) error {
	for i, ro := range k.resting {
		if ro.order.ID == id {
			k.resting = append(k.resting[:i], k.resting[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: no resting order with id %d", domain.ErrValidation, id)
}

func (k *kernel) Snapshot() domain.Snapshot {
	return k.snapshotAt(k.book.LastTsMs())
}

func (k *kernel) snapshotAt(tsMs int64) domain.Snapshot {
	v := k.core.view(k.book.LastPrice())
	return domain.Snapshot{
		TsMs:          tsMs,
		Cash:          v.Cash,
		Position:      v.Position,
		AvgEntryPrice: v.AvgEntryPrice,
		RealizedPnL:   v.RealizedPnL,
		UnrealizedPnL: v.UnrealizedPnL,
		Equity:        v.Cash + v.UnrealizedPnL,
	}
}

func (k *kernel) History() []domain.Snapshot {
	out := make([]domain.Snapshot, len(k.history))
	copy(out, k.history)
	return out
}

func (k *kernel) Trades() []domain.FillRecord {
	out := make([]domain.FillRecord, len(k.trades))
	copy(out, k.trades)
	return out
}

func (k *kernel) PrecisionLossCount() uint64 { return k.precisionLoss }

func (k *kernel) notePrecisionLoss(what string, v float64) {
	k.precisionLoss++
	slog.Warn("PRECISION_LOSS",
		slog.String("field", what),
		slog.Float64("value", v),
		slog.Uint64("total", k.precisionLoss))
}
