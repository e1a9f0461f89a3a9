package strategy

import (
	"github.com/boryxf/ag-kernel/internal/domain"
)

// Strategy is the trading logic driven by the replayer. Implementations
// are stateful and deterministic: the same tick sequence must produce the
// same orders.
type Strategy interface {
	// OnTick is called once per replayed tick with the mark price in
	// micros. Returned orders are placed before the next tick.
	OnTick(tsMs int64, lastMicros int64) []domain.Order

	// OnFill is called for every fill the engine produced on the tick.
	OnFill(f domain.FillRecord)
}
