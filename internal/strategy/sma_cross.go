package strategy

import (
	"github.com/boryxf/ag-kernel/internal/domain"
	"github.com/boryxf/ag-kernel/pkg/safe"
)

// SMACross implements a simple SMA crossover strategy over micro-scaled
// prices. It is stateful and deterministic, and uses a ring buffer so the
// hotpath allocates only when it emits an order.
type SMACross struct {
	shortPeriod int
	longPeriod  int
	orderQty    float64

	// ring buffer state
	prices []int64
	head   int   // next write position
	count  int   // elements filled
	sum    int64 // running sum over the long window

	prevShortSMA int64
	prevLongSMA  int64
}

// NewSMACross creates a crossover strategy emitting market orders of
// orderQty on each cross.
func NewSMACross(shortPeriod, longPeriod int, orderQty float64) *SMACross {
	if shortPeriod >= longPeriod {
		panic("SMACross: shortPeriod must be less than longPeriod")
	}
	return &SMACross{
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
		orderQty:    orderQty,
		prices:      make([]int64, longPeriod),
	}
}

// OnTick updates the moving averages and emits an order when the short
// average crosses the long one.
func (s *SMACross) OnTick(tsMs int64, lastMicros int64) []domain.Order {
	// When full, s.head points at the oldest value; retire it from the
	// running sum before overwriting.
	if s.count == s.longPeriod {
		s.sum = safe.Sub(s.sum, s.prices[s.head])
	}

	s.prices[s.head] = lastMicros
	s.sum = safe.Add(s.sum, lastMicros)
	s.head = (s.head + 1) % s.longPeriod

	if s.count < s.longPeriod {
		s.count++
	}
	if s.count < s.longPeriod {
		return nil
	}

	currLongSMA := safe.Div(s.sum, int64(s.longPeriod))
	currShortSMA := s.shortSMA()

	var orders []domain.Order
	if s.prevShortSMA != 0 && s.prevLongSMA != 0 {
		// Golden cross: short rises above long.
		if s.prevShortSMA <= s.prevLongSMA && currShortSMA > currLongSMA {
			orders = append(orders, domain.Order{
				Type: domain.OrderMarket,
				Side: domain.SideBuy,
				Qty:  s.orderQty,
			})
		}
		// Dead cross: short falls below long.
		if s.prevShortSMA >= s.prevLongSMA && currShortSMA < currLongSMA {
			orders = append(orders, domain.Order{
				Type: domain.OrderMarket,
				Side: domain.SideSell,
				Qty:  s.orderQty,
			})
		}
	}

	s.prevShortSMA = currShortSMA
	s.prevLongSMA = currLongSMA
	return orders
}

// OnFill is a no-op: the crossover signal carries no position awareness.
func (s *SMACross) OnFill(domain.FillRecord) {}

// shortSMA walks the ring buffer backwards from the latest write.
func (s *SMACross) shortSMA() int64 {
	var sum int64
	idx := s.head
	for i := 0; i < s.shortPeriod; i++ {
		idx--
		if idx < 0 {
			idx = s.longPeriod - 1
		}
		sum = safe.Add(sum, s.prices[idx])
	}
	return safe.Div(sum, int64(s.shortPeriod))
}
