package engine

import (
	"math"
	"testing"

	"github.com/boryxf/ag-kernel/internal/domain"
)

func TestLedger_FeeHitsCashOnce(t *testing.T) {
	for _, mode := range []Arithmetic{ArithmeticFixed, ArithmeticFloat} {
		t.Run(string(mode), func(t *testing.T) {
			cfg := testConfig()
			cfg.Arithmetic = mode
			e := mustNew(t, cfg)

			step(t, e, 1000, 10000) // last = 100.00, zero spread
			if _, err := e.PlaceOrder(domain.Order{Type: domain.OrderMarket, Side: domain.SideBuy, Qty: 1.0}); err != nil {
				t.Fatal(err)
			}
			step(t, e, 1001, 10000)

			// 10000 - 100 notional - 0.02 taker fee.
			snap := e.Snapshot()
			if math.Abs(snap.Cash-9899.98) > 1e-9 {
				t.Errorf("cash = %v, want 9899.98", snap.Cash)
			}
			// The fee is a cash drag, never PnL.
			if snap.RealizedPnL != 0 {
				t.Errorf("realized = %v, want 0", snap.RealizedPnL)
			}
		})
	}
}

func TestLedger_FlatRoundTripRealizesZero(t *testing.T) {
	for _, mode := range []Arithmetic{ArithmeticFixed, ArithmeticFloat} {
		t.Run(string(mode), func(t *testing.T) {
			cfg := testConfig()
			cfg.Arithmetic = mode
			e := mustNew(t, cfg)

			step(t, e, 1000, 10000)
			if _, err := e.PlaceOrder(domain.Order{Type: domain.OrderMarket, Side: domain.SideBuy, Qty: 1.0}); err != nil {
				t.Fatal(err)
			}
			step(t, e, 1001, 10000)
			if _, err := e.PlaceOrder(domain.Order{Type: domain.OrderMarket, Side: domain.SideSell, Qty: 1.0}); err != nil {
				t.Fatal(err)
			}
			step(t, e, 1002, 10000)

			snap := e.Snapshot()
			if snap.Position != 0 {
				t.Fatalf("position = %v, want flat", snap.Position)
			}
			if snap.RealizedPnL != 0 {
				t.Errorf("realized = %v, want exactly 0 at unchanged price", snap.RealizedPnL)
			}
			// Only the two taker fees left the account: 2 * 100 * 0.0002.
			if math.Abs(snap.Cash-9999.96) > 1e-9 {
				t.Errorf("cash = %v, want 9999.96", snap.Cash)
			}
			if snap.AvgEntryPrice != 0 {
				t.Errorf("avg entry = %v, want 0 when flat", snap.AvgEntryPrice)
			}
		})
	}
}

func TestLedger_Flip(t *testing.T) {
	for _, mode := range []Arithmetic{ArithmeticFixed, ArithmeticFloat} {
		t.Run(string(mode), func(t *testing.T) {
			cfg := testConfig()
			cfg.Arithmetic = mode
			e := mustNew(t, cfg)

			step(t, e, 1000, 10000) // 100.00
			if _, err := e.PlaceOrder(domain.Order{Type: domain.OrderMarket, Side: domain.SideBuy, Qty: 1.0}); err != nil {
				t.Fatal(err)
			}
			step(t, e, 1001, 10000)

			// Sell 2.0 at a higher price: close the long, open a 1.0 short.
			if _, err := e.PlaceOrder(domain.Order{Type: domain.OrderMarket, Side: domain.SideSell, Qty: 2.0}); err != nil {
				t.Fatal(err)
			}
			step(t, e, 1002, 11000) // 110.00

			snap := e.Snapshot()
			if snap.Position != -1.0 {
				t.Errorf("position = %v, want -1.0 after flip", snap.Position)
			}
			if math.Abs(snap.RealizedPnL-10.0) > 1e-9 {
				t.Errorf("realized = %v, want 10.0 on the closed unit", snap.RealizedPnL)
			}
			// The short leg carries the flip fill price as its entry.
			if snap.AvgEntryPrice != 110.0 {
				t.Errorf("avg entry = %v, want 110.0", snap.AvgEntryPrice)
			}
			if snap.UnrealizedPnL != 0 {
				t.Errorf("upnl = %v, want 0 at entry", snap.UnrealizedPnL)
			}
		})
	}
}

func TestLedger_BlendedAverageEntry(t *testing.T) {
	for _, mode := range []Arithmetic{ArithmeticFixed, ArithmeticFloat} {
		t.Run(string(mode), func(t *testing.T) {
			cfg := testConfig()
			cfg.Arithmetic = mode
			e := mustNew(t, cfg)

			step(t, e, 1000, 10000)
			if _, err := e.PlaceOrder(domain.Order{Type: domain.OrderMarket, Side: domain.SideBuy, Qty: 1.0}); err != nil {
				t.Fatal(err)
			}
			step(t, e, 1001, 10000) // buy 1.0 @ 100

			if _, err := e.PlaceOrder(domain.Order{Type: domain.OrderMarket, Side: domain.SideBuy, Qty: 3.0}); err != nil {
				t.Fatal(err)
			}
			step(t, e, 1002, 12000) // buy 3.0 @ 120

			// (1*100 + 3*120) / 4 = 115.
			snap := e.Snapshot()
			if math.Abs(snap.AvgEntryPrice-115.0) > 1e-6 {
				t.Errorf("avg entry = %v, want 115.0", snap.AvgEntryPrice)
			}
			if snap.Position != 4.0 {
				t.Errorf("position = %v, want 4.0", snap.Position)
			}
		})
	}
}

func TestLedger_PartialReduceKeepsEntry(t *testing.T) {
	for _, mode := range []Arithmetic{ArithmeticFixed, ArithmeticFloat} {
		t.Run(string(mode), func(t *testing.T) {
			cfg := testConfig()
			cfg.Arithmetic = mode
			e := mustNew(t, cfg)

			step(t, e, 1000, 10000)
			if _, err := e.PlaceOrder(domain.Order{Type: domain.OrderMarket, Side: domain.SideBuy, Qty: 2.0}); err != nil {
				t.Fatal(err)
			}
			step(t, e, 1001, 10000)

			if _, err := e.PlaceOrder(domain.Order{Type: domain.OrderMarket, Side: domain.SideSell, Qty: 0.5}); err != nil {
				t.Fatal(err)
			}
			step(t, e, 1002, 10400) // sell 0.5 @ 104

			snap := e.Snapshot()
			if snap.Position != 1.5 {
				t.Errorf("position = %v, want 1.5", snap.Position)
			}
			if snap.AvgEntryPrice != 100.0 {
				t.Errorf("avg entry = %v, want unchanged 100.0 on reduce", snap.AvgEntryPrice)
			}
			if math.Abs(snap.RealizedPnL-2.0) > 1e-9 {
				t.Errorf("realized = %v, want 0.5 * 4 = 2.0", snap.RealizedPnL)
			}
		})
	}
}

func TestLedger_ShortSidePnL(t *testing.T) {
	for _, mode := range []Arithmetic{ArithmeticFixed, ArithmeticFloat} {
		t.Run(string(mode), func(t *testing.T) {
			cfg := testConfig()
			cfg.Arithmetic = mode
			e := mustNew(t, cfg)

			step(t, e, 1000, 10000)
			if _, err := e.PlaceOrder(domain.Order{Type: domain.OrderMarket, Side: domain.SideSell, Qty: 1.0}); err != nil {
				t.Fatal(err)
			}
			step(t, e, 1001, 10000) // short 1.0 @ 100

			step(t, e, 1002, 9500) // mark at 95: short is up 5
			snap := e.Snapshot()
			if math.Abs(snap.UnrealizedPnL-5.0) > 1e-6 {
				t.Errorf("upnl = %v, want +5.0 for a winning short", snap.UnrealizedPnL)
			}

			if _, err := e.PlaceOrder(domain.Order{Type: domain.OrderMarket, Side: domain.SideBuy, Qty: 1.0}); err != nil {
				t.Fatal(err)
			}
			step(t, e, 1003, 9500)

			snap = e.Snapshot()
			if math.Abs(snap.RealizedPnL-5.0) > 1e-9 {
				t.Errorf("realized = %v, want +5.0 after covering", snap.RealizedPnL)
			}
		})
	}
}

// Fixed and float ledgers are two implementations of one contract; driven
// with identical inputs they must agree within float tolerance.
func TestLedger_FixedFloatParity(t *testing.T) {
	cfgFixed := testConfig()
	cfgFixed.SpreadBps = 2.0
	cfgFloat := cfgFixed
	cfgFloat.Arithmetic = ArithmeticFloat

	ef := mustNew(t, cfgFixed)
	el := mustNew(t, cfgFloat)

	orders := []domain.Order{
		{Type: domain.OrderMarket, Side: domain.SideBuy, Qty: 1.5},
		{Type: domain.OrderLimit, Side: domain.SideSell, Qty: 0.75, LimitPrice: 101.5},
		{Type: domain.OrderMarket, Side: domain.SideSell, Qty: 2.0},
		{Type: domain.OrderLimit, Side: domain.SideBuy, Qty: 1.25, LimitPrice: 99.25},
	}
	for _, o := range orders {
		if _, err := ef.PlaceOrder(o); err != nil {
			t.Fatal(err)
		}
		if _, err := el.PlaceOrder(o); err != nil {
			t.Fatal(err)
		}
	}

	prices := []int64{10000, 10080, 10160, 10240, 10120, 9980, 9900, 9850, 10010}
	for i, p := range prices {
		step(t, ef, int64(1000+i), p)
		step(t, el, int64(1000+i), p)
	}

	sf, sl := ef.Snapshot(), el.Snapshot()
	if math.Abs(sf.Cash-sl.Cash) > 1e-3 {
		t.Errorf("cash: fixed=%v float=%v", sf.Cash, sl.Cash)
	}
	if math.Abs(sf.Position-sl.Position) > 1e-6 {
		t.Errorf("position: fixed=%v float=%v", sf.Position, sl.Position)
	}
	if math.Abs(sf.RealizedPnL-sl.RealizedPnL) > 1e-3 {
		t.Errorf("realized: fixed=%v float=%v", sf.RealizedPnL, sl.RealizedPnL)
	}
	if math.Abs(sf.Equity-sl.Equity) > 1e-3 {
		t.Errorf("equity: fixed=%v float=%v", sf.Equity, sl.Equity)
	}
	if len(ef.Trades()) != len(el.Trades()) {
		t.Errorf("trade counts diverge: fixed=%d float=%d", len(ef.Trades()), len(el.Trades()))
	}
}
