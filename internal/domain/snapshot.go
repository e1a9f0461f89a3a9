package domain

// Snapshot is an immutable point-in-time view of the ledger, captured
// after each fully processed tick. Equity is computed once at emission;
// `Equity == Cash + UnrealizedPnL` is an invariant, not a derived field
// readers should recompute.
type Snapshot struct {
	TsMs          int64   `json:"ts_ms,string"`
	Cash          float64 `json:"cash"`
	Position      float64 `json:"position"` // signed: +long / -short
	AvgEntryPrice float64 `json:"avg_entry_price"`
	RealizedPnL   float64 `json:"realized_pnl"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	Equity        float64 `json:"equity"`
}

// FillRecord is the trade-level output consumed by reporting collaborators.
type FillRecord struct {
	OrderID  int64     `json:"order_id,string"`
	TsMs     int64     `json:"ts_ms,string"`
	Type     OrderType `json:"type"`
	Side     Side      `json:"side"`
	Price    float64   `json:"price"`
	Qty      float64   `json:"qty"`
	Notional float64   `json:"notional"`
	Fee      float64   `json:"fee"`
}
