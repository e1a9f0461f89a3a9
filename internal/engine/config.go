package engine

import (
	"fmt"

	"github.com/boryxf/ag-kernel/internal/domain"
)

// Arithmetic selects the ledger implementation behind the Engine contract.
// The choice is made once, at construction, from configuration — never from
// a runtime capability probe.
type Arithmetic string

const (
	// ArithmeticFixed is the int64-micros kernel. Default.
	ArithmeticFixed Arithmetic = "fixed"
	// ArithmeticFloat is the float64 reference ledger, kept as a second
	// implementation of the same contract for cross-checking.
	ArithmeticFloat Arithmetic = "float"
)

// Config is immutable for the lifetime of an engine instance.
type Config struct {
	InitialCash float64    `yaml:"initial_cash"`
	MakerFee    float64    `yaml:"maker_fee"` // fraction of notional, charged on LIMIT fills
	TakerFee    float64    `yaml:"taker_fee"` // fraction of notional, charged on MARKET fills
	SpreadBps   float64    `yaml:"spread_bps"`
	SpreadAbs   *float64   `yaml:"spread_abs,omitempty"` // overrides SpreadBps when set
	TickSize    float64    `yaml:"tick_size"`
	Arithmetic  Arithmetic `yaml:"arithmetic,omitempty"` // defaults to fixed
}

// Validate fails fast on configuration that would corrupt the ledger.
func (c Config) Validate() error {
	if c.TickSize <= 0 {
		return fmt.Errorf("%w: tick_size must be positive, got %v", domain.ErrConfiguration, c.TickSize)
	}
	if c.MakerFee < 0 || c.TakerFee < 0 {
		return fmt.Errorf("%w: fees must be non-negative", domain.ErrConfiguration)
	}
	if c.SpreadBps < 0 {
		return fmt.Errorf("%w: spread_bps must be non-negative", domain.ErrConfiguration)
	}
	if c.SpreadAbs != nil && *c.SpreadAbs < 0 {
		return fmt.Errorf("%w: spread_abs must be non-negative", domain.ErrConfiguration)
	}
	switch c.arithmetic() {
	case ArithmeticFixed, ArithmeticFloat:
	default:
		return fmt.Errorf("%w: unknown arithmetic mode %q", domain.ErrConfiguration, c.Arithmetic)
	}
	return nil
}

func (c Config) arithmetic() Arithmetic {
	if c.Arithmetic == "" {
		return ArithmeticFixed
	}
	return c.Arithmetic
}
