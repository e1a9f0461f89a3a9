package infra

import (
	"fmt"
	"strings"

	"github.com/boryxf/ag-kernel/internal/engine"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// PrintBanner displays the startup banner with the active arithmetic mode.
func PrintBanner(cfg *Config, mode string) {
	arith := cfg.Engine.Arithmetic
	if arith == "" {
		arith = engine.ArithmeticFixed
	}

	color := ColorCyan
	arithDesc := "INT64 FIXED-POINT (DETERMINISTIC)"
	if arith == engine.ArithmeticFloat {
		color = ColorYellow
		arithDesc = "FLOAT64 REFERENCE LEDGER"
	}

	fmt.Println()
	fmt.Printf("%s###########################################################%s\n", color, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", color, ColorReset)
	fmt.Printf("%s#              AG-Kernel Backtest Engine                  #%s\n", color, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", color, ColorReset)
	fmt.Printf("%s#   MODE:       %-40s #%s\n", color, strings.ToUpper(mode), ColorReset)
	fmt.Printf("%s#   ARITHMETIC: %-40s #%s\n", color, arithDesc, ColorReset)
	fmt.Printf("%s#   VERSION:    %-40s #%s\n", color, cfg.App.Version, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", color, ColorReset)

	if arith == engine.ArithmeticFloat {
		fmt.Printf("%s#   NOTE: FLOAT RESULTS ARE FOR CROSS-CHECKING ONLY       #%s\n", ColorYellow, ColorReset)
	}

	fmt.Printf("%s###########################################################%s\n", color, ColorReset)
	fmt.Println()
}
