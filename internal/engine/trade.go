package engine

import (
	"time"

	"alphasim/internal/signal"
)

// ExitReason records how a trade was closed.
type ExitReason string

const (
	// ExitStrategySignal means the strategy's exit condition triggered.
	ExitStrategySignal ExitReason = "strategy_signal"
	// ExitMaxTime means no exit condition triggered and the trade was forced
	// closed at the last available row in the scanned range.
	ExitMaxTime ExitReason = "max_time"
	// ExitFixedWindow means the legacy fixed-horizon policy closed the trade.
	ExitFixedWindow ExitReason = "fixed_window"
)

// Trade is one realized entry/exit pair. Trades are created only by the
// evaluator, once both prices resolve, and are immutable afterwards.
type Trade struct {
	Symbol         string           `json:"symbol"`
	EntryTime      time.Time        `json:"entry_time"`
	ExitTime       time.Time        `json:"exit_time"`
	Direction      signal.Direction `json:"direction"`
	EntryPrice     float64          `json:"entry_price"`
	ExitPrice      float64          `json:"exit_price"`
	GrossReturnPct float64          `json:"gross_return_pct"`
	NetReturnPct   float64          `json:"net_return_pct"`
	MaxDrawdownPct float64          `json:"max_drawdown_pct"`
	ExitReason     ExitReason       `json:"exit_reason"`
}
