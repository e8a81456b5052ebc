package engine

import (
	"math"
	"time"

	"alphasim/internal/market"
	"alphasim/internal/signal"
	"alphasim/internal/strategy"
)

// ExitPolicy selects how the evaluator resolves an exit for an open entry.
type ExitPolicy string

const (
	// ExitByStrategy scans forward asking the strategy's exit condition at
	// every row. Current default.
	ExitByStrategy ExitPolicy = "strategy"
	// ExitByWindow closes at entry time plus the holding window. Legacy.
	ExitByWindow ExitPolicy = "window"
)

// evaluator resolves a single entry into a realized trade: exact entry price,
// an exit by policy, net return after costs, and intra-holding drawdown.
type evaluator struct {
	windowHours float64
	feeBps      float64
	slippageBps float64
	policy      ExitPolicy
}

// evaluate returns the realized trade for an entry at entryTime, or false
// when data is unavailable (missing entry bar, empty exit window). Data gaps
// are skips, never errors.
func (ev evaluator) evaluate(strat strategy.Strategy, symbol string, features *market.Series, entryTime, maxExitTime time.Time) (Trade, bool) {
	if features == nil || features.Len() == 0 {
		return Trade{}, false
	}

	// entry requires an exact bar at the checkpoint; bar-by-bar mode
	// guarantees this, fixed-interval callers must align checkpoints to bars
	entryRow, ok := features.At(entryTime)
	if !ok {
		return Trade{}, false
	}
	entryPrice := entryRow.Close

	var exitRow market.Row
	var reason ExitReason
	switch ev.policy {
	case ExitByWindow:
		exitRow, ok = ev.fixedWindowExit(features, entryTime)
		reason = ExitFixedWindow
	default:
		exitRow, reason, ok = ev.strategyExit(strat, symbol, features, entryTime, maxExitTime, entryPrice)
	}
	if !ok {
		return Trade{}, false
	}

	grossReturnPct := (exitRow.Close - entryPrice) / entryPrice * 100

	// Fees are paid on both legs; slippage is applied once, modelling a
	// single-sided market-impact cost. The asymmetry is deliberate.
	costPct := (2*ev.feeBps + ev.slippageBps) / 100

	return Trade{
		Symbol:         symbol,
		EntryTime:      entryTime,
		ExitTime:       exitRow.Ts,
		Direction:      signal.Long,
		EntryPrice:     entryPrice,
		ExitPrice:      exitRow.Close,
		GrossReturnPct: grossReturnPct,
		NetReturnPct:   grossReturnPct - costPct,
		MaxDrawdownPct: maxDrawdown(features, entryTime, exitRow.Ts, entryPrice),
		ExitReason:     reason,
	}, true
}

// fixedWindowExit resolves the legacy exit: the bar at entry plus the window,
// falling back to the latest bar at or before that time. A fallback row at or
// before the entry itself would collapse the trade, so it is discarded.
func (ev evaluator) fixedWindowExit(features *market.Series, entryTime time.Time) (market.Row, bool) {
	target := entryTime.Add(hoursToDuration(ev.windowHours))
	if row, ok := features.At(target); ok {
		return row, true
	}
	row, ok := features.LatestAt(target)
	if !ok || !row.Ts.After(entryTime) {
		return market.Row{}, false
	}
	return row, true
}

// strategyExit scans rows strictly after the entry in chronological order and
// closes at the first row where the strategy says so. If nothing triggers,
// the last scanned row becomes a forced max-time exit.
func (ev evaluator) strategyExit(strat strategy.Strategy, symbol string, features *market.Series, entryTime, maxExitTime time.Time, entryPrice float64) (market.Row, ExitReason, bool) {
	rows := features.After(entryTime, maxExitTime)
	if len(rows) == 0 {
		return market.Row{}, "", false
	}
	for _, row := range rows {
		if strat.ShouldClosePosition(symbol, features, entryTime, row.Ts, entryPrice, row.Close) {
			return row, ExitStrategySignal, true
		}
	}
	return rows[len(rows)-1], ExitMaxTime, true
}

// maxDrawdown reports the deepest dip below the entry price over the holding
// period, as a positive percentage, floored at zero.
func maxDrawdown(features *market.Series, entryTime, exitTime time.Time, entryPrice float64) float64 {
	worst := 0.0
	for _, row := range features.Between(entryTime, exitTime) {
		dd := (row.Close - entryPrice) / entryPrice * 100
		if dd < worst {
			worst = dd
		}
	}
	return math.Abs(worst)
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
