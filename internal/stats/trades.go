// Package stats reduces trade lists and return series into performance
// metrics. All functions are pure; inputs are never mutated.
package stats

import (
	"math"
	"sort"

	"alphasim/internal/engine"
)

// Summary aggregates a trade collection. ProfitFactor and SharpeRatio are nil
// when undefined (no losses, or too few trades to estimate dispersion).
type Summary struct {
	TotalTrades     int      `json:"total_trades"`
	WinningTrades   int      `json:"winning_trades"`
	LosingTrades    int      `json:"losing_trades"`
	WinRate         float64  `json:"win_rate"`
	AvgReturnPct    float64  `json:"avg_return_pct"`
	MedianReturnPct float64  `json:"median_return_pct"`
	TotalReturnPct  float64  `json:"total_return_pct"`
	MaxDrawdownPct  float64  `json:"max_drawdown_pct"`
	ProfitFactor    *float64 `json:"profit_factor"`
	SharpeRatio     *float64 `json:"sharpe_ratio"`
}

// Summarize computes the summary for an ordered trade list. An empty list
// yields the zero-valued defaults, not an error: "no setups found" is a
// legitimate backtest outcome.
func Summarize(trades []engine.Trade) Summary {
	if len(trades) == 0 {
		return Summary{}
	}

	returns := make([]float64, len(trades))
	summary := Summary{TotalTrades: len(trades)}
	var grossProfit, grossLoss float64
	for i, trade := range trades {
		r := trade.NetReturnPct
		returns[i] = r
		summary.TotalReturnPct += r // simple sum, no compounding in v1
		if r > 0 {
			summary.WinningTrades++
			grossProfit += r
		} else {
			summary.LosingTrades++
			if r < 0 {
				grossLoss += -r
			}
		}
		if trade.MaxDrawdownPct > summary.MaxDrawdownPct {
			summary.MaxDrawdownPct = trade.MaxDrawdownPct
		}
	}

	summary.WinRate = float64(summary.WinningTrades) / float64(summary.TotalTrades) * 100
	summary.AvgReturnPct = mean(returns)
	summary.MedianReturnPct = median(returns)

	if grossLoss > 0 {
		pf := grossProfit / grossLoss
		summary.ProfitFactor = &pf
	}

	// per-trade Sharpe treats each trade as an i.i.d. sample; it is not a
	// time-series Sharpe
	if sd := sampleStdDev(returns); sd > 0 {
		sharpe := summary.AvgReturnPct / sd
		summary.SharpeRatio = &sharpe
	}

	return summary
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// sampleStdDev is the n-1 estimator; zero when fewer than two samples.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
