package stats

import (
	"math"
	"sort"
	"time"
)

// periodsPerYear annualizes metrics assuming daily observations.
const periodsPerYear = 252

// SeriesMetrics is the time-series view of performance, computed from a
// returns series rather than discrete trades.
type SeriesMetrics struct {
	TotalReturnPct   float64 `json:"total_return_pct"`
	CAGRPct          float64 `json:"cagr_pct"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio"`
	CalmarRatio      float64 `json:"calmar_ratio"`
	MaxDrawdownPct   float64 `json:"max_drawdown_pct"`
	AnnualizedVolPct float64 `json:"annualized_vol_pct"`
	VaR95Pct         float64 `json:"var_95_pct"`
}

// SeriesEvaluator computes time-series metrics from percentage returns.
type SeriesEvaluator struct {
	// RiskFreeRate is the annual risk-free rate used for Sharpe and Sortino.
	RiskFreeRate float64
}

// NewSeriesEvaluator returns an evaluator with the default 2% risk-free rate.
func NewSeriesEvaluator() SeriesEvaluator {
	return SeriesEvaluator{RiskFreeRate: 0.02}
}

// Evaluate computes all metrics for a series of percentage returns. An empty
// series yields the zero value. Timestamps are optional; when provided and
// matching in length, CAGR uses the actual elapsed span, otherwise each
// observation counts as one trading day.
func (e SeriesEvaluator) Evaluate(returnsPct []float64, timestamps []time.Time) SeriesMetrics {
	var m SeriesMetrics
	if len(returnsPct) == 0 {
		return m
	}

	m.TotalReturnPct = totalCompounded(returnsPct)
	m.CAGRPct = e.cagr(returnsPct, timestamps)
	m.MaxDrawdownPct = maxDrawdownFromReturns(returnsPct)
	m.AnnualizedVolPct = sampleStdDev(returnsPct) * math.Sqrt(periodsPerYear)
	m.VaR95Pct = percentile(returnsPct, 5)

	sd := sampleStdDev(returnsPct)
	excess := mean(returnsPct) - e.RiskFreeRate*100/periodsPerYear
	if sd > 0 {
		m.SharpeRatio = excess / sd * math.Sqrt(periodsPerYear)
	}

	if downsideSD := downsideStdDev(returnsPct); downsideSD > 0 {
		m.SortinoRatio = excess / downsideSD * math.Sqrt(periodsPerYear)
	}

	if dd := math.Abs(m.MaxDrawdownPct); dd > 0 {
		m.CalmarRatio = m.CAGRPct / dd
	}

	return m
}

func totalCompounded(returnsPct []float64) float64 {
	cumulative := 1.0
	for _, r := range returnsPct {
		cumulative *= 1 + r/100
	}
	return (cumulative - 1) * 100
}

func (e SeriesEvaluator) cagr(returnsPct []float64, timestamps []time.Time) float64 {
	if len(returnsPct) < 2 {
		return 0
	}
	years := float64(len(returnsPct)) / periodsPerYear
	if len(timestamps) == len(returnsPct) {
		span := timestamps[len(timestamps)-1].Sub(timestamps[0])
		years = span.Hours() / 24 / 365.25
	}
	if years <= 0 {
		return 0
	}
	total := totalCompounded(returnsPct)
	return (math.Pow(1+total/100, 1/years) - 1) * 100
}

// maxDrawdownFromReturns reports the deepest peak-to-trough decline of the
// compounded equity curve, as a negative percentage.
func maxDrawdownFromReturns(returnsPct []float64) float64 {
	equity := 1.0
	peak := 1.0
	worst := 0.0
	for _, r := range returnsPct {
		equity *= 1 + r/100
		if equity > peak {
			peak = equity
		}
		dd := (equity - peak) / peak * 100
		if dd < worst {
			worst = dd
		}
	}
	return worst
}

func downsideStdDev(returnsPct []float64) float64 {
	var downside []float64
	for _, r := range returnsPct {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	return sampleStdDev(downside)
}

// percentile implements linear interpolation between closest ranks, matching
// the conventional numpy behaviour.
func percentile(values []float64, pct float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := pct / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
