package stats

import (
	"math"
	"testing"
	"time"
)

func TestSeriesEvaluateEmpty(t *testing.T) {
	m := NewSeriesEvaluator().Evaluate(nil, nil)
	if m != (SeriesMetrics{}) {
		t.Fatalf("empty series should yield the zero value: %+v", m)
	}
}

func TestTotalCompounded(t *testing.T) {
	got := totalCompounded([]float64{10, -10})
	// 1.1 * 0.9 = 0.99
	if math.Abs(got-(-1.0)) > 1e-9 {
		t.Fatalf("compounded total: got %v want -1.0", got)
	}
}

func TestMaxDrawdownFromReturns(t *testing.T) {
	// equity: 1.1, 0.99, 1.0395 -> trough 0.99 against peak 1.1
	got := maxDrawdownFromReturns([]float64{10, -10, 5})
	want := (0.99 - 1.1) / 1.1 * 100
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("max drawdown: got %v want %v", got, want)
	}
	if got >= 0 {
		t.Fatalf("drawdown must be negative")
	}
}

func TestPercentileInterpolation(t *testing.T) {
	values := []float64{-5, -3, -1, 1, 3}
	// rank = 0.05 * 4 = 0.2 between -5 and -3
	got := percentile(values, 5)
	want := -5*(0.8) + -3*(0.2)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("percentile: got %v want %v", got, want)
	}
	if p := percentile([]float64{2}, 5); p != 2 {
		t.Fatalf("single value percentile: %v", p)
	}
}

func TestEvaluateRatios(t *testing.T) {
	returns := []float64{1.0, -0.5, 0.8, -0.2, 0.6}
	m := NewSeriesEvaluator().Evaluate(returns, nil)

	if m.SharpeRatio == 0 {
		t.Fatalf("sharpe should be defined for dispersed returns")
	}
	if m.SortinoRatio == 0 {
		t.Fatalf("sortino should be defined with downside returns present")
	}
	if m.AnnualizedVolPct <= 0 {
		t.Fatalf("annualized vol should be positive")
	}
	if m.MaxDrawdownPct >= 0 {
		t.Fatalf("fixture has a losing period, drawdown must be negative")
	}
	if m.CalmarRatio == 0 {
		t.Fatalf("calmar should be defined when drawdown is nonzero")
	}
	// annualization factor is sqrt(252)
	sd := sampleStdDev(returns)
	excess := mean(returns) - 0.02*100/252
	wantSharpe := excess / sd * math.Sqrt(252)
	if math.Abs(m.SharpeRatio-wantSharpe) > 1e-9 {
		t.Fatalf("sharpe: got %v want %v", m.SharpeRatio, wantSharpe)
	}
}

func TestCAGRUsesTimestampSpan(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	returns := []float64{5, 5}
	timestamps := []time.Time{start, start.AddDate(1, 0, 0)}

	m := NewSeriesEvaluator().Evaluate(returns, timestamps)
	total := totalCompounded(returns)
	years := timestamps[1].Sub(timestamps[0]).Hours() / 24 / 365.25
	want := (math.Pow(1+total/100, 1/years) - 1) * 100
	if math.Abs(m.CAGRPct-want) > 1e-6 {
		t.Fatalf("cagr: got %v want %v", m.CAGRPct, want)
	}

	// without timestamps each observation is one trading day
	m = NewSeriesEvaluator().Evaluate(returns, nil)
	if m.CAGRPct == 0 {
		t.Fatalf("cagr should fall back to the observation count")
	}
}
