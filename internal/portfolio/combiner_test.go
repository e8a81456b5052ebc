package portfolio

import (
	"math"
	"testing"
	"time"

	"alphasim/internal/signal"
)

var ts = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func sig(strategyName, symbol string, alpha, confidence float64) signal.Signal {
	return signal.Signal{
		Ts:         ts,
		Symbol:     symbol,
		Strategy:   strategyName,
		Alpha:      alpha,
		Confidence: confidence,
	}
}

func TestNewCombinerRejectsUnknownMethod(t *testing.T) {
	if _, err := NewCombiner("majority_vote", nil); err == nil {
		t.Fatalf("unknown method must fail fast")
	}
}

func TestWeightedCombination(t *testing.T) {
	c, err := NewCombiner(Weighted, map[string]float64{"a": 2, "b": 1})
	if err != nil {
		t.Fatalf("combiner: %v", err)
	}
	combined := c.Combine([]signal.Signal{
		sig("a", "BTCUSDT", 0.6, 0.9),
		sig("b", "BTCUSDT", 0.3, 0.6),
	})

	ca := combined["BTCUSDT"]
	wantAlpha := (0.6*2 + 0.3*1) / 3
	if math.Abs(ca.Alpha-wantAlpha) > 1e-9 {
		t.Fatalf("weighted alpha: got %v want %v", ca.Alpha, wantAlpha)
	}
	wantConf := (0.9*2 + 0.6*1) / 3
	if math.Abs(ca.Confidence-wantConf) > 1e-9 {
		t.Fatalf("weighted confidence: got %v want %v", ca.Confidence, wantConf)
	}
}

func TestWeightedDefaultsMissingWeightToOne(t *testing.T) {
	c, err := NewCombiner(Weighted, map[string]float64{"a": 3})
	if err != nil {
		t.Fatalf("combiner: %v", err)
	}
	combined := c.Combine([]signal.Signal{
		sig("a", "X", 0.8, 0.8),
		sig("unlisted", "X", 0.2, 0.4),
	})
	want := (0.8*3 + 0.2*1) / 4
	if math.Abs(combined["X"].Alpha-want) > 1e-9 {
		t.Fatalf("unlisted strategy should weigh 1.0: got %v want %v", combined["X"].Alpha, want)
	}
}

func TestConfidenceWeightedCombination(t *testing.T) {
	c, err := NewCombiner(ConfidenceWeighted, nil)
	if err != nil {
		t.Fatalf("combiner: %v", err)
	}
	combined := c.Combine([]signal.Signal{
		sig("a", "X", 0.9, 0.8),
		sig("b", "X", -0.3, 0.2),
	})

	ca := combined["X"]
	wantAlpha := (0.9*0.8 + -0.3*0.2) / 1.0
	if math.Abs(ca.Alpha-wantAlpha) > 1e-9 {
		t.Fatalf("confidence-weighted alpha: got %v want %v", ca.Alpha, wantAlpha)
	}
	if math.Abs(ca.Confidence-0.5) > 1e-9 {
		t.Fatalf("confidence should average: got %v", ca.Confidence)
	}

	// all-zero confidence cannot divide; neutral result
	combined = c.Combine([]signal.Signal{sig("a", "X", 0.9, 0), sig("b", "X", 0.5, 0)})
	if combined["X"] != (CombinedAlpha{}) {
		t.Fatalf("zero total confidence should reduce to neutral: %+v", combined["X"])
	}
}

func TestRankAverageCombination(t *testing.T) {
	c, err := NewCombiner(RankAverage, nil)
	if err != nil {
		t.Fatalf("combiner: %v", err)
	}
	combined := c.Combine([]signal.Signal{
		sig("a", "X", 0.4, 0.6),
		sig("b", "X", 0.8, 1.0),
	})
	ca := combined["X"]
	if math.Abs(ca.Alpha-0.6) > 1e-9 || math.Abs(ca.Confidence-0.8) > 1e-9 {
		t.Fatalf("rank average: got %v/%v", ca.Alpha, ca.Confidence)
	}
}

func TestBestStrategyCombination(t *testing.T) {
	c, err := NewCombiner(BestStrategy, nil)
	if err != nil {
		t.Fatalf("combiner: %v", err)
	}
	combined := c.Combine([]signal.Signal{
		sig("a", "X", 0.2, 0.4),
		sig("b", "X", -0.7, 0.9),
		sig("c", "X", 0.5, 0.6),
	})
	ca := combined["X"]
	if ca.Alpha != -0.7 || ca.Confidence != 0.9 {
		t.Fatalf("best strategy should win on confidence alone: %+v", ca)
	}
}

func TestCombineGroupsBySymbol(t *testing.T) {
	c, err := NewCombiner(RankAverage, nil)
	if err != nil {
		t.Fatalf("combiner: %v", err)
	}
	combined := c.Combine([]signal.Signal{
		sig("a", "X", 0.5, 0.5),
		sig("a", "Y", -0.5, 0.5),
	})
	if len(combined) != 2 {
		t.Fatalf("expected per-symbol groups, got %d", len(combined))
	}
	if combined["X"].Alpha != 0.5 || combined["Y"].Alpha != -0.5 {
		t.Fatalf("symbols must not bleed into each other: %+v", combined)
	}
}

func TestCombineEmpty(t *testing.T) {
	c, err := NewCombiner(Weighted, nil)
	if err != nil {
		t.Fatalf("combiner: %v", err)
	}
	if combined := c.Combine(nil); len(combined) != 0 {
		t.Fatalf("no signals should combine to nothing")
	}
}
