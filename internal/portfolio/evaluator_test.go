package portfolio

import (
	"math"
	"testing"
	"time"

	"alphasim/internal/strategy"
)

func TestDiversificationScore(t *testing.T) {
	if s := DiversificationScore(nil, capital); s != 0 {
		t.Fatalf("empty portfolio: %v", s)
	}
	if s := DiversificationScore(map[string]float64{"A": 50000}, capital); s != 0 {
		t.Fatalf("single position cannot be diversified: %v", s)
	}

	even := map[string]float64{"A": 25000, "B": 25000, "C": 25000, "D": 25000}
	if s := DiversificationScore(even, capital); math.Abs(s-1.0) > 1e-9 {
		t.Fatalf("perfectly even weights should score 1: %v", s)
	}

	skewed := map[string]float64{"A": 90000, "B": 5000, "C": 5000}
	s := DiversificationScore(skewed, capital)
	if s <= 0 || s >= 0.5 {
		t.Fatalf("concentrated portfolio should score low: %v", s)
	}
}

func TestCompareAllocationsCoversEveryMethod(t *testing.T) {
	e := NewEvaluator(testLog)
	combined := map[string]CombinedAlpha{
		"A": {Alpha: 0.9, Confidence: 0.8},
		"B": {Alpha: 0.4, Confidence: 0.6},
		"C": {Alpha: 0.2, Confidence: 0.5},
	}
	results, err := e.CompareAllocations(combined, capital, DefaultConstraints())
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(results) != len(AllocMethods()) {
		t.Fatalf("expected one result per method, got %d", len(results))
	}
	for _, res := range results {
		if res.Positions == 0 {
			t.Fatalf("%s allocated nothing for a clearly long book", res.Method)
		}
		if res.TotalAllocated <= 0 || res.TotalAllocated > capital+1e-6 {
			t.Fatalf("%s total allocated out of range: %v", res.Method, res.TotalAllocated)
		}
		if res.MaxPositionWeight < res.MinPositionWeight {
			t.Fatalf("%s weight bounds inverted", res.Method)
		}
	}
}

func TestCompareCombinationsRanksAndCoversMethods(t *testing.T) {
	e := NewEvaluator(testLog)
	strats := []strategy.Strategy{
		&fakeStrategy{name: "a", symbols: []string{"X", "Y"}, alpha: 0.6, conf: 0.7},
		&fakeStrategy{name: "b", symbols: []string{"X"}, alpha: 0.3, conf: 0.4},
	}
	features := fixtureFeatures(t, "X", "Y")
	timestamps := []time.Time{ts, ts.Add(time.Hour), ts.Add(2 * time.Hour)}

	results, err := e.CompareCombinations(strats, features, timestamps, capital, DefaultConstraints())
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(results) != len(CombineMethods()) {
		t.Fatalf("expected one result per method, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Metrics.SharpeRatio < results[i].Metrics.SharpeRatio {
			t.Fatalf("results must sort by sharpe descending")
		}
	}
}

func TestCompareCombinationsTieOrderIsDeterministic(t *testing.T) {
	e := NewEvaluator(testLog)
	// identical signals at every checkpoint: flat returns, every method ties
	// at zero sharpe
	strats := []strategy.Strategy{
		&fakeStrategy{name: "a", symbols: []string{"X"}, alpha: 0.6, conf: 0.7},
	}
	features := fixtureFeatures(t, "X")
	timestamps := []time.Time{ts, ts.Add(time.Hour), ts.Add(2 * time.Hour)}

	want := []CombineMethod{BestStrategy, ConfidenceWeighted, RankAverage, Weighted}
	for run := 0; run < 5; run++ {
		results, err := e.CompareCombinations(strats, features, timestamps, capital, DefaultConstraints())
		if err != nil {
			t.Fatalf("compare: %v", err)
		}
		for i, res := range results {
			if res.Method != want[i] {
				t.Fatalf("run %d: tied methods must sort by name, got %v at %d", run, res.Method, i)
			}
		}
	}
}
