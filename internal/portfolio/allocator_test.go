package portfolio

import (
	"math"
	"testing"
)

const capital = 100000.0

func alloc(t *testing.T, method AllocMethod) *Allocator {
	t.Helper()
	a, err := NewAllocator(method, capital)
	if err != nil {
		t.Fatalf("allocator: %v", err)
	}
	return a
}

func TestNewAllocatorValidation(t *testing.T) {
	if _, err := NewAllocator("kelly", capital); err == nil {
		t.Fatalf("unknown method must fail fast")
	}
	if _, err := NewAllocator(Proportional, 0); err == nil {
		t.Fatalf("non-positive capital must be rejected")
	}
}

func TestMinAlphaFilter(t *testing.T) {
	a := alloc(t, EqualWeight)
	out := a.Allocate(map[string]CombinedAlpha{
		"WEAK":   {Alpha: 0.05, Confidence: 0.9},
		"STRONG": {Alpha: 0.5, Confidence: 0.9},
	}, DefaultConstraints())
	if _, ok := out["WEAK"]; ok {
		t.Fatalf("alpha below 0.1 must be filtered out")
	}
	if _, ok := out["STRONG"]; !ok {
		t.Fatalf("passing symbol lost")
	}
}

func TestExplicitZeroThresholdsDisableFilters(t *testing.T) {
	a := alloc(t, EqualWeight)
	out := a.Allocate(map[string]CombinedAlpha{
		"WEAK":   {Alpha: 0.05, Confidence: 0.9},
		"STRONG": {Alpha: 0.5, Confidence: 0.9},
	}, Constraints{
		MaxPositionPct:    1.0,
		MinPositionPct:    0,
		MinAlphaThreshold: 0,
		TopN:              10,
	})
	if len(out) != 2 {
		t.Fatalf("zero thresholds must disable the filters, got %+v", out)
	}
	if _, ok := out["WEAK"]; !ok {
		t.Fatalf("weak alpha should pass a disabled filter")
	}
}

func TestLongOnlyNeverAllocatesNegativeAlpha(t *testing.T) {
	for _, method := range AllocMethods() {
		a := alloc(t, method)
		out := a.Allocate(map[string]CombinedAlpha{
			"SHORTME": {Alpha: -0.8, Confidence: 0.9},
		}, DefaultConstraints())
		if len(out) != 0 {
			t.Fatalf("%s allocated to a negative alpha: %+v", method, out)
		}
	}
}

func TestProportionalAllocation(t *testing.T) {
	a := alloc(t, Proportional)
	out := a.Allocate(map[string]CombinedAlpha{
		"A": {Alpha: 0.3},
		"B": {Alpha: 0.3},
		"C": {Alpha: 0.3},
		"D": {Alpha: 0.3},
		"E": {Alpha: 0.3},
		"F": {Alpha: 0.3},
	}, DefaultConstraints())
	// six equal alphas, each one sixth, under the cap
	for symbol, v := range out {
		if math.Abs(v-capital/6) > 1e-6 {
			t.Fatalf("%s: got %v want %v", symbol, v, capital/6)
		}
	}
}

func TestEqualWeightAllocation(t *testing.T) {
	a := alloc(t, EqualWeight)
	out := a.Allocate(map[string]CombinedAlpha{
		"A": {Alpha: 0.9},
		"B": {Alpha: 0.2},
		"C": {Alpha: 0.4},
		"D": {Alpha: 0.3},
		"E": {Alpha: 0.5},
		"F": {Alpha: 0.6},
	}, DefaultConstraints())
	if len(out) != 6 {
		t.Fatalf("expected 6 positions, got %d", len(out))
	}
	for symbol, v := range out {
		if math.Abs(v-capital/6) > 1e-6 {
			t.Fatalf("%s should get an equal share: %v", symbol, v)
		}
	}
}

func TestTopNAllocation(t *testing.T) {
	a := alloc(t, TopN)
	constraints := DefaultConstraints()
	constraints.TopN = 2

	out := a.Allocate(map[string]CombinedAlpha{
		"A": {Alpha: 0.9},
		"B": {Alpha: 0.5},
		"C": {Alpha: 0.3},
	}, constraints)
	if len(out) != 2 {
		t.Fatalf("expected top 2, got %d", len(out))
	}
	if _, ok := out["C"]; ok {
		t.Fatalf("weakest alpha should be cut")
	}
}

func TestThresholdTiers(t *testing.T) {
	a := alloc(t, Threshold)
	constraints := DefaultConstraints()
	constraints.MaxPositionPct = 1.0 // disable the cap to observe raw tiers

	out := a.Allocate(map[string]CombinedAlpha{
		"HIGH": {Alpha: 0.7}, // 2x
		"MED":  {Alpha: 0.4}, // 1.5x
		"LOW":  {Alpha: 0.2}, // 1x
	}, constraints)

	unit := capital / 4.5
	if math.Abs(out["HIGH"]-2*unit) > 1e-6 {
		t.Fatalf("high tier: got %v want %v", out["HIGH"], 2*unit)
	}
	if math.Abs(out["MED"]-1.5*unit) > 1e-6 {
		t.Fatalf("medium tier: got %v want %v", out["MED"], 1.5*unit)
	}
	if math.Abs(out["LOW"]-unit) > 1e-6 {
		t.Fatalf("low tier: got %v want %v", out["LOW"], unit)
	}
}

func TestFloorDropsInsteadOfClamping(t *testing.T) {
	a := alloc(t, Proportional)
	out := a.Allocate(map[string]CombinedAlpha{
		"BIG":  {Alpha: 1.0},
		"TINY": {Alpha: 0.1 * 1.0001}, // passes the alpha filter but sizes below 1%
	}, Constraints{
		MaxPositionPct:    1.0,
		MinPositionPct:    0.15,
		MinAlphaThreshold: 0.1,
		TopN:              10,
	})
	if _, ok := out["TINY"]; ok {
		t.Fatalf("sub-floor position must be dropped, not padded")
	}
	if _, ok := out["BIG"]; !ok {
		t.Fatalf("surviving position lost")
	}
}

func TestCapHoldsAfterRenormalization(t *testing.T) {
	a := alloc(t, Proportional)
	// one dominant alpha: clipping then a naive rescale would push it back
	// over the cap
	out := a.Allocate(map[string]CombinedAlpha{
		"DOM": {Alpha: 1.0},
		"B":   {Alpha: 0.15},
		"C":   {Alpha: 0.15},
		"D":   {Alpha: 0.15},
		"E":   {Alpha: 0.15},
		"F":   {Alpha: 0.15},
	}, DefaultConstraints())

	maxValue := capital * DefaultConstraints().MaxPositionPct
	var total float64
	for symbol, v := range out {
		if v > maxValue+1e-6 {
			t.Fatalf("%s exceeds the cap after renormalization: %v > %v", symbol, v, maxValue)
		}
		total += v
	}
	if total > capital+1e-6 {
		t.Fatalf("total allocation exceeds capital: %v", total)
	}
	if math.Abs(total-capital) > 1e-6 {
		t.Fatalf("uncapped capacity remains, should deploy full capital: %v", total)
	}
	if math.Abs(out["DOM"]-maxValue) > 1e-6 {
		t.Fatalf("dominant position should pin at the cap: %v", out["DOM"])
	}
}

func TestAllCappedLeavesResidualCash(t *testing.T) {
	a := alloc(t, EqualWeight)
	constraints := DefaultConstraints()
	constraints.MaxPositionPct = 0.10

	out := a.Allocate(map[string]CombinedAlpha{
		"A": {Alpha: 0.5},
		"B": {Alpha: 0.5},
		"C": {Alpha: 0.5},
	}, constraints)

	var total float64
	for _, v := range out {
		if math.Abs(v-capital*0.10) > 1e-6 {
			t.Fatalf("every position should pin at the cap: %v", v)
		}
		total += v
	}
	if total > capital*0.30+1e-6 {
		t.Fatalf("capped portfolio must not exceed 3 positions x 10%%: %v", total)
	}
}

func TestMaxPositionsKeepsLargest(t *testing.T) {
	a := alloc(t, Proportional)
	constraints := DefaultConstraints()
	constraints.MaxPositions = 2
	constraints.MaxPositionPct = 1.0

	out := a.Allocate(map[string]CombinedAlpha{
		"A": {Alpha: 0.9},
		"B": {Alpha: 0.5},
		"C": {Alpha: 0.2},
	}, constraints)
	if len(out) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(out))
	}
	if _, ok := out["C"]; ok {
		t.Fatalf("smallest allocation should be cut")
	}
}

func TestAllocateEmptyAndAllFiltered(t *testing.T) {
	a := alloc(t, Proportional)
	if out := a.Allocate(nil, DefaultConstraints()); len(out) != 0 {
		t.Fatalf("empty input should allocate nothing")
	}
	out := a.Allocate(map[string]CombinedAlpha{
		"X": {Alpha: 0.01},
	}, DefaultConstraints())
	if len(out) != 0 {
		t.Fatalf("fully filtered input should allocate nothing, not error")
	}
}
