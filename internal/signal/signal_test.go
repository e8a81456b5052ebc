package signal

import (
	"testing"
	"time"
)

var ts = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestNewRejectsOutOfRange(t *testing.T) {
	if _, err := New(ts, "BTCUSDT", "test", 1.5, 0.5, 1, false, nil); err == nil {
		t.Fatalf("alpha above 1 must be rejected, not clamped")
	}
	if _, err := New(ts, "BTCUSDT", "test", -1.1, 0.5, 1, false, nil); err == nil {
		t.Fatalf("alpha below -1 must be rejected")
	}
	if _, err := New(ts, "BTCUSDT", "test", 0.5, -0.1, 1, false, nil); err == nil {
		t.Fatalf("negative confidence must be rejected")
	}
	if _, err := New(ts, "BTCUSDT", "test", 0.5, 1.1, 1, false, nil); err == nil {
		t.Fatalf("confidence above 1 must be rejected")
	}
	if _, err := New(ts, "BTCUSDT", "test", 0.5, 0.5, 0, false, nil); err == nil {
		t.Fatalf("horizon below one day must be rejected")
	}
}

func TestNewAcceptsBoundaryValues(t *testing.T) {
	for _, alpha := range []float64{-1, 0, 1} {
		if _, err := New(ts, "BTCUSDT", "test", alpha, 0.5, 1, false, nil); err != nil {
			t.Fatalf("boundary alpha %v rejected: %v", alpha, err)
		}
	}
}

func TestDirectionThresholds(t *testing.T) {
	cases := []struct {
		alpha float64
		want  Direction
	}{
		{0.21, Long},
		{0.2, Flat}, // threshold is exclusive
		{0.0, Flat},
		{-0.2, Flat},
		{-0.21, Short},
		{1.0, Long},
		{-1.0, Short},
	}
	for _, c := range cases {
		s := Signal{Alpha: c.alpha}
		if got := s.Direction(); got != c.want {
			t.Fatalf("alpha %v: got %s want %s", c.alpha, got, c.want)
		}
	}
}

func TestFromDirectionDefaults(t *testing.T) {
	long := FromDirection(ts, "BTCUSDT", "legacy", Long, 1)
	if long.Alpha != 0.5 || long.Confidence != 0.5 {
		t.Fatalf("LONG should map to 0.5/0.5, got %v/%v", long.Alpha, long.Confidence)
	}
	short := FromDirection(ts, "BTCUSDT", "legacy", Short, 1)
	if short.Alpha != -0.5 {
		t.Fatalf("SHORT should map to -0.5, got %v", short.Alpha)
	}
	flat := FromDirection(ts, "BTCUSDT", "legacy", Flat, 0)
	if flat.Alpha != 0 {
		t.Fatalf("FLAT should map to 0, got %v", flat.Alpha)
	}
	if flat.HorizonDays != 1 {
		t.Fatalf("horizon should floor at 1 day, got %d", flat.HorizonDays)
	}

	// the adapter round-trips back to the original direction
	if long.Direction() != Long || short.Direction() != Short || flat.Direction() != Flat {
		t.Fatalf("adapter output does not round-trip through the thresholds")
	}
}
