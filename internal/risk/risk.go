// Package risk applies pre-trade filters and position sizing. Filters gate
// which symbols a strategy may touch; the sizer converts a stop distance
// into a notional position.
package risk

import (
	"time"

	"alphasim/internal/market"
)

// Limits are the pre-trade risk filters.
type Limits struct {
	// MaxPositions caps how many symbols pass the filter.
	MaxPositions int `yaml:"max_positions"`
	// MaxVolatilityPct rejects symbols whose atr_pct exceeds it.
	MaxVolatilityPct float64 `yaml:"max_volatility_pct"`
	// MinVolumeRatio rejects symbols trading below this fraction of their
	// usual volume.
	MinVolumeRatio float64 `yaml:"min_volume_ratio"`
}

// DefaultLimits mirrors the conservative live defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxPositions:     3,
		MaxVolatilityPct: 5.0,
		MinVolumeRatio:   0.5,
	}
}

// AllowRow checks a single feature row against the filters. Missing feature
// fields do not block; only a present, violating value does.
func (l Limits) AllowRow(row market.Row) bool {
	if row.Close <= 0 {
		return false
	}
	if atr, ok := row.Field("atr_pct"); ok && atr > l.MaxVolatilityPct {
		return false
	}
	if vol, ok := row.Field("volume_ratio"); ok && vol < l.MinVolumeRatio {
		return false
	}
	return true
}

// FilterSymbols keeps candidates whose latest row at the checkpoint passes
// the filters, preserving the input order, truncated to MaxPositions.
// Symbols without data at the checkpoint are dropped.
func (l Limits) FilterSymbols(symbols []string, features map[string]*market.Series, now time.Time) []string {
	var allowed []string
	for _, symbol := range symbols {
		series, ok := features[symbol]
		if !ok || series.Len() == 0 {
			continue
		}
		row, ok := series.LatestAt(now)
		if !ok {
			continue
		}
		if l.AllowRow(row) {
			allowed = append(allowed, symbol)
		}
	}
	if l.MaxPositions > 0 && len(allowed) > l.MaxPositions {
		allowed = allowed[:l.MaxPositions]
	}
	return allowed
}
