package strategy

import (
	"math"
	"time"

	"alphasim/internal/market"
	"alphasim/internal/signal"
)

// ConfluenceConfig holds the tunable knobs for the baseline dual-indicator
// confluence strategy.
type ConfluenceConfig struct {
	RSIMin         float64 `yaml:"rsi_min"`
	RSIMax         float64 `yaml:"rsi_max"`
	RSIExit        float64 `yaml:"rsi_exit"`
	HistogramMin   float64 `yaml:"histogram_min"`
	ATRPctMax      float64 `yaml:"atr_pct_max"`
	VolumeMinRatio float64 `yaml:"volume_min_ratio"`
	StopLossPct    float64 `yaml:"stop_loss_pct"`
	TakeProfitPct  float64 `yaml:"take_profit_pct"`
	MaxHoldHours   float64 `yaml:"max_hold_hours"`
	MaxPositions   int     `yaml:"max_positions"`
}

// DefaultConfluenceConfig returns the stock parameter set.
func DefaultConfluenceConfig() ConfluenceConfig {
	return ConfluenceConfig{
		RSIMin:         40,
		RSIMax:         65,
		RSIExit:        75,
		HistogramMin:   0.0,
		ATRPctMax:      5.0,
		VolumeMinRatio: 0.8,
		StopLossPct:    3.0,
		TakeProfitPct:  6.0,
		MaxHoldHours:   8,
		MaxPositions:   3,
	}
}

func (c ConfluenceConfig) validate() error {
	if c.RSIMin >= c.RSIMax {
		return errConfig("confluence", "rsi_min must be below rsi_max")
	}
	if c.ATRPctMax <= 0 {
		return errConfig("confluence", "atr_pct_max must be positive")
	}
	if c.MaxHoldHours <= 0 {
		return errConfig("confluence", "max_hold_hours must be positive")
	}
	if c.MaxPositions < 1 {
		return errConfig("confluence", "max_positions must be at least 1")
	}
	return nil
}

// Confluence is the baseline strategy: it goes long when the trend histogram
// is positive while the oscillator sits in the healthy long zone, with
// volatility and volume confirmation, ranking symbols by a tiered score.
type Confluence struct {
	cfg ConfluenceConfig
}

// NewConfluence validates the config and builds the strategy.
func NewConfluence(cfg ConfluenceConfig) (*Confluence, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Confluence{cfg: cfg}, nil
}

// Meta declares periodic two-hourly evaluation on 1h bars.
func (c *Confluence) Meta() Metadata {
	return Metadata{
		Name:                    "confluence",
		PreferredTimeframe:      "1h",
		EvaluationMode:          Periodic,
		EvaluationIntervalHours: 2.0,
		MaxHoldHours:            c.cfg.MaxHoldHours,
		TypicalHoldRange:        "4-8 hours",
	}
}

// SelectSymbols ranks passing symbols by the combined score.
func (c *Confluence) SelectSymbols(features map[string]*market.Series, now time.Time) []string {
	var candidates []scored
	for symbol, series := range features {
		row, ok := latestRow(series, now)
		if !ok || !c.passesFilters(row) {
			continue
		}
		score := c.score(row)
		if math.IsNaN(score) {
			continue
		}
		candidates = append(candidates, scored{symbol: symbol, score: score})
	}
	return rankCandidates(candidates, c.cfg.MaxPositions)
}

// GenerateSignal emits LONG when every filter passes.
func (c *Confluence) GenerateSignal(symbol string, features *market.Series, now time.Time) signal.Direction {
	row, ok := latestRow(features, now)
	if !ok {
		return signal.Flat
	}
	if c.passesFilters(row) {
		return signal.Long
	}
	return signal.Flat
}

// ShouldClosePosition exits on stop loss, take profit, oscillator
// overbought, momentum reversal, or the maximum holding time.
func (c *Confluence) ShouldClosePosition(symbol string, features *market.Series, entryTime, now time.Time, entryPrice, currentPrice float64) bool {
	row, ok := latestRow(features, now)
	if !ok {
		return true
	}

	pnlPct := (currentPrice - entryPrice) / entryPrice * 100
	if pnlPct < -c.cfg.StopLossPct {
		return true
	}
	if pnlPct > c.cfg.TakeProfitPct {
		return true
	}
	if rsi, ok := row.Field("rsi"); ok && rsi > c.cfg.RSIExit {
		return true
	}
	if hist, ok := row.Field("trend_histogram"); ok && hist < 0 {
		return true
	}
	if now.Sub(entryTime).Hours() >= c.cfg.MaxHoldHours {
		return true
	}
	return false
}

func (c *Confluence) passesFilters(row market.Row) bool {
	rsi, ok := row.Field("rsi")
	if !ok || rsi < c.cfg.RSIMin || rsi > c.cfg.RSIMax {
		return false
	}
	hist, ok := row.Field("trend_histogram")
	if !ok || hist < c.cfg.HistogramMin {
		return false
	}
	atrPct, ok := row.Field("atr_pct")
	if !ok || atrPct > c.cfg.ATRPctMax {
		return false
	}
	volRatio, ok := row.Field("volume_ratio")
	if !ok || volRatio < c.cfg.VolumeMinRatio {
		return false
	}
	return true
}

// score blends oscillator placement, histogram strength, volume confirmation,
// and a volatility penalty.
func (c *Confluence) score(row market.Row) float64 {
	const rsiOptimal = 55.0

	rsi, _ := row.Field("rsi")
	rsiScore := 1.0 - math.Abs(rsi-rsiOptimal)/50.0

	hist, _ := row.Field("trend_histogram")
	histScore := math.Tanh(hist)

	volRatio, ok := row.Field("volume_ratio")
	if !ok {
		volRatio = 1.0
	}
	volumeScore := math.Min(volRatio, 2.0) / 2.0

	atrPct, ok := row.Field("atr_pct")
	if !ok {
		atrPct = 2.0
	}
	volPenalty := 1.0 / (1.0 + atrPct/5.0)

	return 0.3*rsiScore + 0.4*histScore + 0.2*volumeScore + 0.1*volPenalty
}
