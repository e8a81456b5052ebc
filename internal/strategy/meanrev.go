package strategy

import (
	"math"
	"time"

	"alphasim/internal/market"
	"alphasim/internal/signal"
)

// MeanRevConfig holds the tunable knobs for the band mean-reversion strategy.
// Defaults are declared once here and validated at construction.
type MeanRevConfig struct {
	BandPositionMax float64 `yaml:"band_position_max"` // entry requires price near the lower band
	RSIOversold     float64 `yaml:"rsi_oversold"`
	RSIOverbought   float64 `yaml:"rsi_overbought"`
	VolumeSpikeMin  float64 `yaml:"volume_spike_min"`
	ATRPctMax       float64 `yaml:"atr_pct_max"`
	StopLossPct     float64 `yaml:"stop_loss_pct"`
	QuickProfitPct  float64 `yaml:"quick_profit_pct"`
	MaxHoldHours    float64 `yaml:"max_hold_hours"`
	MaxPositions    int     `yaml:"max_positions"`
}

// DefaultMeanRevConfig returns the stock parameter set.
func DefaultMeanRevConfig() MeanRevConfig {
	return MeanRevConfig{
		BandPositionMax: 0.2,
		RSIOversold:     30,
		RSIOverbought:   70,
		VolumeSpikeMin:  1.2,
		ATRPctMax:       4.0,
		StopLossPct:     1.5,
		QuickProfitPct:  2.5,
		MaxHoldHours:    4,
		MaxPositions:    2,
	}
}

func (c MeanRevConfig) validate() error {
	if c.RSIOversold <= 0 || c.RSIOversold >= c.RSIOverbought {
		return errConfig("mean_reversion", "rsi_oversold must be positive and below rsi_overbought")
	}
	if c.ATRPctMax <= 0 {
		return errConfig("mean_reversion", "atr_pct_max must be positive")
	}
	if c.MaxHoldHours <= 0 {
		return errConfig("mean_reversion", "max_hold_hours must be positive")
	}
	if c.MaxPositions < 1 {
		return errConfig("mean_reversion", "max_positions must be at least 1")
	}
	return nil
}

// MeanReversion enters when price breaches the lower volatility band with an
// oversold oscillator, a volume surge, and a calm volatility regime, then
// exits as price reverts toward the band midpoint.
type MeanReversion struct {
	cfg MeanRevConfig
}

// NewMeanReversion validates the config and builds the strategy.
func NewMeanReversion(cfg MeanRevConfig) (*MeanReversion, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &MeanReversion{cfg: cfg}, nil
}

// Meta describes the cadence this strategy needs: every candle, 5m bars.
func (m *MeanReversion) Meta() Metadata {
	return Metadata{
		Name:                    "mean_reversion",
		PreferredTimeframe:      "5m",
		EvaluationMode:          EveryBar,
		EvaluationIntervalHours: 0.5,
		MaxHoldHours:            m.cfg.MaxHoldHours,
		TypicalHoldRange:        "1-3 hours",
	}
}

// SelectSymbols ranks symbols by setup quality, keeping the best few.
func (m *MeanReversion) SelectSymbols(features map[string]*market.Series, now time.Time) []string {
	var candidates []scored
	for symbol, series := range features {
		row, ok := latestRow(series, now)
		if !ok || !m.passesEntryFilters(row) {
			continue
		}
		score := m.setupScore(row)
		if math.IsNaN(score) || score <= 0 {
			continue
		}
		candidates = append(candidates, scored{symbol: symbol, score: score})
	}
	return rankCandidates(candidates, m.cfg.MaxPositions)
}

// GenerateSignal emits LONG when the full entry filter stack passes.
func (m *MeanReversion) GenerateSignal(symbol string, features *market.Series, now time.Time) signal.Direction {
	row, ok := latestRow(features, now)
	if !ok {
		return signal.Flat
	}
	if m.passesEntryFilters(row) {
		return signal.Long
	}
	return signal.Flat
}

// GenerateAlphaSignal scores the setup quality directly as the alpha score;
// mean reversion setups here are always long.
func (m *MeanReversion) GenerateAlphaSignal(symbol string, features *market.Series, now time.Time) (signal.Signal, error) {
	row, ok := latestRow(features, now)
	if !ok {
		return signal.New(now, symbol, m.Meta().Name, 0, 0, 1, false, nil)
	}
	if !m.passesEntryFilters(row) {
		return signal.New(now, symbol, m.Meta().Name, 0, 0, 1, false, nil)
	}

	setup := m.setupScore(row)
	confidence := m.confidence(row, setup)

	metadata := map[string]float64{"setup_score": setup}
	for _, field := range []string{"band_position", "rsi", "volume_ratio", "atr_pct"} {
		if v, ok := row.Field(field); ok {
			metadata[field] = v
		}
	}
	return signal.New(now, symbol, m.Meta().Name, setup, confidence, 1, false, metadata)
}

// ShouldClosePosition exits on the first of: stop loss, reversion to the band
// midpoint in profit, overextension to the upper band, oscillator overbought,
// quick profit, or the maximum holding time.
func (m *MeanReversion) ShouldClosePosition(symbol string, features *market.Series, entryTime, now time.Time, entryPrice, currentPrice float64) bool {
	row, ok := latestRow(features, now)
	if !ok {
		return true // no data, exit for safety
	}

	pnlPct := (currentPrice - entryPrice) / entryPrice * 100

	if pnlPct < -m.cfg.StopLossPct {
		return true
	}
	if pos, ok := row.Field("band_position"); ok {
		// 0.5 is the band midpoint; reversion there in profit is the target
		if pos >= 0.4 && pos <= 0.6 && pnlPct > 0.3 {
			return true
		}
		if pos > 0.9 {
			return true
		}
	}
	if rsi, ok := row.Field("rsi"); ok && rsi > m.cfg.RSIOverbought {
		return true
	}
	if pnlPct > m.cfg.QuickProfitPct {
		return true
	}
	if now.Sub(entryTime).Hours() >= m.cfg.MaxHoldHours {
		return true
	}
	return false
}

func (m *MeanReversion) passesEntryFilters(row market.Row) bool {
	pos, ok := row.Field("band_position")
	if !ok || pos > m.cfg.BandPositionMax {
		return false
	}
	rsi, ok := row.Field("rsi")
	if !ok || rsi > m.cfg.RSIOversold {
		return false
	}
	volRatio, ok := row.Field("volume_ratio")
	if !ok || volRatio < m.cfg.VolumeSpikeMin {
		return false
	}
	atrPct, ok := row.Field("atr_pct")
	if !ok || atrPct > m.cfg.ATRPctMax {
		return false
	}
	return true
}

// setupScore weights band extremeness, oscillator extremeness, volume surge,
// and the low-volatility bonus into a 0..1 quality score.
func (m *MeanReversion) setupScore(row market.Row) float64 {
	score := 0.0
	if pos, ok := row.Field("band_position"); ok {
		score += (1.0 - pos) * 0.4
	}
	if rsi, ok := row.Field("rsi"); ok {
		rsiScore := (m.cfg.RSIOversold - rsi) / m.cfg.RSIOversold
		score += math.Max(0, rsiScore) * 0.3
	}
	if volRatio, ok := row.Field("volume_ratio"); ok {
		score += math.Min(volRatio-1.0, 1.0) * 0.2
	}
	if atrPct, ok := row.Field("atr_pct"); ok {
		volScore := 1.0 - atrPct/m.cfg.ATRPctMax
		score += math.Max(0, volScore) * 0.1
	}
	return score
}

func (m *MeanReversion) confidence(row market.Row, setup float64) float64 {
	confidence := setup
	if volRatio, ok := row.Field("volume_ratio"); ok && volRatio > 1.5 {
		confidence = math.Min(1.0, confidence*1.1)
	}
	if rsi, ok := row.Field("rsi"); ok && rsi < 25 {
		confidence = math.Min(1.0, confidence*1.1)
	}
	if atrPct, ok := row.Field("atr_pct"); ok && atrPct > 3.0 {
		confidence *= 0.9
	}
	return math.Min(1.0, math.Max(0.0, confidence))
}
