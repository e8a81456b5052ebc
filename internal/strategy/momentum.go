package strategy

import (
	"math"
	"time"

	"alphasim/internal/market"
	"alphasim/internal/signal"
)

// MomentumConfig holds the tunable knobs for the momentum-ranking strategy.
type MomentumConfig struct {
	MinMomentumScore float64 `yaml:"min_momentum_score"`
	ExitScore        float64 `yaml:"exit_score"`
	ATRPctMax        float64 `yaml:"atr_pct_max"`
	VolumeMinZScore  float64 `yaml:"volume_min_zscore"`
	StopLossPct      float64 `yaml:"stop_loss_pct"`
	TakeProfitPct    float64 `yaml:"take_profit_pct"`
	MaxHoldHours     float64 `yaml:"max_hold_hours"`
	MaxPositions     int     `yaml:"max_positions"`
}

// DefaultMomentumConfig returns the stock parameter set.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		MinMomentumScore: 0.2,
		ExitScore:        0.1,
		ATRPctMax:        6.0,
		VolumeMinZScore:  -0.5,
		StopLossPct:      2.5,
		TakeProfitPct:    5.0,
		MaxHoldHours:     6,
		MaxPositions:     3,
	}
}

func (c MomentumConfig) validate() error {
	if c.MinMomentumScore <= 0 {
		return errConfig("momentum_rank", "min_momentum_score must be positive")
	}
	if c.ExitScore >= c.MinMomentumScore {
		return errConfig("momentum_rank", "exit_score must sit below min_momentum_score")
	}
	if c.ATRPctMax <= 0 {
		return errConfig("momentum_rank", "atr_pct_max must be positive")
	}
	if c.MaxHoldHours <= 0 {
		return errConfig("momentum_rank", "max_hold_hours must be positive")
	}
	if c.MaxPositions < 1 {
		return errConfig("momentum_rank", "max_positions must be at least 1")
	}
	return nil
}

// momentum component weights over multiple lookback horizons
var momentumWeights = []struct {
	field  string
	weight float64
}{
	{"price_momentum_1", 0.1},
	{"price_momentum_5", 0.3},
	{"price_momentum_10", 0.3},
	{"trend_histogram", 0.2},
	{"rsi_distance_50", 0.1},
}

// MomentumRank ranks symbols by a multi-timeframe weighted momentum score and
// rides the strongest until the score decays or risk limits trigger. It only
// implements the legacy ternary contract; the portfolio layer derives its
// alpha through the default adapter.
type MomentumRank struct {
	cfg MomentumConfig
}

// NewMomentumRank validates the config and builds the strategy.
func NewMomentumRank(cfg MomentumConfig) (*MomentumRank, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &MomentumRank{cfg: cfg}, nil
}

// Meta declares periodic hourly evaluation on 15m bars.
func (m *MomentumRank) Meta() Metadata {
	return Metadata{
		Name:                    "momentum_rank",
		PreferredTimeframe:      "15m",
		EvaluationMode:          Periodic,
		EvaluationIntervalHours: 1.0,
		MaxHoldHours:            m.cfg.MaxHoldHours,
		TypicalHoldRange:        "2-6 hours",
	}
}

// SelectSymbols ranks by momentum score and keeps the top positions.
func (m *MomentumRank) SelectSymbols(features map[string]*market.Series, now time.Time) []string {
	var candidates []scored
	for symbol, series := range features {
		row, ok := latestRow(series, now)
		if !ok || !m.passesFilters(row) {
			continue
		}
		score, ok := m.momentumScore(row)
		if !ok || score < m.cfg.MinMomentumScore {
			continue
		}
		candidates = append(candidates, scored{symbol: symbol, score: score})
	}
	return rankCandidates(candidates, m.cfg.MaxPositions)
}

// GenerateSignal emits LONG while the momentum score clears the entry bar.
func (m *MomentumRank) GenerateSignal(symbol string, features *market.Series, now time.Time) signal.Direction {
	row, ok := latestRow(features, now)
	if !ok || !m.passesFilters(row) {
		return signal.Flat
	}
	if score, ok := m.momentumScore(row); ok && score >= m.cfg.MinMomentumScore {
		return signal.Long
	}
	return signal.Flat
}

// ShouldClosePosition exits on stop loss, take profit, momentum decay, volume
// drying up, a volatility spike, or the maximum holding time.
func (m *MomentumRank) ShouldClosePosition(symbol string, features *market.Series, entryTime, now time.Time, entryPrice, currentPrice float64) bool {
	row, ok := latestRow(features, now)
	if !ok {
		return true
	}

	pnlPct := (currentPrice - entryPrice) / entryPrice * 100
	if pnlPct < -m.cfg.StopLossPct {
		return true
	}
	if pnlPct > m.cfg.TakeProfitPct {
		return true
	}
	if score, ok := m.momentumScore(row); ok && score < m.cfg.ExitScore {
		return true
	}
	if z, ok := row.Field("volume_zscore"); ok && z < -1.0 {
		return true
	}
	if atrPct, ok := row.Field("atr_pct"); ok && atrPct > m.cfg.ATRPctMax*1.5 {
		return true
	}
	if now.Sub(entryTime).Hours() >= m.cfg.MaxHoldHours {
		return true
	}
	return false
}

func (m *MomentumRank) passesFilters(row market.Row) bool {
	if atrPct, ok := row.Field("atr_pct"); ok && atrPct > m.cfg.ATRPctMax {
		return false
	}
	if z, ok := row.Field("volume_zscore"); ok && z < m.cfg.VolumeMinZScore {
		return false
	}
	return true
}

// momentumScore blends normalized momentum components; the second return is
// false when every component is undefined (warm-up rows).
func (m *MomentumRank) momentumScore(row market.Row) (float64, bool) {
	score := 0.0
	weightSum := 0.0
	for _, component := range momentumWeights {
		v, ok := row.Field(component.field)
		if !ok {
			continue
		}
		var normalized float64
		switch component.field {
		case "trend_histogram":
			normalized = math.Tanh(v)
		case "rsi_distance_50":
			normalized = v / 50.0
		default: // price momentum percentages
			normalized = math.Tanh(v * 10)
		}
		score += normalized * component.weight
		weightSum += component.weight
	}
	if weightSum == 0 {
		return 0, false
	}
	return score / weightSum, true
}
