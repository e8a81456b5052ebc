package risk

import "math"

// DefaultATRMultiplier is the standard stop distance in ATRs.
const DefaultATRMultiplier = 2.0

// Sizer converts a stop distance into a notional position size.
type Sizer struct {
	// AccountSize is the total capital base.
	AccountSize float64 `yaml:"account_size"`
	// RiskPerTradePct is the share of capital put at risk per trade.
	RiskPerTradePct float64 `yaml:"risk_per_trade_pct"`
	// MaxPositionPct caps the notional of any single position.
	MaxPositionPct float64 `yaml:"max_position_pct"`
}

// NewSizer returns a sizer with 2% risk per trade and a 20% position cap.
func NewSizer(accountSize float64) Sizer {
	return Sizer{
		AccountSize:     accountSize,
		RiskPerTradePct: 2.0,
		MaxPositionPct:  20.0,
	}
}

// PositionSize returns the notional such that hitting the stop loses at most
// RiskPerTradePct of the account, capped at MaxPositionPct. Degenerate
// inputs size to zero.
func (s Sizer) PositionSize(entryPrice, stopPrice float64) float64 {
	if entryPrice <= 0 || stopPrice <= 0 {
		return 0
	}
	riskPerUnit := math.Abs(entryPrice - stopPrice)
	if riskPerUnit == 0 {
		return 0
	}
	riskAmount := s.AccountSize * s.RiskPerTradePct / 100
	size := riskAmount / riskPerUnit
	return math.Min(size, s.AccountSize*s.MaxPositionPct/100)
}

// StopLoss places the stop a multiple of the ATR below the entry.
func (s Sizer) StopLoss(entryPrice, atr, atrMultiplier float64) float64 {
	return entryPrice - atr*atrMultiplier
}
