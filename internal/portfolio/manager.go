package portfolio

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"alphasim/internal/market"
	"alphasim/internal/risk"
	"alphasim/internal/signal"
	"alphasim/internal/strategy"
)

// ItemError records a single strategy or symbol failure during signal
// collection. The manager keeps going past failures; callers inspect the
// list instead of losing the whole checkpoint.
type ItemError struct {
	Strategy string
	Symbol   string // empty when the failure was in symbol selection
	Err      error
}

func (e ItemError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("%s: %v", e.Strategy, e.Err)
	}
	return fmt.Sprintf("%s/%s: %v", e.Strategy, e.Symbol, e.Err)
}

// Position is one allocated holding at a checkpoint. StopPrice and RiskSize
// are set only when the manager carries a sizer.
type Position struct {
	Symbol     string  `json:"symbol"`
	Alpha      float64 `json:"alpha"`
	Confidence float64 `json:"confidence"`
	Allocation float64 `json:"allocation"`
	Weight     float64 `json:"weight"`
	StopPrice  float64 `json:"stop_price,omitempty"`
	RiskSize   float64 `json:"risk_size,omitempty"`
}

// Manager orchestrates a set of strategies: it collects their alpha signals
// at a checkpoint, combines them per symbol, and allocates capital.
type Manager struct {
	strategies []strategy.Strategy
	combiner   *Combiner
	allocator  *Allocator
	limits     *risk.Limits
	sizer      *risk.Sizer
	log        zerolog.Logger
}

// NewManager wires the strategies to a combiner and allocator.
func NewManager(strategies []strategy.Strategy, combiner *Combiner, allocator *Allocator, log zerolog.Logger) (*Manager, error) {
	if len(strategies) == 0 {
		return nil, fmt.Errorf("portfolio manager needs at least one strategy")
	}
	if combiner == nil || allocator == nil {
		return nil, fmt.Errorf("portfolio manager needs a combiner and an allocator")
	}
	return &Manager{
		strategies: strategies,
		combiner:   combiner,
		allocator:  allocator,
		log:        log.With().Str("component", "portfolio").Logger(),
	}, nil
}

// WithRisk applies the pre-trade filters to every strategy's candidates
// before signal generation and annotates positions with an ATR stop and the
// sizer's risk budget.
func (m *Manager) WithRisk(limits risk.Limits, sizer risk.Sizer) *Manager {
	m.limits = &limits
	m.sizer = &sizer
	return m
}

// Signals collects alpha signals from every strategy at the checkpoint and
// combines them per symbol. A failing strategy contributes an ItemError and
// the rest proceed.
func (m *Manager) Signals(features map[string]*market.Series, now time.Time) (map[string]CombinedAlpha, []ItemError) {
	var all []signal.Signal
	var errs []ItemError

	for _, strat := range m.strategies {
		name := strat.Meta().Name

		symbols, err := selectSymbols(strat, features, now)
		if err != nil {
			m.log.Warn().Str("strategy", name).Err(err).Msg("symbol selection failed")
			errs = append(errs, ItemError{Strategy: name, Err: err})
			continue
		}
		if m.limits != nil {
			before := len(symbols)
			symbols = m.limits.FilterSymbols(symbols, features, now)
			if dropped := before - len(symbols); dropped > 0 {
				m.log.Debug().Str("strategy", name).Int("dropped", dropped).Msg("risk filter dropped candidates")
			}
		}

		for _, symbol := range symbols {
			series, ok := features[symbol]
			if !ok {
				continue
			}
			sig, err := generateAlpha(strat, symbol, series, now)
			if err != nil {
				m.log.Warn().Str("strategy", name).Str("symbol", symbol).Err(err).Msg("signal generation failed")
				errs = append(errs, ItemError{Strategy: name, Symbol: symbol, Err: err})
				continue
			}
			all = append(all, sig)
		}
	}

	m.log.Debug().
		Int("signals", len(all)).
		Int("errors", len(errs)).
		Int("strategies", len(m.strategies)).
		Time("checkpoint", now).
		Msg("collected portfolio signals")

	return m.combiner.Combine(all), errs
}

// Allocate distributes capital over the combined signals.
func (m *Manager) Allocate(combined map[string]CombinedAlpha, constraints Constraints) map[string]float64 {
	return m.allocator.Allocate(combined, constraints)
}

// Positions runs the full pipeline at one checkpoint and returns the
// resulting holdings sorted by allocation descending, symbol ascending.
func (m *Manager) Positions(features map[string]*market.Series, now time.Time, constraints Constraints) ([]Position, []ItemError) {
	combined, errs := m.Signals(features, now)
	allocations := m.Allocate(combined, constraints)

	positions := make([]Position, 0, len(allocations))
	for symbol, alloc := range allocations {
		ca := combined[symbol]
		pos := Position{
			Symbol:     symbol,
			Alpha:      ca.Alpha,
			Confidence: ca.Confidence,
			Allocation: alloc,
			Weight:     alloc / m.allocator.TotalCapital(),
		}
		if m.sizer != nil {
			pos.StopPrice, pos.RiskSize = m.riskBudget(features[symbol], now)
		}
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].Allocation != positions[j].Allocation {
			return positions[i].Allocation > positions[j].Allocation
		}
		return positions[i].Symbol < positions[j].Symbol
	})

	return positions, errs
}

// riskBudget derives an ATR stop and the sizer's position budget from the
// latest row at the checkpoint. Symbols without an atr_pct feature get no
// annotation.
func (m *Manager) riskBudget(series *market.Series, now time.Time) (stop, size float64) {
	if series == nil {
		return 0, 0
	}
	row, ok := series.LatestAt(now)
	if !ok {
		return 0, 0
	}
	atrPct, ok := row.Field("atr_pct")
	if !ok || atrPct <= 0 {
		return 0, 0
	}
	atr := row.Close * atrPct / 100
	stop = m.sizer.StopLoss(row.Close, atr, risk.DefaultATRMultiplier)
	return stop, m.sizer.PositionSize(row.Close, stop)
}

// selectSymbols shields the manager from a panicking strategy.
func selectSymbols(strat strategy.Strategy, features map[string]*market.Series, now time.Time) (symbols []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			symbols, err = nil, fmt.Errorf("select symbols panicked: %v", r)
		}
	}()
	return strat.SelectSymbols(features, now), nil
}

func generateAlpha(strat strategy.Strategy, symbol string, series *market.Series, now time.Time) (sig signal.Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			sig, err = signal.Signal{}, fmt.Errorf("alpha signal panicked: %v", r)
		}
	}()
	return strategy.AlphaSignal(strat, symbol, series, now)
}
