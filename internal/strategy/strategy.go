// Package strategy defines the behavioural contract pluggable strategies must
// satisfy, plus the built-in implementations.
package strategy

import (
	"sort"
	"time"

	"alphasim/internal/market"
	"alphasim/internal/signal"
)

// EvaluationMode controls how often the engine asks a strategy for decisions.
type EvaluationMode string

const (
	// EveryBar forces bar-by-bar checkpoints: the strategy sees every candle.
	EveryBar EvaluationMode = "every_bar"
	// Periodic checks at a fixed interval declared in Metadata.
	Periodic EvaluationMode = "periodic"
)

// Metadata is the static description the engine reads to auto-configure
// checkpoint spacing and the holding-time safety cap.
type Metadata struct {
	Name                    string
	PreferredTimeframe      string
	EvaluationMode          EvaluationMode
	EvaluationIntervalHours float64
	MaxHoldHours            float64
	TypicalHoldRange        string
}

// Strategy is the legacy behavioural contract: symbol selection, a ternary
// entry signal, and an exit decision for open positions. Implementations are
// stateless, read-only consumers of the feature series.
type Strategy interface {
	Meta() Metadata
	SelectSymbols(features map[string]*market.Series, now time.Time) []string
	GenerateSignal(symbol string, features *market.Series, now time.Time) signal.Direction
	ShouldClosePosition(symbol string, features *market.Series, entryTime, now time.Time, entryPrice, currentPrice float64) bool
}

// AlphaStrategy is the richer contract returning a continuous score with a
// confidence. Strategies that do not implement it get the default adapter.
type AlphaStrategy interface {
	Strategy
	GenerateAlphaSignal(symbol string, features *market.Series, now time.Time) (signal.Signal, error)
}

// AlphaSignal returns a continuous signal for the symbol, either from the
// strategy's own alpha implementation or derived from its ternary signal.
func AlphaSignal(s Strategy, symbol string, features *market.Series, now time.Time) (signal.Signal, error) {
	if alpha, ok := s.(AlphaStrategy); ok {
		return alpha.GenerateAlphaSignal(symbol, features, now)
	}
	dir := s.GenerateSignal(symbol, features, now)
	horizonDays := horizonFromHold(s.Meta().MaxHoldHours)
	return signal.FromDirection(now, symbol, s.Meta().Name, dir, horizonDays), nil
}

func horizonFromHold(maxHoldHours float64) int {
	days := int(maxHoldHours / 24)
	if days < 1 {
		days = 1
	}
	return days
}

// latestRow returns the last feature row at or before now, the shared
// walk-forward lookup every strategy uses (no lookahead).
func latestRow(features *market.Series, now time.Time) (market.Row, bool) {
	if features == nil || features.Len() == 0 {
		return market.Row{}, false
	}
	return features.LatestAt(now)
}

// scored pairs a candidate symbol with its ranking score.
type scored struct {
	symbol string
	score  float64
}

// rankCandidates sorts by score descending, ties broken by symbol so runs are
// deterministic regardless of map iteration order, and keeps the top n.
func rankCandidates(candidates []scored, n int) []string {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].symbol < candidates[j].symbol
	})
	if n > 0 && len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.symbol
	}
	return out
}
