// Package engine drives the walk-forward simulation: it advances a simulated
// clock across feature series, asks the strategy for decisions at each
// checkpoint, and materializes trades through the evaluator. Execution is
// single-threaded and deterministic; the trade list is the only mutated
// state and is owned by the run.
package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"alphasim/internal/market"
	"alphasim/internal/metrics"
	"alphasim/internal/signal"
	"alphasim/internal/strategy"
)

// barByBarShiftHours is the threshold below which checkpoints become the
// union of all bar timestamps instead of a fixed-interval sequence.
const barByBarShiftHours = 0.5

// defaultMaxCheckpoints caps a single run so a degenerate shift can never
// spin forever.
const defaultMaxCheckpoints = 1_000_000

// Config holds the engine knobs.
type Config struct {
	// WindowHours is the safety cap on holding duration (legacy fixed-window
	// exits close exactly here).
	WindowHours float64
	// ShiftHours spaces the checkpoints; at or below 0.5 the engine switches
	// to bar-by-bar mode.
	ShiftHours float64
	// FeeBps is the per-leg fee in basis points, charged on entry and exit.
	FeeBps float64
	// SlippageBps is a one-way cost in basis points, charged once.
	SlippageBps float64
	// ExitPolicy selects strategy-driven or fixed-window exits.
	ExitPolicy ExitPolicy
	// MaxCheckpoints bounds the run; zero means the default cap.
	MaxCheckpoints int
}

func (c Config) validate() error {
	if c.WindowHours <= 0 {
		return fmt.Errorf("engine config: window hours must be positive, got %v", c.WindowHours)
	}
	if c.FeeBps < 0 || c.SlippageBps < 0 {
		return fmt.Errorf("engine config: fees and slippage cannot be negative")
	}
	if c.MaxCheckpoints < 0 {
		return fmt.Errorf("engine config: max checkpoints cannot be negative")
	}
	switch c.ExitPolicy {
	case "", ExitByStrategy, ExitByWindow:
	default:
		return fmt.Errorf("engine config: unknown exit policy %q", c.ExitPolicy)
	}
	return nil
}

// Engine runs walk-forward backtests. One engine may serve many runs; each
// run accumulates its own trade list.
type Engine struct {
	cfg Config
	ev  evaluator
	log zerolog.Logger
}

// New validates the config and builds an engine.
func New(cfg Config, log zerolog.Logger) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.ExitPolicy == "" {
		cfg.ExitPolicy = ExitByStrategy
	}
	if cfg.MaxCheckpoints == 0 {
		cfg.MaxCheckpoints = defaultMaxCheckpoints
	}
	return &Engine{
		cfg: cfg,
		ev: evaluator{
			windowHours: cfg.WindowHours,
			feeBps:      cfg.FeeBps,
			slippageBps: cfg.SlippageBps,
			policy:      cfg.ExitPolicy,
		},
		log: log.With().Str("component", "engine").Logger(),
	}, nil
}

// FromStrategy builds an engine auto-configured from the strategy's metadata:
// every-bar strategies get a small shift to force bar-by-bar mode, periodic
// ones use their declared interval. The holding cap comes from the metadata
// unless base.WindowHours overrides it; costs, exit policy, and the
// checkpoint cap carry over from base untouched.
func FromStrategy(strat strategy.Strategy, base Config, log zerolog.Logger) (*Engine, error) {
	meta := strat.Meta()

	if base.WindowHours <= 0 {
		base.WindowHours = meta.MaxHoldHours
	}

	base.ShiftHours = meta.EvaluationIntervalHours
	if meta.EvaluationMode == strategy.EveryBar {
		base.ShiftHours = 0.1
	}

	return New(base, log)
}

// Run walks the simulated clock from start to end and returns the realized
// trades in strict checkpoint-then-selection order. Re-running with identical
// inputs yields an identical trade list. A run producing zero trades is a
// valid, successful result.
func (e *Engine) Run(strat strategy.Strategy, features map[string]*market.Series, start, end time.Time) ([]Trade, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("engine run: end %s before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	checkpoints, err := e.checkpoints(features, start, end)
	if err != nil {
		return nil, err
	}

	name := strat.Meta().Name
	e.log.Debug().
		Str("strategy", name).
		Int("checkpoints", len(checkpoints)).
		Time("start", start).
		Time("end", end).
		Msg("walk-forward run starting")

	var trades []Trade
	for _, checkpoint := range checkpoints {
		metrics.CheckpointsTotal.WithLabelValues(name).Inc()

		// the strategy owns the candidate ranking; the engine keeps its order
		for _, symbol := range strat.SelectSymbols(features, checkpoint) {
			series, ok := features[symbol]
			if !ok {
				// partial data coverage is expected, skip silently
				metrics.SkippedCandidatesTotal.WithLabelValues(name, "missing_symbol").Inc()
				continue
			}

			dir := strat.GenerateSignal(symbol, series, checkpoint)
			metrics.SignalsTotal.WithLabelValues(name, string(dir)).Inc()
			if dir != signal.Long {
				continue
			}

			trade, ok := e.ev.evaluate(strat, symbol, series, checkpoint, end)
			if !ok {
				metrics.SkippedCandidatesTotal.WithLabelValues(name, "unresolvable_trade").Inc()
				continue
			}
			metrics.TradesTotal.WithLabelValues(name, string(trade.ExitReason)).Inc()
			trades = append(trades, trade)
		}
	}

	e.log.Info().
		Str("strategy", name).
		Int("checkpoints", len(checkpoints)).
		Int("trades", len(trades)).
		Msg("walk-forward run complete")
	return trades, nil
}

// checkpoints produces the simulated-clock instants for [start, end]. In
// bar-by-bar mode they are the sorted union of all bar timestamps in range;
// otherwise a fixed-interval sequence from start to end inclusive.
func (e *Engine) checkpoints(features map[string]*market.Series, start, end time.Time) ([]time.Time, error) {
	if e.cfg.ShiftHours <= barByBarShiftHours {
		union := market.UnionTimestamps(features, start, end)
		if len(union) > e.cfg.MaxCheckpoints {
			return nil, fmt.Errorf("engine run: %d bar-by-bar checkpoints exceed cap %d", len(union), e.cfg.MaxCheckpoints)
		}
		return union, nil
	}

	shift := hoursToDuration(e.cfg.ShiftHours)
	var out []time.Time
	for ts := start; !ts.After(end); ts = ts.Add(shift) {
		if len(out) >= e.cfg.MaxCheckpoints {
			return nil, fmt.Errorf("engine run: fixed-interval checkpoints exceed cap %d (shift %vh)", e.cfg.MaxCheckpoints, e.cfg.ShiftHours)
		}
		out = append(out, ts)
	}
	return out, nil
}
