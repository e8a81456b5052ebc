package portfolio

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"alphasim/internal/market"
	"alphasim/internal/stats"
	"alphasim/internal/strategy"
)

// CombinationResult holds the time-series metrics one combination method
// produced over the evaluation timestamps.
type CombinationResult struct {
	Method  CombineMethod       `json:"combination_method"`
	Metrics stats.SeriesMetrics `json:"metrics"`
}

// AllocationResult describes the allocation profile one method produced for
// a single set of combined alphas.
type AllocationResult struct {
	Method               AllocMethod `json:"allocation_method"`
	Positions            int         `json:"num_positions"`
	TotalAllocated       float64     `json:"total_allocated"`
	PctAllocated         float64     `json:"pct_allocated"`
	DiversificationScore float64     `json:"diversification_score"`
	MaxPositionWeight    float64     `json:"max_position_weight"`
	MinPositionWeight    float64     `json:"min_position_weight"`
}

// Evaluator compares combination and allocation methods against each other.
type Evaluator struct {
	series stats.SeriesEvaluator
	log    zerolog.Logger
}

// NewEvaluator builds an evaluator with the default series metrics settings.
func NewEvaluator(log zerolog.Logger) *Evaluator {
	return &Evaluator{
		series: stats.NewSeriesEvaluator(),
		log:    log.With().Str("component", "portfolio_eval").Logger(),
	}
}

// CompareCombinations re-runs the portfolio pipeline over the timestamps
// once per combination method, tracks total allocated value as a portfolio
// proxy, and scores its return series. Results come back sorted by Sharpe
// descending. A checkpoint where nothing allocates holds the full capital
// in cash.
func (e *Evaluator) CompareCombinations(
	strategies []strategy.Strategy,
	features map[string]*market.Series,
	timestamps []time.Time,
	totalCapital float64,
	constraints Constraints,
) ([]CombinationResult, error) {
	results := make([]CombinationResult, 0, len(CombineMethods()))

	for _, method := range CombineMethods() {
		combiner, err := NewCombiner(method, nil)
		if err != nil {
			return nil, err
		}
		allocator, err := NewAllocator(Proportional, totalCapital)
		if err != nil {
			return nil, err
		}
		manager, err := NewManager(strategies, combiner, allocator, e.log)
		if err != nil {
			return nil, err
		}

		values := make([]float64, 0, len(timestamps))
		for _, ts := range timestamps {
			positions, itemErrs := manager.Positions(features, ts, constraints)
			if len(itemErrs) > 0 {
				e.log.Debug().
					Str("method", string(method)).
					Time("checkpoint", ts).
					Int("errors", len(itemErrs)).
					Msg("checkpoint had item errors")
			}
			value := totalCapital
			if len(positions) > 0 {
				value = 0
				for _, p := range positions {
					value += p.Allocation
				}
			}
			values = append(values, value)
		}

		returns := make([]float64, 0, len(values))
		for i := 1; i < len(values); i++ {
			if values[i-1] == 0 {
				returns = append(returns, 0)
				continue
			}
			returns = append(returns, (values[i]-values[i-1])/values[i-1]*100)
		}

		var returnTimes []time.Time
		if len(timestamps) > 1 {
			returnTimes = timestamps[1:]
		}
		results = append(results, CombinationResult{
			Method:  method,
			Metrics: e.series.Evaluate(returns, returnTimes),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Metrics.SharpeRatio != results[j].Metrics.SharpeRatio {
			return results[i].Metrics.SharpeRatio > results[j].Metrics.SharpeRatio
		}
		return results[i].Method < results[j].Method
	})
	return results, nil
}

// CompareAllocations applies every allocation method to the same combined
// alphas and reports each resulting allocation profile.
func (e *Evaluator) CompareAllocations(combined map[string]CombinedAlpha, totalCapital float64, constraints Constraints) ([]AllocationResult, error) {
	results := make([]AllocationResult, 0, len(AllocMethods()))

	for _, method := range AllocMethods() {
		allocator, err := NewAllocator(method, totalCapital)
		if err != nil {
			return nil, err
		}
		allocations := allocator.Allocate(combined, constraints)

		res := AllocationResult{Method: method, Positions: len(allocations)}
		for _, alloc := range allocations {
			res.TotalAllocated += alloc
		}
		res.PctAllocated = res.TotalAllocated / totalCapital * 100
		res.DiversificationScore = DiversificationScore(allocations, totalCapital)

		if len(allocations) > 0 {
			first := true
			for _, alloc := range allocations {
				w := alloc / totalCapital * 100
				if first || w > res.MaxPositionWeight {
					res.MaxPositionWeight = w
				}
				if first || w < res.MinPositionWeight {
					res.MinPositionWeight = w
				}
				first = false
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// DiversificationScore is the normalized inverse Herfindahl index of the
// allocation weights: 1 means perfectly even, 0 means a single position.
func DiversificationScore(allocations map[string]float64, totalCapital float64) float64 {
	n := len(allocations)
	if n <= 1 {
		return 0
	}
	var hhi float64
	for _, alloc := range allocations {
		w := alloc / totalCapital
		hhi += w * w
	}
	return (1 - hhi) / (1 - 1/float64(n))
}
