// Package portfolio combines multiple strategies' signals into per-symbol
// alpha scores and turns them into capital allocations.
package portfolio

import (
	"fmt"

	"alphasim/internal/signal"
)

// CombineMethod names a signal combination policy.
type CombineMethod string

const (
	// Weighted averages alpha scores using per-strategy weights.
	Weighted CombineMethod = "weighted"
	// ConfidenceWeighted weights each signal by its own confidence.
	ConfidenceWeighted CombineMethod = "confidence_weighted"
	// RankAverage takes the plain mean of alphas and confidences.
	RankAverage CombineMethod = "rank_average"
	// BestStrategy uses the single highest-confidence signal.
	BestStrategy CombineMethod = "best_strategy"
)

// CombineMethods lists every supported combination policy.
func CombineMethods() []CombineMethod {
	return []CombineMethod{Weighted, ConfidenceWeighted, RankAverage, BestStrategy}
}

// CombinedAlpha is the reduced (alpha, confidence) pair for one symbol.
type CombinedAlpha struct {
	Alpha      float64
	Confidence float64
}

// Combiner reduces per-checkpoint signals from many strategies to one
// combined alpha per symbol.
type Combiner struct {
	method  CombineMethod
	weights map[string]float64 // strategy name -> weight, default 1.0
}

// NewCombiner validates the method name; an unknown method is a programming
// error and fails immediately.
func NewCombiner(method CombineMethod, strategyWeights map[string]float64) (*Combiner, error) {
	switch method {
	case Weighted, ConfidenceWeighted, RankAverage, BestStrategy:
	default:
		return nil, fmt.Errorf("unknown combination method %q", method)
	}
	weights := make(map[string]float64, len(strategyWeights))
	for name, w := range strategyWeights {
		weights[name] = w
	}
	return &Combiner{method: method, weights: weights}, nil
}

// Method returns the configured combination policy.
func (c *Combiner) Method() CombineMethod { return c.method }

// Combine groups signals by symbol and reduces each group by the configured
// policy.
func (c *Combiner) Combine(signals []signal.Signal) map[string]CombinedAlpha {
	if len(signals) == 0 {
		return map[string]CombinedAlpha{}
	}

	bySymbol := make(map[string][]signal.Signal)
	for _, s := range signals {
		bySymbol[s.Symbol] = append(bySymbol[s.Symbol], s)
	}

	combined := make(map[string]CombinedAlpha, len(bySymbol))
	for symbol, group := range bySymbol {
		switch c.method {
		case Weighted:
			combined[symbol] = c.weightedAverage(group)
		case ConfidenceWeighted:
			combined[symbol] = confidenceWeighted(group)
		case RankAverage:
			combined[symbol] = rankAverage(group)
		case BestStrategy:
			combined[symbol] = bestStrategy(group)
		}
	}
	return combined
}

func (c *Combiner) weightedAverage(group []signal.Signal) CombinedAlpha {
	var totalWeight, alpha, confidence float64
	for _, s := range group {
		weight, ok := c.weights[s.Strategy]
		if !ok {
			weight = 1.0
		}
		alpha += s.Alpha * weight
		confidence += s.Confidence * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return CombinedAlpha{}
	}
	return CombinedAlpha{Alpha: alpha / totalWeight, Confidence: confidence / totalWeight}
}

func confidenceWeighted(group []signal.Signal) CombinedAlpha {
	var totalConfidence, alpha float64
	for _, s := range group {
		totalConfidence += s.Confidence
		alpha += s.Alpha * s.Confidence
	}
	if totalConfidence == 0 {
		return CombinedAlpha{}
	}
	return CombinedAlpha{
		Alpha:      alpha / totalConfidence,
		Confidence: totalConfidence / float64(len(group)),
	}
}

func rankAverage(group []signal.Signal) CombinedAlpha {
	var alpha, confidence float64
	for _, s := range group {
		alpha += s.Alpha
		confidence += s.Confidence
	}
	n := float64(len(group))
	return CombinedAlpha{Alpha: alpha / n, Confidence: confidence / n}
}

func bestStrategy(group []signal.Signal) CombinedAlpha {
	best := group[0]
	for _, s := range group[1:] {
		if s.Confidence > best.Confidence {
			best = s
		}
	}
	return CombinedAlpha{Alpha: best.Alpha, Confidence: best.Confidence}
}
