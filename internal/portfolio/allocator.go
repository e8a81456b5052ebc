package portfolio

import (
	"fmt"
	"math"
	"sort"
)

// AllocMethod names a capital allocation policy.
type AllocMethod string

const (
	// Proportional sizes positions proportional to alpha.
	Proportional AllocMethod = "proportional"
	// EqualWeight splits capital evenly across all positive-alpha symbols.
	EqualWeight AllocMethod = "equal_weight"
	// TopN splits capital evenly across the N strongest alphas.
	TopN AllocMethod = "top_n"
	// Threshold sizes positions in conviction tiers.
	Threshold AllocMethod = "threshold"
)

// AllocMethods lists every supported allocation policy.
func AllocMethods() []AllocMethod {
	return []AllocMethod{Proportional, EqualWeight, TopN, Threshold}
}

// Conviction tier boundaries and weights for the threshold method.
const (
	highConvictionAlpha    = 0.5
	mediumConvictionAlpha  = 0.3
	highConvictionWeight   = 2.0
	mediumConvictionWeight = 1.5
	lowConvictionWeight    = 1.0
)

// Constraints bound the allocation. A zero MinPositionPct or
// MinAlphaThreshold disables that filter; a zero MaxPositionPct or TopN
// falls back to the DefaultConstraints value, and a zero MaxPositions means
// unlimited.
type Constraints struct {
	// MaxPositionPct caps each position as a fraction of total capital.
	MaxPositionPct float64 `yaml:"max_position_pct"`
	// MinPositionPct is the floor below which a position is dropped entirely,
	// never padded up.
	MinPositionPct float64 `yaml:"min_position_pct"`
	// MaxPositions limits the position count; zero means no limit.
	MaxPositions int `yaml:"max_positions"`
	// MinAlphaThreshold filters out symbols whose |alpha| is below it.
	MinAlphaThreshold float64 `yaml:"min_alpha_threshold"`
	// TopN is the position count for the top_n method.
	TopN int `yaml:"top_n"`
}

// DefaultConstraints returns the standard bounds: 20% cap, 1% floor, 0.1
// alpha filter, top 10.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxPositionPct:    0.20,
		MinPositionPct:    0.01,
		MinAlphaThreshold: 0.1,
		TopN:              10,
	}
}

// withDefaults fills only the knobs where zero is meaningless: a 0% cap
// would zero every position and a top-0 cut would select nothing. Zero
// floor and alpha thresholds are valid settings and pass through.
func (c Constraints) withDefaults() Constraints {
	d := DefaultConstraints()
	if c.MaxPositionPct == 0 {
		c.MaxPositionPct = d.MaxPositionPct
	}
	if c.TopN == 0 {
		c.TopN = d.TopN
	}
	return c
}

// Allocator converts combined alphas into dollar allocations. Long-only:
// negative-alpha symbols never receive capital.
type Allocator struct {
	method  AllocMethod
	capital float64
}

// NewAllocator validates the method and capital.
func NewAllocator(method AllocMethod, totalCapital float64) (*Allocator, error) {
	switch method {
	case Proportional, EqualWeight, TopN, Threshold:
	default:
		return nil, fmt.Errorf("unknown allocation method %q", method)
	}
	if totalCapital <= 0 {
		return nil, fmt.Errorf("total capital must be positive, got %v", totalCapital)
	}
	return &Allocator{method: method, capital: totalCapital}, nil
}

// Method returns the configured allocation policy.
func (a *Allocator) Method() AllocMethod { return a.method }

// TotalCapital returns the capital pool the allocator distributes.
func (a *Allocator) TotalCapital() float64 { return a.capital }

// Allocate maps combined alphas to dollar allocations under the constraints.
// An empty result means nothing cleared the filters, which is a valid outcome.
func (a *Allocator) Allocate(combined map[string]CombinedAlpha, constraints Constraints) map[string]float64 {
	constraints = constraints.withDefaults()

	filtered := make(map[string]CombinedAlpha, len(combined))
	for symbol, ca := range combined {
		if math.Abs(ca.Alpha) >= constraints.MinAlphaThreshold {
			filtered[symbol] = ca
		}
	}
	if len(filtered) == 0 {
		return map[string]float64{}
	}

	var raw map[string]float64
	switch a.method {
	case Proportional:
		raw = a.proportional(filtered)
	case EqualWeight:
		raw = a.equalWeight(filtered)
	case TopN:
		raw = a.topN(filtered, constraints.TopN)
	case Threshold:
		raw = a.threshold(filtered)
	}

	return a.applyConstraints(raw, constraints)
}

func (a *Allocator) proportional(alphas map[string]CombinedAlpha) map[string]float64 {
	var totalAlpha float64
	for _, ca := range alphas {
		if ca.Alpha > 0 {
			totalAlpha += ca.Alpha
		}
	}
	if totalAlpha == 0 {
		return map[string]float64{}
	}
	out := make(map[string]float64)
	for symbol, ca := range alphas {
		if ca.Alpha > 0 {
			out[symbol] = ca.Alpha / totalAlpha * a.capital
		}
	}
	return out
}

func (a *Allocator) equalWeight(alphas map[string]CombinedAlpha) map[string]float64 {
	var longs []string
	for symbol, ca := range alphas {
		if ca.Alpha > 0 {
			longs = append(longs, symbol)
		}
	}
	if len(longs) == 0 {
		return map[string]float64{}
	}
	per := a.capital / float64(len(longs))
	out := make(map[string]float64, len(longs))
	for _, symbol := range longs {
		out[symbol] = per
	}
	return out
}

func (a *Allocator) topN(alphas map[string]CombinedAlpha, n int) map[string]float64 {
	type ranked struct {
		symbol string
		alpha  float64
	}
	all := make([]ranked, 0, len(alphas))
	for symbol, ca := range alphas {
		all = append(all, ranked{symbol: symbol, alpha: ca.Alpha})
	}
	// |alpha| descending, symbol ascending for a stable cut
	sort.Slice(all, func(i, j int) bool {
		ai, aj := math.Abs(all[i].alpha), math.Abs(all[j].alpha)
		if ai != aj {
			return ai > aj
		}
		return all[i].symbol < all[j].symbol
	})
	if n < len(all) {
		all = all[:n]
	}

	var longs []string
	for _, r := range all {
		if r.alpha > 0 {
			longs = append(longs, r.symbol)
		}
	}
	if len(longs) == 0 {
		return map[string]float64{}
	}
	per := a.capital / float64(len(longs))
	out := make(map[string]float64, len(longs))
	for _, symbol := range longs {
		out[symbol] = per
	}
	return out
}

func (a *Allocator) threshold(alphas map[string]CombinedAlpha) map[string]float64 {
	weights := make(map[string]float64)
	var totalUnits float64
	for symbol, ca := range alphas {
		if ca.Alpha <= 0 {
			continue
		}
		w := lowConvictionWeight
		switch {
		case ca.Alpha > highConvictionAlpha:
			w = highConvictionWeight
		case ca.Alpha > mediumConvictionAlpha:
			w = mediumConvictionWeight
		}
		weights[symbol] = w
		totalUnits += w
	}
	if totalUnits == 0 {
		return map[string]float64{}
	}
	unit := a.capital / totalUnits
	out := make(map[string]float64, len(weights))
	for symbol, w := range weights {
		out[symbol] = unit * w
	}
	return out
}

// applyConstraints enforces the floor, cap, and position count, then scales
// the survivors back up to full capital. The scale-up respects the cap: a
// plain rescale could push clipped positions back over it, so capped
// positions stay pinned at the cap and only the remainder is redistributed.
func (a *Allocator) applyConstraints(allocations map[string]float64, constraints Constraints) map[string]float64 {
	if len(allocations) == 0 {
		return map[string]float64{}
	}

	maxValue := a.capital * constraints.MaxPositionPct
	minValue := a.capital * constraints.MinPositionPct

	constrained := make(map[string]float64)
	for symbol, alloc := range allocations {
		if alloc < minValue {
			continue // dropped, not padded to the floor
		}
		constrained[symbol] = math.Min(alloc, maxValue)
	}
	if len(constrained) == 0 {
		return map[string]float64{}
	}

	if constraints.MaxPositions > 0 && len(constrained) > constraints.MaxPositions {
		type sized struct {
			symbol string
			alloc  float64
		}
		all := make([]sized, 0, len(constrained))
		for symbol, alloc := range constrained {
			all = append(all, sized{symbol: symbol, alloc: alloc})
		}
		sort.Slice(all, func(i, j int) bool {
			if all[i].alloc != all[j].alloc {
				return all[i].alloc > all[j].alloc
			}
			return all[i].symbol < all[j].symbol
		})
		kept := make(map[string]float64, constraints.MaxPositions)
		for _, s := range all[:constraints.MaxPositions] {
			kept[s.symbol] = s.alloc
		}
		constrained = kept
	}

	return a.renormalize(constrained, maxValue)
}

// renormalize scales allocations to sum to total capital without letting any
// position exceed maxValue. Positions that hit the cap are frozen there and
// the shortfall is redistributed among the rest until stable. When every
// position is capped the sum stays below capital; the residual is cash.
func (a *Allocator) renormalize(allocations map[string]float64, maxValue float64) map[string]float64 {
	out := make(map[string]float64, len(allocations))
	capped := make(map[string]bool, len(allocations))
	for symbol, alloc := range allocations {
		out[symbol] = alloc
	}

	for range allocations {
		var cappedTotal, uncappedTotal float64
		for symbol, alloc := range out {
			if capped[symbol] {
				cappedTotal += alloc
			} else {
				uncappedTotal += alloc
			}
		}
		remaining := a.capital - cappedTotal
		if uncappedTotal == 0 || remaining <= 0 {
			break
		}

		scale := remaining / uncappedTotal
		overflowed := false
		for symbol, alloc := range out {
			if capped[symbol] {
				continue
			}
			scaled := alloc * scale
			if scaled >= maxValue {
				out[symbol] = maxValue
				capped[symbol] = true
				overflowed = true
			} else {
				out[symbol] = scaled
			}
		}
		if !overflowed {
			break
		}
	}
	return out
}
