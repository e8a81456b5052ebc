// Package signal standardizes payloads shared between strategies, the engine,
// and the portfolio layer.
package signal

import (
	"fmt"
	"time"
)

// Direction is the legacy ternary trading bias.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
	Flat  Direction = "FLAT"
)

// Alpha thresholds mapping a continuous score onto the ternary directions.
const (
	LongThreshold  = 0.2
	ShortThreshold = -0.2
)

// Signal expresses a strategy's continuous-valued conviction about a symbol.
// Alpha and Confidence are range-checked at construction; an out-of-range
// value indicates a strategy bug and is rejected, never clamped.
type Signal struct {
	Ts                 time.Time
	Symbol             string
	Strategy           string
	Alpha              float64 // [-1, 1]
	Confidence         float64 // [0, 1]
	HorizonDays        int     // >= 1
	VolatilityAdjusted bool
	Metadata           map[string]float64
}

// New validates ranges and returns a signal. Metadata may be nil.
func New(ts time.Time, symbol, strategy string, alpha, confidence float64, horizonDays int, volAdjusted bool, metadata map[string]float64) (Signal, error) {
	if alpha < -1 || alpha > 1 {
		return Signal{}, fmt.Errorf("alpha score %.4f outside [-1, 1] for %s", alpha, symbol)
	}
	if confidence < 0 || confidence > 1 {
		return Signal{}, fmt.Errorf("confidence %.4f outside [0, 1] for %s", confidence, symbol)
	}
	if horizonDays < 1 {
		return Signal{}, fmt.Errorf("horizon %d days below minimum of 1 for %s", horizonDays, symbol)
	}
	return Signal{
		Ts:                 ts,
		Symbol:             symbol,
		Strategy:           strategy,
		Alpha:              alpha,
		Confidence:         confidence,
		HorizonDays:        horizonDays,
		VolatilityAdjusted: volAdjusted,
		Metadata:           metadata,
	}, nil
}

// Direction maps the alpha score onto the legacy ternary signal:
// above 0.2 is LONG, below -0.2 is SHORT, everything else FLAT.
func (s Signal) Direction() Direction {
	switch {
	case s.Alpha > LongThreshold:
		return Long
	case s.Alpha < ShortThreshold:
		return Short
	default:
		return Flat
	}
}

// FromDirection derives a default continuous signal from a ternary one:
// LONG maps to 0.5 alpha, SHORT to -0.5, FLAT to 0, all at 0.5 confidence.
// Used for strategies that only implement the legacy interface.
func FromDirection(ts time.Time, symbol, strategy string, dir Direction, horizonDays int) Signal {
	alpha := 0.0
	switch dir {
	case Long:
		alpha = 0.5
	case Short:
		alpha = -0.5
	}
	if horizonDays < 1 {
		horizonDays = 1
	}
	return Signal{
		Ts:          ts,
		Symbol:      symbol,
		Strategy:    strategy,
		Alpha:       alpha,
		Confidence:  0.5,
		HorizonDays: horizonDays,
	}
}
