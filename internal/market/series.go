// Package market holds the in-memory price and feature series consumed by the
// backtest engine. Series are produced externally (ingestion is out of scope),
// validated once at construction, and read-only afterwards.
package market

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Bar is a single OHLCV observation at a fixed timeframe.
type Bar struct {
	Ts     time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Validate checks the OHLCV invariants: high covers open/close/low, low sits
// under open/close/high, prices are positive, volume is non-negative.
func (b Bar) Validate() error {
	if b.Ts.IsZero() {
		return fmt.Errorf("bar has zero timestamp")
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("bar at %s has non-positive price", b.Ts.Format(time.RFC3339))
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar at %s has negative volume", b.Ts.Format(time.RFC3339))
	}
	if b.High < b.Open || b.High < b.Close || b.High < b.Low {
		return fmt.Errorf("bar at %s: high %.8f below open/close/low", b.Ts.Format(time.RFC3339), b.High)
	}
	if b.Low > b.Open || b.Low > b.Close {
		return fmt.Errorf("bar at %s: low %.8f above open/close", b.Ts.Format(time.RFC3339), b.Low)
	}
	return nil
}

// Row is a Bar extended with derived feature fields. A field holding NaN is
// undefined (rolling-window warm-up); consumers must treat it as absent.
type Row struct {
	Bar
	Fields map[string]float64
}

// Field returns a derived field value. The second return is false when the
// field is missing or NaN, which callers must treat as "cannot evaluate".
func (r Row) Field(name string) (float64, bool) {
	v, ok := r.Fields[name]
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Series is a time-ordered, immutable sequence of feature rows for one symbol.
type Series struct {
	rows []Row
}

// NewSeries validates ordering, timestamp uniqueness, and bar invariants, and
// returns a series owning a copy of the rows.
func NewSeries(rows []Row) (*Series, error) {
	owned := make([]Row, len(rows))
	copy(owned, rows)
	for i, row := range owned {
		if err := row.Bar.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if i > 0 && !owned[i-1].Ts.Before(row.Ts) {
			return nil, fmt.Errorf("row %d: timestamp %s not after %s",
				i, row.Ts.Format(time.RFC3339), owned[i-1].Ts.Format(time.RFC3339))
		}
	}
	return &Series{rows: owned}, nil
}

// Len returns the number of rows.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rows)
}

// Row returns the row at index i.
func (s *Series) Row(i int) Row { return s.rows[i] }

// At returns the row whose timestamp exactly equals ts.
func (s *Series) At(ts time.Time) (Row, bool) {
	i := s.searchFirstNotBefore(ts)
	if i < len(s.rows) && s.rows[i].Ts.Equal(ts) {
		return s.rows[i], true
	}
	return Row{}, false
}

// LatestAt returns the last row at or before ts.
func (s *Series) LatestAt(ts time.Time) (Row, bool) {
	i := s.searchFirstAfter(ts)
	if i == 0 {
		return Row{}, false
	}
	return s.rows[i-1], true
}

// Between returns rows with from <= ts <= to, in chronological order. The
// returned slice aliases the series storage and must not be mutated.
func (s *Series) Between(from, to time.Time) []Row {
	if s == nil {
		return nil
	}
	lo := s.searchFirstNotBefore(from)
	hi := s.searchFirstAfter(to)
	if lo >= hi {
		return nil
	}
	return s.rows[lo:hi]
}

// After returns rows strictly after ts and at or before max.
func (s *Series) After(ts, max time.Time) []Row {
	if s == nil {
		return nil
	}
	lo := s.searchFirstAfter(ts)
	hi := s.searchFirstAfter(max)
	if lo >= hi {
		return nil
	}
	return s.rows[lo:hi]
}

// Timestamps returns a copy of every row timestamp.
func (s *Series) Timestamps() []time.Time {
	out := make([]time.Time, len(s.rows))
	for i, row := range s.rows {
		out[i] = row.Ts
	}
	return out
}

// first index with rows[i].Ts >= ts
func (s *Series) searchFirstNotBefore(ts time.Time) int {
	return sort.Search(len(s.rows), func(i int) bool { return !s.rows[i].Ts.Before(ts) })
}

// first index with rows[i].Ts > ts
func (s *Series) searchFirstAfter(ts time.Time) int {
	return sort.Search(len(s.rows), func(i int) bool { return s.rows[i].Ts.After(ts) })
}

// UnionTimestamps merges the timestamps of every series in the map that fall
// within [from, to], deduplicated and sorted ascending. Used for bar-by-bar
// checkpoint generation.
func UnionTimestamps(bySymbol map[string]*Series, from, to time.Time) []time.Time {
	seen := make(map[int64]time.Time)
	for _, series := range bySymbol {
		if series == nil {
			continue
		}
		for _, row := range series.Between(from, to) {
			seen[row.Ts.UnixNano()] = row.Ts
		}
	}
	out := make([]time.Time, 0, len(seen))
	for _, ts := range seen {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
