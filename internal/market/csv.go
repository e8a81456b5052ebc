package market

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadCSV reads a feature table from disk. The header must contain timestamp,
// open, high, low, close, and volume; every remaining column becomes a derived
// feature field. Empty or "nan" cells map to NaN (undefined warm-up values).
// Timestamps are RFC3339 or unix seconds, always treated as UTC.
func LoadCSV(path string) (*Series, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open series: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read series: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("%s: empty file", path)
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"timestamp", "open", "high", "low", "close", "volume"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, required)
		}
	}

	rows := make([]Row, 0, len(records)-1)
	for line, record := range records[1:] {
		ts, err := parseTimestamp(record[index["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line+2, err)
		}
		bar := Bar{Ts: ts}
		if bar.Open, err = parsePrice(record[index["open"]]); err != nil {
			return nil, fmt.Errorf("%s line %d open: %w", path, line+2, err)
		}
		if bar.High, err = parsePrice(record[index["high"]]); err != nil {
			return nil, fmt.Errorf("%s line %d high: %w", path, line+2, err)
		}
		if bar.Low, err = parsePrice(record[index["low"]]); err != nil {
			return nil, fmt.Errorf("%s line %d low: %w", path, line+2, err)
		}
		if bar.Close, err = parsePrice(record[index["close"]]); err != nil {
			return nil, fmt.Errorf("%s line %d close: %w", path, line+2, err)
		}
		if bar.Volume, err = parsePrice(record[index["volume"]]); err != nil {
			return nil, fmt.Errorf("%s line %d volume: %w", path, line+2, err)
		}

		fields := make(map[string]float64)
		for i, name := range header {
			key := strings.ToLower(strings.TrimSpace(name))
			switch key {
			case "timestamp", "open", "high", "low", "close", "volume":
				continue
			}
			fields[key] = parseFeature(record[i])
		}
		rows = append(rows, Row{Bar: bar, Fields: fields})
	}

	return NewSeries(rows)
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), nil
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}

func parsePrice(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

func parseFeature(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
