// Package report persists backtest output for later analysis.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"alphasim/internal/engine"
	"alphasim/internal/portfolio"
	"alphasim/internal/stats"
)

// JSONLRecorder appends trades as JSON lines.
type JSONLRecorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONLRecorder creates/opens the target file and returns a recorder.
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLRecorder{
		file: file,
		enc:  json.NewEncoder(file),
	}, nil
}

// Record writes a single trade to the underlying JSONL file.
func (r *JSONLRecorder) Record(trade engine.Trade) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(trade)
}

// RecordAll writes every trade in order.
func (r *JSONLRecorder) RecordAll(trades []engine.Trade) {
	for _, trade := range trades {
		r.Record(trade)
	}
}

// RecordAllocation writes one portfolio snapshot line.
func (r *JSONLRecorder) RecordAllocation(rec AllocationRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(rec)
}

// Close flushes and closes the file handle.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// RunReport is the full result of one backtest run, written as a single
// JSON document next to the trade log.
type RunReport struct {
	Strategy string         `json:"strategy"`
	Start    string         `json:"start"`
	End      string         `json:"end"`
	Summary  stats.Summary  `json:"summary"`
	Trades   []engine.Trade `json:"trades"`
}

// WriteJSON writes the report as indented JSON to path.
func WriteJSON(path string, report RunReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// AllocationRecord is one checkpoint's portfolio snapshot in the
// allocations JSONL log.
type AllocationRecord struct {
	Timestamp string               `json:"timestamp"`
	Positions []portfolio.Position `json:"positions"`
	Errors    []string             `json:"errors,omitempty"`
}
