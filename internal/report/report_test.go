package report

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"alphasim/internal/engine"
	"alphasim/internal/stats"
)

func sampleTrades() []engine.Trade {
	entry := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []engine.Trade{
		{
			Symbol:         "BTCUSDT",
			EntryTime:      entry,
			ExitTime:       entry.Add(2 * time.Hour),
			Direction:      "LONG",
			EntryPrice:     100,
			ExitPrice:      103,
			GrossReturnPct: 3,
			NetReturnPct:   2.8,
			MaxDrawdownPct: 0.4,
			ExitReason:     engine.ExitStrategySignal,
		},
		{
			Symbol:       "ETHUSDT",
			EntryTime:    entry.Add(time.Hour),
			ExitTime:     entry.Add(4 * time.Hour),
			Direction:    "LONG",
			EntryPrice:   50,
			ExitPrice:    49,
			NetReturnPct: -2.2,
			ExitReason:   engine.ExitMaxTime,
		},
	}
}

func TestJSONLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "trades.jsonl")
	recorder, err := NewJSONLRecorder(path)
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}

	trades := sampleTrades()
	recorder.RecordAll(trades)
	if err := recorder.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer file.Close()

	var decoded []engine.Trade
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var trade engine.Trade
		if err := json.Unmarshal(scanner.Bytes(), &trade); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		decoded = append(decoded, trade)
	}
	if len(decoded) != len(trades) {
		t.Fatalf("expected %d lines, got %d", len(trades), len(decoded))
	}
	if decoded[0].Symbol != "BTCUSDT" || decoded[0].ExitReason != engine.ExitStrategySignal {
		t.Fatalf("first trade mangled: %+v", decoded[0])
	}
	if decoded[1].NetReturnPct != -2.2 {
		t.Fatalf("second trade mangled: %+v", decoded[1])
	}
}

func TestJSONLAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.jsonl")

	for i := 0; i < 2; i++ {
		recorder, err := NewJSONLRecorder(path)
		if err != nil {
			t.Fatalf("open recorder: %v", err)
		}
		recorder.Record(sampleTrades()[0])
		if err := recorder.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Fatalf("reopening should append, got %d lines", lines)
	}
}

func TestWriteJSONReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	trades := sampleTrades()
	rep := RunReport{
		Strategy: "mean_reversion",
		Start:    "2025-01-01T00:00:00Z",
		End:      "2025-01-02T00:00:00Z",
		Summary:  stats.Summarize(trades),
		Trades:   trades,
	}
	if err := WriteJSON(path, rep); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var loaded RunReport
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if loaded.Strategy != "mean_reversion" || len(loaded.Trades) != 2 {
		t.Fatalf("report mangled: %+v", loaded)
	}
	if loaded.Summary.TotalTrades != 2 {
		t.Fatalf("summary lost: %+v", loaded.Summary)
	}
}
