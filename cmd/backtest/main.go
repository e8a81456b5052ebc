package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"alphasim/internal/config"
	"alphasim/internal/engine"
	"alphasim/internal/market"
	"alphasim/internal/metrics"
	"alphasim/internal/report"
	"alphasim/internal/stats"
	"alphasim/internal/strategy"
	"alphasim/internal/util"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := util.NewLogger(cfg.App.LogLevel)

	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	start, end, err := cfg.Backtest.Range()
	if err != nil {
		log.Fatal().Err(err).Msg("parse backtest range")
	}

	features, err := loadFeatures(cfg.Data.Dir, cfg.Data.Symbols)
	if err != nil {
		log.Fatal().Err(err).Msg("load feature data")
	}
	log.Info().Int("symbols", len(features)).Str("dir", cfg.Data.Dir).Msg("feature data loaded")

	registry := strategy.NewDefaultRegistry()
	strat, err := registry.Build(cfg.Strategy.Name, cfg.Strategy.Params)
	if err != nil {
		log.Fatal().Err(err).Msg("build strategy")
	}

	eng, err := engine.FromStrategy(strat, engine.Config{
		WindowHours:    cfg.Backtest.MaxHoldOverrideHours,
		FeeBps:         cfg.Backtest.FeeBps,
		SlippageBps:    cfg.Backtest.SlippageBps,
		ExitPolicy:     engine.ExitPolicy(cfg.Backtest.ExitPolicy),
		MaxCheckpoints: cfg.Backtest.MaxCheckpoints,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build engine")
	}

	runStart := time.Now()
	trades, err := eng.Run(strat, features, start, end)
	if err != nil {
		log.Fatal().Err(err).Msg("backtest run")
	}

	summary := stats.Summarize(trades)
	log.Info().
		Str("strategy", cfg.Strategy.Name).
		Int("trades", summary.TotalTrades).
		Float64("win_rate", summary.WinRate).
		Float64("total_return_pct", summary.TotalReturnPct).
		Dur("elapsed", time.Since(runStart)).
		Msg("backtest complete")

	if cfg.Backtest.TradesPath != "" {
		recorder, err := report.NewJSONLRecorder(cfg.Backtest.TradesPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open trade log")
		}
		recorder.RecordAll(trades)
		if err := recorder.Close(); err != nil {
			log.Error().Err(err).Msg("close trade log")
		}
	}

	if cfg.Backtest.ReportPath != "" {
		err := report.WriteJSON(cfg.Backtest.ReportPath, report.RunReport{
			Strategy: cfg.Strategy.Name,
			Start:    start.Format(time.RFC3339),
			End:      end.Format(time.RFC3339),
			Summary:  summary,
			Trades:   trades,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("write report")
		}
		log.Info().Str("path", cfg.Backtest.ReportPath).Msg("report written")
	}
}

// loadFeatures reads one <symbol>.csv per configured symbol. A missing file
// is fatal: a misconfigured symbol list should not silently shrink the
// universe.
func loadFeatures(dir string, symbols []string) (map[string]*market.Series, error) {
	features := make(map[string]*market.Series, len(symbols))
	for _, symbol := range symbols {
		path := filepath.Join(dir, symbol+".csv")
		series, err := market.LoadCSV(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		features[symbol] = series
	}
	return features, nil
}
