package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"alphasim/internal/config"
	"alphasim/internal/market"
	"alphasim/internal/metrics"
	"alphasim/internal/portfolio"
	"alphasim/internal/report"
	"alphasim/internal/strategy"
	"alphasim/internal/util"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	compare := flag.Bool("compare", false, "compare combination methods instead of running one")
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

	registry := strategy.NewDefaultRegistry()
	strategies := make([]strategy.Strategy, 0, len(cfg.Portfolio.Strategies))
	for _, name := range cfg.Portfolio.Strategies {
		strat, err := registry.Build(name, cfg.Strategy.Params)
		if err != nil {
			log.Fatal().Err(err).Str("strategy", name).Msg("build strategy")
		}
		strategies = append(strategies, strat)
	}

	checkpoints := market.UnionTimestamps(features, start, end)
	log.Info().
		Int("strategies", len(strategies)).
		Int("checkpoints", len(checkpoints)).
		Msg("portfolio run starting")

	if *compare {
		compareCombinations(cfg, log, strategies, features, checkpoints)
		return
	}

	combiner, err := portfolio.NewCombiner(portfolio.CombineMethod(cfg.Portfolio.CombinationMethod), cfg.Portfolio.StrategyWeights)
	if err != nil {
		log.Fatal().Err(err).Msg("build combiner")
	}
	allocator, err := portfolio.NewAllocator(portfolio.AllocMethod(cfg.Portfolio.AllocationMethod), cfg.Portfolio.TotalCapital)
	if err != nil {
		log.Fatal().Err(err).Msg("build allocator")
	}
	manager, err := portfolio.NewManager(strategies, combiner, allocator, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build portfolio manager")
	}
	if cfg.Risk.Enabled {
		sizing := cfg.Risk.Sizing
		if sizing.AccountSize == 0 {
			sizing.AccountSize = cfg.Portfolio.TotalCapital
		}
		manager = manager.WithRisk(cfg.Risk.Limits, sizing)
		log.Info().
			Float64("max_volatility_pct", cfg.Risk.Limits.MaxVolatilityPct).
			Float64("min_volume_ratio", cfg.Risk.Limits.MinVolumeRatio).
			Msg("risk filters active")
	}

	var recorder *report.JSONLRecorder
	if cfg.Portfolio.AllocationsPath != "" {
		recorder, err = report.NewJSONLRecorder(cfg.Portfolio.AllocationsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open allocations log")
		}
		defer recorder.Close()
	}

	var totalErrors int
	for _, checkpoint := range checkpoints {
		positions, itemErrs := manager.Positions(features, checkpoint, cfg.Portfolio.Constraints)
		totalErrors += len(itemErrs)

		if recorder != nil && len(positions) > 0 {
			rec := report.AllocationRecord{
				Timestamp: checkpoint.Format(time.RFC3339),
				Positions: positions,
			}
			for _, e := range itemErrs {
				rec.Errors = append(rec.Errors, e.Error())
			}
			recorder.RecordAllocation(rec)
		}
	}

	log.Info().
		Int("checkpoints", len(checkpoints)).
		Int("item_errors", totalErrors).
		Msg("portfolio run complete")
}

func compareCombinations(cfg *config.Config, log zerolog.Logger, strategies []strategy.Strategy, features map[string]*market.Series, checkpoints []time.Time) {
	evaluator := portfolio.NewEvaluator(log)
	results, err := evaluator.CompareCombinations(strategies, features, checkpoints, cfg.Portfolio.TotalCapital, cfg.Portfolio.Constraints)
	if err != nil {
		log.Fatal().Err(err).Msg("compare combinations")
	}
	for _, res := range results {
		log.Info().
			Str("method", string(res.Method)).
			Float64("sharpe", res.Metrics.SharpeRatio).
			Float64("total_return_pct", res.Metrics.TotalReturnPct).
			Float64("max_drawdown_pct", res.Metrics.MaxDrawdownPct).
			Float64("calmar", res.Metrics.CalmarRatio).
			Msg("combination method result")
	}
}

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
