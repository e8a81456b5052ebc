// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"alphasim/internal/portfolio"
	"alphasim/internal/risk"
	"alphasim/internal/strategy"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Data locates the feature CSV files the simulator consumes.
type Data struct {
	// Dir holds one <symbol>.csv per instrument.
	Dir       string   `yaml:"dir"`
	Symbols   []string `yaml:"symbols"`
	Timeframe string   `yaml:"timeframe"`
}

// Backtest holds the walk-forward run parameters.
type Backtest struct {
	Start                string  `yaml:"start"`
	End                  string  `yaml:"end"`
	FeeBps               float64 `yaml:"fee_bps"`
	SlippageBps          float64 `yaml:"slippage_bps"`
	MaxHoldOverrideHours float64 `yaml:"max_hold_override_hours"`
	ExitPolicy           string  `yaml:"exit_policy"`
	MaxCheckpoints       int     `yaml:"max_checkpoints"`
	TradesPath           string  `yaml:"trades_path"`
	ReportPath           string  `yaml:"report_path"`
}

// Range parses the configured start and end timestamps.
func (b Backtest) Range() (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, b.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse backtest start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, b.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse backtest end: %w", err)
	}
	return start, end, nil
}

// Strategy specifies which strategy is active along with the parameter bundle.
type Strategy struct {
	Name   string          `yaml:"name"`
	Params strategy.Config `yaml:"params"`
}

// Portfolio configures the multi-strategy layer.
type Portfolio struct {
	Strategies        []string              `yaml:"strategies"`
	CombinationMethod string                `yaml:"combination_method"`
	AllocationMethod  string                `yaml:"allocation_method"`
	TotalCapital      float64               `yaml:"total_capital"`
	StrategyWeights   map[string]float64    `yaml:"strategy_weights"`
	Constraints       portfolio.Constraints `yaml:"constraints"`
	AllocationsPath   string                `yaml:"allocations_path"`
}

// Risk bundles the pre-trade filters and sizing applied by the portfolio
// manager. Disabled turns the whole layer off.
type Risk struct {
	Enabled bool        `yaml:"enabled"`
	Limits  risk.Limits `yaml:"limits"`
	Sizing  risk.Sizer  `yaml:"sizing"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App       App       `yaml:"app"`
	Data      Data      `yaml:"data"`
	Backtest  Backtest  `yaml:"backtest"`
	Strategy  Strategy  `yaml:"strategy"`
	Portfolio Portfolio `yaml:"portfolio"`
	Risk      Risk      `yaml:"risk"`
}

// Default returns a runnable configuration with the standard strategy
// parameters; callers override what the YAML file sets.
func Default() *Config {
	return &Config{
		App: App{
			Name:        "alphasim",
			Env:         "dev",
			MetricsAddr: ":9184",
			LogLevel:    "info",
		},
		Data: Data{Dir: "data", Timeframe: "5m"},
		Backtest: Backtest{
			FeeBps:      10,
			SlippageBps: 5,
			TradesPath:  "out/trades.jsonl",
			ReportPath:  "out/report.json",
		},
		Strategy: Strategy{Name: "mean_reversion", Params: strategy.DefaultConfig()},
		Portfolio: Portfolio{
			Strategies:        []string{"mean_reversion", "momentum_rank", "confluence"},
			CombinationMethod: string(portfolio.Weighted),
			AllocationMethod:  string(portfolio.Proportional),
			TotalCapital:      100000,
			Constraints:       portfolio.DefaultConstraints(),
			AllocationsPath:   "out/allocations.jsonl",
		},
		Risk: Risk{
			Enabled: true,
			Limits:  risk.DefaultLimits(),
			Sizing:  risk.NewSizer(100000),
		},
	}
}

// Load reads a YAML file from disk and hydrates a Config struct on top of
// the defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
