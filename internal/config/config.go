// Package config loads the YAML configuration for the demo backtest
// CLI driver (cmd/backtest). The core itself (internal/domain,
// internal/data, internal/producer) never reads configuration or the
// environment; configuration loading stays external to the core, and
// this package is ambient scaffolding around it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BacktestConfig describes a single backtest run: which container
// sources to load, the replay window, and whether to use the cached
// producer.
type BacktestConfig struct {
	Run struct {
		StartNs       int64  `yaml:"start_ns"`
		StopNs        int64  `yaml:"stop_ns"`
		Cached        bool   `yaml:"cached"`
		QuoteCurrency string `yaml:"quote_currency"`
	} `yaml:"run"`

	Container struct {
		QuoteSources []InstrumentSource `yaml:"quote_sources"`
		TradeSources []InstrumentSource `yaml:"trade_sources"`
	} `yaml:"container"`

	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// InstrumentSource names a per-instrument columnar source file on
// disk (read by data.LoadQuoteCSV / data.LoadTradeCSV).
type InstrumentSource struct {
	Symbol string `yaml:"symbol"`
	Venue  string `yaml:"venue"`
	Path   string `yaml:"path"`
}

// Load reads and parses a BacktestConfig from path, then validates it.
// Environment variables override the storage DB path.
func Load(path string) (*BacktestConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg BacktestConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Run.QuoteCurrency == "" {
		cfg.Run.QuoteCurrency = "USD"
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks configuration validity.
func (c *BacktestConfig) Validate() error {
	if c.Run.StartNs > c.Run.StopNs {
		return fmt.Errorf("run.start_ns (%d) must be <= run.stop_ns (%d)", c.Run.StartNs, c.Run.StopNs)
	}
	if len(c.Container.QuoteSources) == 0 && len(c.Container.TradeSources) == 0 {
		return fmt.Errorf("at least one quote or trade source is required")
	}
	return nil
}

// overrideWithEnv lets BACKTEST_DB_PATH override the configured
// storage path.
func overrideWithEnv(cfg *BacktestConfig) {
	if path := os.Getenv("BACKTEST_DB_PATH"); path != "" {
		cfg.Storage.DBPath = path
	}
}
