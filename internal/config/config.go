// Package config loads the TOML configuration recognized by the CLI
// (spec §6): analysis thresholds, user-facing verdict thresholds, and
// scraping/runtime tunables.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Analysis holds the similarity-matching tolerance used when the read layer
// filters comparable flats.
type Analysis struct {
	DefaultAreaTolerancePercent float64 `toml:"default_area_tolerance"`
}

// Recommendations holds the thresholds used to label a rental/sale verdict
// for end users ("strong buy", "excellent deal", ...).
type Recommendations struct {
	StrongBuyYield        float64 `toml:"strong_buy_yield"`
	BuyYield              float64 `toml:"buy_yield"`
	ConsiderYield         float64 `toml:"consider_yield"`
	ExcellentDealDiscount float64 `toml:"excellent_deal_discount"`
	GoodDealDiscount      float64 `toml:"good_deal_discount"`
	FairDealDiscount      float64 `toml:"fair_deal_discount"`
}

// Scraping holds the orchestrator's default runtime tunables; CLI flags
// (spec §6) override these per invocation.
type Scraping struct {
	MaxPagesDefault int     `toml:"max_pages_default"`
	Concurrency     int     `toml:"concurrency"`
	DelaySeconds    float64 `toml:"delay_seconds"`
	MaxRetries      int     `toml:"max_retries"`
}

// Store holds the SQLite file location.
type Store struct {
	Path string `toml:"path"`
}

// Schedule configures the recurring `serve-schedule` command.
type Schedule struct {
	Cron string `toml:"cron"` // empty disables scheduling
}

// Config is the root of the TOML document.
type Config struct {
	Analysis        Analysis        `toml:"analysis"`
	Recommendations Recommendations `toml:"recommendations"`
	Scraping        Scraping        `toml:"scraping"`
	Store           Store           `toml:"store"`
	Schedule        Schedule        `toml:"schedule"`
}

// Default returns a Config with sensible defaults, matching the values the
// original Python tooling hard-coded at call sites.
func Default() *Config {
	return &Config{
		Analysis: Analysis{
			DefaultAreaTolerancePercent: 20,
		},
		Recommendations: Recommendations{
			StrongBuyYield:        0.08,
			BuyYield:              0.06,
			ConsiderYield:         0.05,
			ExcellentDealDiscount: 25,
			GoodDealDiscount:      15,
			FairDealDiscount:      8,
		},
		Scraping: Scraping{
			MaxPagesDefault: 10,
			Concurrency:     4,
			DelaySeconds:    1.0,
			MaxRetries:      3,
		},
		Store: Store{
			Path: "krisha-intel.db",
		},
	}
}

// Load reads a TOML config file at path, applying its values on top of
// Default(). A missing file is not an error: Default() is returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
