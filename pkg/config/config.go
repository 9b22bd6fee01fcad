// Package config holds every tunable of the labs binary: watchlist,
// thresholds, metric tables, API endpoints, datastore and mail settings.
// Values layer defaults, an optional YAML file, and LABS_-prefixed
// environment variables.
package config

import (
	"time"

	"github.com/metric-duck/labs/pkg/alert"
	"github.com/metric-duck/labs/pkg/pulse"
	"github.com/metric-duck/labs/pkg/screener"
	"github.com/metric-duck/labs/pkg/showdown"
)

// Config is the full process configuration.
type Config struct {
	LogLevel string `koanf:"log_level"`

	// API settings. APIKey empty means guest tier.
	BaseURL        string        `koanf:"base_url"`
	APIKey         string        `koanf:"api_key"`
	MetricsTimeout time.Duration `koanf:"metrics_timeout"`
	ScreenTimeout  time.Duration `koanf:"screen_timeout"`
	SyncTimeout    time.Duration `koanf:"sync_timeout"`

	// Alert lab.
	Watchlist   []string `koanf:"watchlist"`
	PEThreshold float64  `koanf:"pe_threshold"`

	// Screener lab. GuestCap bounds universe size without an API key.
	Screen      screener.Config `koanf:"screen"`
	ScreenCount int             `koanf:"screen_count"`
	ScreenTop   int             `koanf:"screen_top"`
	GuestCap    int             `koanf:"guest_cap"`

	// Pulse and showdown metric tables.
	Pulse    pulse.Tables    `koanf:"pulse"`
	Showdown showdown.Panels `koanf:"showdown"`

	// Sync/query datastore.
	DatabaseURL string `koanf:"database_url"`

	// Optional market-context enrichment.
	AlpacaKey    string `koanf:"alpaca_key"`
	AlpacaSecret string `koanf:"alpaca_secret"`

	// Alert email delivery.
	Email alert.EmailConfig `koanf:"email"`
}

// Default returns the stock configuration every load starts from.
func Default() *Config {
	return &Config{
		LogLevel:       "warn",
		BaseURL:        "https://api.metricduck.com/api/v1",
		MetricsTimeout: 30 * time.Second,
		ScreenTimeout:  60 * time.Second,
		SyncTimeout:    120 * time.Second,
		Watchlist:      []string{"AAPL", "MSFT", "GOOGL", "AMZN", "META"},
		PEThreshold:    20,
		Screen:         screener.DefaultConfig(),
		ScreenCount:    50,
		ScreenTop:      10,
		GuestCap:       10,
		Pulse:          pulse.DefaultTables(),
		Showdown:       showdown.DefaultPanels(),
	}
}
