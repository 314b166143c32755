// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file and env on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Discovery strategy names accepted in configuration.
const (
	DiscoveryPerDungeon = "per_dungeon"
	DiscoveryBulk       = "bulk"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// AccessKey is the static service credential required by the API endpoints.
	AccessKey string `koanf:"access_key"`

	// Season identifies the service's ranking period, e.g. "season-tww-2".
	Season string `koanf:"season"`

	// Region, Realm, Name identify the subject character.
	Region string `koanf:"region"`
	Realm  string `koanf:"realm"`
	Name   string `koanf:"name"`

	// BaseURL is the service host; overridable for testing.
	BaseURL string `koanf:"base_url"`

	// Discovery selects the run discovery strategy: per_dungeon or bulk.
	Discovery string `koanf:"discovery"`

	// TopN caps the number of teammates shown on the chart.
	TopN int `koanf:"top_n"`

	// Output is the path of the rendered chart image.
	Output string `koanf:"output"`

	// RequestTimeoutMS bounds each outbound request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// RosterDelayMS is the courtesy pause between successive roster fetches.
	RosterDelayMS int `koanf:"roster_delay_ms"`

	// MetricsAddr, when non-empty, serves Prometheus metrics for the run, e.g. ":9080".
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		BaseURL:          "https://raider.io",
		Discovery:        DiscoveryPerDungeon,
		TopN:             20,
		Output:           "teammates_chart.png",
		RequestTimeoutMS: 30_000,
		RosterDelayMS:    50,
	}
}
