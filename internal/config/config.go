// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer sources.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MaxTableLimit caps GET /rankings?limit.
	MaxTableLimit int `koanf:"max_table_limit"`

	// SimTrials sets the default Monte Carlo trial count.
	SimTrials int `koanf:"sim_trials"`

	// SimDispersion sets the default spread of simulated ratings.
	SimDispersion float64 `koanf:"sim_dispersion"`

	// SimWorkers bounds the simulation trial fan-out.
	SimWorkers int `koanf:"sim_workers"`

	// SimSeed fixes the simulation random source for reproducible runs.
	SimSeed uint64 `koanf:"sim_seed"`

	// TeamMatchThreshold and RunnerMatchThreshold set the minimum fuzzy
	// match confidence for name searches.
	TeamMatchThreshold   int `koanf:"team_match_threshold"`
	RunnerMatchThreshold int `koanf:"runner_match_threshold"`

	// SearchTopK caps the number of candidates returned per searched name.
	SearchTopK int `koanf:"search_top_k"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		MaxTableLimit:        100,
		SimTrials:            1000,
		SimDispersion:        4.0,
		SimWorkers:           runtime.NumCPU(),
		SimSeed:              1,
		TeamMatchThreshold:   80,
		RunnerMatchThreshold: 70,
		SearchTopK:           3,
	}
}
