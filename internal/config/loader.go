package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if NIRCADB_CONFIG is set
//  3. env (prefix NIRCADB_)
func Load(ctx context.Context) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("NIRCADB_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: NIRCADB_ADDR, NIRCADB_SIM_TRIALS, ...
	// Map env keys like NIRCADB_SIM_TRIALS -> sim_trials (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("NIRCADB_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "nircadb_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Basic validation
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.SimTrials < 1 {
		return nil, fmt.Errorf("%w: sim_trials must be positive", ErrInvalidConfig)
	}
	if cfg.TeamMatchThreshold < 0 || cfg.TeamMatchThreshold > 100 ||
		cfg.RunnerMatchThreshold < 0 || cfg.RunnerMatchThreshold > 100 {
		return nil, fmt.Errorf("%w: match thresholds must be in [0,100]", ErrInvalidConfig)
	}
	return &cfg, nil
}
