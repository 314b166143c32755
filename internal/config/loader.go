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
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) from path, or KEYMATES_CONFIG when path is empty
//  3. env (prefix KEYMATES_)
func Load(ctx context.Context, path string) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv("KEYMATES_CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: KEYMATES_ACCESS_KEY, KEYMATES_SEASON, ...
	// Map env keys like KEYMATES_ACCESS_KEY -> access_key (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("KEYMATES_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "keymates_")
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

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate enforces the required credential and subject identity fields.
func validate(cfg *Config) error {
	required := []struct {
		name, value string
	}{
		{"access_key", cfg.AccessKey},
		{"season", cfg.Season},
		{"region", cfg.Region},
		{"realm", cfg.Realm},
		{"name", cfg.Name},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, r.name)
		}
	}

	switch cfg.Discovery {
	case DiscoveryPerDungeon, DiscoveryBulk:
	default:
		return fmt.Errorf("%w: unknown discovery strategy %q", ErrInvalidConfig, cfg.Discovery)
	}

	if cfg.TopN <= 0 {
		return fmt.Errorf("%w: top_n must be positive", ErrInvalidConfig)
	}
	if cfg.RequestTimeoutMS <= 0 {
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	}
	if cfg.RosterDelayMS < 0 {
		return fmt.Errorf("%w: roster_delay_ms must not be negative", ErrInvalidConfig)
	}
	return nil
}
