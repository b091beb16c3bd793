package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	EnvPrefix     = "DINGERZONE_"
	EnvConfigFile = "DINGERZONE_CONFIG"
	// EnvLegacyAPIURL is the variable the previous frontend build read the API root from.
	EnvLegacyAPIURL = "NEXT_PUBLIC_API_URL"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if DINGERZONE_CONFIG is set
//  3. NEXT_PUBLIC_API_URL (api_base_url only)
//  4. env (prefix DINGERZONE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, path, err)
		}
	}

	legacy := env.Provider("NEXT_PUBLIC_", ".", func(s string) string {
		if s == EnvLegacyAPIURL {
			return "api_base_url"
		}
		return ""
	})
	if err := k.Load(legacy, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// DINGERZONE_API_BASE_URL -> api_base_url. Underscores are preserved to
	// match the flat koanf tags on the struct.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
		if s == "config" {
			return ""
		}
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants and normalizes URLs in place.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.APITimeoutMS <= 0 {
		return fmt.Errorf("%w: api_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.ShareCacheSize < 0 || c.ShareCacheTTLMS < 0 || c.ShareCacheCleanupMS < 0 {
		return fmt.Errorf("%w: share cache settings must not be negative", ErrInvalidConfig)
	}

	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL != "" {
		if err := requireAbsolute(c.APIBaseURL); err != nil {
			return fmt.Errorf("%w: api_base_url: %w", ErrInvalidConfig, err)
		}
	}

	c.SiteURL = strings.TrimRight(strings.TrimSpace(c.SiteURL), "/")
	if c.SiteURL == "" {
		c.SiteURL = DefaultSiteURL
	}
	if err := requireAbsolute(c.SiteURL); err != nil {
		return fmt.Errorf("%w: site_url: %w", ErrInvalidConfig, err)
	}
	return nil
}

func requireAbsolute(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	return nil
}
