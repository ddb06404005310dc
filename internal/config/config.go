// Package config handles application configuration from environment variables.
package config

import (
	"time"

	env "github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	Port        string        `env:"PORT" envDefault:"8080"`
	UpstreamURL string        `env:"UPSTREAM_URL" envDefault:"https://www.shoezone.com"`
	CacheDir    string        `env:"CACHE_DIR" envDefault:".cache"`
	PageTTL     time.Duration `env:"PAGE_TTL" envDefault:"60s"`
	CORSOrigin  string        `env:"CORS_ORIGIN" envDefault:"*"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
