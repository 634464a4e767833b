package config

import (
	"time"

	env "github.com/caarlos0/env/v6"
	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the Linkleaf server.
type Config struct {
	DBPath        string        `env:"DB_PATH" envDefault:"./data/linkleaf.db"`
	ServerPort    int           `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionCookie string        `env:"SESSION_COOKIE" envDefault:"linkleaf_session"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	SentryDSN     string        `env:"SENTRY_DSN"`
	Environment   string        `env:"ENV" envDefault:"development"`
	ShutdownGrace time.Duration `env:"SHUTDOWN_GRACE" envDefault:"10s"`
	RateLimit     RateLimit
}

// RateLimit configures the per-client token bucket applied by the HTTP layer.
type RateLimit struct {
	Burst             int           `env:"RATE_LIMIT_BURST" envDefault:"20"`
	RequestsPerSecond float64       `env:"RATE_LIMIT_RPS" envDefault:"5"`
	ClientTTL         time.Duration `env:"RATE_LIMIT_CLIENT_TTL" envDefault:"10m"`
}

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, eris.Wrap(err, "parsing environment")
	}

	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, eris.Errorf("invalid SERVER_PORT value: %d", cfg.ServerPort)
	}

	if cfg.RateLimit.Burst <= 0 {
		return nil, eris.Errorf("invalid RATE_LIMIT_BURST value: %d", cfg.RateLimit.Burst)
	}

	if cfg.RateLimit.RequestsPerSecond <= 0 {
		return nil, eris.Errorf("invalid RATE_LIMIT_RPS value: %f", cfg.RateLimit.RequestsPerSecond)
	}

	return cfg, nil
}
