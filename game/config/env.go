package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ServerConfig holds the server settings read from the environment.
// Command-line flags override these values.
type ServerConfig struct {
	Port         int           `env:"NETBATTLE_PORT" envDefault:"8080"`
	ConfigDir    string        `env:"NETBATTLE_CONFIG_DIR" envDefault:"configs"`
	ConfigName   string        `env:"NETBATTLE_CONFIG" envDefault:""`
	SessionStore string        `env:"NETBATTLE_SESSION_STORE" envDefault:"file"` // file, sqlite, postgres or memory
	SessionDir   string        `env:"NETBATTLE_SESSION_DIR" envDefault:"sessions"`
	SQLitePath   string        `env:"NETBATTLE_SQLITE_PATH" envDefault:"netbattle.db"`
	PostgresDSN  string        `env:"NETBATTLE_POSTGRES_DSN"`
	TickRate     time.Duration `env:"NETBATTLE_TICK_RATE" envDefault:"0s"` // 0 disables the server-side tick loop
	Seed         int64         `env:"NETBATTLE_SEED" envDefault:"0"`       // 0 seeds mobs from the clock

	Ngrok          bool   `env:"NGROK_ENABLED" envDefault:"false"`
	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`

	WebClient WebClientConfig `envPrefix:"NETBATTLE_WEBCLIENT_"`
}

// WebClientConfig configures the account web client
type WebClientConfig struct {
	URL          string        `env:"URL"`
	PingInterval time.Duration `env:"PING_INTERVAL" envDefault:"2s"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServerConfig reads ServerConfig from the environment
func LoadServerConfig() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	switch cfg.SessionStore {
	case "file", "sqlite", "postgres", "memory":
	default:
		return nil, fmt.Errorf("%w: unknown session store %q", ErrInvalidConfig, cfg.SessionStore)
	}
	if cfg.SessionStore == "postgres" && cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("%w: NETBATTLE_POSTGRES_DSN is required for the postgres store", ErrInvalidConfig)
	}
	return &cfg, nil
}
