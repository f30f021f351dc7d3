package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoadServerConfig_Defaults(t *testing.T) {
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Port)
	}
	if cfg.SessionStore != "file" {
		t.Errorf("Expected file store, got %q", cfg.SessionStore)
	}
	if cfg.WebClient.PingInterval != 2*time.Second {
		t.Errorf("Expected 2s ping interval, got %v", cfg.WebClient.PingInterval)
	}
}

func TestLoadServerConfig_Overrides(t *testing.T) {
	t.Setenv("NETBATTLE_PORT", "9090")
	t.Setenv("NETBATTLE_SESSION_STORE", "sqlite")
	t.Setenv("NETBATTLE_TICK_RATE", "50ms")
	t.Setenv("NETBATTLE_WEBCLIENT_URL", "http://accounts.local")

	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 9090 || cfg.SessionStore != "sqlite" || cfg.TickRate != 50*time.Millisecond {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if cfg.WebClient.URL != "http://accounts.local" {
		t.Errorf("Expected prefixed web client URL, got %q", cfg.WebClient.URL)
	}
}

func TestLoadServerConfig_Errors(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(error) bool
	}{
		{"bad port", map[string]string{"NETBATTLE_PORT": "not-an-int"}, func(err error) bool {
			return strings.Contains(err.Error(), "parse env:")
		}},
		{"unknown store", map[string]string{"NETBATTLE_SESSION_STORE": "redis"}, func(err error) bool {
			return errors.Is(err, ErrInvalidConfig)
		}},
		{"postgres without dsn", map[string]string{"NETBATTLE_SESSION_STORE": "postgres"}, func(err error) bool {
			return errors.Is(err, ErrInvalidConfig)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadServerConfig()
			if err == nil || !tt.check(err) {
				t.Errorf("Unexpected error %v", err)
			}
		})
	}
}
