package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Host: "127.0.0.1", Port: 8080, Env: "test"},
		Postgres: PostgresConfig{URL: "postgresql://u:p@localhost:5432/app"},
		Mongo:    MongoConfig{URI: "mongodb://localhost:27017", Database: "app"},
		Auth: AuthConfig{
			JWTSecret:         "secret",
			AccessTokenTTL:    15 * time.Minute,
			RefreshTokenTTL:   30 * 24 * time.Hour,
			RefreshCookieName: "refresh",
		},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing postgres url", func(c *Config) { c.Postgres.URL = "" }},
		{"missing mongo uri", func(c *Config) { c.Mongo.URI = "" }},
		{"missing jwt secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"access ttl zero", func(c *Config) { c.Auth.AccessTokenTTL = 0 }},
		{"access ttl exceeds refresh", func(c *Config) {
			c.Auth.AccessTokenTTL = 31 * 24 * time.Hour
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
