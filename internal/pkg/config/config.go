package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Addr     string `env:"ADDR,      default=127.0.0.1:8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// ProductWait is how long a dashboard response holds for the product list
	// before rendering the loading state.
	ProductWait time.Duration `env:"PRODUCT_WAIT, default=2s"`

	API     APIConfig
	Session SessionConfig
	Mock    MockConfig
}

// APIConfig points at the portal backend. An empty URL runs the portal in
// demo mode against the in-process mock.
type APIConfig struct {
	URL     string        `env:"AUTH_API_URL"`
	Timeout time.Duration `env:"API_TIMEOUT, default=10s"`
	Retries uint64        `env:"API_RETRIES, default=2"`
}

type SessionConfig struct {
	ExpiredMessage    string `env:"SESSION_EXPIRED_MESSAGE, default=登入已過期，請重新登入"`
	CarryRedirectFrom bool   `env:"CARRY_REDIRECT_FROM,     default=true"`
}

type MockConfig struct {
	Secret   string        `env:"MOCK_JWT_SECRET, default=demo-secret"`
	TokenTTL time.Duration `env:"MOCK_TOKEN_TTL,  default=30m"`
	Latency  time.Duration `env:"MOCK_LATENCY,    default=300ms"`
}

// Production reports whether ENV is "production".
func (c *Config) Production() bool {
	return c.Env == "production"
}

// DemoMode reports whether no backend is configured.
func (c *Config) DemoMode() bool {
	return c.API.URL == ""
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from the given lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
