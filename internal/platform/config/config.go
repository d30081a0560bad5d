package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8000"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`
	AppURL      string `env:"APP_URL"`
	TrustProxy  bool   `env:"TRUST_PROXY" default:"false"` // honor X-Forwarded-For from private-network proxies

	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL" default:"3s"`
	MaxPayloadBytes   int64         `env:"WS_MAX_PAYLOAD_BYTES" default:"1048576"` // 1 MiB
	SendBufferSize    int           `env:"WS_SEND_BUFFER" default:"64"`
	WriteTimeout      time.Duration `env:"WS_WRITE_TIMEOUT" default:"5s"`

	MaxWebSocketConnections int     `env:"MAX_WEBSOCKET_CONNECTIONS" default:"10000"`
	MaxConnectionsPerIP     int     `env:"MAX_CONNECTIONS_PER_IP" default:"100"`
	ConnectionRate          float64 `env:"CONNECTION_RATE" default:"10"`
	ConnectionBurst         int     `env:"CONNECTION_BURST" default:"20"`

	APIRateLimit float64 `env:"API_RATE_LIMIT" default:"20"` // requests/s per IP on /matches; 0 disables
	APIRateBurst int     `env:"API_RATE_BURST" default:"40"`

	CacheTTL time.Duration `env:"CACHE_TTL" default:"30s"`
}

// CacheEnabled reports whether list responses are cached in Redis.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	if cfg.AppEnv == "production" {
		if mode := sslMode(cfg.DatabaseURL); mode == "disable" || mode == "allow" {
			return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
		}
	}

	if cfg.AppURL != "" {
		if u, err := url.Parse(cfg.AppURL); err != nil || u.Host == "" {
			return fmt.Errorf("APP_URL must be an absolute URL, got %q", cfg.AppURL)
		}
	}

	if cfg.RedisURL != "" {
		if _, err := url.Parse(cfg.RedisURL); err != nil {
			return fmt.Errorf("REDIS_URL must be a valid URL: %w", err)
		}
	}

	if cfg.HeartbeatInterval <= 0 {
		return errors.New("HEARTBEAT_INTERVAL must be positive")
	}
	if cfg.MaxPayloadBytes <= 0 {
		return errors.New("WS_MAX_PAYLOAD_BYTES must be positive")
	}
	if cfg.SendBufferSize <= 0 {
		return errors.New("WS_SEND_BUFFER must be positive")
	}
	if cfg.WriteTimeout <= 0 {
		return errors.New("WS_WRITE_TIMEOUT must be positive")
	}

	if cfg.MaxWebSocketConnections <= 0 {
		return errors.New("MAX_WEBSOCKET_CONNECTIONS must be positive")
	}
	if cfg.MaxConnectionsPerIP <= 0 {
		return errors.New("MAX_CONNECTIONS_PER_IP must be positive")
	}
	if cfg.ConnectionRate <= 0 || cfg.ConnectionBurst <= 0 {
		return errors.New("CONNECTION_RATE and CONNECTION_BURST must be positive")
	}

	if cfg.APIRateLimit < 0 {
		return errors.New("API_RATE_LIMIT must not be negative")
	}
	if cfg.APIRateLimit > 0 && cfg.APIRateBurst <= 0 {
		return errors.New("API_RATE_BURST must be positive when API_RATE_LIMIT is set")
	}

	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", cfg.CacheTTL)
	}

	return nil
}

func sslMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Query().Get("sslmode"))
}
