// Package config loads process-wide settings once at startup.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/hashicorp/go-multierror"
)

// Config holds application configuration loaded from environment and file.
// Priority: Env vars → config.toml → defaults
type Config struct {
	// ServerPort is the address to bind the server to (e.g., ":8080")
	ServerPort string `toml:"server_port" env:"SERVER_PORT"`

	// OpenAIAPIKey is the bearer credential injected into upstream calls.
	// Only read from the environment so it never lands in a config file.
	OpenAIAPIKey string `toml:"-" env:"OPENAI_API_KEY"`

	// AllowedOrigins governs Access-Control-Allow-Origin selection.
	AllowedOrigins []string `toml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`

	// UpstreamURL is the chat-completions endpoint.
	UpstreamURL string `toml:"upstream_url" env:"UPSTREAM_URL"`

	// UpstreamTimeout bounds the whole upstream exchange. Zero means no limit.
	UpstreamTimeout time.Duration `toml:"upstream_timeout" env:"UPSTREAM_TIMEOUT"`

	// DefaultModel is used when the caller does not name a model.
	DefaultModel string `toml:"default_model" env:"DEFAULT_MODEL"`

	// ChatPath is the route of the chat endpoint.
	ChatPath string `toml:"chat_path" env:"CHAT_PATH"`

	LogLevel  string `toml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `toml:"log_format" env:"LOG_FORMAT"`

	// EnableMetrics exposes Prometheus metrics at /metrics
	EnableMetrics bool `toml:"enable_metrics" env:"ENABLE_METRICS"`

	// CountTokens logs a tiktoken estimate of prompt tokens per request
	CountTokens bool `toml:"count_tokens" env:"COUNT_TOKENS"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		ServerPort:     ":8080",
		AllowedOrigins: []string{"*"},
		UpstreamURL:    "https://api.openai.com/v1/chat/completions",
		DefaultModel:   "gpt-4o-mini",
		ChatPath:       "/api/chat",
		LogLevel:       "info",
		LogFormat:      "text",
		EnableMetrics:  true,
	}
}

// Load reads configuration from file and environment variables.
// Environment variables override file config values.
func Load() (*Config, error) {
	cfg := Defaults()

	if err := LoadFile(ConfigPath(), cfg); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}

	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)
	return cfg, nil
}

// normalizeOrigins trims each entry. Empty entries are kept so that a
// leading blank entry still falls back to "*" at selection time.
func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	out := make([]string, len(origins))
	for i, o := range origins {
		out[i] = strings.TrimSpace(o)
	}
	return out
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var result error

	if c.ServerPort == "" {
		result = multierror.Append(result, errors.New("server_port must not be empty"))
	}

	u, err := url.Parse(c.UpstreamURL)
	switch {
	case err != nil:
		result = multierror.Append(result, fmt.Errorf("upstream_url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		result = multierror.Append(result, fmt.Errorf("upstream_url: unsupported scheme %q", u.Scheme))
	case u.Host == "":
		result = multierror.Append(result, errors.New("upstream_url: missing host"))
	}

	if c.UpstreamTimeout < 0 {
		result = multierror.Append(result, errors.New("upstream_timeout must not be negative"))
	}

	if !strings.HasPrefix(c.ChatPath, "/") {
		result = multierror.Append(result, fmt.Errorf("chat_path %q must start with /", c.ChatPath))
	}

	if _, err := c.SlogLevel(); err != nil {
		result = multierror.Append(result, err)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		result = multierror.Append(result, fmt.Errorf("log_format %q must be text or json", c.LogFormat))
	}

	return result
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
