// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the chat service.
package server

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort           = ":3001"
	defaultMaxMessageSize = 4096
	defaultSendBufferSize = 256
	defaultRateBurst      = 20
	defaultRefillInterval = time.Second
)

// RateLimitConfig defines the parameters for per-connection event rate limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the server configuration settings including security controls.
type Config struct {
	Port           string
	AllowedOrigins []string
	MaxMessageSize int64
	SendBufferSize int
	RateLimit      RateLimitConfig
	LogLevel       slog.Level
}

// DefaultConfig returns the configuration used when no overrides are present.
func DefaultConfig() Config {
	return Config{
		Port: defaultPort,
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:3001",
		},
		MaxMessageSize: defaultMaxMessageSize,
		SendBufferSize: defaultSendBufferSize,
		RateLimit: RateLimitConfig{
			Burst:          defaultRateBurst,
			RefillInterval: defaultRefillInterval,
		},
		LogLevel: slog.LevelInfo,
	}
}

// Sanitize replaces invalid values with defaults and returns the result.
// The receiver is not modified.
func (c Config) Sanitize() Config {
	c.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)

	c.Port = normalizePort(c.Port)

	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}

	if c.SendBufferSize <= 0 {
		c.SendBufferSize = defaultSendBufferSize
	}

	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = defaultRateBurst
	}

	if c.RateLimit.RefillInterval <= 0 {
		c.RateLimit.RefillInterval = defaultRefillInterval
	}

	return c
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Falls back to default values if environment variables are not set.
func NewConfigFromEnv() Config {
	cfg := DefaultConfig()

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	if maxSize := os.Getenv("MAX_MESSAGE_SIZE"); maxSize != "" {
		cfg.MaxMessageSize = parseMaxMessageSize(maxSize, cfg.MaxMessageSize)
	}

	if size := os.Getenv("SEND_BUFFER_SIZE"); size != "" {
		cfg.SendBufferSize = parseIntValue(size, cfg.SendBufferSize)
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		cfg.RateLimit.Burst = parseIntValue(burst, cfg.RateLimit.Burst)
	}

	if interval := os.Getenv("RATE_LIMIT_REFILL_INTERVAL"); interval != "" {
		cfg.RateLimit.RefillInterval = parseRefillInterval(interval, cfg.RateLimit.RefillInterval)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = parseLogLevel(level, cfg.LogLevel)
	}

	return cfg.Sanitize()
}

func normalizePort(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return defaultPort
	}
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseMaxMessageSize(value string, defaultValue int64) int64 {
	if size, err := strconv.ParseInt(value, 10, 64); err == nil && size > 0 {
		return size
	}
	return defaultValue
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseRefillInterval(value string, defaultValue time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func parseLogLevel(value string, defaultValue slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return defaultValue
	}
	return level
}

// NewLogger returns a text logger writing to stderr at the configured level.
func NewLogger(cfg Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
}
