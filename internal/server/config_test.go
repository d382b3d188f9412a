package server

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":3001", cfg.Port)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3001"}, cfg.AllowedOrigins)
	assert.EqualValues(t, 4096, cfg.MaxMessageSize)
	assert.Equal(t, 256, cfg.SendBufferSize)
	assert.Equal(t, RateLimitConfig{Burst: 20, RefillInterval: time.Second}, cfg.RateLimit)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , https://b.example ")
	t.Setenv("MAX_MESSAGE_SIZE", "1024")
	t.Setenv("SEND_BUFFER_SIZE", "8")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "3")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := NewConfigFromEnv()

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.EqualValues(t, 1024, cfg.MaxMessageSize)
	assert.Equal(t, 8, cfg.SendBufferSize)
	assert.Equal(t, RateLimitConfig{Burst: 5, RefillInterval: 3 * time.Second}, cfg.RateLimit)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestNewConfigFromEnvIgnoresBadValues(t *testing.T) {
	t.Setenv("PORT", "  ")
	t.Setenv("MAX_MESSAGE_SIZE", "-1")
	t.Setenv("SEND_BUFFER_SIZE", "lots")
	t.Setenv("RATE_LIMIT_BURST", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("LOG_LEVEL", "loud")

	assert.Equal(t, DefaultConfig(), NewConfigFromEnv())
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   Config
		want func(Config) bool
	}{
		{
			name: "empty port falls back",
			in:   Config{},
			want: func(c Config) bool { return c.Port == defaultPort },
		},
		{
			name: "host and port kept",
			in:   Config{Port: "127.0.0.1:9000"},
			want: func(c Config) bool { return c.Port == "127.0.0.1:9000" },
		},
		{
			name: "non-positive sizes fall back",
			in:   Config{MaxMessageSize: -5, SendBufferSize: 0},
			want: func(c Config) bool {
				return c.MaxMessageSize == defaultMaxMessageSize && c.SendBufferSize == defaultSendBufferSize
			},
		},
		{
			name: "rate limit defaults",
			in:   Config{RateLimit: RateLimitConfig{Burst: -1}},
			want: func(c Config) bool {
				return c.RateLimit.Burst == defaultRateBurst && c.RateLimit.RefillInterval == defaultRefillInterval
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want(tt.in.Sanitize()))
		})
	}
}

func TestSanitizeCopiesOrigins(t *testing.T) {
	origins := []string{"http://a.example"}
	cfg := Config{AllowedOrigins: origins}.Sanitize()

	cfg.AllowedOrigins[0] = "changed"
	assert.Equal(t, "http://a.example", origins[0])
}

func TestCreateServer(t *testing.T) {
	srv := CreateServer(":9999", http.NotFoundHandler())

	assert.Equal(t, ":9999", srv.Addr)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
	assert.Equal(t, 15*time.Second, srv.WriteTimeout)
	assert.Equal(t, 60*time.Second, srv.IdleTimeout)
}
