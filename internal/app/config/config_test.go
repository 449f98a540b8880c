package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "5173", cfg.HTTP.Port)
	assert.Equal(t, "http://localhost:8080/api", cfg.API.BaseURL)
	assert.Equal(t, "http://localhost:5173", cfg.Auth0.Origin)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, 3*time.Second, cfg.Payment.ConfirmationDelay)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("API_BASE_URL", "http://backend:8080/api")
	t.Setenv("PAYMENT_CONFIRMATION_DELAY", "500ms")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.HTTP.Port)
	assert.Equal(t, "http://backend:8080/api", cfg.API.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Payment.ConfirmationDelay)
}
