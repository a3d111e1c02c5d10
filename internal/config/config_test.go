package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")

	cfg := Load()

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 60*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("MAX_UPLOAD_BYTES", "2048")
	t.Setenv("FRONTEND_BASE_URL", "https://app.example.com")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, int64(2048), cfg.MaxUploadBytes)
	assert.Equal(t, "https://app.example.com", cfg.FrontendBaseURL)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("REFRESH_TOKEN_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenTTL)
}
