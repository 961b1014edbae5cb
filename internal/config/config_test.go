package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("POSTGRES_DSN", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "course-enrollment-platform", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8000", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 30, cfg.Auth.AccessTokenTTLMinutes)
	assert.True(t, cfg.Auth.AllowAdminSignup)
	assert.Equal(t, 5*time.Second, cfg.Cache.CoursesTTL())
	assert.Equal(t, 100, cfg.RateLimit.AuthPerMinute)
	assert.Empty(t, cfg.Postgres.DSN)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")
	t.Setenv("AUTH_ALLOW_ADMIN_SIGNUP", "false")
	t.Setenv("CACHE_COURSES_TTL_SECONDS", "-1")
	t.Setenv("POSTGRES_MAX_CONNS", "not-a-number")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, time.Duration(0), cfg.App.RequestTimeout())
	assert.False(t, cfg.Auth.AllowAdminSignup)
	assert.Equal(t, time.Duration(0), cfg.Cache.CoursesTTL())
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
	assert.Equal(t, 5000, cfg.Postgres.LockTimeoutMs)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()

	assert.ErrorContains(t, err, "invalid REDIS_DB")
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()

	assert.ErrorContains(t, err, "AUTH_JWT_SECRET")
}
