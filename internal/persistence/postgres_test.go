package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mouhsinou/course-enrollment-platform/internal/config"
)

func TestPoolConfig(t *testing.T) {
	cfg, err := poolConfig(config.PostgresConfig{
		DSN:                "postgres://u:p@db.internal:5432/enroll?sslmode=disable",
		MaxConns:           12,
		MinConns:           3,
		ConnMaxIdleSec:     30,
		ConnMaxLifeSec:     300,
		LockTimeoutMs:      2500,
		StatementTimeoutMs: 10000,
	})
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.ConnConfig.Host)
	assert.Equal(t, "enroll", cfg.ConnConfig.Database)
	assert.Equal(t, int32(12), cfg.MaxConns)
	assert.Equal(t, int32(3), cfg.MinConns)
	assert.Equal(t, 30*time.Second, cfg.MaxConnIdleTime)
	assert.Equal(t, 5*time.Minute, cfg.MaxConnLifetime)
	assert.Equal(t, "2500", cfg.ConnConfig.RuntimeParams["lock_timeout"])
	assert.Equal(t, "10000", cfg.ConnConfig.RuntimeParams["statement_timeout"])
	assert.Equal(t, "course-enrollment-platform", cfg.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfig_KeepsDSNOverrides(t *testing.T) {
	cfg, err := poolConfig(config.PostgresConfig{
		DSN: "postgres://localhost/enroll?application_name=worker",
	})
	require.NoError(t, err)

	assert.Equal(t, "worker", cfg.ConnConfig.RuntimeParams["application_name"])
	assert.NotContains(t, cfg.ConnConfig.RuntimeParams, "lock_timeout")
}

func TestPoolConfig_InvalidDSN(t *testing.T) {
	_, err := poolConfig(config.PostgresConfig{DSN: "postgres://localhost:notaport/db"})
	assert.Error(t, err)
}

func TestNewPostgres_DisabledWithoutDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	defer pg.Close()

	assert.Nil(t, pg.PoolHandle())
	assert.ErrorIs(t, pg.Ping(context.Background()), ErrPostgresDisabled)
}
