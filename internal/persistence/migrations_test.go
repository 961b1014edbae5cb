package persistence

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrationURL(t *testing.T) {
	tests := []struct {
		dsn     string
		want    string
		wantErr bool
	}{
		{dsn: "postgres://u:p@localhost:5432/db?sslmode=disable", want: "pgx5://u:p@localhost:5432/db?sslmode=disable"},
		{dsn: "postgresql://localhost/db", want: "pgx5://localhost/db"},
		{dsn: "pgx5://localhost/db", want: "pgx5://localhost/db"},
		{dsn: "host=localhost dbname=db", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			got, err := migrationURL(tt.dsn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMigrationFilesEmbedded(t *testing.T) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	require.NoError(t, err)

	assert.Contains(t, names, "migrations/000001_init_schema.up.sql")
	assert.Contains(t, names, "migrations/000001_init_schema.down.sql")

	up, err := fs.ReadFile(migrationFiles, "migrations/000001_init_schema.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "enrollments_user_course_key")
	assert.Contains(t, string(up), "courses_capacity_check")
}

func TestRunMigrations_SkipsWithoutDSN(t *testing.T) {
	assert.NoError(t, RunMigrations("", zap.NewNop()))
}
