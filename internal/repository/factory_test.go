package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkmap-analysis/pkg/config"
	apperrors "github.com/linkmap-analysis/pkg/errors"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.DatabaseConfig
		want    string
		wantErr bool
	}{
		{"SQLite", config.DatabaseConfig{Type: "sqlite", SQLitePath: ":memory:"}, "sqlite", false},
		{"EmptyTypeIsSQLite", config.DatabaseConfig{SQLitePath: ":memory:"}, "sqlite", false},
		{"PostgreSQL", config.DatabaseConfig{Type: "postgres", Host: "localhost", Port: 5432}, "postgres", false},
		{"PostgreSQL_Alt", config.DatabaseConfig{Type: "postgresql", Host: "localhost", Port: 5432}, "postgres", false},
		{"MySQL", config.DatabaseConfig{Type: "mysql", Host: "localhost", Port: 3306}, "mysql", false},
		{"Unsupported", config.DatabaseConfig{Type: "oracle"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Dialector(&tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unsupported database type")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}
}

func TestNewGormDB_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "reports.db")

	db, err := NewGormDB(&config.DatabaseConfig{Type: "sqlite", SQLitePath: path})
	require.NoError(t, err)

	repos := NewRepositories(db)
	require.NotNil(t, repos.Report)
	assert.Equal(t, db, repos.GormDB())
	assert.NoError(t, repos.HealthCheck(context.Background()))

	assert.True(t, db.Migrator().HasTable(&MapReportRecord{}))
	assert.True(t, db.Migrator().HasTable(&MemoryRegionRecord{}))

	id, err := repos.Report.SaveReport(context.Background(), testReport("app.map", "aaaa", 0x10))
	require.NoError(t, err)
	assert.Positive(t, id)

	assert.NoError(t, repos.Close())
}

func TestNewGormDB_Unsupported(t *testing.T) {
	_, err := NewGormDB(&config.DatabaseConfig{Type: "oracle"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigError, apperrors.GetErrorCode(err))
}

func TestRepositories_CloseNil(t *testing.T) {
	assert.NoError(t, (&Repositories{}).Close())
}
