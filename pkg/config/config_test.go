package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/linkmap-analysis/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))
	return configFile
}

func TestLoad_DefaultValues(t *testing.T) {
	configFile := writeConfig(t, `
storage:
  type: local
`)

	cfg, err := Load(configFile)
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, int64(64<<20), cfg.Parser.MaxFileSize)
	assert.Equal(t, 64, cfg.Parser.CacheSize)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, "**/*.map", cfg.Batch.Pattern)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.ServerAddr())
}

func TestLoad_CustomValues(t *testing.T) {
	configFile := writeConfig(t, `
parser:
  max_file_size: 1048576
  cache_size: 8
database:
  enabled: true
  type: postgres
  host: db.example.com
  port: 5433
  name: linkmap_reports
  user: admin
  password: secret
storage:
  type: local
  local_path: /tmp/storage
batch:
  workers: 8
  pattern: "build/**/*.map"
  timeout: 30s
server:
  port: 9090
  read_timeout: 5s
`)

	cfg, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, int64(1048576), cfg.Parser.MaxFileSize)
	assert.Equal(t, 8, cfg.Parser.CacheSize)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "linkmap_reports", cfg.Database.Name)
	assert.Equal(t, "/tmp/storage", cfg.Storage.LocalPath)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, "build/**/*.map", cfg.Batch.Pattern)
	assert.Equal(t, 30*time.Second, cfg.Batch.Timeout)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
}

func TestLoad_InvalidDatabaseType(t *testing.T) {
	configFile := writeConfig(t, `
database:
  enabled: true
  type: oracle
`)

	_, err := Load(configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
	assert.True(t, errors.Is(err, apperrors.ErrConfigError))
}

func TestLoad_DisabledDatabaseIsNotValidated(t *testing.T) {
	configFile := writeConfig(t, `
database:
  enabled: false
  type: oracle
`)

	_, err := Load(configFile)
	assert.NoError(t, err)
}

// Note: Storage validation tests live in internal/storage

func TestLoad_COSWithCredentials(t *testing.T) {
	configFile := writeConfig(t, `
storage:
  type: cos
  bucket: test-bucket
  region: ap-guangzhou
  secret_id: test-id
  secret_key: test-key
`)

	cfg, err := Load(configFile)
	require.NoError(t, err)
	assert.Equal(t, "cos", cfg.Storage.Type)
	assert.Equal(t, "test-bucket", cfg.Storage.Bucket)
	assert.Equal(t, "https", cfg.Storage.Scheme)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("LINKMAP_BATCH_WORKERS", "9")
	t.Setenv("LINKMAP_DATABASE_ENABLED", "true")
	t.Setenv("LINKMAP_DATABASE_SQLITE_PATH", "/tmp/reports.db")

	configFile := writeConfig(t, `
batch:
  workers: 2
`)

	cfg, err := Load(configFile)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Batch.Workers)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "/tmp/reports.db", cfg.Database.SQLitePath)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	// Should not return error, use defaults
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, 4, cfg.Batch.Workers)
}

func TestLoad_MalformedFile(t *testing.T) {
	configFile := writeConfig(t, "batch: [workers\n")

	_, err := Load(configFile)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigError, apperrors.GetErrorCode(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"negative size", func(c *Config) { c.Parser.MaxFileSize = -1 }, "max_file_size"},
		{"negative cache", func(c *Config) { c.Parser.CacheSize = -1 }, "cache_size"},
		{"sqlite without path", func(c *Config) {
			c.Database.Enabled = true
			c.Database.SQLitePath = ""
		}, "sqlite_path is required"},
		{"postgres without host", func(c *Config) {
			c.Database.Enabled = true
			c.Database.Type = "postgres"
			c.Database.Host = ""
		}, "database host is required"},
		{"zero workers", func(c *Config) { c.Batch.Workers = 0 }, "workers must be at least 1"},
		{"empty pattern", func(c *Config) { c.Batch.Pattern = "" }, "pattern is required"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadFromReader(t *testing.T) {
	content := []byte(`
database:
  enabled: true
  type: mysql
  host: mysql.local
log:
  level: debug
`)
	cfg, err := LoadFromReader("yaml", content)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, "mysql.local", cfg.Database.Host)
	assert.Equal(t, "debug", cfg.Log.Level)
}
