package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8050, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "viewedHistory.csv", cfg.Data.HistoryPath)
	assert.Equal(t, "genres.json", cfg.Data.GenresPath)
	assert.Equal(t, ";", cfg.Data.Delimiter)
	assert.Equal(t, "dateStr", cfg.Data.DateColumn)
	assert.Equal(t, 2020, cfg.Dashboard.Year)
	assert.Equal(t, "Netflix Wrapped", cfg.Dashboard.Title)
	assert.Equal(t, 4, cfg.Metadata.Concurrency)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "wrapped.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
data:
  history_path: /data/history.csv
  delimiter: ","
dashboard:
  year: 2019
metadata:
  timeout: 3s
`), 0o644))

	t.Setenv("WRAPPED_DASHBOARD_YEAR", "2021")
	t.Setenv("WRAPPED_LOGGING_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/data/history.csv", cfg.Data.HistoryPath)
	assert.Equal(t, ",", cfg.Data.Delimiter)
	assert.Equal(t, 3*time.Second, cfg.Metadata.Timeout)
	assert.Equal(t, 2021, cfg.Dashboard.Year)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WRAPPED_METADATA_API_KEY=from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("WRAPPED_METADATA_API_KEY") })

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Metadata.APIKey)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadConfig("does-not-exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does-not-exist.yaml")
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "tab delimiter", mutate: func(c *Config) { c.Data.Delimiter = `\t` }},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "no history", mutate: func(c *Config) { c.Data.HistoryPath = "" }, wantErr: true},
		{name: "long delimiter", mutate: func(c *Config) { c.Data.Delimiter = ";;" }, wantErr: true},
		{name: "zero batch", mutate: func(c *Config) { c.Data.BatchSize = 0 }, wantErr: true},
		{name: "year out of range", mutate: func(c *Config) { c.Dashboard.Year = 20 }, wantErr: true},
		{name: "zero rate", mutate: func(c *Config) { c.Metadata.RequestsPerSecond = 0 }, wantErr: true},
		{name: "unknown level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
		{name: "unknown format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig("")
			require.NoError(t, err)

			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
