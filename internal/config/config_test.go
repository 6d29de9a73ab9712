package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "reports", cfg.Paths.ReportsDir)
	assert.True(t, cfg.Security.RateLimit.Enabled)
	assert.Equal(t, int64(10<<20), cfg.Forecast.MaxUploadBytes)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "default config is valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero read timeout",
			mutate:  func(c *Config) { c.Server.ReadTimeout = 0 },
			wantErr: "read timeout must be positive",
		},
		{
			name:    "no allowed origins",
			mutate:  func(c *Config) { c.Security.AllowedOrigins = nil },
			wantErr: "allowed origin",
		},
		{
			name:    "zero upload limit",
			mutate:  func(c *Config) { c.Forecast.MaxUploadBytes = 0 },
			wantErr: "max upload bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidate_ForcesJSONFormat(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"

	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestMergeConfigs(t *testing.T) {
	var file Config
	file.Server.Port = 9090
	file.Logging.Level = "debug"
	file.Paths.ReportsDir = "/srv/reports"

	t.Run("env wins for populated fields", func(t *testing.T) {
		env := *Default()
		merged := mergeConfigs(file, env)

		// the env side carries the struct-tag default, so the file value
		// for the port never applies
		assert.Equal(t, 8080, merged.Server.Port)
	})

	t.Run("file fills zero env fields", func(t *testing.T) {
		var env Config
		merged := mergeConfigs(file, env)

		assert.Equal(t, 9090, merged.Server.Port)
		assert.Equal(t, "debug", merged.Logging.Level)
		assert.Equal(t, "/srv/reports", merged.Paths.ReportsDir)
	})
}

func TestGetReportPath(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "reports/forecast.csv", cfg.GetReportPath("forecast.csv"))
	assert.Equal(t, "/tmp/out.csv", cfg.GetReportPath("/tmp/out.csv"))
}

func TestEnsureDirectories(t *testing.T) {
	cfg := Default()
	dir := t.TempDir()
	cfg.Paths.DataDir = dir + "/data"
	cfg.Paths.ReportsDir = dir + "/reports"
	cfg.Paths.LogsDir = dir + "/logs"

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.Paths.DataDir)
	assert.DirExists(t, cfg.Paths.ReportsDir)
	assert.DirExists(t, cfg.Paths.LogsDir)
}
