package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"database_url": "postgres://localhost/cgpa",
		"port": 9090,
		"log_format": "json",
		"verbose": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "postgres://localhost/cgpa", cfg.DatabaseURL)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty config", cfg: Config{}},
		{name: "valid", cfg: Config{Port: 8080, LogFormat: LogFormatLogfmt}},
		{name: "negative port", cfg: Config{Port: -1}, wantErr: "'port'"},
		{name: "port too large", cfg: Config{Port: 70000}, wantErr: "'port'"},
		{name: "unknown log format", cfg: Config{LogFormat: "xml"}, wantErr: "'log_format'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{Port: 9000}
	defaults := Config{DatabaseURL: "postgres://env/cgpa", Port: 7000}

	merged := cfg.MergeWithDefaults(defaults)

	assert.Equal(t, "postgres://env/cgpa", merged.DatabaseURL)
	assert.Equal(t, 9000, merged.Port, "explicit value wins over default")
	assert.Equal(t, LogFormatLogfmt, merged.LogFormat)
	assert.Empty(t, cfg.DatabaseURL, "receiver is not modified")
}

func TestMergeWithDefaults_FallsBackToDefaultPort(t *testing.T) {
	merged := (&Config{}).MergeWithDefaults(Config{})
	assert.Equal(t, DefaultPort, merged.Port)
	assert.Equal(t, LogFormatLogfmt, merged.LogFormat)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/cgpa")
	t.Setenv("PORT", "8181")
	t.Setenv("LOG_FORMAT", "json")

	cfg := FromEnv()
	assert.Equal(t, "postgres://env/cgpa", cfg.DatabaseURL)
	assert.Equal(t, 8181, cfg.Port)
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
}

func TestFromEnv_IgnoresBadPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	assert.Equal(t, 0, FromEnv().Port)
}
