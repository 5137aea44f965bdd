package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "/api/v1", cfg.API.BasePath())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
	assert.Equal(t, "1.0.0", cfg.Service.Version)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, time.Minute, cfg.Stats.ReportInterval)
	assert.False(t, cfg.Elastic.Enabled)
	assert.Equal(t, "ingest-records", FormatIndex(cfg.Elastic))
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "8081")
	t.Setenv("API_PREFIX", "/service")
	t.Setenv("API_VERSION", "v2")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGIN", "https://a.example, https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "/service/v2", cfg.API.BasePath())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.Origins)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "ingest.yaml")
	content := `
port: 4000
api:
  prefix: /data-api
servicebus:
  queue_name: audit
elastic:
  enabled: true
  prefix: ""
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "/data-api/v1", cfg.API.BasePath())
	assert.Equal(t, "audit", cfg.ServiceBus.QueueName)
	assert.True(t, cfg.Elastic.Enabled)
	assert.Equal(t, "records", FormatIndex(cfg.Elastic))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		prefix, version, want string
	}{
		{"/api", "v1", "/api/v1"},
		{"api/", "/v1/", "/api/v1"},
		{"", "v1", "/v1"},
		{"/api", "", "/api"},
		{"", "", "/"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, APIConfig{Prefix: tt.prefix, Version: tt.version}.BasePath())
	}
}

func TestLoadAppEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte("PORT=5000\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestLoadMalformedAppEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte("this line has no assignment\n"), 0o600))

	_, err := Load("")
	require.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("port: [unclosed\n"), 0o600))

	_, err := Load("")
	require.Error(t, err)
}
