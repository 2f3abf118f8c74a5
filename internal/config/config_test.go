package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigContent = `
[development]
host = "localhost"
port = 8080
log_level = "trace"
log_to_stdout = true
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "fittracker"
redis_host = "localhost"
redis_port = "6379"
prometheus_metrics_host = "localhost"
prometheus_metrics_port = "2112"
plan_uploads_path = "/tmp/fittracker/plans"

[production]
host = ""
port = 9000
log_level = "debug"
logs_path = "/var/log/fittracker/service"
sentry_enabled = true
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "fittracker"
redis_host = "localhost"
redis_port = "6379"
prometheus_metrics_host = "localhost"
prometheus_metrics_port = "2112"
login_rate_limit_allowed_per_min = 10
plan_uploads_path = "/data/fittracker/plans"
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigContent), 0o600))
	return path
}

func TestLoad_Development(t *testing.T) {
	cfg, err := Load("development", writeTestConfig(t))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "trace", cfg.LogLevel)
	assert.True(t, cfg.LogToStdout)
	assert.False(t, cfg.SentryEnabled)
	assert.Equal(t, "fittracker", cfg.PostgresDBName)
	// default applied when not set
	assert.Equal(t, 15, cfg.LoginRateLimitAllowedPerMin)
}

func TestLoad_Production(t *testing.T) {
	cfg, err := Load("prod", writeTestConfig(t))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.SentryEnabled)
	assert.Equal(t, 10, cfg.LoginRateLimitAllowedPerMin)
	assert.Equal(t, "/var/log/fittracker/service", cfg.LogsPath)
}

func TestLoad_UnknownEnv(t *testing.T) {
	cfg, err := Load("staging", writeTestConfig(t))
	require.Error(t, err)
	assert.Nil(t, cfg)
}
