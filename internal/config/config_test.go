package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siggate/internal/models"
)

// minimal environment to make the default config valid
func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SIGGATE_UPSTREAM_URL", "http://127.0.0.1:9000")
	t.Setenv("SIGGATE_AUTH_ENABLED", "false")
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_DefaultsWithEnvironment(t *testing.T) {
	setValidEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.Upstream.URL)
	assert.False(t, cfg.Auth.Enabled)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9999
upstream:
  url: http://backend:8080
  timeout: 15s
auth:
  enabled: true
  keystore:
    type: memory
    keys:
      - key_id: client-1
        secret: topsecret
        algorithm: hmac-sha256
governance:
  store:
    type: memory
  endpoints:
    - name: preferred
      path: /fruit
      methods: [GET]
      rate:
        limit: 10
        window: 10s
    - name: preferredPost
      path: /hello
      methods: [POST]
      concurrency:
        limit: 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "http://backend:8080", cfg.Upstream.URL)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout)

	require.Len(t, cfg.Auth.Keystore.Keys, 1)
	assert.Equal(t, "client-1", cfg.Auth.Keystore.Keys[0].KeyID)

	require.Len(t, cfg.Governance.Endpoints, 2)
	ep, ok := cfg.Governance.EndpointByName("preferred")
	require.True(t, ok)
	require.NotNil(t, ep.Rate)
	assert.Equal(t, 10, ep.Rate.Limit)
	assert.Equal(t, 10*time.Second, ep.Rate.Window)

	ep, ok = cfg.Governance.EndpointByName("preferredPost")
	require.True(t, ok)
	require.NotNil(t, ep.Concurrency)
	assert.Equal(t, 2, ep.Concurrency.Limit)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9999
upstream:
  url: http://backend:8080
auth:
  enabled: false
`)

	t.Setenv("SIGGATE_PORT", "7777")
	t.Setenv("SIGGATE_UPSTREAM_URL", "http://other-backend:8080")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "http://other-backend:8080", cfg.Upstream.URL)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	setValidEnv(t)
	t.Setenv("SIGGATE_HOST", "127.0.0.1")
	t.Setenv("SIGGATE_READ_TIMEOUT", "45s")
	t.Setenv("SIGGATE_AUTH_DEBUG_HEADERS", "true")
	t.Setenv("SIGGATE_GOVERNANCE_STORE_TYPE", "redis")
	t.Setenv("SIGGATE_REDIS_ADDR", "localhost:6379")
	t.Setenv("SIGGATE_REDIS_DB", "3")
	t.Setenv("SIGGATE_LOG_LEVEL", "debug")
	t.Setenv("SIGGATE_METRICS_ENABLED", "false")
	t.Setenv("SIGGATE_SERVICE_NAME", "siggate-edge")
	t.Setenv("SIGGATE_TRACING_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Auth.DebugHeaders)
	assert.Equal(t, models.GovernanceStoreRedis, cfg.Governance.Store.Type)
	assert.Equal(t, "localhost:6379", cfg.Governance.Store.Redis.Addr)
	assert.Equal(t, 3, cfg.Governance.Store.Redis.DB)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "siggate-edge", cfg.Observability.ServiceName)
	assert.True(t, cfg.Observability.Tracing.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not: valid")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	// Upstream URL missing; defaults alone are not a runnable config.
	_, err := Load("")
	assert.Error(t, err)
}
