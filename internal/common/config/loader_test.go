package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://api.example.com/api/
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 30000, cfg.API.Timeout)
	assert.Equal(t, 30*time.Second, cfg.API.RequestTimeout())
	assert.Equal(t, SessionBackendFile, cfg.Session.Backend)
	assert.NotEmpty(t, cfg.Session.FilePath)
	assert.Equal(t, "talent-sync:session", cfg.Session.KeyPrefix)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, 10, cfg.Realtime.MaxRetries)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("TEST_TALENT_API", "https://staging.example.com")
	path := writeConfig(t, `
api:
  base_url: ${TEST_TALENT_API}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.com", cfg.API.BaseURL)
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("TALENT_SYNC_API_BASE_URL", "https://override.example.com")
	t.Setenv("TALENT_SYNC_SESSION_BACKEND", "memory")
	path := writeConfig(t, `
api:
  base_url: https://api.example.com
session:
  backend: file
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.com", cfg.API.BaseURL)
	assert.Equal(t, SessionBackendMemory, cfg.Session.Backend)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{
			name:   "missing base url",
			body:   "app:\n  name: x\n",
			errMsg: "api.base_url is required",
		},
		{
			name:   "non http base url",
			body:   "api:\n  base_url: ftp://example.com\n",
			errMsg: "api.base_url must be an http(s) URL",
		},
		{
			name:   "redis backend without address",
			body:   "api:\n  base_url: https://x.test\nsession:\n  backend: redis\n",
			errMsg: "database.redis.address is required",
		},
		{
			name:   "unknown backend",
			body:   "api:\n  base_url: https://x.test\nsession:\n  backend: sqlite\n",
			errMsg: "session.backend must be one of",
		},
		{
			name:   "realtime without url",
			body:   "api:\n  base_url: https://x.test\nrealtime:\n  enabled: true\n",
			errMsg: "realtime.url is required",
		},
		{
			name:   "negative rate limit",
			body:   "api:\n  base_url: https://x.test\n  rate_limit: -1\n",
			errMsg: "api.rate_limit must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("API_BASE_URL", "")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadFromFile_RateBurstDefault(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://api.example.com
  rate_limit: 5
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.API.RateLimit)
	assert.Equal(t, 1, cfg.API.RateBurst)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}
