package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalConfig = `
[metadata]
provider = "fl"
url = "https://meta.example.com"
api_key = "meta-key"

[indexer]
name = "indexer"
url = "https://indexer.example.com"
api_key = "indexer-key"

[engine]
url = "http://localhost:8080"
category = "books"
`

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8787, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "./data/bookarr.db", cfg.Database.Path)
	assert.Equal(t, 60*time.Second, cfg.Engine.NotFoundGrace.Duration())
	assert.Equal(t, 30*time.Second, cfg.Sync.Interval.Duration())
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.BaseDelay.Duration())
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxDelay.Duration())
}

func TestLoad_ExplicitValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
[server]
host = "127.0.0.1"
port = 9090
log_level = "debug"

[sync]
interval = "10s"

[retry]
max_retries = 5
base_delay = "1s"
max_delay = "1m"
`))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Sync.Interval.Duration())
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay.Duration())
	assert.Equal(t, time.Minute, cfg.Retry.MaxDelay.Duration())
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("BOOKARR_TEST_KEY", "secret-from-env")

	cfg, err := Load(writeConfig(t, `
[metadata]
provider = "fl"
url = "https://meta.example.com"
api_key = "${BOOKARR_TEST_KEY}"

[indexer]
url = "https://indexer.example.com"
api_key = "${BOOKARR_MISSING_KEY}"

[engine]
url = "http://localhost:8080"
`))
	require.NoError(t, err)

	assert.Equal(t, "secret-from-env", cfg.Metadata.APIKey)
	// Unknown variables are left as-is so validation can flag them.
	assert.Equal(t, "${BOOKARR_MISSING_KEY}", cfg.Indexer.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
[sync]
interval = "not-a-duration"
`))
	assert.Error(t, err)
}

func TestValidate_OK(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Empty(t, cfg.Validate())
}

func TestValidate_Problems(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 99999
	cfg.Server.LogLevel = "loud"
	cfg.Metadata.URL = "not a url"
	cfg.Retry.MaxRetries = -1

	problems := cfg.Validate()
	assert.NotEmpty(t, problems)

	joined := ""
	for _, p := range problems {
		joined += p + "\n"
	}
	assert.Contains(t, joined, "server.port")
	assert.Contains(t, joined, "server.log_level")
	assert.Contains(t, joined, "metadata.provider")
	assert.Contains(t, joined, "metadata.url")
	assert.Contains(t, joined, "indexer.url")
	assert.Contains(t, joined, "engine.url")
	assert.Contains(t, joined, "retry.max_retries")
}
