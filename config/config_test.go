package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parley-sh/parley/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.BaseURL)
	assert.Equal(t, "60s", cfg.Timeout)
	assert.True(t, cfg.Streaming)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: http://example.com:9000\nmodel: gpt-4o\nstreaming: false\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com:9000", cfg.BaseURL)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.False(t, cfg.Streaming)
	// Untouched keys keep their defaults.
	assert.Equal(t, "60s", cfg.Timeout)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: [unclosed"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PARLEY_BASE_URL", "http://override:1234")
	t.Setenv("PARLEY_MODEL", "claude-sonnet")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: http://file:8000\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://override:1234", cfg.BaseURL)
	assert.Equal(t, "claude-sonnet", cfg.Model)
}

func TestRequestTimeout(t *testing.T) {
	cfg := config.Default()
	d, err := cfg.RequestTimeout()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, d)

	cfg.Timeout = "bogus"
	_, err = cfg.RequestTimeout()
	require.Error(t, err)

	cfg.Timeout = "-5s"
	_, err = cfg.RequestTimeout()
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := config.Default()
	cfg.Provider = "anthropic"
	require.NoError(t, cfg.Save(path))

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", got.Provider)
}
