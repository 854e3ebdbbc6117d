package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultBackendURL, cfg.BackendURL)
	assert.Equal(t, DefaultPollInterval, cfg.Interval())
	assert.Equal(t, DefaultOutputPath, cfg.OutputPath)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
backend_url: https://classify.internal.example
poll_interval: 250ms
watch_dir: /var/spool/frames
output_path: out/code.png
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://classify.internal.example", cfg.BackendURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Interval())
	assert.Equal(t, "/var/spool/frames", cfg.WatchDir)
	assert.Equal(t, "out/code.png", cfg.OutputPath)
	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultStoragePath, cfg.StoragePath)
}

func TestLoad_InvalidBackendURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend_url: ::not-a-url::\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll_interval: soon\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
