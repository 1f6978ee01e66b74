package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithEmptyPathAppliesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCacheCapacity, cfg.Coordinator.CacheCapacity)
	assert.Equal(t, DefaultBeatInterval, cfg.Coordinator.BeatInterval)
	assert.Equal(t, DefaultSweepInterval, cfg.Coordinator.SweepInterval)
	assert.Equal(t, DefaultHeartbeatPort, cfg.Coordinator.HeartbeatPort)
	assert.Equal(t, DefaultMetricsPort, cfg.Coordinator.MetricsPort)
	assert.Equal(t, DefaultPoolSize, cfg.Coordinator.PoolSize)
	assert.Equal(t, DefaultBeatInterval, cfg.Node.BeatInterval)
}

func TestLoadOverridesDefaultsFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plethora.yaml")
	contents := "coordinator:\n  cache_capacity: 16\n  sweep_interval: 10s\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Coordinator.CacheCapacity)
	assert.Equal(t, 10*time.Second, cfg.Coordinator.SweepInterval)
	// Untouched fields still default.
	assert.Equal(t, DefaultHeartbeatPort, cfg.Coordinator.HeartbeatPort)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/path/plethora.yaml")
	assert.Error(t, err)
}

func TestWriteThenReadEndpointRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	require.NoError(t, WriteEndpoint("127.0.0.1", 8080))

	ip, port, err := ReadEndpoint()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", ip)
	assert.Equal(t, 8080, port)
}

func TestReadEndpointMissingFile(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	_, _, err = ReadEndpoint()
	assert.Error(t, err)
}
