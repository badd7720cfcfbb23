package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("IRONBOARD_HOME", dir)
	t.Setenv("IRONBOARD_SERVER", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:5000", cfg.ServerURL)
	require.Equal(t, time.Second, cfg.RevertDelay)
	require.Equal(t, filepath.Join(dir, "state.db"), cfg.StatePath)
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("IRONBOARD_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.ServerURL = "http://api.example.test"
	cfg.DefaultProject = 12
	cfg.RevertDelay = 250 * time.Millisecond
	require.NoError(t, cfg.Save())

	loaded, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://api.example.test", loaded.ServerURL)
	require.Equal(t, int64(12), loaded.DefaultProject)
	require.Equal(t, 250*time.Millisecond, loaded.RevertDelay)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("IRONBOARD_HOME", t.TempDir())
	t.Setenv("IRONBOARD_PROJECT", "7")
	t.Setenv("IRONBOARD_REVERT_DELAY", "2s")

	cfg := DefaultConfig()
	require.Equal(t, int64(7), cfg.DefaultProject)
	require.Equal(t, 2*time.Second, cfg.RevertDelay)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("IRONBOARD_HOME", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("request_timeout: 0s\n"), 0644))

	_, err := Load()
	require.Error(t, err)
}
