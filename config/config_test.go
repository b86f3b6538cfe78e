package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		t.Setenv("IX_HOME", "")
		t.Setenv("IX_HUB_CACHE", "")
		t.Setenv("IX_ENDPOINT", "")
		t.Setenv("IX_OFFLINE", "")

		cfg, err := Load()
		require.NoError(t, err)

		assert.True(t, filepath.IsAbs(cfg.Home))
		assert.Equal(t, filepath.Join(cfg.Home, "hub"), cfg.CacheDir)
		assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
		assert.False(t, cfg.Offline)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("IX_HOME", "/srv/interaxions")
		t.Setenv("IX_HUB_CACHE", "/var/cache/ix-hub")
		t.Setenv("IX_ENDPOINT", "https://gitlab.example.com")
		t.Setenv("IX_OFFLINE", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "/srv/interaxions", cfg.Home)
		assert.Equal(t, "/var/cache/ix-hub", cfg.CacheDir)
		assert.Equal(t, "https://gitlab.example.com", cfg.Endpoint)
		assert.True(t, cfg.Offline)
	})

	t.Run("cache dir follows home", func(t *testing.T) {
		t.Setenv("IX_HOME", "/srv/interaxions")
		t.Setenv("IX_HUB_CACHE", "")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/srv/interaxions", "hub"), cfg.CacheDir)
	})
}
