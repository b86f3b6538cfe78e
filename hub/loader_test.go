package hub

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const agentManifest = `kind: Agent
name: swe-agent
spec:
  image: ghcr.io/example/agent:latest
`

// writeModuleRepo lays out a plain (non-git) module repository fixture.
func writeModuleRepo(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func newTestLoader(t *testing.T) *ModuleLoader {
	t.Helper()

	cache, err := NewRepositoryCache(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	return NewModuleLoader(cache)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("loads a manifest", func(t *testing.T) {
		loader := newTestLoader(t)
		repoDir := filepath.Join(t.TempDir(), "agent-repo")
		writeModuleRepo(t, repoDir, map[string]string{"agent.yaml": agentManifest})

		unit, err := loader.Load(ctx, repoDir, "agent", "")
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(unit.Identity, "ix_hub_"))
		assert.True(t, strings.HasSuffix(unit.Identity, "_agent"))
		assert.Equal(t, repoDir, unit.Reference)
		assert.Len(t, unit.Components(), 1)
		assert.Equal(t, KindAgent, unit.Components()[0].Kind)
	})

	t.Run("second load returns the identical unit", func(t *testing.T) {
		loader := newTestLoader(t)
		repoDir := filepath.Join(t.TempDir(), "agent-repo")
		writeModuleRepo(t, repoDir, map[string]string{"agent.yaml": agentManifest})

		first, err := loader.Load(ctx, repoDir, "agent", "")
		require.NoError(t, err)
		second, err := loader.Load(ctx, repoDir, "agent", "")
		require.NoError(t, err)

		assert.Same(t, first, second)
	})

	t.Run("repositories with the same module name stay isolated", func(t *testing.T) {
		loader := newTestLoader(t)
		tmp := t.TempDir()
		repoA := filepath.Join(tmp, "repo-a")
		repoB := filepath.Join(tmp, "repo-b")
		writeModuleRepo(t, repoA, map[string]string{"agent.yaml": agentManifest})
		writeModuleRepo(t, repoB, map[string]string{"agent.yaml": agentManifest})

		unitA, err := loader.Load(ctx, repoA, "agent", "")
		require.NoError(t, err)
		unitB, err := loader.Load(ctx, repoB, "agent", "")
		require.NoError(t, err)

		assert.NotEqual(t, unitA.Identity, unitB.Identity)
		assert.NotEqual(t, unitA.Dir, unitB.Dir)
	})

	t.Run("missing manifest names the expected path", func(t *testing.T) {
		loader := newTestLoader(t)
		repoDir := filepath.Join(t.TempDir(), "empty-repo")
		writeModuleRepo(t, repoDir, map[string]string{"README.md": "nothing here"})

		_, err := loader.Load(ctx, repoDir, "agent", "")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		assert.Contains(t, err.Error(), "agent.yaml")
	})

	t.Run("accepts the yml extension", func(t *testing.T) {
		loader := newTestLoader(t)
		repoDir := filepath.Join(t.TempDir(), "yml-repo")
		writeModuleRepo(t, repoDir, map[string]string{"agent.yml": agentManifest})

		unit, err := loader.Load(ctx, repoDir, "agent", "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(unit.Dir, "agent.yml"), unit.Path)
	})

	t.Run("invalid manifests are not memoized", func(t *testing.T) {
		loader := newTestLoader(t)
		repoDir := filepath.Join(t.TempDir(), "bad-repo")
		writeModuleRepo(t, repoDir, map[string]string{"agent.yaml": "kind: [unclosed"})

		_, err := loader.Load(ctx, repoDir, "agent", "")
		require.Error(t, err)

		// Fix the source and drop the cached copy; the loader must retry
		// rather than replay the failure.
		writeModuleRepo(t, repoDir, map[string]string{"agent.yaml": agentManifest})
		require.NoError(t, loader.Invalidate(repoDir, ""))

		unit, err := loader.Load(ctx, repoDir, "agent", "")
		require.NoError(t, err)
		assert.Equal(t, KindAgent, unit.Components()[0].Kind)
	})

	t.Run("rejects path-like module names", func(t *testing.T) {
		loader := newTestLoader(t)

		_, err := loader.Load(ctx, "owner/repo", "nested/agent", "")
		require.Error(t, err)
	})
}

func TestLoaderInvalidate(t *testing.T) {
	ctx := context.Background()

	t.Run("drops matching units", func(t *testing.T) {
		loader := newTestLoader(t)
		repoDir := filepath.Join(t.TempDir(), "agent-repo")
		writeModuleRepo(t, repoDir, map[string]string{"agent.yaml": agentManifest})

		first, err := loader.Load(ctx, repoDir, "agent", "")
		require.NoError(t, err)

		require.NoError(t, loader.Invalidate(repoDir, ""))

		second, err := loader.Load(ctx, repoDir, "agent", "")
		require.NoError(t, err)
		assert.NotSame(t, first, second)
	})

	t.Run("invalidate all clears the registry and cache", func(t *testing.T) {
		loader := newTestLoader(t)
		repoDir := filepath.Join(t.TempDir(), "agent-repo")
		writeModuleRepo(t, repoDir, map[string]string{"agent.yaml": agentManifest})

		_, err := loader.Load(ctx, repoDir, "agent", "")
		require.NoError(t, err)

		require.NoError(t, loader.InvalidateAll())

		entries, err := os.ReadDir(loader.Cache().Root())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
