package environments

import (
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hfRequest() GetRequest {
	return GetRequest{
		EnvironmentID: "django__django-12345",
		Source:        "hf",
		Params: map[string]any{
			"dataset":     "princeton-nlp/SWE-bench",
			"split":       "test",
			"base_commit": "abc123",
		},
	}
}

func TestSWEBenchFactoryGet(t *testing.T) {
	factory, ok := Builtin(TypeSWEBench)
	require.True(t, ok)

	t.Run("builds an instance with defaults", func(t *testing.T) {
		env, err := factory.Get(hfRequest())
		require.NoError(t, err)

		assert.Equal(t, "django__django-12345", env.ID())

		instance, ok := env.(*SWEBenchEnvironment)
		require.True(t, ok)
		assert.Equal(t, "python", instance.Language)
		assert.Equal(t, "/testbed", instance.WorkingDir)
		assert.Equal(t, "swe-bench:django__django-12345", instance.DockerImage)
	})

	t.Run("rejects bad sources", func(t *testing.T) {
		req := hfRequest()
		req.Source = "ftp"
		_, err := factory.Get(req)
		assert.Error(t, err)
	})

	t.Run("requires dataset and split", func(t *testing.T) {
		req := hfRequest()
		delete(req.Params, "split")
		_, err := factory.Get(req)
		assert.Error(t, err)
	})

	t.Run("requires a base commit", func(t *testing.T) {
		req := hfRequest()
		delete(req.Params, "base_commit")
		_, err := factory.Get(req)
		assert.Error(t, err)
	})

	t.Run("requires an environment id", func(t *testing.T) {
		req := hfRequest()
		req.EnvironmentID = ""
		_, err := factory.Get(req)
		assert.Error(t, err)
	})
}

func TestSWEBenchCreateTask(t *testing.T) {
	factory, ok := Builtin(TypeSWEBench)
	require.True(t, ok)
	env, err := factory.Get(hfRequest())
	require.NoError(t, err)

	t.Run("renders the verify script", func(t *testing.T) {
		task, err := env.CreateTask("environment-verify", nil)
		require.NoError(t, err)

		require.NotNil(t, task.Template.Container)
		script := task.Template.Container.Command[2]
		assert.Contains(t, script, "django__django-12345")
		assert.Contains(t, script, "--predictions_path gold")
	})

	t.Run("honors an explicit predictions path", func(t *testing.T) {
		task, err := env.CreateTask("environment-verify", map[string]any{
			"predictions_path": "/workspace/predictions.json",
		})
		require.NoError(t, err)
		assert.Contains(t, task.Template.Container.Command[2], "/workspace/predictions.json")
	})
}

func TestEnvironmentFromRepo(t *testing.T) {
	t.Run("loads config and verify template", func(t *testing.T) {
		fs := memfs.New()
		dir := "/repo"
		require.NoError(t, fs.MkdirAll(filepath.Join(dir, "templates"), 0o755))
		require.NoError(t, util.WriteFile(fs, filepath.Join(dir, "config.yaml"), []byte(
			"repo_type: environment\ntype: swe-bench\ntemplates:\n  verify: templates/verify.sh.tmpl\n"), 0o644))
		require.NoError(t, util.WriteFile(fs, filepath.Join(dir, "templates", "verify.sh.tmpl"),
			[]byte("#!/bin/bash\necho verify {{ .InstanceID }} to {{ .OutputDir }}\n"), 0o644))

		factory, err := FromRepo(fs, dir)
		require.NoError(t, err)

		env, err := factory.Get(hfRequest())
		require.NoError(t, err)
		task, err := env.CreateTask("environment-verify", nil)
		require.NoError(t, err)
		assert.Contains(t, task.Template.Container.Command[2], "echo verify django__django-12345 to /output")
	})

	t.Run("unknown environment type fails", func(t *testing.T) {
		fs := memfs.New()
		dir := "/repo"
		require.NoError(t, fs.MkdirAll(dir, 0o755))
		require.NoError(t, util.WriteFile(fs, filepath.Join(dir, "config.yaml"),
			[]byte("repo_type: environment\ntype: mystery\n"), 0o644))

		_, err := FromRepo(fs, dir)
		assert.Error(t, err)
	})
}
