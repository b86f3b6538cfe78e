package agents

import (
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"

	"github.com/interaxions/interaxions/schemas"
)

func sweContext() *TaskContext {
	return &TaskContext{
		Model: schemas.ModelSettings{
			Provider: "openai",
			Model:    "gpt-4",
			BaseURL:  "https://api.openai.com/v1",
			APIKey:   "sk-test",
		},
		InstanceID: "django__django-12345",
		Dataset:    "princeton-nlp/SWE-bench",
		Split:      "test",
		WorkingDir: "/testbed",
		BaseCommit: "abc123",
		Params: map[string]any{
			"max_iterations": 10,
		},
	}
}

func TestSWEAgentCreateTask(t *testing.T) {
	agent, ok := Builtin(TypeSWEAgent)
	require.True(t, ok)

	t.Run("renders the main script", func(t *testing.T) {
		task, err := agent.CreateTask("agent-rollout", sweContext())
		require.NoError(t, err)

		require.NotNil(t, task.Template.Container)
		require.Len(t, task.Template.Container.Command, 3)
		script := task.Template.Container.Command[2]
		assert.Contains(t, script, "django__django-12345")
		assert.Contains(t, script, "--max_iterations 10")
		assert.Contains(t, script, "--working_dir /testbed")
	})

	t.Run("attaches the sidecar and shared volume", func(t *testing.T) {
		task, err := agent.CreateTask("agent-rollout", sweContext())
		require.NoError(t, err)

		require.Len(t, task.Template.Sidecars, 1)
		assert.Equal(t, "swerex-remote", task.Template.Sidecars[0].Name)
		assert.Contains(t, task.Template.Sidecars[0].Command[2], "princeton-nlp/SWE-bench")

		require.Len(t, task.Template.Volumes, 1)
		assert.Equal(t, "shared-volume", task.Template.Volumes[0].Name)
	})

	t.Run("labels the task", func(t *testing.T) {
		task, err := agent.CreateTask("agent-rollout", sweContext())
		require.NoError(t, err)

		require.NotNil(t, task.Template.Metadata)
		assert.Equal(t, "rollout", task.Template.Metadata.Labels["task-type"])
	})

	t.Run("honors the pull policy", func(t *testing.T) {
		ctx := sweContext()
		ctx.ImagePullPolicy = corev1.PullAlways

		task, err := agent.CreateTask("agent-rollout", ctx)
		require.NoError(t, err)
		assert.Equal(t, corev1.PullAlways, task.Template.Container.ImagePullPolicy)
	})

	t.Run("rejects a nil context", func(t *testing.T) {
		_, err := agent.CreateTask("agent-rollout", nil)
		assert.Error(t, err)
	})
}

func TestAgentFromRepo(t *testing.T) {
	t.Run("loads config and template files", func(t *testing.T) {
		fs := memfs.New()
		dir := "/repo"
		require.NoError(t, fs.MkdirAll(filepath.Join(dir, "templates"), 0o755))
		require.NoError(t, util.WriteFile(fs, filepath.Join(dir, "config.yaml"), []byte(
			"repo_type: agent\ntype: swe-agent\nimage: example/agent:2\ntemplates:\n  main: templates/main.sh.tmpl\n"), 0o644))
		require.NoError(t, util.WriteFile(fs, filepath.Join(dir, "templates", "main.sh.tmpl"),
			[]byte("#!/bin/bash\necho custom {{ .InstanceID }}\n"), 0o644))

		agent, err := FromRepo(fs, dir)
		require.NoError(t, err)

		task, err := agent.CreateTask("agent-rollout", sweContext())
		require.NoError(t, err)
		assert.Equal(t, "example/agent:2", task.Template.Container.Image)
		assert.Contains(t, task.Template.Container.Command[2], "echo custom django__django-12345")
	})

	t.Run("missing template file fails", func(t *testing.T) {
		fs := memfs.New()
		dir := "/repo"
		require.NoError(t, fs.MkdirAll(dir, 0o755))
		require.NoError(t, util.WriteFile(fs, filepath.Join(dir, "config.yaml"), []byte(
			"repo_type: agent\ntype: swe-agent\ntemplates:\n  main: templates/missing.tmpl\n"), 0o644))

		_, err := FromRepo(fs, dir)
		assert.Error(t, err)
	})

	t.Run("unknown agent type fails", func(t *testing.T) {
		fs := memfs.New()
		dir := "/repo"
		require.NoError(t, fs.MkdirAll(dir, 0o755))
		require.NoError(t, util.WriteFile(fs, filepath.Join(dir, "config.yaml"),
			[]byte("repo_type: agent\ntype: mystery\n"), 0o644))

		_, err := FromRepo(fs, dir)
		assert.Error(t, err)
	})
}

func TestBuiltin(t *testing.T) {
	_, ok := Builtin("swe-agent")
	assert.True(t, ok)

	_, ok = Builtin("unknown-agent")
	assert.False(t, ok)
}
