package workflows

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

func containerTask(name string) *Task {
	return &Task{
		Name: name,
		Template: Template{
			Name: name,
			Container: &corev1.Container{
				Name:    name,
				Image:   "example/image:1",
				Command: []string{"bash", "-c", "true"},
			},
		},
	}
}

func TestRolloutAndVerifyCreate(t *testing.T) {
	def, ok := Builtin(TypeRolloutAndVerify)
	require.True(t, ok)

	t.Run("orders verify after rollout", func(t *testing.T) {
		ttl := int32(3600)
		w, err := def.Create("run-001", CreateRequest{
			AgentTask:  containerTask("agent-rollout"),
			VerifyTask: containerTask("environment-verify"),
			Runtime: schemas.Runtime{
				Namespace:               "experiments",
				ServiceAccount:          "runner",
				TTLSecondsAfterFinished: &ttl,
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "run-001", w.ObjectMeta.Name)
		assert.Equal(t, "experiments", w.ObjectMeta.Namespace)
		assert.Equal(t, "runner", w.Spec.ServiceAccountName)
		require.NotNil(t, w.Spec.TTLStrategy)
		assert.Equal(t, ttl, *w.Spec.TTLStrategy.SecondsAfterCompletion)

		// Two task templates plus the DAG entrypoint.
		require.Len(t, w.Spec.Templates, 3)
		assert.Equal(t, "main", w.Spec.Entrypoint)

		dag := w.Spec.Templates[2].DAG
		require.NotNil(t, dag)
		require.Len(t, dag.Tasks, 2)
		assert.Empty(t, dag.Tasks[0].Dependencies)
		assert.Equal(t, []string{"agent-rollout"}, dag.Tasks[1].Dependencies)
	})

	t.Run("defaults the namespace", func(t *testing.T) {
		w, err := def.Create("run-002", CreateRequest{
			AgentTask:  containerTask("a"),
			VerifyTask: containerTask("v"),
		})
		require.NoError(t, err)
		assert.Equal(t, "default", w.ObjectMeta.Namespace)
	})

	t.Run("requires both tasks", func(t *testing.T) {
		_, err := def.Create("run-003", CreateRequest{AgentTask: containerTask("a")})
		assert.Error(t, err)
	})

	t.Run("requires a name", func(t *testing.T) {
		_, err := def.Create("", CreateRequest{
			AgentTask:  containerTask("a"),
			VerifyTask: containerTask("v"),
		})
		assert.Error(t, err)
	})
}

func TestRenderYAML(t *testing.T) {
	def, ok := Builtin(TypeRolloutAndVerify)
	require.True(t, ok)

	w, err := def.Create("run-001", CreateRequest{
		AgentTask:  containerTask("agent-rollout"),
		VerifyTask: containerTask("environment-verify"),
	})
	require.NoError(t, err)

	out, err := w.RenderYAML()
	require.NoError(t, err)

	manifest := string(out)
	assert.Contains(t, manifest, "apiVersion: argoproj.io/v1alpha1")
	assert.Contains(t, manifest, "kind: Workflow")
	assert.Contains(t, manifest, "entrypoint: main")
	assert.Contains(t, manifest, "dependencies:")
}

func TestFromRepo(t *testing.T) {
	t.Run("loads a declared workflow", func(t *testing.T) {
		fs := memfs.New()
		dir := "/repo"
		require.NoError(t, fs.MkdirAll(dir, 0o755))
		require.NoError(t, util.WriteFile(fs, filepath.Join(dir, "config.yaml"),
			[]byte("repo_type: workflow\ntype: rollout-and-verify\n"), 0o644))

		def, err := FromRepo(fs, dir)
		require.NoError(t, err)
		assert.Equal(t, TypeRolloutAndVerify, def.Type())
	})

	t.Run("rejects unknown types", func(t *testing.T) {
		fs := memfs.New()
		dir := "/repo"
		require.NoError(t, fs.MkdirAll(dir, 0o755))
		require.NoError(t, util.WriteFile(fs, filepath.Join(dir, "config.yaml"),
			[]byte("repo_type: workflow\ntype: mystery\n"), 0o644))

		_, err := FromRepo(fs, dir)
		assert.Error(t, err)
	})

	t.Run("rejects wrong repo_type", func(t *testing.T) {
		fs := memfs.New()
		dir := "/repo"
		require.NoError(t, fs.MkdirAll(dir, 0o755))
		require.NoError(t, util.WriteFile(fs, filepath.Join(dir, "config.yaml"),
			[]byte("repo_type: agent\ntype: rollout-and-verify\n"), 0o644))

		_, err := FromRepo(fs, dir)
		assert.Error(t, err)
	})

	t.Run("missing config file", func(t *testing.T) {
		fs := memfs.New()
		require.NoError(t, fs.MkdirAll("/repo", 0o755))

		_, err := FromRepo(fs, "/repo")
		assert.Error(t, err)
	})
}
