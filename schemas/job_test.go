package schemas

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	corev1 "k8s.io/api/core/v1"
)

func validJob() Job {
	return Job{
		Model: Model{OpenAI: &OpenAIModel{Model: "gpt-4", APIKey: "k"}},
		Scaffold: Scaffold{
			Repo:   "swe-agent",
			Params: map[string]any{"max_iterations": 10},
		},
		Environment: Environment{
			Repo:          "swe-bench",
			EnvironmentID: "django__django-12345",
			Source:        "hf",
			Params:        map[string]any{"dataset": "princeton-nlp/SWE-bench", "split": "test"},
		},
		Workflow: Workflow{Repo: "rollout-and-verify"},
	}
}

func TestJobNormalize(t *testing.T) {
	t.Run("generates a job id", func(t *testing.T) {
		job := validJob()
		job.Normalize()

		assert.True(t, strings.HasPrefix(job.JobID, "job-"))
		assert.False(t, job.CreatedAt.IsZero())
	})

	t.Run("keeps an explicit job id", func(t *testing.T) {
		job := validJob()
		job.JobID = "job-custom"
		job.Normalize()

		assert.Equal(t, "job-custom", job.JobID)
	})

	t.Run("fills runtime defaults", func(t *testing.T) {
		job := validJob()
		job.Normalize()

		assert.Equal(t, "default", job.Runtime.Namespace)
		assert.Equal(t, corev1.PullIfNotPresent, job.Runtime.ImagePullPolicy)
	})
}

func TestJobValidate(t *testing.T) {
	t.Run("accepts a complete job", func(t *testing.T) {
		job := validJob()
		job.Normalize()
		assert.NoError(t, job.Validate())
	})

	t.Run("rejects missing components", func(t *testing.T) {
		mutations := map[string]func(*Job){
			"no model":          func(j *Job) { j.Model = Model{} },
			"no scaffold repo":  func(j *Job) { j.Scaffold.Repo = "" },
			"no workflow repo":  func(j *Job) { j.Workflow.Repo = "" },
			"no environment id": func(j *Job) { j.Environment.EnvironmentID = "" },
			"bad source":        func(j *Job) { j.Environment.Source = "ftp" },
			"bad pull policy":   func(j *Job) { j.Runtime.ImagePullPolicy = "Sometimes" },
		}
		for name, mutate := range mutations {
			t.Run(name, func(t *testing.T) {
				job := validJob()
				job.Normalize()
				mutate(&job)
				assert.Error(t, job.Validate())
			})
		}
	})

	t.Run("rejects negative ttl", func(t *testing.T) {
		job := validJob()
		job.Normalize()
		ttl := int32(-1)
		job.Runtime.TTLSecondsAfterFinished = &ttl
		assert.Error(t, job.Validate())
	})
}

func TestJobYAMLRoundTrip(t *testing.T) {
	job := validJob()
	job.Normalize()

	data, err := yaml.Marshal(&job)
	require.NoError(t, err)

	var decoded Job
	require.NoError(t, yaml.Unmarshal(data, &decoded))

	assert.Equal(t, job.JobID, decoded.JobID)
	require.NotNil(t, decoded.Model.OpenAI)
	assert.Equal(t, "gpt-4", decoded.Model.OpenAI.Model)
	assert.Equal(t, "django__django-12345", decoded.Environment.EnvironmentID)
	assert.NoError(t, decoded.Validate())
}
