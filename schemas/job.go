package schemas

import (
	"time"

	"github.com/google/uuid"
	errors "github.com/jmgilman/go/errors"
	corev1 "k8s.io/api/core/v1"
)

// Scaffold selects the agent scaffold repository and its build parameters.
// A scaffold may internally construct one agent or a whole team; the job
// does not care about that structure.
type Scaffold struct {
	Repo     string         `json:"repo_name_or_path" yaml:"repo_name_or_path"`
	Revision string         `json:"revision,omitempty" yaml:"revision,omitempty"`
	Params   map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Environment selects the environment repository, the instance to run, and
// where its data comes from.
type Environment struct {
	Repo          string         `json:"repo_name_or_path" yaml:"repo_name_or_path"`
	Revision      string         `json:"revision,omitempty" yaml:"revision,omitempty"`
	EnvironmentID string         `json:"environment_id" yaml:"environment_id"`
	Source        string         `json:"source" yaml:"source"`
	Params        map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Data source types accepted by Environment.Source.
var environmentSources = map[string]bool{
	"hf":     true,
	"oss":    true,
	"local":  true,
	"custom": true,
}

// Workflow selects the workflow repository that orchestrates the run.
type Workflow struct {
	Repo     string         `json:"repo_name_or_path" yaml:"repo_name_or_path"`
	Revision string         `json:"revision,omitempty" yaml:"revision,omitempty"`
	Params   map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Runtime carries the Kubernetes-side settings of a run.
type Runtime struct {
	Namespace               string            `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	ServiceAccount          string            `json:"service_account,omitempty" yaml:"service_account,omitempty"`
	ImagePullPolicy         corev1.PullPolicy `json:"image_pull_policy,omitempty" yaml:"image_pull_policy,omitempty"`
	TTLSecondsAfterFinished *int32            `json:"ttl_seconds_after_finished,omitempty" yaml:"ttl_seconds_after_finished,omitempty"`
	ExtraParams             map[string]any    `json:"extra_params,omitempty" yaml:"extra_params,omitempty"`
}

// DefaultRuntime returns the runtime settings used when a job omits them.
func DefaultRuntime() Runtime {
	return Runtime{
		Namespace:       "default",
		ImagePullPolicy: corev1.PullIfNotPresent,
	}
}

// Job is a complete, serializable description of one agent-environment run:
// WHAT to execute (components and their configs), while the selected
// workflow decides HOW.
type Job struct {
	JobID       string            `json:"job_id,omitempty" yaml:"job_id,omitempty"`
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	Labels      map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	CreatedAt   time.Time         `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	FinishedAt  *time.Time        `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`

	Model       Model       `json:"model" yaml:"model"`
	Scaffold    Scaffold    `json:"scaffold" yaml:"scaffold"`
	Environment Environment `json:"environment" yaml:"environment"`
	Workflow    Workflow    `json:"workflow" yaml:"workflow"`
	Runtime     Runtime     `json:"runtime,omitempty" yaml:"runtime,omitempty"`
}

// Normalize fills generated and defaulted fields in place: a job ID when
// none was provided, the creation timestamp, and runtime defaults.
func (j *Job) Normalize() {
	if j.JobID == "" {
		j.JobID = "job-" + uuid.NewString()
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	if j.Runtime.Namespace == "" {
		j.Runtime.Namespace = "default"
	}
	if j.Runtime.ImagePullPolicy == "" {
		j.Runtime.ImagePullPolicy = corev1.PullIfNotPresent
	}
}

// Validate checks the job's component references and runtime settings.
// Call Normalize first; Validate does not fill defaults.
func (j *Job) Validate() error {
	if err := j.Model.Validate(); err != nil {
		return err
	}
	if j.Scaffold.Repo == "" {
		return errors.New(errors.CodeInvalidConfig, "scaffold.repo_name_or_path is required")
	}
	if j.Workflow.Repo == "" {
		return errors.New(errors.CodeInvalidConfig, "workflow.repo_name_or_path is required")
	}
	if j.Environment.Repo == "" {
		return errors.New(errors.CodeInvalidConfig, "environment.repo_name_or_path is required")
	}
	if j.Environment.EnvironmentID == "" {
		return errors.New(errors.CodeInvalidConfig, "environment.environment_id is required")
	}
	if !environmentSources[j.Environment.Source] {
		return errors.Newf(errors.CodeInvalidConfig,
			"environment.source must be one of hf, oss, local, custom; got %q", j.Environment.Source)
	}

	switch j.Runtime.ImagePullPolicy {
	case "", corev1.PullAlways, corev1.PullIfNotPresent:
	default:
		return errors.Newf(errors.CodeInvalidConfig,
			"runtime.image_pull_policy must be Always or IfNotPresent; got %q", j.Runtime.ImagePullPolicy)
	}
	if j.Runtime.TTLSecondsAfterFinished != nil && *j.Runtime.TTLSecondsAfterFinished < 0 {
		return errors.New(errors.CodeInvalidConfig,
			"runtime.ttl_seconds_after_finished must not be negative")
	}
	return nil
}
