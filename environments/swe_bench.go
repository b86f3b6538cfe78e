package environments

import (
	errors "github.com/jmgilman/go/errors"
	corev1 "k8s.io/api/core/v1"

	"github.com/interaxions/interaxions/workflows"
)

// TypeSWEBench names the built-in SWE-bench environment.
const TypeSWEBench = "swe-bench"

const templateVerify = "verify"

const defaultVerifyTemplate = `#!/bin/bash
# SWE-bench verification for instance {{ .InstanceID }}

echo "Verifying instance {{ .InstanceID }}..."

python -m swebench.harness.run_evaluation \
    --dataset_name {{ .Dataset }} \
    --split {{ .Split }} \
    --instance_ids {{ .InstanceID }} \
    --predictions_path {{ .PredictionsPath }} \
    --report_dir {{ .OutputDir }}

echo "Verification completed"
`

// verifyScriptData is the data bound into the verify script template.
type verifyScriptData struct {
	Dataset         string
	Split           string
	InstanceID      string
	PredictionsPath string
	OutputDir       string
}

// SWEBenchFactory creates SWE-bench environment instances. The factory
// carries the verify template; each instance binds its own task data.
type SWEBenchFactory struct {
	config Config
}

func newSWEBenchFactory(cfg Config) (Factory, error) {
	if cfg.Templates == nil {
		cfg.Templates = map[string]string{}
	}
	if _, ok := cfg.Templates[templateVerify]; !ok {
		cfg.Templates[templateVerify] = defaultVerifyTemplate
	}
	return &SWEBenchFactory{config: cfg}, nil
}

func (f *SWEBenchFactory) Type() string {
	return TypeSWEBench
}

// Get builds an instance from the request parameters. Instance data comes
// from the declared source; dataset, split, and base_commit must be present
// in the parameters, the rest default per SWE-bench conventions.
func (f *SWEBenchFactory) Get(req GetRequest) (Environment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	dataset := stringParam(req.Params, "dataset", "")
	split := stringParam(req.Params, "split", "")
	if dataset == "" || split == "" {
		return nil, errors.Newf(errors.CodeInvalidInput,
			"swe-bench source %q requires dataset and split parameters", req.Source)
	}

	baseCommit := stringParam(req.Params, "base_commit", "")
	if baseCommit == "" {
		return nil, errors.New(errors.CodeInvalidInput,
			"swe-bench requires a base_commit parameter")
	}

	return &SWEBenchEnvironment{
		EnvironmentID:    req.EnvironmentID,
		Dataset:          dataset,
		Split:            split,
		Language:         stringParam(req.Params, "language", "python"),
		ProblemStatement: stringParam(req.Params, "problem_statement", ""),
		WorkingDir:       stringParam(req.Params, "working_dir", "/testbed"),
		BaseCommit:       baseCommit,
		DockerImage:      stringParam(req.Params, "docker_image", "swe-bench:"+req.EnvironmentID),
		verifyTemplate:   f.config.Templates[templateVerify],
	}, nil
}

// SWEBenchEnvironment is one SWE-bench instance: a specific problem with
// its repository state and evaluation image bound.
type SWEBenchEnvironment struct {
	EnvironmentID    string
	Dataset          string
	Split            string
	Language         string
	ProblemStatement string
	WorkingDir       string
	BaseCommit       string
	DockerImage      string

	verifyTemplate string
}

func (e *SWEBenchEnvironment) ID() string {
	return e.EnvironmentID
}

// CreateTask renders the verify script and wraps it in a container task
// running the instance's evaluation image. The predictions_path parameter
// defaults to "gold", which evaluates the reference patch.
func (e *SWEBenchEnvironment) CreateTask(name string, params map[string]any) (*workflows.Task, error) {
	script, err := renderScript(templateVerify, e.verifyTemplate, verifyScriptData{
		Dataset:         e.Dataset,
		Split:           e.Split,
		InstanceID:      e.EnvironmentID,
		PredictionsPath: stringParam(params, "predictions_path", "gold"),
		OutputDir:       "/output",
	})
	if err != nil {
		return nil, err
	}

	return &workflows.Task{
		Name: name,
		Template: workflows.Template{
			Name: name,
			Metadata: &workflows.TemplateMetadata{
				Labels: map[string]string{
					"task-type": "verify",
					"task-name": "swe-bench",
				},
			},
			Container: &corev1.Container{
				Name:    name,
				Image:   e.DockerImage,
				Command: []string{"/bin/bash", "-c", script},
			},
		},
	}, nil
}
