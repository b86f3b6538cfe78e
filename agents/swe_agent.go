package agents

import (
	errors "github.com/jmgilman/go/errors"
	corev1 "k8s.io/api/core/v1"

	"github.com/interaxions/interaxions/workflows"
)

// TypeSWEAgent names the built-in software-engineering agent.
const TypeSWEAgent = "swe-agent"

const defaultSWEAgentImage = "ghcr.io/interaxions/swe-agent:latest"

// Template names the SWE agent renders.
const (
	templateMain          = "main"
	templateSWEReXSidecar = "swe-rex-sidecar"
)

const defaultMainTemplate = `#!/bin/bash
# SWE Agent main script for instance {{ .InstanceID }}

echo "Starting SWE Agent..."
echo "Instance ID: {{ .InstanceID }}"
echo "Dataset: {{ .Dataset }}"
echo "Model: {{ .Model }}"
echo "Max Iterations: {{ .MaxIterations }}"

python -m sweagent.agent \
    --model {{ .Model }} \
    --instance_id {{ .InstanceID }} \
    --max_iterations {{ .MaxIterations }} \
    --working_dir {{ .WorkingDir }}

echo "Agent execution completed"
`

const defaultSWEReXSidecarTemplate = `#!/bin/bash
# SWE-ReX sidecar for instance {{ .InstanceID }}

echo "Starting SWE-ReX sidecar..."
echo "Instance ID: {{ .InstanceID }}"
echo "Dataset: {{ .Dataset }}"
echo "Split: {{ .Split }}"

python -m swerex.remote_runtime \
    --instance_id {{ .InstanceID }} \
    --dataset {{ .Dataset }} \
    --split {{ .Split }} \
    --output_dir /tmp/shared/output/

echo "SWE-ReX sidecar running..."
`

// sweAgentScriptData is the data bound into the main script template.
type sweAgentScriptData struct {
	InstanceID string
	Dataset    string
	Split      string
	WorkingDir string
	BaseCommit string

	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	NumRetries  int

	SWEAgentConfig       string
	ToolsParseFunction   string
	MaxIterations        int
	MaxObservationLength int
}

// SWEAgent runs a software-engineering agent against one environment
// instance, with a SWE-ReX sidecar serving the sandboxed runtime.
type SWEAgent struct {
	config Config
}

func newSWEAgent(cfg Config) (Agent, error) {
	if cfg.Image == "" {
		cfg.Image = defaultSWEAgentImage
	}
	if cfg.Templates == nil {
		cfg.Templates = map[string]string{}
	}
	if _, ok := cfg.Templates[templateMain]; !ok {
		cfg.Templates[templateMain] = defaultMainTemplate
	}
	if _, ok := cfg.Templates[templateSWEReXSidecar]; !ok {
		cfg.Templates[templateSWEReXSidecar] = defaultSWEReXSidecarTemplate
	}
	return &SWEAgent{config: cfg}, nil
}

func (a *SWEAgent) Type() string {
	return TypeSWEAgent
}

// CreateTask renders the main and sidecar scripts from ctx and wraps them
// in a container template sharing an output volume with the sidecar.
func (a *SWEAgent) CreateTask(name string, ctx *TaskContext) (*workflows.Task, error) {
	if ctx == nil {
		return nil, errors.New(errors.CodeInvalidInput, "task context is required")
	}

	data := sweAgentScriptData{
		InstanceID: ctx.InstanceID,
		Dataset:    ctx.Dataset,
		Split:      ctx.Split,
		WorkingDir: ctx.WorkingDir,
		BaseCommit: ctx.BaseCommit,

		Provider:    ctx.Model.Provider,
		Model:       ctx.Model.Model,
		BaseURL:     ctx.Model.BaseURL,
		APIKey:      ctx.Model.APIKey,
		Temperature: ctx.Model.Temperature,
		NumRetries:  ctx.Model.NumRetries,

		SWEAgentConfig:       stringParam(ctx.Params, "sweagent_config", "default.yaml"),
		ToolsParseFunction:   stringParam(ctx.Params, "tools_parse_function", "xml_function_call"),
		MaxIterations:        intParam(ctx.Params, "max_iterations", 100),
		MaxObservationLength: intParam(ctx.Params, "max_observation_length", 10000),
	}

	mainScript, err := renderScript(templateMain, a.config.Templates[templateMain], data)
	if err != nil {
		return nil, err
	}

	var sidecars []corev1.Container
	if text, ok := a.config.Templates[templateSWEReXSidecar]; ok {
		sidecarScript, err := renderScript(templateSWEReXSidecar, text, data)
		if err != nil {
			return nil, err
		}
		sidecars = append(sidecars, corev1.Container{
			Name:            "swerex-remote",
			Image:           a.config.Image,
			ImagePullPolicy: corev1.PullIfNotPresent,
			Command:         []string{"bash", "-c", sidecarScript},
			VolumeMounts: []corev1.VolumeMount{
				{Name: "shared-volume", MountPath: "/tmp/shared/"},
			},
		})
	}

	pullPolicy := ctx.ImagePullPolicy
	if pullPolicy == "" {
		pullPolicy = corev1.PullIfNotPresent
	}

	container := &corev1.Container{
		Name:            name + "-sweagent",
		Image:           a.config.Image,
		ImagePullPolicy: pullPolicy,
		Command:         []string{"bash", "-c", mainScript},
		Env: []corev1.EnvVar{
			{Name: "OUTPUT_DIR", Value: "/tmp/shared/output/"},
			{Name: "CONFIG_DICT_PATH", Value: "/tmp/shared/output/config_dict.json"},
		},
		VolumeMounts: []corev1.VolumeMount{
			{Name: "shared-volume", MountPath: "/tmp/shared/"},
		},
	}

	return &workflows.Task{
		Name: name,
		Template: workflows.Template{
			Name: name,
			Metadata: &workflows.TemplateMetadata{
				Labels: map[string]string{
					"task-type": "rollout",
					"task-name": "sweagent",
				},
			},
			Container: container,
			Sidecars:  sidecars,
			Volumes: []corev1.Volume{
				{
					Name: "shared-volume",
					VolumeSource: corev1.VolumeSource{
						EmptyDir: &corev1.EmptyDirVolumeSource{},
					},
				},
			},
		},
	}, nil
}
