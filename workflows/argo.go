// Package workflows assembles Argo Workflow manifests out of component
// tasks and defines the workflow component contract.
//
// The manifest types mirror the argoproj.io/v1alpha1 Workflow shape over
// k8s.io/api core types, carrying only the fields this system produces.
// Rendering goes through sigs.k8s.io/yaml so the output is the exact JSON
// structure the Argo API server expects, serialized as YAML.
package workflows

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

const (
	apiVersion = "argoproj.io/v1alpha1"
	kind       = "Workflow"

	// entrypointName is the DAG template every assembled workflow runs.
	entrypointName = "main"
)

// Workflow is an Argo Workflow manifest.
type Workflow struct {
	APIVersion string            `json:"apiVersion"`
	Kind       string            `json:"kind"`
	ObjectMeta metav1.ObjectMeta `json:"metadata"`
	Spec       WorkflowSpec      `json:"spec"`
}

// WorkflowSpec is the manifest spec.
type WorkflowSpec struct {
	Entrypoint         string       `json:"entrypoint"`
	ServiceAccountName string       `json:"serviceAccountName,omitempty"`
	TTLStrategy        *TTLStrategy `json:"ttlStrategy,omitempty"`
	Templates          []Template   `json:"templates"`
}

// TTLStrategy controls cleanup of a finished workflow.
type TTLStrategy struct {
	SecondsAfterCompletion *int32 `json:"secondsAfterCompletion,omitempty"`
}

// Template is one executable unit of the workflow: either a container
// (possibly with sidecars) or the DAG wiring templates together.
type Template struct {
	Name     string             `json:"name"`
	Metadata *TemplateMetadata  `json:"metadata,omitempty"`
	Container *corev1.Container `json:"container,omitempty"`
	Sidecars []corev1.Container `json:"sidecars,omitempty"`
	Volumes  []corev1.Volume    `json:"volumes,omitempty"`
	DAG      *DAGTemplate       `json:"dag,omitempty"`
}

// TemplateMetadata carries pod-level labels and annotations.
type TemplateMetadata struct {
	Labels      map[string]string `json:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// DAGTemplate orders tasks by dependency.
type DAGTemplate struct {
	Tasks []DAGTask `json:"tasks"`
}

// DAGTask references a template and the tasks that must finish before it.
type DAGTask struct {
	Name         string   `json:"name"`
	Template     string   `json:"template"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Task is a component-produced unit of work before assembly: a named
// container template plus the names of the tasks it depends on.
type Task struct {
	Name         string
	Template     Template
	Dependencies []string
}

// RenderYAML serializes the manifest.
func (w *Workflow) RenderYAML() ([]byte, error) {
	return yaml.Marshal(w)
}
