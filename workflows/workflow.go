package workflows

import (
	"github.com/go-git/go-billy/v5"
	errors "github.com/jmgilman/go/errors"

	"github.com/interaxions/interaxions/internal/repocfg"
	"github.com/interaxions/interaxions/schemas"
)

// Definition is a workflow component: it knows how to wire component tasks
// into a complete Argo Workflow manifest.
type Definition interface {
	Type() string
	Create(name string, req CreateRequest) (*Workflow, error)
}

// CreateRequest carries the inputs of workflow assembly. Tasks are produced
// by the agent and environment components; the workflow only decides their
// ordering and the manifest-level settings.
type CreateRequest struct {
	AgentTask  *Task
	VerifyTask *Task
	Runtime    schemas.Runtime
	Params     map[string]any
}

// Config is the on-disk description of a workflow repository.
type Config struct {
	RepoType string `yaml:"repo_type"`
	Type     string `yaml:"type"`
}

// constructors maps workflow type names to factories. Dynamic repositories
// declare one of these types in their config.
var constructors = map[string]func(Config) (Definition, error){
	TypeRolloutAndVerify: newRolloutAndVerify,
}

// FromRepo loads the workflow definition declared by the repository at dir.
func FromRepo(fsys billy.Filesystem, dir string) (Definition, error) {
	var cfg Config
	if err := repocfg.Load(fsys, dir, &cfg); err != nil {
		return nil, err
	}
	if cfg.RepoType != "" && cfg.RepoType != "workflow" {
		return nil, errors.Newf(errors.CodeInvalidConfig,
			"repository %s declares repo_type %q, expected workflow", dir, cfg.RepoType)
	}

	construct, ok := constructors[cfg.Type]
	if !ok {
		return nil, errors.Newf(errors.CodeInvalidConfig,
			"unknown workflow type %q in %s", cfg.Type, dir)
	}
	return construct(cfg)
}

// Builtin returns the built-in workflow registered under name.
func Builtin(name string) (Definition, bool) {
	construct, ok := constructors[name]
	if !ok {
		return nil, false
	}
	def, err := construct(Config{RepoType: "workflow", Type: name})
	if err != nil {
		return nil, false
	}
	return def, true
}

// assemble builds the manifest skeleton shared by all workflow types: the
// task templates plus a single DAG entrypoint.
func assemble(name string, runtime schemas.Runtime, tasks ...*Task) *Workflow {
	w := &Workflow{
		APIVersion: apiVersion,
		Kind:       kind,
	}
	w.ObjectMeta.Name = name
	w.ObjectMeta.Namespace = runtime.Namespace
	if w.ObjectMeta.Namespace == "" {
		w.ObjectMeta.Namespace = "default"
	}

	w.Spec.Entrypoint = entrypointName
	w.Spec.ServiceAccountName = runtime.ServiceAccount
	if runtime.TTLSecondsAfterFinished != nil {
		w.Spec.TTLStrategy = &TTLStrategy{
			SecondsAfterCompletion: runtime.TTLSecondsAfterFinished,
		}
	}

	dag := &DAGTemplate{}
	for _, task := range tasks {
		w.Spec.Templates = append(w.Spec.Templates, task.Template)
		dag.Tasks = append(dag.Tasks, DAGTask{
			Name:         task.Name,
			Template:     task.Template.Name,
			Dependencies: task.Dependencies,
		})
	}
	w.Spec.Templates = append(w.Spec.Templates, Template{
		Name: entrypointName,
		DAG:  dag,
	})
	return w
}
