// Package agents defines the agent component contract and the built-in
// SWE agent. An agent turns a job's model and environment context into the
// rollout task of a workflow.
package agents

import (
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/go-git/go-billy/v5"
	errors "github.com/jmgilman/go/errors"
	corev1 "k8s.io/api/core/v1"

	"github.com/interaxions/interaxions/internal/repocfg"
	"github.com/interaxions/interaxions/schemas"
	"github.com/interaxions/interaxions/workflows"
)

// Agent is an agent component: it produces the rollout task of a workflow
// from a prepared task context.
type Agent interface {
	Type() string
	CreateTask(name string, ctx *TaskContext) (*workflows.Task, error)
}

// TaskContext carries everything an agent needs to render its scripts and
// container spec: the flattened model settings, the environment instance it
// will work on, and free-form runtime parameters.
type TaskContext struct {
	Model schemas.ModelSettings

	InstanceID string
	Dataset    string
	Split      string
	WorkingDir string
	BaseCommit string

	ImagePullPolicy corev1.PullPolicy
	Params          map[string]any
}

// Config is the on-disk description of an agent repository. Template values
// are file references on disk and inlined contents after loading.
type Config struct {
	RepoType  string            `yaml:"repo_type"`
	Type      string            `yaml:"type"`
	Image     string            `yaml:"image"`
	Templates map[string]string `yaml:"templates"`
}

// constructors maps agent type names to factories.
var constructors = map[string]func(Config) (Agent, error){
	TypeSWEAgent: newSWEAgent,
}

// FromRepo loads the agent declared by the repository at dir, inlining any
// template files its config references.
func FromRepo(fsys billy.Filesystem, dir string) (Agent, error) {
	var cfg Config
	if err := repocfg.Load(fsys, dir, &cfg); err != nil {
		return nil, err
	}
	if cfg.RepoType != "" && cfg.RepoType != "agent" {
		return nil, errors.Newf(errors.CodeInvalidConfig,
			"repository %s declares repo_type %q, expected agent", dir, cfg.RepoType)
	}

	templates, err := repocfg.LoadTemplates(fsys, dir, cfg.Templates)
	if err != nil {
		return nil, err
	}
	cfg.Templates = templates

	construct, ok := constructors[cfg.Type]
	if !ok {
		return nil, errors.Newf(errors.CodeInvalidConfig,
			"unknown agent type %q in %s", cfg.Type, dir)
	}
	return construct(cfg)
}

// Builtin returns the built-in agent registered under name, configured with
// its defaults.
func Builtin(name string) (Agent, bool) {
	construct, ok := constructors[name]
	if !ok {
		return nil, false
	}
	agent, err := construct(Config{RepoType: "agent", Type: name})
	if err != nil {
		return nil, false
	}
	return agent, true
}

// renderScript renders a named script template with sprig functions
// available.
func renderScript(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Funcs(sprig.FuncMap()).Parse(text)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeInvalidConfig, "invalid template %q", name)
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, errors.CodeInternal, "failed to render template %q", name)
	}
	return buf.String(), nil
}

// Param helpers: task parameters arrive as free-form maps decoded from
// YAML, so lookups tolerate missing keys and integer widths.

func stringParam(params map[string]any, key, fallback string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

func intParam(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}
