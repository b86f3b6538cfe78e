// Package environments defines the environment component contract and the
// built-in swe-bench environment. A factory is the loaded component: it
// holds shared configuration and hands out per-instance environments, each
// of which produces the verification task of a workflow.
package environments

import (
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/go-git/go-billy/v5"
	errors "github.com/jmgilman/go/errors"

	"github.com/interaxions/interaxions/internal/repocfg"
	"github.com/interaxions/interaxions/workflows"
)

// Factory creates environment instances from a shared configuration.
type Factory interface {
	Type() string
	Get(req GetRequest) (Environment, error)
}

// Environment is one concrete instance: a specific task with its data
// bound, able to produce its own verification task.
type Environment interface {
	ID() string
	CreateTask(name string, params map[string]any) (*workflows.Task, error)
}

// GetRequest selects the instance a factory should produce and where its
// data comes from.
type GetRequest struct {
	EnvironmentID string
	Source        string
	Params        map[string]any
}

// Data source types accepted by GetRequest.Source.
var sources = map[string]bool{
	"hf":     true,
	"oss":    true,
	"local":  true,
	"custom": true,
}

// Validate checks the request shape shared by all factories.
func (r *GetRequest) Validate() error {
	if r.EnvironmentID == "" {
		return errors.New(errors.CodeInvalidInput, "environment id is required")
	}
	if !sources[r.Source] {
		return errors.Newf(errors.CodeInvalidInput,
			"source must be one of hf, oss, local, custom; got %q", r.Source)
	}
	return nil
}

// Config is the on-disk description of an environment repository. Template
// values are file references on disk and inlined contents after loading.
type Config struct {
	RepoType  string            `yaml:"repo_type"`
	Type      string            `yaml:"type"`
	Templates map[string]string `yaml:"templates"`
}

// constructors maps environment type names to factories.
var constructors = map[string]func(Config) (Factory, error){
	TypeSWEBench: newSWEBenchFactory,
}

// FromRepo loads the environment factory declared by the repository at dir,
// inlining any template files its config references.
func FromRepo(fsys billy.Filesystem, dir string) (Factory, error) {
	var cfg Config
	if err := repocfg.Load(fsys, dir, &cfg); err != nil {
		return nil, err
	}
	if cfg.RepoType != "" && cfg.RepoType != "environment" {
		return nil, errors.Newf(errors.CodeInvalidConfig,
			"repository %s declares repo_type %q, expected environment", dir, cfg.RepoType)
	}

	templates, err := repocfg.LoadTemplates(fsys, dir, cfg.Templates)
	if err != nil {
		return nil, err
	}
	cfg.Templates = templates

	construct, ok := constructors[cfg.Type]
	if !ok {
		return nil, errors.Newf(errors.CodeInvalidConfig,
			"unknown environment type %q in %s", cfg.Type, dir)
	}
	return construct(cfg)
}

// Builtin returns the built-in environment factory registered under name,
// configured with its defaults.
func Builtin(name string) (Factory, bool) {
	construct, ok := constructors[name]
	if !ok {
		return nil, false
	}
	factory, err := construct(Config{RepoType: "environment", Type: name})
	if err != nil {
		return nil, false
	}
	return factory, true
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

func stringParam(params map[string]any, key, fallback string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}
