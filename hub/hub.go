package hub

import (
	"context"
	"strings"

	"github.com/interaxions/interaxions/agents"
	"github.com/interaxions/interaxions/environments"
	"github.com/interaxions/interaxions/workflows"
)

// Module names looked up when loading components dynamically.
const (
	moduleAgent       = "agent"
	moduleEnvironment = "env"
	moduleWorkflow    = "workflow"
)

// Hub ties the repository cache and module loader together and loads typed
// components by name: built-ins first, then dynamically from repositories.
//
// A Hub is an explicit instance; create one per cache root and share it.
// All methods are safe for concurrent use.
type Hub struct {
	cache  *RepositoryCache
	loader *ModuleLoader
}

// New creates a Hub with its cache rooted at root.
func New(root string, opts ...CacheOption) (*Hub, error) {
	cache, err := NewRepositoryCache(root, opts...)
	if err != nil {
		return nil, err
	}
	return &Hub{
		cache:  cache,
		loader: NewModuleLoader(cache),
	}, nil
}

// Cache returns the underlying repository cache.
func (h *Hub) Cache() *RepositoryCache {
	return h.cache
}

// Loader returns the underlying module loader.
func (h *Hub) Loader() *ModuleLoader {
	return h.loader
}

// isBareName reports whether name can refer to a built-in component. Names
// containing path-like characters always go through dynamic loading.
func isBareName(name string) bool {
	return !strings.ContainsAny(name, "/.~\\")
}

// LoadAgent loads an agent component by name or repository reference.
//
// Bare names are tried against the built-in registry first; anything else,
// or a bare name with no built-in, is loaded dynamically: the repository is
// resolved through the cache, its "agent" module is loaded, and the agent
// is constructed from the repository's config. revision is ignored for
// built-ins.
func (h *Hub) LoadAgent(ctx context.Context, reference, revision string, opts ...ResolveOption) (agents.Agent, error) {
	if isBareName(reference) {
		if agent, ok := agents.Builtin(reference); ok {
			return agent, nil
		}
	}

	unit, err := h.loader.Load(ctx, reference, moduleAgent, revision, opts...)
	if err != nil {
		return nil, err
	}
	if err := requireKind(unit, KindAgent); err != nil {
		return nil, err
	}
	return agents.FromRepo(h.cache.fs, unit.Dir)
}

// LoadEnvironmentFactory loads an environment factory by name or repository
// reference, with the same resolution order as LoadAgent.
func (h *Hub) LoadEnvironmentFactory(ctx context.Context, reference, revision string, opts ...ResolveOption) (environments.Factory, error) {
	if isBareName(reference) {
		if factory, ok := environments.Builtin(reference); ok {
			return factory, nil
		}
	}

	unit, err := h.loader.Load(ctx, reference, moduleEnvironment, revision, opts...)
	if err != nil {
		return nil, err
	}
	if err := requireKind(unit, KindEnvironmentFactory); err != nil {
		return nil, err
	}
	return environments.FromRepo(h.cache.fs, unit.Dir)
}

// LoadWorkflow loads a workflow definition by name or repository reference,
// with the same resolution order as LoadAgent.
func (h *Hub) LoadWorkflow(ctx context.Context, reference, revision string, opts ...ResolveOption) (workflows.Definition, error) {
	if isBareName(reference) {
		if def, ok := workflows.Builtin(reference); ok {
			return def, nil
		}
	}

	unit, err := h.loader.Load(ctx, reference, moduleWorkflow, revision, opts...)
	if err != nil {
		return nil, err
	}
	if err := requireKind(unit, KindWorkflow); err != nil {
		return nil, err
	}
	return workflows.FromRepo(h.cache.fs, unit.Dir)
}

// requireKind checks that the unit's single component declares kind.
func requireKind(unit *Unit, kind string) error {
	doc, err := unit.Entrypoint()
	if err != nil {
		return err
	}
	if doc.Kind != kind {
		return errKindMismatch(unit.Identity, kind, doc.Kind)
	}
	return nil
}
