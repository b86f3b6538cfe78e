package hub

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5/util"
	errors "github.com/jmgilman/go/errors"
	"gopkg.in/yaml.v3"
)

// manifestExtensions are tried in order when locating a module manifest.
var manifestExtensions = []string{".yaml", ".yml"}

// LoaderOption configures a ModuleLoader.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	logger *slog.Logger
}

// WithLoaderLogger sets the logger used by the loader. Defaults to
// slog.Default().
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(o *loaderOptions) {
		o.logger = logger
	}
}

type unitKey struct {
	reference string
	revision  string
	module    string
}

// ModuleLoader loads named module manifests out of cached repositories.
//
// Loaded units are memoized per (reference, revision, module) so repeated
// loads of the same module return the identical *Unit without touching the
// filesystem. Failed loads are never memoized: a fixed manifest is picked
// up by the next call.
type ModuleLoader struct {
	cache *RepositoryCache
	log   *slog.Logger

	mu    sync.RWMutex
	units map[unitKey]*Unit
}

// NewModuleLoader creates a loader backed by cache.
func NewModuleLoader(cache *RepositoryCache, opts ...LoaderOption) *ModuleLoader {
	options := &loaderOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	return &ModuleLoader{
		cache: cache,
		log:   options.logger,
		units: make(map[unitKey]*Unit),
	}
}

// Cache returns the repository cache backing this loader.
func (l *ModuleLoader) Cache() *RepositoryCache {
	return l.cache
}

// Load resolves reference at revision through the cache and loads the
// manifest of moduleName from the materialized directory.
//
// moduleName is a bare name; its manifest must live directly under the
// repository root as <moduleName>.yaml (or .yml). An empty revision means
// the reference's default branch.
//
// Example:
//
//	unit, err := loader.Load(ctx, "ix-hub/swe-agent", "agent", "v1.0.0")
func (l *ModuleLoader) Load(ctx context.Context, reference, moduleName, revision string, opts ...ResolveOption) (*Unit, error) {
	if moduleName == "" {
		return nil, errors.New(errors.CodeInvalidInput, "module name is required")
	}
	if strings.ContainsAny(moduleName, "/\\") {
		return nil, errors.Newf(errors.CodeInvalidInput, "module name must be a bare name: %s", moduleName)
	}
	options := applyResolveOptions(opts)

	key := unitKey{reference: reference, revision: revision, module: moduleName}

	if !options.force {
		l.mu.RLock()
		unit, ok := l.units[key]
		l.mu.RUnlock()
		if ok {
			l.log.Debug("module already loaded",
				"reference", reference, "revision", revision, "module", moduleName)
			return unit, nil
		}
	}

	dir, err := l.cache.Resolve(ctx, reference, revision, opts...)
	if err != nil {
		return nil, err
	}

	unit, err := l.parseUnit(reference, revision, moduleName, dir)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Another goroutine may have finished first; keep its unit so every
	// caller observes the same pointer.
	if existing, ok := l.units[key]; ok && !options.force {
		return existing, nil
	}
	l.units[key] = unit

	l.log.Info("loaded module",
		"reference", reference, "revision", revision, "module", moduleName, "identity", unit.Identity)
	return unit, nil
}

// parseUnit locates and parses the manifest of moduleName under dir.
func (l *ModuleLoader) parseUnit(reference, revision, moduleName, dir string) (*Unit, error) {
	var path string
	for _, ext := range manifestExtensions {
		candidate := filepath.Join(dir, moduleName+ext)
		if _, err := l.cache.fs.Stat(candidate); err == nil {
			path = candidate
			break
		}
	}
	if path == "" {
		expected := filepath.Join(dir, moduleName+manifestExtensions[0])
		return nil, errModuleNotFound(reference, moduleName, expected)
	}

	data, err := util.ReadFile(l.cache.fs, path)
	if err != nil {
		return nil, errLoadFailed(path, err)
	}

	docs, err := parseManifest(data)
	if err != nil {
		return nil, errLoadFailed(path, err)
	}

	return &Unit{
		Identity:  unitIdentity(reference, revision, moduleName),
		Reference: reference,
		Revision:  revision,
		Module:    moduleName,
		Dir:       dir,
		Path:      path,
		docs:      docs,
	}, nil
}

// parseManifest decodes a (possibly multi-document) YAML manifest.
func parseManifest(data []byte) ([]ComponentDoc, error) {
	var docs []ComponentDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc ComponentDoc
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if doc.Kind == "" {
			return nil, errors.New(errors.CodeInvalidConfig, "manifest document is missing a kind")
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, errors.New(errors.CodeInvalidConfig, "manifest declares no documents")
	}
	return docs, nil
}

// Invalidate drops loaded units and cached repository state. With a
// revision, exactly that revision of reference is dropped; with revision ""
// every revision of reference is dropped; with an empty reference the
// entire loader and cache are cleared.
func (l *ModuleLoader) Invalidate(reference, revision string) error {
	if reference == "" {
		return l.InvalidateAll()
	}

	l.mu.Lock()
	for key := range l.units {
		if key.reference != reference {
			continue
		}
		if revision != "" && key.revision != revision {
			continue
		}
		delete(l.units, key)
	}
	l.mu.Unlock()

	return l.cache.Invalidate(reference, revision)
}

// InvalidateAll drops every loaded unit and wipes the repository cache.
func (l *ModuleLoader) InvalidateAll() error {
	l.mu.Lock()
	l.units = make(map[unitKey]*Unit)
	l.mu.Unlock()

	return l.cache.InvalidateAll()
}
