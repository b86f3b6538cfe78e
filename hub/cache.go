package hub

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	errors "github.com/jmgilman/go/errors"
)

// RepositoryCache resolves (reference, revision) pairs to immutable local
// directories under a shared cache root.
//
// The cache is two-tiered:
//
//   - Bare clones, keyed by remote URL hash: the single source of Git
//     objects for a remote reference, shared across revision requests.
//   - Materializations, keyed by (reference, revision): immutable
//     revision-pinned file trees handed out to callers.
//
// The cache root may be shared by any number of processes. Every mutation of
// a cache slot is gated by that slot's cross-process lock; reads of complete
// entries are lock-free because entries are never mutated after creation.
type RepositoryCache struct {
	root        string
	endpoint    string
	offline     bool
	lockTimeout time.Duration
	workDir     string

	fs     billy.Filesystem
	osFS   bool // true when fs is the real local filesystem
	locker EntryLocker
	log    *slog.Logger
}

// NewRepositoryCache creates a repository cache rooted at root, creating the
// directory if needed.
//
// Example:
//
//	cache, err := hub.NewRepositoryCache("/var/lib/interaxions/hub",
//	    hub.WithEndpoint("https://github.com"),
//	    hub.WithLockTimeout(2*time.Minute))
func NewRepositoryCache(root string, opts ...CacheOption) (*RepositoryCache, error) {
	options := &cacheOptions{
		endpoint:    DefaultEndpoint,
		lockTimeout: DefaultLockTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	if root == "" {
		return nil, errors.New(errors.CodeInvalidInput, "cache root is required")
	}

	osFS := options.fs == nil
	fs := options.fs
	if osFS {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeInvalidInput, "invalid cache root %s", root)
		}
		root = abs
		fs = osfs.New("/")
	}

	locker := options.locker
	if locker == nil {
		if osFS {
			locker = flockLocker{}
		} else {
			locker = newMemoryLocker()
		}
	}

	workDir := options.workDir
	if workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			workDir = wd
		}
	}

	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "failed to create cache root %s", root)
	}

	return &RepositoryCache{
		root:        root,
		endpoint:    options.endpoint,
		offline:     options.offline,
		lockTimeout: options.lockTimeout,
		workDir:     workDir,
		fs:          fs,
		osFS:        osFS,
		locker:      locker,
		log:         options.logger,
	}, nil
}

// Root returns the cache root directory.
func (c *RepositoryCache) Root() string {
	return c.root
}

// Resolve returns the local directory containing exactly the requested
// revision of reference, acquiring and materializing it on first use.
//
// reference may be an absolute filesystem path (must exist), a relative path
// under the working directory, or a remote owner/name identifier. An empty
// revision means the reference's natural default: the default branch of a
// version-controlled source, or the content as-is for a plain directory.
//
// Concurrent callers requesting the same (reference, revision) across any
// number of processes perform at most one acquisition between them and all
// receive the same path. Distinct pairs never block each other.
//
// Example:
//
//	dir, err := cache.Resolve(ctx, "ix-hub/swe-agent", "v1.0.0")
func (c *RepositoryCache) Resolve(ctx context.Context, reference, revision string, opts ...ResolveOption) (string, error) {
	if reference == "" {
		return "", errors.New(errors.CodeInvalidInput, "repository reference is required")
	}
	options := applyResolveOptions(opts)

	key := cacheKey(reference, revision)
	target := filepath.Join(c.root, key)

	// Fast path: a complete entry is immutable, so reading it needs no lock.
	if !options.force && c.exists(target) {
		c.log.Debug("cache hit", "reference", reference, "revision", revision, "path", target)
		return target, nil
	}

	release, err := c.locker.Acquire(ctx, target+".lock", c.lockTimeout)
	if err != nil {
		return "", err
	}
	defer release()

	// Re-check under the lock: another process may have finished the work
	// while this one waited. This is the correctness guarantee against
	// duplicate acquisition, not an optimization.
	if !options.force && c.exists(target) {
		c.log.Debug("cache hit after lock wait", "reference", reference, "revision", revision)
		return target, nil
	}

	if options.force && c.exists(target) {
		c.log.Info("force reload, removing cached entry", "path", target)
		if err := c.removeEntry(key); err != nil {
			return "", errors.Wrapf(err, errors.CodeInternal, "failed to remove cached entry %s", target)
		}
	}

	source, err := c.resolveSource(ctx, reference)
	if err != nil {
		return "", err
	}

	c.log.Info("materializing repository",
		"reference", reference, "revision", revision, "source", source, "path", target)

	commit, err := c.materialize(ctx, reference, source, revision, target)
	if err != nil {
		// Never leave a partial directory behind: its existence would read
		// as a complete cache entry on the next lookup.
		_ = c.removeAll(target)
		return "", err
	}

	c.writeMetadata(key, EntryMetadata{
		Reference: reference,
		Revision:  revision,
		Commit:    commit,
		CreatedAt: time.Now().UTC(),
	})

	return target, nil
}

// Invalidate removes cache entries. With a revision, exactly that entry is
// removed; with revision "" every cached revision of reference is removed.
// Invalidate never fails if the target is already absent.
func (c *RepositoryCache) Invalidate(reference, revision string) error {
	if reference == "" {
		return c.InvalidateAll()
	}

	if revision != "" {
		c.log.Info("invalidating cache entry", "reference", reference, "revision", revision)
		return c.removeEntry(cacheKey(reference, revision))
	}

	c.log.Info("invalidating all revisions", "reference", reference)
	prefix := pathSafe(reference) + "--"

	entries, err := c.fs.ReadDir(c.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, errors.CodeInternal, "failed to read cache root %s", c.root)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if err := c.removeAll(filepath.Join(c.root, name)); err != nil {
			return errors.Wrapf(err, errors.CodeInternal, "failed to remove cache entry %s", name)
		}
	}
	return nil
}

// InvalidateAll wipes the entire cache root and recreates it empty.
func (c *RepositoryCache) InvalidateAll() error {
	c.log.Info("clearing cache root", "path", c.root)
	if err := c.removeAll(c.root); err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "failed to remove cache root %s", c.root)
	}
	if err := c.fs.MkdirAll(c.root, 0o755); err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "failed to recreate cache root %s", c.root)
	}
	return nil
}

// removeEntry removes one materialization directory and its metadata
// sidecar.
func (c *RepositoryCache) removeEntry(key string) error {
	if err := c.removeAll(filepath.Join(c.root, key)); err != nil {
		return err
	}
	return c.removeAll(filepath.Join(c.root, key+metadataSuffix))
}

func (c *RepositoryCache) exists(path string) bool {
	_, err := c.fs.Stat(path)
	return err == nil
}

// removeAll removes a path recursively via the billy filesystem. Missing
// paths are not an error.
func (c *RepositoryCache) removeAll(path string) error {
	info, err := c.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if !info.IsDir() {
		return c.fs.Remove(path)
	}

	entries, err := c.fs.ReadDir(path)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := c.removeAll(filepath.Join(path, entry.Name())); err != nil {
			return err
		}
	}
	return c.fs.Remove(path)
}
