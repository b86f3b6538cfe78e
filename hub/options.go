package hub

import (
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5"
)

// DefaultEndpoint is the base URL used to construct clone URLs from bare
// owner/name references when no custom endpoint is configured.
const DefaultEndpoint = "https://github.com"

// CacheOption configures RepositoryCache creation.
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	endpoint    string
	offline     bool
	lockTimeout time.Duration
	fs          billy.Filesystem
	locker      EntryLocker
	logger      *slog.Logger
	workDir     string
}

// WithEndpoint sets the base URL for constructing remote repository URLs
// from bare owner/name references.
//
// Example:
//
//	cache, _ := hub.NewRepositoryCache(root, hub.WithEndpoint("https://gitlab.com"))
func WithEndpoint(endpoint string) CacheOption {
	return func(opts *cacheOptions) {
		if endpoint != "" {
			opts.endpoint = endpoint
		}
	}
}

// WithOffline disables remote acquisition entirely. References that cannot
// be resolved locally fail with a not-found error.
func WithOffline(offline bool) CacheOption {
	return func(opts *cacheOptions) {
		opts.offline = offline
	}
}

// WithLockTimeout bounds how long Resolve waits for another process holding
// the per-entry lock. Default is DefaultLockTimeout.
func WithLockTimeout(timeout time.Duration) CacheOption {
	return func(opts *cacheOptions) {
		if timeout > 0 {
			opts.lockTimeout = timeout
		}
	}
}

// WithFilesystem sets the billy filesystem for all cache I/O. If not
// provided, the local filesystem is used. Providing a virtual filesystem
// (memfs) also switches entry locking to an in-process implementation,
// since OS advisory locks require real paths.
//
// This option is primarily useful for testing.
func WithFilesystem(fs billy.Filesystem) CacheOption {
	return func(opts *cacheOptions) {
		opts.fs = fs
	}
}

// WithEntryLocker overrides the cross-process lock implementation.
// Primarily useful for testing lock behavior in isolation.
func WithEntryLocker(locker EntryLocker) CacheOption {
	return func(opts *cacheOptions) {
		opts.locker = locker
	}
}

// WithLogger sets the structured logger used by the cache and loader.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) CacheOption {
	return func(opts *cacheOptions) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithWorkDir sets the directory against which relative local references are
// resolved. Defaults to the process working directory.
func WithWorkDir(dir string) CacheOption {
	return func(opts *cacheOptions) {
		opts.workDir = dir
	}
}

// ResolveOption configures a single Resolve or Load call.
type ResolveOption func(*resolveOptions)

type resolveOptions struct {
	force bool
}

// WithForceReload invalidates any existing cache entry for the exact
// (reference, revision) pair before proceeding, forcing re-acquisition.
func WithForceReload() ResolveOption {
	return func(opts *resolveOptions) {
		opts.force = true
	}
}

func applyResolveOptions(opts []ResolveOption) *resolveOptions {
	options := &resolveOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
