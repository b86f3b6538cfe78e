// Package hub provides versioned caching and loading of component repositories.
//
// # Overview
//
// The hub resolves a logical repository reference (bare name, owner/name, or
// filesystem path) plus an optional revision to a locally materialized,
// revision-pinned directory, and loads component manifests from that
// directory as isolated, memoized units.
//
// Two cooperating pieces:
//
//  1. RepositoryCache: resolves (reference, revision) to an immutable cached
//     directory, cloning remotes and extracting revisions on demand. Safe
//     under concurrent use from multiple processes and threads.
//  2. ModuleLoader: loads a named manifest from a resolved directory under a
//     synthesized unique identity and memoizes it per
//     (reference, revision, module) triple.
//
// # Cache layout
//
//	$IX_HUB_CACHE/
//	├── ix-hub--swe-agent--v1.0.0--3fb1a60cc9adb212/   # revision-pinned materialization
//	├── ix-hub--swe-agent--v1.0.0--3fb1a60cc9adb212.json   # sidecar metadata
//	├── remote-9f2c41d08c1be977/                       # bare clone, shared across revisions
//	└── ix-hub--swe-agent--main--8a0c.....lock         # transient, held during acquisition
//
// The existence of a materialization directory is the sole cache hit signal:
// directories are created atomically under a per-entry lock and never mutated
// in place, so a present directory is always complete.
//
// # Usage
//
// Construct one cache and loader at startup and pass them explicitly:
//
//	cache, err := hub.NewRepositoryCache(cfg.HubCache,
//	    hub.WithEndpoint(cfg.Endpoint),
//	    hub.WithOffline(cfg.Offline))
//	if err != nil {
//	    return err
//	}
//	loader := hub.NewModuleLoader(cache)
//
//	dir, err := cache.Resolve(ctx, "ix-hub/swe-agent", "v1.0.0")
//	unit, err := loader.Load(ctx, "ix-hub/swe-agent", "agent", "v1.0.0")
//
// Or use the Hub facade, which adds typed component loading:
//
//	h, err := hub.New(cfg.HubCache)
//	agent, err := h.LoadAgent(ctx, "ix-hub/swe-agent", "v1.0.0")
//
// # Concurrency
//
// Reads of a complete entry take no lock. All mutations of one cache slot are
// gated by a cross-process file lock scoped to that slot, acquired by polling
// with a bounded wait (default 5 minutes). Distinct (reference, revision)
// pairs never contend.
package hub
