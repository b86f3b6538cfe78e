package hub

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
	errors "github.com/jmgilman/go/errors"
)

// lockPollInterval is how often a waiter re-attempts a held lock. Polling a
// non-blocking try keeps waiters responsive to context cancellation and
// tolerates liveness differences between processes sharing the filesystem.
const lockPollInterval = 100 * time.Millisecond

// DefaultLockTimeout bounds how long Resolve waits for another process to
// finish acquiring the same cache entry.
const DefaultLockTimeout = 5 * time.Minute

// EntryLocker serializes mutations of a single cache slot across processes.
//
// The default implementation uses an OS advisory file lock (flock) on a
// sidecar file next to the slot, so unrelated processes on the same machine
// observe the same lock. Lock state lives in the advisory lock itself, not
// in the file's existence: a lock file left behind by a crash is harmless
// and is simply reused by the next acquirer.
type EntryLocker interface {
	// Acquire blocks until the lock at path is held, the timeout elapses, or
	// ctx is canceled. On success it returns a release function that must be
	// called exactly once; release also best-effort removes the lock file.
	Acquire(ctx context.Context, path string, timeout time.Duration) (release func(), err error)
}

// flockLocker implements EntryLocker with gofrs/flock.
type flockLocker struct{}

func (flockLocker) Acquire(ctx context.Context, path string, timeout time.Duration) (func(), error) {
	fl := flock.New(path)
	deadline := time.Now().Add(timeout)

	for {
		locked, err := fl.TryLock()
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeInternal, "failed to acquire lock %s", path)
		}
		if locked {
			return func() {
				_ = fl.Unlock()
				_ = os.Remove(path)
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, errLockTimeout(path, timeout)
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), errors.CodeTimeout, "lock wait canceled: %s", path)
		case <-time.After(lockPollInterval):
		}
	}
}

// memoryLocker implements EntryLocker with in-process semaphores, one per
// path. It provides the same per-slot exclusion within one process and is
// used with virtual filesystems, where OS advisory locks are unavailable.
type memoryLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newMemoryLocker() *memoryLocker {
	return &memoryLocker{slots: make(map[string]chan struct{})}
}

func (m *memoryLocker) slot(path string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	sem, ok := m.slots[path]
	if !ok {
		sem = make(chan struct{}, 1)
		m.slots[path] = sem
	}
	return sem
}

func (m *memoryLocker) Acquire(ctx context.Context, path string, timeout time.Duration) (func(), error) {
	sem := m.slot(path)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-timer.C:
		return nil, errLockTimeout(path, timeout)
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), errors.CodeTimeout, "lock wait canceled: %s", path)
	}
}
