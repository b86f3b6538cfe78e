package hub

import (
	"time"

	errors "github.com/jmgilman/go/errors"
)

// Context keys attached to hub errors. Every error surfaced by this package
// carries the reference/revision/module it relates to so operators can
// diagnose failures without re-running with extra flags.
const (
	ctxReference = "reference"
	ctxRevision  = "revision"
	ctxModule    = "module"
	ctxCause     = "cause"
)

// errReferenceNotFound reports a reference that could not be resolved locally
// and was not (or could not be) acquired remotely.
func errReferenceNotFound(reference, detail string) error {
	err := errors.Newf(errors.CodeNotFound, "repository not found: %s (%s)", reference, detail)
	return errors.WithContext(err, ctxReference, reference)
}

// errRemoteAcquisition reports a clone/fetch failure, preserving the
// underlying transport diagnostics verbatim.
func errRemoteAcquisition(url string, cause error) error {
	err := errors.Wrapf(cause, errors.CodeNetwork, "failed to clone repository %s", url)
	return errors.WithContext(err, "url", url)
}

// errRevisionNotFound reports a revision string that does not resolve to a
// commit in the source repository.
func errRevisionNotFound(reference, revision string, cause error) error {
	err := errors.Wrapf(cause, errors.CodeNotFound, "revision %q not found in %s", revision, reference)
	err = errors.WithContext(err, ctxReference, reference)
	err = errors.WithContext(err, ctxRevision, revision)
	return errors.WithContext(err, ctxCause, "revision")
}

// errLockTimeout reports that another process held a per-entry lock past the
// bounded wait.
func errLockTimeout(lockPath string, timeout time.Duration) error {
	err := errors.Newf(errors.CodeTimeout,
		"failed to acquire lock within %s: %s (another process may be acquiring the same repository)",
		timeout, lockPath)
	return errors.WithContext(err, "lock", lockPath)
}

// errModuleNotFound reports a missing manifest file, naming the exact path
// that was expected.
func errModuleNotFound(reference, module, expected string) error {
	err := errors.Newf(errors.CodeNotFound, "module file not found: %s", expected)
	err = errors.WithContext(err, ctxReference, reference)
	return errors.WithContext(err, ctxModule, module)
}

// errLoadFailed reports a manifest that exists but could not be parsed or
// validated.
func errLoadFailed(path string, cause error) error {
	return errors.Wrapf(cause, errors.CodeInvalidConfig, "failed to load module %s", path)
}

// errNoImplementation reports a unit that declares no recognized component.
func errNoImplementation(identity string, kinds []string) error {
	err := errors.Newf(errors.CodeSchemaFailed,
		"no component declaration found in %s (expected exactly one of kinds %v)", identity, kinds)
	return errors.WithContext(err, "unit", identity)
}

// errAmbiguousImplementation reports a unit that declares more than one
// component.
func errAmbiguousImplementation(identity string, count int) error {
	err := errors.Newf(errors.CodeSchemaFailed,
		"multiple component declarations found in %s (%d); declare exactly one per module", identity, count)
	return errors.WithContext(err, "unit", identity)
}

// errKindMismatch reports a unit whose single component declares a kind
// other than the one the caller asked for.
func errKindMismatch(identity, want, got string) error {
	err := errors.Newf(errors.CodeSchemaFailed,
		"component in %s has kind %s, expected %s", identity, got, want)
	return errors.WithContext(err, "unit", identity)
}

// IsNotFound reports whether err indicates an unresolvable reference,
// revision, or module file.
func IsNotFound(err error) bool {
	return errors.GetCode(err) == errors.CodeNotFound
}

// IsTimeout reports whether err indicates lock contention that exceeded the
// bounded wait.
func IsTimeout(err error) bool {
	return errors.GetCode(err) == errors.CodeTimeout
}

// IsRevisionNotFound reports whether err indicates a revision that does not
// resolve to a commit, as opposed to a missing repository.
func IsRevisionNotFound(err error) bool {
	if errors.GetCode(err) != errors.CodeNotFound {
		return false
	}
	var perr errors.PlatformError
	if !errors.As(err, &perr) {
		return false
	}
	ctx := perr.Context()
	return ctx != nil && ctx[ctxCause] == "revision"
}
