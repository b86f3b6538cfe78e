package hub

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// defaultRevisionKey stands in for an unspecified revision when deriving
// cache keys, so that (ref, "") and (ref, "HEAD") share an entry.
const defaultRevisionKey = "HEAD"

// hashLen is the number of hex characters of SHA-256 kept in cache keys.
// 64 bits is ample for the number of distinct (reference, revision) pairs a
// single cache root will ever hold.
const hashLen = 16

// cacheKey derives the filesystem-safe cache key for a (reference, revision)
// pair. The key is a human-readable prefix plus a short content hash; the
// hash disambiguates references whose path-escaped forms collide (for
// example "a/b--c" and "a--b/c").
//
// Examples:
//   - ("ix-hub/swe-agent", "v1.0.0") → "ix-hub--swe-agent--v1.0.0--<16 hex>"
//   - ("./local-agent", "")          → ".--local-agent--HEAD--<16 hex>"
func cacheKey(reference, revision string) string {
	rev := revision
	if rev == "" {
		rev = defaultRevisionKey
	}

	sum := sha256.Sum256([]byte(reference + "@" + rev))
	return fmt.Sprintf("%s--%s--%s", pathSafe(reference), pathSafe(rev), hex.EncodeToString(sum[:])[:hashLen])
}

// remoteSlot derives the cache slot name for a bare clone of a remote URL.
// The slot is keyed by URL only: a clone is revision-independent and is
// reused across every revision request for the same reference.
func remoteSlot(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "remote-" + hex.EncodeToString(sum[:])[:hashLen]
}

// pathSafe converts a reference or revision into a single path component.
func pathSafe(s string) string {
	s = strings.ReplaceAll(s, "/", "--")
	return strings.ReplaceAll(s, "\\", "--")
}

// gitURL constructs the clone URL for a bare owner/name reference against
// the configured endpoint.
//
// Examples:
//   - endpoint "https://github.com", "user/repo"  → "https://github.com/user/repo.git"
//   - endpoint "https://gitlab.com", "group/proj" → "https://gitlab.com/group/proj.git"
func gitURL(endpoint, reference string) string {
	return strings.TrimSuffix(endpoint, "/") + "/" + strings.TrimSuffix(reference, ".git") + ".git"
}
