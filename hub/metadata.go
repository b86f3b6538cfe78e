package hub

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5/util"
)

// metadataSuffix names the sidecar written next to each materialization.
const metadataSuffix = ".json"

// EntryMetadata records how a cache entry was produced. It exists to
// support inspection and future age-based eviction; the directory itself
// remains the only hit/miss signal.
type EntryMetadata struct {
	Reference string    `json:"reference"`
	Revision  string    `json:"revision,omitempty"`
	Commit    string    `json:"commit,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// writeMetadata writes the sidecar for key atomically (write to a temporary
// name, then rename). It is called only after the entry directory is fully
// populated, and is best-effort: a failed sidecar never fails a resolve.
func (c *RepositoryCache) writeMetadata(key string, md EntryMetadata) {
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		c.log.Warn("failed to marshal entry metadata", "key", key, "error", err)
		return
	}

	path := filepath.Join(c.root, key+metadataSuffix)
	tmpPath := path + ".tmp"

	tmpFile, err := c.fs.Create(tmpPath)
	if err != nil {
		c.log.Warn("failed to write entry metadata", "key", key, "error", err)
		return
	}
	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		_ = c.fs.Remove(tmpPath)
		c.log.Warn("failed to write entry metadata", "key", key, "error", err)
		return
	}
	if err := tmpFile.Close(); err != nil {
		_ = c.fs.Remove(tmpPath)
		c.log.Warn("failed to write entry metadata", "key", key, "error", err)
		return
	}
	if err := c.fs.Rename(tmpPath, path); err != nil {
		_ = c.fs.Remove(tmpPath)
		c.log.Warn("failed to write entry metadata", "key", key, "error", err)
	}
}

// Metadata returns the sidecar for a (reference, revision) pair, or nil
// if none exists.
func (c *RepositoryCache) Metadata(reference, revision string) (*EntryMetadata, error) {
	path := filepath.Join(c.root, cacheKey(reference, revision)+metadataSuffix)
	data, err := util.ReadFile(c.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var md EntryMetadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, err
	}
	return &md, nil
}
