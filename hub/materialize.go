package hub

import (
	"context"
	"io"
	"os"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	errors "github.com/jmgilman/go/errors"
)

// materialize produces the complete file tree for the requested revision of
// source at target, and returns the pinned commit hash ("" for plain
// directories).
//
// For version-controlled sources the revision is resolved to a commit hash
// BEFORE anything is written, so a branch or tag moving upstream after this
// call can never change an already-materialized entry. The commit's tree is
// then extracted without touching the source repository's working tree or
// index, since the source may be serving other revisions concurrently.
func (c *RepositoryCache) materialize(ctx context.Context, reference, source, revision, target string) (string, error) {
	repo, err := c.openSource(source)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeInternal, "failed to open source repository %s", source)
	}

	if repo == nil {
		// Plain directory: no revision semantics, the content is taken
		// as-is regardless of the requested revision.
		c.log.Debug("source is not version-controlled, copying", "source", source)
		if err := c.copyTree(source, target); err != nil {
			return "", errors.Wrapf(err, errors.CodeInternal, "failed to copy %s", source)
		}
		return "", nil
	}

	rev := revision
	if rev == "" {
		rev = "HEAD"
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", errRevisionNotFound(reference, rev, err)
	}
	c.log.Debug("resolved revision", "revision", rev, "commit", hash.String())

	if c.osFS && gitCLIAvailable() {
		if err := c.archiveExtract(ctx, source, hash.String(), target); err == nil {
			return hash.String(), nil
		}
		// The in-process extraction below produces the same tree; discard
		// whatever the failed archive run left behind first.
		c.log.Debug("git archive unavailable for source, extracting in-process", "source", source)
		if err := c.removeAll(target); err != nil {
			return "", errors.Wrapf(err, errors.CodeInternal, "failed to clean partial entry %s", target)
		}
	}

	if err := c.extractTree(repo, *hash, target); err != nil {
		return "", err
	}
	return hash.String(), nil
}

// extractTree writes the file tree of commit to target using go-git's
// object database, leaving the source repository untouched.
func (c *RepositoryCache) extractTree(repo *gogit.Repository, hash plumbing.Hash, target string) error {
	commit, err := repo.CommitObject(hash)
	if err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "failed to read commit %s", hash)
	}
	tree, err := commit.Tree()
	if err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "failed to read tree of %s", hash)
	}

	if err := c.fs.MkdirAll(target, 0o755); err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "failed to create %s", target)
	}

	err = tree.Files().ForEach(func(f *object.File) error {
		path := filepath.Join(target, f.Name)
		if err := c.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}

		if f.Mode == filemode.Symlink {
			link, err := f.Contents()
			if err != nil {
				return err
			}
			return c.fs.Symlink(link, path)
		}

		mode, err := f.Mode.ToOSFileMode()
		if err != nil {
			mode = 0o644
		}

		reader, err := f.Reader()
		if err != nil {
			return err
		}
		defer reader.Close()

		out, err := c.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, reader); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
	if err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "failed to extract tree of %s", hash)
	}
	return nil
}

// copyTree recursively copies a plain directory, preserving file modes and
// symlinks.
func (c *RepositoryCache) copyTree(src, dst string) error {
	if err := c.fs.MkdirAll(dst, 0o755); err != nil {
		return err
	}

	entries, err := c.fs.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		switch {
		case entry.IsDir():
			if err := c.copyTree(srcPath, dstPath); err != nil {
				return err
			}

		case entry.Mode()&os.ModeSymlink != 0:
			link, err := c.fs.Readlink(srcPath)
			if err != nil {
				return err
			}
			if err := c.fs.Symlink(link, dstPath); err != nil {
				return err
			}

		default:
			if err := c.copyFile(srcPath, dstPath, entry.Mode().Perm()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *RepositoryCache) copyFile(src, dst string, perm os.FileMode) error {
	in, err := c.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := c.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
