package hub

import (
	"archive/tar"
	"context"
	"io"
	"os"
	osexec "os/exec"
	"path/filepath"
	"strings"

	errors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/exec"
)

// gitCLIAvailable reports whether the git binary is on PATH. When it is not,
// materialization falls back to in-process tree extraction.
func gitCLIAvailable() bool {
	_, err := osexec.LookPath("git")
	return err == nil
}

// archiveExtract materializes a commit's tree at target by piping
// `git archive` into an in-process tar extractor.
//
// The two legs are owned independently and connected by an explicit pipe:
// the archiver's exit code and the extractor's error are both checked before
// success is declared, and the pipe is closed with the archiver's error on
// handoff so a failed archive can never read as a successful extraction of
// empty input.
func (c *RepositoryCache) archiveExtract(ctx context.Context, source, commit, target string) error {
	pr, pw := io.Pipe()

	archiveErr := make(chan error, 1)
	go func() {
		_, err := exec.New().
			WithContext(ctx).
			WithInheritEnv().
			WithDir(source).
			WithStdout(pw).
			WithStderr(io.Discard).
			WithPassthrough().
			Run("git", "archive", "--format=tar", commit)
		pw.CloseWithError(err)
		archiveErr <- err
	}()

	extractErr := c.untar(pr, target)
	_ = pr.Close()

	if err := <-archiveErr; err != nil {
		var execErr *exec.ExecError
		if errors.As(err, &execErr) && execErr.Stderr != "" {
			return errors.Wrapf(err, errors.CodeExecutionFailed,
				"git archive failed: %s", strings.TrimSpace(execErr.Stderr))
		}
		return errors.Wrap(err, errors.CodeExecutionFailed, "git archive failed")
	}
	if extractErr != nil {
		return errors.Wrap(extractErr, errors.CodeInternal, "failed to extract archive")
	}
	return nil
}

// untar unpacks a tar stream into target via the cache filesystem.
func (c *RepositoryCache) untar(r io.Reader, target string) error {
	if err := c.fs.MkdirAll(target, 0o755); err != nil {
		return err
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		name := filepath.Clean(hdr.Name)
		if name == "." || strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
			continue
		}
		path := filepath.Join(target, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := c.fs.MkdirAll(path, 0o755); err != nil {
				return err
			}

		case tar.TypeSymlink:
			if err := c.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := c.fs.Symlink(hdr.Linkname, path); err != nil {
				return err
			}

		case tar.TypeReg:
			if err := c.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			perm := os.FileMode(hdr.Mode).Perm()
			out, err := c.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil { //nolint:gosec // trusted local git archive stream
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
}
