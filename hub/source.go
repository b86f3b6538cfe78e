package hub

import (
	"context"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	gitcache "github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/filesystem"
	errors "github.com/jmgilman/go/errors"
)

// resolveSource resolves a repository reference to a concrete local source
// directory, cloning from the configured endpoint when the reference is not
// resolvable locally.
//
// Resolution order:
//  1. Absolute path: used as-is; must exist.
//  2. Relative path under the working directory: used if it exists.
//  3. Remote identifier: cloned into a URL-keyed bare slot (unless offline).
func (c *RepositoryCache) resolveSource(ctx context.Context, reference string) (string, error) {
	if filepath.IsAbs(reference) {
		if !c.exists(reference) {
			return "", errReferenceNotFound(reference, "absolute path does not exist")
		}
		return reference, nil
	}

	local := filepath.Join(c.workDir, reference)
	if c.exists(local) {
		return local, nil
	}

	if c.offline {
		return "", errReferenceNotFound(reference,
			"not found under "+c.workDir+" and remote acquisition is disabled")
	}

	c.log.Info("reference not found locally, trying remote", "reference", reference)
	return c.cloneRemote(ctx, reference, gitURL(c.endpoint, reference))
}

// cloneRemote returns the bare clone slot for url, cloning it on first use.
// The slot is keyed by URL only, so one clone serves every revision request
// for the same reference.
func (c *RepositoryCache) cloneRemote(ctx context.Context, reference, url string) (string, error) {
	dir := filepath.Join(c.root, remoteSlot(url))

	// Fast path: a finished clone is immutable.
	if c.exists(dir) {
		c.log.Debug("using cached remote clone", "url", url, "path", dir)
		return dir, nil
	}

	release, err := c.locker.Acquire(ctx, dir+".lock", c.lockTimeout)
	if err != nil {
		return "", err
	}
	defer release()

	// Another process may have cloned while this one waited.
	if c.exists(dir) {
		c.log.Debug("remote clone completed by another process", "url", url)
		return dir, nil
	}

	c.log.Info("cloning remote repository", "url", url)
	if err := c.cloneBare(ctx, url, dir); err != nil {
		// A partial clone must not survive: its presence would be taken as
		// a complete slot by the next caller.
		_ = c.removeAll(dir)

		if errors.Is(err, transport.ErrRepositoryNotFound) {
			return "", errReferenceNotFound(reference, "remote repository not found: "+url)
		}
		return "", errRemoteAcquisition(url, err)
	}

	return dir, nil
}

// cloneBare initializes a bare repository at dir and fetches all branches
// and tags from url.
func (c *RepositoryCache) cloneBare(ctx context.Context, url, dir string) error {
	if err := c.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	slotFS, err := c.fs.Chroot(dir)
	if err != nil {
		return err
	}

	storage := filesystem.NewStorage(slotFS, gitcache.NewObjectLRUDefault())
	repo, err := gogit.Init(storage, nil)
	if err != nil {
		return err
	}

	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	}); err != nil {
		return err
	}

	err = repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: "origin",
		RefSpecs: []gitconfig.RefSpec{
			"+refs/heads/*:refs/heads/*",
			"+refs/tags/*:refs/tags/*",
		},
		Tags: gogit.AllTags,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return err
	}

	c.setDefaultHead(repo)
	return nil
}

// setDefaultHead points HEAD at a sensible default branch so that
// empty-revision requests resolve. go-git's Init leaves HEAD on
// refs/heads/master regardless of what the remote uses.
func (c *RepositoryCache) setDefaultHead(repo *gogit.Repository) {
	for _, name := range []string{"refs/heads/main", "refs/heads/master"} {
		if _, err := repo.Reference(plumbing.ReferenceName(name), true); err == nil {
			head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.ReferenceName(name))
			_ = repo.Storer.SetReference(head)
			return
		}
	}

	// Fall back to the first branch available.
	refs, err := repo.References()
	if err != nil {
		return
	}
	defer refs.Close()
	_ = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Name().IsBranch() {
			head := plumbing.NewSymbolicReference(plumbing.HEAD, ref.Name())
			_ = repo.Storer.SetReference(head)
			return storer.ErrStop
		}
		return nil
	})
}

// openSource opens dir as a Git repository if it is one. Returns (nil, nil)
// for plain directories, which are materialized by recursive copy instead.
func (c *RepositoryCache) openSource(dir string) (*gogit.Repository, error) {
	if c.exists(filepath.Join(dir, ".git")) {
		wtFS, err := c.fs.Chroot(dir)
		if err != nil {
			return nil, err
		}
		dotFS, err := c.fs.Chroot(filepath.Join(dir, ".git"))
		if err != nil {
			return nil, err
		}
		storage := filesystem.NewStorage(dotFS, gitcache.NewObjectLRUDefault())
		return gogit.Open(storage, wtFS)
	}

	// Bare repositories (including our own clone slots) keep HEAD and the
	// object database at the top level.
	if c.exists(filepath.Join(dir, "HEAD")) && c.exists(filepath.Join(dir, "objects")) {
		slotFS, err := c.fs.Chroot(dir)
		if err != nil {
			return nil, err
		}
		storage := filesystem.NewStorage(slotFS, gitcache.NewObjectLRUDefault())
		return gogit.Open(storage, nil)
	}

	return nil, nil
}
