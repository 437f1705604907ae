// Package source inspects the git working copy kci builds from.
package source

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// shortCommitLen matches git's default abbreviation.
const shortCommitLen = 7

// dirtySuffix is appended to image tags built from a modified worktree.
const dirtySuffix = "-dirty"

// ErrNotARepository is returned when the directory is not inside a git working copy.
var ErrNotARepository = errors.New("not a git repository")

// Revision identifies the commit the working copy is at.
type Revision struct {
	// Root is the top-level directory of the working copy.
	Root string
	// Commit is the full HEAD commit hash.
	Commit string
	// Branch is the checked-out branch, empty on a detached HEAD.
	Branch string
	// Dirty is true when the worktree has uncommitted or untracked changes.
	Dirty bool
	// RemoteURL is the first URL of the "origin" remote, if any.
	RemoteURL string
}

// ShortCommit returns the abbreviated commit hash.
func (r Revision) ShortCommit() string {
	if len(r.Commit) <= shortCommitLen {
		return r.Commit
	}

	return r.Commit[:shortCommitLen]
}

// Tag returns the image tag for the revision: the short commit, suffixed with
// "-dirty" when the worktree has changes.
func (r Revision) Tag() string {
	if r.Dirty {
		return r.ShortCommit() + dirtySuffix
	}

	return r.ShortCommit()
}

// Name returns the base name of the working copy directory.
func (r Revision) Name() string {
	return filepath.Base(r.Root)
}

// Inspect opens the working copy containing dir and reads its HEAD and status.
func Inspect(dir string) (Revision, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Revision{}, fmt.Errorf("resolve %s: %w", dir, err)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Revision{}, fmt.Errorf("%w: %s", ErrNotARepository, abs)
		}

		return Revision{}, fmt.Errorf("open repository %s: %w", abs, err)
	}

	head, err := repo.Head()
	if err != nil {
		return Revision{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return Revision{}, fmt.Errorf("open worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return Revision{}, fmt.Errorf("read worktree status: %w", err)
	}

	rev := Revision{
		Root:   worktree.Filesystem.Root(),
		Commit: head.Hash().String(),
		Dirty:  !status.IsClean(),
	}

	if head.Name().IsBranch() {
		rev.Branch = head.Name().Short()
	}

	remote, err := repo.Remote(git.DefaultRemoteName)
	if err == nil && len(remote.Config().URLs) > 0 {
		rev.RemoteURL = remote.Config().URLs[0]
	}

	return rev, nil
}
