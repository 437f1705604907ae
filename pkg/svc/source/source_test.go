package source_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devantler-tech/kci/pkg/svc/source"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0o600))

	worktree, err := repo.Worktree()
	require.NoError(t, err)

	_, err = worktree.Add("Dockerfile")
	require.NoError(t, err)

	hash, err := worktree.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "ci", Email: "ci@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	_, err = repo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{"https://github.com/acme/app.git"},
	})
	require.NoError(t, err)

	return dir, hash.String()
}

func TestInspect_CleanWorktree(t *testing.T) {
	t.Parallel()

	dir, commit := initRepo(t)

	rev, err := source.Inspect(dir)
	require.NoError(t, err)

	assert.Equal(t, commit, rev.Commit)
	assert.False(t, rev.Dirty)
	assert.Equal(t, commit[:7], rev.Tag())
	assert.Equal(t, "master", rev.Branch)
	assert.Equal(t, "https://github.com/acme/app.git", rev.RemoteURL)
	assert.Equal(t, filepath.Base(dir), rev.Name())
}

func TestInspect_DirtyWorktree(t *testing.T) {
	t.Parallel()

	dir, commit := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM busybox\n"), 0o600))

	rev, err := source.Inspect(dir)
	require.NoError(t, err)

	assert.True(t, rev.Dirty)
	assert.Equal(t, commit[:7]+"-dirty", rev.Tag())
}

func TestInspect_Subdirectory(t *testing.T) {
	t.Parallel()

	dir, commit := initRepo(t)
	sub := filepath.Join(dir, "e2e")
	require.NoError(t, os.Mkdir(sub, 0o750))

	rev, err := source.Inspect(sub)
	require.NoError(t, err)
	assert.Equal(t, commit, rev.Commit)
}

func TestInspect_NotARepository(t *testing.T) {
	t.Parallel()

	_, err := source.Inspect(t.TempDir())
	require.ErrorIs(t, err, source.ErrNotARepository)
}

func TestRevision_ShortCommit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", source.Revision{Commit: "abc"}.ShortCommit())
}
