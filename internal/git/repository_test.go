package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
)

var testAuthor = Author{Name: "tester", Email: "t@example.com"}

// initProject creates a repository with one committed manifest.
func initProject(t *testing.T) (string, *git.Repository) {
	t.Helper()
	// Keep the user's global git config out of the tests.
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	manifest := filepath.Join(dir, "core", "src", "META-INF", "MANIFEST.MF")
	require.NoError(t, os.MkdirAll(filepath.Dir(manifest), 0o750))
	require.NoError(t, os.WriteFile(manifest, []byte("Implementation-Version: 1.0\nImplementation-Build: 5\n"), 0o600))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("core/src/META-INF/MANIFEST.MF")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{Author: &object.Signature{Name: "tester", Email: "t@example.com"}})
	require.NoError(t, err)
	return dir, repo
}

func bumpManifest(t *testing.T, dir string) {
	t.Helper()
	path := filepath.Join(dir, "core", "src", "META-INF", "MANIFEST.MF")
	require.NoError(t, os.WriteFile(path, []byte("Implementation-Version: 1.0\nImplementation-Build: 6\n"), 0o600))
}

func commitCount(t *testing.T, repo *git.Repository) int {
	t.Helper()
	iter, err := repo.Log(&git.LogOptions{})
	require.NoError(t, err)
	n := 0
	require.NoError(t, iter.ForEach(func(*object.Commit) error { n++; return nil }))
	return n
}

func TestStageCommitTag(t *testing.T) {
	dir, repo := initProject(t)
	bumpManifest(t, dir)

	r, err := Open(dir, testAuthor)
	require.NoError(t, err)

	require.NoError(t, r.Stage("core/src/META-INF/MANIFEST.MF"))
	hash, err := r.Commit("releasing 1.0b6")
	require.NoError(t, err)
	require.NoError(t, r.Tag("version-1.0b6"))

	commit, err := repo.CommitObject(plumbing.NewHash(hash))
	require.NoError(t, err)
	assert.Equal(t, "releasing 1.0b6", commit.Message)
	assert.Equal(t, "tester", commit.Author.Name)

	ref, err := repo.Tag("version-1.0b6")
	require.NoError(t, err)
	assert.Equal(t, hash, ref.Hash().String())

	tags, err := r.HeadTags()
	require.NoError(t, err)
	assert.Equal(t, []string{"version-1.0b6"}, tags)
}

func TestStageAcceptsAbsoluteAndBackslashPaths(t *testing.T) {
	dir, _ := initProject(t)
	bumpManifest(t, dir)
	r, err := Open(dir, testAuthor)
	require.NoError(t, err)

	require.NoError(t, r.Stage(filepath.Join(dir, "core", "src", "META-INF", "MANIFEST.MF")))
	require.NoError(t, r.Stage(`core\src\META-INF\MANIFEST.MF`))
}

func TestOpenDetectsParentRepository(t *testing.T) {
	dir, _ := initProject(t)
	bumpManifest(t, dir)
	r, err := Open(filepath.Join(dir, "core"), testAuthor)
	require.NoError(t, err)

	require.NoError(t, r.Stage("src/META-INF/MANIFEST.MF"))
}

func TestStageMissingPathCreatesNothing(t *testing.T) {
	dir, repo := initProject(t)
	r, err := Open(dir, testAuthor)
	require.NoError(t, err)

	err = r.Stage("core/src/META-INF/MISSING.MF")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryVersionControl))

	// The caller stops here; nothing may have been recorded.
	assert.Equal(t, 1, commitCount(t, repo))
	tags, err := repo.Tags()
	require.NoError(t, err)
	count := 0
	require.NoError(t, tags.ForEach(func(*plumbing.Reference) error { count++; return nil }))
	assert.Zero(t, count)
}

func TestStageOutsideWorktree(t *testing.T) {
	dir, _ := initProject(t)
	outside := filepath.Join(t.TempDir(), "stray.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

	r, err := Open(dir, testAuthor)
	require.NoError(t, err)
	err = r.Stage(outside)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryVersionControl))
}

func TestCommitRefusesEmpty(t *testing.T) {
	dir, repo := initProject(t)
	r, err := Open(dir, testAuthor)
	require.NoError(t, err)

	require.NoError(t, r.Stage("core/src/META-INF/MANIFEST.MF"))
	_, err = r.Commit("releasing 1.0b5")
	require.Error(t, err)
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	reason, _ := ce.Context().GetString("reason")
	assert.Equal(t, "nothing_to_commit", reason)
	assert.Equal(t, 1, commitCount(t, repo))
}

func TestTagCollision(t *testing.T) {
	dir, _ := initProject(t)
	r, err := Open(dir, testAuthor)
	require.NoError(t, err)

	require.NoError(t, r.Tag("version-1.0b5"))
	err = r.Tag("version-1.0b5")
	require.Error(t, err)
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	reason, _ := ce.Context().GetString("reason")
	assert.Equal(t, "tag_exists", reason)
}

func TestAuthorFallsBackToRepositoryConfig(t *testing.T) {
	dir, repo := initProject(t)
	cfg, err := repo.Config()
	require.NoError(t, err)
	cfg.User.Name = "Repo User"
	cfg.User.Email = "repo@example.com"
	require.NoError(t, repo.SetConfig(cfg))

	bumpManifest(t, dir)
	r, err := Open(dir, Author{})
	require.NoError(t, err)
	require.NoError(t, r.Stage("core/src/META-INF/MANIFEST.MF"))
	hash, err := r.Commit("releasing 1.0b6")
	require.NoError(t, err)

	commit, err := repo.CommitObject(plumbing.NewHash(hash))
	require.NoError(t, err)
	assert.Equal(t, "Repo User", commit.Author.Name)
	assert.Equal(t, "repo@example.com", commit.Author.Email)
}

func TestAuthorUnknown(t *testing.T) {
	dir, repo := initProject(t)
	bumpManifest(t, dir)
	r, err := Open(dir, Author{})
	require.NoError(t, err)
	require.NoError(t, r.Stage("core/src/META-INF/MANIFEST.MF"))

	_, err = r.Commit("releasing 1.0b6")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthorUnknown)
	assert.Equal(t, 1, commitCount(t, repo))
}

func TestOpenNotARepository(t *testing.T) {
	_, err := Open(t.TempDir(), testAuthor)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryVersionControl))
}
