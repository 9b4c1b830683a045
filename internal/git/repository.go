package git

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/cottarelease/internal/logfields"
)

// Author identifies who records the release commit. Empty fields fall back to
// the repository and global git configuration.
type Author struct {
	Name  string
	Email string
}

// Repository is the version control driver for a single project.
type Repository struct {
	repo   *git.Repository
	root   string // project root, base for relative paths
	author Author
	now    func() time.Time
}

// Open opens the repository containing root.
func Open(root string, author Author) (*Repository, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, ClassifyGitError(err, "open", root)
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, ClassifyGitError(err, "open", abs)
	}
	return &Repository{repo: repo, root: abs, author: author, now: time.Now}, nil
}

// Stage adds path to the index. Relative paths resolve against the project
// root; backslash separators are accepted.
func (r *Repository) Stage(path string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return ClassifyGitError(err, "stage", path)
	}

	abs := filepath.FromSlash(strings.ReplaceAll(path, `\`, "/"))
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(r.root, abs)
	}
	if _, err := os.Stat(abs); err != nil {
		return ClassifyGitError(fmt.Errorf("stage %s: %w", abs, err), "stage", path)
	}

	wtRoot := wt.Filesystem.Root()
	rel, err := filepath.Rel(wtRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ClassifyGitError(fmt.Errorf("path %s is outside worktree %s", abs, wtRoot), "stage", path)
	}

	if _, err := wt.Add(filepath.ToSlash(rel)); err != nil {
		return ClassifyGitError(err, "stage", path)
	}
	slog.Debug("Staged file", logfields.Path(filepath.ToSlash(rel)))
	return nil
}

// Commit records the index and returns the new commit hash. Empty commits are
// refused.
func (r *Repository) Commit(message string) (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", ClassifyGitError(err, "commit", message)
	}
	sig, err := r.signature()
	if err != nil {
		return "", ClassifyGitError(err, "commit", message)
	}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, AllowEmptyCommits: false})
	if err != nil {
		return "", ClassifyGitError(err, "commit", message)
	}
	slog.Info("Committed release", logfields.Commit(hash.String()[:8]), slog.String("message", message))
	return hash.String(), nil
}

// Tag creates a lightweight tag on HEAD. An existing tag of the same name is an error.
func (r *Repository) Tag(name string) error {
	head, err := r.repo.Head()
	if err != nil {
		return ClassifyGitError(err, "tag", name)
	}
	if _, err := r.repo.CreateTag(name, head.Hash(), nil); err != nil {
		return ClassifyGitError(err, "tag", name)
	}
	slog.Info("Tagged release", logfields.Tag(name), logfields.Commit(head.Hash().String()[:8]))
	return nil
}

// HeadTags returns the tag names pointing at HEAD.
func (r *Repository) HeadTags() ([]string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, ClassifyGitError(err, "tags", "HEAD")
	}
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, ClassifyGitError(err, "tags", "HEAD")
	}
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Hash() == head.Hash() {
			names = append(names, ref.Name().Short())
		}
		return nil
	})
	if err != nil {
		return nil, ClassifyGitError(err, "tags", "HEAD")
	}
	return names, nil
}

func (r *Repository) signature() (*object.Signature, error) {
	name, email := r.author.Name, r.author.Email
	if name == "" || email == "" {
		cfg, err := r.repo.ConfigScoped(gitconfig.GlobalScope)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if cfg != nil {
			if name == "" {
				name = cfg.User.Name
			}
			if email == "" {
				email = cfg.User.Email
			}
		}
	}
	if name == "" || email == "" {
		return nil, ErrAuthorUnknown
	}
	return &object.Signature{Name: name, Email: email, When: r.now()}, nil
}
