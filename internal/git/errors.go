package git

import (
	"errors"
	"strings"

	"github.com/go-git/go-git/v5"

	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
)

// ErrAuthorUnknown is returned when no commit author is configured anywhere.
var ErrAuthorUnknown = errors.New("commit author not configured: set git.author_name/git.author_email or user.name/user.email")

// GitError simplifies creating a vcs-scoped ClassifiedError.
func GitError(message string) *ferrors.ErrorBuilder {
	return ferrors.VersionControlError(message)
}

// ClassifyGitError translates go-git errors into ClassifiedErrors.
func ClassifyGitError(err error, op string, target string) error {
	if err == nil {
		return nil
	}

	// Already classified
	if _, ok := ferrors.AsClassified(err); ok {
		return err
	}

	builder := GitError("git "+op+" failed").
		WithCause(err).
		WithContext("op", op).
		WithContext("target", target)

	l := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, git.ErrTagExists):
		builder.WithContext("reason", "tag_exists")
	case errors.Is(err, git.ErrEmptyCommit):
		builder.WithContext("reason", "nothing_to_commit")
	case errors.Is(err, git.ErrRepositoryNotExists):
		builder.WithContext("reason", "not_a_repository")
	case errors.Is(err, ErrAuthorUnknown):
		builder.WithContext("reason", "author_unknown").UserAction()
	case strings.Contains(l, "not found") || strings.Contains(l, "no such file"):
		builder.WithContext("reason", "path_not_found")
	case strings.Contains(l, "outside"):
		builder.WithContext("reason", "outside_worktree")
	}

	return builder.Build()
}
