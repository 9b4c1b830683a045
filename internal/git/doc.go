// Package git records a release in the project's Git repository.
//
// The driver is built on go-git and never shells out to a git binary:
//   - Stage adds the manifest to the index
//   - Commit records the index with the release message
//   - Tag places a lightweight release tag on HEAD
//
// Failures are returned as ClassifiedErrors in the vcs category.
package git
