// Package git reads revision information of the site's working tree.
package git

import (
	stderrors "errors"

	"github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/sitekicker/internal/foundation/errors"
)

// ErrNotRepository is returned when the directory is not inside a git work tree.
var ErrNotRepository = stderrors.New("not a git repository")

// Revision identifies the commit a site was built from.
type Revision struct {
	Commit string
	Branch string
}

// Short returns the abbreviated commit hash.
func (r Revision) Short() string {
	if len(r.Commit) > 7 {
		return r.Commit[:7]
	}
	return r.Commit
}

// HeadRevision resolves HEAD of the repository containing dir. Parent
// directories are searched for the .git directory.
func HeadRevision(dir string) (Revision, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryNotExists) {
			return Revision{}, ErrNotRepository
		}
		return Revision{}, errors.WrapError(err, errors.CategoryGit, "open repository").
			WithContext("path", dir).Build()
	}
	head, err := repo.Head()
	if err != nil {
		return Revision{}, errors.WrapError(err, errors.CategoryGit, "resolve HEAD").
			WithContext("path", dir).Build()
	}
	rev := Revision{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		rev.Branch = head.Name().Short()
	}
	return rev, nil
}
