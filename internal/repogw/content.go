package repogw

import (
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/inful/adl-diff-miner/internal/foundation/errors"
)

// Content returns the full text of path as it exists in commit c's tree.
// ok is false when the path is absent from the tree or the blob is binary;
// callers treat either case as "nothing to sniff" rather than an error.
func (r *Repo) Content(c *object.Commit, path string) (content string, ok bool, err error) {
	tree, err := treeOf(c)
	if err != nil {
		return "", false, errors.WrapError(err, errors.CategoryGit, "failed to resolve tree for content lookup").
			WithContext("commit", c.Hash.String()).
			WithContext("path", path).
			Build()
	}

	f, err := tree.File(path)
	if err != nil {
		return "", false, nil
	}
	if isBinaryFile(f) {
		return "", false, nil
	}

	text, err := f.Contents()
	if err != nil {
		return "", false, errors.WrapError(err, errors.CategoryGit, "failed to read blob contents").
			WithContext("path", path).
			Build()
	}
	return text, true, nil
}
