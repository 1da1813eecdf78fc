package repogw

import (
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/inful/adl-diff-miner/internal/foundation/errors"
	"github.com/inful/adl-diff-miner/internal/record"
)

// HistoryForPath walks the first-parent ancestry of anchor, starting at anchor
// itself, returning every commit whose tree differs from its first parent at
// path (following renames backward through history), restricted to
// since <= committed_at <= until. The walk stops as soon as it passes behind
// since, so cost is bounded by the window rather than total repository size.
func (r *Repo) HistoryForPath(anchor *object.Commit, path string, since, until time.Time) ([]record.CommitRef, error) {
	var out []record.CommitRef
	current := anchor
	tracked := path

	for {
		if current.Committer.When.Before(since) {
			break
		}
		if current.NumParents() == 0 {
			break
		}
		parent, err := current.Parent(0)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryGit, "failed to resolve first parent during history walk").
				WithContext("commit", current.Hash.String()).Build()
		}

		changed, renamedFrom, err := pathChangedAgainstParent(current, parent, tracked)
		if err != nil {
			return nil, err
		}
		if changed {
			ts := current.Committer.When
			if !ts.Before(since) && !ts.After(until) {
				out = append(out, CommitRef(current))
			}
			if renamedFrom != "" {
				tracked = renamedFrom
			}
		}

		current = parent
	}

	return out, nil
}

// pathChangedAgainstParent reports whether path's content at commit differs
// from its content at parent, and if the difference is explained by a rename
// into path, the pre-rename name to continue tracking.
func pathChangedAgainstParent(commit, parent *object.Commit, path string) (changed bool, renamedFrom string, err error) {
	commitTree, err := treeOf(commit)
	if err != nil {
		return false, "", errors.WrapError(err, errors.CategoryGit, "failed to resolve tree").Build()
	}
	parentTree, err := treeOf(parent)
	if err != nil {
		return false, "", errors.WrapError(err, errors.CategoryGit, "failed to resolve tree").Build()
	}

	curEntry, curErr := commitTree.FindEntry(path)
	parEntry, parErr := parentTree.FindEntry(path)

	switch {
	case curErr != nil:
		// path does not exist at this revision; nothing to attribute to commit.
		return false, "", nil
	case parErr != nil:
		// path newly present relative to parent: either a fresh add or a rename target.
		changes, diffErr := parentTree.Diff(commitTree)
		if diffErr != nil {
			return false, "", errors.WrapError(diffErr, errors.CategoryGit, "failed to diff trees during history walk").Build()
		}
		for _, rp := range detectRenames(changes) {
			if rp.newPath == path {
				return true, rp.oldPath, nil
			}
		}
		return true, "", nil
	case curEntry.Hash != parEntry.Hash:
		return true, "", nil
	default:
		return false, "", nil
	}
}
