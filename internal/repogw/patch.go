package repogw

import (
	"bytes"

	"github.com/go-git/go-git/v5/plumbing/merkletrie"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/inful/adl-diff-miner/internal/foundation/errors"
)

// ChangeStatus mirrors record.FileStatus but stays local to the gateway so the
// Diff Normalizer owns the decision of how a status maps onto the wire schema.
type ChangeStatus string

const (
	ChangeAdded    ChangeStatus = "added"
	ChangeModified ChangeStatus = "modified"
	ChangeDeleted  ChangeStatus = "deleted"
	ChangeRenamed  ChangeStatus = "renamed"
)

// FilePatch is one file's change between two trees, as seen by the gateway.
// PatchText is the unified-diff body for this single file (empty for binary
// files); the Diff Normalizer is responsible for turning it into hunks.
type FilePatch struct {
	Path         string
	PreviousPath string
	Status       ChangeStatus
	IsBinary     bool
	PatchText    string
}

// Patch computes the per-file patches between parent and child, with rename
// detection at Git's default 50% similarity threshold. Binary files carry no
// patch text; callers must check IsBinary before treating PatchText as unified
// diff content.
func (r *Repo) Patch(parent, child *object.Commit) ([]FilePatch, error) {
	parentTree, err := treeOf(parent)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "failed to resolve parent tree").
			WithContext("commit", parent.Hash.String()).Build()
	}
	childTree, err := treeOf(child)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "failed to resolve child tree").
			WithContext("commit", child.Hash.String()).Build()
	}

	changes, err := parentTree.Diff(childTree)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "failed to diff trees").
			WithContext("parent", parent.Hash.String()).
			WithContext("child", child.Hash.String()).
			Build()
	}

	renames := detectRenames(changes)
	renamedOld := make(map[string]bool, len(renames))
	renamedNew := make(map[string]renamePair, len(renames))
	for _, rp := range renames {
		renamedOld[rp.oldPath] = true
		renamedNew[rp.newPath] = rp
	}

	var patches []FilePatch
	for _, ch := range changes {
		if ch.From.Name != "" && renamedOld[ch.From.Name] {
			continue // consumed by its paired insert below
		}
		if ch.To.Name != "" {
			if rp, ok := renamedNew[ch.To.Name]; ok {
				fp, err := r.buildRenamePatch(rp)
				if err != nil {
					return nil, err
				}
				patches = append(patches, fp)
				continue
			}
		}

		fp, err := r.buildPlainPatch(ch)
		if err != nil {
			return nil, err
		}
		patches = append(patches, fp)
	}
	return patches, nil
}

func (r *Repo) buildRenamePatch(rp renamePair) (FilePatch, error) {
	synthetic := &object.Change{From: rp.oldEntry, To: rp.newEntry}
	text, isBinary, err := patchText(synthetic)
	if err != nil {
		return FilePatch{}, err
	}
	return FilePatch{
		Path:         rp.newPath,
		PreviousPath: rp.oldPath,
		Status:       ChangeRenamed,
		IsBinary:     isBinary,
		PatchText:    text,
	}, nil
}

func (r *Repo) buildPlainPatch(ch *object.Change) (FilePatch, error) {
	action, err := ch.Action()
	if err != nil {
		return FilePatch{}, errors.WrapError(err, errors.CategoryGit, "failed to determine change action").Build()
	}

	var status ChangeStatus
	var path string
	switch action {
	case merkletrie.Insert:
		status = ChangeAdded
		path = ch.To.Name
	case merkletrie.Delete:
		status = ChangeDeleted
		path = ch.From.Name
	default:
		status = ChangeModified
		path = ch.To.Name
	}

	text, isBinary, err := patchText(ch)
	if err != nil {
		return FilePatch{}, err
	}
	return FilePatch{
		Path:      path,
		Status:    status,
		IsBinary:  isBinary,
		PatchText: text,
	}, nil
}

// patchText renders the unified diff body for a single change, reporting
// whether either side of the change is binary (in which case PatchText is
// left empty; go-git's patch encoder elides hunk bodies for binary files).
func patchText(ch *object.Change) (text string, isBinary bool, err error) {
	from, to, err := ch.Files()
	if err != nil {
		return "", false, errors.WrapError(err, errors.CategoryGit, "failed to resolve change file contents").Build()
	}
	if (from != nil && isBinaryFile(from)) || (to != nil && isBinaryFile(to)) {
		return "", true, nil
	}

	patch, err := ch.Patch()
	if err != nil {
		return "", false, errors.WrapError(err, errors.CategoryGit, "failed to compute patch").Build()
	}
	var buf bytes.Buffer
	if err := patch.Encode(&buf); err != nil {
		return "", false, errors.WrapError(err, errors.CategoryGit, "failed to encode patch").Build()
	}
	return buf.String(), false, nil
}
