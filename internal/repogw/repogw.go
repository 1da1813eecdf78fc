// Package repogw wraps the Git object database reachable from a repository's HEAD:
// commit enumeration, parent/tree resolution, and patch computation between two
// trees. Commits cross the package boundary as go-git *object.Commit values
// (HeadCommits, FirstParent); patches, history and content come back as this
// package's or the record package's own types.
package repogw

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/inful/adl-diff-miner/internal/foundation/errors"
	"github.com/inful/adl-diff-miner/internal/record"
)

// renameSimilarityThreshold mirrors Git's default rename-detection similarity (50%).
const renameSimilarityThreshold = 0.5

// Repo is an opened repository handle. It owns no goroutines and holds no locks
// beyond what go-git's underlying object store keeps open for the process lifetime.
type Repo struct {
	repo *git.Repository
	path string
}

// Open opens the repository rooted at path. It fails with a classified git error
// if path is not a Git working directory.
func Open(path string) (*Repo, error) {
	r, err := git.PlainOpen(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "failed to open repository").
			WithContext("path", path).
			Build()
	}
	return &Repo{repo: r, path: path}, nil
}

// Path returns the filesystem path the repository was opened from.
func (r *Repo) Path() string { return r.path }

// HeadCommits returns commits reachable from HEAD, ordered by committer time
// descending (the order the Driver requires before it applies its own tie-break).
func (r *Repo) HeadCommits() ([]*object.Commit, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "failed to resolve HEAD").Build()
	}

	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "failed to enumerate commit log").Build()
	}
	defer iter.Close()

	var commits []*object.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		commits = append(commits, c)
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "failed while walking commit log").Build()
	}
	return commits, nil
}

// CommitRef converts a go-git commit into the record package's wire type.
func CommitRef(c *object.Commit) record.CommitRef {
	var parentHash string
	if c.NumParents() > 0 {
		parentHash = c.ParentHashes[0].String()
	}
	committer := c.Committer
	if committer.Email == "" && committer.Name == "" {
		committer = c.Author
	}
	return record.CommitRef{
		Hash:        c.Hash.String(),
		ParentHash:  parentHash,
		AuthoredAt:  record.Timestamp(c.Author.When),
		CommittedAt: record.Timestamp(c.Committer.When),
		Author:      record.Person{Name: c.Author.Name, Email: c.Author.Email},
		Committer:   record.Person{Name: committer.Name, Email: committer.Email},
		IsMerge:     c.NumParents() > 1,
		Message:     c.Message,
	}
}

// FirstParent returns C's first parent, or nil if C is a root commit.
func FirstParent(c *object.Commit) (*object.Commit, error) {
	if c.NumParents() == 0 {
		return nil, nil
	}
	p, err := c.Parent(0)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "failed to resolve first parent").
			WithContext("commit", c.Hash.String()).
			Build()
	}
	return p, nil
}

func treeOf(c *object.Commit) (*object.Tree, error) {
	t, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("resolve tree for %s: %w", c.Hash, err)
	}
	return t, nil
}
