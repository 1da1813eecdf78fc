package repogw

import (
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// renamePair records a detected rename between two tree diffs: the file that
// disappeared under oldPath reappeared, with at least renameSimilarityThreshold
// of its lines unchanged, under newPath.
type renamePair struct {
	oldPath  string
	newPath  string
	oldEntry object.ChangeEntry
	newEntry object.ChangeEntry
}

// renameSide is one half of a candidate rename: an added or deleted path plus
// the tree it can be read from.
type renameSide struct {
	path  string
	hash  string
	tree  *object.Tree
	entry object.ChangeEntry
}

type renameCandidate struct {
	deletedIdx int
	addedIdx   int
	score      float64
}

// detectRenames pairs up the added and deleted changes in a tree diff using
// Git's default similarity threshold. An exact content match (same blob hash)
// always pairs; otherwise pairs are scored by line-overlap ratio and matched
// greedily, highest score first, ties broken by path ascending for determinism.
func detectRenames(changes object.Changes) []renamePair {
	var added, deleted []renameSide

	for _, ch := range changes {
		fromEmpty := ch.From.Name == ""
		toEmpty := ch.To.Name == ""
		switch {
		case fromEmpty && !toEmpty:
			added = append(added, renameSide{path: ch.To.Name, hash: ch.To.TreeEntry.Hash.String(), tree: ch.To.Tree, entry: ch.To})
		case !fromEmpty && toEmpty:
			deleted = append(deleted, renameSide{path: ch.From.Name, hash: ch.From.TreeEntry.Hash.String(), tree: ch.From.Tree, entry: ch.From})
		}
	}

	if len(added) == 0 || len(deleted) == 0 {
		return nil
	}

	var candidates []renameCandidate
	for i, d := range deleted {
		for j, a := range added {
			if d.hash == a.hash {
				candidates = append(candidates, renameCandidate{i, j, 1.0})
				continue
			}
			if score := lineSimilarity(d, a); score >= renameSimilarityThreshold {
				candidates = append(candidates, renameCandidate{i, j, score})
			}
		}
	}

	sort.Slice(candidates, func(x, y int) bool {
		cx, cy := candidates[x], candidates[y]
		if cx.score != cy.score {
			return cx.score > cy.score
		}
		if deleted[cx.deletedIdx].path != deleted[cy.deletedIdx].path {
			return deleted[cx.deletedIdx].path < deleted[cy.deletedIdx].path
		}
		return added[cx.addedIdx].path < added[cy.addedIdx].path
	})

	usedDeleted := make(map[int]bool)
	usedAdded := make(map[int]bool)
	var pairs []renamePair
	for _, c := range candidates {
		if usedDeleted[c.deletedIdx] || usedAdded[c.addedIdx] {
			continue
		}
		usedDeleted[c.deletedIdx] = true
		usedAdded[c.addedIdx] = true
		d, a := deleted[c.deletedIdx], added[c.addedIdx]
		pairs = append(pairs, renamePair{oldPath: d.path, newPath: a.path, oldEntry: d.entry, newEntry: a.entry})
	}
	return pairs
}

// lineSimilarity approximates Git's byte-level rename similarity using a
// line-overlap ratio: the fraction of lines common to both sides relative to
// the larger file, counted with multiplicity.
func lineSimilarity(d, a renameSide) float64 {
	dFile, err := d.tree.File(d.path)
	if err != nil {
		return 0
	}
	aFile, err := a.tree.File(a.path)
	if err != nil {
		return 0
	}
	if isBinaryFile(dFile) || isBinaryFile(aFile) {
		return 0
	}
	dContent, err := dFile.Contents()
	if err != nil {
		return 0
	}
	aContent, err := aFile.Contents()
	if err != nil {
		return 0
	}

	dLines := strings.Split(dContent, "\n")
	aLines := strings.Split(aContent, "\n")
	if len(dLines) == 0 || len(aLines) == 0 {
		return 0
	}

	counts := make(map[string]int, len(dLines))
	for _, l := range dLines {
		counts[l]++
	}
	common := 0
	for _, l := range aLines {
		if counts[l] > 0 {
			counts[l]--
			common++
		}
	}

	maxLines := len(dLines)
	if len(aLines) > maxLines {
		maxLines = len(aLines)
	}
	return float64(common) / float64(maxLines)
}

func isBinaryFile(f *object.File) bool {
	isBinary, err := f.IsBinary()
	if err != nil {
		return false
	}
	return isBinary
}
