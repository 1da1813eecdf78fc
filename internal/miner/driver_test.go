package miner

import (
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func commitAt(hash string, when time.Time) *object.Commit {
	return &object.Commit{
		Hash:      plumbing.NewHash(hash),
		Committer: object.Signature{Name: "a", Email: "a@example.com", When: when},
	}
}

func TestOrderCommitsDeterministically_SortsByCommitterTimeDescending(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(24 * time.Hour)
	commits := []*object.Commit{
		commitAt("1111111111111111111111111111111111111111", t0),
		commitAt("2222222222222222222222222222222222222222", t1),
	}

	orderCommitsDeterministically(commits)

	if !commits[0].Committer.When.Equal(t1) {
		t.Fatalf("expected most recent commit first, got %v", commits[0].Committer.When)
	}
}

func TestOrderCommitsDeterministically_TieBreaksOnHashAscending(t *testing.T) {
	when := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	commits := []*object.Commit{
		commitAt("ffffffffffffffffffffffffffffffffffffffff", when),
		commitAt("1111111111111111111111111111111111111111", when),
		commitAt("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", when),
	}

	orderCommitsDeterministically(commits)

	want := []string{
		"1111111111111111111111111111111111111111",
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"ffffffffffffffffffffffffffffffffffffffff",
	}
	for i, w := range want {
		if commits[i].Hash.String() != w {
			t.Fatalf("position %d: got %s, want %s", i, commits[i].Hash.String(), w)
		}
	}
}
