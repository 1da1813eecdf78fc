package repogw

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// testRepo wraps a throwaway on-disk git repository plus the helpers tests
// need to build up a small commit history against it.
type testRepo struct {
	t    *testing.T
	dir  string
	repo *git.Repository
	wt   *git.Worktree
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	return &testRepo{t: t, dir: dir, repo: repo, wt: wt}
}

func (tr *testRepo) write(path, content string) {
	tr.t.Helper()
	full := filepath.Join(tr.dir, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		tr.t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		tr.t.Fatalf("write %s: %v", path, err)
	}
}

func (tr *testRepo) remove(path string) {
	tr.t.Helper()
	if err := os.Remove(filepath.Join(tr.dir, path)); err != nil {
		tr.t.Fatalf("remove %s: %v", path, err)
	}
}

func (tr *testRepo) commit(msg string, when time.Time) *object.Commit {
	tr.t.Helper()
	if _, err := tr.wt.Add("."); err != nil {
		tr.t.Fatalf("Add: %v", err)
	}
	hash, err := tr.wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "Author", Email: "author@example.com", When: when},
	})
	if err != nil {
		tr.t.Fatalf("Commit: %v", err)
	}
	c, err := tr.repo.CommitObject(hash)
	if err != nil {
		tr.t.Fatalf("CommitObject: %v", err)
	}
	return c
}

func TestOpen_FailsOnNonGitDirectory(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(dir); err == nil {
		t.Fatal("expected an error opening a non-repository directory")
	}
}

func TestOpen_SucceedsOnGitDirectory(t *testing.T) {
	tr := newTestRepo(t)
	r, err := Open(tr.dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.Path() != tr.dir {
		t.Fatalf("got path %q, want %q", r.Path(), tr.dir)
	}
}

func TestHeadCommits_ReturnsAllReachableCommits(t *testing.T) {
	tr := newTestRepo(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr.write("a.txt", "one\n")
	tr.commit("first", base)
	tr.write("a.txt", "two\n")
	tr.commit("second", base.Add(time.Hour))
	tr.write("a.txt", "three\n")
	tr.commit("third", base.Add(2*time.Hour))

	r, err := Open(tr.dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	commits, err := r.HeadCommits()
	if err != nil {
		t.Fatalf("HeadCommits: %v", err)
	}
	if len(commits) != 3 {
		t.Fatalf("got %d commits, want 3", len(commits))
	}
}

func TestFirstParent_NilForRootCommit(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("a.txt", "one\n")
	root := tr.commit("root", time.Now())

	p, err := FirstParent(root)
	if err != nil {
		t.Fatalf("FirstParent: %v", err)
	}
	if p != nil {
		t.Fatalf("expected nil parent for root commit, got %v", p.Hash)
	}
}

func TestFirstParent_ResolvesParentCommit(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("a.txt", "one\n")
	root := tr.commit("root", time.Now())
	tr.write("a.txt", "two\n")
	child := tr.commit("child", time.Now().Add(time.Hour))

	p, err := FirstParent(child)
	if err != nil {
		t.Fatalf("FirstParent: %v", err)
	}
	if p == nil || p.Hash != root.Hash {
		t.Fatalf("expected parent %v, got %v", root.Hash, p)
	}
}

func TestPatch_DetectsAddedModifiedAndDeletedFiles(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("keep.txt", "unchanged\n")
	tr.write("modify.txt", "before\n")
	tr.write("remove.txt", "gone soon\n")
	parent := tr.commit("base", time.Now())

	tr.write("modify.txt", "after\n")
	tr.write("add.txt", "brand new\n")
	tr.remove("remove.txt")
	child := tr.commit("changes", time.Now().Add(time.Hour))

	r, err := Open(tr.dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	patches, err := r.Patch(parent, child)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}

	byPath := make(map[string]FilePatch, len(patches))
	for _, p := range patches {
		byPath[p.Path] = p
	}

	if _, ok := byPath["keep.txt"]; ok {
		t.Fatal("unchanged file should not appear in the patch set")
	}
	if got := byPath["add.txt"].Status; got != ChangeAdded {
		t.Fatalf("add.txt status = %q, want %q", got, ChangeAdded)
	}
	if got := byPath["modify.txt"].Status; got != ChangeModified {
		t.Fatalf("modify.txt status = %q, want %q", got, ChangeModified)
	}
	if got := byPath["remove.txt"].Status; got != ChangeDeleted {
		t.Fatalf("remove.txt status = %q, want %q", got, ChangeDeleted)
	}
}

func TestPatch_DetectsRenameAboveSimilarityThreshold(t *testing.T) {
	tr := newTestRepo(t)
	lines := "line one\nline two\nline three\nline four\nline five\n"
	tr.write("old_name.go", lines)
	parent := tr.commit("base", time.Now())

	tr.remove("old_name.go")
	tr.write("new_name.go", lines+"line six\n")
	child := tr.commit("rename", time.Now().Add(time.Hour))

	r, err := Open(tr.dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	patches, err := r.Patch(parent, child)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if len(patches) != 1 {
		t.Fatalf("got %d patches, want 1 (a single rename)", len(patches))
	}
	if patches[0].Status != ChangeRenamed {
		t.Fatalf("status = %q, want %q", patches[0].Status, ChangeRenamed)
	}
	if patches[0].Path != "new_name.go" || patches[0].PreviousPath != "old_name.go" {
		t.Fatalf("got path=%q previousPath=%q", patches[0].Path, patches[0].PreviousPath)
	}
}

func TestPatch_BelowSimilarityThresholdIsAddPlusDelete(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("old_name.go", "alpha\nbeta\ngamma\n")
	parent := tr.commit("base", time.Now())

	tr.remove("old_name.go")
	tr.write("new_name.go", "completely different content\nwith nothing in common\n")
	child := tr.commit("unrelated swap", time.Now().Add(time.Hour))

	r, err := Open(tr.dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	patches, err := r.Patch(parent, child)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if len(patches) != 2 {
		t.Fatalf("got %d patches, want 2 (add + delete, no rename)", len(patches))
	}
	for _, p := range patches {
		if p.Status == ChangeRenamed {
			t.Fatalf("did not expect a rename below the similarity threshold, got %+v", p)
		}
	}
}

func TestPatch_BinaryFileCarriesNoPatchText(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("data.bin", "text content\n")
	parent := tr.commit("base", time.Now())

	binary := []byte{0x00, 0x01, 0x02, 0x00, 0x03, 0x00, 0xff}
	if err := os.WriteFile(filepath.Join(tr.dir, "data.bin"), binary, 0o600); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	child := tr.commit("binary change", time.Now().Add(time.Hour))

	r, err := Open(tr.dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	patches, err := r.Patch(parent, child)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if len(patches) != 1 {
		t.Fatalf("got %d patches, want 1", len(patches))
	}
	if !patches[0].IsBinary {
		t.Fatal("expected IsBinary to be true")
	}
	if patches[0].PatchText != "" {
		t.Fatalf("expected empty patch text for binary file, got %q", patches[0].PatchText)
	}
}

func TestHistoryForPath_ReturnsCommitsTouchingPathWithinWindow(t *testing.T) {
	tr := newTestRepo(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tr.write("tracked.go", "v1\n")
	tr.write("other.go", "unrelated\n")
	tr.commit("v1", base)

	tr.write("tracked.go", "v2\n")
	tr.commit("v2 touches tracked", base.AddDate(0, 0, 10))

	tr.write("other.go", "unrelated v2\n")
	tr.commit("touches other only", base.AddDate(0, 0, 20))

	tr.write("tracked.go", "v3\n")
	head := tr.commit("v3 touches tracked", base.AddDate(0, 0, 30))

	r, err := Open(tr.dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	since := base.AddDate(0, 0, -1)
	until := base.AddDate(0, 0, 31)
	hist, err := r.HistoryForPath(head, "tracked.go", since, until)
	if err != nil {
		t.Fatalf("HistoryForPath: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("got %d commits touching tracked.go, want 2 (the root creation commit has no parent to diff against)", len(hist))
	}
}

func TestHistoryForPath_StopsOutsideWindow(t *testing.T) {
	tr := newTestRepo(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tr.write("tracked.go", "v1\n")
	tr.commit("v1", base)

	tr.write("tracked.go", "v2\n")
	head := tr.commit("v2", base.AddDate(0, 0, 100))

	r, err := Open(tr.dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	since := base.AddDate(0, 0, 90)
	until := base.AddDate(0, 0, 110)
	hist, err := r.HistoryForPath(head, "tracked.go", since, until)
	if err != nil {
		t.Fatalf("HistoryForPath: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("got %d commits, want 1 (only the in-window commit)", len(hist))
	}
}

func TestHistoryForPath_FollowsRenameBackward(t *testing.T) {
	tr := newTestRepo(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lines := "alpha\nbeta\ngamma\ndelta\nepsilon\n"

	tr.write("old_name.go", lines)
	tr.commit("create under old name", base)

	tr.remove("old_name.go")
	tr.write("new_name.go", lines+"zeta\n")
	tr.commit("rename", base.AddDate(0, 0, 5))

	tr.write("new_name.go", lines+"zeta\neta\n")
	head := tr.commit("modify after rename", base.AddDate(0, 0, 10))

	r, err := Open(tr.dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	hist, err := r.HistoryForPath(head, "new_name.go", base.AddDate(0, 0, -1), base.AddDate(0, 0, 11))
	if err != nil {
		t.Fatalf("HistoryForPath: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("got %d commits tracking through the rename, want 2 (the root creation commit has no parent to diff against)", len(hist))
	}
}

func TestContent_ReturnsPostImageText(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("adl.yaml", "key: value\n")
	c := tr.commit("adl", time.Now())

	r, err := Open(tr.dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	content, ok, err := r.Content(c, "adl.yaml")
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true for an existing text file")
	}
	if content != "key: value\n" {
		t.Fatalf("got %q", content)
	}
}

func TestContent_NotOKForMissingPath(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("present.txt", "hi\n")
	c := tr.commit("one file", time.Now())

	r, err := Open(tr.dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, ok, err := r.Content(c, "absent.txt")
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a path not present in the tree")
	}
}

func TestContent_NotOKForBinaryBlob(t *testing.T) {
	tr := newTestRepo(t)
	binary := []byte{0x00, 0x01, 0x02, 0x00, 0xff, 0x00}
	if err := os.WriteFile(filepath.Join(tr.dir, "blob.bin"), binary, 0o600); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	c := tr.commit("binary", time.Now())

	r, err := Open(tr.dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, ok, err := r.Content(c, "blob.bin")
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a binary blob")
	}
}
