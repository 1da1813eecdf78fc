// Package ctxminer derives history-anchored churn, authorship, and recency
// signals for a set of code paths, scoped to a fixed look-back window ending
// at a given ancestor commit.
package ctxminer

import (
	"log/slog"
	"sort"
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/inful/adl-diff-miner/internal/logfields"
	"github.com/inful/adl-diff-miner/internal/metrics"
	"github.com/inful/adl-diff-miner/internal/record"
	"github.com/inful/adl-diff-miner/internal/repogw"
	"github.com/inful/adl-diff-miner/internal/util/sets"
)

const topAuthorsCap = 5

// Miner computes ContextSignals for a commit's co-changed code paths.
type Miner struct {
	repo    *repogw.Repo
	metrics metrics.Recorder
}

// New builds a Miner bound to an opened repository. A nil recorder is
// replaced with a no-op one so call sites never need a nil check.
func New(repo *repogw.Repo, rec metrics.Recorder) *Miner {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Miner{repo: repo, metrics: rec}
}

// Analyze derives ContextSignals for paths, anchored at parent, over a
// windowDays look-back. A path whose history walk fails is zero-filled and a
// warning is logged; the remaining paths and the overall call still succeed.
func (m *Miner) Analyze(parent *object.Commit, paths []string, windowDays int) record.ContextSignals {
	until := parent.Committer.When
	since := until.AddDate(0, 0, -windowDays)

	perFile := make([]record.PerFileStat, 0, len(paths))
	totalCommits := 0
	allAuthors := sets.New[string]()
	mostRecent := -1.0

	for _, p := range paths {
		stat, authors := m.analyzePath(parent, p, since, until)
		perFile = append(perFile, stat)
		totalCommits += stat.ChurnCount
		for a := range authors {
			allAuthors.Add(a)
		}
		if stat.ChurnCount > 0 && (mostRecent < 0 || stat.LastModifiedDaysAgo < mostRecent) {
			mostRecent = stat.LastModifiedDaysAgo
		}
	}

	if mostRecent < 0 {
		mostRecent = 0
	}

	return record.ContextSignals{
		AnalysisParentHash:   parent.Hash.String(),
		AnalysisTimespanDays: windowDays,
		FilesAnalyzed:        append([]string{}, paths...),
		PerFileStats:         perFile,
		AggregateStats: record.AggregateStats{
			TotalCommits:            totalCommits,
			TotalUniqueAuthors:      len(allAuthors),
			MostRecentChangeDaysAgo: mostRecent,
		},
	}
}

func (m *Miner) analyzePath(parent *object.Commit, path string, since, until time.Time) (record.PerFileStat, sets.Set[string]) {
	history, err := m.repo.HistoryForPath(parent, path, since, until)
	if err != nil {
		slog.Warn("context analysis failed for path; zero-filling", logfields.Path(path), logfields.Error(err))
		m.metrics.IncFilesSkipped(metrics.ReasonContextFailed)
		return record.PerFileStat{Path: path}, nil
	}

	if len(history) == 0 {
		return record.PerFileStat{Path: path}, nil
	}

	counts := make(map[string]int)
	var latest time.Time
	for i, c := range history {
		counts[c.Author.Email]++
		t := time.Time(c.CommittedAt)
		if i == 0 || t.After(latest) {
			latest = t
		}
	}

	daysAgo := until.Sub(latest).Seconds() / 86400
	if daysAgo < 0 {
		daysAgo = 0
	}

	authors := sets.New[string]()
	for a := range counts {
		authors.Add(a)
	}

	return record.PerFileStat{
		Path:                path,
		ChurnCount:          len(history),
		UniqueAuthors:       len(counts),
		LastModifiedDaysAgo: daysAgo,
		TopAuthors:          topAuthors(counts),
	}, authors
}

func topAuthors(counts map[string]int) []string {
	type kv struct {
		email string
		n     int
	}
	kvs := make([]kv, 0, len(counts))
	for e, n := range counts {
		kvs = append(kvs, kv{e, n})
	}
	sort.Slice(kvs, func(i, j int) bool {
		if kvs[i].n != kvs[j].n {
			return kvs[i].n > kvs[j].n
		}
		return kvs[i].email < kvs[j].email
	})
	if len(kvs) > topAuthorsCap {
		kvs = kvs[:topAuthorsCap]
	}
	out := make([]string, len(kvs))
	for i, k := range kvs {
		out[i] = k.email
	}
	return out
}
