// Package assembler orchestrates the per-commit work that turns a candidate
// commit into a Record: classifying a commit's patch into the ADL and code
// channels, normalizing each file, invoking the context miner, and composing
// the final wire value.
package assembler

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/inful/adl-diff-miner/internal/ctxminer"
	"github.com/inful/adl-diff-miner/internal/diffnorm"
	"github.com/inful/adl-diff-miner/internal/logfields"
	"github.com/inful/adl-diff-miner/internal/metrics"
	"github.com/inful/adl-diff-miner/internal/record"
	"github.com/inful/adl-diff-miner/internal/repogw"
)

// Config controls how commits are classified and how far back context
// analysis looks.
type Config struct {
	ADLPath     string
	CodeExts    map[string]bool // lowercase extensions including leading dot
	ContextDays int
}

// Assembler builds records one commit at a time.
type Assembler struct {
	repo    *repogw.Repo
	miner   *ctxminer.Miner
	cfg     Config
	metrics metrics.Recorder
	now     func() time.Time
}

// New builds an Assembler bound to an opened repository.
func New(repo *repogw.Repo, cfg Config, rec metrics.Recorder) *Assembler {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Assembler{
		repo:    repo,
		miner:   ctxminer.New(repo, rec),
		cfg:     cfg,
		metrics: rec,
		now:     time.Now,
	}
}

// Assemble builds the Record for commit c, or returns ok=false when c is
// skipped (root commit or the empty-diff rule).
func (a *Assembler) Assemble(c *object.Commit) (rec record.Record, ok bool, err error) {
	parent, err := repogw.FirstParent(c)
	if err != nil {
		return record.Record{}, false, err
	}
	if parent == nil {
		slog.Info("root commit skipped", logfields.Commit(c.Hash.String()))
		a.metrics.IncCommitsSkipped(metrics.ReasonRootCommit)
		return record.Record{}, false, nil
	}

	patchStart := a.now()
	patches, err := a.repo.Patch(parent, c)
	a.metrics.ObservePatchDuration(a.now().Sub(patchStart))
	if err != nil {
		return record.Record{}, false, err
	}

	adlCandidates, codeCandidates := a.classify(patches)

	adlChange, adlOK := a.normalizeADL(adlCandidates)
	if adlOK && adlChange.Status != record.StatusDeleted {
		a.warnIfADLNotYAML(c, adlChange.Path)
	}
	codeDiffs := a.normalizeCode(codeCandidates)

	if !adlOK {
		slog.Info("empty-diff commit skipped", logfields.Commit(c.Hash.String()))
		a.metrics.IncCommitsSkipped(metrics.ReasonEmptyDiff)
		return record.Record{}, false, nil
	}
	// Every emitted record's ADL diff must carry at least one hunk regardless
	// of how many code diffs accompany it; a binary-flagged (or otherwise
	// hunkless) ADL patch is treated the same as no ADL change at all.
	if len(adlChange.Hunks) == 0 {
		slog.Info("binary or hunkless ADL diff; commit skipped", logfields.Commit(c.Hash.String()), logfields.Path(adlChange.Path))
		a.metrics.IncCommitsSkipped(metrics.ReasonBinaryADL)
		return record.Record{}, false, nil
	}
	if adlChange.Stats == (record.Stats{}) && len(codeDiffs) == 0 {
		slog.Info("empty-diff commit skipped", logfields.Commit(c.Hash.String()))
		a.metrics.IncCommitsSkipped(metrics.ReasonEmptyDiff)
		return record.Record{}, false, nil
	}

	filesAnalyzed := dedupPaths(codeDiffs)
	a.metrics.IncContextMinerPaths(len(filesAnalyzed))

	ctxStart := a.now()
	signals := a.miner.Analyze(parent, filesAnalyzed, a.cfg.ContextDays)
	a.metrics.ObserveContextAnalysisDuration(a.now().Sub(ctxStart))

	rec = record.Record{
		Commit:         repogw.CommitRef(c),
		Intent:         record.Intent{Message: c.Message, Source: record.SourceCommitMessage},
		ADLDiff:        adlChange,
		CodeDiffs:      codeDiffs,
		ContextSignals: signals,
		Metadata:       record.NewMetadata(a.now()),
	}
	return rec, true, nil
}

// ADLMatcher decides whether a file path refers to the ADL artifact. The only
// implementation today is exactADLMatcher (exact, case-insensitive, full-path
// match); glob support is a roadmap item, so the classify/Assembler surface
// is kept behind this interface rather than hard-coding string comparison,
// without actually building glob matching.
type ADLMatcher interface {
	Matches(path string) bool
}

type exactADLMatcher string

func (m exactADLMatcher) Matches(path string) bool {
	return strings.EqualFold(path, string(m))
}

// classify routes a commit's raw file patches into the ADL and code channels
// per the configured ADL path (case-insensitive full-path match, checked
// against both pre- and post-image paths) and code-extension set.
func (a *Assembler) classify(patches []repogw.FilePatch) (adl, code []repogw.FilePatch) {
	matcher := exactADLMatcher(a.cfg.ADLPath)
	for _, p := range patches {
		if matcher.Matches(p.Path) || (p.PreviousPath != "" && matcher.Matches(p.PreviousPath)) {
			adl = append(adl, p)
			continue
		}
		ext := diffnorm.ExtensionOf(p.Path)
		if ext != "" && a.cfg.CodeExts[ext] {
			code = append(code, p)
		}
	}
	return adl, code
}

// normalizeADL picks the single ADL FileChange for the record. If more than
// one patch matched the ADL path (possible only with case-only path
// variations), the first by path ascending wins and a warning is surfaced.
func (a *Assembler) normalizeADL(candidates []repogw.FilePatch) (record.FileChange, bool) {
	if len(candidates) == 0 {
		return record.FileChange{}, false
	}
	if len(candidates) > 1 {
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].Path < candidates[j].Path })
		slog.Warn("multiple ADL-path matches in one commit; using first by path",
			logfields.Count(len(candidates)), logfields.Path(candidates[0].Path))
	}

	change, ok := diffnorm.Normalize(candidates[0])
	if !ok {
		slog.Warn("ADL patch undecodable; record skipped", logfields.Path(candidates[0].Path))
		a.metrics.IncFilesSkipped(metrics.ReasonUndecodable)
		return record.FileChange{}, false
	}
	if !change.HasContent() && len(change.Hunks) == 0 {
		slog.Warn("ADL diff carries no content", logfields.Path(candidates[0].Path))
	}
	return change, true
}

// warnIfADLNotYAML sniffs the ADL file's post-image content at c and logs a
// warning if it no longer round-trips as YAML. This is purely observational;
// it never affects whether the record is emitted.
func (a *Assembler) warnIfADLNotYAML(c *object.Commit, path string) {
	content, ok, err := a.repo.Content(c, path)
	if err != nil || !ok {
		return
	}
	if !diffnorm.LooksLikeValidYAML(content) {
		slog.Warn("ADL file post-image no longer parses as YAML", logfields.Commit(c.Hash.String()), logfields.Path(path))
	}
}

func (a *Assembler) normalizeCode(candidates []repogw.FilePatch) []record.FileChange {
	var out []record.FileChange
	for _, c := range candidates {
		change, ok := diffnorm.Normalize(c)
		if !ok {
			slog.Warn("code patch undecodable; file dropped", logfields.Path(c.Path))
			a.metrics.IncFilesSkipped(metrics.ReasonUndecodable)
			continue
		}
		out = append(out, change)
	}
	return out
}

// dedupPaths returns the in-order, deduplicated post-image paths of diffs,
// preserving first occurrence.
func dedupPaths(diffs []record.FileChange) []string {
	seen := make(map[string]bool, len(diffs))
	out := make([]string, 0, len(diffs))
	for _, d := range diffs {
		if seen[d.Path] {
			continue
		}
		seen[d.Path] = true
		out = append(out, d.Path)
	}
	return out
}
