// Package record defines the wire schema emitted by the miner: one self-contained
// JSON object per historical commit that touches the configured ADL file, combining
// commit identity, author intent, the ADL diff, co-changed code diffs, and
// history-derived context signals. See dataset_version for the schema version pinned
// by this package.
package record

import "time"

// SchemaVersion is the dataset_version stamped into every emitted record's metadata.
const SchemaVersion = "adl-diff-miner-schema-v2.0"

// Timestamp formats a time.Time as RFC 3339 in UTC with integer-second precision
// and a trailing Z, per the wire schema's timestamp contract.
type Timestamp time.Time

// MarshalJSON renders the timestamp as a fixed-width RFC 3339 UTC string.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	s := time.Time(t).UTC().Format("2006-01-02T15:04:05Z")
	return []byte(`"` + s + `"`), nil
}

// Person identifies a commit's author or committer.
type Person struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CommitRef identifies one commit.
type CommitRef struct {
	Hash        string    `json:"hash"`
	ParentHash  string    `json:"parent_hash"`
	AuthoredAt  Timestamp `json:"authored_at"`
	CommittedAt Timestamp `json:"committed_at"`
	Author      Person    `json:"author"`
	Committer   Person    `json:"committer"`
	IsMerge     bool      `json:"is_merge"`
	Message     string    `json:"message"`
}

// FileStatus enumerates the disposition of one file within a patch.
type FileStatus string

const (
	StatusAdded    FileStatus = "added"
	StatusModified FileStatus = "modified"
	StatusDeleted  FileStatus = "deleted"
	StatusRenamed  FileStatus = "renamed"
)

// Hunk is a contiguous region of a unified patch.
type Hunk struct {
	Header  string   `json:"header"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Context []string `json:"context"`
}

// Stats holds per-file or aggregate add/delete line counts.
type Stats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// FileChange is one file within a patch, normalized into the record's structured form.
type FileChange struct {
	Path         string     `json:"path"`
	PreviousPath string     `json:"previous_path,omitempty"`
	Status       FileStatus `json:"status"`
	Extension    string     `json:"extension"`
	Language     *string    `json:"language"`
	Hunks        []Hunk     `json:"hunks"`
	Stats        Stats      `json:"stats"`
}

// IntentSource tags where the intent text came from. Only commit_message exists in
// v1; pr_body and issue_thread are reserved for future schema versions.
type IntentSource struct {
	Type string `json:"type"`
}

// SourceCommitMessage is the only IntentSource variant emitted by v1.
var SourceCommitMessage = IntentSource{Type: "commit_message"}

// Intent is the human-authored statement of why a change was made.
type Intent struct {
	Message string       `json:"message"`
	Source  IntentSource `json:"source"`
}

// PerFileStat summarizes one code file's churn history as of the analysis anchor.
type PerFileStat struct {
	Path                string   `json:"path"`
	ChurnCount          int      `json:"churn_count"`
	UniqueAuthors       int      `json:"unique_authors"`
	LastModifiedDaysAgo float64  `json:"last_modified_days_ago"`
	TopAuthors          []string `json:"top_authors,omitempty"`
}

// AggregateStats summarizes churn across all analyzed files.
type AggregateStats struct {
	TotalCommits           int     `json:"total_commits"`
	TotalUniqueAuthors     int     `json:"total_unique_authors"`
	MostRecentChangeDaysAgo float64 `json:"most_recent_change_days_ago"`
}

// ContextSignals carries history-derived churn/authorship/recency statistics,
// anchored at the commit's first parent, over a fixed look-back window.
type ContextSignals struct {
	AnalysisParentHash   string         `json:"analysis_parent_hash"`
	AnalysisTimespanDays int            `json:"analysis_timespan_days"`
	FilesAnalyzed        []string       `json:"files_analyzed"`
	PerFileStats         []PerFileStat  `json:"per_file_stats"`
	AggregateStats       AggregateStats `json:"aggregate_stats"`
}

// Metadata stamps schema and emission provenance onto every record.
type Metadata struct {
	DatasetVersion string    `json:"dataset_version"`
	GeneratedAt    Timestamp `json:"generated_at"`
}

// Record is one self-contained training example.
type Record struct {
	Commit         CommitRef      `json:"commit"`
	Intent         Intent         `json:"intent"`
	ADLDiff        FileChange     `json:"adl_diff"`
	CodeDiffs      []FileChange   `json:"code_diffs"`
	ContextSignals ContextSignals `json:"context_signals"`
	Metadata       Metadata       `json:"metadata"`
}

// NewMetadata stamps the current dataset version and a generation timestamp.
func NewMetadata(generatedAt time.Time) Metadata {
	return Metadata{DatasetVersion: SchemaVersion, GeneratedAt: Timestamp(generatedAt)}
}

// TotalLines returns the sum of added and removed lines across a FileChange's hunks.
func (f FileChange) TotalLines() (added, removed int) {
	for _, h := range f.Hunks {
		added += len(h.Added)
		removed += len(h.Removed)
	}
	return added, removed
}

// HasContent reports whether the FileChange carries at least one hunk with a
// non-empty added or removed line, per the "exactly one ADL FileChange... at
// least one of (added, removed) non-empty" invariant.
func (f FileChange) HasContent() bool {
	if len(f.Hunks) == 0 {
		return false
	}
	added, removed := f.TotalLines()
	return added > 0 || removed > 0
}
