package miner

import (
	"encoding/json"
	"os"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// checkpointState is the on-disk shape of a --watch checkpoint file: just
// enough to resume from the tip the previous run last saw.
type checkpointState struct {
	CommitHash string `json:"commit_hash"`
}

// loadCheckpoint reads the last-seen commit hash from path. A missing file is
// not an error — it just means this is the first run, so the caller falls
// back to processing the full history.
func loadCheckpoint(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	var state checkpointState
	if err := json.Unmarshal(data, &state); err != nil {
		return "", err
	}
	return state.CommitHash, nil
}

// saveCheckpoint records hash as the new last-seen commit at path.
func saveCheckpoint(path, hash string) error {
	data, err := json.Marshal(checkpointState{CommitHash: hash})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// commitsSinceCheckpoint returns the prefix of commits (already ordered
// newest-first by orderCommitsDeterministically) that are newer than the
// commit last recorded in the checkpoint. If lastHash is empty or is not
// found in commits (e.g. history was rewritten since the last run), the full
// slice is returned unfiltered so no commit is silently lost.
func commitsSinceCheckpoint(commits []*object.Commit, lastHash string) []*object.Commit {
	if lastHash == "" {
		return commits
	}
	for i, c := range commits {
		if c.Hash.String() == lastHash {
			return commits[:i]
		}
	}
	return commits
}
