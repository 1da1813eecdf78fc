// Package logfields provides canonical log field names and helpers for structured logging in the miner.
package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
// These are used for structured logging with slog.
const (
	KeyRunID      = "run_id"
	KeyCommit     = "commit"
	KeyParent     = "parent"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyRepo       = "repo"
	KeyError      = "error"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyExtension  = "extension"
	KeyReason     = "reason"
	KeyCount      = "count"
	KeySink       = "sink"
	KeyWindowDays = "window_days"
	KeyAuthor     = "author"
	KeyName       = "name"
)

func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }        // RunID returns a slog.Attr for the per-run correlation ID.
func Commit(hash string) slog.Attr    { return slog.String(KeyCommit, hash) }     // Commit returns a slog.Attr for a commit hash.
func Parent(hash string) slog.Attr    { return slog.String(KeyParent, hash) }     // Parent returns a slog.Attr for a parent commit hash.
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }      // Stage returns a slog.Attr for the pipeline stage.
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }  // DurationMS returns a slog.Attr for duration in ms.
func Repo(path string) slog.Attr      { return slog.String(KeyRepo, path) }       // Repo returns a slog.Attr for the repository path.

// Path returns a slog.Attr for a file path.
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }

// File returns a slog.Attr for a file name.
func File(f string) slog.Attr { return slog.String(KeyFile, f) }

// Extension returns a slog.Attr for a file extension.
func Extension(ext string) slog.Attr { return slog.String(KeyExtension, ext) }

// Reason returns a slog.Attr explaining why a commit or file was skipped.
func Reason(r string) slog.Attr { return slog.String(KeyReason, r) }

// Count returns a slog.Attr for a generic integer count.
func Count(n int) slog.Attr { return slog.Int(KeyCount, n) }

// Sink returns a slog.Attr describing the emitter's destination.
func Sink(s string) slog.Attr { return slog.String(KeySink, s) }

// WindowDays returns a slog.Attr for the context look-back window, in days.
func WindowDays(d int) slog.Attr { return slog.Int(KeyWindowDays, d) }

// Author returns a slog.Attr for an author email.
func Author(email string) slog.Attr { return slog.String(KeyAuthor, email) }

// Name returns a slog.Attr for a generic name field.
func Name(n string) slog.Attr { return slog.String(KeyName, n) }

// Error returns a slog.Attr for an error, or an empty string if nil.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
