// Package diffnorm turns a raw repogw.FilePatch into the record package's
// structured FileChange: status classification, hunk parsing, per-file stats,
// and UTF-8 validation.
package diffnorm

import (
	"bufio"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/inful/adl-diff-miner/internal/record"
	"github.com/inful/adl-diff-miner/internal/repogw"
)

// languageByExtension covers the extensions common enough in ADL-adjacent
// codebases to be worth a direct label; anything else is left null per the
// wire schema's "absent means null" rule rather than guessed at.
var languageByExtension = map[string]string{
	".py":   "Python",
	".go":   "Go",
	".js":   "JavaScript",
	".jsx":  "JavaScript",
	".ts":   "TypeScript",
	".tsx":  "TypeScript",
	".java": "Java",
	".rb":   "Ruby",
	".rs":   "Rust",
	".c":    "C",
	".h":    "C",
	".cc":   "C++",
	".cpp":  "C++",
	".hpp":  "C++",
	".cs":   "C#",
	".php":  "PHP",
	".yaml": "YAML",
	".yml":  "YAML",
	".json": "JSON",
	".md":   "Markdown",
	".sh":   "Shell",
}

// Normalize converts a gateway FilePatch into a FileChange. ok is false when
// the file must be dropped entirely (undecodable patch text); the caller is
// expected to surface a warning in that case. Binary files are returned with
// ok=true and empty hunks/stats — the Assembler decides whether an empty
// binary FileChange is enough to justify emitting a record.
func Normalize(fp repogw.FilePatch) (change record.FileChange, ok bool) {
	ext := extensionOf(fp.Path)

	change = record.FileChange{
		Path:         fp.Path,
		PreviousPath: fp.PreviousPath,
		Status:       statusOf(fp.Status),
		Extension:    ext,
		Language:     languageFor(ext),
	}

	if fp.IsBinary {
		change.Hunks = []record.Hunk{}
		change.Stats = record.Stats{}
		return change, true
	}

	if !validUTF8(fp.PatchText) {
		return record.FileChange{}, false
	}

	hunks := parseHunks(fp.PatchText)
	change.Hunks = hunks
	for _, h := range hunks {
		change.Stats.Additions += len(h.Added)
		change.Stats.Deletions += len(h.Removed)
	}
	return change, true
}

func statusOf(s repogw.ChangeStatus) record.FileStatus {
	switch s {
	case repogw.ChangeAdded:
		return record.StatusAdded
	case repogw.ChangeDeleted:
		return record.StatusDeleted
	case repogw.ChangeRenamed:
		return record.StatusRenamed
	default:
		return record.StatusModified
	}
}

// ExtensionOf returns the lowercase suffix (including the leading dot) of
// path, or "" if path has no extension. Exported so the Assembler can classify
// a FilePatch's channel before Normalize is invoked.
func ExtensionOf(path string) string {
	return extensionOf(path)
}

func extensionOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 || idx == len(path)-1 {
		return ""
	}
	slash := strings.LastIndexByte(path, '/')
	if idx < slash {
		return ""
	}
	return strings.ToLower(path[idx:])
}

func languageFor(ext string) *string {
	if name, ok := languageByExtension[ext]; ok {
		return &name
	}
	return nil
}

// validUTF8 reports whether s is strictly valid UTF-8, using the x/text
// unicode.UTF8 decoder. That decoder substitutes U+FFFD for invalid bytes
// instead of failing, so s is valid exactly when decoding leaves it unchanged.
func validUTF8(s string) bool {
	out, _, err := transform.String(unicode.UTF8.NewDecoder(), s)
	return err == nil && out == s
}

// parseHunks scans unified-diff text (as produced by the Repo Gateway,
// including the leading "diff --git"/"index"/"---"/"+++" header lines it
// does not belong to) into Hunk values, capturing each "@@ ... @@" header
// verbatim and classifying the following lines by their leading byte.
func parseHunks(patchText string) []record.Hunk {
	var hunks []record.Hunk
	var current *record.Hunk

	scanner := bufio.NewScanner(strings.NewReader(patchText))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "@@"):
			if current != nil {
				hunks = append(hunks, *current)
			}
			current = &record.Hunk{Header: line}
		case current == nil:
			continue // pre-hunk file header lines (diff/index/---/+++)
		case strings.HasPrefix(line, "\\"):
			continue // "\ No newline at end of file" marker
		case strings.HasPrefix(line, "+"):
			current.Added = append(current.Added, line)
		case strings.HasPrefix(line, "-"):
			current.Removed = append(current.Removed, line)
		default:
			current.Context = append(current.Context, line)
		}
	}
	if current != nil {
		hunks = append(hunks, *current)
	}
	return hunks
}
