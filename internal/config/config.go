// Package config resolves the miner's CLI flags against their environment
// fallbacks and validates the result, following the teacher's env-var
// resolution idiom (existing process environment always wins; a .env file
// only fills gaps) but trimmed to this domain's three variables.
package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/inful/adl-diff-miner/internal/foundation/errors"
)

const (
	envRepoPath  = "REPO_PATH"
	envADLPath   = "ADL_FILE_PATH"
	envOutput    = "TRAINING_DATASET_PATH"
	defaultADL   = "adl.yaml"
	defaultCtxD  = 90
	minCtxDays   = 1
)

// Config is the fully-resolved, validated set of inputs the Driver needs.
type Config struct {
	RepoPath    string
	ADLPath     string
	CodeExts    []string
	Output      string // empty means stdout
	ContextDays int
}

// Flags mirrors the raw CLI flag values before environment fallback and
// validation are applied. ContextDays is a pointer because kong leaves it nil
// when the user never passes --context-days, the only way to tell that case
// apart from an explicit --context-days 0 (both would otherwise read as the
// Go zero value and --context-days 0 must be rejected, not defaulted away).
type Flags struct {
	Repo        string
	ADLFile     string
	CodeExts    []string
	Output      string
	ContextDays *int
}

// LoadDotEnv preloads a .env file, if present, into the process environment.
// It never overrides a variable the process environment already sets, and a
// missing file is not an error — .env support is opportunistic.
func LoadDotEnv(path string) {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		slog.Warn("failed to load .env file", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// Resolve applies environment fallbacks to f and validates the result.
// Fallback precedence: explicit flag value wins; otherwise the matching
// environment variable; otherwise the built-in default.
func Resolve(f Flags) (Config, error) {
	cfg := Config{
		RepoPath:    firstNonEmpty(f.Repo, os.Getenv(envRepoPath)),
		ADLPath:     firstNonEmpty(f.ADLFile, os.Getenv(envADLPath), defaultADL),
		CodeExts:    f.CodeExts,
		Output:      firstNonEmpty(f.Output, os.Getenv(envOutput)),
		ContextDays: defaultCtxD,
	}
	if f.ContextDays != nil {
		cfg.ContextDays = *f.ContextDays
	}
	if len(cfg.CodeExts) == 0 {
		cfg.CodeExts = []string{".py"}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.RepoPath == "" {
		return errors.ValidationError("--repo is required (or set REPO_PATH)").Build()
	}
	if c.ContextDays < minCtxDays {
		return errors.ValidationError("--context-days must be >= 1").
			WithContext("context_days", c.ContextDays).
			Build()
	}
	for _, ext := range c.CodeExts {
		if !strings.HasPrefix(ext, ".") {
			return errors.ValidationError("--code-exts entries must start with a leading dot").
				WithContext("extension", ext).
				Build()
		}
	}
	return nil
}

// CodeExtSet returns the configured code extensions as a lowercase lookup
// set, the form the Assembler consumes.
func (c Config) CodeExtSet() map[string]bool {
	set := make(map[string]bool, len(c.CodeExts))
	for _, ext := range c.CodeExts {
		set[strings.ToLower(ext)] = true
	}
	return set
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
