package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/inful/adl-diff-miner/internal/assembler"
	"github.com/inful/adl-diff-miner/internal/config"
	"github.com/inful/adl-diff-miner/internal/emit"
	apperrors "github.com/inful/adl-diff-miner/internal/foundation/errors"
	"github.com/inful/adl-diff-miner/internal/logfields"
	"github.com/inful/adl-diff-miner/internal/metrics"
	"github.com/inful/adl-diff-miner/internal/miner"
	"github.com/inful/adl-diff-miner/internal/repogw"
	"github.com/inful/adl-diff-miner/internal/schedule"
	"github.com/inful/adl-diff-miner/internal/watch"
)

// Set at build time with: -ldflags "-X main.version=1.0.0-rc1"
var version = "dev"

// CLI is the root flag set. adlminer has a single action (mine the
// configured repository), so there is no subcommand tree to select: Run
// below is invoked directly against the root.
type CLI struct {
	Repo        string           `help:"Path to a Git working directory (or set REPO_PATH)." name:"repo"`
	ADLFile     string           `help:"ADL file path, matched case-insensitively." name:"adl-file" default:"adl.yaml"`
	CodeExts    []string         `help:"Code file extensions to mine as co-changes (repeatable or space-separated)." name:"code-exts" sep:" " default:".py"`
	Output      string           `help:"Output file path (default: stream NDJSON to stdout)." name:"output"`
	ContextDays *int             `help:"Look-back window, in days, for context signals (default 90)." name:"context-days"`
	Verbose     bool             `short:"v" help:"Enable debug-level logging."`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit."`

	Watch         bool          `help:"Re-mine on a schedule and on HEAD changes instead of exiting after one pass." name:"watch"`
	WatchInterval time.Duration `help:"Interval between scheduled re-mines in --watch mode." name:"watch-interval" default:"5m"`

	MetricsAddr string `help:"Address to serve Prometheus metrics on (e.g. :9090); disabled when empty." name:"metrics-addr"`

	NATSURL     string `help:"NATS server URL for the optional fan-out sink; disabled when empty." name:"nats-url"`
	NATSSubject string `help:"NATS subject to publish records to." name:"nats-subject" default:"adlminer.records"`
}

// AfterApply sets up logging before Run executes, mirroring the teacher's
// single logging-setup-point convention.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// Run resolves configuration, opens the repository, wires the mining
// pipeline, and executes one pass (or enters --watch mode).
func (c *CLI) Run() error {
	config.LoadDotEnv(".env")

	cfg, err := config.Resolve(config.Flags{
		Repo:        c.Repo,
		ADLFile:     c.ADLFile,
		CodeExts:    c.CodeExts,
		Output:      c.Output,
		ContextDays: c.ContextDays,
	})
	if err != nil {
		return err
	}

	repo, err := repogw.Open(cfg.RepoPath)
	if err != nil {
		return err
	}

	recorder, closeMetrics := setupMetrics(c.MetricsAddr)
	defer closeMetrics()

	asm := assembler.New(repo, assembler.Config{
		ADLPath:     cfg.ADLPath,
		CodeExts:    cfg.CodeExtSet(),
		ContextDays: cfg.ContextDays,
	}, recorder)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Checkpointing only applies in --watch mode: a one-shot run always mines
	// the full history, matching the base single-invocation record semantics.
	var checkpointPath string
	if c.Watch {
		checkpointPath = filepath.Join(cfg.RepoPath, ".git", "adlminer-watch-checkpoint.json")
	}

	runOnce := func(ctx context.Context) error {
		sink, err := openSink(cfg.Output, c.NATSURL, c.NATSSubject)
		if err != nil {
			return err
		}
		driver := miner.New(repo, asm, sink, recorder, checkpointPath)
		return driver.Run(ctx)
	}

	if !c.Watch {
		return runOnce(ctx)
	}
	return runWatch(ctx, cfg.RepoPath, c.WatchInterval, runOnce)
}

// runWatch mines once immediately, then continues on a schedule and on
// HEAD changes until ctx is cancelled.
func runWatch(ctx context.Context, repoPath string, interval time.Duration, runOnce func(context.Context) error) error {
	if err := runOnce(ctx); err != nil {
		slog.Error("initial mining pass failed", logfields.Error(err))
	}

	sched, err := schedule.New(ctx, interval, runOnce)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	headWatcher, err := watch.New(repoPath, runOnce)
	if err != nil {
		return err
	}
	if err := headWatcher.Start(ctx); err != nil {
		return err
	}
	defer headWatcher.Stop()

	<-ctx.Done()
	return nil
}

func openSink(outputPath, natsURL, natsSubject string) (emit.Sink, error) {
	var primary emit.Sink
	var err error
	if outputPath == "" {
		primary = emit.StdoutSink()
	} else {
		primary, err = emit.OpenFileSink(outputPath)
		if err != nil {
			return nil, err
		}
	}

	if natsURL == "" {
		return primary, nil
	}
	return emit.NewMultiSink(primary, emit.NewNATSSink(natsURL, natsSubject)), nil
}

func setupMetrics(addr string) (metrics.Recorder, func()) {
	if addr == "" {
		return metrics.NoopRecorder{}, func() {}
	}

	reg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)

	srv := &http.Server{Addr: addr, Handler: metrics.HTTPHandler(reg)}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", logfields.Error(err))
		}
	}()

	return recorder, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

func main() {
	cli := &CLI{}
	parser := kong.Parse(cli,
		kong.Description("adlminer mines a Git repository's history for ADL-anchored training records."),
		kong.Vars{"version": version},
	)

	logger := slog.Default()
	errorAdapter := apperrors.NewCLIErrorAdapter(cli.Verbose, logger)

	if err := parser.Run(); err != nil {
		errorAdapter.HandleError(err)
	}
}
