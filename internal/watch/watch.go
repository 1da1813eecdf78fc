// Package watch triggers an immediate re-mine in --watch mode whenever the
// .git/HEAD or .git/packed-refs file changes (a branch switch, a detached HEAD
// move, or a ref repack), debounced the way the teacher's config watcher
// debounces rapid file-system events before reacting. A commit that only
// advances a loose branch ref under .git/refs does not touch either file and
// does not trigger a re-mine.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/inful/adl-diff-miner/internal/logfields"

	"log/slog"
)

// TriggerFunc performs one mining pass in response to a HEAD change.
type TriggerFunc func(ctx context.Context) error

// HeadWatcher watches a repository's .git/HEAD (and packed-refs, which a
// `git gc` or `git pack-refs` can rewrite in place of a loose ref update)
// for changes and debounces bursts of events into a single trigger call.
type HeadWatcher struct {
	gitDir       string
	trigger      TriggerFunc
	watcher      *fsnotify.Watcher
	debounceTime time.Duration

	mu       sync.Mutex
	stopChan chan struct{}
}

// New builds a HeadWatcher for the repository rooted at repoPath (the
// directory containing .git, not .git itself).
func New(repoPath string, trigger TriggerFunc) (*HeadWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	gitDir := filepath.Join(repoPath, ".git")
	return &HeadWatcher{
		gitDir:       gitDir,
		trigger:      trigger,
		watcher:      w,
		debounceTime: 2 * time.Second,
		stopChan:     make(chan struct{}),
	}, nil
}

// Start begins watching. Watching the .git directory itself (rather than
// HEAD individually) survives HEAD being replaced wholesale, which is how
// Git actually updates it on most platforms.
func (w *HeadWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.gitDir); err != nil {
		return err
	}
	go w.watchLoop(ctx)
	return nil
}

// Stop closes the underlying filesystem watcher.
func (w *HeadWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.stopChan:
	default:
		close(w.stopChan)
	}
	return w.watcher.Close()
}

func (w *HeadWatcher) watchLoop(ctx context.Context) {
	var timer *time.Timer
	pending := make(chan struct{}, 1)

	fire := func() {
		select {
		case pending <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.stopChan:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			base := filepath.Base(event.Name)
			if base != "HEAD" && base != "packed-refs" {
				continue
			}
			fire()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("HEAD watcher error", logfields.Error(err))

		case <-pending:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounceTime, func() {
				if err := w.trigger(ctx); err != nil {
					slog.Error("watch-triggered mining pass failed", logfields.Error(err))
				}
			})
		}
	}
}
