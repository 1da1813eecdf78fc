// Package schedule runs the mining loop repeatedly on a fixed interval for
// --watch-interval, the way the teacher's daemon would schedule a recurring
// build tick, but delegated to a real cron library instead of the teacher's
// hand-rolled scheduler.
package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/inful/adl-diff-miner/internal/logfields"
)

// RunFunc performs one mining pass. A non-nil error is logged but does not
// stop the schedule; only ctx cancellation or Scheduler.Stop does.
type RunFunc func(ctx context.Context) error

// Scheduler drives RunFunc on a fixed interval until stopped.
type Scheduler struct {
	sched gocron.Scheduler
}

// New builds a Scheduler that invokes run every interval, starting after the
// first interval elapses (the initial pass is the caller's responsibility,
// matching --watch's "mine once immediately, then on schedule" semantics).
func New(ctx context.Context, interval time.Duration, run RunFunc) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := run(ctx); err != nil {
				slog.Error("scheduled mining pass failed", logfields.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	return &Scheduler{sched: sched}, nil
}

// Start begins executing jobs; it returns immediately, scheduling runs on
// gocron's own goroutine.
func (s *Scheduler) Start() {
	s.sched.Start()
}

// Stop shuts the scheduler down, waiting for any in-flight run to finish.
func (s *Scheduler) Stop() error {
	return s.sched.Shutdown()
}
