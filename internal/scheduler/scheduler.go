// Package scheduler runs periodic background jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ZertGraf/cresp/internal/pkg/logger"
)

// JobFunc is one run of a job. The context is cancelled on shutdown or when
// the job's timeout elapses.
type JobFunc func(ctx context.Context) error

type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	logger *logger.Logger
}

func New(log *logger.Logger) *Scheduler {
	log = log.Component("scheduler")
	cl := log.Cron()

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ctx:    ctx,
		cancel: cancel,
		logger: log,
	}
}

// Add registers fn under a cron schedule, e.g. "@every 1h" or "0 3 * * *". A run that
// is still going when the next one is due is skipped.
func (s *Scheduler) Add(name, schedule string, timeout time.Duration, fn JobFunc) error {
	log := s.logger.With("job", name)

	_, err := s.cron.AddFunc(schedule, func() {
		ctx := s.ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		start := time.Now()
		if err := fn(ctx); err != nil {
			log.Error("job failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
			return
		}
		log.Debug("job finished", "duration_ms", time.Since(start).Milliseconds())
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}

	log.Info("job scheduled", "schedule", schedule)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop prevents new runs and waits for running ones. If ctx expires first
// the running jobs are cancelled and Stop returns ctx's error.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()

	select {
	case <-done.Done():
		s.cancel()
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done.Done()
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}
