// Package scheduler triggers runs on a cron spec.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go-jobscout/internal/runner"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled run.
type Job func(ctx context.Context) error

// Scheduler wraps robfig/cron. Ticks that arrive while a run is still going are skipped.
type Scheduler struct {
	cron *cron.Cron
	spec string
	job  cron.Job
	run  Job
	ctx  context.Context
	log  *slog.Logger
}

// New validates spec (standard five-field syntax or descriptors such as "@every 6h").
func New(spec string, run Job, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "scheduler")
	cronLog := cron.PrintfLogger(slog.NewLogLogger(log.Handler(), slog.LevelDebug))

	s := &Scheduler{
		cron: cron.New(cron.WithLogger(cronLog)),
		spec: spec,
		run:  run,
		log:  log,
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.job = cron.NewChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)).Then(cron.FuncJob(s.tick))
	return s, nil
}

// Start registers the job and starts the cron loop. ctx is handed to every run; cancelling
// it aborts an in-flight run but does not stop the loop, use Stop for that.
func (s *Scheduler) Start(ctx context.Context, runNow bool) error {
	s.ctx = ctx
	if _, err := s.cron.AddJob(s.spec, s.job); err != nil {
		return fmt.Errorf("cron.AddJob: %w", err)
	}
	s.cron.Start()
	s.log.Info("⏰ scheduler started", "spec", s.spec)
	if runNow {
		go s.job.Run()
	}
	return nil
}

// Stop halts the loop and waits up to timeout for a running job to return.
func (s *Scheduler) Stop(timeout time.Duration) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(timeout):
		s.log.Warn("⚠️ scheduled run still going at shutdown")
	}
	s.log.Info("⏰ scheduler stopped")
}

// Next returns the next activation time, zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) tick() {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}
	s.log.Info("⏰ scheduled run starting")
	start := time.Now()
	err := s.run(ctx)
	switch {
	case errors.Is(err, runner.ErrRunInProgress):
		s.log.Info("⏭️ run already in progress, tick skipped")
	case err != nil:
		s.log.Error("❌ scheduled run failed", "error", err, "took", time.Since(start))
	default:
		s.log.Info("✅ scheduled run finished", "took", time.Since(start), "next", s.Next())
	}
}
