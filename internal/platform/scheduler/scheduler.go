// Package scheduler runs wall-clock aligned jobs on robfig/cron.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// EveryMinute fires at second 0 of every minute.
const EveryMinute = "0 * * * * *"

// DefaultJobTimeout bounds one job run so it ends before the next tick.
const DefaultJobTimeout = 55 * time.Second

// Scheduler starts one cron instance per Run call.
// Overlapping runs of the same job are skipped and panics are recovered.
type Scheduler struct {
	jobTimeout time.Duration
	logger     cron.Logger
}

// New returns a Scheduler. A non-positive jobTimeout means DefaultJobTimeout.
func New(jobTimeout time.Duration) *Scheduler {
	if jobTimeout <= 0 {
		jobTimeout = DefaultJobTimeout
	}
	return &Scheduler{jobTimeout: jobTimeout, logger: NewSlogLogger(slog.Default())}
}

// RunEveryMinute runs fn at every minute boundary until ctx ends.
func (s *Scheduler) RunEveryMinute(ctx context.Context, name string, fn func(ctx context.Context)) error {
	return s.Run(ctx, name, EveryMinute, fn)
}

// Run runs fn on a six-field cron spec until ctx ends, then waits for a running job to return.
func (s *Scheduler) Run(ctx context.Context, name, spec string, fn func(ctx context.Context)) error {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(s.logger),
		cron.WithChain(cron.Recover(s.logger), cron.SkipIfStillRunning(s.logger)),
	)
	if _, err := c.AddFunc(spec, func() {
		jctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
		fn(jctx)
	}); err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}

	c.Start()
	slog.Info("scheduler started", "job", name, "spec", spec)
	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("scheduler stopped", "job", name)
	return nil
}

// slogLogger routes cron.Logger output to slog.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger adapts l to cron.Logger. cron's info messages (wake, run, skip) are logged at debug level.
func NewSlogLogger(l *slog.Logger) cron.Logger {
	return slogLogger{l: l.With("component", "cron")}
}

func (s slogLogger) Info(msg string, keysAndValues ...any) {
	s.l.Debug(msg, keysAndValues...)
}

func (s slogLogger) Error(err error, msg string, keysAndValues ...any) {
	s.l.Error(msg, append(keysAndValues, "error", err)...)
}
