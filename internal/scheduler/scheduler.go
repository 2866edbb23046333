package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/amishk599/jobradar/internal/pipeline"
)

// Runner performs one aggregation pass.
type Runner interface {
	Run(ctx context.Context) (pipeline.Report, error)
}

// Scheduler owns the main loop: one immediate run, then one run per cron tick.
// Ticks that arrive while a run is still going are skipped.
type Scheduler struct {
	runner Runner
	spec   string
	logger *slog.Logger
}

// SpecFromInterval turns a polling interval into a cron "@every" spec.
func SpecFromInterval(d time.Duration) string {
	return "@every " + d.String()
}

// NewScheduler creates a scheduler for the given cron spec, e.g. "@every 6h"
// or "0 9 * * 1-5".
func NewScheduler(runner Runner, spec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		spec:   spec,
		logger: logger,
	}
}

// Run blocks until ctx is cancelled and then waits for an in-flight run to
// finish. It returns an error only for an invalid spec.
func (s *Scheduler) Run(ctx context.Context) error {
	schedule, err := cron.ParseStandard(s.spec)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}

	cl := cronLogger{s.logger}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	c.Schedule(schedule, cron.FuncJob(func() { s.runOnce(ctx) }))

	s.logger.Info("starting scheduler",
		"schedule", s.spec,
		"next_run", schedule.Next(time.Now()).Format(time.RFC3339),
	)

	s.runOnce(ctx)
	c.Start()

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.runner.Run(ctx); err != nil {
		s.logger.Error("run failed", "error", err)
	}
}

// cronLogger routes robfig/cron's logging into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
