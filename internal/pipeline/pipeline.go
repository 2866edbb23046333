// Package pipeline runs one aggregation pass:
// collect → dedup → filter → notify → archive.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobradar/internal/collector"
	"github.com/amishk599/jobradar/internal/dedup"
	"github.com/amishk599/jobradar/internal/model"
)

// Collector gathers postings from every source.
type Collector interface {
	Collect(ctx context.Context) (collector.Result, error)
}

// Filter returns the accepted subset of jobs, keeping order.
type Filter interface {
	FilterJobs(jobs []model.Job) []model.Job
}

// Report summarises one run.
type Report struct {
	RunID         string
	Fetched       int
	Unique        int
	Matched       int
	FailedSources int
	Notified      bool
	Archived      bool
	Duration      time.Duration
	Matches       []model.Job
}

// Pipeline owns the full run for all sources. It keeps no state between
// runs.
type Pipeline struct {
	collector Collector
	filter    Filter
	notifier  model.Notifier
	archive   model.Notifier
	logger    *slog.Logger
	newRunID  func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithArchive adds a write-only sink that receives matches after notification.
func WithArchive(a model.Notifier) Option {
	return func(p *Pipeline) { p.archive = a }
}

// New creates a pipeline wired with all its dependencies.
func New(c Collector, f Filter, n model.Notifier, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		collector: c,
		filter:    f,
		notifier:  n,
		logger:    logger,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run performs one pass. Notification happens only when something matched.
// Archive failures are logged and do not fail the run.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	rep := Report{RunID: p.newRunID()}
	ctx = model.WithRunID(ctx, rep.RunID)
	logger := p.logger.With("run_id", rep.RunID)

	res, err := p.collector.Collect(ctx)
	rep.Fetched = len(res.Jobs)
	rep.FailedSources = res.Failed()
	if err != nil {
		rep.Duration = time.Since(start)
		return rep, fmt.Errorf("run %s: collecting: %w", rep.RunID, err)
	}

	unique := dedup.Deduplicate(res.Jobs)
	rep.Unique = len(unique)

	matched := p.filter.FilterJobs(unique)
	rep.Matched = len(matched)
	rep.Matches = matched

	if len(matched) == 0 {
		rep.Duration = time.Since(start)
		logger.Info("no matches",
			"fetched", rep.Fetched,
			"unique", rep.Unique,
			"failed_sources", rep.FailedSources,
		)
		return rep, nil
	}

	if err := p.notifier.Notify(ctx, matched); err != nil {
		rep.Duration = time.Since(start)
		return rep, fmt.Errorf("run %s: notifying: %w", rep.RunID, err)
	}
	rep.Notified = true

	if p.archive != nil {
		if err := p.archive.Notify(ctx, matched); err != nil {
			logger.Error("archive failed", "error", err)
		} else {
			rep.Archived = true
		}
	}

	rep.Duration = time.Since(start)
	logger.Info("run complete",
		"fetched", rep.Fetched,
		"unique", rep.Unique,
		"matched", rep.Matched,
		"failed_sources", rep.FailedSources,
		"duration", rep.Duration.Round(time.Millisecond),
	)
	return rep, nil
}
