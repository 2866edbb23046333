// Package collector fetches every configured source concurrently and merges
// the results into one list.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobradar/internal/model"
)

// ErrAllSourcesFailed is returned when no source produced a result.
var ErrAllSourcesFailed = errors.New("all sources failed")

// Source is a named fetcher.
type Source struct {
	Name    string
	Kind    string // greenhouse, lever, rss, file
	Fetcher model.JobFetcher
}

// SourceResult is the outcome of fetching one source.
type SourceResult struct {
	Name     string
	Count    int
	Duration time.Duration
	Err      error
}

// Result is the merged output of a collection pass.
type Result struct {
	Jobs    []model.Job
	Sources []SourceResult
}

// Failed returns the number of sources that errored.
func (r Result) Failed() int {
	n := 0
	for _, s := range r.Sources {
		if s.Err != nil {
			n++
		}
	}
	return n
}

// Collector fans out to sources with bounded concurrency.
type Collector struct {
	sources     []Source
	concurrency int
	logger      *slog.Logger
}

// New creates a Collector. A concurrency below 1 means one source at a time.
func New(sources []Source, concurrency int, logger *slog.Logger) *Collector {
	return &Collector{
		sources:     sources,
		concurrency: max(concurrency, 1),
		logger:      logger,
	}
}

// Sources returns the configured sources.
func (c *Collector) Sources() []Source { return c.sources }

// Collect fetches all sources. A failing source is logged and skipped; jobs
// are merged in configured source order regardless of completion order.
// An error is returned only when every source failed or ctx was cancelled.
func (c *Collector) Collect(ctx context.Context) (Result, error) {
	results := make([]SourceResult, len(c.sources))
	batches := make([][]model.Job, len(c.sources))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, src := range c.sources {
		g.Go(func() error {
			start := time.Now()
			jobs, err := src.Fetcher.FetchJobs(ctx)
			results[i] = SourceResult{Name: src.Name, Count: len(jobs), Duration: time.Since(start), Err: err}
			if err != nil {
				c.logger.Error("source failed", "source", src.Name, "kind", src.Kind, "error", err)
				return nil
			}
			batches[i] = jobs
			c.logger.Debug("source fetched", "source", src.Name, "kind", src.Kind, "fetched", len(jobs), "duration", results[i].Duration)
			return nil
		})
	}
	g.Wait()

	var total int
	for _, b := range batches {
		total += len(b)
	}
	res := Result{Jobs: make([]model.Job, 0, total), Sources: results}
	for _, b := range batches {
		res.Jobs = append(res.Jobs, b...)
	}

	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("collect: %w", err)
	}
	if len(c.sources) > 0 && res.Failed() == len(c.sources) {
		errs := make([]error, 0, len(results))
		for _, r := range results {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
		}
		return res, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
	}
	return res, nil
}
