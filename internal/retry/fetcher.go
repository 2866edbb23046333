package retry

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobradar/internal/model"
)

// Ensure RetryFetcher implements model.JobFetcher.
var _ model.JobFetcher = (*RetryFetcher)(nil)

// RetryFetcher is a decorator that retries transient failures of the wrapped
// JobFetcher according to a Policy.
type RetryFetcher struct {
	inner  model.JobFetcher
	policy Policy
	logger *slog.Logger
}

// NewRetryFetcher wraps a JobFetcher with retry logic.
func NewRetryFetcher(inner model.JobFetcher, policy Policy, logger *slog.Logger) *RetryFetcher {
	return &RetryFetcher{
		inner:  inner,
		policy: policy,
		logger: logger,
	}
}

// FetchJobs attempts to fetch jobs, retrying on transient errors.
func (f *RetryFetcher) FetchJobs(ctx context.Context) ([]model.Job, error) {
	var jobs []model.Job
	err := f.policy.Do(ctx, f.logger, func(ctx context.Context) error {
		var err error
		jobs, err = f.inner.FetchJobs(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}
