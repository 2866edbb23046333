package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

// SourceRateLimiter enforces a minimum delay between requests that share a key,
// typically the source kind ("greenhouse", "lever", a feed host).
type SourceRateLimiter struct {
	mu        sync.Mutex
	nextSlot  map[string]time.Time
	minDelay  time.Duration
	overrides map[string]time.Duration
}

// NewSourceRateLimiter creates a limiter with a default minDelay and optional
// per-key overrides.
func NewSourceRateLimiter(minDelay time.Duration, overrides map[string]time.Duration) *SourceRateLimiter {
	return &SourceRateLimiter{
		nextSlot:  make(map[string]time.Time),
		minDelay:  minDelay,
		overrides: overrides,
	}
}

// DelayFor returns the gap enforced for key.
func (r *SourceRateLimiter) DelayFor(key string) time.Duration {
	if d, ok := r.overrides[key]; ok {
		return d
	}
	return r.minDelay
}

// Wait blocks until key's next slot. Concurrent callers are handed
// successive slots, so they never fire together.
func (r *SourceRateLimiter) Wait(ctx context.Context, key string) error {
	r.mu.Lock()
	now := time.Now()
	slot := now
	if next, ok := r.nextSlot[key]; ok && next.After(now) {
		slot = next
	}
	r.nextSlot[key] = slot.Add(r.DelayFor(key))
	r.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", key, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// Ensure RateLimitedFetcher implements model.JobFetcher.
var _ model.JobFetcher = (*RateLimitedFetcher)(nil)

// RateLimitedFetcher is a decorator that waits on a shared limiter before
// delegating to the wrapped JobFetcher.
type RateLimitedFetcher struct {
	inner   model.JobFetcher
	limiter *SourceRateLimiter
	key     string
}

// NewRateLimitedFetcher wraps a JobFetcher. Fetchers hitting the same backend
// should share one limiter and key.
func NewRateLimitedFetcher(inner model.JobFetcher, limiter *SourceRateLimiter, key string) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner:   inner,
		limiter: limiter,
		key:     key,
	}
}

// FetchJobs waits for the rate limiter to allow a request, then delegates to
// the wrapped fetcher.
func (f *RateLimitedFetcher) FetchJobs(ctx context.Context) ([]model.Job, error) {
	if err := f.limiter.Wait(ctx, f.key); err != nil {
		return nil, err
	}
	return f.inner.FetchJobs(ctx)
}
