package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

// Policy describes how an operation is retried.
type Policy struct {
	MaxAttempts int           // total attempts including the first; < 1 means 1
	BaseDelay   time.Duration // delay before the second attempt
	Multiplier  float64       // growth factor per attempt; < 1 means 2
	MaxDelay    time.Duration // cap per delay; zero means no cap
	Jitter      float64       // ±fraction applied to each delay, e.g. 0.3
	Retryable   func(error) bool

	// sleep is swapped out by tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy matches what the notifiers use: 3 attempts, 2s apart, doubling.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		Multiplier:  2,
		MaxDelay:    time.Minute,
		Jitter:      0.3,
		Retryable:   IsRetryable,
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, or runs out of
// attempts. The last error is returned. A Retry-After carried by an
// *model.HTTPError overrides the computed delay.
func (p Policy) Do(ctx context.Context, logger *slog.Logger, fn func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt == attempts || !retryable(err) {
			return err
		}

		delay := p.Delay(attempt, err)
		if logger != nil {
			logger.Warn("retrying after transient error",
				"attempt", attempt,
				"max_attempts", attempts,
				"delay", delay,
				"error", err,
			)
		}
		if serr := p.wait(ctx, delay); serr != nil {
			return fmt.Errorf("retry cancelled: %w", serr)
		}
	}
	return err
}

// Delay computes the pause after the given failed attempt (1-based).
func (p Policy) Delay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	mult := p.Multiplier
	if mult < 1 {
		mult = 2
	}
	delay := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		delay *= mult
	}
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	if p.Jitter > 0 {
		delay += (rand.Float64()*2 - 1) * p.Jitter * delay
	}
	return time.Duration(delay)
}

func (p Policy) wait(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// IsRetryable returns true if the error represents a transient failure worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation never retries.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}

	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}

	// Non-HTTP errors (network, DNS) are retryable.
	return true
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying under IsRetryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}
