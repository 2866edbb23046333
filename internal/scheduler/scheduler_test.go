package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/jobradar/internal/pipeline"
)

// --- Mock implementations ---

type countingRunner struct {
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (r *countingRunner) Run(ctx context.Context) (pipeline.Report, error) {
	r.calls.Add(1)
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
		}
	}
	return pipeline.Report{}, r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Tests ---

func TestScheduler_ImmediateRunThenTicks(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, "@every 1s", discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	// One immediate run plus the tick at ~1s.
	if got := runner.calls.Load(); got < 2 {
		t.Errorf("expected at least 2 runs, got %d", got)
	}
}

func TestScheduler_RunErrorDoesNotStopLoop(t *testing.T) {
	runner := &countingRunner{err: errors.New("all sources failed")}
	s := NewScheduler(runner, "@every 1s", discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := runner.calls.Load(); got < 2 {
		t.Errorf("scheduler should keep ticking after a failed run, got %d runs", got)
	}
}

func TestScheduler_CancelledBeforeStart(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, "@every 1h", discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if got := runner.calls.Load(); got != 0 {
		t.Errorf("expected no runs on a cancelled context, got %d", got)
	}
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewScheduler(&countingRunner{}, "every tuesday-ish", discardLogger())
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestSpecFromInterval(t *testing.T) {
	if got := SpecFromInterval(6 * time.Hour); got != "@every 6h0m0s" {
		t.Errorf("SpecFromInterval(6h) = %q", got)
	}
}
