package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amishk599/jobradar/internal/collector"
	"github.com/amishk599/jobradar/internal/filter"
	"github.com/amishk599/jobradar/internal/model"
)

// --- Mock/Fake Implementations ---

// MockFetcher returns a canned slice of jobs or an error.
type MockFetcher struct {
	Jobs []model.Job
	Err  error
}

func (m *MockFetcher) FetchJobs(_ context.Context) ([]model.Job, error) {
	return m.Jobs, m.Err
}

// RecordingNotifier records which jobs were sent to Notify and the run id.
type RecordingNotifier struct {
	Notified []model.Job
	Calls    int
	RunID    string
	Err      error
}

func (n *RecordingNotifier) Notify(ctx context.Context, jobs []model.Job) error {
	n.Calls++
	n.RunID = model.RunID(ctx)
	n.Notified = append(n.Notified, jobs...)
	return n.Err
}

// AcceptAll matches every job.
type AcceptAll struct{}

func (AcceptAll) FilterJobs(jobs []model.Job) []model.Job { return jobs }

// RejectAll rejects every job.
type RejectAll struct{}

func (RejectAll) FilterJobs([]model.Job) []model.Job { return []model.Job{} }

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeJobs(urls ...string) []model.Job {
	jobs := make([]model.Job, len(urls))
	for i, u := range urls {
		jobs[i] = model.Job{
			ID:       u,
			Company:  "testco",
			Title:    "Software Engineer",
			Location: "Remote",
			URL:      u,
			Source:   "test",
		}
	}
	return jobs
}

func timePtr(t time.Time) *time.Time { return &t }

func newCollector(fetchers ...model.JobFetcher) *collector.Collector {
	sources := make([]collector.Source, len(fetchers))
	for i, f := range fetchers {
		sources[i] = collector.Source{Name: "src", Fetcher: f}
	}
	return collector.New(sources, 2, discardLogger())
}

func fixedRunID(p *Pipeline) *Pipeline {
	p.newRunID = func() string { return "run-1" }
	return p
}

// --- Tests ---

func TestRun_DedupAcrossSources(t *testing.T) {
	notifier := &RecordingNotifier{}
	p := fixedRunID(New(
		newCollector(
			&MockFetcher{Jobs: makeJobs("u1", "u2", "u3")},
			&MockFetcher{Jobs: makeJobs("u2", "u4")},
		),
		AcceptAll{},
		notifier,
		discardLogger(),
	))

	rep, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rep.Fetched != 5 || rep.Unique != 4 || rep.Matched != 4 {
		t.Errorf("report = %+v, want fetched 5, unique 4, matched 4", rep)
	}
	if got := len(notifier.Notified); got != 4 {
		t.Errorf("notified = %d, want 4", got)
	}
	if notifier.RunID != "run-1" {
		t.Errorf("notifier saw run id %q, want run-1", notifier.RunID)
	}
	if !rep.Notified {
		t.Error("report should mark notified")
	}
}

func TestRun_PartialSourceFailure(t *testing.T) {
	notifier := &RecordingNotifier{}
	p := New(
		newCollector(
			&MockFetcher{Err: errors.New("network down")},
			&MockFetcher{Jobs: makeJobs("u1")},
		),
		AcceptAll{},
		notifier,
		discardLogger(),
	)

	rep, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.FailedSources != 1 {
		t.Errorf("failed sources = %d, want 1", rep.FailedSources)
	}
	if len(notifier.Notified) != 1 {
		t.Errorf("notified = %d, want 1", len(notifier.Notified))
	}
}

func TestRun_AllSourcesFail(t *testing.T) {
	notifier := &RecordingNotifier{}
	p := New(
		newCollector(&MockFetcher{Err: errors.New("network down")}),
		AcceptAll{},
		notifier,
		discardLogger(),
	)

	_, err := p.Run(context.Background())
	if !errors.Is(err, collector.ErrAllSourcesFailed) {
		t.Fatalf("expected ErrAllSourcesFailed, got %v", err)
	}
	if notifier.Calls != 0 {
		t.Error("notifier should not be called when collection fails")
	}
}

func TestRun_NoMatchesSkipsNotification(t *testing.T) {
	notifier := &RecordingNotifier{}
	archive := &RecordingNotifier{}
	p := New(
		newCollector(&MockFetcher{Jobs: makeJobs("1", "2", "3")}),
		RejectAll{},
		notifier,
		discardLogger(),
		WithArchive(archive),
	)

	rep, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notifier.Calls != 0 || archive.Calls != 0 {
		t.Error("nothing should be sent when the filter rejects all")
	}
	if rep.Notified {
		t.Error("report should not mark notified")
	}
}

func TestRun_NotifyErrorFailsRunAndSkipsArchive(t *testing.T) {
	notifier := &RecordingNotifier{Err: errors.New("slack down")}
	archive := &RecordingNotifier{}
	p := New(
		newCollector(&MockFetcher{Jobs: makeJobs("1")}),
		AcceptAll{},
		notifier,
		discardLogger(),
		WithArchive(archive),
	)

	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
	if archive.Calls != 0 {
		t.Error("archive should not run after a failed notification")
	}
}

func TestRun_ArchiveFailureIsNotFatal(t *testing.T) {
	archive := &RecordingNotifier{Err: errors.New("disk full")}
	p := New(
		newCollector(&MockFetcher{Jobs: makeJobs("1")}),
		AcceptAll{},
		&RecordingNotifier{},
		discardLogger(),
		WithArchive(archive),
	)

	rep, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if archive.Calls != 1 || rep.Archived {
		t.Errorf("archive calls = %d, archived = %v", archive.Calls, rep.Archived)
	}
}

func TestRun_WithFilterEngine(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	jobs := []model.Job{
		{Title: "Junior Go Developer", Location: "Cluj-Napoca, Romania", URL: "a", PostedAt: timePtr(now.AddDate(0, 0, -2))},
		{Title: "Senior Go Developer", Location: "Berlin", URL: "b"},
		{Title: "Go Developer", Location: "", URL: "c", PostedAt: timePtr(now.AddDate(0, 0, -40))},
		{Title: "Go Developer (updated)", Location: "Remote", URL: "a"},
	}
	engine, err := filter.NewEngine(filter.Criteria{
		Keywords:                    []string{"developer"},
		Locations:                   []string{"Cluj-Napoca"},
		IncludeUnspecifiedLocations: true,
		MaxDaysOld:                  30,
	}, filter.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	notifier := &RecordingNotifier{}
	rep, err := New(newCollector(&MockFetcher{Jobs: jobs}), engine, notifier, discardLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// "a" keeps its first position but carries the later, remote record.
	if rep.Unique != 3 || rep.Matched != 1 {
		t.Fatalf("report = %+v, want unique 3, matched 1", rep)
	}
	if notifier.Notified[0].Title != "Go Developer (updated)" {
		t.Errorf("notified %q, want the later duplicate", notifier.Notified[0].Title)
	}
}
