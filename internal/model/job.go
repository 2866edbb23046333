package model

import (
	"context"
	"time"
)

// Job is the unified representation of a posting from any source.
// Sources fill in what they can; empty strings and a nil PostedAt mean "unspecified".
type Job struct {
	ID          string     // source-local id, informational only
	Title       string     // may be empty for malformed sources
	Company     string     // company name
	Location    string     // free text, empty when unspecified
	URL         string     // dedup key, compared verbatim
	Description string     // plain text body
	PostedAt    *time.Time // nil when the source has no parseable date
	Source      string     // adapter name, e.g. "greenhouse"
}

// JobFetcher fetches job listings from a source (e.g. Greenhouse, an RSS feed).
type JobFetcher interface {
	FetchJobs(ctx context.Context) ([]Job, error)
}

// Notifier sends notifications for matched jobs.
type Notifier interface {
	Notify(ctx context.Context, jobs []Job) error
}

// JobFilter decides whether a job matches the user's criteria.
type JobFilter interface {
	Match(job Job) bool
}
