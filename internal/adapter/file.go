package adapter

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobradar/internal/model"
)

// fileJob is one entry of a local postings file. Since YAML is a superset
// of JSON the same struct reads both formats.
type fileJob struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Company     string `yaml:"company"`
	Location    string `yaml:"location"`
	URL         string `yaml:"url"`
	Description string `yaml:"description"`
	Posted      string `yaml:"posted"`
}

// Ensure FileAdapter implements model.JobFetcher.
var _ model.JobFetcher = (*FileAdapter)(nil)

// FileAdapter reads postings from a JSON or YAML file on disk. It is used
// for scraped exports and for offline runs of the filter.
type FileAdapter struct {
	name string
	path string
	now  func() time.Time
}

// NewFileAdapter creates an adapter that reads path on every fetch.
func NewFileAdapter(name, path string) *FileAdapter {
	return &FileAdapter{name: name, path: path, now: time.Now}
}

// FetchJobs reads and decodes the file. Posted dates go through
// ParsePostedDate; ones it cannot read leave PostedAt nil.
func (a *FileAdapter) FetchJobs(ctx context.Context) ([]model.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, fmt.Errorf("file source %s: %w", a.name, err)
	}

	var entries []fileJob
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("file source %s: decoding %s: %w", a.name, a.path, err)
	}

	now := a.now()
	jobs := make([]model.Job, 0, len(entries))
	for _, e := range entries {
		job := model.Job{
			ID:          e.ID,
			Title:       e.Title,
			Company:     e.Company,
			Location:    e.Location,
			URL:         e.URL,
			Description: e.Description,
			Source:      "file",
		}
		if t, ok := ParsePostedDate(e.Posted, now); ok {
			job.PostedAt = t
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
