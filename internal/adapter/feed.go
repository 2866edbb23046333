package adapter

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/amishk599/jobradar/internal/model"
)

// Ensure FeedAdapter implements model.JobFetcher.
var _ model.JobFetcher = (*FeedAdapter)(nil)

// FeedAdapter turns an RSS or Atom job feed into postings. Boards like
// We Work Remotely title items "Company: Job Title"; when the item has no
// author that prefix is taken as the company.
type FeedAdapter struct {
	name   string
	url    string
	client *http.Client
	parser *gofeed.Parser
}

// NewFeedAdapter creates an adapter for the feed at url. name is used as
// the company when an item does not carry one.
func NewFeedAdapter(name, url string, client *http.Client) *FeedAdapter {
	return &FeedAdapter{
		name:   name,
		url:    url,
		client: client,
		parser: gofeed.NewParser(),
	}
}

// FetchJobs downloads and parses the feed.
func (a *FeedAdapter) FetchJobs(ctx context.Context) ([]model.Job, error) {
	body, err := get(ctx, a.client, a.url, "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	if err != nil {
		return nil, fmt.Errorf("feed fetch for %s: %w", a.name, err)
	}
	return a.parse(body)
}

func (a *FeedAdapter) parse(body []byte) ([]model.Job, error) {
	feed, err := a.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("feed parse for %s: %w", a.name, err)
	}

	jobs := make([]model.Job, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		company, title := splitCompanyTitle(item.Title)
		if item.Author != nil && item.Author.Name != "" {
			company = item.Author.Name
		}

		job := model.Job{
			ID:          cmp.Or(item.GUID, item.Link),
			Title:       title,
			Company:     cmp.Or(company, a.name),
			Location:    feedLocation(item),
			URL:         item.Link,
			Description: extractText(cmp.Or(item.Content, item.Description)),
			Source:      "rss",
		}
		if item.PublishedParsed != nil {
			t := item.PublishedParsed.UTC()
			job.PostedAt = &t
		} else if item.UpdatedParsed != nil {
			t := item.UpdatedParsed.UTC()
			job.PostedAt = &t
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// feedLocation reads the non-standard elements job feeds use for location.
func feedLocation(item *gofeed.Item) string {
	for _, key := range []string{"location", "region", "country"} {
		if v := strings.TrimSpace(item.Custom[key]); v != "" {
			return v
		}
	}
	return ""
}
