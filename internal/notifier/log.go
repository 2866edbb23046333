package notifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes matches to the logger, one record per job.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each job via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs company, title, location, URL and posted_at for each job.
// It never fails.
func (n *LogNotifier) Notify(ctx context.Context, jobs []model.Job) error {
	for _, j := range jobs {
		args := []any{"company", j.Company, "title", j.Title, "location", j.Location, "url", j.URL, "source", j.Source}
		if j.PostedAt != nil {
			args = append(args, "posted_at", j.PostedAt.Format(time.DateOnly))
		}
		n.logger.InfoContext(ctx, "job match", args...)
	}
	return nil
}

// SendTestMessage sends a sample posting through n to verify the integration.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	now := time.Now()
	testJob := model.Job{
		ID:          "test-001",
		Company:     "jobradar",
		Title:       "Test Notification: Integration Verified",
		Location:    "Cluj-Napoca, Romania",
		URL:         "https://github.com/amishk599/jobradar",
		Description: "If you can read this, notifications are configured correctly.",
		PostedAt:    &now,
		Source:      "test",
	}
	return n.Notify(ctx, []model.Job{testJob})
}
