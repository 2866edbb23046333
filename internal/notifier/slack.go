package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/amishk599/jobradar/internal/model"
)

// Ensure SlackDeliverer implements Deliverer.
var _ Deliverer = (*SlackDeliverer)(nil)

// SlackDeliverer posts rendered messages to a Slack Incoming Webhook.
// DialectSlack bodies are sent as-is; anything else is wrapped as plain text.
type SlackDeliverer struct {
	webhookURL string
	httpClient *http.Client
}

// NewSlackDeliverer returns a deliverer for the given webhook.
func NewSlackDeliverer(webhookURL string, httpClient *http.Client) *SlackDeliverer {
	return &SlackDeliverer{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

// Deliver sends one webhook request. Non-200 responses come back as
// *model.HTTPError so the retry policy can honour Retry-After on 429.
func (s *SlackDeliverer) Deliver(ctx context.Context, msg Message) error {
	body := []byte(msg.Body)
	if msg.Dialect != DialectSlack {
		wrapped, err := jsonText(msg.Body)
		if err != nil {
			return err
		}
		body = wrapped
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.NewHTTPError(resp, fmt.Errorf("slack returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail)))
	}
	return nil
}

func jsonText(text string) ([]byte, error) {
	body, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal slack text: %w", err)
	}
	return body, nil
}
