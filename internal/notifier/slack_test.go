package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/retry"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func timePtr(t time.Time) *time.Time { return &t }

func sampleJob(title, company string) model.Job {
	return model.Job{
		ID:       "123",
		Company:  company,
		Title:    title,
		Location: "Bucharest, Romania",
		URL:      "https://example.com/apply",
		PostedAt: timePtr(time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)),
		Source:   "greenhouse",
	}
}

// fastPolicy retries quickly so tests don't sleep for real.
func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		Multiplier:  2,
		Retryable:   retry.IsRetryable,
	}
}

func newSlackChannel(srv *httptest.Server, attempts int) *Channel {
	return NewChannel("slack", NewSlackDeliverer(srv.URL, srv.Client()), SlackRenderer, 1, fastPolicy(attempts), discardLogger())
}

func TestSlackChannel_EmptyJobs(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	n := newSlackChannel(srv, 1)

	if err := n.Notify(context.Background(), nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if err := n.Notify(context.Background(), []model.Job{}); err != nil {
		t.Errorf("Notify([]) = %v, want nil", err)
	}
	if c := calls.Load(); c != 0 {
		t.Errorf("expected 0 HTTP calls, got %d", c)
	}
}

func TestSlackChannel_OneRequestPerJob(t *testing.T) {
	var (
		calls atomic.Int32
		last  atomic.Value
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		last.Store(body)
	}))
	defer srv.Close()

	jobs := []model.Job{
		sampleJob("Engineer 1", "A"),
		sampleJob("Engineer 2", "B"),
		sampleJob("Engineer 3", "C"),
	}
	if err := newSlackChannel(srv, 1).Notify(context.Background(), jobs); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}
	if c := calls.Load(); c != 3 {
		t.Errorf("expected 3 HTTP calls, got %d", c)
	}

	var payload slackPayload
	if err := json.Unmarshal(last.Load().([]byte), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got := payload.Blocks[0].Text.Text; got != "🚀 C: Engineer 3" {
		t.Errorf("header text = %q", got)
	}
}

func TestSlackChannel_AllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newSlackChannel(srv, 2).Notify(context.Background(), []model.Job{
		sampleJob("A", "X"),
		sampleJob("B", "Y"),
	})
	if err == nil {
		t.Fatal("expected error when all messages fail, got nil")
	}

	var delivery *DeliveryError
	if !errors.As(err, &delivery) || delivery.Channel != "slack" {
		t.Fatalf("expected *DeliveryError for slack, got %v", err)
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected wrapped HTTP 500, got %v", err)
	}
}

func TestSlackChannel_PartialFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	jobs := []model.Job{
		sampleJob("Fails", "A"),
		sampleJob("Succeeds", "B"),
	}
	if err := newSlackChannel(srv, 3).Notify(context.Background(), jobs); err != nil {
		t.Errorf("expected nil (partial success), got %v", err)
	}
	// 400 is permanent, so no retry of the first message.
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls, got %d", c)
	}
}

func TestSlackChannel_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	if err := newSlackChannel(srv, 3).Notify(context.Background(), []model.Job{sampleJob("Flaky", "Co")}); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if c := calls.Load(); c != 3 {
		t.Errorf("expected 3 HTTP calls, got %d", c)
	}
}

func TestSlackChannel_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	start := time.Now()
	if err := newSlackChannel(srv, 2).Notify(context.Background(), []model.Job{sampleJob("Rate Limited", "Test")}); err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls (initial + retry), got %d", c)
	}
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Errorf("expected Retry-After to be honoured, waited %v", elapsed)
	}
}

func TestSlackDeliverer_WrapsPlainText(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	d := NewSlackDeliverer(srv.URL, srv.Client())
	if err := d.Deliver(context.Background(), Message{Body: "hello \"world\"", Dialect: DialectText}); err != nil {
		t.Fatalf("Deliver() = %v", err)
	}

	var got struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Text != "hello \"world\"" {
		t.Errorf("text = %q", got.Text)
	}
}

func TestRenderSlack_PayloadFormat(t *testing.T) {
	job := model.Job{
		Company: "TestCo",
		Title:   "SRE",
		URL:     "https://example.com/sre",
		Source:  "lever",
	}

	body, err := RenderSlack(job)
	if err != nil {
		t.Fatalf("RenderSlack() = %v", err)
	}
	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(payload.Blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(payload.Blocks))
	}
	if payload.Blocks[0].Type != "header" {
		t.Errorf("block[0] type = %q, want header", payload.Blocks[0].Type)
	}
	if got := payload.Blocks[1].Fields[1].Text; got != "*Location:*\nUnspecified" {
		t.Errorf("location field = %q", got)
	}
	if got := payload.Blocks[2].Fields[0].Text; got != "*Posted:*\nUnknown" {
		t.Errorf("posted field = %q, want Unknown for nil PostedAt", got)
	}
	if payload.Blocks[3].Type != "actions" || payload.Blocks[3].Elements[0].URL != job.URL {
		t.Errorf("block[3] should be the apply button")
	}
	if payload.Blocks[4].Type != "divider" {
		t.Errorf("block[4] type = %q, want divider", payload.Blocks[4].Type)
	}

	// No URL, no button.
	job.URL = ""
	body, _ = RenderSlack(job)
	payload = slackPayload{}
	json.Unmarshal(body, &payload)
	if len(payload.Blocks) != 4 {
		t.Errorf("expected 4 blocks without URL, got %d", len(payload.Blocks))
	}
}
