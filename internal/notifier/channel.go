package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/retry"
)

// Renderer turns a batch of jobs into one message.
type Renderer func(jobs []model.Job) (Message, error)

// TextRenderer renders an email-style message: subject plus plain body.
func TextRenderer(jobs []model.Job) (Message, error) {
	return Message{Subject: Subject(len(jobs)), Body: RenderText(jobs), Dialect: DialectText}, nil
}

// HTMLRenderer renders Telegram HTML.
func HTMLRenderer(jobs []model.Job) (Message, error) {
	return Message{Subject: Subject(len(jobs)), Body: RenderHTML(jobs), Dialect: DialectHTML}, nil
}

// MarkdownRenderer renders Telegram MarkdownV2.
func MarkdownRenderer(jobs []model.Job) (Message, error) {
	return Message{Subject: Subject(len(jobs)), Body: RenderMarkdown(jobs), Dialect: DialectMarkdown}, nil
}

// SlackRenderer renders the first job of the batch as Block Kit. Use it
// with a chunk size of 1.
func SlackRenderer(jobs []model.Job) (Message, error) {
	if len(jobs) == 0 {
		return Message{}, errors.New("slack: empty batch")
	}
	body, err := RenderSlack(jobs[0])
	if err != nil {
		return Message{}, err
	}
	return Message{Subject: Subject(1), Body: string(body), Dialect: DialectSlack}, nil
}

// Ensure Channel implements model.Notifier.
var _ model.Notifier = (*Channel)(nil)

// Channel is a notifier built from a renderer and a deliverer. Jobs are
// sent in chunks, each chunk retried under the policy.
type Channel struct {
	name      string
	deliverer Deliverer
	render    Renderer
	chunkSize int
	policy    retry.Policy
	logger    *slog.Logger
}

// NewChannel assembles a Channel. A chunkSize of zero sends every job in
// one message.
func NewChannel(name string, d Deliverer, render Renderer, chunkSize int, policy retry.Policy, logger *slog.Logger) *Channel {
	return &Channel{
		name:      name,
		deliverer: d,
		render:    render,
		chunkSize: chunkSize,
		policy:    policy,
		logger:    logger.With("channel", name),
	}
}

// Name returns the channel name used in logs and errors.
func (c *Channel) Name() string { return c.name }

// Notify delivers jobs. Failed chunks are logged; an error is returned
// only if every chunk failed.
func (c *Channel) Notify(ctx context.Context, jobs []model.Job) error {
	chunks := Chunk(jobs, c.chunkSize)
	if len(chunks) == 0 {
		return nil
	}

	var (
		failures int
		lastErr  error
	)
	for i, chunk := range chunks {
		msg, err := c.render(chunk)
		if err == nil {
			err = c.policy.Do(ctx, c.logger, func(ctx context.Context) error {
				return c.deliverer.Deliver(ctx, msg)
			})
		}
		if err != nil {
			failures++
			lastErr = &DeliveryError{Channel: c.name, Err: err}
			c.logger.Error("notification failed", "chunk", i+1, "chunks", len(chunks), "jobs", len(chunk), "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		c.logger.Debug("notification sent", "chunk", i+1, "chunks", len(chunks), "jobs", len(chunk))
	}

	if failures == len(chunks) {
		return fmt.Errorf("all %d %s notifications failed: %w", failures, c.name, lastErr)
	}
	if failures > 0 {
		c.logger.Warn("notifications partially failed", "sent", len(chunks)-failures, "failed", failures)
	} else {
		c.logger.Info("notifications complete", "sent", len(chunks), "jobs", len(jobs))
	}
	if ctx.Err() != nil {
		return &DeliveryError{Channel: c.name, Err: ctx.Err()}
	}
	return nil
}
