package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/amishk599/jobradar/internal/model"
)

// TelegramMaxMessage is the Bot API limit on message text, in characters.
const TelegramMaxMessage = 4096

// Ensure TelegramDeliverer implements Deliverer.
var _ Deliverer = (*TelegramDeliverer)(nil)

// TelegramDeliverer sends messages to one chat through the Bot API.
type TelegramDeliverer struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramDeliverer authenticates the bot (getMe) and returns a
// deliverer bound to chatID. An empty endpoint means the public Bot API.
func NewTelegramDeliverer(token string, chatID int64, client *http.Client, endpoint string) (*TelegramDeliverer, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &TelegramDeliverer{bot: bot, chatID: chatID}, nil
}

// Deliver sends msg, split on line boundaries when it exceeds the Bot API
// limit. Markdown and HTML dialects set the matching parse mode.
func (t *TelegramDeliverer) Deliver(ctx context.Context, msg Message) error {
	for _, part := range splitMessage(msg.Body, TelegramMaxMessage) {
		if err := ctx.Err(); err != nil {
			return err
		}

		out := tgbotapi.NewMessage(t.chatID, part)
		out.DisableWebPagePreview = true
		switch msg.Dialect {
		case DialectHTML:
			out.ParseMode = tgbotapi.ModeHTML
		case DialectMarkdown:
			out.ParseMode = tgbotapi.ModeMarkdownV2
		}

		if _, err := t.bot.Send(out); err != nil {
			return telegramError(err)
		}
	}
	return nil
}

// telegramError maps Bot API failures onto *model.HTTPError so flood
// control (429 with retry_after) and server errors are retried.
func telegramError(err error) error {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code == 0 {
		return fmt.Errorf("telegram send: %w", err)
	}
	return &model.HTTPError{
		StatusCode: apiErr.Code,
		RetryAfter: time.Duration(apiErr.RetryAfter) * time.Second,
		Err:        fmt.Errorf("telegram: %s", apiErr.Message),
	}
}
