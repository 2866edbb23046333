package notifier

import (
	"context"
	"fmt"
)

// Dialect tells a Deliverer how a message body is formatted.
type Dialect int

const (
	DialectText Dialect = iota
	DialectMarkdown
	DialectHTML
	DialectSlack // Block Kit JSON
)

func (d Dialect) String() string {
	switch d {
	case DialectMarkdown:
		return "markdown"
	case DialectHTML:
		return "html"
	case DialectSlack:
		return "slack"
	default:
		return "text"
	}
}

// Message is one rendered notification ready for transport.
type Message struct {
	Subject string
	Body    string
	Dialect Dialect
}

// Deliverer moves a rendered Message over one transport.
type Deliverer interface {
	Deliver(ctx context.Context, msg Message) error
}

// DeliveryError reports a failed send on a named channel.
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver via %s: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
