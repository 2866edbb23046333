package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"
)

// EmailConfig holds SMTP settings for EmailDeliverer.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// Ensure EmailDeliverer implements Deliverer.
var _ Deliverer = (*EmailDeliverer)(nil)

// EmailDeliverer sends plain-text mail over SMTP with mandatory STARTTLS.
type EmailDeliverer struct {
	cfg  EmailConfig
	send func(ctx context.Context, msg *mail.Msg) error
}

// NewEmailDeliverer validates cfg and returns a deliverer.
func NewEmailDeliverer(cfg EmailConfig) (*EmailDeliverer, error) {
	if cfg.Host == "" {
		return nil, errors.New("email: smtp host is required")
	}
	if cfg.From == "" || len(cfg.To) == 0 {
		return nil, errors.New("email: from and at least one recipient are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	d := &EmailDeliverer{cfg: cfg}
	d.send = d.dialAndSend
	return d, nil
}

// Deliver sends msg as one email. The body is always sent as text/plain.
func (d *EmailDeliverer) Deliver(ctx context.Context, msg Message) error {
	m, err := d.buildMsg(msg)
	if err != nil {
		return err
	}
	return d.send(ctx, m)
}

func (d *EmailDeliverer) buildMsg(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(d.cfg.From); err != nil {
		return nil, fmt.Errorf("email from: %w", err)
	}
	if err := m.To(d.cfg.To...); err != nil {
		return nil, fmt.Errorf("email to: %w", err)
	}
	subject := msg.Subject
	if subject == "" {
		subject = "jobradar"
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}

func (d *EmailDeliverer) dialAndSend(ctx context.Context, m *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(d.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if d.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(d.cfg.Username),
			mail.WithPassword(d.cfg.Password),
		)
	}

	client, err := mail.NewClient(d.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("email client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("email send via %s:%d: %w", d.cfg.Host, d.cfg.Port, err)
	}
	return nil
}
