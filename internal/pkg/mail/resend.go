package mail

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/resend/resend-go/v3"
)

// ErrResendAPIKeyRequired is returned when the Resend API key is empty.
var ErrResendAPIKeyRequired = errors.New("mail: resend api key is required")

// ResendConfig configures the Resend implementation.
type ResendConfig struct {
	APIKey string
	// From is the default sender when Message.From is empty.
	From string
	// BaseURL overrides the API endpoint; mostly useful for tests.
	BaseURL string
}

// Resend is a Mail implementation backed by the Resend HTTP API.
type Resend struct {
	client      *resend.Client
	defaultFrom string
}

// NewResend constructs a Resend mail sender.
func NewResend(cfg ResendConfig) (*Resend, error) {
	if cfg.APIKey == "" {
		return nil, ErrResendAPIKeyRequired
	}

	client := resend.NewClient(cfg.APIKey)
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("mail: invalid resend base url: %w", err)
		}
		client.BaseURL = u
	}

	return &Resend{client: client, defaultFrom: cfg.From}, nil
}

// Send delivers a message through the Resend API.
func (r *Resend) Send(ctx context.Context, msg Message) error {
	msg, err := msg.resolve(r.defaultFrom)
	if err != nil {
		return err
	}

	_, err = r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Cc:      msg.Cc,
		Bcc:     msg.Bcc,
		Subject: msg.Subject,
		Html:    msg.HTMLBody,
		Text:    msg.TextBody,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}

	return nil
}

// Close implements io.Closer.
func (r *Resend) Close() error {
	return nil
}
