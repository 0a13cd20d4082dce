package mail

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	// ErrNoRecipients is returned when To, Cc and Bcc are all empty.
	ErrNoRecipients = errors.New("mail: no recipients provided")
	// ErrNoSender is returned when both Message.From and the configured default sender are empty.
	ErrNoSender = errors.New("mail: no sender provided")
)

// Message represents an email payload.
type Message struct {
	// From is the sender header, either a bare address or `"Name" <address>`.
	// When empty the driver's default sender is used.
	From string
	// To lists required recipients.
	To []string
	// Cc lists carbon copy recipients.
	Cc []string
	// Bcc lists blind carbon copy recipients.
	Bcc []string
	// Subject is the email subject line.
	Subject string
	// TextBody is the plain-text body; sent as an alternative when HTMLBody is set.
	TextBody string
	// HTMLBody is the HTML body.
	HTMLBody string
}

// Mail abstracts an email provider.
type Mail interface {
	io.Closer
	// Send dispatches the given message using the underlying provider.
	Send(ctx context.Context, msg Message) error
}

// resolve fills From from the default and checks the envelope.
func (m Message) resolve(defaultFrom string) (Message, error) {
	if len(m.To)+len(m.Cc)+len(m.Bcc) == 0 {
		return m, ErrNoRecipients
	}

	if strings.TrimSpace(m.From) == "" {
		m.From = defaultFrom
	}
	if strings.TrimSpace(m.From) == "" {
		return m, ErrNoSender
	}

	return m, nil
}
