package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// ErrSMTPHostPortRequired is returned when Host/Port are missing.
var ErrSMTPHostPortRequired = errors.New("mail: smtp host and port are required")

// SMTPConfig configures the SMTP implementation.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the default sender when Message.From is empty.
	From string
	// TLS is one of "mandatory", "opportunistic" (default) or "none".
	TLS string
	// Timeout bounds dialing and each SMTP command. Zero keeps the library default.
	Timeout time.Duration
}

// SMTP is a Mail implementation backed by github.com/wneessen/go-mail.
//
// Every Send dials, delivers and quits, so a broken connection never poisons
// the next message.
type SMTP struct {
	client      *gomail.Client
	defaultFrom string
}

// NewSMTP constructs an SMTP mail sender.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(tlsPolicy(cfg.TLS)),
	}
	if cfg.Port == 465 {
		opts = append(opts, gomail.WithSSL())
	}
	if cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: create smtp client: %w", err)
	}

	return &SMTP{client: client, defaultFrom: cfg.From}, nil
}

func tlsPolicy(name string) gomail.TLSPolicy {
	switch name {
	case "mandatory":
		return gomail.TLSMandatory
	case "none":
		return gomail.NoTLS
	default:
		return gomail.TLSOpportunistic
	}
}

// Send delivers a message over SMTP.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	msg, err := msg.resolve(s.defaultFrom)
	if err != nil {
		return err
	}

	m, err := s.build(msg)
	if err != nil {
		return err
	}

	return s.client.DialAndSendWithContext(ctx, m)
}

func (s *SMTP) build(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()

	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("mail: invalid from %q: %w", msg.From, err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("mail: invalid to: %w", err)
	}
	if len(msg.Cc) > 0 {
		if err := m.Cc(msg.Cc...); err != nil {
			return nil, fmt.Errorf("mail: invalid cc: %w", err)
		}
	}
	if len(msg.Bcc) > 0 {
		if err := m.Bcc(msg.Bcc...); err != nil {
			return nil, fmt.Errorf("mail: invalid bcc: %w", err)
		}
	}

	m.Subject(msg.Subject)

	switch {
	case msg.HTMLBody != "" && msg.TextBody != "":
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
	default:
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
	}

	return m, nil
}

// Close implements io.Closer. Connections are per message, so there is nothing to release.
func (s *SMTP) Close() error {
	return nil
}
