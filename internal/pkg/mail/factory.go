package mail

import (
	"context"
	"fmt"
	"strings"
)

const (
	DriverSMTP   = "smtp"
	DriverResend = "resend"
	DriverSES    = "ses"
	DriverLog    = "log"
)

// FactoryOptions carries per-driver configuration for NewFromDriver.
type FactoryOptions struct {
	SMTP   SMTPConfig
	Resend ResendConfig
	SES    SESConfig
	// From is the default sender applied to any driver whose own From is empty.
	From string
}

// NewFromDriver builds the Mail implementation named by driver.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Mail, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSMTP:
		cfg := opts.SMTP
		cfg.From = firstNonEmpty(cfg.From, opts.From)
		return NewSMTP(cfg)
	case DriverResend:
		cfg := opts.Resend
		cfg.From = firstNonEmpty(cfg.From, opts.From)
		return NewResend(cfg)
	case DriverSES:
		cfg := opts.SES
		cfg.From = firstNonEmpty(cfg.From, opts.From)
		return NewSES(ctx, cfg)
	case DriverLog, "":
		return NewLog(opts.From), nil
	default:
		return nil, fmt.Errorf("mail: unsupported driver %q", driver)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
