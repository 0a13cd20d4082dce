// Package mail defines the contracts for sending email messages and the
// provider drivers behind them.
//
// Use cases work with the Mail interface and the Message payload only. The
// concrete delivery mechanism is picked at startup by NewFromDriver:
//
//   - smtp: any SMTP relay, via github.com/wneessen/go-mail
//   - resend: the Resend HTTP API
//   - ses: Amazon SES
//   - log: writes the message to the structured log instead of sending it
package mail
