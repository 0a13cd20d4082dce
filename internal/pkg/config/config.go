// Package config exposes typed accessors over the service configuration.
//
// Keys are dotted paths ("mail.driver", "campaign.batch_size"). Every key can
// be overridden from the environment by upper-casing it and replacing dots
// with underscores, e.g. MAIL_SMTP_PASSWORD.
package config

import (
	"io"
	"time"
)

// DurationConfig defines helpers for retrieving duration values stored as integers.
type DurationConfig interface {
	// GetMillisecond reads key as a count of milliseconds.
	GetMillisecond(key string) time.Duration

	// GetSecond reads key as a count of seconds.
	GetSecond(key string) time.Duration

	// GetMinute reads key as a count of minutes.
	GetMinute(key string) time.Duration
}

// Config defines the methods used by the application to read settings.
// Missing keys return the zero value of the requested type.
type Config interface {
	io.Closer
	DurationConfig

	GetBool(key string) bool
	GetInt(key string) int
	GetInt64(key string) int64
	GetString(key string) string

	// GetArray reads key as a list. Both YAML sequences and comma separated
	// strings are accepted; empty elements are dropped.
	GetArray(key string) []string

	// IsSet reports whether key has a value from any source.
	IsSet(key string) bool
}
