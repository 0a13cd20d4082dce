package clock

import (
	"context"
	"time"
)

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
	// Sleep pauses for d or until ctx is done, whichever comes first.
	// It returns ctx.Err() when the pause was cut short.
	Sleep(ctx context.Context, d time.Duration) error
}

// TimeClocker is the production clock implementation backed by the time package.
type TimeClocker struct{}

// New returns a TimeClocker that reads the current system time.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns the current system time.
func (*TimeClocker) Now() time.Time {
	return time.Now()
}

// Sleep blocks for d unless ctx is canceled first.
func (*TimeClocker) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
