package usecase

import (
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/mailblast/internal/campaign/entity"
)

const (
	MaxAttempts = 3
	RetryDelay  = 2 * time.Second
	Throttle    = 3 * time.Second
	BatchSize   = 20
	BatchPause  = 60 * time.Second
)

// Policy holds the retry and pacing rules of the delivery loop.
type Policy struct {
	MaxAttempts int
	RetryDelay  time.Duration
	Throttle    time.Duration
	BatchSize   int
	BatchPause  time.Duration
	// SkipTrailingPause drops the pause after the last recipient.
	SkipTrailingPause bool
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: MaxAttempts,
		RetryDelay:  RetryDelay,
		Throttle:    Throttle,
		BatchSize:   BatchSize,
		BatchPause:  BatchPause,
	}
}

func (s *Usecase) policy() Policy {
	p := DefaultPolicy()
	if s.cfg != nil {
		p.SkipTrailingPause = s.cfg.GetBool("campaign.skip_trailing_pause")
	}
	return p
}

// Backoff returns a fresh per-recipient backoff: a constant RetryDelay that
// stops after MaxAttempts-1 retries.
func (p Policy) Backoff() retry.Backoff {
	return retry.WithMaxRetries(uint64(max(p.MaxAttempts-1, 0)), retry.NewConstant(p.RetryDelay))
}

// Advance applies the outcome of one attempt to d and returns the pause that
// must follow it. Every failed attempt pauses RetryDelay, including the one
// that exhausts the backoff.
func (p Policy) Advance(d entity.Delivery, sendErr error, b retry.Backoff) (entity.Delivery, time.Duration) {
	d.Attempts++

	if sendErr == nil {
		d.State = entity.DeliverySent
		d.LastError = ""
		return d, 0
	}

	d.LastError = sendErr.Error()
	delay, stop := b.Next()
	if stop {
		d.State = entity.DeliveryPermanentlyFailed
		return d, p.RetryDelay
	}

	d.State = entity.DeliveryAttempting
	return d, delay
}

// ThrottleAfter returns the pause after the recipient at the 1-based
// position: BatchPause at every BatchSize boundary, Throttle otherwise.
func (p Policy) ThrottleAfter(position, total int) time.Duration {
	if p.SkipTrailingPause && position >= total {
		return 0
	}
	if p.BatchSize > 0 && position%p.BatchSize == 0 {
		return p.BatchPause
	}
	return p.Throttle
}

// WorstCase bounds the pauses of a job with n recipients that fail every
// attempt. Transport latency is not included.
func (p Policy) WorstCase(n int) time.Duration {
	var total time.Duration
	for pos := 1; pos <= n; pos++ {
		total += time.Duration(p.MaxAttempts)*p.RetryDelay + p.ThrottleAfter(pos, n)
	}
	return total
}
