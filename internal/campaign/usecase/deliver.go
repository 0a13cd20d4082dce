package usecase

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/mailblast/internal/campaign/entity"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// ErrMalformedJob aborts a delivery before any send.
	ErrMalformedJob = errors.New("campaign: malformed job")
	// ErrCampaignCancelled is the cancel cause of an explicit CancelCampaign.
	ErrCampaignCancelled = errors.New("campaign: cancelled by request")
)

// Deliver sends job one recipient at a time and yields progress in order.
// The sequence ends with exactly one Complete or Cancelled event, or with a
// single error when the job is malformed. Stopping the iteration stops the
// loop before the next send. Loops run one at a time; a later one waits for
// the transport and is cancellable while it waits.
func (s *Usecase) Deliver(ctx context.Context, job entity.SendJob) iter.Seq2[entity.ProgressEvent, error] {
	return func(yield func(entity.ProgressEvent, error) bool) {
		if err := s.checkJob(job); err != nil {
			yield(entity.ProgressEvent{}, err)
			return
		}

		s.run(ctx, job, s.policy(), yield)
	}
}

func (s *Usecase) checkJob(job entity.SendJob) error {
	switch {
	case s.repoMail == nil:
		return fmt.Errorf("%w: no mail transport", ErrMalformedJob)
	case strings.TrimSpace(job.SenderEmail) == "":
		return fmt.Errorf("%w: empty sender email", ErrMalformedJob)
	}
	return nil
}

func (s *Usecase) run(ctx context.Context, job entity.SendJob, p Policy, yield func(entity.ProgressEvent, error) bool) {
	ctx, span := s.startSpan(ctx, "Deliver")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("campaign.id", job.ID),
		attribute.Int("campaign.total", len(job.Recipients)),
	)

	tally := entity.NewTally(len(job.Recipients))

	cancelled := func() {
		slog.WarnContext(ctx, "campaign delivery cancelled",
			"campaign_id", job.ID,
			"sent", tally.Sent,
			"failed", tally.Failed,
			"total", tally.Total,
			"cause", context.Cause(ctx),
		)
		span.SetAttributes(attribute.Bool("campaign.cancelled", true))
		yield(entity.CancelledEvent(job.ID, tally), nil)
	}

	if !s.transport.TryAcquire(1) {
		slog.InfoContext(ctx, "campaign waiting for mail transport", "campaign_id", job.ID)
		if err := s.transport.Acquire(ctx, 1); err != nil {
			cancelled()
			return
		}
	}
	defer s.transport.Release(1)

	for i, r := range job.Recipients {
		d := entity.Delivery{Position: i + 1, Recipient: r}
		backoff := p.Backoff()
		msg := buildMessage(job, r)

		for !d.State.Done() {
			if ctx.Err() != nil {
				cancelled()
				return
			}

			d.State = entity.DeliveryAttempting
			err := s.repoMail.Send(ctx, msg)
			s.count(ctx, s.attemptCounter)
			if err != nil && ctx.Err() != nil {
				// the transport failed because we were cancelled
				cancelled()
				return
			}

			next, pause := p.Advance(d, err, backoff)
			d = next
			tally = tally.Record(d)

			switch d.State {
			case entity.DeliverySent:
				s.count(ctx, s.sentCounter)
				if !yield(entity.SuccessEvent(job.ID, r.Email, tally), nil) {
					return
				}
			case entity.DeliveryPermanentlyFailed:
				s.count(ctx, s.failedCounter)
				slog.WarnContext(ctx, "failed to deliver campaign email",
					"campaign_id", job.ID,
					"email", r.Email,
					"position", d.Position,
					"attempts", d.Attempts,
					"error", d.LastError,
				)
				if !yield(entity.FailureEvent(job.ID, d, tally), nil) {
					return
				}
			case entity.DeliveryAttempting:
				slog.DebugContext(ctx, "retrying campaign email",
					"campaign_id", job.ID,
					"email", r.Email,
					"attempt", d.Attempts,
					"error", d.LastError,
				)
			}

			if pause > 0 {
				if err := s.clock.Sleep(ctx, pause); err != nil {
					cancelled()
					return
				}
			}
		}

		if err := s.clock.Sleep(ctx, p.ThrottleAfter(d.Position, tally.Total)); err != nil {
			cancelled()
			return
		}
	}

	slog.InfoContext(ctx, "campaign delivery finished",
		"campaign_id", job.ID,
		"sent", tally.Sent,
		"failed", tally.Failed,
		"total", tally.Total,
	)
	span.SetAttributes(attribute.Int("campaign.sent", tally.Sent), attribute.Int("campaign.failed", tally.Failed))
	yield(entity.CompleteEvent(job.ID, tally), nil)
}
