package usecase

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/mailblast/internal/campaign/entity"
	"github.com/shandysiswandi/mailblast/internal/pkg/goerror"
	"github.com/shandysiswandi/mailblast/internal/pkg/idempotency"
)

const defaultIdempotencyTTL = 24 * time.Hour

type (
	// RecipientInput email is not validated; a bad address fails at the transport.
	RecipientInput struct {
		Name  string `validate:"max=200"`
		Email string
	}

	SendCampaignInput struct {
		SenderEmail    string           `validate:"required,email,sender_domain"`
		SenderName     string           `validate:"max=200"`
		Subject        string           `validate:"required,notblank,max=998"`
		Text           string           `validate:"required,notblank"`
		UseGreeting    bool
		Recipients     []RecipientInput `validate:"required,min=1,max=10000,dive"`
		IdempotencyKey string           `validate:"max=128"`
	}

	SendCampaignOutput struct {
		CampaignID int64
		Events     iter.Seq2[entity.ProgressEvent, error]
	}
)

// SendCampaign validates the campaign and returns its lazy event stream.
// Nothing is sent until Events is ranged over; the campaign is cancellable
// for as long as the iteration runs.
func (s *Usecase) SendCampaign(ctx context.Context, in SendCampaignInput) (*SendCampaignOutput, error) {
	// the stream outlives the SendCampaign span, so it runs from the caller's context
	streamCtx := ctx
	ctx, span := s.startSpan(ctx, "SendCampaign")
	defer span.End()

	job, err := s.prepareJob(in)
	if err != nil {
		return nil, err
	}

	key := idempotencyKey("send", in.IdempotencyKey)
	if err := s.acquire(ctx, key, s.policy().WorstCase(len(job.Recipients))); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "campaign accepted", "campaign_id", job.ID, "total", len(job.Recipients))

	events := func(yield func(entity.ProgressEvent, error) bool) {
		runCtx, release := s.registry.track(streamCtx, job.ID)
		defer release()

		completed := false
		defer func() { s.settle(context.WithoutCancel(streamCtx), key, completed) }()

		for ev, err := range s.Deliver(runCtx, job) {
			completed = err == nil && ev.Kind == entity.EventComplete
			if !yield(ev, err) {
				return
			}
		}
	}

	return &SendCampaignOutput{CampaignID: job.ID, Events: events}, nil
}

func (s *Usecase) prepareJob(in SendCampaignInput) (entity.SendJob, error) {
	in.SenderEmail = strings.TrimSpace(in.SenderEmail)
	in.SenderName = strings.TrimSpace(in.SenderName)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)

	if err := s.validator.Validate(in); err != nil {
		return entity.SendJob{}, goerror.NewInvalidInput(err)
	}

	recipients := make([]entity.Recipient, 0, len(in.Recipients))
	for _, r := range in.Recipients {
		recipients = append(recipients, entity.Recipient{
			Name:  strings.TrimSpace(r.Name),
			Email: strings.TrimSpace(r.Email),
		})
	}

	return entity.SendJob{
		ID:          s.uid.Generate(),
		SenderEmail: in.SenderEmail,
		SenderName:  in.SenderName,
		Subject:     in.Subject,
		BodyText:    in.Text,
		UseGreeting: in.UseGreeting,
		Recipients:  recipients,
	}, nil
}

func idempotencyKey(scope, key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	return scope + ":" + key
}

func (s *Usecase) idempotencyTTL() time.Duration {
	if s.cfg != nil {
		if ttl := s.cfg.GetMinute("campaign.idempotency_ttl"); ttl > 0 {
			return ttl
		}
	}
	return defaultIdempotencyTTL
}

func (s *Usecase) acquire(ctx context.Context, key string, lock time.Duration) error {
	if key == "" {
		return nil
	}

	state, err := s.idem.Acquire(ctx, key, lock)
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire idempotency key", "key", key, "error", err)
		return goerror.NewServer(err)
	}

	return idempotencyConflict(state.Err())
}

func (s *Usecase) settle(ctx context.Context, key string, completed bool) {
	if key == "" {
		return
	}

	mark := s.idem.MarkFailed
	if completed {
		mark = s.idem.MarkCompleted
	}
	if err := mark(ctx, key, s.idempotencyTTL()); err != nil {
		slog.ErrorContext(ctx, "failed to record idempotency state", "key", key, "completed", completed, "error", err)
	}
}

// idempotencyConflict maps idempotency sentinels to 409s and passes nil
// and unrelated errors through.
func idempotencyConflict(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		return goerror.NewBusiness("Campaign with this idempotency key is still running", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		return goerror.NewBusiness("Campaign with this idempotency key was already sent", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrAlreadyFailed):
		return goerror.NewBusiness("Campaign with this idempotency key previously failed", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrInvalidState):
		return goerror.NewServer(err)
	default:
		return err
	}
}
