package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/mailblast/internal/campaign/entity"
	"github.com/shandysiswandi/mailblast/internal/pkg/goerror"
)

type ConsumeCampaignInput struct {
	ID          int64            `validate:"required,gt=0"`
	SenderEmail string           `validate:"required,email"`
	SenderName  string           `validate:"max=200"`
	Subject     string           `validate:"required,notblank"`
	Text        string           `validate:"required,notblank"`
	UseGreeting bool
	Recipients  []RecipientInput `validate:"required,min=1,max=10000,dive"`
}

// ConsumeCampaign runs a queued campaign and fans its events out to stream
// subscribers. Per-recipient failures are part of the stream, so only a
// malformed job returns an error.
func (s *Usecase) ConsumeCampaign(ctx context.Context, in ConsumeCampaignInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeCampaign")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "invalid queued campaign", "campaign_id", in.ID, "error", err)
		s.hub.publish(StreamEvent{CampaignID: in.ID, Err: err})
		return goerror.NewInvalidInput(err)
	}

	job := entity.SendJob{
		ID:          in.ID,
		SenderEmail: strings.TrimSpace(in.SenderEmail),
		SenderName:  strings.TrimSpace(in.SenderName),
		Subject:     in.Subject,
		BodyText:    in.Text,
		UseGreeting: in.UseGreeting,
		Recipients:  make([]entity.Recipient, 0, len(in.Recipients)),
	}
	for _, r := range in.Recipients {
		job.Recipients = append(job.Recipients, entity.Recipient{Name: strings.TrimSpace(r.Name), Email: strings.TrimSpace(r.Email)})
	}

	runCtx, release := s.registry.track(ctx, job.ID)
	defer release()

	for ev, err := range s.Deliver(runCtx, job) {
		if err != nil {
			slog.ErrorContext(ctx, "queued campaign aborted", "campaign_id", job.ID, "error", err)
			s.hub.publish(StreamEvent{CampaignID: job.ID, Err: err})
			return err
		}
		s.hub.publish(StreamEvent{CampaignID: job.ID, Event: ev})
	}

	return nil
}
