package mq

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/mailblast/internal/campaign/entity"
	"github.com/shandysiswandi/mailblast/internal/pkg/instrument"
	"github.com/shandysiswandi/mailblast/internal/pkg/messaging"
	"github.com/shandysiswandi/mailblast/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client  messaging.Messaging
	ins     instrument.Instrumentation
	backoff func() retry.Backoff
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{
		client: client,
		ins:    ins,
		backoff: func() retry.Backoff {
			b := retry.NewExponential(100 * time.Millisecond)
			b = retry.WithCappedDuration(2*time.Second, b)
			return retry.WithMaxRetries(3, b)
		},
	}
}

func (m *Messaging) PublishCampaign(ctx context.Context, job entity.SendJob) error {
	ctx, span := m.ins.Tracer("campaign.outbound.mq").Start(ctx, "PublishCampaign")
	defer span.End()

	recipients := make([]event.CampaignRecipient, 0, len(job.Recipients))
	for _, r := range job.Recipients {
		recipients = append(recipients, event.CampaignRecipient{Name: r.Name, Email: r.Email})
	}

	body, err := json.Marshal(event.CampaignSendMessage{
		CampaignID:  job.ID,
		SenderEmail: job.SenderEmail,
		SenderName:  job.SenderName,
		Subject:     job.Subject,
		Text:        job.BodyText,
		UseGreeting: job.UseGreeting,
		Recipients:  recipients,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	msg := messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(strconv.FormatInt(job.ID, 10)),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}

	err = retry.Do(ctx, m.backoff(), func(ctx context.Context) error {
		_, err := m.client.Publish(ctx, event.CampaignSendDestination, msg)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, messaging.ErrClosed), errors.Is(err, messaging.ErrDestinationRequired):
			return err
		default:
			slog.WarnContext(ctx, "retrying campaign publish", "campaign_id", job.ID, "error", err)
			return retry.RetryableError(err)
		}
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
