package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/mailblast/internal/campaign/usecase"
	"github.com/shandysiswandi/mailblast/internal/pkg/goerror"
	"github.com/shandysiswandi/mailblast/internal/pkg/instrument"
	"github.com/shandysiswandi/mailblast/internal/pkg/messaging"
	"github.com/shandysiswandi/mailblast/internal/pkg/uid"
	"github.com/shandysiswandi/mailblast/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   ucConsumer
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	if cID := messaging.HeaderValue(headers, keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// CampaignSendDelivery runs a queued campaign. The message is acked before
// delivery starts: a campaign can outlive any broker redelivery timeout and
// a redelivered message would send every email again.
func (h *MQHandler) CampaignSendDelivery(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("campaign.inbound.mq").Start(ctx, "CampaignSendDelivery")
	defer span.End()

	if err := msg.Ack(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to ack campaign message", "msg_id", msg.ID(), "error", err)
		return err
	}

	body := msg.Body()
	var payload event.CampaignSendMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of campaign send", "msg_body", string(body), "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: campaign send", "campaign_id", payload.CampaignID, "total", len(payload.Recipients))

	err := h.uc.ConsumeCampaign(ctx, usecase.ConsumeCampaignInput{
		ID:          payload.CampaignID,
		SenderEmail: payload.SenderEmail,
		SenderName:  payload.SenderName,
		Subject:     payload.Subject,
		Text:        payload.Text,
		UseGreeting: payload.UseGreeting,
		Recipients: lo.Map(payload.Recipients, func(r event.CampaignRecipient, _ int) usecase.RecipientInput {
			return usecase.RecipientInput{Name: r.Name, Email: r.Email}
		}),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to consume campaign send", "campaign_id", payload.CampaignID, "error", err)
		if ge, ok := goerror.As(err); ok && ge.Type() == goerror.TypeValidation {
			return nil
		}
		if errors.Is(err, usecase.ErrMalformedJob) {
			return nil
		}
		return err
	}

	return nil
}
