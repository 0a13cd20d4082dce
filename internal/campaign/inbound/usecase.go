package inbound

import (
	"context"

	"github.com/shandysiswandi/mailblast/internal/campaign/usecase"
)

type ucConsumer interface {
	ConsumeCampaign(ctx context.Context, in usecase.ConsumeCampaignInput) error
}

type ucStream interface {
	StreamCampaign(ctx context.Context, in usecase.StreamCampaignInput) (<-chan usecase.StreamEvent, error)
}

type uc interface {
	ucConsumer
	ucStream

	SendCampaign(ctx context.Context, in usecase.SendCampaignInput) (*usecase.SendCampaignOutput, error)
	QueueCampaign(ctx context.Context, in usecase.SendCampaignInput) (*usecase.QueueCampaignOutput, error)
	CancelCampaign(ctx context.Context, in usecase.CancelCampaignInput) error
	ImportRecipients(ctx context.Context, in usecase.ImportRecipientsInput) (*usecase.ImportRecipientsOutput, error)
	ImportRecipientsFromObject(ctx context.Context, in usecase.ImportRecipientsFromObjectInput) (*usecase.ImportRecipientsOutput, error)
}
