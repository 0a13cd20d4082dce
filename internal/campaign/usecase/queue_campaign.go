package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/mailblast/internal/pkg/goerror"
	"github.com/shandysiswandi/mailblast/internal/pkg/idempotency"
)

type QueueCampaignOutput struct {
	CampaignID int64
}

// QueueCampaign validates the campaign and hands it to the broker. A consumer
// runs the delivery loop and its progress is available via StreamCampaign.
func (s *Usecase) QueueCampaign(ctx context.Context, in SendCampaignInput) (*QueueCampaignOutput, error) {
	ctx, span := s.startSpan(ctx, "QueueCampaign")
	defer span.End()

	if s.repoMQ == nil {
		return nil, goerror.NewBusiness("Campaign queue is not configured", goerror.CodeUnavailable)
	}

	job, err := s.prepareJob(in)
	if err != nil {
		return nil, err
	}

	publish := func(ctx context.Context) error {
		return s.repoMQ.PublishCampaign(ctx, job)
	}

	if key := idempotencyKey("queue", in.IdempotencyKey); key != "" {
		err = s.idem.Exec(ctx, key, publish,
			idempotency.WithLockDuration(time.Minute),
			idempotency.WithStateTTL(s.idempotencyTTL()),
		)
	} else {
		err = publish(ctx)
	}
	if err := idempotencyConflict(err); err != nil {
		if _, ok := goerror.As(err); ok {
			return nil, err
		}
		slog.ErrorContext(ctx, "failed to publish campaign", "campaign_id", job.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "campaign queued", "campaign_id", job.ID, "total", len(job.Recipients))

	return &QueueCampaignOutput{CampaignID: job.ID}, nil
}
