package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shandysiswandi/mailblast/internal/pkg/goerror"
)

// registry maps running campaign ids to their cancel funcs.
type registry struct {
	mu      sync.Mutex
	cancels map[int64]context.CancelCauseFunc
}

func newRegistry() *registry {
	return &registry{cancels: make(map[int64]context.CancelCauseFunc)}
}

// track derives a cancellable context for campaign id. The returned release
// must be called when the campaign stops.
func (r *registry) track(ctx context.Context, id int64) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)

	r.mu.Lock()
	r.cancels[id] = cancel
	r.mu.Unlock()

	return ctx, func() {
		r.mu.Lock()
		delete(r.cancels, id)
		r.mu.Unlock()
		cancel(nil)
	}
}

func (r *registry) cancel(id int64) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	r.mu.Unlock()

	if ok {
		cancel(ErrCampaignCancelled)
	}
	return ok
}

func (r *registry) running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}

type CancelCampaignInput struct {
	ID int64 `validate:"required,gt=0"`
}

// CancelCampaign stops a campaign running on this instance. The loop ends
// with a Cancelled event at its next check.
func (s *Usecase) CancelCampaign(ctx context.Context, in CancelCampaignInput) error {
	ctx, span := s.startSpan(ctx, "CancelCampaign")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if !s.registry.cancel(in.ID) {
		return goerror.NewBusiness("Campaign not found or already finished", goerror.CodeNotFound)
	}

	slog.InfoContext(ctx, "campaign cancel requested", "campaign_id", in.ID, "running", s.registry.running())

	return nil
}
