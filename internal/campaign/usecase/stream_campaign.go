package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shandysiswandi/mailblast/internal/campaign/entity"
	"github.com/shandysiswandi/mailblast/internal/pkg/goerror"
	"go.uber.org/atomic"
)

const subscriberBuffer = 32

// StreamEvent is one update of a queued campaign. Err is set when the
// campaign was aborted; no event follows it.
type StreamEvent struct {
	CampaignID int64
	Event      entity.ProgressEvent
	Err        error
}

// Terminal reports whether the campaign ended with this event.
func (e StreamEvent) Terminal() bool {
	return e.Err != nil || e.Event.Kind.Terminal()
}

type subscriber struct {
	ch     chan StreamEvent
	closed atomic.Bool
}

// hub fans queued campaign events out to subscribers. Progress delivery is
// best-effort: a full subscriber buffer drops the update. A terminal event
// replaces the oldest buffered update instead.
type hub struct {
	mu      sync.RWMutex
	subs    map[int64]map[*subscriber]struct{}
	latest  map[int64]StreamEvent
	dropped atomic.Int64
}

func newHub() *hub {
	return &hub{
		subs:   make(map[int64]map[*subscriber]struct{}),
		latest: make(map[int64]StreamEvent),
	}
}

func (h *hub) subscribe(ctx context.Context, id int64) <-chan StreamEvent {
	sub := &subscriber{ch: make(chan StreamEvent, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[id] == nil {
		h.subs[id] = make(map[*subscriber]struct{})
	}
	h.subs[id][sub] = struct{}{}
	// late subscribers start from the most recent progress
	if last, ok := h.latest[id]; ok {
		sub.ch <- last
	}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		if subs := h.subs[id]; subs != nil {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(h.subs, id)
			}
		}
		sub.closed.Store(true)
		close(sub.ch)
		h.mu.Unlock()
	}()

	return sub.ch
}

func (h *hub) publish(evt StreamEvent) {
	h.mu.Lock()
	if evt.Terminal() {
		delete(h.latest, evt.CampaignID)
	} else {
		h.latest[evt.CampaignID] = evt
	}
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[evt.CampaignID] {
		if sub.closed.Load() {
			continue
		}

		select {
		case sub.ch <- evt:
		default:
			h.dropped.Inc()
			if evt.Terminal() {
				// evict the oldest update so the subscriber still sees the end
				select {
				case <-sub.ch:
				default:
				}
				select {
				case sub.ch <- evt:
				default:
				}
			}
		}
	}
}

type StreamCampaignInput struct {
	ID int64 `validate:"required,gt=0"`
}

// StreamCampaign subscribes to a queued campaign until ctx is done. The
// channel is closed on unsubscribe.
func (s *Usecase) StreamCampaign(ctx context.Context, in StreamCampaignInput) (<-chan StreamEvent, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	slog.DebugContext(ctx, "campaign stream subscribed", "campaign_id", in.ID, "dropped_total", s.hub.dropped.Load())

	return s.hub.subscribe(ctx, in.ID), nil
}
