package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/mailblast/internal/campaign/entity"
	"github.com/shandysiswandi/mailblast/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConsumeInput() ConsumeCampaignInput {
	return ConsumeCampaignInput{
		ID:          7,
		SenderEmail: "news@x.com",
		Subject:     "Hi",
		Text:        "Hello",
		Recipients:  []RecipientInput{{Name: "A", Email: "a@x.com"}, {Name: "B", Email: "b@x.com"}},
	}
}

func drain(t *testing.T, ch <-chan StreamEvent) []StreamEvent {
	t.Helper()

	var out []StreamEvent
	for {
		select {
		case evt := <-ch:
			out = append(out, evt)
			if evt.Terminal() {
				return out
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for stream event")
			return out
		}
	}
}

func TestConsumeCampaign_StreamsToSubscribers(t *testing.T) {
	env := newTestEnv(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := env.uc.StreamCampaign(ctx, StreamCampaignInput{ID: 7})
	require.NoError(t, err)

	require.NoError(t, env.uc.ConsumeCampaign(context.Background(), validConsumeInput()))

	got := drain(t, ch)
	require.Len(t, got, 3)
	assert.Equal(t, entity.EventSuccess, got[0].Event.Kind)
	assert.Equal(t, "a@x.com", got[0].Event.Email)
	assert.Equal(t, entity.EventSuccess, got[1].Event.Kind)
	assert.Equal(t, entity.EventComplete, got[2].Event.Kind)
	assert.Equal(t, int64(7), got[2].CampaignID)
	assert.Len(t, env.mail.calls, 2)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel is closed on unsubscribe")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestConsumeCampaign_InvalidPublishesError(t *testing.T) {
	env := newTestEnv(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := env.uc.StreamCampaign(ctx, StreamCampaignInput{ID: 7})
	require.NoError(t, err)

	in := validConsumeInput()
	in.SenderEmail = ""
	err = env.uc.ConsumeCampaign(context.Background(), in)
	requireCode(t, err, goerror.CodeInvalidInput)

	got := drain(t, ch)
	require.Len(t, got, 1)
	assert.Error(t, got[0].Err)
	assert.Empty(t, env.mail.calls)
}

func TestConsumeCampaign_Cancel(t *testing.T) {
	env := newTestEnv(t, "")
	env.clock.onSleep = func(n int) {
		if n == 1 {
			assert.NoError(t, env.uc.CancelCampaign(context.Background(), CancelCampaignInput{ID: 7}))
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := env.uc.StreamCampaign(ctx, StreamCampaignInput{ID: 7})
	require.NoError(t, err)

	require.NoError(t, env.uc.ConsumeCampaign(context.Background(), validConsumeInput()))

	got := drain(t, ch)
	require.Len(t, got, 2)
	assert.Equal(t, entity.EventCancelled, got[1].Event.Kind)
}

func TestStreamCampaign_ReplaysLatest(t *testing.T) {
	env := newTestEnv(t, "")
	env.uc.hub.publish(StreamEvent{CampaignID: 3, Event: entity.ProgressEvent{Kind: entity.EventSuccess, Email: "a@x.com", Sent: 1, Total: 4}})
	env.uc.hub.publish(StreamEvent{CampaignID: 3, Event: entity.ProgressEvent{Kind: entity.EventSuccess, Email: "b@x.com", Sent: 2, Total: 4}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := env.uc.StreamCampaign(ctx, StreamCampaignInput{ID: 3})
	require.NoError(t, err)

	select {
	case evt := <-ch:
		assert.Equal(t, "b@x.com", evt.Event.Email)
	case <-time.After(time.Second):
		t.Fatal("expected replayed event")
	}

	env.uc.hub.publish(StreamEvent{CampaignID: 3, Event: entity.ProgressEvent{Kind: entity.EventComplete}})
	_, ok := env.uc.hub.latest[3]
	assert.False(t, ok, "terminal events clear the replay slot")
}

func TestStreamCampaign_InvalidID(t *testing.T) {
	env := newTestEnv(t, "")

	ch, err := env.uc.StreamCampaign(context.Background(), StreamCampaignInput{})

	assert.Nil(t, ch)
	requireCode(t, err, goerror.CodeInvalidInput)
}

func TestHub_DropsWhenSubscriberIsFull(t *testing.T) {
	h := newHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = h.subscribe(ctx, 1)

	for i := range subscriberBuffer + 5 {
		h.publish(StreamEvent{CampaignID: 1, Event: entity.ProgressEvent{Kind: entity.EventSuccess, Sent: i}})
	}

	assert.Equal(t, int64(5), h.dropped.Load())
}

func TestHub_TerminalEventReachesFullSubscriber(t *testing.T) {
	h := newHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := h.subscribe(ctx, 1)

	for i := range subscriberBuffer {
		h.publish(StreamEvent{CampaignID: 1, Event: entity.ProgressEvent{Kind: entity.EventSuccess, Sent: i + 1}})
	}
	h.publish(StreamEvent{CampaignID: 1, Event: entity.ProgressEvent{Kind: entity.EventComplete, Sent: subscriberBuffer}})

	var last StreamEvent
	for range subscriberBuffer {
		last = <-ch
	}

	assert.True(t, last.Terminal())
	assert.Equal(t, entity.EventComplete, last.Event.Kind)
	assert.Equal(t, int64(1), h.dropped.Load())
}
