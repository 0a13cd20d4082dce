package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/mailblast/internal/campaign/entity"
	"github.com/shandysiswandi/mailblast/internal/pkg/goerror"
	"github.com/shandysiswandi/mailblast/internal/pkg/idempotency"
	"github.com/shandysiswandi/mailblast/internal/pkg/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func validSendInput() SendCampaignInput {
	return SendCampaignInput{
		SenderEmail: " news@x.com ",
		SenderName:  " News ",
		Subject:     "Hi",
		Text:        "Hello",
		Recipients: []RecipientInput{
			{Name: " A ", Email: " a@x.com "},
			{Name: "B", Email: "b@x.com"},
		},
	}
}

func requireCode(t *testing.T, err error, code goerror.Code) *goerror.Error {
	t.Helper()

	require.Error(t, err)
	ge, ok := goerror.As(err)
	require.True(t, ok, "expected *goerror.Error, got %T", err)
	assert.Equal(t, code, ge.Code())
	return ge
}

func TestSendCampaign(t *testing.T) {
	env := newTestEnv(t, "")

	out, err := env.uc.SendCampaign(context.Background(), validSendInput())
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.CampaignID)
	assert.Empty(t, env.mail.calls, "nothing is sent before the events are ranged over")

	events := collect(t, out.Events)

	require.Len(t, events, 3)
	assert.Equal(t, entity.EventComplete, events[2].Kind)
	require.Len(t, env.mail.calls, 2)
	assert.Equal(t, `"News" <news@x.com>`, env.mail.calls[0].From)
	assert.Equal(t, []string{"a@x.com"}, env.mail.calls[0].To)
	assert.Equal(t, int64(1), events[0].CampaignID)
}

func TestSendCampaign_Validation(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		mutate func(in *SendCampaignInput)
		keys   []string
	}{
		{
			name:   "missing sender",
			mutate: func(in *SendCampaignInput) { in.SenderEmail = "  " },
			keys:   []string{"sender_email"},
		},
		{
			name:   "invalid sender",
			mutate: func(in *SendCampaignInput) { in.SenderEmail = "not-an-email" },
			keys:   []string{"sender_email"},
		},
		{
			name:   "blank subject and text",
			mutate: func(in *SendCampaignInput) { in.Subject, in.Text = " ", "\n" },
			keys:   []string{"subject", "text"},
		},
		{
			name:   "no recipients",
			mutate: func(in *SendCampaignInput) { in.Recipients = nil },
			keys:   []string{"recipients"},
		},
		{
			name:   "sender domain not allowed",
			yaml:   "mail:\n  allowed_sender_domains:\n    - example.org\n",
			mutate: func(in *SendCampaignInput) {},
			keys:   []string{"sender_email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.yaml)
			in := validSendInput()
			tt.mutate(&in)

			out, err := env.uc.SendCampaign(context.Background(), in)

			assert.Nil(t, out)
			ge := requireCode(t, err, goerror.CodeInvalidInput)
			assert.Equal(t, 422, ge.StatusCode())

			var fields interface{ Values() map[string]string }
			require.ErrorAs(t, err, &fields)
			for _, k := range tt.keys {
				assert.Contains(t, fields.Values(), k)
			}
			assert.Empty(t, env.mail.calls)
		})
	}
}

func TestSendCampaign_AllowedSenderDomain(t *testing.T) {
	env := newTestEnv(t, "mail:\n  allowed_sender_domains:\n    - X.com\n")

	out, err := env.uc.SendCampaign(context.Background(), validSendInput())

	require.NoError(t, err)
	assert.NotZero(t, out.CampaignID)
}

func TestSendCampaign_Idempotency(t *testing.T) {
	env := newTestEnv(t, "")
	in := validSendInput()
	in.IdempotencyKey = "k1"

	first, err := env.uc.SendCampaign(context.Background(), in)
	require.NoError(t, err)

	_, err = env.uc.SendCampaign(context.Background(), in)
	ge := requireCode(t, err, goerror.CodeConflict)
	assert.Contains(t, ge.Msg(), "still running")

	collect(t, first.Events)
	assert.Equal(t, idempotency.StateCompleted, env.idem.states["send:k1"])

	_, err = env.uc.SendCampaign(context.Background(), in)
	ge = requireCode(t, err, goerror.CodeConflict)
	assert.Contains(t, ge.Msg(), "already sent")

	assert.Len(t, env.mail.calls, 2)
}

func TestSendCampaign_IdempotencyFailedWhenAbandoned(t *testing.T) {
	env := newTestEnv(t, "")
	in := validSendInput()
	in.IdempotencyKey = "k2"

	out, err := env.uc.SendCampaign(context.Background(), in)
	require.NoError(t, err)

	for range out.Events {
		break
	}
	assert.Equal(t, idempotency.StateFailed, env.idem.states["send:k2"])

	_, err = env.uc.SendCampaign(context.Background(), in)
	ge := requireCode(t, err, goerror.CodeConflict)
	assert.Contains(t, ge.Msg(), "previously failed")
}

func TestSendCampaign_WithoutKeySkipsIdempotency(t *testing.T) {
	env := newTestEnv(t, "")

	for range 2 {
		out, err := env.uc.SendCampaign(context.Background(), validSendInput())
		require.NoError(t, err)
		collect(t, out.Events)
	}

	assert.Empty(t, env.idem.states)
	assert.Len(t, env.mail.calls, 4)
}

func sendInputTo(emails ...string) SendCampaignInput {
	in := validSendInput()
	in.Recipients = nil
	for _, e := range emails {
		in.Recipients = append(in.Recipients, RecipientInput{Name: "R", Email: e})
	}
	return in
}

func TestSendCampaign_ConcurrentCampaignsShareTransportInTurn(t *testing.T) {
	env := newTestEnv(t, "")

	secondReady := make(chan struct{})
	var first sync.Once
	env.mail.onSend = func(mail.Message) error {
		// give the other campaign time to reach the transport
		first.Do(func() {
			<-secondReady
			time.Sleep(20 * time.Millisecond)
		})
		return nil
	}

	outA, err := env.uc.SendCampaign(context.Background(), sendInputTo("a1@x.com", "a2@x.com", "a3@x.com"))
	require.NoError(t, err)
	outB, err := env.uc.SendCampaign(context.Background(), sendInputTo("b1@x.com", "b2@x.com", "b3@x.com"))
	require.NoError(t, err)

	var (
		wg               sync.WaitGroup
		eventsA, eventsB []entity.ProgressEvent
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		eventsA = collect(t, outA.Events)
	}()
	go func() {
		defer wg.Done()
		close(secondReady)
		eventsB = collect(t, outB.Events)
	}()
	wg.Wait()

	require.NotEmpty(t, eventsA)
	require.NotEmpty(t, eventsB)
	assert.Equal(t, entity.EventComplete, eventsA[len(eventsA)-1].Kind)
	assert.Equal(t, 3, eventsA[len(eventsA)-1].Sent)
	assert.Equal(t, entity.EventComplete, eventsB[len(eventsB)-1].Kind)
	assert.Equal(t, 3, eventsB[len(eventsB)-1].Sent)

	env.mail.mu.Lock()
	defer env.mail.mu.Unlock()
	require.Len(t, env.mail.calls, 6)

	switches := 0
	for i := 1; i < len(env.mail.calls); i++ {
		if env.mail.calls[i].To[0][0] != env.mail.calls[i-1].To[0][0] {
			switches++
		}
	}
	assert.Equal(t, 1, switches, "sends of the two campaigns interleaved")
}

func TestSendCampaign_CancelWhileWaitingForTransport(t *testing.T) {
	env := newTestEnv(t, "")

	started := make(chan struct{})
	hold := make(chan struct{})
	env.mail.onSend = func(msg mail.Message) error {
		if msg.To[0] == "a1@x.com" {
			close(started)
			<-hold
		}
		return nil
	}

	outA, err := env.uc.SendCampaign(context.Background(), sendInputTo("a1@x.com"))
	require.NoError(t, err)

	done := make(chan []entity.ProgressEvent)
	go func() { done <- collect(t, outA.Events) }()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	outB, err := env.uc.SendCampaign(ctx, sendInputTo("b1@x.com"))
	require.NoError(t, err)

	waiting := make(chan []entity.ProgressEvent)
	go func() { waiting <- collect(t, outB.Events) }()
	cancel()

	select {
	case events := <-waiting:
		require.Len(t, events, 1)
		assert.Equal(t, entity.EventCancelled, events[0].Kind)
		assert.Equal(t, 0, events[0].Sent)
	case <-time.After(2 * time.Second):
		t.Fatal("waiting campaign did not observe cancellation")
	}

	close(hold)
	eventsA := <-done
	assert.Equal(t, entity.EventComplete, eventsA[len(eventsA)-1].Kind)
	assert.Equal(t, 0, env.mail.callsTo("b1@x.com"))
}

type recordingInstrument struct {
	tp *sdktrace.TracerProvider
}

func (r recordingInstrument) Tracer(name string) trace.Tracer { return r.tp.Tracer(name) }

func (r recordingInstrument) Meter(name string) metric.Meter {
	return metricnoop.NewMeterProvider().Meter(name)
}

func (r recordingInstrument) Shutdown(ctx context.Context) error { return r.tp.Shutdown(ctx) }

func TestSendCampaign_DeliverySpanParentsToCaller(t *testing.T) {
	env := newTestEnv(t, "")
	rec := tracetest.NewSpanRecorder()
	env.uc.ins = recordingInstrument{tp: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))}

	ctx, request := env.uc.ins.Tracer("test").Start(context.Background(), "request")
	out, err := env.uc.SendCampaign(ctx, validSendInput())
	require.NoError(t, err)
	collect(t, out.Events)
	request.End()

	spans := map[string]sdktrace.ReadOnlySpan{}
	for _, sp := range rec.Ended() {
		spans[sp.Name()] = sp
	}
	require.Contains(t, spans, "SendCampaign")
	require.Contains(t, spans, "Deliver")

	deliver := spans["Deliver"]
	assert.Equal(t, request.SpanContext().SpanID(), deliver.Parent().SpanID())
	assert.NotEqual(t, spans["SendCampaign"].SpanContext().SpanID(), deliver.Parent().SpanID())
}
