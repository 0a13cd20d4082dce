package usecase

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/mailblast/internal/campaign/entity"
	"github.com/shandysiswandi/mailblast/internal/pkg/config"
	"github.com/shandysiswandi/mailblast/internal/pkg/idempotency"
	"github.com/shandysiswandi/mailblast/internal/pkg/instrument"
	"github.com/shandysiswandi/mailblast/internal/pkg/mail"
	"github.com/shandysiswandi/mailblast/internal/pkg/validator"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

var (
	errTransient = errors.New("421 service not available, try again later")
	errMailbox   = errors.New("550 mailbox unavailable")
)

type fakeClock struct {
	mu      sync.Mutex
	sleeps  []time.Duration
	onSleep func(n int)
}

func (c *fakeClock) Now() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	n := len(c.sleeps)
	hook := c.onSleep
	c.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return ctx.Err()
}

// pauses returns the non-zero sleeps.
func (c *fakeClock) pauses() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]time.Duration, 0, len(c.sleeps))
	for _, d := range c.sleeps {
		if d > 0 {
			out = append(out, d)
		}
	}
	return out
}

// fakeMail fails an address the configured number of times before
// accepting it; a negative count fails forever.
type fakeMail struct {
	mu     sync.Mutex
	calls  []mail.Message
	fails  map[string]int
	onSend func(msg mail.Message) error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, msg)
	if f.onSend != nil {
		if err := f.onSend(msg); err != nil {
			return err
		}
	}

	email := msg.To[0]
	switch n := f.fails[email]; {
	case n < 0:
		return errMailbox
	case n > 0:
		f.fails[email] = n - 1
		return errTransient
	default:
		return nil
	}
}

func (f *fakeMail) callsTo(email string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, m := range f.calls {
		if m.To[0] == email {
			n++
		}
	}
	return n
}

type seqID struct{ n atomic.Int64 }

func (s *seqID) Generate() int64 { return s.n.Inc() }

// memIdempotency keeps idempotency state in memory.
type memIdempotency struct {
	mu     sync.Mutex
	states map[string]idempotency.State
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{states: map[string]idempotency.State{}}
}

func (m *memIdempotency) Acquire(_ context.Context, key string, _ time.Duration) (idempotency.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st, ok := m.states[key]; ok {
		return st, nil
	}
	m.states[key] = idempotency.StateInProgress
	return idempotency.StateNone, nil
}

func (m *memIdempotency) MarkCompleted(_ context.Context, key string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[key] = idempotency.StateCompleted
	return nil
}

func (m *memIdempotency) MarkFailed(_ context.Context, key string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[key] = idempotency.StateFailed
	return nil
}

func (m *memIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	st, err := m.Acquire(ctx, key, 0)
	if err != nil {
		return err
	}
	if err := st.Err(); err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		_ = m.MarkFailed(ctx, key, 0)
		return err
	}
	return m.MarkCompleted(ctx, key, 0)
}

type mockMQ struct{ mock.Mock }

func (m *mockMQ) PublishCampaign(ctx context.Context, job entity.SendJob) error {
	return m.Called(ctx, job).Error(0)
}

type fakeStorage struct {
	data []byte
	err  error
}

func (f *fakeStorage) ReadObject(context.Context, string, string, int64) ([]byte, error) {
	return f.data, f.err
}

type testEnv struct {
	uc    *Usecase
	mail  *fakeMail
	clock *fakeClock
	idem  *memIdempotency
	mq    *mockMQ
	store *fakeStorage
}

func newTestEnv(t *testing.T, yaml string) *testEnv {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: mailblast\n"+yaml))
	require.NoError(t, err)

	v, err := validator.NewV10Validator(validator.WithSenderDomains(func() []string {
		return cfg.GetArray("mail.allowed_sender_domains")
	}))
	require.NoError(t, err)

	env := &testEnv{
		mail:  &fakeMail{fails: map[string]int{}},
		clock: &fakeClock{},
		idem:  newMemIdempotency(),
		mq:    &mockMQ{},
		store: &fakeStorage{},
	}
	env.uc = NewCampaign(Dependency{
		Config:      cfg,
		Clock:       env.clock,
		UID:         &seqID{},
		Validator:   v,
		Instrument:  instrument.NewNoop(),
		RepoMail:    env.mail,
		RepoMQ:      env.mq,
		RepoStorage: env.store,
		Idempotency: env.idem,
	})

	return env
}

func collect(t *testing.T, seq iter.Seq2[entity.ProgressEvent, error]) []entity.ProgressEvent {
	t.Helper()

	var events []entity.ProgressEvent
	for ev, err := range seq {
		require.NoError(t, err)
		events = append(events, ev)
	}
	return events
}

func recipients(emails ...string) []entity.Recipient {
	out := make([]entity.Recipient, 0, len(emails))
	for _, e := range emails {
		out = append(out, entity.Recipient{Name: e[:1], Email: e})
	}
	return out
}

func numbered(n int) []entity.Recipient {
	out := make([]entity.Recipient, 0, n)
	for i := range n {
		out = append(out, entity.Recipient{Name: "R", Email: "r" + string(rune('a'+i%26)) + string(rune('a'+i/26)) + "@x.com"})
	}
	return out
}

func job(rs []entity.Recipient) entity.SendJob {
	return entity.SendJob{
		ID:          42,
		SenderEmail: "news@x.com",
		SenderName:  "News",
		Subject:     "Hi",
		BodyText:    "Hello",
		Recipients:  rs,
	}
}
