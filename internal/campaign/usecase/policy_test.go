package usecase

import (
	"testing"
	"time"

	"github.com/shandysiswandi/mailblast/internal/campaign/entity"
	"github.com/stretchr/testify/assert"
)

func TestPolicy_Advance(t *testing.T) {
	p := DefaultPolicy()

	t.Run("success on first attempt", func(t *testing.T) {
		d, pause := p.Advance(entity.Delivery{Position: 1}, nil, p.Backoff())
		assert.Equal(t, entity.DeliverySent, d.State)
		assert.Equal(t, 1, d.Attempts)
		assert.Zero(t, pause)
	})

	t.Run("fails every attempt", func(t *testing.T) {
		b := p.Backoff()
		d := entity.Delivery{Position: 1}

		var pauses []time.Duration
		var states []entity.DeliveryState
		for !d.State.Done() {
			var pause time.Duration
			d, pause = p.Advance(d, errMailbox, b)
			pauses = append(pauses, pause)
			states = append(states, d.State)
		}

		assert.Equal(t, MaxAttempts, d.Attempts)
		assert.Equal(t, errMailbox.Error(), d.LastError)
		assert.Equal(t, []time.Duration{RetryDelay, RetryDelay, RetryDelay}, pauses)
		assert.Equal(t, []entity.DeliveryState{
			entity.DeliveryAttempting,
			entity.DeliveryAttempting,
			entity.DeliveryPermanentlyFailed,
		}, states)
	})

	t.Run("recovers after failures", func(t *testing.T) {
		b := p.Backoff()
		d, _ := p.Advance(entity.Delivery{}, errTransient, b)
		d, _ = p.Advance(d, errTransient, b)
		d, pause := p.Advance(d, nil, b)

		assert.Equal(t, entity.DeliverySent, d.State)
		assert.Equal(t, 3, d.Attempts)
		assert.Empty(t, d.LastError)
		assert.Zero(t, pause)
	})
}

func TestPolicy_ThrottleAfter(t *testing.T) {
	tests := []struct {
		name     string
		skip     bool
		position int
		total    int
		want     time.Duration
	}{
		{name: "between recipients", position: 1, total: 5, want: Throttle},
		{name: "19th of many", position: 19, total: 40, want: Throttle},
		{name: "batch boundary", position: 20, total: 40, want: BatchPause},
		{name: "second batch boundary", position: 40, total: 41, want: BatchPause},
		{name: "after last kept", position: 5, total: 5, want: Throttle},
		{name: "after last batch boundary kept", position: 20, total: 20, want: BatchPause},
		{name: "after last skipped", skip: true, position: 5, total: 5, want: 0},
		{name: "after last batch boundary skipped", skip: true, position: 20, total: 20, want: 0},
		{name: "skip leaves inner pauses", skip: true, position: 4, total: 5, want: Throttle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			p.SkipTrailingPause = tt.skip
			assert.Equal(t, tt.want, p.ThrottleAfter(tt.position, tt.total))
		})
	}
}

func TestPolicy_WorstCase(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 9*time.Second, p.WorstCase(1))
	assert.Equal(t, 237*time.Second, p.WorstCase(20))
	assert.Zero(t, p.WorstCase(0))

	p.SkipTrailingPause = true
	assert.Equal(t, 6*time.Second, p.WorstCase(1))
}

func TestUsecase_policyFromConfig(t *testing.T) {
	env := newTestEnv(t, "campaign:\n  skip_trailing_pause: true\n")
	assert.True(t, env.uc.policy().SkipTrailingPause)

	env = newTestEnv(t, "")
	assert.False(t, env.uc.policy().SkipTrailingPause)
}
