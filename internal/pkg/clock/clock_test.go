package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeClocker_Sleep(t *testing.T) {
	t.Run("returns after duration", func(t *testing.T) {
		c := New()
		start := time.Now()
		require.NoError(t, c.Sleep(context.Background(), 10*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("zero duration returns immediately", func(t *testing.T) {
		assert.NoError(t, New().Sleep(context.Background(), 0))
	})

	t.Run("canceled context interrupts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(5 * time.Millisecond)
			cancel()
		}()

		err := New().Sleep(ctx, time.Minute)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("already canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, New().Sleep(ctx, 0), context.Canceled)
	})
}
