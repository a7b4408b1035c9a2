package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmsultra/claimsengine/pkg/retry"
)

func fastConfig(attempts int) retry.Config {
	return retry.Config{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		BackoffFactor: 2,
	}
}

func TestDo(t *testing.T) {
	t.Run("returns nil once fn succeeds", func(t *testing.T) {
		calls := 0
		err := retry.Do(context.Background(), fastConfig(5), func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		boom := errors.New("connection refused")
		calls := 0
		err := retry.Do(context.Background(), fastConfig(3), func(ctx context.Context) error {
			calls++
			return boom
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := retry.Do(ctx, fastConfig(3), func(ctx context.Context) error {
			return errors.New("unreachable")
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDoWithNotify(t *testing.T) {
	var attempts []int
	err := retry.DoWithNotify(context.Background(), fastConfig(3), "PostgreSQL", func(ctx context.Context) error {
		return errors.New("down")
	}, func(attempt int, err error, nextDelay time.Duration) {
		attempts = append(attempts, attempt)
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "PostgreSQL: max retry attempts (3) exceeded")
	assert.Equal(t, []int{1, 2}, attempts)
}
