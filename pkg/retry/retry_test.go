package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/niksmo/e-label/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTemporary = errors.New("temporary")

func noWait(int) time.Duration { return 0 }

func TestDoWithResult(t *testing.T) {
	t.Run("SucceedsAfterRetries", func(t *testing.T) {
		var calls int
		v, err := retry.DoWithResult(
			context.Background(),
			retry.RetryConfig{MaxAttempts: 3, Backoff: noWait},
			func() (int, error) {
				calls++
				if calls < 3 {
					return 0, errTemporary
				}
				return 42, nil
			},
		)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.Equal(t, 3, calls)
	})

	t.Run("ReturnsLastError", func(t *testing.T) {
		var calls int
		_, err := retry.DoWithResult(
			context.Background(),
			retry.RetryConfig{MaxAttempts: 2, Backoff: noWait},
			func() (int, error) {
				calls++
				return 0, errTemporary
			},
		)
		assert.ErrorIs(t, err, errTemporary)
		assert.Equal(t, 2, calls)
	})

	t.Run("StopsOnPermanentError", func(t *testing.T) {
		permanent := errors.New("permanent")
		var calls int
		err := retry.Do(
			context.Background(),
			retry.RetryConfig{
				MaxAttempts: 5,
				Backoff:     noWait,
				ShouldRetry: func(err error) bool {
					return !errors.Is(err, permanent)
				},
			},
			func() error {
				calls++
				return permanent
			},
		)
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := retry.Do(ctx, retry.RetryConfig{}, func() error {
			t.Fatal("must not be called")
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestExponentialBackoff(t *testing.T) {
	b := retry.ExponentialBackoff(10 * time.Millisecond)
	for attempt := 1; attempt <= 4; attempt++ {
		base := time.Duration(1<<attempt) * 10 * time.Millisecond
		d := b(attempt)
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, base+base/2)
	}
}
