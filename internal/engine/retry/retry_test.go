package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSleep records backoff delays instead of sleeping.
func captureSleep(delays *[]time.Duration) SleepFunc {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestControllerSucceedsFirstAttempt(t *testing.T) {
	c, err := NewController(3, time.Second)
	require.NoError(t, err)

	var delays []time.Duration
	c.WithSleep(captureSleep(&delays))

	calls := 0
	err = c.Do(context.Background(), 0, func(_ context.Context, attempt int) error {
		calls++
		assert.Equal(t, 0, attempt)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestControllerRecoversWithBackoff(t *testing.T) {
	// Fails on attempts 0 and 1, succeeds on attempt 2: exactly two
	// backoff sleeps of 1 and 2 units.
	c, err := NewController(3, time.Second)
	require.NoError(t, err)

	var delays []time.Duration
	c.WithSleep(captureSleep(&delays))

	var attempts []int
	err = c.Do(context.Background(), 7, func(_ context.Context, attempt int) error {
		attempts = append(attempts, attempt)
		if attempt < 2 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, attempts)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, delays)
}

func TestControllerExhaustsRetries(t *testing.T) {
	c, err := NewController(3, time.Second)
	require.NoError(t, err)

	var delays []time.Duration
	c.WithSleep(captureSleep(&delays))

	cause := errors.New("downstream unavailable")
	calls := 0
	err = c.Do(context.Background(), 4, func(_ context.Context, _ int) error {
		calls++
		return &TransientError{Err: cause}
	})

	require.Error(t, err)
	var enrichErr *EnrichmentError
	require.ErrorAs(t, err, &enrichErr)
	assert.Equal(t, 4, enrichErr.ChunkID)
	assert.Equal(t, 3, enrichErr.Attempts)
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, 3, calls)
	// Two sleeps happened before the final failed attempt.
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, delays)
}

func TestControllerSingleAttempt(t *testing.T) {
	c, err := NewController(1, time.Second)
	require.NoError(t, err)

	var delays []time.Duration
	c.WithSleep(captureSleep(&delays))

	calls := 0
	err = c.Do(context.Background(), 0, func(_ context.Context, _ int) error {
		calls++
		return errors.New("boom")
	})

	var enrichErr *EnrichmentError
	require.ErrorAs(t, err, &enrichErr)
	assert.Equal(t, 1, enrichErr.Attempts)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestControllerContextCanceled(t *testing.T) {
	c, err := NewController(3, time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err = c.Do(ctx, 0, func(_ context.Context, _ int) error {
		calls++
		cancel()
		return errors.New("fail then cancel")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestNewControllerValidation(t *testing.T) {
	_, err := NewController(0, time.Second)
	assert.ErrorIs(t, err, ErrInvalidMaxRetries)

	_, err = NewController(-1, time.Second)
	assert.ErrorIs(t, err, ErrInvalidMaxRetries)
}
