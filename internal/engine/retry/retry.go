// Package retry wraps per-chunk processing with bounded retries and pure
// exponential backoff (no jitter). Attempts are numbered from 0; after a
// failed attempt n the controller sleeps 2^n backoff units before the
// next. Once the attempt budget is exhausted the chunk fails permanently
// with an EnrichmentError and no partial output.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	backoff "github.com/sethvargo/go-retry"

	"github.com/hollomancer/sbir-analytics-sub001/internal/logging"
)

// ErrInvalidMaxRetries rejects non-positive attempt budgets.
var ErrInvalidMaxRetries = errors.New("max retries must be a positive integer")

// DefaultBackoffUnit is the production backoff time unit.
const DefaultBackoffUnit = time.Second

// EnrichmentError reports a chunk that failed every attempt. It is fatal
// to the run: no output exists for the chunk or any later chunk.
type EnrichmentError struct {
	// ChunkID is the failed chunk's index.
	ChunkID int
	// Attempts is the number of attempts made.
	Attempts int
	// Err is the error from the final attempt.
	Err error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("chunk %d failed permanently after %d attempts: %v",
		e.ChunkID, e.Attempts, e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// TransientError tags a recoverable chunk-processing failure, such as a
// flaky downstream call made during matching. The controller retries every
// error regardless; the tag exists so callers can name the cause.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient chunk error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// SleepFunc suspends for the given backoff delay. It returns early with
// ctx.Err() when the context is canceled mid-sleep.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Controller runs chunk processors with a bounded retry budget. The
// backoff sleep is its only suspension point; failed attempts mutate no
// chunk state.
type Controller struct {
	maxRetries int
	unit       time.Duration
	sleep      SleepFunc
}

// NewController creates a Controller allowing maxRetries attempts per
// chunk, sleeping multiples of unit between failures.
func NewController(maxRetries int, unit time.Duration) (*Controller, error) {
	if maxRetries < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxRetries, maxRetries)
	}
	if unit <= 0 {
		unit = DefaultBackoffUnit
	}
	return &Controller{
		maxRetries: maxRetries,
		unit:       unit,
		sleep:      sleepContext,
	}, nil
}

// WithSleep replaces the sleep implementation. Tests use this to capture
// the exact backoff delays without waiting them out.
func (c *Controller) WithSleep(fn SleepFunc) *Controller {
	c.sleep = fn
	return c
}

// Do runs fn until it succeeds or the attempt budget is exhausted. fn
// receives the attempt number, starting at 0. On permanent failure Do
// returns an *EnrichmentError wrapping the final attempt's error.
func (c *Controller) Do(ctx context.Context, chunkID int, fn func(ctx context.Context, attempt int) error) error {
	log := logging.FromContext(ctx)

	// go-retry counts retries after the first attempt, hence maxRetries-1.
	// The exponential sequence yields unit, 2*unit, 4*unit, ...
	policy := backoff.WithMaxRetries(uint64(c.maxRetries-1), backoff.NewExponential(c.unit))

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx, attempt)
		if err == nil {
			if attempt > 0 {
				log.Info().
					Int("chunk_id", chunkID).
					Int("attempt", attempt).
					Msg("chunk succeeded after retry")
			}
			return nil
		}

		delay, stop := policy.Next()
		if stop {
			log.Error().
				Int("chunk_id", chunkID).
				Int("attempts", attempt+1).
				Err(err).
				Msg("chunk failed permanently")
			return &EnrichmentError{ChunkID: chunkID, Attempts: attempt + 1, Err: err}
		}

		log.Warn().
			Int("chunk_id", chunkID).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Err(err).
			Msg("chunk attempt failed, backing off")

		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
	}
}

// sleepContext is the production SleepFunc.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
