// Package retry wraps an operation with bounded exponential backoff. The
// gateway client never retries on its own; callers compose with this package
// explicitly.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Options bound the retry loop. The zero value of MaxAttempts means a single
// attempt (no retries).
type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// Jitter randomizes each delay by up to half its value to avoid
	// synchronized retries.
	Jitter bool

	// RetryIf judges whether an error is worth retrying. Nil retries every
	// error.
	RetryIf func(error) bool
}

// Do executes op, retrying on failure with exponential backoff
// (min(BaseDelay * 2^attempt, MaxDelay)) while attempts remain and RetryIf
// approves. The last error propagates unchanged when the attempts are
// exhausted or the error is judged non-retryable. The wait honors ctx
// cancellation.
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts Options) (T, error) {
	var zero T

	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(baseDelay, maxDelay, attempt-1, opts.Jitter)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if opts.RetryIf != nil && !opts.RetryIf(err) {
			return zero, err
		}
	}

	return zero, lastErr
}

func backoffDelay(base, max time.Duration, attempt int, jitter bool) time.Duration {
	delay := base << attempt
	if delay > max || delay <= 0 {
		delay = max
	}
	if jitter {
		delay += time.Duration(rand.Int63n(int64(delay)/2 + 1))
		if delay > max {
			delay = max
		}
	}
	return delay
}
