package schedule

import (
	"context"
	"fmt"
	"time"
)

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry calls op up to attempts times, waiting delay between attempts.
// Attempt numbers passed to op and onFail start at 1. onFail, when non-nil, is
// called after every failed attempt. On exhaustion the last error is returned.
func Retry(
	ctx context.Context,
	attempts int,
	delay time.Duration,
	op func(attempt int) error,
	onFail func(attempt int, err error),
) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := Sleep(ctx, delay); err != nil {
				return fmt.Errorf("retry aborted: %w", err)
			}
		}

		err := op(attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if onFail != nil {
			onFail(attempt, err)
		}
	}
	return lastErr
}

// WithTimeout runs fn with a context bounded by d. The call returns when fn
// returns or when the deadline passes, even if fn ignores its context.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("timed out after %s: %w", d, ctx.Err())
	}
}
