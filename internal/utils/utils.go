package utils

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var sleep = time.Sleep

func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Backoff describes a doubling retry schedule bounded by Timeout.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Timeout time.Duration
}

// DefaultBackoff starts at 500ms, doubles up to 5s and gives up after 30s.
func DefaultBackoff() Backoff {
	return Backoff{Initial: 500 * time.Millisecond, Max: 5 * time.Second, Timeout: 30 * time.Second}
}

// Retry calls fn until it succeeds, the context is done or the timeout elapses.
// onRetry, when set, is called with each failed attempt before waiting.
func Retry(ctx context.Context, b Backoff, fn func(ctx context.Context) error, onRetry func(attempt int, err error)) error {
	if b.Initial <= 0 {
		b.Initial = DefaultBackoff().Initial
	}
	if b.Max < b.Initial {
		b.Max = b.Initial
	}

	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	delay := b.Initial
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}

		if waitErr := WaitFor(ctx, delay); waitErr != nil {
			if errors.Is(waitErr, context.DeadlineExceeded) {
				return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
			}
			return waitErr
		}

		if delay < b.Max {
			delay = min(delay*2, b.Max)
		}
	}
}
