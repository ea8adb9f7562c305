// Package retry provides a bounded retry policy with pluggable backoff,
// used around transient upstream failures.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Backoff computes the wait before the next attempt. attempt is 1-based
// and counts the attempts already made.
type Backoff func(attempt int) time.Duration

// Exponential returns a backoff of base * 2^attempt.
func Exponential(base time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return base * time.Duration(1<<uint(attempt))
	}
}

// Policy is a synchronous bounded retry policy. The zero value is not
// usable; construct with New.
type Policy struct {
	MaxAttempts int
	Backoff     Backoff

	// Retryable reports whether an error is transient. A nil func
	// retries every error.
	Retryable func(error) bool

	// Sleep is overridable for tests. Defaults to a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

func New(maxAttempts int, backoff Backoff) *Policy {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Policy{
		MaxAttempts: maxAttempts,
		Backoff:     backoff,
		Sleep:       sleepCtx,
	}
}

// Do runs fn until it succeeds, the error is not retryable, or the
// attempt budget is exhausted. The backoff sleep happens between
// attempts, never after the last one.
func (p *Policy) Do(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		wait := time.Duration(0)
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		sleep := p.Sleep
		if sleep == nil {
			sleep = sleepCtx
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}

	return fmt.Errorf("retries exhausted after %d attempts: %w", p.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
