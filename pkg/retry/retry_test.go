package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	var delays []time.Duration
	policy := New(3, Exponential(time.Second))
	policy.Sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, delays)
}

func TestDoExhaustsAttempts(t *testing.T) {
	policy := New(3, Exponential(time.Second))
	policy.Sleep = func(ctx context.Context, d time.Duration) error { return nil }

	calls := 0
	boom := errors.New("boom")
	err := policy.Do(context.Background(), func() error {
		calls++
		return boom
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, boom)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	policy := New(3, nil)
	policy.Retryable = func(err error) bool { return !errors.Is(err, fatal) }
	policy.Sleep = func(ctx context.Context, d time.Duration) error { return nil }

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := New(3, nil)
	err := policy.Do(ctx, func() error { return errors.New("never retried") })
	assert.ErrorIs(t, err, context.Canceled)
}
