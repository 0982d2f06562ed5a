package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_SucceedsFirstAttempt(t *testing.T) {
	var slept []time.Duration
	p := NewPolicy(3, 2*time.Second).WithSleep(func(d time.Duration) { slept = append(slept, d) })

	calls := 0
	err := p.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, slept)
}

func TestPolicy_RetriesWithFixedDelay(t *testing.T) {
	var slept []time.Duration
	p := NewPolicy(3, 2*time.Second).WithSleep(func(d time.Duration) { slept = append(slept, d) })

	calls := 0
	err := p.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, slept)
}

func TestPolicy_ExhaustionReturnsLastError(t *testing.T) {
	p := NewPolicy(3, time.Millisecond).WithSleep(func(time.Duration) {})

	last := errors.New("still broken")
	calls := 0
	err := p.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return last
	})
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, last)
}

func TestPolicy_ZeroAttemptsRunsOnce(t *testing.T) {
	p := NewPolicy(0, time.Second).WithSleep(func(time.Duration) {})

	calls := 0
	_ = p.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return errors.New("x")
	})
	assert.Equal(t, 1, calls)
}

func TestPolicy_ContextCancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPolicy(5, time.Second).WithSleep(func(time.Duration) {})

	calls := 0
	err := p.Do(ctx, "op", func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}
