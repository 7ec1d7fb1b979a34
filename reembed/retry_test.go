package reembed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingFor returns an operation that fails its first n calls and counts
// every call in calls.
func failingFor(n int, calls *int) func() error {
	return func() error {
		*calls++
		if *calls <= n {
			return errors.New("embedding service unavailable")
		}
		return nil
	}
}

func TestRetryWithBackoff_Attempts(t *testing.T) {
	cases := []struct {
		name        string
		failures    int
		maxAttempts int
		wantCalls   int
		wantErr     bool
	}{
		{name: "first call succeeds", failures: 0, maxAttempts: 3, wantCalls: 1},
		{name: "recovers before the limit", failures: 2, maxAttempts: 5, wantCalls: 3},
		{name: "recovers on the last attempt", failures: 2, maxAttempts: 3, wantCalls: 3},
		{name: "gives up at the limit", failures: 10, maxAttempts: 3, wantCalls: 3, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(context.Background(), failingFor(tc.failures, &calls), tc.maxAttempts, time.Millisecond)
			if tc.wantErr {
				assert.EqualError(t, err, "embedding service unavailable")
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.wantCalls, calls)
		})
	}
}

func TestRetryWithBackoff_InvalidMaxAttempts(t *testing.T) {
	for _, n := range []int{0, -1} {
		calls := 0
		err := RetryWithBackoff(context.Background(), failingFor(0, &calls), n, time.Millisecond)
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
		assert.Zero(t, calls, "maxAttempts=%d should not call the operation", n)
	}
}

func TestRetryWithBackoff_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("timeout")
	}, 10, time.Millisecond)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}

func TestRetryWithBackoff_StopsOnDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	calls := 0
	err := RetryWithBackoff(ctx, failingFor(100, &calls), 100, 50*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls, "the deadline expires during the first backoff")
}

func TestRetryWithBackoff_DelayDoubles(t *testing.T) {
	var stamps []time.Time
	err := RetryWithBackoff(context.Background(), func() error {
		stamps = append(stamps, time.Now())
		if len(stamps) < 4 {
			return errors.New("retry")
		}
		return nil
	}, 4, 5*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, stamps, 4)

	for i, floor := range []time.Duration{5 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond} {
		assert.GreaterOrEqual(t, stamps[i+1].Sub(stamps[i]), floor, "gap %d", i)
	}
}

func TestRetryWithBackoff_Permanent(t *testing.T) {
	calls := 0
	cause := errors.New("invalid api key")
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return Permanent(cause)
	}, 5, time.Millisecond)

	assert.Same(t, cause, err, "permanent errors are returned unwrapped")
	assert.Equal(t, 1, calls)
	assert.NoError(t, Permanent(nil))
}
