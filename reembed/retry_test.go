package reembed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failing returns an operation that fails the first n calls.
func failing(n int, calls *int) func() error {
	return func() error {
		*calls++
		if *calls <= n {
			return errors.New("transient")
		}
		return nil
	}
}

func TestRetryWithBackoff(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		attempts  int
		wantErr   bool
		wantCalls int
	}{
		{name: "first try", failures: 0, attempts: 3, wantCalls: 1},
		{name: "eventual success", failures: 2, attempts: 3, wantCalls: 3},
		{name: "exhausted", failures: 5, attempts: 3, wantErr: true, wantCalls: 3},
		{name: "zero attempts", failures: 0, attempts: 0, wantErr: true, wantCalls: 0},
		{name: "negative attempts", failures: 0, attempts: -1, wantErr: true, wantCalls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(context.Background(), failing(tt.failures, &calls), tt.attempts, time.Millisecond)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestRetryWithBackoff_ReturnsLastError(t *testing.T) {
	persistent := errors.New("persistent")
	err := RetryWithBackoff(context.Background(), func() error { return persistent }, 2, time.Millisecond)
	assert.Equal(t, persistent, err)

	err = RetryWithBackoff(context.Background(), func() error { return nil }, 0, time.Millisecond)
	assert.Equal(t, ErrInvalidMaxAttempts, err)
}

func TestRetryWithBackoff_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("error")
	}, 10, time.Millisecond)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}

func TestRetryWithBackoff_DeadlineDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return errors.New("error")
	}, 10, time.Second)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff_DelaysGrow(t *testing.T) {
	var stamps []time.Time
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		stamps = append(stamps, time.Now())
		calls++
		if calls < 4 {
			return errors.New("error")
		}
		return nil
	}, 5, 5*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, stamps, 4)

	first := stamps[1].Sub(stamps[0])
	third := stamps[3].Sub(stamps[2])
	assert.GreaterOrEqual(t, first, 5*time.Millisecond)
	assert.GreaterOrEqual(t, third, 20*time.Millisecond)
}
