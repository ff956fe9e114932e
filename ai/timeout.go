package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout is returned when a model call exceeds its configured bound.
	ErrTimeout = errors.New("model call timed out")

	// ErrEmptyResponse is returned when a model produced no choices.
	ErrEmptyResponse = errors.New("model returned no choices")
)

// Bounded runs fn with a context limited to d. If the bound (not the parent
// context) expired, the returned error wraps ErrTimeout.
// A non-positive d runs fn with the parent context unchanged.
func Bounded(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	if d <= 0 {
		return fn(ctx)
	}

	bounded, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	err := fn(bounded)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(bounded.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", ErrTimeout, d, err)
	}
	return err
}
