package retry

import (
	"context"
	"fmt"
	"time"

	"www.github.com/Wanderer0074348/HybridRoute/src/models"
)

type outcome[T any] struct {
	value T
	err   error
}

// WithTimeout races op against a timer. Whichever finishes first wins and
// the loser's context is cancelled. A timer win yields a timeout RouteError;
// if the parent ctx ended instead, its error is returned. A panic in op is
// returned as an internal RouteError.
func WithTimeout[T any](ctx context.Context, d time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if d <= 0 {
		return op(ctx)
	}

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome[T]{err: &models.RouteError{
					Kind:  models.ErrorInternal,
					Route: models.RouteNetworked,
					Err:   fmt.Errorf("networked call panicked: %v", rec),
				}}
			}
		}()
		v, err := op(callCtx)
		done <- outcome[T]{value: v, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.value, res.err
	case <-timer.C:
		return zero, &models.RouteError{
			Kind:  models.ErrorTimeout,
			Route: models.RouteNetworked,
			Err:   fmt.Errorf("%w after %s", models.ErrTimeout, d),
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
