// Package retry runs networked operations with bounded attempts, capped
// exponential backoff and a hard per-attempt timeout.
package retry

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"www.github.com/Wanderer0074348/HybridRoute/src/config"
	"www.github.com/Wanderer0074348/HybridRoute/src/models"
)

type Outcome string

const (
	Succeeded Outcome = "succeeded"
	Failed    Outcome = "failed"
	Cancelled Outcome = "cancelled"
)

// Result reports how a retried operation ended. Err is the last error seen.
type Result struct {
	Outcome  Outcome
	Attempts int
	Err      error
}

type Retrier struct {
	baseDelay time.Duration
	maxDelay  time.Duration
	retryable func(error) bool
	logger    zerolog.Logger
}

type Option func(*Retrier)

// WithRetryable replaces the default predicate, models.IsRetryable.
func WithRetryable(fn func(error) bool) Option {
	return func(r *Retrier) {
		r.retryable = fn
	}
}

func New(cfg *config.RetryConfig, logger zerolog.Logger, opts ...Option) *Retrier {
	r := &Retrier{
		baseDelay: cfg.BaseDelay,
		maxDelay:  cfg.MaxDelay,
		retryable: models.IsRetryable,
		logger:    logger,
	}
	if r.baseDelay <= 0 {
		r.baseDelay = time.Second
	}
	if r.maxDelay < r.baseDelay {
		r.maxDelay = r.baseDelay
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Delay returns the pause after failed attempt n (1-based): base·2^n,
// capped at maxDelay. With a one second base the first retry waits 2s.
func (r *Retrier) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := r.baseDelay
	for i := 0; i < n; i++ {
		d *= 2
		if d >= r.maxDelay {
			return r.maxDelay
		}
	}
	return d
}

// Do calls op up to maxAttempts times, stopping on success, on a
// non-retryable error, or when ctx is done.
func (r *Retrier) Do(ctx context.Context, maxAttempts int, op func(ctx context.Context) error) Result {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{Outcome: Cancelled, Attempts: attempt - 1, Err: firstNonNil(lastErr, err)}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return Result{Outcome: Succeeded, Attempts: attempt}
		}

		if ctx.Err() != nil {
			return Result{Outcome: Cancelled, Attempts: attempt, Err: lastErr}
		}
		if !r.retryable(lastErr) || attempt == maxAttempts {
			return Result{Outcome: Failed, Attempts: attempt, Err: lastErr}
		}

		delay := r.Delay(attempt)
		r.logger.Debug().
			Err(lastErr).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("retrying networked call")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result{Outcome: Cancelled, Attempts: attempt, Err: lastErr}
		case <-timer.C:
		}
	}

	return Result{Outcome: Failed, Attempts: maxAttempts, Err: lastErr}
}

func firstNonNil(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
