// Package breaker guards the networked completion path with a circuit
// breaker. It wraps sony/gobreaker and translates its rejections into
// models.ErrCircuitOpen so callers see a single fallback category.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"www.github.com/Wanderer0074348/HybridRoute/src/config"
	"www.github.com/Wanderer0074348/HybridRoute/src/models"
)

type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// Snapshot is the breaker's externally visible state.
type Snapshot struct {
	State       State     `json:"state"`
	Failures    uint32    `json:"consecutive_failures"`
	Requests    uint32    `json:"requests"`
	LastFailure time.Time `json:"last_failure,omitempty"`
	LastOpened  time.Time `json:"last_opened,omitempty"`
}

type Breaker struct {
	cb     *gobreaker.TwoStepCircuitBreaker
	logger zerolog.Logger

	mu          sync.Mutex
	lastFailure time.Time
	lastOpened  time.Time
	onChange    []func(from, to State)
}

type Option func(*Breaker)

// WithStateChangeHook registers fn to run after every transition.
func WithStateChangeHook(fn func(from, to State)) Option {
	return func(b *Breaker) {
		b.onChange = append(b.onChange, fn)
	}
}

func New(name string, cfg *config.BreakerConfig, logger zerolog.Logger, opts ...Option) *Breaker {
	b := &Breaker{logger: logger}
	for _, opt := range opts {
		opt(b)
	}

	threshold := uint32(cfg.FailureThreshold)
	if threshold == 0 {
		threshold = 1
	}

	b.cb = gobreaker.NewTwoStepCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.Window,
		Timeout:     cfg.CoolDown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			b.stateChanged(fromGobreaker(from), fromGobreaker(to))
		},
	})
	return b
}

// Execute runs op unless the circuit is open. Rejections wrap
// models.ErrCircuitOpen; op's own error is returned unchanged.
//
// Cancellation and rate limiting are neutral: while closed they touch no
// counter, and a half-open trial ending that way reopens the circuit, since
// only a successful trial may close it.
func (b *Breaker) Execute(op func() error) (err error) {
	done, allowErr := b.cb.Allow()
	if allowErr != nil {
		return &models.RouteError{Kind: models.ErrorCircuitOpen, Route: models.RouteNetworked, Err: models.ErrCircuitOpen}
	}
	trial := b.cb.State() == gobreaker.StateHalfOpen

	defer func() {
		if rec := recover(); rec != nil {
			done(false)
			panic(rec)
		}
	}()

	err = op()
	switch {
	case err == nil:
		done(true)
	case isNeutral(err):
		if trial {
			done(false)
		}
	default:
		b.mu.Lock()
		b.lastFailure = time.Now()
		b.mu.Unlock()
		done(false)
	}
	return err
}

// Call is Execute for operations that produce a value.
func Call[T any](b *Breaker, op func() (T, error)) (T, error) {
	var out T
	err := b.Execute(func() error {
		v, err := op()
		if err == nil {
			out = v
		}
		return err
	})
	return out, err
}

// IsOpen reports whether calls are currently being rejected outright.
func (b *Breaker) IsOpen() bool {
	return b.cb.State() == gobreaker.StateOpen
}

func (b *Breaker) State() State {
	return fromGobreaker(b.cb.State())
}

func (b *Breaker) Snapshot() Snapshot {
	state := b.cb.State()
	counts := b.cb.Counts()

	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		State:       fromGobreaker(state),
		Failures:    counts.ConsecutiveFailures,
		Requests:    counts.Requests,
		LastFailure: b.lastFailure,
		LastOpened:  b.lastOpened,
	}
}

func (b *Breaker) stateChanged(from, to State) {
	b.mu.Lock()
	if to == StateOpen {
		b.lastOpened = time.Now()
	}
	hooks := b.onChange
	b.mu.Unlock()

	b.logger.Warn().
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("circuit breaker state change")

	for _, fn := range hooks {
		fn(from, to)
	}
}

// Cancellation by the caller says nothing about the remote's health.
func isNeutral(err error) bool {
	return errors.Is(err, context.Canceled) || models.KindOf(err) == models.ErrorRateLimited
}

func fromGobreaker(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
