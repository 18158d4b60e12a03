// Package ratelimit implements sliding-window admission control for the
// networked path. The window tracks both request count and estimated token
// volume; an admission fails if either ceiling would be exceeded.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"www.github.com/Wanderer0074348/HybridRoute/src/config"
	"www.github.com/Wanderer0074348/HybridRoute/src/models"
)

// minWait keeps Wait from spinning when the computed delay rounds to zero.
const minWait = time.Millisecond

type windowEntry struct {
	at     time.Time
	tokens int
}

// Limiter is a sliding-window log. Entries are kept oldest first.
type Limiter struct {
	mu             sync.Mutex
	window         time.Duration
	maxRequests    int
	maxTokens      int
	nearLimitRatio float64
	entries        []windowEntry
	tokens         int
	admitted       int64
	rejected       int64
	now            func() time.Time
}

// Status is a point-in-time view of window usage.
type Status struct {
	Requests    int           `json:"requests"`
	MaxRequests int           `json:"max_requests"`
	Tokens      int           `json:"tokens"`
	MaxTokens   int           `json:"max_tokens"`
	Utilization float64       `json:"utilization"`
	IsNearLimit bool          `json:"is_near_limit"`
	Admitted    int64         `json:"admitted"`
	Rejected    int64         `json:"rejected"`
	Window      time.Duration `json:"window"`
}

type Option func(*Limiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

func New(cfg *config.RateLimitConfig, opts ...Option) *Limiter {
	l := &Limiter{
		window:         cfg.Window,
		maxRequests:    cfg.MaxRequests,
		maxTokens:      cfg.MaxTokens,
		nearLimitRatio: cfg.NearLimitRatio,
		now:            time.Now,
	}
	if l.window <= 0 {
		l.window = time.Minute
	}
	if l.nearLimitRatio <= 0 || l.nearLimitRatio > 1 {
		l.nearLimitRatio = 0.8
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckRateLimit admits and records a request if it fits in the current
// window, otherwise returns an error wrapping models.ErrRateLimited.
func (l *Limiter) CheckRateLimit(estimatedTokens int) error {
	if estimatedTokens < 0 {
		estimatedTokens = 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if !l.fits(len(l.entries), l.tokens, estimatedTokens) {
		l.rejected++
		return fmt.Errorf("%w: %d/%d requests, %d/%d tokens in %s window",
			models.ErrRateLimited, len(l.entries), l.maxRequests, l.tokens, l.maxTokens, l.window)
	}

	l.entries = append(l.entries, windowEntry{at: now, tokens: estimatedTokens})
	l.tokens += estimatedTokens
	l.admitted++
	return nil
}

// Wait blocks until the request is admitted or ctx is done. A request larger
// than the token ceiling is rejected immediately.
func (l *Limiter) Wait(ctx context.Context, estimatedTokens int) error {
	if l.maxTokens > 0 && estimatedTokens > l.maxTokens {
		return fmt.Errorf("%w: request of %d tokens exceeds window capacity %d",
			models.ErrRateLimited, estimatedTokens, l.maxTokens)
	}

	for {
		if err := l.CheckRateLimit(estimatedTokens); err == nil {
			return nil
		}

		delay := l.TimeUntilAvailable(estimatedTokens)
		if delay < minWait {
			delay = minWait
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TimeUntilAvailable returns how long until enough of the oldest entries age
// out to admit a request of estimatedTokens. Zero means it would be admitted
// now; a negative value means it can never fit.
func (l *Limiter) TimeUntilAvailable(estimatedTokens int) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.maxTokens > 0 && estimatedTokens > l.maxTokens {
		return -1
	}

	now := l.now()
	l.prune(now)

	requests, tokens := len(l.entries), l.tokens
	if l.fits(requests, tokens, estimatedTokens) {
		return 0
	}

	for _, e := range l.entries {
		requests--
		tokens -= e.tokens
		if l.fits(requests, tokens, estimatedTokens) {
			return e.at.Add(l.window).Sub(now)
		}
	}
	return l.window
}

func (l *Limiter) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())

	s := Status{
		Requests:    len(l.entries),
		MaxRequests: l.maxRequests,
		Tokens:      l.tokens,
		MaxTokens:   l.maxTokens,
		Admitted:    l.admitted,
		Rejected:    l.rejected,
		Window:      l.window,
	}
	if l.maxRequests > 0 {
		s.Utilization = float64(s.Requests) / float64(l.maxRequests)
	}
	if l.maxTokens > 0 {
		if u := float64(s.Tokens) / float64(l.maxTokens); u > s.Utilization {
			s.Utilization = u
		}
	}
	s.IsNearLimit = s.Utilization > l.nearLimitRatio
	return s
}

// Reset empties the window and the admission counters.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.tokens = 0
	l.admitted = 0
	l.rejected = 0
}

// prune drops entries older than the window. Caller holds l.mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for ; i < len(l.entries); i++ {
		if l.entries[i].at.After(cutoff) {
			break
		}
		l.tokens -= l.entries[i].tokens
	}
	if i > 0 {
		l.entries = append(l.entries[:0], l.entries[i:]...)
	}
}

func (l *Limiter) fits(requests, tokens, estimatedTokens int) bool {
	if l.maxRequests > 0 && requests+1 > l.maxRequests {
		return false
	}
	if l.maxTokens > 0 && tokens+estimatedTokens > l.maxTokens {
		return false
	}
	return true
}
