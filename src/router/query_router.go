// Package router runs the request pipeline: cache lookup, classification,
// route decision, dispatch and fallback.
package router

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"www.github.com/Wanderer0074348/HybridRoute/src/breaker"
	"www.github.com/Wanderer0074348/HybridRoute/src/cache"
	"www.github.com/Wanderer0074348/HybridRoute/src/classifier"
	"www.github.com/Wanderer0074348/HybridRoute/src/config"
	"www.github.com/Wanderer0074348/HybridRoute/src/models"
	"www.github.com/Wanderer0074348/HybridRoute/src/ratelimit"
	"www.github.com/Wanderer0074348/HybridRoute/src/retry"
)

type QueryRouter struct {
	config     *config.Config
	classifier *classifier.Classifier
	cache      *cache.ResultCache
	strategy   RoutingStrategy
	limiter    *ratelimit.Limiter
	breaker    *breaker.Breaker
	retrier    *retry.Retrier
	client     models.CompletionClient
	costs      models.CostCalculator
	local      *LocalResponder
	fallback   *FallbackManager
	stats      *statistics
	logger     zerolog.Logger

	// available is the result of the last networked availability probe.
	available atomic.Bool
}

type Option func(*QueryRouter)

func WithCompletionClient(client models.CompletionClient) Option {
	return func(r *QueryRouter) {
		r.client = client
	}
}

func WithCostCalculator(costs models.CostCalculator) Option {
	return func(r *QueryRouter) {
		r.costs = costs
	}
}

func WithLimiter(l *ratelimit.Limiter) Option {
	return func(r *QueryRouter) {
		r.limiter = l
	}
}

func WithBreaker(b *breaker.Breaker) Option {
	return func(r *QueryRouter) {
		r.breaker = b
	}
}

func WithRetrier(rt *retry.Retrier) Option {
	return func(r *QueryRouter) {
		r.retrier = rt
	}
}

func WithStrategy(s RoutingStrategy) Option {
	return func(r *QueryRouter) {
		r.strategy = s
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *QueryRouter) {
		r.logger = logger
	}
}

// NewQueryRouter wires the pipeline. Collaborators not supplied as options
// are built from cfg. Without a completion client the router answers every
// request locally.
func NewQueryRouter(cfg *config.Config, cls *classifier.Classifier, rc *cache.ResultCache, opts ...Option) *QueryRouter {
	r := &QueryRouter{
		config:     cfg,
		classifier: cls,
		cache:      rc,
		local:      NewLocalResponder(),
		stats:      newStatistics(),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.strategy == nil {
		r.strategy = NewHybridRoutingStrategy(&cfg.Router)
	}
	if r.limiter == nil {
		r.limiter = ratelimit.New(&cfg.RateLimit)
	}
	if r.retrier == nil {
		r.retrier = retry.New(&cfg.Retry, r.logger)
	}
	if r.breaker == nil {
		r.breaker = breaker.New("networked", &cfg.Breaker, r.logger, breaker.WithStateChangeHook(r.onBreakerStateChange))
	}
	r.fallback = NewFallbackManager(r.local, r.logger)
	r.available.Store(r.client != nil)

	return r
}

// ProcessInput runs the full pipeline for one request. It always returns a
// result; failures are reported in the result, never as a panic.
func (r *QueryRouter) ProcessInput(ctx context.Context, input string) (result *models.ProcessingResult) {
	start := time.Now()
	requestID := uuid.NewString()
	attempted := models.RouteLocal

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str("request_id", requestID).
				Interface("panic", rec).
				Msg("recovered from panic in pipeline")
			elapsed := time.Since(start)
			r.stats.recordFailure(attempted, elapsed)
			result = &models.ProcessingResult{
				RequestID:     requestID,
				Input:         input,
				Route:         attempted,
				Success:       false,
				Output:        "Unable to process request: internal",
				ErrorKind:     models.ErrorInternal,
				Error:         fmt.Sprint(rec),
				ExecutionTime: elapsed,
				Timestamp:     time.Now(),
			}
		}
	}()

	r.stats.recordRequest()

	key := GenerateCacheKey(input)
	if cached := r.cache.Get(ctx, key); cached != nil {
		cached.RequestID = requestID
		cached.CacheHit = true
		cached.Route = models.RouteCache
		cached.ExecutionTime = time.Since(start)
		r.stats.recordCacheHit(cached.ExecutionTime)
		r.logger.Debug().Str("request_id", requestID).Msg("cache hit")
		return cached
	}

	classification := r.classifier.Classify(input)
	decision := r.strategy.Decide(classification, input, r.systemState())
	attempted = decision.Route

	result = &models.ProcessingResult{
		RequestID:      requestID,
		Input:          input,
		Classification: classification,
		RequestedRoute: decision.Route,
		RoutingReason:  decision.Reason,
		Timestamp:      time.Now(),
	}

	var err error
	switch decision.Route {
	case models.RouteLocal:
		r.answerLocally(result)
	case models.RouteNetworked:
		err = r.answerNetworked(ctx, input, result)
	case models.RouteHybrid:
		if classification.Confidence >= r.config.Router.HybridThreshold {
			r.answerLocally(result)
		} else {
			attempted = models.RouteNetworked
			err = r.answerNetworked(ctx, input, result)
		}
	default:
		err = &models.RouteError{Kind: models.ErrorInternal, Route: decision.Route, Err: fmt.Errorf("unroutable decision %q", decision.Route)}
	}

	result.ExecutionTime = time.Since(start)

	if err != nil {
		r.stats.recordFailure(attempted, result.ExecutionTime)
		result = r.fallback.Handle(result, attempted, err)
		result.ExecutionTime = time.Since(start)
		return result
	}

	r.stats.recordSuccess(result.Route, result.ExecutionTime)
	r.cache.Put(ctx, key, result)

	r.logger.Info().
		Str("request_id", requestID).
		Str("task_type", string(classification.TaskType)).
		Float64("confidence", classification.Confidence).
		Str("route", string(result.Route)).
		Str("reason", decision.Reason).
		Dur("elapsed", result.ExecutionTime).
		Msg("request processed")

	return result
}

// Classify exposes the classifier without running the pipeline.
func (r *QueryRouter) Classify(input string) *models.ClassificationResult {
	return r.classifier.Classify(input)
}

func (r *QueryRouter) answerLocally(result *models.ProcessingResult) {
	result.Route = models.RouteLocal
	result.Success = true
	result.Model = LocalModel
	result.Output = r.local.Respond(result.Classification)
}

func (r *QueryRouter) systemState() SystemState {
	return SystemState{
		NetworkedAvailable: r.NetworkedAvailable(),
		NearLimit:          r.limiter.Status().IsNearLimit,
	}
}

// NetworkedAvailable reports whether a client is configured, its last probe
// succeeded and the breaker is not open.
func (r *QueryRouter) NetworkedAvailable() bool {
	return r.client != nil && r.available.Load() && !r.breaker.IsOpen()
}

func (r *QueryRouter) RoutingStatistics() models.RoutingStatistics {
	return r.stats.Snapshot()
}

func (r *QueryRouter) CacheStatistics() models.CacheStatistics {
	return r.cache.Stats()
}

// RateLimitStatus exposes the networked admission window.
func (r *QueryRouter) RateLimitStatus() ratelimit.Status {
	return r.limiter.Status()
}

func (r *QueryRouter) BreakerSnapshot() breaker.Snapshot {
	return r.breaker.Snapshot()
}

func (r *QueryRouter) ClearCache(ctx context.Context) error {
	if err := r.cache.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	r.logger.Info().Msg("cache cleared")
	return nil
}

func (r *QueryRouter) ResetStatistics() {
	r.stats.Reset()
	r.logger.Info().Msg("routing statistics reset")
}

// GenerateCacheKey derives the cache key from normalized input only, so it is
// deterministic for identical requests.
func GenerateCacheKey(input string) string {
	normalized := classifier.Normalize(input)
	hash := md5.Sum([]byte(normalized))
	return "process:" + hex.EncodeToString(hash[:])
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
