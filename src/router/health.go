package router

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"www.github.com/Wanderer0074348/HybridRoute/src/breaker"
	"www.github.com/Wanderer0074348/HybridRoute/src/models"
)

const (
	probeTimeout = 5 * time.Second
	probeInput   = "what's my battery level"
)

// CheckSystemHealth probes the local classifier, the networked client and
// the cache concurrently. Overall is healthy only when local is healthy and
// networked is healthy or degraded.
func (r *QueryRouter) CheckSystemHealth(ctx context.Context) models.HealthReport {
	report := models.HealthReport{CheckedAt: time.Now()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.Local = r.checkLocal()
		return nil
	})
	g.Go(func() error {
		report.Networked = r.checkNetworked(gctx)
		return nil
	})
	g.Go(func() error {
		report.Cache = r.checkCache(gctx)
		return nil
	})
	_ = g.Wait()

	switch {
	case report.Local.Status != models.HealthHealthy:
		report.Overall = models.HealthUnhealthy
	case report.Networked.Status == models.HealthUnhealthy:
		report.Overall = models.HealthDegraded
	default:
		report.Overall = models.HealthHealthy
	}
	return report
}

func (r *QueryRouter) checkLocal() (health models.ComponentHealth) {
	defer func() {
		if rec := recover(); rec != nil {
			health = models.ComponentHealth{Status: models.HealthUnhealthy, Message: "classifier panicked"}
		}
	}()

	result := r.classifier.Classify(probeInput)
	if result.TaskType == models.TaskUnknown {
		return models.ComponentHealth{Status: models.HealthUnhealthy, Message: "self-classification failed"}
	}
	return models.ComponentHealth{Status: models.HealthHealthy}
}

func (r *QueryRouter) checkNetworked(ctx context.Context) models.ComponentHealth {
	if r.client == nil {
		return models.ComponentHealth{Status: models.HealthUnhealthy, Message: "no completion client configured"}
	}

	if !r.probe(ctx) {
		return models.ComponentHealth{Status: models.HealthUnhealthy, Message: "availability probe failed"}
	}
	if r.breaker.IsOpen() {
		return models.ComponentHealth{Status: models.HealthDegraded, Message: "circuit breaker open"}
	}
	if r.limiter.Status().IsNearLimit {
		return models.ComponentHealth{Status: models.HealthDegraded, Message: "rate limiter near limit"}
	}
	return models.ComponentHealth{Status: models.HealthHealthy}
}

func (r *QueryRouter) checkCache(ctx context.Context) models.ComponentHealth {
	if err := r.cache.Health(ctx); err != nil {
		return models.ComponentHealth{Status: models.HealthDegraded, Message: err.Error()}
	}
	return models.ComponentHealth{Status: models.HealthHealthy}
}

// probe asks the client whether it is reachable and records the answer.
func (r *QueryRouter) probe(ctx context.Context) bool {
	if r.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	ok := r.client.CheckAvailability(ctx)
	if prev := r.available.Swap(ok); prev != ok {
		r.logger.Info().Bool("available", ok).Msg("networked availability changed")
	}
	return ok
}

// MonitorAvailability probes the networked client every interval until ctx
// is done.
func (r *QueryRouter) MonitorAvailability(ctx context.Context, interval time.Duration) {
	if r.client == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.probe(ctx)
		}
	}
}

func (r *QueryRouter) onBreakerStateChange(from, to breaker.State) {
	event := r.logger.Info()
	if to == breaker.StateOpen {
		event = r.logger.Warn()
	}
	event.
		Str("from", string(from)).
		Str("to", string(to)).
		Bool("networked_available", to != breaker.StateOpen && r.available.Load()).
		Msg("networked path breaker transition")
}
