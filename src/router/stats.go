package router

import (
	"sync"
	"time"

	"www.github.com/Wanderer0074348/HybridRoute/src/models"
)

// statistics holds the routing counters. Every mutation takes mu for a
// handful of field updates only.
type statistics struct {
	mu        sync.Mutex
	total     int64
	cacheHits int64
	fallbacks int64
	routes    map[models.ProcessingRoute]*models.RouteStats
	elapsed   time.Duration
	completed int64
	since     time.Time
}

func newStatistics() *statistics {
	s := &statistics{}
	s.reset()
	return s
}

func (s *statistics) reset() {
	s.total = 0
	s.cacheHits = 0
	s.fallbacks = 0
	s.routes = make(map[models.ProcessingRoute]*models.RouteStats)
	s.elapsed = 0
	s.completed = 0
	s.since = time.Now()
}

func (s *statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *statistics) recordRequest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
}

func (s *statistics) recordCacheHit(elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheHits++
	rs := s.route(models.RouteCache)
	rs.Attempts++
	rs.Successes++
	s.addElapsed(elapsed)
}

func (s *statistics) recordSuccess(route models.ProcessingRoute, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := s.route(route)
	rs.Attempts++
	rs.Successes++
	s.addElapsed(elapsed)
}

// recordFailure counts a failed attempt on route and the fallback that
// followed it.
func (s *statistics) recordFailure(route models.ProcessingRoute, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := s.route(route)
	rs.Attempts++
	rs.Failures++
	s.fallbacks++
	s.addElapsed(elapsed)
}

func (s *statistics) Snapshot() models.RoutingStatistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := models.RoutingStatistics{
		TotalRequests:       s.total,
		CacheHits:           s.cacheHits,
		Fallbacks:           s.fallbacks,
		Routes:              make(map[models.ProcessingRoute]models.RouteStats, len(s.routes)),
		TotalProcessingTime: s.elapsed,
		Since:               s.since,
	}
	for route, rs := range s.routes {
		snap.Routes[route] = *rs
	}
	if s.completed > 0 {
		snap.AverageLatency = s.elapsed / time.Duration(s.completed)
	}
	return snap
}

func (s *statistics) route(r models.ProcessingRoute) *models.RouteStats {
	rs, ok := s.routes[r]
	if !ok {
		rs = &models.RouteStats{}
		s.routes[r] = rs
	}
	return rs
}

func (s *statistics) addElapsed(d time.Duration) {
	s.elapsed += d
	s.completed++
}
