package router

import (
	"regexp"
	"strings"

	"www.github.com/Wanderer0074348/HybridRoute/src/config"
	"www.github.com/Wanderer0074348/HybridRoute/src/models"
)

// SystemState is the part of router state a routing decision may read.
type SystemState struct {
	NetworkedAvailable bool
	NearLimit          bool
}

type RoutingDecision struct {
	Route  models.ProcessingRoute
	Reason string
}

type RoutingStrategy interface {
	Decide(c *models.ClassificationResult, input string, state SystemState) RoutingDecision
}

// HybridRoutingStrategy applies the force-local and force-networked
// overrides on top of the classifier's recommendation. Decide is a pure
// function of its arguments.
type HybridRoutingStrategy struct {
	config   *config.RouterConfig
	privacy  []*regexp.Regexp
	advanced map[string]bool
}

func NewHybridRoutingStrategy(cfg *config.RouterConfig) *HybridRoutingStrategy {
	s := &HybridRoutingStrategy{
		config:   cfg,
		advanced: make(map[string]bool, len(cfg.AdvancedReasoning)),
	}

	for _, kw := range cfg.PrivacyKeywords {
		kw = strings.Join(strings.Fields(strings.ToLower(kw)), " ")
		if kw == "" {
			continue
		}
		s.privacy = append(s.privacy, regexp.MustCompile(`\b`+regexp.QuoteMeta(kw)+`\b`))
	}

	for _, pair := range cfg.AdvancedReasoning {
		s.advanced[strings.ToLower(strings.TrimSpace(pair))] = true
	}

	return s
}

func (s *HybridRoutingStrategy) Decide(c *models.ClassificationResult, input string, state SystemState) RoutingDecision {
	// Force local
	if c.Confidence >= s.config.HighConfidence && c.Complexity == models.ComplexitySimple {
		return RoutingDecision{Route: models.RouteLocal, Reason: "High-confidence simple task handled locally"}
	}
	if !state.NetworkedAvailable {
		return RoutingDecision{Route: models.RouteLocal, Reason: "Networked path unavailable"}
	}
	if state.NearLimit {
		return RoutingDecision{Route: models.RouteLocal, Reason: "Rate limiter near limit"}
	}
	if s.isPrivacySensitive(input) {
		return RoutingDecision{Route: models.RouteLocal, Reason: "Privacy-sensitive input kept local"}
	}

	// Force networked
	if c.Confidence < s.config.LowConfidence && c.Complexity == models.ComplexityComplex {
		return RoutingDecision{Route: models.RouteNetworked, Reason: "Low-confidence complex task requires networked reasoning"}
	}
	if s.requiresAdvancedReasoning(c) {
		return RoutingDecision{Route: models.RouteNetworked, Reason: "Task requires advanced reasoning"}
	}

	route := c.RecommendedRoute
	if route == "" || route == models.RouteCache {
		route = models.RouteNetworked
	}
	return RoutingDecision{Route: route, Reason: "Classifier recommendation"}
}

func (s *HybridRoutingStrategy) isPrivacySensitive(input string) bool {
	normalized := strings.Join(strings.Fields(strings.ToLower(input)), " ")
	for _, re := range s.privacy {
		if re.MatchString(normalized) {
			return true
		}
	}
	return false
}

func (s *HybridRoutingStrategy) requiresAdvancedReasoning(c *models.ClassificationResult) bool {
	if c.Complexity == models.ComplexityAdvanced {
		return true
	}
	return s.advanced[strings.ToLower(string(c.TaskType)+":"+string(c.Complexity))]
}
