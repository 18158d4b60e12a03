// Package classifier maps free-text requests to a task type with a
// weighted keyword score, extracts request parameters and recommends a
// baseline processing route.
package classifier

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"www.github.com/Wanderer0074348/HybridRoute/src/config"
	"www.github.com/Wanderer0074348/HybridRoute/src/models"
)

// phraseBonus is applied to a multi-word keyword found as a contiguous run.
const phraseBonus = 1.5

type keyword struct {
	text  string
	words []string
}

type compiledExtractor struct {
	name string
	re   *regexp.Regexp
}

type compiledPattern struct {
	Pattern
	keywords   []keyword
	extractors []compiledExtractor
}

// Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	patterns []*compiledPattern
	baseline map[models.TaskComplexity]models.ProcessingRoute
	logger   zerolog.Logger
}

// New builds a classifier from cfg.PatternsFile, or from the embedded
// pattern set when no file is configured.
func New(cfg *config.ClassifierConfig, logger zerolog.Logger) (*Classifier, error) {
	var (
		patterns []Pattern
		err      error
	)
	if cfg.PatternsFile != "" {
		patterns, err = LoadPatternsFile(cfg.PatternsFile)
	} else {
		patterns, err = DefaultPatterns()
	}
	if err != nil {
		return nil, err
	}
	return NewFromPatterns(patterns, cfg.BaselineRoutes, logger)
}

// NewFromPatterns compiles patterns. baseline maps complexity names to route
// names; missing tiers use models.TaskComplexity.BaselineRoute.
func NewFromPatterns(patterns []Pattern, baseline map[string]string, logger zerolog.Logger) (*Classifier, error) {
	c := &Classifier{
		baseline: make(map[models.TaskComplexity]models.ProcessingRoute, len(baseline)),
		logger:   logger,
	}

	for tier, route := range baseline {
		complexity := models.TaskComplexity(strings.ToLower(tier))
		r := models.ProcessingRoute(strings.ToLower(route))
		if !complexity.IsValid() {
			return nil, fmt.Errorf("baseline route for unknown complexity %q", tier)
		}
		if !r.IsValid() || r == models.RouteCache {
			return nil, fmt.Errorf("invalid baseline route %q for %s", route, tier)
		}
		c.baseline[complexity] = r
	}

	for i := range patterns {
		p := patterns[i]
		if err := validatePattern(&p); err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p.Name, err)
		}
		c.patterns = append(c.patterns, c.compile(p))
	}
	if len(c.patterns) == 0 {
		return nil, fmt.Errorf("classifier needs at least one pattern")
	}

	return c, nil
}

func (c *Classifier) compile(p Pattern) *compiledPattern {
	cp := &compiledPattern{Pattern: p}

	for _, kw := range p.Keywords {
		norm := Normalize(kw)
		cp.keywords = append(cp.keywords, keyword{text: norm, words: tokenize(norm)})
	}

	for _, ex := range p.Extractors {
		re, err := regexp.Compile(ex.Regex)
		if err != nil {
			c.logger.Debug().
				Err(err).
				Str("pattern", p.Name).
				Str("parameter", ex.Name).
				Msg("skipping malformed extractor")
			continue
		}
		if re.NumSubexp() < 1 {
			c.logger.Debug().
				Str("pattern", p.Name).
				Str("parameter", ex.Name).
				Msg("skipping extractor without a capture group")
			continue
		}
		cp.extractors = append(cp.extractors, compiledExtractor{name: ex.Name, re: re})
	}
	return cp
}

// PatternCount reports how many patterns were loaded.
func (c *Classifier) PatternCount() int {
	return len(c.patterns)
}

// Classify scores input against every pattern. It never fails; input that
// matches nothing is classified as unknown.
func (c *Classifier) Classify(input string) *models.ClassificationResult {
	normalized := Normalize(input)
	if normalized == "" {
		return unknownResult()
	}

	tokens := tokenize(normalized)
	present := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		present[t] = struct{}{}
	}

	// Patterns are visited in declaration order and only a strictly higher
	// score replaces the leader, so ties go to the earlier pattern.
	var (
		best      *compiledPattern
		bestScore float64
		matched   []string
	)
	for _, p := range c.patterns {
		score, hits := p.score(tokens, present)
		if score > bestScore {
			best, bestScore, matched = p, score, hits
		}
	}

	if best == nil {
		result := unknownResult()
		extractGeneric(input, normalized, result.Parameters)
		return result
	}

	params := make(map[string]string)
	for _, ex := range best.extractors {
		if _, taken := params[ex.name]; taken {
			continue
		}
		if m := ex.re.FindStringSubmatch(normalized); len(m) > 1 {
			if v := strings.TrimSpace(m[1]); v != "" {
				params[ex.name] = v
			}
		}
	}
	extractGeneric(input, normalized, params)

	route := best.Route
	if route == "" {
		route = c.baselineRoute(best.Complexity)
	}

	return &models.ClassificationResult{
		TaskType:             best.TaskType,
		Confidence:           clamp01(bestScore),
		Parameters:           params,
		Complexity:           best.Complexity,
		RecommendedRoute:     route,
		RequiresConfirmation: best.RequiresConfirmation,
		EstimatedDuration:    best.TaskType.BaseTime() * best.Complexity.DurationMultiplier(),
		MatchedKeywords:      matched,
		Pattern:              best.Name,
	}
}

func (c *Classifier) baselineRoute(complexity models.TaskComplexity) models.ProcessingRoute {
	if r, ok := c.baseline[complexity]; ok {
		return r
	}
	return complexity.BaselineRoute()
}

// score sums keyword weights and divides by the keyword count.
func (p *compiledPattern) score(tokens []string, present map[string]struct{}) (float64, []string) {
	var (
		total float64
		hits  []string
	)
	for _, kw := range p.keywords {
		m := matchKeyword(kw, tokens, present)
		if m == 0 {
			continue
		}
		total += p.Weight * m
		hits = append(hits, kw.text)
	}
	if total == 0 {
		return 0, nil
	}
	return total / float64(len(p.keywords)), hits
}

// matchKeyword returns the multiplier for kw: 0 when absent, 1 for a word or
// a scattered phrase, phraseBonus for a contiguous phrase.
func matchKeyword(kw keyword, tokens []string, present map[string]struct{}) float64 {
	if len(kw.words) == 1 {
		if _, ok := present[kw.words[0]]; ok {
			return 1
		}
		return 0
	}

	if containsRun(tokens, kw.words) {
		return phraseBonus
	}
	for _, w := range kw.words {
		if _, ok := present[w]; !ok {
			return 0
		}
	}
	return 1
}

func containsRun(tokens, run []string) bool {
	for i := 0; i+len(run) <= len(tokens); i++ {
		match := true
		for j := range run {
			if tokens[i+j] != run[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// Normalize lowercases, trims and collapses internal whitespace.
func Normalize(input string) string {
	return strings.Join(strings.Fields(strings.ToLower(input)), " ")
}

// tokenize splits normalized text into words. Apostrophes stay inside words
// so "what's" is one token.
func tokenize(normalized string) []string {
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '’'
	})
}

func unknownResult() *models.ClassificationResult {
	return &models.ClassificationResult{
		TaskType:          models.TaskUnknown,
		Confidence:        0,
		Parameters:        map[string]string{},
		Complexity:        models.ComplexitySimple,
		RecommendedRoute:  models.RouteNetworked,
		EstimatedDuration: models.TaskUnknown.BaseTime() * models.ComplexitySimple.DurationMultiplier(),
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
