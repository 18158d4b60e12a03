package models

import "time"

type TaskType string

const (
	TaskFileOperation   TaskType = "fileOperation"
	TaskSystemQuery     TaskType = "systemQuery"
	TaskAppControl      TaskType = "appControl"
	TaskCalendar        TaskType = "calendar"
	TaskEmail           TaskType = "email"
	TaskContacts        TaskType = "contacts"
	TaskWebSearch       TaskType = "webSearch"
	TaskWorkflow        TaskType = "workflow"
	TaskTextProcessing  TaskType = "textProcessing"
	TaskGeneralQuestion TaskType = "generalQuestion"
	TaskUnknown         TaskType = "unknown"
)

// AllTaskTypes lists every task type in declaration order, unknown last.
func AllTaskTypes() []TaskType {
	return []TaskType{
		TaskFileOperation,
		TaskSystemQuery,
		TaskAppControl,
		TaskCalendar,
		TaskEmail,
		TaskContacts,
		TaskWebSearch,
		TaskWorkflow,
		TaskTextProcessing,
		TaskGeneralQuestion,
		TaskUnknown,
	}
}

func (t TaskType) IsValid() bool {
	for _, valid := range AllTaskTypes() {
		if t == valid {
			return true
		}
	}
	return false
}

// BaseTime is the nominal execution time in seconds for a task type before
// the complexity multiplier is applied.
func (t TaskType) BaseTime() float64 {
	switch t {
	case TaskFileOperation:
		return 2.0
	case TaskSystemQuery:
		return 0.5
	case TaskAppControl:
		return 1.0
	case TaskCalendar:
		return 1.5
	case TaskEmail:
		return 2.0
	case TaskContacts:
		return 1.0
	case TaskWebSearch:
		return 3.0
	case TaskWorkflow:
		return 5.0
	case TaskTextProcessing:
		return 2.0
	case TaskGeneralQuestion:
		return 2.5
	default:
		return 1.0
	}
}

type ProcessingRoute string

const (
	RouteLocal     ProcessingRoute = "local"
	RouteNetworked ProcessingRoute = "networked"
	RouteHybrid    ProcessingRoute = "hybrid"
	RouteCache     ProcessingRoute = "cache"
)

func (r ProcessingRoute) IsValid() bool {
	switch r {
	case RouteLocal, RouteNetworked, RouteHybrid, RouteCache:
		return true
	}
	return false
}

type TaskComplexity string

const (
	ComplexitySimple   TaskComplexity = "simple"
	ComplexityModerate TaskComplexity = "moderate"
	ComplexityComplex  TaskComplexity = "complex"
	ComplexityAdvanced TaskComplexity = "advanced"
)

func (c TaskComplexity) IsValid() bool {
	switch c {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex, ComplexityAdvanced:
		return true
	}
	return false
}

// BaselineRoute is the route recommended for a complexity tier when no
// override table is configured.
func (c TaskComplexity) BaselineRoute() ProcessingRoute {
	switch c {
	case ComplexityComplex, ComplexityAdvanced:
		return RouteNetworked
	default:
		return RouteLocal
	}
}

func (c TaskComplexity) DurationMultiplier() float64 {
	switch c {
	case ComplexityModerate:
		return 1.5
	case ComplexityComplex:
		return 2.5
	case ComplexityAdvanced:
		return 4.0
	default:
		return 1.0
	}
}

type ClassificationResult struct {
	TaskType             TaskType          `json:"task_type"`
	Confidence           float64           `json:"confidence"`
	Parameters           map[string]string `json:"parameters"`
	Complexity           TaskComplexity    `json:"complexity"`
	RecommendedRoute     ProcessingRoute   `json:"recommended_route"`
	RequiresConfirmation bool              `json:"requires_confirmation"`
	EstimatedDuration    float64           `json:"estimated_duration"` // seconds
	MatchedKeywords      []string          `json:"matched_keywords,omitempty"`
	Pattern              string            `json:"pattern,omitempty"`
}

type ProcessingResult struct {
	RequestID      string                `json:"request_id"`
	Input          string                `json:"input"`
	Classification *ClassificationResult `json:"classification,omitempty"`
	Route          ProcessingRoute       `json:"route"`
	RequestedRoute ProcessingRoute       `json:"requested_route,omitempty"`
	RoutingReason  string                `json:"routing_reason,omitempty"`
	Success        bool                  `json:"success"`
	Output         string                `json:"output"`
	Model          string                `json:"model,omitempty"`
	ExecutionTime  time.Duration         `json:"execution_time"`
	TokensUsed     int                   `json:"tokens_used"`
	Cost           float64               `json:"cost"`
	CacheHit       bool                  `json:"cache_hit"`
	Degraded       bool                  `json:"degraded,omitempty"`
	ErrorKind      ErrorKind             `json:"error_kind,omitempty"`
	Error          string                `json:"error,omitempty"`
	Timestamp      time.Time             `json:"timestamp"`
	CachedAt       time.Time             `json:"cached_at,omitzero"`
}

// Clone returns a copy that shares no maps with the receiver.
func (r *ProcessingResult) Clone() *ProcessingResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.Classification != nil {
		c := *r.Classification
		c.Parameters = make(map[string]string, len(r.Classification.Parameters))
		for k, v := range r.Classification.Parameters {
			c.Parameters[k] = v
		}
		c.MatchedKeywords = append([]string(nil), r.Classification.MatchedKeywords...)
		out.Classification = &c
	}
	return &out
}

// RouteStats holds the counters for a single route.
type RouteStats struct {
	Attempts  int64 `json:"attempts"`
	Successes int64 `json:"successes"`
	Failures  int64 `json:"failures"`
}

// RoutingStatistics is an immutable snapshot of the router counters.
type RoutingStatistics struct {
	TotalRequests       int64                          `json:"total_requests"`
	CacheHits           int64                          `json:"cache_hits"`
	Fallbacks           int64                          `json:"fallbacks"`
	Routes              map[ProcessingRoute]RouteStats `json:"routes"`
	TotalProcessingTime time.Duration                  `json:"total_processing_time"`
	AverageLatency      time.Duration                  `json:"average_latency"`
	Since               time.Time                      `json:"since"`
}

type CacheStatistics struct {
	TotalEntries int           `json:"total_entries"`
	MaxEntries   int           `json:"max_entries"`
	Hits         int64         `json:"hits"`
	Misses       int64         `json:"misses"`
	HitRate      float64       `json:"hit_rate"`
	TTL          time.Duration `json:"ttl"`
	SecondTier   bool          `json:"second_tier"`
}

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type ComponentHealth struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

type HealthReport struct {
	Overall   HealthStatus    `json:"overall"`
	Local     ComponentHealth `json:"local"`
	Networked ComponentHealth `json:"networked"`
	Cache     ComponentHealth `json:"cache"`
	CheckedAt time.Time       `json:"checked_at"`
}

// Message is a single chat turn sent to the completion client.
type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

type CompletionParams struct {
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type CompletionResponse struct {
	Content          string `json:"content"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
}
