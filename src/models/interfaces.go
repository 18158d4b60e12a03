package models

import (
	"context"
)

// CompletionClient defines the interface for networked model clients
type CompletionClient interface {
	GenerateCompletion(ctx context.Context, messages []Message, model string, params CompletionParams) (*CompletionResponse, error)
	CheckAvailability(ctx context.Context) bool
}

// CostCalculator prices a completion by token count and model name
type CostCalculator interface {
	CalculateCost(tokens int, model string) float64
}

// ResultStore defines the interface for a shared second-tier result cache
type ResultStore interface {
	Get(ctx context.Context, key string) (*ProcessingResult, error)
	Set(ctx context.Context, key string, result *ProcessingResult) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}
