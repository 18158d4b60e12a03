package utils

import (
	"strings"
)

// Pricing per 1M tokens (as of 2025)
const (
	// OpenAI GPT-3.5-turbo
	GPT35InputPer1M  = 0.50
	GPT35OutputPer1M = 1.50

	// OpenAI GPT-4o mini
	GPT4oMiniInputPer1M  = 0.15
	GPT4oMiniOutputPer1M = 0.60

	// OpenAI GPT-4o
	GPT4oInputPer1M  = 2.50
	GPT4oOutputPer1M = 10.00

	// OpenAI GPT-4
	GPT4InputPer1M  = 30.00
	GPT4OutputPer1M = 60.00

	// Anthropic Claude Haiku / Sonnet
	HaikuInputPer1M   = 0.80
	HaikuOutputPer1M  = 4.00
	SonnetInputPer1M  = 3.00
	SonnetOutputPer1M = 15.00
)

type modelPricing struct {
	inputPer1M  float64
	outputPer1M float64
}

// blended assumes an even split between prompt and completion tokens when
// only a total is known.
func (p modelPricing) blended() float64 {
	return (p.inputPer1M + p.outputPer1M) / 2
}

// CostCalculator prices completions from a static per-model table.
type CostCalculator struct {
	fallback modelPricing
}

func NewCostCalculator() *CostCalculator {
	return &CostCalculator{
		fallback: modelPricing{GPT35InputPer1M, GPT35OutputPer1M},
	}
}

func (c *CostCalculator) pricing(model string) modelPricing {
	m := strings.ToLower(model)

	// Order matters: "gpt-4o-mini" contains "gpt-4o" contains "gpt-4".
	switch {
	case strings.Contains(m, "gpt-4o-mini"):
		return modelPricing{GPT4oMiniInputPer1M, GPT4oMiniOutputPer1M}
	case strings.Contains(m, "gpt-4o"):
		return modelPricing{GPT4oInputPer1M, GPT4oOutputPer1M}
	case strings.Contains(m, "gpt-4"):
		return modelPricing{GPT4InputPer1M, GPT4OutputPer1M}
	case strings.Contains(m, "gpt-3.5"):
		return modelPricing{GPT35InputPer1M, GPT35OutputPer1M}
	case strings.Contains(m, "haiku"):
		return modelPricing{HaikuInputPer1M, HaikuOutputPer1M}
	case strings.Contains(m, "sonnet"):
		return modelPricing{SonnetInputPer1M, SonnetOutputPer1M}
	default:
		return c.fallback
	}
}

// CalculateCost prices a total token count for the given model in USD.
func (c *CostCalculator) CalculateCost(tokens int, model string) float64 {
	if tokens <= 0 {
		return 0
	}
	return float64(tokens) * c.pricing(model).blended() / 1000000
}

// CalculateCompletionCost prices prompt and completion tokens separately.
func (c *CostCalculator) CalculateCompletionCost(inputTokens, outputTokens int, model string) float64 {
	p := c.pricing(model)
	inputCost := float64(inputTokens) * p.inputPer1M / 1000000
	outputCost := float64(outputTokens) * p.outputPer1M / 1000000
	return inputCost + outputCost
}
