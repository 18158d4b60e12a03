package inference

import (
	"fmt"

	"www.github.com/Wanderer0074348/HybridRoute/src/config"
	"www.github.com/Wanderer0074348/HybridRoute/src/models"
)

// NewCompletionClient returns the client for cfg.Provider, or nil when no
// API key is configured so the router can run local-only.
func NewCompletionClient(cfg *config.LLMConfig) (models.CompletionClient, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}

	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicClient(cfg)
	case "openai", "":
		return NewLLMClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
