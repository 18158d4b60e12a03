package inference

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"www.github.com/Wanderer0074348/HybridRoute/src/config"
	"www.github.com/Wanderer0074348/HybridRoute/src/models"
)

// LLMClient talks to any OpenAI-compatible chat endpoint. Completions go
// through langchaingo; the availability probe lists models with go-openai.
type LLMClient struct {
	config *config.LLMConfig
	llm    llms.Model
	api    *goopenai.Client
}

func NewLLMClient(cfg *config.LLMConfig) (*LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm api key is required")
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(rateLimitDoer{client: http.DefaultClient}),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, openai.WithBaseURL(cfg.Endpoint))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		apiCfg.BaseURL = cfg.Endpoint
	}

	return &LLMClient{
		config: cfg,
		llm:    llm,
		api:    goopenai.NewClientWithConfig(apiCfg),
	}, nil
}

func (c *LLMClient) GenerateCompletion(ctx context.Context, messages []models.Message, model string, params models.CompletionParams) (*models.CompletionResponse, error) {
	if model == "" {
		model = c.config.Model
	}

	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(chatRole(m.Role), m.Content))
	}

	callOptions := []llms.CallOption{llms.WithModel(model)}
	if params.MaxTokens > 0 {
		callOptions = append(callOptions, llms.WithMaxTokens(params.MaxTokens))
	}
	if params.Temperature > 0 {
		callOptions = append(callOptions, llms.WithTemperature(params.Temperature))
	}

	resp, err := c.llm.GenerateContent(ctx, content, callOptions...)
	if err != nil {
		return nil, fmt.Errorf("OpenAI generation failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", models.ErrInvalidResponse)
	}

	choice := resp.Choices[0]
	out := &models.CompletionResponse{
		Content:          choice.Content,
		Model:            model,
		PromptTokens:     intInfo(choice.GenerationInfo, "PromptTokens"),
		CompletionTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
		TotalTokens:      intInfo(choice.GenerationInfo, "TotalTokens"),
	}
	if out.TotalTokens == 0 {
		out.TotalTokens = out.PromptTokens + out.CompletionTokens
	}
	return out, nil
}

// CheckAvailability lists models as a cheap authenticated round trip.
func (c *LLMClient) CheckAvailability(ctx context.Context) bool {
	_, err := c.api.ListModels(ctx)
	return err == nil
}

func chatRole(role string) schema.ChatMessageType {
	switch strings.ToLower(role) {
	case "system":
		return schema.ChatMessageTypeSystem
	case "assistant", "ai":
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// rateLimitDoer turns a 429 into models.ErrRateLimited before langchaingo
// flattens the status into an untyped error string.
type rateLimitDoer struct {
	client *http.Client
}

func (d rateLimitDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		return resp, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return nil, fmt.Errorf("%w: status %d: %s", models.ErrRateLimited, resp.StatusCode, strings.TrimSpace(string(body)))
}
