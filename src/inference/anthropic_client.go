package inference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"www.github.com/Wanderer0074348/HybridRoute/src/config"
	"www.github.com/Wanderer0074348/HybridRoute/src/models"
)

// AnthropicClient implements models.CompletionClient for Claude models.
type AnthropicClient struct {
	config *config.LLMConfig
	client anthropic.Client
}

func NewAnthropicClient(cfg *config.LLMConfig, opts ...option.RequestOption) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	// Retries are owned by the router.
	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.Endpoint != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.Endpoint))
	}
	reqOpts = append(reqOpts, opts...)

	return &AnthropicClient{
		config: cfg,
		client: anthropic.NewClient(reqOpts...),
	}, nil
}

func (a *AnthropicClient) GenerateCompletion(ctx context.Context, messages []models.Message, model string, params models.CompletionParams) (*models.CompletionResponse, error) {
	if model == "" {
		model = a.config.Model
	}
	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
	}
	if params.Temperature > 0 {
		req.Temperature = anthropic.Float(params.Temperature)
	}

	for _, m := range messages {
		switch strings.ToLower(m.Role) {
		case "system":
			req.System = append(req.System, anthropic.TextBlockParam{Text: m.Content})
		case "assistant":
			req.Messages = append(req.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			req.Messages = append(req.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	resp, err := a.client.Messages.New(ctx, req)
	if err != nil {
		return nil, mapAnthropicError(err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	if content.Len() == 0 {
		return nil, fmt.Errorf("%w: no text content in response", models.ErrInvalidResponse)
	}

	out := &models.CompletionResponse{
		Content:          content.String(),
		Model:            string(resp.Model),
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}
	out.TotalTokens = out.PromptTokens + out.CompletionTokens
	if out.Model == "" {
		out.Model = model
	}
	return out, nil
}

func (a *AnthropicClient) CheckAvailability(ctx context.Context) bool {
	_, err := a.client.Models.List(ctx, anthropic.ModelListParams{})
	return err == nil
}

func mapAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", models.ErrRateLimited, err)
	}
	return fmt.Errorf("anthropic API error: %w", err)
}
