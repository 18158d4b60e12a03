package router

import (
	"context"
	"errors"

	"www.github.com/Wanderer0074348/HybridRoute/src/breaker"
	"www.github.com/Wanderer0074348/HybridRoute/src/models"
	"www.github.com/Wanderer0074348/HybridRoute/src/retry"
	"www.github.com/Wanderer0074348/HybridRoute/src/utils"
)

// answerNetworked admits the request through the rate limiter, then calls the
// completion client through the breaker with a per-attempt timeout and
// retries. The whole path, admission wait included, is bounded by the
// configured networked budget. On success result is filled; on failure a
// *models.RouteError is returned and result is left for the fallback manager.
func (r *QueryRouter) answerNetworked(ctx context.Context, input string, result *models.ProcessingResult) error {
	if r.client == nil {
		return &models.RouteError{Kind: models.ErrorUnavailable, Route: models.RouteNetworked, Err: models.ErrUnavailable}
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.NetworkedBudget())
	defer cancel()

	llm := r.config.LLM
	messages := r.buildMessages(input)

	estimated := utils.EstimateTokenCount(r.config.Router.SystemPrompt) +
		utils.EstimateTokenCount(input) +
		r.config.RateLimit.ExpectedCompletionTokens
	if err := r.admit(ctx, estimated); err != nil {
		return err
	}

	var resp *models.CompletionResponse
	outcome := r.retrier.Do(ctx, r.config.Retry.MaxAttempts, func(ctx context.Context) error {
		out, err := breaker.Call(r.breaker, func() (*models.CompletionResponse, error) {
			return retry.WithTimeout(ctx, llm.Timeout, func(ctx context.Context) (*models.CompletionResponse, error) {
				return r.complete(ctx, messages)
			})
		})
		if err != nil {
			return err
		}
		resp = out
		return nil
	})

	switch outcome.Outcome {
	case retry.Succeeded:
	case retry.Cancelled:
		return &models.RouteError{Kind: ctxKind(ctx), Route: models.RouteNetworked, Attempts: outcome.Attempts, Err: outcome.Err}
	default:
		return &models.RouteError{Kind: models.KindOf(outcome.Err), Route: models.RouteNetworked, Attempts: outcome.Attempts, Err: outcome.Err}
	}

	model := resp.Model
	if model == "" {
		model = llm.Model
	}
	tokens := resp.TotalTokens
	if tokens == 0 {
		tokens = resp.PromptTokens + resp.CompletionTokens
	}
	if tokens == 0 {
		tokens = utils.EstimateTokenCount(input) + utils.EstimateTokenCount(resp.Content)
	}

	result.Route = models.RouteNetworked
	result.Success = true
	result.Output = resp.Content
	result.Model = model
	result.TokensUsed = tokens
	result.Cost = r.price(resp, tokens, model)
	return nil
}

// price uses split prompt and completion rates when the calculator offers them
// and the response reports both counts, otherwise a blended rate on tokens.
func (r *QueryRouter) price(resp *models.CompletionResponse, tokens int, model string) float64 {
	if r.costs == nil {
		return 0
	}
	if split, ok := r.costs.(splitPricer); ok && resp.PromptTokens > 0 && resp.CompletionTokens > 0 {
		return split.CalculateCompletionCost(resp.PromptTokens, resp.CompletionTokens, model)
	}
	return r.costs.CalculateCost(tokens, model)
}

type splitPricer interface {
	CalculateCompletionCost(inputTokens, outputTokens int, model string) float64
}

// complete is one client call. An empty completion is an invalid response.
func (r *QueryRouter) complete(ctx context.Context, messages []models.Message) (*models.CompletionResponse, error) {
	llm := r.config.LLM
	resp, err := r.client.GenerateCompletion(ctx, messages, llm.Model, models.CompletionParams{
		MaxTokens:   llm.MaxTokens,
		Temperature: llm.Temperature,
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || isBlank(resp.Content) {
		return nil, models.ErrInvalidResponse
	}
	return resp, nil
}

func (r *QueryRouter) admit(ctx context.Context, tokens int) error {
	var err error
	if r.config.RateLimit.BlockOnLimit {
		err = r.limiter.Wait(ctx, tokens)
	} else {
		err = r.limiter.CheckRateLimit(tokens)
	}
	if err == nil {
		return nil
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return &models.RouteError{Kind: ctxKind(ctx), Route: models.RouteNetworked, Err: err}
	}
	r.logger.Warn().Err(err).Int("estimated_tokens", tokens).Msg("networked request not admitted")
	return &models.RouteError{Kind: models.ErrorRateLimited, Route: models.RouteNetworked, Err: err}
}

// ctxKind tells a caller that went away from a deadline that ran out.
func ctxKind(ctx context.Context) models.ErrorKind {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return models.ErrorTimeout
	}
	return models.ErrorCancelled
}

func (r *QueryRouter) buildMessages(input string) []models.Message {
	var messages []models.Message
	if prompt := r.config.Router.SystemPrompt; prompt != "" {
		messages = append(messages, models.Message{Role: "system", Content: prompt})
	}
	return append(messages, models.Message{Role: "user", Content: input})
}
