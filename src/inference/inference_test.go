package inference

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"

	"www.github.com/Wanderer0074348/HybridRoute/src/config"
	"www.github.com/Wanderer0074348/HybridRoute/src/models"
)

func testLLMConfig(provider, endpoint string) *config.LLMConfig {
	return &config.LLMConfig{
		Provider:  provider,
		Endpoint:  endpoint,
		APIKey:    "test-key",
		Model:     "test-model",
		MaxTokens: 64,
		Timeout:   5 * time.Second,
	}
}

func TestLLMClient_GenerateCompletion(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "It is sunny."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16}
		}`)
	}))
	defer srv.Close()

	client, err := NewLLMClient(testLLMConfig("openai", srv.URL))
	require.NoError(t, err)

	resp, err := client.GenerateCompletion(context.Background(), []models.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "weather?"},
	}, "", models.CompletionParams{MaxTokens: 32})
	require.NoError(t, err)

	assert.Equal(t, "It is sunny.", resp.Content)
	assert.Equal(t, "test-model", resp.Model)
	assert.Equal(t, 12, resp.PromptTokens)
	assert.Equal(t, 4, resp.CompletionTokens)
	assert.Equal(t, 16, resp.TotalTokens)

	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestLLMClient_ServerErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error": {"message": "boom", "type": "server_error"}}`)
	}))
	defer srv.Close()

	client, err := NewLLMClient(testLLMConfig("openai", srv.URL))
	require.NoError(t, err)

	_, err = client.GenerateCompletion(context.Background(), []models.Message{{Role: "user", Content: "hi"}}, "", models.CompletionParams{})
	assert.Error(t, err)
}

func TestLLMClient_RateLimitMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error": {"message": "slow down", "type": "rate_limit_exceeded"}}`)
	}))
	defer srv.Close()

	client, err := NewLLMClient(testLLMConfig("openai", srv.URL))
	require.NoError(t, err)

	_, err = client.GenerateCompletion(context.Background(), []models.Message{{Role: "user", Content: "hi"}}, "", models.CompletionParams{})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrRateLimited)
	assert.Equal(t, models.ErrorRateLimited, models.KindOf(err))
	assert.False(t, models.IsRetryable(err))
}

func TestLLMClient_CheckAvailability(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"object": "list", "data": [{"id": "test-model", "object": "model", "created": 1, "owned_by": "me"}]}`)
	}))
	defer up.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer down.Close()

	ok, err := NewLLMClient(testLLMConfig("openai", up.URL))
	require.NoError(t, err)
	assert.True(t, ok.CheckAvailability(context.Background()))

	bad, err := NewLLMClient(testLLMConfig("openai", down.URL))
	require.NoError(t, err)
	assert.False(t, bad.CheckAvailability(context.Background()))
}

func TestAnthropicClient_GenerateCompletion(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "Hello "}, {"type": "text", "text": "there."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 9, "output_tokens": 3}
		}`)
	}))
	defer srv.Close()

	client, err := NewAnthropicClient(testLLMConfig("anthropic", srv.URL))
	require.NoError(t, err)

	resp, err := client.GenerateCompletion(context.Background(), []models.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
	}, "", models.CompletionParams{})
	require.NoError(t, err)

	assert.Equal(t, "Hello there.", resp.Content)
	assert.Equal(t, "claude-test", resp.Model)
	assert.Equal(t, 9, resp.PromptTokens)
	assert.Equal(t, 3, resp.CompletionTokens)
	assert.Equal(t, 12, resp.TotalTokens)

	assert.Equal(t, "test-model", body["model"])
	assert.EqualValues(t, 1024, body["max_tokens"])
	assert.NotNil(t, body["system"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 1)
}

func TestAnthropicClient_RateLimitMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"type": "error", "error": {"type": "rate_limit_error", "message": "slow down"}}`)
	}))
	defer srv.Close()

	client, err := NewAnthropicClient(testLLMConfig("anthropic", srv.URL))
	require.NoError(t, err)

	_, err = client.GenerateCompletion(context.Background(), []models.Message{{Role: "user", Content: "hi"}}, "", models.CompletionParams{})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrRateLimited)
	assert.Equal(t, models.ErrorRateLimited, models.KindOf(err))
}

func TestAnthropicClient_EmptyContentIsInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id": "msg_2", "type": "message", "role": "assistant", "model": "claude-test", "content": [], "usage": {"input_tokens": 1, "output_tokens": 0}}`)
	}))
	defer srv.Close()

	client, err := NewAnthropicClient(testLLMConfig("anthropic", srv.URL))
	require.NoError(t, err)

	_, err = client.GenerateCompletion(context.Background(), []models.Message{{Role: "user", Content: "hi"}}, "", models.CompletionParams{})
	assert.ErrorIs(t, err, models.ErrInvalidResponse)
}

func TestNewCompletionClient(t *testing.T) {
	client, err := NewCompletionClient(&config.LLMConfig{Provider: "openai"})
	require.NoError(t, err)
	assert.Nil(t, client)

	client, err = NewCompletionClient(testLLMConfig("openai", ""))
	require.NoError(t, err)
	assert.IsType(t, &LLMClient{}, client)

	client, err = NewCompletionClient(testLLMConfig("anthropic", ""))
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, client)

	_, err = NewCompletionClient(testLLMConfig("cohere", ""))
	assert.Error(t, err)
}

func TestChatRole(t *testing.T) {
	assert.Equal(t, schema.ChatMessageTypeSystem, chatRole("System"))
	assert.Equal(t, schema.ChatMessageTypeAI, chatRole("assistant"))
	assert.Equal(t, schema.ChatMessageTypeHuman, chatRole("user"))
	assert.Equal(t, schema.ChatMessageTypeHuman, chatRole(""))
}

func TestIntInfo(t *testing.T) {
	info := map[string]any{"a": 3, "b": int64(4), "c": float64(5), "d": "x"}
	assert.Equal(t, 3, intInfo(info, "a"))
	assert.Equal(t, 4, intInfo(info, "b"))
	assert.Equal(t, 5, intInfo(info, "c"))
	assert.Equal(t, 0, intInfo(info, "d"))
	assert.Equal(t, 0, intInfo(nil, "a"))
}
