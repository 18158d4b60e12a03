package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"www.github.com/Wanderer0074348/HybridRoute/src/cache"
	"www.github.com/Wanderer0074348/HybridRoute/src/classifier"
	"www.github.com/Wanderer0074348/HybridRoute/src/config"
	"www.github.com/Wanderer0074348/HybridRoute/src/middleware"
	"www.github.com/Wanderer0074348/HybridRoute/src/mocks"
	"www.github.com/Wanderer0074348/HybridRoute/src/models"
	"www.github.com/Wanderer0074348/HybridRoute/src/router"
)

const testToken = "operator-secret"

func setupTestEngine(t *testing.T, client models.CompletionClient) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Defaults()
	cls, err := classifier.New(&cfg.Classifier, zerolog.Nop())
	require.NoError(t, err)
	rc := cache.NewResultCache(&cfg.Cache, nil, zerolog.Nop())

	var opts []router.Option
	if client != nil {
		opts = append(opts, router.WithCompletionClient(client))
	}
	qr := router.NewQueryRouter(cfg, cls, rc, opts...)

	engine := gin.New()
	v1 := engine.Group("/api/v1")
	ops := v1.Group("")
	ops.Use(middleware.NewAuthMiddleware(testToken).RequireOperator())
	NewRouterHandler(qr, zerolog.Nop()).Register(v1, ops)
	return engine
}

func doJSON(engine *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRouterHandler_Process(t *testing.T) {
	engine := setupTestEngine(t, nil)

	w := doJSON(engine, http.MethodPost, "/api/v1/process", ProcessRequest{Input: "what's my battery level"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var result models.ProcessingResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, models.RouteLocal, result.Route)
	assert.Equal(t, models.TaskSystemQuery, result.Classification.TaskType)
	assert.NotEmpty(t, result.RequestID)

	w = doJSON(engine, http.MethodPost, "/api/v1/process", ProcessRequest{Input: "what's my battery level"}, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.CacheHit)
	assert.Equal(t, models.RouteCache, result.Route)
}

func TestRouterHandler_ProcessRejectsMissingInput(t *testing.T) {
	engine := setupTestEngine(t, nil)

	w := doJSON(engine, http.MethodPost, "/api/v1/process", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/process", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouterHandler_Classify(t *testing.T) {
	engine := setupTestEngine(t, nil)

	w := doJSON(engine, http.MethodPost, "/api/v1/classify", ProcessRequest{Input: "open Safari"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var result models.ClassificationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, models.TaskAppControl, result.TaskType)
	assert.Equal(t, "safari", result.Parameters["appName"])
}

func TestRouterHandler_Stats(t *testing.T) {
	engine := setupTestEngine(t, nil)
	doJSON(engine, http.MethodPost, "/api/v1/process", ProcessRequest{Input: "check disk space"}, "")

	w := doJSON(engine, http.MethodGet, "/api/v1/stats/routing", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.RoutingStatistics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats.TotalRequests)

	w = doJSON(engine, http.MethodGet, "/api/v1/stats/cache", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var cacheStats models.CacheStatistics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cacheStats))
	assert.Equal(t, 1, cacheStats.TotalEntries)

	w = doJSON(engine, http.MethodGet, "/api/v1/stats/networked", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var networked map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &networked))
	assert.Equal(t, false, networked["available"])
	assert.Contains(t, networked, "rate_limit")
	assert.Contains(t, networked, "breaker")
}

func TestRouterHandler_Health(t *testing.T) {
	w := doJSON(setupTestEngine(t, nil), http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	client := new(mocks.MockCompletionClient)
	client.On("CheckAvailability", mock.Anything).Return(true)

	w = doJSON(setupTestEngine(t, client), http.MethodGet, "/api/v1/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var report models.HealthReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, models.HealthHealthy, report.Overall)
}

func TestRouterHandler_OperatorEndpoints(t *testing.T) {
	engine := setupTestEngine(t, nil)
	doJSON(engine, http.MethodPost, "/api/v1/process", ProcessRequest{Input: "check disk space"}, "")

	assert.Equal(t, http.StatusUnauthorized, doJSON(engine, http.MethodDelete, "/api/v1/cache", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(engine, http.MethodDelete, "/api/v1/cache", nil, "wrong").Code)

	assert.Equal(t, http.StatusOK, doJSON(engine, http.MethodDelete, "/api/v1/cache", nil, testToken).Code)
	assert.Equal(t, http.StatusOK, doJSON(engine, http.MethodPost, "/api/v1/stats/reset", nil, testToken).Code)

	var cacheStats models.CacheStatistics
	w := doJSON(engine, http.MethodGet, "/api/v1/stats/cache", nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cacheStats))
	assert.Zero(t, cacheStats.TotalEntries)

	var stats models.RoutingStatistics
	w = doJSON(engine, http.MethodGet, "/api/v1/stats/routing", nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Zero(t, stats.TotalRequests)
}
