package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"www.github.com/Wanderer0074348/HybridRoute/src/models"
	"www.github.com/Wanderer0074348/HybridRoute/src/router"
)

type RouterHandler struct {
	router *router.QueryRouter
	logger zerolog.Logger
}

type ProcessRequest struct {
	Input string `json:"input" binding:"required"`
}

func NewRouterHandler(r *router.QueryRouter, logger zerolog.Logger) *RouterHandler {
	return &RouterHandler{
		router: r,
		logger: logger,
	}
}

// Register mounts the public routes on rg and the operator routes on ops.
func (h *RouterHandler) Register(rg *gin.RouterGroup, ops *gin.RouterGroup) {
	rg.POST("/process", h.HandleProcess)
	rg.POST("/classify", h.HandleClassify)
	rg.GET("/stats/routing", h.RoutingStats)
	rg.GET("/stats/cache", h.CacheStats)
	rg.GET("/stats/networked", h.NetworkedStats)
	rg.GET("/health", h.HealthCheck)

	ops.DELETE("/cache", h.ClearCache)
	ops.POST("/stats/reset", h.ResetStats)
}

func (h *RouterHandler) HandleProcess(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.router.ProcessInput(c.Request.Context(), req.Input)
	if !result.Success && result.ErrorKind == models.ErrorCancelled {
		// Client went away; nothing useful to send.
		c.Status(499)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RouterHandler) HandleClassify(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.router.Classify(req.Input))
}

func (h *RouterHandler) RoutingStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.router.RoutingStatistics())
}

func (h *RouterHandler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.router.CacheStatistics())
}

func (h *RouterHandler) NetworkedStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"available":  h.router.NetworkedAvailable(),
		"rate_limit": h.router.RateLimitStatus(),
		"breaker":    h.router.BreakerSnapshot(),
	})
}

func (h *RouterHandler) HealthCheck(c *gin.Context) {
	report := h.router.CheckSystemHealth(c.Request.Context())
	status := http.StatusOK
	if report.Overall != models.HealthHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

func (h *RouterHandler) ClearCache(c *gin.Context) {
	if err := h.router.ClearCache(c.Request.Context()); err != nil {
		h.logger.Error().Err(err).Msg("cache clear failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear cache"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared", "timestamp": time.Now()})
}

func (h *RouterHandler) ResetStats(c *gin.Context) {
	h.router.ResetStatistics()
	c.JSON(http.StatusOK, gin.H{"status": "reset", "timestamp": time.Now()})
}
