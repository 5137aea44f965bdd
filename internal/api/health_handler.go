package api

import (
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	version   string
	startTime time.Time
	now       func() time.Time
}

// NewHealthHandler creates a health handler; uptime counts from startTime
func NewHealthHandler(version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startTime: startTime,
		now:       time.Now,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	now := h.now()
	uptime := now.Sub(h.startTime).Seconds()

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": now.UTC(),
		"uptime":    math.Round(uptime*100) / 100,
		"version":   h.version,
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": h.now().UTC(),
	})
}
