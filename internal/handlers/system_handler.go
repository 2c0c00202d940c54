package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clubpulse/lead-conversion-backend/internal/services"
)

// Pinger is anything that can report its own reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves health checks and operational triggers
type SystemHandler struct {
	store   Pinger
	cron    *services.CronService
	version string
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(store Pinger, cron *services.CronService, version string) *SystemHandler {
	return &SystemHandler{
		store:   store,
		cron:    cron,
		version: version,
	}
}

// Health handles GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "lead-conversion-backend",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "lead-conversion-backend",
		"version":   h.version,
		"timestamp": time.Now().Unix(),
	})
}

// JobStatus handles GET /api/v1/admin/jobs
func (h *SystemHandler) JobStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.cron.GetJobStatus())
}

// RefreshRevenue handles POST /api/v1/admin/jobs/revenue-refresh
func (h *SystemHandler) RefreshRevenue(c *gin.Context) {
	changed, err := h.cron.RefreshRevenue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clubs_changed": changed})
}

// ExpireSubscriptions handles POST /api/v1/admin/jobs/subscription-expiry
func (h *SystemHandler) ExpireSubscriptions(c *gin.Context) {
	expired, err := h.cron.ExpireSubscriptions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": expired})
}
