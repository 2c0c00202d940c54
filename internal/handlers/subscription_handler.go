package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clubpulse/lead-conversion-backend/internal/database"
	"github.com/clubpulse/lead-conversion-backend/internal/models"
	"github.com/clubpulse/lead-conversion-backend/internal/services"
)

// SubscriptionHandler handles subscription HTTP requests
type SubscriptionHandler struct {
	entities *services.EntityService
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(entities *services.EntityService) *SubscriptionHandler {
	return &SubscriptionHandler{entities: entities}
}

// Create handles POST /api/v1/subscriptions
// The lead must already be converted.
func (h *SubscriptionHandler) Create(c *gin.Context) {
	var input models.CreateSubscriptionInput
	if !bindJSON(c, &input) {
		return
	}
	sub, err := h.entities.CreateSubscription(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// Get handles GET /api/v1/subscriptions/:id
func (h *SubscriptionHandler) Get(c *gin.Context) {
	sub, err := h.entities.GetSubscription(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// List handles GET /api/v1/subscriptions?lead_id=&active=
func (h *SubscriptionHandler) List(c *gin.Context) {
	filter := database.SubscriptionFilter{LeadID: strings.TrimSpace(c.Query("lead_id"))}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "active must be true or false")
			return
		}
		filter.ActiveOnly = active
	}

	subs, err := h.entities.ListSubscriptions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": subs, "total": len(subs)})
}

// Update handles PUT /api/v1/subscriptions/:id
func (h *SubscriptionHandler) Update(c *gin.Context) {
	var input models.UpdateSubscriptionInput
	if !bindJSON(c, &input) {
		return
	}
	sub, err := h.entities.UpdateSubscription(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}
