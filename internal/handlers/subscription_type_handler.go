package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
	"github.com/clubpulse/lead-conversion-backend/internal/services"
)

// SubscriptionTypeHandler handles membership plan HTTP requests
type SubscriptionTypeHandler struct {
	entities *services.EntityService
}

// NewSubscriptionTypeHandler creates a new SubscriptionTypeHandler
func NewSubscriptionTypeHandler(entities *services.EntityService) *SubscriptionTypeHandler {
	return &SubscriptionTypeHandler{entities: entities}
}

// Create handles POST /api/v1/subscription-types
func (h *SubscriptionTypeHandler) Create(c *gin.Context) {
	var input models.CreateSubscriptionTypeInput
	if !bindJSON(c, &input) {
		return
	}
	st, err := h.entities.CreateSubscriptionType(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// Get handles GET /api/v1/subscription-types/:id
func (h *SubscriptionTypeHandler) Get(c *gin.Context) {
	st, err := h.entities.GetSubscriptionType(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// List handles GET /api/v1/subscription-types
func (h *SubscriptionTypeHandler) List(c *gin.Context) {
	types, err := h.entities.ListSubscriptionTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription_types": types, "total": len(types)})
}

// Update handles PUT /api/v1/subscription-types/:id
func (h *SubscriptionTypeHandler) Update(c *gin.Context) {
	var input models.UpdateSubscriptionTypeInput
	if !bindJSON(c, &input) {
		return
	}
	st, err := h.entities.UpdateSubscriptionType(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
