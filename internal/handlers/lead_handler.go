package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clubpulse/lead-conversion-backend/internal/database"
	"github.com/clubpulse/lead-conversion-backend/internal/models"
	"github.com/clubpulse/lead-conversion-backend/internal/services"
)

// LeadHandler handles lead CRUD and lifecycle HTTP requests
type LeadHandler struct {
	entities  *services.EntityService
	lifecycle *services.LifecycleService
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(entities *services.EntityService, lifecycle *services.LifecycleService) *LeadHandler {
	return &LeadHandler{
		entities:  entities,
		lifecycle: lifecycle,
	}
}

// Create handles POST /api/v1/leads
func (h *LeadHandler) Create(c *gin.Context) {
	var input models.CreateLeadInput
	if !bindJSON(c, &input) {
		return
	}
	lead, err := h.entities.CreateLead(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lead)
}

// Get handles GET /api/v1/leads/:id
func (h *LeadHandler) Get(c *gin.Context) {
	lead, err := h.entities.GetLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// List handles GET /api/v1/leads?status=&staff_id=&club_id=
func (h *LeadHandler) List(c *gin.Context) {
	filter := database.LeadFilter{
		StaffID: strings.TrimSpace(c.Query("staff_id")),
		ClubID:  strings.TrimSpace(c.Query("club_id")),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, err := models.ParseLeadStatus(raw)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		filter.Status = status
	}

	leads, err := h.entities.ListLeads(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": leads, "total": len(leads)})
}

// Update handles PUT /api/v1/leads/:id
// Status is not editable here; use the transitions endpoint.
func (h *LeadHandler) Update(c *gin.Context) {
	var input models.UpdateLeadInput
	if !bindJSON(c, &input) {
		return
	}
	lead, err := h.entities.UpdateLead(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// Transition handles POST /api/v1/leads/:id/transitions
func (h *LeadHandler) Transition(c *gin.Context) {
	var input services.TransitionInput
	if !bindJSON(c, &input) {
		return
	}
	result, err := h.lifecycle.Transition(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AllowedTransitions handles GET /api/v1/leads/:id/transitions
func (h *LeadHandler) AllowedTransitions(c *gin.Context) {
	allowed, err := h.lifecycle.AllowedTransitions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lead_id": c.Param("id"), "allowed": allowed})
}
