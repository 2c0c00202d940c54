package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
	"github.com/clubpulse/lead-conversion-backend/internal/services"
)

// StaffHandler handles staff HTTP requests
type StaffHandler struct {
	entities *services.EntityService
}

// NewStaffHandler creates a new StaffHandler
func NewStaffHandler(entities *services.EntityService) *StaffHandler {
	return &StaffHandler{entities: entities}
}

// Create handles POST /api/v1/staff
func (h *StaffHandler) Create(c *gin.Context) {
	var input models.CreateStaffInput
	if !bindJSON(c, &input) {
		return
	}
	staff, err := h.entities.CreateStaff(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, staff)
}

// Get handles GET /api/v1/staff/:id
func (h *StaffHandler) Get(c *gin.Context) {
	staff, err := h.entities.GetStaff(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, staff)
}

// List handles GET /api/v1/staff
func (h *StaffHandler) List(c *gin.Context) {
	staff, err := h.entities.ListStaff(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": staff, "total": len(staff)})
}

// Update handles PUT /api/v1/staff/:id
func (h *StaffHandler) Update(c *gin.Context) {
	var input models.UpdateStaffInput
	if !bindJSON(c, &input) {
		return
	}
	staff, err := h.entities.UpdateStaff(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, staff)
}
