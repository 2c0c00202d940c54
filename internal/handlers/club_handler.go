package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
	"github.com/clubpulse/lead-conversion-backend/internal/services"
)

// ClubHandler handles club HTTP requests
type ClubHandler struct {
	entities *services.EntityService
}

// NewClubHandler creates a new ClubHandler
func NewClubHandler(entities *services.EntityService) *ClubHandler {
	return &ClubHandler{entities: entities}
}

// Create handles POST /api/v1/clubs
func (h *ClubHandler) Create(c *gin.Context) {
	var input models.CreateClubInput
	if !bindJSON(c, &input) {
		return
	}
	club, err := h.entities.CreateClub(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, club)
}

// Get handles GET /api/v1/clubs/:id
func (h *ClubHandler) Get(c *gin.Context) {
	club, err := h.entities.GetClub(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, club)
}

// List handles GET /api/v1/clubs
func (h *ClubHandler) List(c *gin.Context) {
	clubs, err := h.entities.ListClubs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clubs": clubs, "total": len(clubs)})
}

// Update handles PUT /api/v1/clubs/:id
func (h *ClubHandler) Update(c *gin.Context) {
	var input models.UpdateClubInput
	if !bindJSON(c, &input) {
		return
	}
	club, err := h.entities.UpdateClub(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, club)
}
