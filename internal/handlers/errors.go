package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// respondError maps domain errors to status codes. Anything unrecognised is
// a 500 whose cause goes to the request log, not the client.
func respondError(c *gin.Context, err error) {
	var (
		verr  *models.ValidationError
		terr  *models.InvalidTransitionError
		ncerr *models.NotConvertedError
		nferr *models.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: verr.Error(),
			Code:    verr.Entity,
			Details: verr.Fields,
		})
	case errors.As(err, &terr):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "invalid_transition",
			Message: terr.Error(),
			Details: terr,
		})
	case errors.As(err, &ncerr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "not_converted",
			Message: ncerr.Error(),
			Details: ncerr,
		})
	case errors.As(err, &nferr):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: nferr.Error(),
			Code:    nferr.Entity,
		})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
		})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: message,
	})
}

// bindJSON decodes the body into dst, answering 400 on failure
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// windowQuery reads the optional from/to dates of a half-open window
func windowQuery(c *gin.Context) (models.Window, bool) {
	var w models.Window
	verr := models.NewValidationError("window")
	for _, q := range []struct {
		key string
		dst *time.Time
	}{
		{"from", &w.From},
		{"to", &w.To},
	} {
		raw := strings.TrimSpace(c.Query(q.key))
		if raw == "" {
			continue
		}
		t, err := models.ParseDate(raw)
		if err != nil {
			verr.Add(q.key, err.Error())
			continue
		}
		*q.dst = t
	}
	if !w.From.IsZero() && !w.To.IsZero() && !w.To.After(w.From) {
		verr.Add("to", "must be after from")
	}
	if verr.HasErrors() {
		respondError(c, verr)
		return models.Window{}, false
	}
	return w, true
}
