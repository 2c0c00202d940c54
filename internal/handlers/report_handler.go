package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
	"github.com/clubpulse/lead-conversion-backend/internal/services"
)

// ReportHandler serves the KPI reports
type ReportHandler struct {
	reports *services.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// ConversionRate handles GET /api/v1/reports/staff/:id/conversion-rate?from=&to=
func (h *ReportHandler) ConversionRate(c *gin.Context) {
	window, ok := windowQuery(c)
	if !ok {
		return
	}
	report, err := h.reports.ConversionRate(c.Request.Context(), c.Param("id"), window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// RevenueByStaffMonth handles GET /api/v1/reports/revenue/staff-month?from=&to=
func (h *ReportHandler) RevenueByStaffMonth(c *gin.Context) {
	window, ok := windowQuery(c)
	if !ok {
		return
	}
	report, err := h.reports.RevenueByStaffMonth(c.Request.Context(), window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// TimeToConvert handles GET /api/v1/reports/leads/:id/time-to-convert
func (h *ReportHandler) TimeToConvert(c *gin.Context) {
	report, err := h.reports.TimeToConvert(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ClubTargetProgress handles GET /api/v1/reports/clubs/:id/target-progress?month=YYYY-MM
func (h *ReportHandler) ClubTargetProgress(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("month"))
	if raw == "" {
		badRequest(c, "month is required (YYYY-MM)")
		return
	}
	month, err := models.ParseMonth(raw)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	report, err := h.reports.ClubTargetProgress(c.Request.Context(), c.Param("id"), month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// StaffSummary handles GET /api/v1/reports/staff/:id/summary
func (h *ReportHandler) StaffSummary(c *gin.Context) {
	report, err := h.reports.StaffSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ClubRevenue handles GET /api/v1/reports/clubs/:id/revenue
func (h *ReportHandler) ClubRevenue(c *gin.Context) {
	report, err := h.reports.ClubRevenue(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Orphans handles GET /api/v1/reports/orphans
func (h *ReportHandler) Orphans(c *gin.Context) {
	orphans, err := h.reports.Orphans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orphans": orphans, "total": len(orphans)})
}
