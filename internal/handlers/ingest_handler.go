package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clubpulse/lead-conversion-backend/internal/services"
)

// IngestHandler accepts bulk imports of loosely typed records
type IngestHandler struct {
	ingestion *services.IngestionService
	maxRows   int
}

// NewIngestHandler creates a new IngestHandler. maxRows <= 0 means no limit.
func NewIngestHandler(ingestion *services.IngestionService, maxRows int) *IngestHandler {
	return &IngestHandler{
		ingestion: ingestion,
		maxRows:   maxRows,
	}
}

// Import handles POST /api/v1/ingest
// Rejected rows are reported in the body; the request itself still succeeds.
func (h *IngestHandler) Import(c *gin.Context) {
	var batch services.Batch
	if !bindJSON(c, &batch) {
		return
	}
	if batch.Size() == 0 {
		badRequest(c, "Batch contains no records")
		return
	}
	if h.maxRows > 0 && batch.Size() > h.maxRows {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "batch_too_large",
			Message: "Batch exceeds the maximum number of rows",
		})
		return
	}

	result, err := h.ingestion.Import(c.Request.Context(), &batch)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if len(result.Errors) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}
