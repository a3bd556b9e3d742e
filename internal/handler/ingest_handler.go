package handler

import (
	"github.com/gin-gonic/gin"

	"invoicevault/internal/service"
)

// IngestHandler runs uploaded summary documents through the ingest pipeline.
type IngestHandler struct {
	ingestService service.IngestService
	maxUpload     int64
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ingestService service.IngestService, maxUpload int64) *IngestHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &IngestHandler{ingestService: ingestService, maxUpload: maxUpload}
}

// Ingest handles POST /api/v1/ingest
// @Summary Ingest a summary document
// @Description Fetch, parse, validate and load every order listed in a summary document. Per-order failures are reported in the run report.
// @Tags ingest
// @Accept multipart/form-data
// @Produce json
// @Param category query string false "Document category; detected from the file name when omitted" Enums(food, instamart)
// @Param file formData file true "Summary document (PDF or text layer)"
// @Success 200 {object} Response{data=domain.RunReport} "Run report"
// @Failure 400 {object} ErrorResponseBody "Missing file or unknown category"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 422 {object} ErrorResponseBody "Summary rejected"
// @Router /ingest [post]
func (h *IngestHandler) Ingest(c *gin.Context) {
	explicit, ok := parseCategory(c, "category", true)
	if !ok {
		return
	}
	data, name, ok := readUpload(c, h.maxUpload)
	if !ok {
		return
	}
	cat, err := service.ResolveCategory(name, explicit)
	if err != nil {
		HandleError(c, err)
		return
	}

	report, err := h.ingestService.IngestSummary(c.Request.Context(), data, cat, service.IngestOptions{SummaryRef: name})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, report)
}
