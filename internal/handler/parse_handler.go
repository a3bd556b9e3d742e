package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"invoicevault/internal/domain"
	"invoicevault/internal/extract"
	"invoicevault/internal/validator"
)

// DefaultMaxUpload caps uploaded documents when no limit is configured.
const DefaultMaxUpload int64 = 32 << 20

// SummaryParseResult is the body of a successful summary parse.
type SummaryParseResult struct {
	Summary *domain.Summary        `json:"summary"`
	Checks  validator.SummaryCheck `json:"checks"`
}

// DetailParseResult is the body of a successful detail parse. Validation
// failures are reported alongside the record rather than as an error.
type DetailParseResult struct {
	Record           *domain.OrderRecord         `json:"record"`
	Fee              *domain.FeeRecord           `json:"fee,omitempty"`
	Valid            bool                        `json:"valid"`
	ValidationErrors []validator.ValidationError `json:"validation_errors,omitempty"`
}

// ParseHandler parses uploaded documents without storing anything.
type ParseHandler struct {
	extractor *extract.Extractor
	validator *validator.Validator
	maxUpload int64
}

// NewParseHandler creates a new ParseHandler. maxUpload <= 0 selects
// DefaultMaxUpload.
func NewParseHandler(extractor *extract.Extractor, val *validator.Validator, maxUpload int64) *ParseHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &ParseHandler{extractor: extractor, validator: val, maxUpload: maxUpload}
}

// ParseSummary handles POST /api/v1/parse/summary
// @Summary Parse a summary document
// @Description Extract the account header and order rows of an order-list document and cross-check the declared totals
// @Tags parse
// @Accept multipart/form-data
// @Produce json
// @Param category query string true "Document category" Enums(food, instamart)
// @Param file formData file true "Summary document (PDF or text layer)"
// @Success 200 {object} Response{data=SummaryParseResult} "Parsed summary"
// @Failure 400 {object} ErrorResponseBody "Missing file or invalid category"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 422 {object} ErrorResponseBody "Document could not be parsed"
// @Router /parse/summary [post]
func (h *ParseHandler) ParseSummary(c *gin.Context) {
	cat, ok := parseCategory(c, "category", false)
	if !ok {
		return
	}
	data, _, ok := readUpload(c, h.maxUpload)
	if !ok {
		return
	}

	summary, err := h.extractor.ParseSummary(data, cat)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, SummaryParseResult{Summary: summary, Checks: h.validator.CheckSummary(summary)})
}

// ParseDetail handles POST /api/v1/parse/detail
// @Summary Parse a detail document
// @Description Extract one order's invoice (and handling-fee sub-invoice) and run the arithmetic checks
// @Tags parse
// @Accept multipart/form-data
// @Produce json
// @Param category query string true "Document category" Enums(food, instamart)
// @Param order_id query int false "Expected order id; the document must carry it"
// @Param file formData file true "Detail document (PDF or text layer)"
// @Success 200 {object} Response{data=DetailParseResult} "Parsed record with validation outcome"
// @Failure 400 {object} ErrorResponseBody "Missing file, invalid category or order id"
// @Failure 409 {object} ErrorResponseBody "Document belongs to another order"
// @Failure 422 {object} ErrorResponseBody "Document could not be parsed"
// @Router /parse/detail [post]
func (h *ParseHandler) ParseDetail(c *gin.Context) {
	cat, ok := parseCategory(c, "category", false)
	if !ok {
		return
	}
	var expected int64
	if raw := c.Query("order_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			RespondError(c, http.StatusBadRequest, "INVALID_ORDER_ID", "order_id must be a positive integer")
			return
		}
		expected = id
	}
	data, _, ok := readUpload(c, h.maxUpload)
	if !ok {
		return
	}

	rec, fee, err := h.extractor.ParseDetail(data, cat, expected)
	if err != nil {
		HandleError(c, err)
		return
	}

	result := DetailParseResult{Record: rec, Fee: fee, Valid: true}
	if err := h.validator.Check(rec, fee, nil); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			HandleError(c, err)
			return
		}
		result.Valid = false
		result.ValidationErrors = verrs
	}
	RespondOK(c, result)
}

// readUpload reads the "file" form field, refusing files above limit. On
// failure the error response has been written.
func readUpload(c *gin.Context, limit int64) (data []byte, name string, ok bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	data, err = io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_UPLOAD", "file could not be read")
		return nil, "", false
	}
	if int64(len(data)) > limit {
		RespondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("file exceeds maximum allowed size of %d bytes", limit))
		return nil, "", false
	}
	return data, header.Filename, true
}
