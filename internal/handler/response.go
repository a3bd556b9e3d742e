package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"invoicevault/internal/domain"
	"invoicevault/internal/logger"
	"invoicevault/internal/middleware"
	"invoicevault/internal/validator"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
// Client-facing messages carry the error text for input problems and a fixed
// message otherwise.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrInvalidCategory):
		return http.StatusBadRequest, "INVALID_CATEGORY", err.Error()
	case errors.Is(err, domain.ErrCategoryMismatch):
		return http.StatusBadRequest, "CATEGORY_MISMATCH", err.Error()
	case errors.Is(err, domain.ErrEmptyDocument):
		return http.StatusBadRequest, "EMPTY_DOCUMENT", "document is empty"
	case errors.Is(err, domain.ErrUnreadableDocument):
		return http.StatusUnprocessableEntity, "UNREADABLE_DOCUMENT", err.Error()
	case errors.Is(err, domain.ErrOrderIDMismatch):
		return http.StatusConflict, "ORDER_ID_MISMATCH", err.Error()
	case errors.Is(err, domain.ErrSummaryParse):
		return http.StatusUnprocessableEntity, "SUMMARY_PARSE_FAILED", err.Error()
	case errors.Is(err, domain.ErrDetailParse):
		return http.StatusUnprocessableEntity, "DETAIL_PARSE_FAILED", err.Error()
	case errors.Is(err, domain.ErrMalformedAmount), errors.Is(err, domain.ErrMalformedDate):
		return http.StatusUnprocessableEntity, "MALFORMED_FIELD", err.Error()
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error()
	case errors.Is(err, domain.ErrMissingPartyKey):
		return http.StatusUnprocessableEntity, "MISSING_PARTY_KEY", "customer email is required to load an order"
	case errors.Is(err, domain.ErrFetch):
		return http.StatusBadGateway, "FETCH_FAILED", "detail document could not be fetched"
	case errors.Is(err, domain.ErrStorage):
		return http.StatusInternalServerError, "STORAGE_ERROR", "order could not be stored"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
// Validation failures carry the individual violations as details.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		log := logger.WithRequestID(middleware.GetRequestID(c))
		log.Error().Err(err).Msg("internal error")
	}
	apiErr := &APIError{Code: code, Message: msg}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		apiErr.Details = verrs
	}
	c.JSON(status, APIResponse{Success: false, Error: apiErr})
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

// parseCategory reads a category from the named query parameter. An empty
// value is allowed when optional is set.
func parseCategory(c *gin.Context, param string, optional bool) (domain.Category, bool) {
	raw := c.Query(param)
	if raw == "" && optional {
		return "", true
	}
	cat, err := domain.ParseCategory(raw)
	if err != nil {
		HandleError(c, err)
		return "", false
	}
	return cat, true
}
