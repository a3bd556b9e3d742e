package handler_test

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicevault/internal/extract"
	"invoicevault/internal/extract/extracttest"
	"invoicevault/internal/handler"
	"invoicevault/internal/normalize"
	"invoicevault/internal/validator"
)

const orderID int64 = 100000000000001

func newParseHandler(maxUpload int64) *handler.ParseHandler {
	return handler.NewParseHandler(
		extract.New(normalize.New(normalize.DefaultConfig()), extract.DefaultConfig()),
		validator.New(validator.DefaultConfig()),
		maxUpload,
	)
}

// --- ParseSummary ---

func TestParseHandler_ParseSummary_Success(t *testing.T) {
	rows := []extracttest.SummaryRow{
		{Date: "15-01-2025", OrderID: fmt.Sprint(orderID), Name: "Test Kitchen", Amount: "₹598.50", Link: extracttest.DetailLink(orderID)},
	}
	doc := extracttest.NewSummary("1", "₹598.50", rows).Render()
	c, w := uploadContext(t, "/api/v1/parse/summary?category=food", "order_summary_food.txt", doc)

	newParseHandler(0).ParseSummary(c)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.True(t, resp.Success)
	summary := dataMap(t, resp)["summary"].(map[string]any)
	assert.Equal(t, "food", summary["category"])
	assert.Len(t, summary["orders"], 1)
	header := summary["header"].(map[string]any)
	assert.Equal(t, "dan@example.com", header["customer_email"])
}

func TestParseHandler_ParseSummary_InvalidCategory(t *testing.T) {
	c, w := uploadContext(t, "/api/v1/parse/summary?category=grocery", "s.txt", []byte("x"))

	newParseHandler(0).ParseSummary(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_CATEGORY", decode(t, w).Error.Code)
}

func TestParseHandler_ParseSummary_NoFile(t *testing.T) {
	c, w := uploadContext(t, "/api/v1/parse/summary?category=food", "", nil)

	newParseHandler(0).ParseSummary(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", decode(t, w).Error.Code)
}

func TestParseHandler_ParseSummary_Unparseable(t *testing.T) {
	c, w := uploadContext(t, "/api/v1/parse/summary?category=food", "s.txt", []byte("nothing to see\n"))

	newParseHandler(0).ParseSummary(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "SUMMARY_PARSE_FAILED", decode(t, w).Error.Code)
}

func TestParseHandler_ParseSummary_TooLarge(t *testing.T) {
	c, w := uploadContext(t, "/api/v1/parse/summary?category=food", "s.txt", bytes.Repeat([]byte("a"), 64))

	newParseHandler(16).ParseSummary(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "FILE_TOO_LARGE", decode(t, w).Error.Code)
}

// --- ParseDetail ---

func TestParseHandler_ParseDetail_Valid(t *testing.T) {
	target := fmt.Sprintf("/api/v1/parse/detail?category=food&order_id=%d", orderID)
	c, w := uploadContext(t, target, "detail.txt", extracttest.NewFood(orderID).Render())

	newParseHandler(0).ParseDetail(c)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataMap(t, decode(t, w))
	assert.Equal(t, true, data["valid"])
	assert.NotContains(t, data, "validation_errors")
	record := data["record"].(map[string]any)
	assert.Len(t, record["items"], 2)
}

func TestParseHandler_ParseDetail_ReportsValidationErrors(t *testing.T) {
	doc := extracttest.NewFood(orderID)
	doc.Items[0].Net = "440.00"
	c, w := uploadContext(t, "/api/v1/parse/detail?category=food", "detail.txt", doc.Render())

	newParseHandler(0).ParseDetail(c)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataMap(t, decode(t, w))
	assert.Equal(t, false, data["valid"])
	verrs := data["validation_errors"].([]any)
	require.NotEmpty(t, verrs)
	assert.Equal(t, "item.net", verrs[0].(map[string]any)["rule"])
}

func TestParseHandler_ParseDetail_OrderIDMismatch(t *testing.T) {
	target := fmt.Sprintf("/api/v1/parse/detail?category=food&order_id=%d", orderID+1)
	c, w := uploadContext(t, target, "detail.txt", extracttest.NewFood(orderID).Render())

	newParseHandler(0).ParseDetail(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ORDER_ID_MISMATCH", decode(t, w).Error.Code)
}

func TestParseHandler_ParseDetail_InvalidOrderID(t *testing.T) {
	c, w := uploadContext(t, "/api/v1/parse/detail?category=food&order_id=abc", "detail.txt", []byte("x"))

	newParseHandler(0).ParseDetail(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ORDER_ID", decode(t, w).Error.Code)
}

func TestParseHandler_ParseDetail_EmptyFile(t *testing.T) {
	c, w := uploadContext(t, "/api/v1/parse/detail?category=instamart", "detail.txt", []byte{})

	newParseHandler(0).ParseDetail(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_DOCUMENT", decode(t, w).Error.Code)
}
