package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoicevault/internal/domain"
	"invoicevault/internal/handler"
	"invoicevault/mocks"
)

func getContext(target string, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	c.Params = params
	return c, w
}

// --- GetByID ---

func TestOrderHandler_GetByID_Success(t *testing.T) {
	reader := new(mocks.MockOrderReader)
	h := handler.NewOrderHandler(reader)

	order := &domain.StoredOrder{
		Category:      domain.CategoryFood,
		OrderID:       orderID,
		CustomerEmail: "dan@example.com",
		InvoiceTotal:  decimal.RequireFromString("598.50"),
		ItemCount:     1,
	}
	items := []domain.LineItem{{Seq: 1, Description: "Paneer Tikka", Quantity: 2}}
	reader.On("GetOrder", mock.Anything, domain.CategoryFood, orderID).Return(order, nil)
	reader.On("ListItems", mock.Anything, domain.CategoryFood, orderID).Return(items, nil)

	c, w := getContext("/api/v1/orders/food/100000000000001",
		gin.Param{Key: "category", Value: "food"}, gin.Param{Key: "id", Value: "100000000000001"})
	h.GetByID(c)

	require.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, decode(t, w))
	assert.Equal(t, "dan@example.com", data["order"].(map[string]any)["customer_email"])
	assert.Len(t, data["items"], 1)
	reader.AssertExpectations(t)
}

func TestOrderHandler_GetByID_NotFound(t *testing.T) {
	reader := new(mocks.MockOrderReader)
	h := handler.NewOrderHandler(reader)
	reader.On("GetOrder", mock.Anything, domain.CategoryInstamart, int64(42)).Return(nil, domain.ErrNotFound)

	c, w := getContext("/api/v1/orders/instamart/42",
		gin.Param{Key: "category", Value: "instamart"}, gin.Param{Key: "id", Value: "42"})
	h.GetByID(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	reader.AssertNotCalled(t, "ListItems", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderHandler_GetByID_BadParams(t *testing.T) {
	h := handler.NewOrderHandler(new(mocks.MockOrderReader))

	c, w := getContext("/api/v1/orders/grocery/1",
		gin.Param{Key: "category", Value: "grocery"}, gin.Param{Key: "id", Value: "1"})
	h.GetByID(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = getContext("/api/v1/orders/food/x",
		gin.Param{Key: "category", Value: "food"}, gin.Param{Key: "id", Value: "x"})
	h.GetByID(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", decode(t, w).Error.Code)
}

// --- List ---

func TestOrderHandler_List_Paginated(t *testing.T) {
	reader := new(mocks.MockOrderReader)
	h := handler.NewOrderHandler(reader)
	orders := []domain.StoredOrder{{Category: domain.CategoryFood, OrderID: orderID}}
	reader.On("ListOrders", mock.Anything, domain.CategoryFood, "dan@example.com", 10, 20).Return(orders, 11, nil)

	c, w := getContext("/api/v1/orders?category=food&email=dan@example.com&offset=10&limit=500")
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, handler.PagMeta{Total: 11, Offset: 10, Limit: 20}, *resp.Meta)
	assert.Len(t, resp.Data, 1)
}

func TestOrderHandler_List_EmptyIsArray(t *testing.T) {
	reader := new(mocks.MockOrderReader)
	h := handler.NewOrderHandler(reader)
	reader.On("ListOrders", mock.Anything, domain.CategoryInstamart, "", 0, 20).Return(nil, 0, nil)

	c, w := getContext("/api/v1/orders?category=instamart")
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestOrderHandler_List_MissingCategory(t *testing.T) {
	h := handler.NewOrderHandler(new(mocks.MockOrderReader))

	c, w := getContext("/api/v1/orders")
	h.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Health ---

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	c, w := getContext("/healthz")
	handler.NewHealthHandler(nil).Liveness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = getContext("/readyz")
	handler.NewHealthHandler(nil).Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = getContext("/readyz")
	handler.NewHealthHandler(fakePinger{}).Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = getContext("/readyz")
	handler.NewHealthHandler(fakePinger{err: errors.New("refused")}).Readiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// --- MapDomainError ---

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrInvalidCategory, http.StatusBadRequest, "INVALID_CATEGORY"},
		{domain.ErrCategoryMismatch, http.StatusBadRequest, "CATEGORY_MISMATCH"},
		{&domain.SummaryParseError{Reason: "no header"}, http.StatusUnprocessableEntity, "SUMMARY_PARSE_FAILED"},
		{&domain.DetailParseError{Field: "invoice_number"}, http.StatusUnprocessableEntity, "DETAIL_PARSE_FAILED"},
		{&domain.MalformedAmountError{Token: "₹1,2x"}, http.StatusUnprocessableEntity, "MALFORMED_FIELD"},
		{&domain.OrderIDMismatchError{Expected: 1, Found: 2}, http.StatusConflict, "ORDER_ID_MISMATCH"},
		{domain.ErrValidation, http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
		{domain.ErrMissingPartyKey, http.StatusUnprocessableEntity, "MISSING_PARTY_KEY"},
		{&domain.FetchError{Ref: "x", Err: errors.New("timeout")}, http.StatusBadGateway, "FETCH_FAILED"},
		{domain.ErrStorage, http.StatusInternalServerError, "STORAGE_ERROR"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code, _ := handler.MapDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}
