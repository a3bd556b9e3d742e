package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"invoicevault/internal/domain"
	"invoicevault/internal/port"
)

// OrderDetail is a stored order with its line items.
type OrderDetail struct {
	Order *domain.StoredOrder `json:"order"`
	Items []domain.LineItem   `json:"items"`
}

// OrderHandler serves loaded orders.
type OrderHandler struct {
	reader port.OrderReader
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(reader port.OrderReader) *OrderHandler {
	return &OrderHandler{reader: reader}
}

// GetByID handles GET /api/v1/orders/:category/:id
// @Summary Get a loaded order
// @Tags orders
// @Produce json
// @Param category path string true "Order category" Enums(food, instamart)
// @Param id path int true "Order ID"
// @Success 200 {object} Response{data=OrderDetail} "Order with items"
// @Failure 400 {object} ErrorResponseBody "Invalid category or id"
// @Failure 404 {object} ErrorResponseBody "Order not found"
// @Router /orders/{category}/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	cat, err := domain.ParseCategory(c.Param("category"))
	if err != nil {
		HandleError(c, err)
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid order id")
		return
	}

	ctx := c.Request.Context()
	order, err := h.reader.GetOrder(ctx, cat, id)
	if err != nil {
		HandleError(c, err)
		return
	}
	items, err := h.reader.ListItems(ctx, cat, id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, OrderDetail{Order: order, Items: items})
}

// List handles GET /api/v1/orders
// @Summary List loaded orders
// @Tags orders
// @Produce json
// @Param category query string true "Order category" Enums(food, instamart)
// @Param email query string false "Filter by customer email"
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} Response{data=[]domain.StoredOrder,meta=PagMeta} "List of orders"
// @Failure 400 {object} ErrorResponseBody "Invalid category"
// @Router /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	cat, ok := parseCategory(c, "category", false)
	if !ok {
		return
	}
	offset, limit := parsePagination(c)

	orders, total, err := h.reader.ListOrders(c.Request.Context(), cat, c.Query("email"), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	if orders == nil {
		orders = []domain.StoredOrder{}
	}
	RespondPaginated(c, orders, PagMeta{Total: total, Offset: offset, Limit: limit})
}
