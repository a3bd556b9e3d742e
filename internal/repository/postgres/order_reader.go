package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"invoicevault/internal/domain"
	"invoicevault/internal/port"
)

type orderReader struct {
	db *sqlx.DB
}

// NewOrderReader creates a PostgreSQL-backed OrderReader.
func NewOrderReader(db *sqlx.DB) port.OrderReader {
	return &orderReader{db: db}
}

const storedOrderColumns = `
	o.category, o.order_id, c.email AS customer_email, o.invoice_no, o.date_of_invoice,
	o.counterparty_name, o.invoice_total,
	(SELECT COUNT(*) FROM order_items i WHERE i.category = o.category AND i.order_id = o.order_id) AS item_count,
	(f.order_id IS NOT NULL) AS has_fee,
	COALESCE(f.invoice_total, 0) AS fee_total,
	o.detail_ref, o.updated_at`

const storedOrderFrom = `
	FROM orders o
	JOIN customers c ON c.id = o.customer_id
	LEFT JOIN handling_fees f ON f.category = o.category AND f.order_id = o.order_id`

func (r *orderReader) GetOrder(ctx context.Context, category domain.Category, orderID int64) (*domain.StoredOrder, error) {
	var order domain.StoredOrder
	err := r.db.GetContext(ctx, &order,
		"SELECT"+storedOrderColumns+storedOrderFrom+" WHERE o.category = $1 AND o.order_id = $2",
		category, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("orderReader.GetOrder: %w", err)
	}
	return &order, nil
}

func (r *orderReader) ListItems(ctx context.Context, category domain.Category, orderID int64) ([]domain.LineItem, error) {
	if _, err := r.GetOrder(ctx, category, orderID); err != nil {
		return nil, err
	}

	var rows []itemRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT category, order_id, seq, description, unit, hsn_code, quantity,
			unit_price, unit_price_derived, gross, discount, net, taxes, additional_cess, total
		 FROM order_items WHERE category = $1 AND order_id = $2 ORDER BY seq`,
		category, orderID)
	if err != nil {
		return nil, fmt.Errorf("orderReader.ListItems: %w", err)
	}

	items := make([]domain.LineItem, len(rows))
	for i, row := range rows {
		var taxes []domain.TaxLine
		if len(row.Taxes) > 0 {
			if err := json.Unmarshal(row.Taxes, &taxes); err != nil {
				return nil, fmt.Errorf("orderReader.ListItems: decoding taxes of item %d: %w", row.Seq, err)
			}
		}
		items[i] = domain.LineItem{
			Seq:              row.Seq,
			Description:      row.Description,
			Unit:             row.Unit,
			HSNCode:          row.HSNCode,
			Quantity:         row.Quantity,
			UnitPrice:        row.UnitPrice,
			UnitPriceDerived: row.UnitPriceDerived,
			Gross:            row.Gross,
			Discount:         row.Discount,
			Net:              row.Net,
			Taxes:            taxes,
			AdditionalCess:   row.AdditionalCess,
			Total:            row.Total,
		}
	}
	return items, nil
}

func (r *orderReader) ListOrders(ctx context.Context, category domain.Category, customerEmail string, offset, limit int) ([]domain.StoredOrder, int, error) {
	where := " WHERE o.category = $1 AND ($2 = '' OR c.email = LOWER($2))"

	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+storedOrderFrom+where, category, customerEmail)
	if err != nil {
		return nil, 0, fmt.Errorf("orderReader.ListOrders count: %w", err)
	}

	var orders []domain.StoredOrder
	err = r.db.SelectContext(ctx, &orders,
		"SELECT"+storedOrderColumns+storedOrderFrom+where+" ORDER BY o.order_id LIMIT NULLIF($3, 0) OFFSET $4",
		category, customerEmail, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("orderReader.ListOrders: %w", err)
	}
	return orders, total, nil
}
