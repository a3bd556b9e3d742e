package port

import (
	"context"

	"invoicevault/internal/domain"
)

// OrderTx is the set of writes applied for one order inside a single
// transaction.
type OrderTx interface {
	// UpsertParty inserts or updates a party by its email and returns its id.
	UpsertParty(ctx context.Context, party domain.Party) (int64, error)
	// UpsertOrderHeader overwrites every header column of the order.
	UpsertOrderHeader(ctx context.Context, partyID int64, rec *domain.OrderRecord) error
	// ReplaceOrderItems deletes the order's items and inserts items.
	ReplaceOrderItems(ctx context.Context, category domain.Category, orderID int64, items []domain.LineItem) error
	// UpsertFee overwrites the handling-fee record of the order.
	UpsertFee(ctx context.Context, category domain.Category, orderID int64, fee *domain.FeeRecord) error
	// DeleteFee removes the handling-fee record of the order, if any.
	DeleteFee(ctx context.Context, category domain.Category, orderID int64) error
}

// OrderStore runs fn in a transaction scoped to one order. Writes become
// visible only if fn returns nil. Transactions for the same order are
// serialized; different orders never conflict.
type OrderStore interface {
	WithinOrderTx(ctx context.Context, category domain.Category, orderID int64, fn func(tx OrderTx) error) error
}

// OrderReader is the read side of the order store.
type OrderReader interface {
	GetOrder(ctx context.Context, category domain.Category, orderID int64) (*domain.StoredOrder, error)
	ListItems(ctx context.Context, category domain.Category, orderID int64) ([]domain.LineItem, error)
	ListOrders(ctx context.Context, category domain.Category, customerEmail string, offset, limit int) ([]domain.StoredOrder, int, error)
}
