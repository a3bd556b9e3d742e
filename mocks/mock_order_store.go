package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoicevault/internal/domain"
	"invoicevault/internal/port"
)

// MockOrderStore is a mock implementation of port.OrderStore. WithinOrderTx
// runs fn against Tx; the configured error stands for a failed commit.
type MockOrderStore struct {
	mock.Mock
	Tx *MockOrderTx
}

func (m *MockOrderStore) WithinOrderTx(ctx context.Context, category domain.Category, orderID int64, fn func(tx port.OrderTx) error) error {
	args := m.Called(ctx, category, orderID)
	if err := fn(m.Tx); err != nil {
		return err
	}
	return args.Error(0)
}

// MockOrderTx is a mock implementation of port.OrderTx.
type MockOrderTx struct {
	mock.Mock
}

func (m *MockOrderTx) UpsertParty(ctx context.Context, party domain.Party) (int64, error) {
	args := m.Called(ctx, party)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderTx) UpsertOrderHeader(ctx context.Context, partyID int64, rec *domain.OrderRecord) error {
	args := m.Called(ctx, partyID, rec)
	return args.Error(0)
}

func (m *MockOrderTx) ReplaceOrderItems(ctx context.Context, category domain.Category, orderID int64, items []domain.LineItem) error {
	args := m.Called(ctx, category, orderID, items)
	return args.Error(0)
}

func (m *MockOrderTx) UpsertFee(ctx context.Context, category domain.Category, orderID int64, fee *domain.FeeRecord) error {
	args := m.Called(ctx, category, orderID, fee)
	return args.Error(0)
}

func (m *MockOrderTx) DeleteFee(ctx context.Context, category domain.Category, orderID int64) error {
	args := m.Called(ctx, category, orderID)
	return args.Error(0)
}

// MockOrderReader is a mock implementation of port.OrderReader.
type MockOrderReader struct {
	mock.Mock
}

func (m *MockOrderReader) GetOrder(ctx context.Context, category domain.Category, orderID int64) (*domain.StoredOrder, error) {
	args := m.Called(ctx, category, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StoredOrder), args.Error(1)
}

func (m *MockOrderReader) ListItems(ctx context.Context, category domain.Category, orderID int64) ([]domain.LineItem, error) {
	args := m.Called(ctx, category, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LineItem), args.Error(1)
}

func (m *MockOrderReader) ListOrders(ctx context.Context, category domain.Category, customerEmail string, offset, limit int) ([]domain.StoredOrder, int, error) {
	args := m.Called(ctx, category, customerEmail, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.StoredOrder), args.Int(1), args.Error(2)
}
