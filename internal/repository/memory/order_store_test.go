package memory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicevault/internal/domain"
	"invoicevault/internal/port"
	"invoicevault/internal/repository/memory"
)

const orderID int64 = 123456789012345

func record(items ...domain.LineItem) *domain.OrderRecord {
	return &domain.OrderRecord{
		Category:      domain.CategoryFood,
		OrderID:       orderID,
		InvoiceNumber: "INV-1",
		InvoiceDate:   time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC),
		Customer:      domain.Party{Name: "Dan", Email: "Dan@Example.com"},
		Counterparty:  domain.Party{Name: "Tandoor House"},
		InvoiceTotal:  decimal.RequireFromString("598.50"),
		Items:         items,
		SourceRef:     "file:///tmp/detail.pdf",
	}
}

func item(seq int, desc string) domain.LineItem {
	return domain.LineItem{Seq: seq, Description: desc, Quantity: 1, Net: decimal.NewFromInt(10)}
}

func load(ctx context.Context, s *memory.Store, rec *domain.OrderRecord, fee *domain.FeeRecord) error {
	return s.WithinOrderTx(ctx, rec.Category, rec.OrderID, func(tx port.OrderTx) error {
		partyID, err := tx.UpsertParty(ctx, rec.Customer)
		if err != nil {
			return err
		}
		if err := tx.UpsertOrderHeader(ctx, partyID, rec); err != nil {
			return err
		}
		if err := tx.ReplaceOrderItems(ctx, rec.Category, rec.OrderID, rec.Items); err != nil {
			return err
		}
		if fee != nil {
			return tx.UpsertFee(ctx, rec.Category, rec.OrderID, fee)
		}
		return nil
	})
}

func TestStore_LoadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	rec := record(item(2, "Butter Naan"), item(1, "Paneer Tikka"))

	require.NoError(t, load(ctx, s, rec, nil))
	first, err := s.GetOrder(ctx, domain.CategoryFood, orderID)
	require.NoError(t, err)

	require.NoError(t, load(ctx, s, rec, nil))
	second, err := s.GetOrder(ctx, domain.CategoryFood, orderID)
	require.NoError(t, err)

	assert.Equal(t, first.InvoiceNumber, second.InvoiceNumber)
	assert.Equal(t, "dan@example.com", second.CustomerEmail)
	assert.Equal(t, 2, second.ItemCount)
	assert.Equal(t, 1, s.PartyCount())

	items, err := s.ListItems(ctx, domain.CategoryFood, orderID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Paneer Tikka", items[0].Description)
	assert.Equal(t, "Butter Naan", items[1].Description)
}

func TestStore_ReloadReplacesItemSet(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	require.NoError(t, load(ctx, s, record(item(1, "a"), item(2, "b"), item(3, "c")), nil))
	require.NoError(t, load(ctx, s, record(item(1, "z")), nil))

	items, err := s.ListItems(ctx, domain.CategoryFood, orderID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "z", items[0].Description)
}

func TestStore_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	rec := record(item(1, "a"))
	boom := errors.New("boom")

	err := s.WithinOrderTx(ctx, rec.Category, rec.OrderID, func(tx port.OrderTx) error {
		partyID, err := tx.UpsertParty(ctx, rec.Customer)
		require.NoError(t, err)
		require.NoError(t, tx.UpsertOrderHeader(ctx, partyID, rec))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetOrder(ctx, rec.Category, rec.OrderID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, s.PartyCount())
}

func TestStore_RollbackPublishesNoPartyID(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	rec := record(item(1, "a"))

	err := s.WithinOrderTx(ctx, rec.Category, rec.OrderID, func(tx port.OrderTx) error {
		first, err := tx.UpsertParty(ctx, rec.Customer)
		require.NoError(t, err)
		again, err := tx.UpsertParty(ctx, rec.Customer)
		require.NoError(t, err)
		assert.Equal(t, first, again)
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Zero(t, s.PartyCount())

	require.NoError(t, load(ctx, s, rec, nil))
	assert.Equal(t, 1, s.PartyCount())
	got, err := s.GetOrder(ctx, rec.Category, rec.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "dan@example.com", got.CustomerEmail)
}

func TestStore_OverlappingNewPartyResolvesToOneID(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	a := record(item(1, "a"))
	b := record(item(1, "b"))
	b.OrderID = orderID + 1

	// b commits while a still holds its staged id for the same email.
	err := s.WithinOrderTx(ctx, a.Category, a.OrderID, func(tx port.OrderTx) error {
		partyID, err := tx.UpsertParty(ctx, a.Customer)
		if err != nil {
			return err
		}
		if err := load(ctx, s, b, nil); err != nil {
			return err
		}
		return tx.UpsertOrderHeader(ctx, partyID, a)
	})
	require.NoError(t, err)

	assert.Equal(t, 1, s.PartyCount())
	for _, id := range []int64{a.OrderID, b.OrderID} {
		got, err := s.GetOrder(ctx, domain.CategoryFood, id)
		require.NoError(t, err)
		assert.Equal(t, "dan@example.com", got.CustomerEmail)
	}
}

func TestStore_EmptyPartyEmailFails(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	rec := record(item(1, "a"))
	rec.Customer.Email = "  "

	err := load(ctx, s, rec, nil)
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestStore_ConcurrentLoadsOfSameOrderSerialize(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	const writers = 16
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			items := make([]domain.LineItem, w+1)
			for i := range items {
				items[i] = item(i+1, fmt.Sprintf("writer-%d", w))
			}
			assert.NoError(t, load(ctx, s, record(items...), nil))
		}(w)
	}
	wg.Wait()

	items, err := s.ListItems(ctx, domain.CategoryFood, orderID)
	require.NoError(t, err)
	require.NotEmpty(t, items)

	// Every item must come from the same writer, and that writer wrote
	// exactly len(items) of them.
	want := fmt.Sprintf("writer-%d", len(items)-1)
	for _, it := range items {
		assert.Equal(t, want, it.Description)
	}
}

func TestStore_FeeAndCategoryKeys(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	food := record(item(1, "a"))
	insta := record(item(1, "b"))
	insta.Category = domain.CategoryInstamart
	fee := &domain.FeeRecord{InvoiceNumber: "HF-1", InvoiceTotal: decimal.RequireFromString("17.58")}

	require.NoError(t, load(ctx, s, food, nil))
	require.NoError(t, load(ctx, s, insta, fee))

	got, err := s.GetOrder(ctx, domain.CategoryInstamart, orderID)
	require.NoError(t, err)
	assert.True(t, got.HasFee)
	assert.True(t, decimal.RequireFromString("17.58").Equal(got.FeeTotal))

	got, err = s.GetOrder(ctx, domain.CategoryFood, orderID)
	require.NoError(t, err)
	assert.False(t, got.HasFee)

	stored, ok := s.Fee(domain.CategoryInstamart, orderID)
	require.True(t, ok)
	assert.Equal(t, "HF-1", stored.InvoiceNumber)
}

func TestStore_DeleteFeeDropsStoredFee(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	rec := record(item(1, "b"))
	rec.Category = domain.CategoryInstamart
	fee := &domain.FeeRecord{InvoiceNumber: "HF-1", InvoiceTotal: decimal.RequireFromString("17.58")}
	require.NoError(t, load(ctx, s, rec, fee))

	err := s.WithinOrderTx(ctx, rec.Category, rec.OrderID, func(tx port.OrderTx) error {
		return tx.DeleteFee(ctx, rec.Category, rec.OrderID)
	})
	require.NoError(t, err)

	_, ok := s.Fee(rec.Category, rec.OrderID)
	assert.False(t, ok)
	got, err := s.GetOrder(ctx, rec.Category, rec.OrderID)
	require.NoError(t, err)
	assert.False(t, got.HasFee)
}

func TestStore_ListOrders(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	for i := int64(0); i < 5; i++ {
		rec := record(item(1, "a"))
		rec.OrderID = orderID + i
		if i%2 == 1 {
			rec.Customer.Email = "other@example.com"
		}
		require.NoError(t, load(ctx, s, rec, nil))
	}

	page, total, err := s.ListOrders(ctx, domain.CategoryFood, "", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, orderID+1, page[0].OrderID)
	assert.Equal(t, orderID+2, page[1].OrderID)

	page, total, err = s.ListOrders(ctx, domain.CategoryFood, "DAN@example.com", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 3)

	page, total, err = s.ListOrders(ctx, domain.CategoryInstamart, "", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, page)
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := memory.NewStore()

	called := false
	err := s.WithinOrderTx(ctx, domain.CategoryFood, orderID, func(port.OrderTx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
