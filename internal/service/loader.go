package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"invoicevault/internal/domain"
	"invoicevault/internal/port"
)

// Loader persists validated records through the order store's upsert
// contract.
type Loader interface {
	// ReconcileAndLoad writes the customer, the order header, the full item
	// set and the fee for one order atomically. A fee-bearing order loaded
	// without a fee loses any fee stored earlier. Loading the same record
	// again leaves the store unchanged.
	ReconcileAndLoad(ctx context.Context, rec *domain.OrderRecord, fee *domain.FeeRecord) error
}

type loader struct {
	store port.OrderStore
}

// NewLoader creates a Loader over store.
func NewLoader(store port.OrderStore) Loader {
	return &loader{store: store}
}

func (l *loader) ReconcileAndLoad(ctx context.Context, rec *domain.OrderRecord, fee *domain.FeeRecord) error {
	if strings.TrimSpace(rec.Customer.Email) == "" {
		return fmt.Errorf("order %d: %w", rec.OrderID, domain.ErrMissingPartyKey)
	}
	if fee != nil && !rec.Category.HasFeeInvoice() {
		return fmt.Errorf("order %d: %w: %s orders carry no handling fee", rec.OrderID, domain.ErrInvalidCategory, rec.Category)
	}

	err := l.store.WithinOrderTx(ctx, rec.Category, rec.OrderID, func(tx port.OrderTx) error {
		partyID, err := tx.UpsertParty(ctx, rec.Customer)
		if err != nil {
			return fmt.Errorf("upserting customer %s: %w", rec.Customer.Email, err)
		}
		if err := tx.UpsertOrderHeader(ctx, partyID, rec); err != nil {
			return fmt.Errorf("upserting order header: %w", err)
		}
		if err := tx.ReplaceOrderItems(ctx, rec.Category, rec.OrderID, rec.Items); err != nil {
			return fmt.Errorf("replacing order items: %w", err)
		}
		switch {
		case fee != nil:
			if err := tx.UpsertFee(ctx, rec.Category, rec.OrderID, fee); err != nil {
				return fmt.Errorf("upserting handling fee: %w", err)
			}
		case rec.Category.HasFeeInvoice():
			if err := tx.DeleteFee(ctx, rec.Category, rec.OrderID); err != nil {
				return fmt.Errorf("deleting handling fee: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrStorage) {
			return fmt.Errorf("loading order %d: %w", rec.OrderID, err)
		}
		return fmt.Errorf("loading order %d: %w: %w", rec.OrderID, domain.ErrStorage, err)
	}
	return nil
}
