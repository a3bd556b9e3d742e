// Package memory is an in-process order store with the same transactional
// contract as the postgres store. Dry runs and tests use it.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"invoicevault/internal/domain"
	"invoicevault/internal/port"
)

type orderKey struct {
	category domain.Category
	orderID  int64
}

type header struct {
	partyID int64
	rec     domain.OrderRecord
	updated time.Time
}

// Store keeps committed state in maps guarded by mu. Each order also has its
// own lock, held for the whole transaction.
type Store struct {
	mu       sync.Mutex
	locks    map[orderKey]*sync.Mutex
	partyIDs map[string]int64
	parties  map[int64]domain.Party
	headers  map[orderKey]header
	items    map[orderKey][]domain.LineItem
	fees     map[orderKey]domain.FeeRecord
	nextID   int64
	now      func() time.Time
}

var (
	_ port.OrderStore  = (*Store)(nil)
	_ port.OrderReader = (*Store)(nil)
)

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		locks:    make(map[orderKey]*sync.Mutex),
		partyIDs: make(map[string]int64),
		parties:  make(map[int64]domain.Party),
		headers:  make(map[orderKey]header),
		items:    make(map[orderKey][]domain.LineItem),
		fees:     make(map[orderKey]domain.FeeRecord),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) orderLock(k orderKey) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[k]
	if !ok {
		l = &sync.Mutex{}
		s.locks[k] = l
	}
	return l
}

// WithinOrderTx stages every write of fn and publishes them together when fn
// returns nil.
func (s *Store) WithinOrderTx(ctx context.Context, category domain.Category, orderID int64, fn func(tx port.OrderTx) error) error {
	k := orderKey{category, orderID}
	l := s.orderLock(k)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &orderTx{store: s, key: k, parties: make(map[int64]domain.Party), newIDs: make(map[string]int64)}
	if err := fn(tx); err != nil {
		return err
	}
	s.commit(tx)
	return nil
}

// commit publishes the staged writes. An id staged for a new email yields to
// one committed for the same email by another order in the meantime.
func (s *Store) commit(tx *orderTx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range tx.parties {
		if staged, ok := tx.newIDs[p.Email]; ok && staged == id {
			if existing, taken := s.partyIDs[p.Email]; taken {
				if tx.partyID == id {
					tx.partyID = existing
				}
				id = existing
			} else {
				s.partyIDs[p.Email] = id
			}
		}
		s.parties[id] = p
	}
	if tx.header != nil {
		s.headers[tx.key] = header{partyID: tx.partyID, rec: *tx.header, updated: s.now()}
	}
	if tx.itemsSet {
		s.items[tx.key] = tx.items
	}
	switch {
	case tx.fee != nil:
		s.fees[tx.key] = *tx.fee
	case tx.feeDeleted:
		delete(s.fees, tx.key)
	}
}

// GetOrder returns the stored header of an order.
func (s *Store) GetOrder(_ context.Context, category domain.Category, orderID int64) (*domain.StoredOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := orderKey{category, orderID}
	h, ok := s.headers[k]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := s.stored(k, h)
	return &out, nil
}

// ListItems returns the stored items of an order in sequence order.
func (s *Store) ListItems(_ context.Context, category domain.Category, orderID int64) ([]domain.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := orderKey{category, orderID}
	if _, ok := s.headers[k]; !ok {
		return nil, domain.ErrNotFound
	}
	return cloneItems(s.items[k]), nil
}

// ListOrders pages through the orders of a category, optionally filtered by
// customer email, ordered by order id.
func (s *Store) ListOrders(_ context.Context, category domain.Category, customerEmail string, offset, limit int) ([]domain.StoredOrder, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []domain.StoredOrder
	for k, h := range s.headers {
		if k.category != category {
			continue
		}
		o := s.stored(k, h)
		if customerEmail != "" && !strings.EqualFold(o.CustomerEmail, customerEmail) {
			continue
		}
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].OrderID < all[j].OrderID })

	total := len(all)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

// Fee returns the stored handling fee of an order.
func (s *Store) Fee(category domain.Category, orderID int64) (domain.FeeRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fees[orderKey{category, orderID}]
	return f, ok
}

// PartyCount returns the number of distinct committed party emails.
func (s *Store) PartyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.partyIDs)
}

func (s *Store) stored(k orderKey, h header) domain.StoredOrder {
	fee, hasFee := s.fees[k]
	feeTotal := decimal.Zero
	if hasFee {
		feeTotal = fee.InvoiceTotal
	}
	return domain.StoredOrder{
		Category:      k.category,
		OrderID:       k.orderID,
		CustomerEmail: s.parties[h.partyID].Email,
		InvoiceNumber: h.rec.InvoiceNumber,
		InvoiceDate:   h.rec.InvoiceDate,
		Counterparty:  h.rec.Counterparty.Name,
		InvoiceTotal:  h.rec.InvoiceTotal,
		ItemCount:     len(s.items[k]),
		HasFee:        hasFee,
		FeeTotal:      feeTotal,
		DetailRef:     h.rec.SourceRef,
		UpdatedAt:     h.updated,
	}
}

// orderTx stages writes; nothing is visible to readers until commit.
type orderTx struct {
	store    *Store
	key      orderKey
	parties  map[int64]domain.Party
	newIDs   map[string]int64
	partyID  int64
	header   *domain.OrderRecord
	items    []domain.LineItem
	itemsSet bool
	fee      *domain.FeeRecord
	// feeDeleted drops a previously stored fee on commit.
	feeDeleted bool
}

func (t *orderTx) UpsertParty(_ context.Context, party domain.Party) (int64, error) {
	email := strings.ToLower(strings.TrimSpace(party.Email))
	if email == "" {
		return 0, fmt.Errorf("%w: empty party email", domain.ErrStorage)
	}
	id, ok := t.newIDs[email]
	if !ok {
		s := t.store
		s.mu.Lock()
		id, ok = s.partyIDs[email]
		if !ok {
			// Ids are never reused, like a sequence; the email mapping is
			// published on commit.
			s.nextID++
			id = s.nextID
			t.newIDs[email] = id
		}
		s.mu.Unlock()
	}

	party.Email = email
	t.parties[id] = party
	return id, nil
}

func (t *orderTx) UpsertOrderHeader(_ context.Context, partyID int64, rec *domain.OrderRecord) error {
	h := *rec
	h.Items = nil
	t.partyID = partyID
	t.header = &h
	return nil
}

func (t *orderTx) ReplaceOrderItems(_ context.Context, _ domain.Category, _ int64, items []domain.LineItem) error {
	t.items = cloneItems(items)
	sort.SliceStable(t.items, func(i, j int) bool { return t.items[i].Seq < t.items[j].Seq })
	t.itemsSet = true
	return nil
}

func (t *orderTx) UpsertFee(_ context.Context, _ domain.Category, _ int64, fee *domain.FeeRecord) error {
	f := *fee
	f.Taxes = append([]domain.TaxLine(nil), fee.Taxes...)
	t.fee = &f
	t.feeDeleted = false
	return nil
}

func (t *orderTx) DeleteFee(_ context.Context, _ domain.Category, _ int64) error {
	t.fee = nil
	t.feeDeleted = true
	return nil
}

func cloneItems(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, len(items))
	for i, it := range items {
		it.Taxes = append([]domain.TaxLine(nil), it.Taxes...)
		out[i] = it
	}
	return out
}
