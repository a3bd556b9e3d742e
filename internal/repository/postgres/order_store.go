package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"invoicevault/internal/domain"
	"invoicevault/internal/port"
)

type orderStore struct {
	db *sqlx.DB
}

// NewOrderStore creates a PostgreSQL-backed OrderStore.
func NewOrderStore(db *sqlx.DB) port.OrderStore {
	return &orderStore{db: db}
}

// WithinOrderTx takes a transaction-scoped advisory lock on the order so
// concurrent loads of the same order queue behind each other.
func (s *orderStore) WithinOrderTx(ctx context.Context, category domain.Category, orderID int64, fn func(tx port.OrderTx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", lockKey(category, orderID)); err != nil {
		return fmt.Errorf("locking order %d: %w", orderID, err)
	}
	if err = fn(&orderTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing order %d: %w", orderID, err)
	}
	return nil
}

func lockKey(category domain.Category, orderID int64) string {
	return fmt.Sprintf("order:%s:%d", category, orderID)
}

type orderTx struct {
	tx *sqlx.Tx
}

type partyRow struct {
	Email   string `db:"email"`
	Name    string `db:"name"`
	TaxID   string `db:"tax_id"`
	Address string `db:"address"`
}

func (t *orderTx) UpsertParty(ctx context.Context, party domain.Party) (int64, error) {
	query := `
		INSERT INTO customers (email, name, tax_id, address, created_at, updated_at)
		VALUES (:email, :name, :tax_id, :address, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			tax_id = EXCLUDED.tax_id,
			address = EXCLUDED.address,
			updated_at = NOW()
		RETURNING id`

	row := partyRow{
		Email:   strings.ToLower(strings.TrimSpace(party.Email)),
		Name:    party.Name,
		TaxID:   party.TaxID,
		Address: party.Address,
	}
	stmt, err := t.tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("preparing customer upsert: %w", err)
	}
	defer stmt.Close()

	var id int64
	if err := stmt.GetContext(ctx, &id, row); err != nil {
		return 0, fmt.Errorf("upserting customer: %w", err)
	}
	return id, nil
}

type orderRow struct {
	Category                 string          `db:"category"`
	OrderID                  int64           `db:"order_id"`
	CustomerID               int64           `db:"customer_id"`
	InvoiceNo                string          `db:"invoice_no"`
	DocumentType             string          `db:"document_type"`
	DateOfInvoice            time.Time       `db:"date_of_invoice"`
	CategoryCode             string          `db:"category_code"`
	HSNCode                  string          `db:"hsn_code"`
	ServiceDescription       string          `db:"service_description"`
	ReverseCharge            bool            `db:"reverse_charge"`
	CounterpartyName         string          `db:"counterparty_name"`
	CounterpartyTaxID        string          `db:"counterparty_tax_id"`
	CounterpartyRegistration string          `db:"counterparty_registration_id"`
	CounterpartyAddress      string          `db:"counterparty_address"`
	CounterpartyCity         string          `db:"counterparty_city"`
	CounterpartyPincode      string          `db:"counterparty_pincode"`
	CounterpartyState        string          `db:"counterparty_state"`
	PlaceOfSupply            string          `db:"place_of_supply"`
	Subtotal                 decimal.Decimal `db:"subtotal"`
	Taxes                    json.RawMessage `db:"taxes"`
	TotalTaxes               decimal.Decimal `db:"total_taxes"`
	InvoiceTotal             decimal.Decimal `db:"invoice_total"`
	OperatorName             string          `db:"operator_name"`
	OperatorTaxID            string          `db:"operator_tax_id"`
	OperatorRegistration     string          `db:"operator_registration_id"`
	OperatorAddress          string          `db:"operator_address"`
	DetailRef                string          `db:"detail_ref"`
}

func (t *orderTx) UpsertOrderHeader(ctx context.Context, partyID int64, rec *domain.OrderRecord) error {
	query := `
		INSERT INTO orders (
			category, order_id, customer_id,
			invoice_no, document_type, date_of_invoice, category_code,
			hsn_code, service_description, reverse_charge,
			counterparty_name, counterparty_tax_id, counterparty_registration_id,
			counterparty_address, counterparty_city, counterparty_pincode, counterparty_state,
			place_of_supply, subtotal, taxes, total_taxes, invoice_total,
			operator_name, operator_tax_id, operator_registration_id, operator_address,
			detail_ref, created_at, updated_at
		) VALUES (
			:category, :order_id, :customer_id,
			:invoice_no, :document_type, :date_of_invoice, :category_code,
			:hsn_code, :service_description, :reverse_charge,
			:counterparty_name, :counterparty_tax_id, :counterparty_registration_id,
			:counterparty_address, :counterparty_city, :counterparty_pincode, :counterparty_state,
			:place_of_supply, :subtotal, :taxes, :total_taxes, :invoice_total,
			:operator_name, :operator_tax_id, :operator_registration_id, :operator_address,
			:detail_ref, NOW(), NOW()
		)
		ON CONFLICT (category, order_id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			invoice_no = EXCLUDED.invoice_no,
			document_type = EXCLUDED.document_type,
			date_of_invoice = EXCLUDED.date_of_invoice,
			category_code = EXCLUDED.category_code,
			hsn_code = EXCLUDED.hsn_code,
			service_description = EXCLUDED.service_description,
			reverse_charge = EXCLUDED.reverse_charge,
			counterparty_name = EXCLUDED.counterparty_name,
			counterparty_tax_id = EXCLUDED.counterparty_tax_id,
			counterparty_registration_id = EXCLUDED.counterparty_registration_id,
			counterparty_address = EXCLUDED.counterparty_address,
			counterparty_city = EXCLUDED.counterparty_city,
			counterparty_pincode = EXCLUDED.counterparty_pincode,
			counterparty_state = EXCLUDED.counterparty_state,
			place_of_supply = EXCLUDED.place_of_supply,
			subtotal = EXCLUDED.subtotal,
			taxes = EXCLUDED.taxes,
			total_taxes = EXCLUDED.total_taxes,
			invoice_total = EXCLUDED.invoice_total,
			operator_name = EXCLUDED.operator_name,
			operator_tax_id = EXCLUDED.operator_tax_id,
			operator_registration_id = EXCLUDED.operator_registration_id,
			operator_address = EXCLUDED.operator_address,
			detail_ref = EXCLUDED.detail_ref,
			updated_at = NOW()`

	taxes, err := taxesJSON(rec.Taxes)
	if err != nil {
		return err
	}
	row := orderRow{
		Category:                 string(rec.Category),
		OrderID:                  rec.OrderID,
		CustomerID:               partyID,
		InvoiceNo:                rec.InvoiceNumber,
		DocumentType:             rec.DocumentType,
		DateOfInvoice:            rec.InvoiceDate,
		CategoryCode:             rec.CategoryCode,
		HSNCode:                  rec.HSNCode,
		ServiceDescription:       rec.ServiceDescription,
		ReverseCharge:            rec.ReverseCharge,
		CounterpartyName:         rec.Counterparty.Name,
		CounterpartyTaxID:        rec.Counterparty.TaxID,
		CounterpartyRegistration: rec.Counterparty.RegistrationID,
		CounterpartyAddress:      rec.Counterparty.Address,
		CounterpartyCity:         rec.Counterparty.City,
		CounterpartyPincode:      rec.Counterparty.Pincode,
		CounterpartyState:        rec.Counterparty.Jurisdiction,
		PlaceOfSupply:            rec.PlaceOfSupply,
		Subtotal:                 rec.Subtotal,
		Taxes:                    taxes,
		TotalTaxes:               rec.TotalTaxes,
		InvoiceTotal:             rec.InvoiceTotal,
		OperatorName:             rec.Operator.Name,
		OperatorTaxID:            rec.Operator.TaxID,
		OperatorRegistration:     rec.Operator.RegistrationID,
		OperatorAddress:          rec.Operator.Address,
		DetailRef:                rec.SourceRef,
	}
	if _, err := t.tx.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("upserting order: %w", err)
	}
	return nil
}

type itemRow struct {
	Category         string          `db:"category"`
	OrderID          int64           `db:"order_id"`
	Seq              int             `db:"seq"`
	Description      string          `db:"description"`
	Unit             string          `db:"unit"`
	HSNCode          string          `db:"hsn_code"`
	Quantity         int             `db:"quantity"`
	UnitPrice        decimal.Decimal `db:"unit_price"`
	UnitPriceDerived bool            `db:"unit_price_derived"`
	Gross            decimal.Decimal `db:"gross"`
	Discount         decimal.Decimal `db:"discount"`
	Net              decimal.Decimal `db:"net"`
	Taxes            json.RawMessage `db:"taxes"`
	AdditionalCess   decimal.Decimal `db:"additional_cess"`
	Total            decimal.Decimal `db:"total"`
}

func (t *orderTx) ReplaceOrderItems(ctx context.Context, category domain.Category, orderID int64, items []domain.LineItem) error {
	if _, err := t.tx.ExecContext(ctx,
		"DELETE FROM order_items WHERE category = $1 AND order_id = $2", category, orderID); err != nil {
		return fmt.Errorf("deleting order items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	rows := make([]itemRow, len(items))
	for i := range items {
		it := &items[i]
		taxes, err := taxesJSON(it.Taxes)
		if err != nil {
			return err
		}
		rows[i] = itemRow{
			Category:         string(category),
			OrderID:          orderID,
			Seq:              it.Seq,
			Description:      it.Description,
			Unit:             it.Unit,
			HSNCode:          it.HSNCode,
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			UnitPriceDerived: it.UnitPriceDerived,
			Gross:            it.Gross,
			Discount:         it.Discount,
			Net:              it.Net,
			Taxes:            taxes,
			AdditionalCess:   it.AdditionalCess,
			Total:            it.Total,
		}
	}

	query := `
		INSERT INTO order_items (
			category, order_id, seq, description, unit, hsn_code, quantity,
			unit_price, unit_price_derived, gross, discount, net, taxes,
			additional_cess, total
		) VALUES (
			:category, :order_id, :seq, :description, :unit, :hsn_code, :quantity,
			:unit_price, :unit_price_derived, :gross, :discount, :net, :taxes,
			:additional_cess, :total
		)`
	if _, err := t.tx.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("inserting order items: %w", err)
	}
	return nil
}

type feeRow struct {
	Category        string          `db:"category"`
	OrderID         int64           `db:"order_id"`
	InvoiceNo       string          `db:"invoice_no"`
	DateOfInvoice   time.Time       `db:"date_of_invoice"`
	HSNCode         string          `db:"hsn_code"`
	HSNDescription  string          `db:"hsn_description"`
	CategoryCode    string          `db:"category_code"`
	TransactionType string          `db:"transaction_type"`
	InvoiceType     string          `db:"invoice_type"`
	ReverseCharge   bool            `db:"reverse_charge"`
	IssuerName      string          `db:"issuer_name"`
	IssuerTaxID     string          `db:"issuer_tax_id"`
	IssuerPAN       string          `db:"issuer_pan"`
	IssuerAddress   string          `db:"issuer_address"`
	IssuerPincode   string          `db:"issuer_pincode"`
	IssuerStateCode string          `db:"issuer_state_code"`
	Description     string          `db:"description"`
	UnitPrice       decimal.Decimal `db:"unit_price"`
	Discount        decimal.Decimal `db:"discount"`
	Net             decimal.Decimal `db:"net"`
	Taxes           json.RawMessage `db:"taxes"`
	TotalTaxes      decimal.Decimal `db:"total_taxes"`
	InvoiceTotal    decimal.Decimal `db:"invoice_total"`
}

func (t *orderTx) UpsertFee(ctx context.Context, category domain.Category, orderID int64, fee *domain.FeeRecord) error {
	query := `
		INSERT INTO handling_fees (
			category, order_id, invoice_no, date_of_invoice, hsn_code, hsn_description,
			category_code, transaction_type, invoice_type, reverse_charge,
			issuer_name, issuer_tax_id, issuer_pan, issuer_address, issuer_pincode, issuer_state_code,
			description, unit_price, discount, net, taxes, total_taxes, invoice_total,
			created_at, updated_at
		) VALUES (
			:category, :order_id, :invoice_no, :date_of_invoice, :hsn_code, :hsn_description,
			:category_code, :transaction_type, :invoice_type, :reverse_charge,
			:issuer_name, :issuer_tax_id, :issuer_pan, :issuer_address, :issuer_pincode, :issuer_state_code,
			:description, :unit_price, :discount, :net, :taxes, :total_taxes, :invoice_total,
			NOW(), NOW()
		)
		ON CONFLICT (category, order_id) DO UPDATE SET
			invoice_no = EXCLUDED.invoice_no,
			date_of_invoice = EXCLUDED.date_of_invoice,
			hsn_code = EXCLUDED.hsn_code,
			hsn_description = EXCLUDED.hsn_description,
			category_code = EXCLUDED.category_code,
			transaction_type = EXCLUDED.transaction_type,
			invoice_type = EXCLUDED.invoice_type,
			reverse_charge = EXCLUDED.reverse_charge,
			issuer_name = EXCLUDED.issuer_name,
			issuer_tax_id = EXCLUDED.issuer_tax_id,
			issuer_pan = EXCLUDED.issuer_pan,
			issuer_address = EXCLUDED.issuer_address,
			issuer_pincode = EXCLUDED.issuer_pincode,
			issuer_state_code = EXCLUDED.issuer_state_code,
			description = EXCLUDED.description,
			unit_price = EXCLUDED.unit_price,
			discount = EXCLUDED.discount,
			net = EXCLUDED.net,
			taxes = EXCLUDED.taxes,
			total_taxes = EXCLUDED.total_taxes,
			invoice_total = EXCLUDED.invoice_total,
			updated_at = NOW()`

	taxes, err := taxesJSON(fee.Taxes)
	if err != nil {
		return err
	}
	row := feeRow{
		Category:        string(category),
		OrderID:         orderID,
		InvoiceNo:       fee.InvoiceNumber,
		DateOfInvoice:   fee.InvoiceDate,
		HSNCode:         fee.HSNCode,
		HSNDescription:  fee.HSNDescription,
		CategoryCode:    fee.CategoryCode,
		TransactionType: fee.TransactionType,
		InvoiceType:     fee.InvoiceType,
		ReverseCharge:   fee.ReverseCharge,
		IssuerName:      fee.Issuer.Name,
		IssuerTaxID:     fee.Issuer.TaxID,
		IssuerPAN:       fee.Issuer.PAN,
		IssuerAddress:   fee.Issuer.Address,
		IssuerPincode:   fee.Issuer.Pincode,
		IssuerStateCode: fee.Issuer.StateCode,
		Description:     fee.Line.Description,
		UnitPrice:       fee.Line.UnitPrice,
		Discount:        fee.Line.Discount,
		Net:             fee.Line.Net,
		Taxes:           taxes,
		TotalTaxes:      fee.TotalTaxes,
		InvoiceTotal:    fee.InvoiceTotal,
	}
	if _, err := t.tx.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("upserting handling fee: %w", err)
	}
	return nil
}

func (t *orderTx) DeleteFee(ctx context.Context, category domain.Category, orderID int64) error {
	if _, err := t.tx.ExecContext(ctx,
		"DELETE FROM handling_fees WHERE category = $1 AND order_id = $2", string(category), orderID); err != nil {
		return fmt.Errorf("deleting handling fee: %w", err)
	}
	return nil
}

func taxesJSON(taxes []domain.TaxLine) (json.RawMessage, error) {
	if taxes == nil {
		taxes = []domain.TaxLine{}
	}
	b, err := json.Marshal(taxes)
	if err != nil {
		return nil, fmt.Errorf("encoding tax breakdown: %w", err)
	}
	return b, nil
}
