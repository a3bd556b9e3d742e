package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateRange is the inclusive period a summary document covers.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// AccountHeader holds the declared totals printed at the top of a summary document.
type AccountHeader struct {
	CustomerName       string          `json:"customer_name"`
	CustomerEmail      string          `json:"customer_email"`
	DeclaredOrderCount int             `json:"declared_order_count"`
	DeclaredTotal      decimal.Decimal `json:"declared_total"`
	DateRange          DateRange       `json:"date_range"`
}

// OrderStub is one row of a summary document.
type OrderStub struct {
	OrderID      int64           `json:"order_id"`
	OrderDate    time.Time       `json:"order_date"`
	Counterparty string          `json:"counterparty"`
	Amount       decimal.Decimal `json:"amount"`
	DetailRef    string          `json:"detail_ref"`
}

// RowWarning records a summary row that was recognized but skipped.
type RowWarning struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Summary is the parsed form of a summary document.
type Summary struct {
	Category Category      `json:"category"`
	Header   AccountHeader `json:"header"`
	Orders   []OrderStub   `json:"orders"`
	Warnings []RowWarning  `json:"warnings,omitempty"`
}

// StubIndex returns the summary's orders keyed by order id.
func (s *Summary) StubIndex() map[int64]OrderStub {
	idx := make(map[int64]OrderStub, len(s.Orders))
	for _, o := range s.Orders {
		idx[o.OrderID] = o
	}
	return idx
}

// Party is any identity block on an invoice: customer, seller/restaurant,
// platform operator or fee issuer.
type Party struct {
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	TaxID          string `json:"tax_id,omitempty"`
	RegistrationID string `json:"registration_id,omitempty"`
	PAN            string `json:"pan,omitempty"`
	Address        string `json:"address,omitempty"`
	City           string `json:"city,omitempty"`
	Pincode        string `json:"pincode,omitempty"`
	Jurisdiction   string `json:"jurisdiction,omitempty"`
	StateCode      string `json:"state_code,omitempty"`
}

// TaxLine is one entry of a tax breakdown.
type TaxLine struct {
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// SumTaxes adds up the amounts of a breakdown.
func SumTaxes(taxes []TaxLine) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range taxes {
		sum = sum.Add(t.Amount)
	}
	return sum
}

// LineItem is one row of an invoice item table.
type LineItem struct {
	Seq              int             `json:"seq"`
	Description      string          `json:"description"`
	Unit             string          `json:"unit,omitempty"`
	HSNCode          string          `json:"hsn_code,omitempty"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	UnitPriceDerived bool            `json:"unit_price_derived,omitempty"`
	Gross            decimal.Decimal `json:"gross"`
	Discount         decimal.Decimal `json:"discount"`
	Net              decimal.Decimal `json:"net"`
	Taxes            []TaxLine       `json:"taxes,omitempty"`
	AdditionalCess   decimal.Decimal `json:"additional_cess"`
	Total            decimal.Decimal `json:"total"`
}

// OrderRecord is a fully extracted detail invoice for one order.
type OrderRecord struct {
	Category           Category        `json:"category"`
	OrderID            int64           `json:"order_id"`
	InvoiceNumber      string          `json:"invoice_number"`
	DocumentType       string          `json:"document_type"`
	InvoiceDate        time.Time       `json:"invoice_date"`
	CategoryCode       string          `json:"category_code"`
	HSNCode            string          `json:"hsn_code,omitempty"`
	ServiceDescription string          `json:"service_description,omitempty"`
	ReverseCharge      bool            `json:"reverse_charge"`
	Customer           Party           `json:"customer"`
	Counterparty       Party           `json:"counterparty"`
	PlaceOfSupply      string          `json:"place_of_supply"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	Taxes              []TaxLine       `json:"taxes,omitempty"`
	TotalTaxes         decimal.Decimal `json:"total_taxes"`
	InvoiceTotal       decimal.Decimal `json:"invoice_total"`
	Operator           Party           `json:"operator"`
	Items              []LineItem      `json:"items"`
	SourceRef          string          `json:"source_ref"`
}

// FeeLine is the single charge line of a handling-fee invoice.
type FeeLine struct {
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	Net         decimal.Decimal `json:"net"`
}

// FeeRecord is the handling-fee sub-invoice embedded in a multi-invoice document.
type FeeRecord struct {
	InvoiceNumber   string          `json:"invoice_number"`
	InvoiceDate     time.Time       `json:"invoice_date"`
	HSNCode         string          `json:"hsn_code"`
	HSNDescription  string          `json:"hsn_description"`
	CategoryCode    string          `json:"category_code"`
	TransactionType string          `json:"transaction_type"`
	InvoiceType     string          `json:"invoice_type"`
	ReverseCharge   bool            `json:"reverse_charge"`
	Issuer          Party           `json:"issuer"`
	Line            FeeLine         `json:"line"`
	Taxes           []TaxLine       `json:"taxes,omitempty"`
	TotalTaxes      decimal.Decimal `json:"total_taxes"`
	InvoiceTotal    decimal.Decimal `json:"invoice_total"`
}

// StoredOrder is the persisted view of an order header.
type StoredOrder struct {
	Category      Category        `db:"category" json:"category"`
	OrderID       int64           `db:"order_id" json:"order_id"`
	CustomerEmail string          `db:"customer_email" json:"customer_email"`
	InvoiceNumber string          `db:"invoice_no" json:"invoice_number"`
	InvoiceDate   time.Time       `db:"date_of_invoice" json:"invoice_date"`
	Counterparty  string          `db:"counterparty_name" json:"counterparty"`
	InvoiceTotal  decimal.Decimal `db:"invoice_total" json:"invoice_total"`
	ItemCount     int             `db:"item_count" json:"item_count"`
	HasFee        bool            `db:"has_fee" json:"has_fee"`
	FeeTotal      decimal.Decimal `db:"fee_total" json:"fee_total"`
	DetailRef     string          `db:"detail_ref" json:"detail_ref"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderFailure records why one order of a run was not loaded.
type OrderFailure struct {
	OrderID int64        `json:"order_id" yaml:"order_id"`
	Stage   FailureStage `json:"stage" yaml:"stage"`
	Error   string       `json:"error" yaml:"error"`
}

// RunReport is the per-document tally surfaced after an ingest run.
type RunReport struct {
	RunID         uuid.UUID      `json:"run_id" yaml:"run_id"`
	Category      Category       `json:"category" yaml:"category"`
	SummaryRef    string         `json:"summary_ref" yaml:"summary_ref"`
	CustomerEmail string         `json:"customer_email" yaml:"customer_email"`
	StartedAt     time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt    time.Time      `json:"finished_at" yaml:"finished_at"`
	DryRun        bool           `json:"dry_run" yaml:"dry_run"`
	Declared      int            `json:"declared" yaml:"declared"`
	Extracted     int            `json:"extracted" yaml:"extracted"`
	Validated     int            `json:"validated" yaml:"validated"`
	Loaded        int            `json:"loaded" yaml:"loaded"`
	Failed        int            `json:"failed" yaml:"failed"`
	FetchedRemote int            `json:"fetched_remote" yaml:"fetched_remote"`
	FetchedCached int            `json:"fetched_cached" yaml:"fetched_cached"`
	Warnings      []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Failures      []OrderFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
}
