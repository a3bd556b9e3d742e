// Package extract parses summary and detail documents into domain records
// using explicit label-anchor grammars and table state machines.
package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoicevault/internal/domain"
	"invoicevault/internal/normalize"
	"invoicevault/internal/textlayer"
)

var errMissing = errors.New("missing")

// Config holds the extraction settings supplied by the caller.
type Config struct {
	// OrderIDDigits is the exact length of an order id; zero accepts any
	// all-digit id.
	OrderIDDigits int
	// MaxSkippedRowFraction is the share of malformed summary rows tolerated
	// before the whole summary is rejected.
	MaxSkippedRowFraction float64
}

// DefaultConfig returns strict settings: 15-digit ids and no skipped rows.
func DefaultConfig() Config {
	return Config{OrderIDDigits: 15}
}

// Extractor is stateless between calls and safe for concurrent use.
type Extractor struct {
	norm *normalize.Normalizer
	cfg  Config
}

// New creates an Extractor.
func New(norm *normalize.Normalizer, cfg Config) *Extractor {
	return &Extractor{norm: norm, cfg: cfg}
}

// ParseDetail decodes one order's detail document. expectedOrderID is
// compared against the id printed in the document; zero skips the check.
// The fee record is nil when the category has none or the document omits it.
func (e *Extractor) ParseDetail(data []byte, category domain.Category, expectedOrderID int64) (*domain.OrderRecord, *domain.FeeRecord, error) {
	doc, err := textlayer.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	return e.ParseDetailDocument(doc, category, expectedOrderID)
}

// ParseDetailDocument is ParseDetail over an already decoded document.
func (e *Extractor) ParseDetailDocument(doc *textlayer.Document, category domain.Category, expectedOrderID int64) (*domain.OrderRecord, *domain.FeeRecord, error) {
	switch category {
	case domain.CategoryFood:
		rec, err := e.parseFood(doc, expectedOrderID)
		return rec, nil, err
	case domain.CategoryInstamart:
		return e.parseInstamart(doc, expectedOrderID)
	default:
		return nil, nil, fmt.Errorf("%w: %q", domain.ErrInvalidCategory, category)
	}
}

// orderID reads and cross-checks the order id of a detail header.
func (e *Extractor) orderID(fields Fields, expected int64) (int64, error) {
	raw := fields.Get("order_id")
	if raw == "" {
		return 0, &domain.DetailParseError{Field: "order_id", Err: errMissing}
	}
	raw = strings.Fields(raw)[0]
	id, err := e.parseOrderID(raw)
	if err != nil {
		return 0, &domain.DetailParseError{Field: "order_id", Err: err}
	}
	if expected != 0 && id != expected {
		return 0, &domain.OrderIDMismatchError{Expected: expected, Found: id}
	}
	return id, nil
}

func (e *Extractor) parseOrderID(s string) (int64, error) {
	if !isDigits(s) {
		return 0, fmt.Errorf("order id %q is not numeric", s)
	}
	if e.cfg.OrderIDDigits > 0 && len(s) != e.cfg.OrderIDDigits {
		return 0, fmt.Errorf("order id %q must have %d digits", s, e.cfg.OrderIDDigits)
	}
	return strconv.ParseInt(s, 10, 64)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// fieldReader parses tokens for one record and keeps the first failure, so
// callers can read a whole row and check the error once.
type fieldReader struct {
	norm    *normalize.Normalizer
	orderID int64
	seq     int
	err     error
}

func (e *Extractor) reader(orderID int64) *fieldReader {
	return &fieldReader{norm: e.norm, orderID: orderID}
}

func (r *fieldReader) fail(field string, err error) {
	if r.err == nil {
		r.err = &domain.DetailParseError{OrderID: r.orderID, Field: field, Seq: r.seq, Err: err}
	}
}

func (r *fieldReader) amount(field, token string) decimal.Decimal {
	if r.err != nil {
		return decimal.Zero
	}
	d, err := r.norm.ParseAmount(token)
	if err != nil {
		r.fail(field, err)
	}
	return d
}

// optionalAmount returns fallback when the token is absent.
func (r *fieldReader) optionalAmount(field, token string, fallback decimal.Decimal) decimal.Decimal {
	if token == "" {
		return fallback
	}
	return r.amount(field, token)
}

func (r *fieldReader) rate(field, token string) decimal.Decimal {
	if r.err != nil {
		return decimal.Zero
	}
	d, err := r.norm.ParseRate(token)
	if err != nil {
		r.fail(field, err)
	}
	return d
}

func (r *fieldReader) quantity(field, token string) int {
	if r.err != nil {
		return 0
	}
	q, err := r.norm.ParseQuantity(token)
	if err != nil {
		r.fail(field, err)
	}
	return q
}

func (r *fieldReader) date(field, token string) time.Time {
	if r.err != nil {
		return time.Time{}
	}
	t, err := r.norm.ParseDate(token)
	if err != nil {
		r.fail(field, err)
	}
	return t
}

func (r *fieldReader) required(prefix string, fields Fields, keys ...string) {
	for _, k := range keys {
		if !fields.Has(k) {
			r.fail(prefix+k, errMissing)
			return
		}
	}
}

func (r *fieldReader) seqNumber(token string) int {
	if r.err != nil {
		return 0
	}
	n, err := parseSeq(token)
	if err != nil {
		r.fail("items.seq", err)
	}
	return n
}

func yesNo(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "yes") || strings.EqualFold(strings.TrimSpace(s), "y")
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
