package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidCategory    = errors.New("invalid document category")
	ErrEmptyDocument      = errors.New("document is empty")
	ErrUnreadableDocument = errors.New("document text layer could not be read")
	ErrMalformedAmount    = errors.New("malformed amount")
	ErrMalformedDate      = errors.New("malformed date")
	ErrSummaryParse       = errors.New("summary document could not be parsed")
	ErrDetailParse        = errors.New("detail document could not be parsed")
	ErrOrderIDMismatch    = errors.New("detail document belongs to a different order")
	ErrValidation         = errors.New("record failed validation")
	ErrFetch              = errors.New("detail document could not be fetched")
	ErrStorage            = errors.New("storage operation failed")
	ErrCategoryMismatch   = errors.New("document category does not match its location")
	ErrMissingPartyKey    = errors.New("customer email is required to load an order")
)

// MalformedAmountError reports a token with no parseable numeric content.
type MalformedAmountError struct {
	Token string
}

func (e *MalformedAmountError) Error() string {
	return fmt.Sprintf("malformed amount %q", e.Token)
}

func (e *MalformedAmountError) Is(target error) bool { return target == ErrMalformedAmount }

// MalformedDateError reports a token that matched none of the accepted layouts.
type MalformedDateError struct {
	Token   string
	Layouts []string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed date %q (accepted layouts: %s)", e.Token, strings.Join(e.Layouts, ", "))
}

func (e *MalformedDateError) Is(target error) bool { return target == ErrMalformedDate }

// SummaryParseError is fatal to a whole summary document.
type SummaryParseError struct {
	Reason  string
	Missing []string
}

func (e *SummaryParseError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("summary parse: %s (missing: %s)", e.Reason, strings.Join(e.Missing, ", "))
	}
	return "summary parse: " + e.Reason
}

func (e *SummaryParseError) Is(target error) bool { return target == ErrSummaryParse }

// DetailParseError is fatal to one order. Seq is the 1-based item sequence
// number for item-level failures and zero for header fields.
type DetailParseError struct {
	OrderID int64
	Field   string
	Seq     int
	Err     error
}

func (e *DetailParseError) Error() string {
	var b strings.Builder
	b.WriteString("detail parse: field ")
	b.WriteString(e.Field)
	if e.Seq > 0 {
		fmt.Fprintf(&b, " (item %d)", e.Seq)
	}
	if e.OrderID != 0 {
		fmt.Fprintf(&b, " in order %d", e.OrderID)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DetailParseError) Unwrap() error { return e.Err }

func (e *DetailParseError) Is(target error) bool { return target == ErrDetailParse }

// OrderIDMismatchError means the detail document carries another order's id,
// which implies a routing defect upstream.
type OrderIDMismatchError struct {
	Expected int64
	Found    int64
}

func (e *OrderIDMismatchError) Error() string {
	return fmt.Sprintf("order id mismatch: expected %d, document has %d", e.Expected, e.Found)
}

func (e *OrderIDMismatchError) Is(target error) bool { return target == ErrOrderIDMismatch }

// FetchError wraps a network or cache failure while resolving a detail reference.
type FetchError struct {
	Ref string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Ref, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }
