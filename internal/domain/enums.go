package domain

import (
	"fmt"
	"strings"
)

// Category selects which summary/detail grammar applies to a document.
type Category string

const (
	// CategoryFood is the single-invoice layout: one restaurant invoice per order
	// with an order-level tax block.
	CategoryFood Category = "food"
	// CategoryInstamart is the multi-invoice layout: a seller invoice with per-item
	// taxes plus an embedded handling-fee invoice.
	CategoryInstamart Category = "instamart"
)

// AllCategories lists the supported categories in processing order.
var AllCategories = []Category{CategoryFood, CategoryInstamart}

// ParseCategory converts a user-supplied string into a Category.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryFood:
		return CategoryFood, nil
	case CategoryInstamart:
		return CategoryInstamart, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
}

// HasFeeInvoice reports whether documents of this category may embed a
// handling-fee sub-invoice.
func (c Category) HasFeeInvoice() bool {
	return c == CategoryInstamart
}

// FailureStage names the pipeline stage at which an order was rejected.
type FailureStage string

const (
	StageFetch    FailureStage = "fetch"
	StageParse    FailureStage = "parse"
	StageValidate FailureStage = "validate"
	StageLoad     FailureStage = "load"
)
