package validator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"invoicevault/internal/domain"
)

const (
	ruleRequiredFields   = "order.required_fields"
	ruleSequenceDense    = "items.sequence_dense"
	ruleQuantityPositive = "item.quantity_positive"
	ruleDiscountNonNeg   = "item.discount_non_negative"
	ruleItemGross        = "item.gross"
	ruleItemNet          = "item.net"
	ruleItemTotal        = "item.total"
	ruleOrderSubtotal    = "order.subtotal"
	ruleOrderTotalTaxes  = "order.total_taxes"
	ruleOrderInvoiceTot  = "order.invoice_total"
	ruleOrderKnown       = "order.known"
	ruleFeeNet           = "fee.net"
	ruleFeeTotalTaxes    = "fee.total_taxes"
	ruleFeeInvoiceTotal  = "fee.invoice_total"
	ruleSummaryCount     = "summary.order_count"
	ruleSummaryTotal     = "summary.total_amount"
)

func builtinRules() []rule {
	return []rule{
		{key: ruleRequiredFields, scope: scopeOrder, order: requiredFields},
		{key: ruleSequenceDense, scope: scopeOrder, order: sequenceDense},
		{key: ruleQuantityPositive, scope: scopeOrder, order: eachItem(func(c *checker, i int, it *domain.LineItem) {
			if it.Quantity <= 0 {
				c.fail(itemField(i, "quantity"), "> 0", fmt.Sprint(it.Quantity), "item %d quantity must be positive, got %d", it.Seq, it.Quantity)
			}
		})},
		{key: ruleDiscountNonNeg, scope: scopeOrder, order: eachItem(func(c *checker, i int, it *domain.LineItem) {
			if it.Discount.IsNegative() {
				c.fail(itemField(i, "discount"), ">= 0", it.Discount.StringFixed(2), "item %d discount is negative", it.Seq)
			}
		})},
		{key: ruleItemGross, scope: scopeOrder, order: eachItem(func(c *checker, i int, it *domain.LineItem) {
			// A derived unit price reproduces the gross amount by construction.
			if it.UnitPriceDerived {
				return
			}
			c.amount(itemField(i, "gross"), it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))), it.Gross)
		})},
		{key: ruleItemNet, scope: scopeOrder, order: eachItem(func(c *checker, i int, it *domain.LineItem) {
			c.amount(itemField(i, "net"), it.Gross.Sub(it.Discount), it.Net)
		})},
		{key: ruleItemTotal, scope: scopeOrder, order: eachItem(func(c *checker, i int, it *domain.LineItem) {
			c.amount(itemField(i, "total"), itemTotal(it), it.Total)
		})},
		{key: ruleOrderSubtotal, scope: scopeOrder, order: func(c *checker, rec *domain.OrderRecord) {
			c.amount("subtotal", sumNet(rec.Items), rec.Subtotal)
		}},
		{key: ruleOrderTotalTaxes, scope: scopeOrder, order: func(c *checker, rec *domain.OrderRecord) {
			if len(rec.Taxes) > 0 {
				c.amount("total_taxes", domain.SumTaxes(rec.Taxes), rec.TotalTaxes)
			}
		}},
		{key: ruleOrderInvoiceTot, scope: scopeOrder, order: invoiceTotal},
		{key: ruleOrderKnown, scope: scopeStubs},
		{key: ruleFeeNet, scope: scopeFee, fee: func(c *checker, f *domain.FeeRecord) {
			c.amount("fee.net", f.Line.UnitPrice.Sub(f.Line.Discount), f.Line.Net)
		}},
		{key: ruleFeeTotalTaxes, scope: scopeFee, fee: func(c *checker, f *domain.FeeRecord) {
			if len(f.Taxes) > 0 {
				c.amount("fee.total_taxes", domain.SumTaxes(f.Taxes), f.TotalTaxes)
			}
		}},
		{key: ruleFeeInvoiceTotal, scope: scopeFee, fee: func(c *checker, f *domain.FeeRecord) {
			c.amount("fee.invoice_total", f.Line.Net.Add(taxTotal(f.Taxes, f.TotalTaxes)), f.InvoiceTotal)
		}},
		{key: ruleSummaryCount, scope: scopeSummary, summary: func(c *checker, s *domain.Summary) {
			if s.Header.DeclaredOrderCount != len(s.Orders) {
				c.fail("header.declared_order_count", fmt.Sprint(s.Header.DeclaredOrderCount), fmt.Sprint(len(s.Orders)),
					"header declares %d orders, %d rows extracted", s.Header.DeclaredOrderCount, len(s.Orders))
			}
		}},
		{key: ruleSummaryTotal, scope: scopeSummary, summary: func(c *checker, s *domain.Summary) {
			sum := decimal.Zero
			for _, o := range s.Orders {
				sum = sum.Add(o.Amount)
			}
			c.amount("header.declared_total", s.Header.DeclaredTotal, sum)
		}},
	}
}

func requiredFields(c *checker, rec *domain.OrderRecord) {
	if rec.InvoiceNumber == "" {
		c.fail("invoice_number", "non-empty value", "", "invoice number is empty")
	}
	if rec.Counterparty.Name == "" {
		c.fail("counterparty.name", "non-empty value", "", "counterparty name is empty")
	}
	if !rec.InvoiceTotal.IsPositive() {
		c.fail("invoice_total", "> 0", rec.InvoiceTotal.StringFixed(2), "invoice total must be positive")
	}
	if len(rec.Items) == 0 {
		c.fail("items", "at least one item", "0", "order has no items")
	}
}

// sequenceDense requires the item sequence numbers to be exactly {1..N} in
// any print order.
func sequenceDense(c *checker, rec *domain.OrderRecord) {
	seqs := make([]int, len(rec.Items))
	for i, it := range rec.Items {
		seqs[i] = it.Seq
	}
	sort.Ints(seqs)
	for i, s := range seqs {
		if s != i+1 {
			c.fail("items.seq", fmt.Sprintf("1..%d", len(seqs)), fmt.Sprint(seqs),
				"item sequence numbers %v are not 1..%d", seqs, len(seqs))
			return
		}
	}
}

func invoiceTotal(c *checker, rec *domain.OrderRecord) {
	var expected decimal.Decimal
	switch rec.Category {
	case domain.CategoryInstamart:
		expected = decimal.Zero
		for i := range rec.Items {
			expected = expected.Add(itemTotal(&rec.Items[i]))
		}
	default:
		expected = rec.Subtotal.Add(taxTotal(rec.Taxes, rec.TotalTaxes))
	}
	c.amount("invoice_total", expected, rec.InvoiceTotal)
}

func eachItem(fn func(c *checker, i int, it *domain.LineItem)) func(*checker, *domain.OrderRecord) {
	return func(c *checker, rec *domain.OrderRecord) {
		for i := range rec.Items {
			fn(c, i, &rec.Items[i])
		}
	}
}

func itemField(i int, name string) string {
	return fmt.Sprintf("items[%d].%s", i, name)
}

func itemTotal(it *domain.LineItem) decimal.Decimal {
	return it.Net.Add(domain.SumTaxes(it.Taxes)).Add(it.AdditionalCess)
}

func sumNet(items []domain.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Net)
	}
	return sum
}

// taxTotal prefers the itemized breakdown over the printed total.
func taxTotal(taxes []domain.TaxLine, printed decimal.Decimal) decimal.Decimal {
	if len(taxes) > 0 {
		return domain.SumTaxes(taxes)
	}
	return printed
}
