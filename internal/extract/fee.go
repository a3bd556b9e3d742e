package extract

import (
	"fmt"

	"github.com/shopspring/decimal"

	"invoicevault/internal/domain"
	"invoicevault/internal/textlayer"
)

// feeMarkers never occur in a product invoice; the first line carrying one
// opens the fee sub-invoice.
var feeMarkers = NewGrammar(
	Anchor{Key: "pan", Labels: []string{"PAN"}},
	Anchor{Key: "pincode", Labels: []string{"Pincode"}},
	Anchor{Key: "state_code", Labels: []string{"State Code"}},
	Anchor{Key: "transaction_type", Labels: []string{"Transaction Type"}},
	Anchor{Key: "invoice_type", Labels: []string{"Invoice Type"}},
	Anchor{Key: "reverse_charge", Labels: []string{"Whether Reverse Charges", "Whether Reverse Charge"}},
)

var feeHeader = NewGrammar(
	Anchor{Key: "issuer_name", Labels: []string{"Invoice issued by", "Issued by"}},
	Anchor{Key: "pan", Labels: []string{"PAN"}},
	Anchor{Key: "gstin", Labels: []string{"GSTIN"}},
	Anchor{Key: "address", Labels: []string{"Address"}, Multiline: true},
	Anchor{Key: "pincode", Labels: []string{"Pincode"}},
	Anchor{Key: "state_code", Labels: []string{"State Code"}},
	Anchor{Key: "invoice_no", Labels: []string{"Invoice No", "Invoice Number"}},
	Anchor{Key: "invoice_date", Labels: []string{"Date of Invoice", "Invoice Date"}},
	Anchor{Key: "category", Labels: []string{"Category"}},
	Anchor{Key: "transaction_type", Labels: []string{"Transaction Type"}},
	Anchor{Key: "invoice_type", Labels: []string{"Invoice Type"}},
	Anchor{Key: "reverse_charge", Labels: []string{"Whether Reverse Charges", "Whether Reverse Charge"}},
)

var feeTotals = NewGrammar(
	Anchor{Key: "total_taxes", Labels: []string{"Total taxes", "Total tax"}},
	Anchor{Key: "invoice_total", Labels: []string{"Invoice Total"}},
)

var feeItems = TableSpec{
	Columns: []Column{
		{Key: "seq", Label: "Sr No"},
		{Key: "description", Label: "Description"},
		{Key: "unit_price", Label: "Unit Price"},
		{Key: "discount", Label: "Discount"},
		{Key: "net", Label: "Net Assessable Value"},
	},
	WrapKey: "description",
}

// locateFeeBlock returns the index where the fee sub-invoice starts, searching
// from offset, or len(lines) when there is none. A fee invoice printed on its
// own page starts at the top of that page.
func locateFeeBlock(lines []textlayer.Line, from int) int {
	at := feeMarkers.Find(lines[from:])
	if at < 0 {
		return len(lines)
	}
	at += from
	if from > 0 && lines[at].Page != lines[from-1].Page {
		for at > from && lines[at-1].Page == lines[at].Page {
			at--
		}
	}
	return at
}

// parseFee reads the handling-fee sub-invoice. A block with markers but no
// fee row is a zero-fee invoice.
func (e *Extractor) parseFee(lines []textlayer.Line, colTol float64, orderID int64) (*domain.FeeRecord, error) {
	tbl, found := feeItems.Walk(lines, colTol)

	headerEnd, tailStart := len(lines), 0
	if found {
		headerEnd, tailStart = tbl.HeaderAt, tbl.End
	}
	h := feeHeader.Scan(lines[:headerEnd], colTol)
	tail := lines[tailStart:]
	t := feeTotals.Scan(tail, colTol)

	r := e.reader(orderID)
	r.required("fee.", h, "invoice_no")
	r.required("fee.", t, "invoice_total")

	fee := &domain.FeeRecord{
		InvoiceNumber:   firstWord(h.Get("invoice_no")),
		CategoryCode:    firstWord(h.Get("category")),
		TransactionType: firstWord(h.Get("transaction_type")),
		InvoiceType:     firstWord(h.Get("invoice_type")),
		ReverseCharge:   yesNo(firstWord(h.Get("reverse_charge"))),
		Issuer: domain.Party{
			Name:      h.Get("issuer_name"),
			PAN:       firstWord(h.Get("pan")),
			TaxID:     firstWord(h.Get("gstin")),
			Address:   h.Get("address"),
			Pincode:   firstWord(h.Get("pincode")),
			StateCode: firstWord(h.Get("state_code")),
		},
	}
	if h.Has("invoice_date") {
		fee.InvoiceDate = r.date("fee.invoice_date", h.Get("invoice_date"))
	}
	fee.HSNCode, fee.HSNDescription = hsnLine(tail)

	switch {
	case !found || len(tbl.Rows) == 0:
		fee.Line = domain.FeeLine{
			Description: fmt.Sprintf("Handling Fees for Order %d", orderID),
			UnitPrice:   decimal.Zero,
			Discount:    decimal.Zero,
			Net:         decimal.Zero,
		}
	case len(tbl.Rows) > 1:
		r.fail("fee.items", fmt.Errorf("expected one fee line, found %d", len(tbl.Rows)))
	default:
		row := tbl.Rows[0]
		r.seq = r.seqNumber(row.Get("seq"))
		fee.Line = domain.FeeLine{
			Description: row.Get("description"),
			UnitPrice:   r.amount("fee.unit_price", row.Get("unit_price")),
			Discount:    r.amount("fee.discount", row.Get("discount")),
			Net:         r.amount("fee.net_assessable_value", row.Get("net")),
		}
		r.seq = 0
	}

	fee.Taxes = r.taxBlock(tail)
	fee.TotalTaxes = r.optionalAmount("fee.total_taxes", t.Get("total_taxes"), domain.SumTaxes(fee.Taxes))
	fee.InvoiceTotal = r.amount("fee.invoice_total", t.Get("invoice_total"))
	if r.err != nil {
		return nil, r.err
	}
	return fee, nil
}
