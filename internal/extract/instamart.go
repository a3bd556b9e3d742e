package extract

import (
	"github.com/shopspring/decimal"

	"invoicevault/internal/domain"
	"invoicevault/internal/textlayer"
)

var instamartHeader = NewGrammar(
	Anchor{Key: "customer_name", Labels: []string{"Invoice To"}},
	Anchor{Key: "customer_gstin", Labels: []string{"GSTIN"}},
	Anchor{Key: "customer_address", Labels: []string{"Customer Address"}, Multiline: true},
	Anchor{Key: "order_id", Labels: []string{"Order ID", "Order No"}},
	Anchor{Key: "document", Labels: []string{"Document"}},
	Anchor{Key: "invoice_no", Labels: []string{"Invoice No", "Invoice Number"}},
	Anchor{Key: "invoice_date", Labels: []string{"Date of Invoice", "Invoice Date"}},
	Anchor{Key: "category", Labels: []string{"Category"}},
	Anchor{Key: "seller_name", Labels: []string{"Seller Name"}},
	Anchor{Key: "seller_gstin", Labels: []string{"Seller GSTIN"}},
	Anchor{Key: "seller_fssai", Labels: []string{"Seller FSSAI", "FSSAI"}},
	Anchor{Key: "seller_address", Labels: []string{"Address"}, Multiline: true},
	Anchor{Key: "seller_city", Labels: []string{"City"}},
	Anchor{Key: "seller_state", Labels: []string{"State"}},
	Anchor{Key: "place_of_supply", Labels: []string{"Place of Supply"}},
)

var instamartTotals = NewGrammar(
	Anchor{Key: "invoice_value", Labels: []string{"Invoice Value"}},
)

var instamartItems = TableSpec{
	Columns: []Column{
		{Key: "seq", Label: "Sr No"},
		{Key: "description", Label: "Item Description"},
		{Key: "quantity", Label: "Qty"},
		{Key: "unit", Label: "UQC"},
		{Key: "hsn", Label: "HSN/SAC"},
		{Key: "taxable_value", Label: "Taxable Value"},
		{Key: "discount", Label: "Discount"},
		{Key: "net", Label: "Net Taxable Value"},
		{Key: "cgst_rate", Label: "CGST Rate"},
		{Key: "cgst_amount", Label: "CGST Amount"},
		{Key: "sgst_rate", Label: "SGST/UTGST Rate"},
		{Key: "sgst_amount", Label: "SGST/UTGST Amount"},
		{Key: "cess_rate", Label: "Cess Rate"},
		{Key: "cess_amount", Label: "Cess Amount"},
		{Key: "additional_cess", Label: "Additional Cess"},
		{Key: "total", Label: "Total Amount"},
	},
	WrapKey: "description",
}

// parseInstamart applies the product-invoice grammar and then, independently,
// the fee grammar to whatever follows the product invoice.
func (e *Extractor) parseInstamart(doc *textlayer.Document, expected int64) (*domain.OrderRecord, *domain.FeeRecord, error) {
	lines := doc.Lines
	tbl, found := instamartItems.Walk(lines, doc.ColumnTolerance)

	headerEnd := len(lines)
	if found {
		headerEnd = tbl.HeaderAt
	}
	h := instamartHeader.Scan(lines[:headerEnd], doc.ColumnTolerance)

	id, err := e.orderID(h, expected)
	if err != nil {
		return nil, nil, err
	}
	r := e.reader(id)
	r.required("", h, "invoice_no", "invoice_date")
	if r.err != nil {
		return nil, nil, r.err
	}
	if !found || len(tbl.Rows) == 0 {
		return nil, nil, &domain.DetailParseError{OrderID: id, Field: "items", Err: errMissing}
	}

	rec := &domain.OrderRecord{
		Category:      domain.CategoryInstamart,
		OrderID:       id,
		InvoiceNumber: firstWord(h.Get("invoice_no")),
		DocumentType:  orDefault(firstWord(h.Get("document")), "INV"),
		InvoiceDate:   r.date("invoice_date", h.Get("invoice_date")),
		CategoryCode:  firstWord(h.Get("category")),
		Customer: domain.Party{
			Name:    h.Get("customer_name"),
			TaxID:   firstWord(h.Get("customer_gstin")),
			Address: h.Get("customer_address"),
		},
		Counterparty: domain.Party{
			Name:           h.Get("seller_name"),
			TaxID:          firstWord(h.Get("seller_gstin")),
			RegistrationID: firstWord(h.Get("seller_fssai")),
			Address:        h.Get("seller_address"),
			City:           h.Get("seller_city"),
			Jurisdiction:   h.Get("seller_state"),
		},
		PlaceOfSupply: h.Get("place_of_supply"),
	}

	subtotal, taxes := decimal.Zero, decimal.Zero
	for _, row := range tbl.Rows {
		it := r.instamartItem(row)
		if r.err != nil {
			return nil, nil, r.err
		}
		rec.Items = append(rec.Items, it)
		subtotal = subtotal.Add(it.Net)
		taxes = taxes.Add(domain.SumTaxes(it.Taxes)).Add(it.AdditionalCess)
	}
	// No order-level block is printed; both are derived from the items.
	rec.Subtotal = subtotal
	rec.TotalTaxes = taxes

	feeStart := locateFeeBlock(lines, tbl.End)
	rest := lines[tbl.End:feeStart]

	r.seq = 0
	t := instamartTotals.Scan(rest, doc.ColumnTolerance)
	r.required("", t, "invoice_value")
	rec.InvoiceTotal = r.amount("invoice_value", t.Get("invoice_value"))
	if r.err != nil {
		return nil, nil, r.err
	}

	if feeStart == len(lines) {
		return rec, nil, nil
	}
	fee, err := e.parseFee(lines[feeStart:], doc.ColumnTolerance, id)
	if err != nil {
		return nil, nil, err
	}
	return rec, fee, nil
}

func (r *fieldReader) instamartItem(row Row) domain.LineItem {
	r.seq = r.seqNumber(row.Get("seq"))
	it := domain.LineItem{
		Seq:         r.seq,
		Description: row.Get("description"),
		Unit:        row.Get("unit"),
		HSNCode:     row.Get("hsn"),
		Quantity:    r.quantity("items.quantity", row.Get("quantity")),
		Gross:       r.amount("items.taxable_value", row.Get("taxable_value")),
		Discount:    r.amount("items.discount", row.Get("discount")),
		Net:         r.amount("items.net_taxable_value", row.Get("net")),
		Taxes: []domain.TaxLine{
			{Name: "CGST", Rate: r.rate("items.cgst_rate", row.Get("cgst_rate")), Amount: r.amount("items.cgst_amount", row.Get("cgst_amount"))},
			{Name: "SGST/UTGST", Rate: r.rate("items.sgst_rate", row.Get("sgst_rate")), Amount: r.amount("items.sgst_amount", row.Get("sgst_amount"))},
			{Name: "Cess", Rate: r.rate("items.cess_rate", row.Get("cess_rate")), Amount: r.amount("items.cess_amount", row.Get("cess_amount"))},
		},
		AdditionalCess: r.amount("items.additional_cess", row.Get("additional_cess")),
		Total:          r.amount("items.total_amount", row.Get("total")),
	}
	// The product table prints no unit price.
	if it.Quantity > 0 {
		it.UnitPrice = it.Gross.Div(decimal.NewFromInt(int64(it.Quantity))).Round(2)
		it.UnitPriceDerived = true
	}
	return it
}
