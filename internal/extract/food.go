package extract

import (
	"invoicevault/internal/domain"
	"invoicevault/internal/textlayer"
)

var foodHeader = NewGrammar(
	Anchor{Key: "customer_name", Labels: []string{"Invoice To"}},
	Anchor{Key: "issued_by", Labels: []string{"Invoice issued by"}},
	Anchor{Key: "customer_gstin", Labels: []string{"GSTIN"}},
	Anchor{Key: "customer_address", Labels: []string{"Customer Address"}, Multiline: true},
	Anchor{Key: "order_id", Labels: []string{"Order ID", "Order No"}},
	Anchor{Key: "document", Labels: []string{"Document"}},
	Anchor{Key: "invoice_no", Labels: []string{"Invoice No", "Invoice Number"}},
	Anchor{Key: "invoice_date", Labels: []string{"Date of Invoice", "Invoice Date"}},
	Anchor{Key: "hsn_code", Labels: []string{"HSN Code"}},
	Anchor{Key: "restaurant_name", Labels: []string{"Restaurant Name"}},
	Anchor{Key: "restaurant_gstin", Labels: []string{"Restaurant GSTIN"}},
	Anchor{Key: "restaurant_fssai", Labels: []string{"Restaurant FSSAI License", "Restaurant FSSAI"}},
	Anchor{Key: "restaurant_address", Labels: []string{"Address"}, Multiline: true},
	Anchor{Key: "restaurant_state", Labels: []string{"State"}},
	Anchor{Key: "place_of_supply", Labels: []string{"Place of Supply"}},
	Anchor{Key: "service_description", Labels: []string{"Service Description"}},
	Anchor{Key: "category", Labels: []string{"Category"}},
	Anchor{Key: "reverse_charge", Labels: []string{"Reverse Charges Applicable", "Reverse Charge Applicable"}},
)

var foodTotals = NewGrammar(
	Anchor{Key: "subtotal", Labels: []string{"Subtotal", "Sub Total"}},
	Anchor{Key: "total_taxes", Labels: []string{"Total taxes", "Total tax"}},
	Anchor{Key: "invoice_total", Labels: []string{"Invoice Total"}},
)

var operatorBlock = NewGrammar(
	Anchor{Key: "name", Labels: []string{"Name"}},
	Anchor{Key: "address", Labels: []string{"Address"}, Multiline: true},
	Anchor{Key: "gstin", Labels: []string{"GSTIN"}},
	Anchor{Key: "fssai", Labels: []string{"Swiggy FSSAI", "Platform FSSAI", "FSSAI"}},
)

var foodItems = TableSpec{
	Columns: []Column{
		{Key: "seq", Label: "Sr No"},
		{Key: "description", Label: "Description"},
		{Key: "unit", Label: "Unit of Measure"},
		{Key: "quantity", Label: "Quantity"},
		{Key: "unit_price", Label: "Unit Price"},
		{Key: "amount", Label: "Amount"},
		{Key: "discount", Label: "Discount"},
		{Key: "net", Label: "Net Assessable Value"},
	},
	WrapKey: "description",
}

const operatorMarker = "ECO under GST"

// parseFood reads a single-invoice document: header, item table, an
// order-level tax block and the platform operator block.
func (e *Extractor) parseFood(doc *textlayer.Document, expected int64) (*domain.OrderRecord, error) {
	lines := doc.Lines
	tbl, found := foodItems.Walk(lines, doc.ColumnTolerance)

	headerEnd := len(lines)
	if found {
		headerEnd = tbl.HeaderAt
	}
	h := foodHeader.Scan(lines[:headerEnd], doc.ColumnTolerance)

	id, err := e.orderID(h, expected)
	if err != nil {
		return nil, err
	}
	r := e.reader(id)
	r.required("", h, "invoice_no", "invoice_date")
	if r.err != nil {
		return nil, r.err
	}
	if !found || len(tbl.Rows) == 0 {
		return nil, &domain.DetailParseError{OrderID: id, Field: "items", Err: errMissing}
	}

	rec := &domain.OrderRecord{
		Category:           domain.CategoryFood,
		OrderID:            id,
		InvoiceNumber:      firstWord(h.Get("invoice_no")),
		DocumentType:       orDefault(firstWord(h.Get("document")), "INV"),
		InvoiceDate:        r.date("invoice_date", h.Get("invoice_date")),
		CategoryCode:       firstWord(h.Get("category")),
		HSNCode:            firstWord(h.Get("hsn_code")),
		ServiceDescription: h.Get("service_description"),
		ReverseCharge:      yesNo(h.Get("reverse_charge")),
		Customer: domain.Party{
			Name:    h.Get("customer_name"),
			TaxID:   firstWord(h.Get("customer_gstin")),
			Address: h.Get("customer_address"),
		},
		Counterparty: domain.Party{
			Name:           h.Get("restaurant_name"),
			TaxID:          firstWord(h.Get("restaurant_gstin")),
			RegistrationID: firstWord(h.Get("restaurant_fssai")),
			Address:        h.Get("restaurant_address"),
			Jurisdiction:   h.Get("restaurant_state"),
		},
		PlaceOfSupply: h.Get("place_of_supply"),
	}

	for _, row := range tbl.Rows {
		rec.Items = append(rec.Items, r.foodItem(row))
		if r.err != nil {
			return nil, r.err
		}
	}

	opStart := len(lines)
	for i := tbl.End; i < len(lines); i++ {
		if containsText(lines[i], operatorMarker) {
			opStart = i
			break
		}
	}
	totalsBlock := lines[tbl.End:opStart]

	r.seq = 0
	t := foodTotals.Scan(totalsBlock, doc.ColumnTolerance)
	r.required("", t, "subtotal", "invoice_total")
	rec.Subtotal = r.amount("subtotal", t.Get("subtotal"))
	rec.Taxes = r.taxBlock(totalsBlock)
	rec.TotalTaxes = r.optionalAmount("total_taxes", t.Get("total_taxes"), domain.SumTaxes(rec.Taxes))
	rec.InvoiceTotal = r.amount("invoice_total", t.Get("invoice_total"))
	if r.err != nil {
		return nil, r.err
	}

	if opStart < len(lines) {
		op := operatorBlock.Scan(lines[opStart:], doc.ColumnTolerance)
		rec.Operator = domain.Party{
			Name:           op.Get("name"),
			Address:        op.Get("address"),
			TaxID:          firstWord(op.Get("gstin")),
			RegistrationID: firstWord(op.Get("fssai")),
		}
	}
	return rec, nil
}

func (r *fieldReader) foodItem(row Row) domain.LineItem {
	r.seq = r.seqNumber(row.Get("seq"))
	it := domain.LineItem{
		Seq:         r.seq,
		Description: row.Get("description"),
		Unit:        row.Get("unit"),
		Quantity:    r.quantity("items.quantity", row.Get("quantity")),
		UnitPrice:   r.amount("items.unit_price", row.Get("unit_price")),
		Gross:       r.amount("items.amount", row.Get("amount")),
		Discount:    r.amount("items.discount", row.Get("discount")),
		Net:         r.amount("items.net_assessable_value", row.Get("net")),
	}
	// Single-invoice items carry no per-item tax.
	it.Total = it.Net
	return it
}
