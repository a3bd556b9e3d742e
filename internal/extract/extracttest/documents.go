// Package extracttest renders summary and detail documents in the plain-text
// layer format for tests. Every printed value is a string so that tests can
// corrupt individual tokens.
package extracttest

import (
	"fmt"
	"strings"
)

const rightColumn = 44

// Tax is one printed tax line.
type Tax struct {
	Name, Rate, Amount string
}

// FoodItem is one printed row of a single-invoice item table.
type FoodItem struct {
	Seq, Description, Unit                     string
	Quantity, UnitPrice, Amount, Discount, Net string
}

// Food is a single-invoice detail document.
type Food struct {
	OrderID, InvoiceNo, InvoiceDate string
	CustomerName                    string
	RestaurantName                  string
	RestaurantAddress               []string
	Items                           []FoodItem
	Subtotal                        string
	Taxes                           []Tax
	TotalTaxes                      string
	InvoiceTotal                    string
	OmitOperator                    bool
}

// NewFood returns an arithmetically consistent two-item invoice.
func NewFood(orderID int64) *Food {
	return &Food{
		OrderID:           fmt.Sprint(orderID),
		InvoiceNo:         "S-INV-2025-001",
		InvoiceDate:       "15-01-2025",
		CustomerName:      "Dan Ny",
		RestaurantName:    "Test Kitchen",
		RestaurantAddress: []string{"Plot 1, MG Road", "Koramangala, Bengaluru"},
		Items: []FoodItem{
			{Seq: "1", Description: "Paneer Tikka", Unit: "NOS", Quantity: "2", UnitPrice: "250.00", Amount: "500.00", Discount: "50.00", Net: "450.00"},
			{Seq: "2", Description: "Butter Naan", Unit: "NOS", Quantity: "3", UnitPrice: "40.00", Amount: "120.00", Discount: "0.00", Net: "120.00"},
		},
		Subtotal: "570.00",
		Taxes: []Tax{
			{Name: "CGST", Rate: "2.5%", Amount: "14.25"},
			{Name: "SGST/UTGST", Rate: "2.5%", Amount: "14.25"},
		},
		TotalTaxes:   "28.50",
		InvoiceTotal: "598.50",
	}
}

// Render prints the invoice.
func (f *Food) Render() []byte {
	var b strings.Builder
	line := func(cells ...string) { b.WriteString(strings.Join(cells, "  ") + "\n") }
	pair := func(left, right string) { b.WriteString(twoColumn(left, right) + "\n") }

	line("Tax Invoice")
	pair("Invoice To: "+f.CustomerName, "Invoice issued by:")
	pair("GSTIN: URP", "Restaurant Name: "+f.RestaurantName)
	pair("Customer Address: 12 Residency Road", "Restaurant GSTIN: 29AABCT1234Z1")
	pair("Order ID: "+f.OrderID, "Restaurant FSSAI License: 11234567890123")
	addr1, addr2 := "", ""
	if len(f.RestaurantAddress) > 0 {
		addr1 = f.RestaurantAddress[0]
	}
	if len(f.RestaurantAddress) > 1 {
		addr2 = f.RestaurantAddress[1]
	}
	pair("Document: INV", "Address: "+addr1)
	pair("Invoice No: "+f.InvoiceNo, addr2)
	pair("Date of Invoice: "+f.InvoiceDate, "State: Karnataka")
	pair("HSN Code: 996331", "Place of Supply: Karnataka")
	pair("Service Description: Restaurant Service", "Category: B2C")
	line("Reverse Charges Applicable: No")

	line("Sr No", "Description", "Unit of Measure", "Quantity", "Unit Price", "Amount", "Discount", "Net Assessable Value")
	for _, it := range f.Items {
		line(it.Seq, it.Description, it.Unit, it.Quantity, it.UnitPrice, it.Amount, it.Discount, it.Net)
	}
	if f.Subtotal != "" {
		line("Subtotal", f.Subtotal)
	}
	line("Taxes")
	for _, t := range f.Taxes {
		line(t.Name, t.Rate, t.Amount)
	}
	if f.TotalTaxes != "" {
		line("Total taxes", f.TotalTaxes)
	}
	if f.InvoiceTotal != "" {
		line("Invoice Total", f.InvoiceTotal)
	}
	if !f.OmitOperator {
		line("E-Commerce Operator (ECO under GST)")
		line("Name: Bundl Technologies Private Limited")
		line("Address: Tower D, 9th Floor, IBC Knowledge Park")
		line("GSTIN: 29AABCB1234Z1")
		line("Swiggy FSSAI: 11223344556677")
	}
	return []byte(b.String())
}

// InstamartItem is one printed row of the product item table.
type InstamartItem struct {
	Seq, Description, Quantity, Unit, HSN      string
	TaxableValue, Discount, Net                string
	CGSTRate, CGSTAmount, SGSTRate, SGSTAmount string
	CessRate, CessAmount, AdditionalCess       string
	Total                                      string
}

// Fee is the printed handling-fee sub-invoice. A nil Item renders the
// zero-fee layout.
type Fee struct {
	InvoiceNo    string
	Item         *FeeItem
	Taxes        []Tax
	TotalTaxes   string
	InvoiceTotal string
}

// FeeItem is the single printed fee row.
type FeeItem struct {
	Description, UnitPrice, Discount, Net string
}

// Instamart is a multi-invoice detail document.
type Instamart struct {
	OrderID, InvoiceNo, InvoiceDate string
	SellerName                      string
	Items                           []InstamartItem
	InvoiceValue                    string
	Fee                             *Fee
}

// NewInstamart returns a consistent two-item product invoice with a
// 14.90 handling fee.
func NewInstamart(orderID int64) *Instamart {
	return &Instamart{
		OrderID:     fmt.Sprint(orderID),
		InvoiceNo:   "INM-2025-001",
		InvoiceDate: "15-01-2025",
		SellerName:  "Fresh Farms Pvt Ltd",
		Items: []InstamartItem{
			{
				Seq: "1", Description: "Amul Butter 500g", Quantity: "2", Unit: "NOS", HSN: "04051000",
				TaxableValue: "156.26", Discount: "83.04", Net: "73.22",
				CGSTRate: "2.5%", CGSTAmount: "1.83", SGSTRate: "2.5%", SGSTAmount: "1.83",
				CessRate: "0%", CessAmount: "0.00", AdditionalCess: "0.00", Total: "76.88",
			},
			{
				Seq: "2", Description: "Toned Milk 1L", Quantity: "1", Unit: "NOS", HSN: "04012000",
				TaxableValue: "54.00", Discount: "0.00", Net: "54.00",
				CGSTRate: "0%", CGSTAmount: "0.00", SGSTRate: "0%", SGSTAmount: "0.00",
				CessRate: "0%", CessAmount: "0.00", AdditionalCess: "0.00", Total: "54.00",
			},
		},
		InvoiceValue: "130.88",
		Fee: &Fee{
			InvoiceNo: "HF-2025-001",
			Item:      &FeeItem{Description: fmt.Sprintf("Handling Fees for Order %d", orderID), UnitPrice: "14.90", Discount: "0.00", Net: "14.90"},
			Taxes: []Tax{
				{Name: "CGST", Rate: "9%", Amount: "1.34"},
				{Name: "SGST/UTGST", Rate: "9%", Amount: "1.34"},
				{Name: "State CESS", Rate: "0%", Amount: "0.00"},
			},
			TotalTaxes:   "2.68",
			InvoiceTotal: "17.58",
		},
	}
}

// ZeroFee returns the fee layout printed when no handling fee was charged.
func ZeroFee() *Fee {
	return &Fee{
		InvoiceNo: "HF-2025-000",
		Taxes: []Tax{
			{Name: "CGST", Rate: "9%", Amount: "0.00"},
			{Name: "SGST/UTGST", Rate: "9%", Amount: "0.00"},
		},
		TotalTaxes:   "0.00",
		InvoiceTotal: "0.00",
	}
}

// Render prints the product invoice and, on a second page, the fee invoice.
func (m *Instamart) Render() []byte {
	var b strings.Builder
	line := func(cells ...string) { b.WriteString(strings.Join(cells, "  ") + "\n") }
	pair := func(left, right string) { b.WriteString(twoColumn(left, right) + "\n") }

	line("Tax Invoice")
	pair("Invoice To: Dan Ny", "Seller Name: "+m.SellerName)
	pair("GSTIN: URP", "Seller GSTIN: 29AAACF1234A1Z5")
	pair("Customer Address: 123 Main St", "FSSAI: 11234567890123")
	pair("Order ID: "+m.OrderID, "Address: Plot 5, Industrial Area")
	pair("", "Whitefield")
	pair("Document: INV", "City: Bangalore")
	pair("Invoice No: "+m.InvoiceNo, "State: Karnataka")
	pair("Date of Invoice: "+m.InvoiceDate, "Place of Supply: Karnataka")
	line("Category: B2C")

	line("Sr No", "Item Description", "Qty", "UQC", "HSN/SAC", "Taxable Value", "Discount", "Net Taxable Value",
		"CGST Rate", "CGST Amount", "SGST/UTGST Rate", "SGST/UTGST Amount", "Cess Rate", "Cess Amount",
		"Additional Cess", "Total Amount")
	for _, it := range m.Items {
		line(it.Seq, it.Description, it.Quantity, it.Unit, it.HSN, it.TaxableValue, it.Discount, it.Net,
			it.CGSTRate, it.CGSTAmount, it.SGSTRate, it.SGSTAmount, it.CessRate, it.CessAmount,
			it.AdditionalCess, it.Total)
	}
	if m.InvoiceValue != "" {
		line("Invoice Value", m.InvoiceValue)
	}
	line("Amount in words: as printed")

	if m.Fee == nil {
		return []byte(b.String())
	}
	f := m.Fee
	b.WriteString("\f")
	line("Tax Invoice")
	pair("PAN: AABCB1234A", "Invoice No: "+f.InvoiceNo)
	pair("GSTIN: 29AABCB1234Z1", "Date of Invoice: "+m.InvoiceDate)
	pair("Address: Tower D, IBC Knowledge Park", "Category: B2C")
	pair("Bengaluru", "Transaction Type: Regular")
	pair("Pincode: 560029", "Invoice Type: Regular")
	pair("State Code: 29", "Whether Reverse Charges  No")
	if f.Item != nil {
		line("Sr No", "Description", "Unit Price", "Discount", "Net Assessable Value")
		line("1", f.Item.Description, f.Item.UnitPrice, f.Item.Discount, f.Item.Net)
	}
	line("Taxes")
	line("996812", "Handling charges")
	for _, t := range f.Taxes {
		line(t.Name, t.Rate, t.Amount)
	}
	if f.TotalTaxes != "" {
		line("Total taxes", f.TotalTaxes)
	}
	if f.InvoiceTotal != "" {
		line("Invoice Total", f.InvoiceTotal)
	}
	return []byte(b.String())
}

// SummaryRow is one printed order row.
type SummaryRow struct {
	Date, OrderID, Name, Amount, Link string
}

// Summary is an order-list document.
type Summary struct {
	CustomerName, Email, OrderCount, TotalAmount, DateRange string
	Rows                                                    []SummaryRow
	RowsPerPage                                             int
}

// NewSummary lays out rows under a header declaring count and total.
func NewSummary(count, total string, rows []SummaryRow) *Summary {
	return &Summary{
		CustomerName: "Dan Ny",
		Email:        "dan@example.com",
		OrderCount:   count,
		TotalAmount:  total,
		DateRange:    "09-08-2025 to 09-02-2026",
		Rows:         rows,
		RowsPerPage:  15,
	}
}

// DetailLink is the reference printed for an order's detail document.
func DetailLink(orderID int64) string {
	return fmt.Sprintf("https://invoices.example.com/orders/%d.pdf", orderID)
}

// Render prints the summary, breaking pages every RowsPerPage rows.
func (s *Summary) Render() []byte {
	var b strings.Builder
	line := func(cells ...string) { b.WriteString(strings.Join(cells, "  ") + "\n") }

	line("Order Summary")
	line("Customer Name", "Number of Orders", "Total Amount")
	line(s.CustomerName, s.OrderCount, s.TotalAmount)
	line("Email", "Date Range")
	line(s.Email, s.DateRange)
	line("Order Date", "Order ID", "Name", "Amount", "Invoice")
	for i, r := range s.Rows {
		if s.RowsPerPage > 0 && i > 0 && i%s.RowsPerPage == 0 {
			b.WriteString("\f")
		}
		cells := []string{r.Date, r.OrderID, r.Name, r.Amount, "View"}
		if r.Link != "" {
			cells = append(cells, "<"+r.Link+">")
		}
		line(cells...)
	}
	return []byte(b.String())
}

func twoColumn(left, right string) string {
	if right == "" {
		return left
	}
	return fmt.Sprintf("%-*s  %s", rightColumn-2, left, right)
}
