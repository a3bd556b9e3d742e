package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicevault/internal/extract"
	"invoicevault/internal/textlayer"
)

func decode(t *testing.T, src string) *textlayer.Document {
	t.Helper()
	doc, err := textlayer.Decode([]byte(src))
	require.NoError(t, err)
	return doc
}

func TestGrammar_Scan(t *testing.T) {
	g := extract.NewGrammar(
		extract.Anchor{Key: "state", Labels: []string{"State"}},
		extract.Anchor{Key: "state_code", Labels: []string{"State Code"}},
		extract.Anchor{Key: "address", Labels: []string{"Address"}, Multiline: true},
		extract.Anchor{Key: "invoice_no", Labels: []string{"Invoice No", "Invoice Number"}},
		extract.Anchor{Key: "reverse", Labels: []string{"Reverse Charge"}},
	)

	t.Run("longest_label_wins", func(t *testing.T) {
		doc := decode(t, "State Code: 29\nState: Karnataka\n")
		f := g.Scan(doc.Lines, doc.ColumnTolerance)
		assert.Equal(t, "29", f.Get("state_code"))
		assert.Equal(t, "Karnataka", f.Get("state"))
	})

	t.Run("case_insensitive_with_spacing", func(t *testing.T) {
		doc := decode(t, "invoice number : INV-9\n")
		f := g.Scan(doc.Lines, doc.ColumnTolerance)
		assert.Equal(t, "INV-9", f.Get("invoice_no"))
	})

	t.Run("value_in_next_cell", func(t *testing.T) {
		doc := decode(t, "Reverse Charge    No\n")
		f := g.Scan(doc.Lines, doc.ColumnTolerance)
		assert.Equal(t, "No", f.Get("reverse"))
	})

	t.Run("word_boundary_required", func(t *testing.T) {
		doc := decode(t, "Statement: closed\n")
		f := g.Scan(doc.Lines, doc.ColumnTolerance)
		assert.False(t, f.Has("state"))
	})

	t.Run("last_occurrence_wins", func(t *testing.T) {
		doc := decode(t, "Invoice No: A-1\nInvoice No: A-2\n")
		f := g.Scan(doc.Lines, doc.ColumnTolerance)
		assert.Equal(t, "A-2", f.Get("invoice_no"))
	})

	t.Run("bare_label_keeps_earlier_value", func(t *testing.T) {
		doc := decode(t, "Invoice No    A-7\nInvoice No\n")
		f := g.Scan(doc.Lines, doc.ColumnTolerance)
		assert.True(t, f.Has("invoice_no"))
		assert.Equal(t, "A-7", f.Get("invoice_no"))
	})

	t.Run("multiline_stops_at_label", func(t *testing.T) {
		doc := decode(t, "Address: 1 Main Road\n"+
			"Sector 4\n"+
			"State: Goa\n")
		f := g.Scan(doc.Lines, doc.ColumnTolerance)
		assert.Equal(t, "1 Main Road Sector 4", f.Get("address"))
		assert.Equal(t, "Goa", f.Get("state"))
	})

	t.Run("multiline_follows_column", func(t *testing.T) {
		doc := decode(t, "Invoice No: X-1          Address: Plot 5\n"+
			"Footer text              Industrial Area\n"+
			"                         Whitefield\n")
		f := g.Scan(doc.Lines, doc.ColumnTolerance)
		assert.Equal(t, "Plot 5 Industrial Area Whitefield", f.Get("address"))
	})

	t.Run("multiline_bounded", func(t *testing.T) {
		doc := decode(t, "Address: a\nb\nc\nd\ne\nf\ng\n")
		f := g.Scan(doc.Lines, doc.ColumnTolerance)
		assert.Equal(t, "a b c d e", f.Get("address"))
	})
}

func TestGrammar_Find(t *testing.T) {
	g := extract.NewGrammar(extract.Anchor{Key: "pan", Labels: []string{"PAN"}})
	doc := decode(t, "Tax Invoice\nPANEER  2\nPAN: AABCB1234A\n")
	assert.Equal(t, 2, g.Find(doc.Lines))
	assert.Equal(t, -1, g.Find(doc.Lines[:2]))
}

func TestTableSpec_Walk(t *testing.T) {
	spec := extract.TableSpec{
		Columns: []extract.Column{
			{Key: "seq", Label: "Sr No"},
			{Key: "description", Label: "Description"},
			{Key: "price", Label: "Price"},
		},
		WrapKey: "description",
	}

	t.Run("rows_and_wrap", func(t *testing.T) {
		doc := decode(t, "Heading\n"+
			"Sr No  Description    Price\n"+
			"1      Veg Biryani    180.00\n"+
			"       large\n"+
			"2.     Raita          40.00\n"+
			"Subtotal  220.00\n")
		tbl, ok := spec.Walk(doc.Lines, doc.ColumnTolerance)
		require.True(t, ok)
		assert.Equal(t, 1, tbl.HeaderAt)
		assert.Equal(t, 5, tbl.End)
		require.Len(t, tbl.Rows, 2)
		assert.Equal(t, "Veg Biryani large", tbl.Rows[0].Get("description"))
		assert.Equal(t, "180.00", tbl.Rows[0].Get("price"))
		assert.Equal(t, "2.", tbl.Rows[1].Get("seq"))
	})

	t.Run("header_out_of_order", func(t *testing.T) {
		doc := decode(t, "Description  Sr No  Price\n1  x  2.00\n")
		_, ok := spec.Walk(doc.Lines, doc.ColumnTolerance)
		assert.False(t, ok)
	})

	t.Run("arity_mismatch_ends_table", func(t *testing.T) {
		doc := decode(t, "Sr No  Description  Price\n"+
			"1  Tea  20.00\n"+
			"2  Coffee\n"+
			"3  Juice  60.00\n")
		tbl, ok := spec.Walk(doc.Lines, doc.ColumnTolerance)
		require.True(t, ok)
		assert.Len(t, tbl.Rows, 1)
		assert.Equal(t, 2, tbl.End)
	})

	t.Run("no_rows", func(t *testing.T) {
		doc := decode(t, "Sr No  Description  Price\nTaxes\n")
		tbl, ok := spec.Walk(doc.Lines, doc.ColumnTolerance)
		require.True(t, ok)
		assert.Empty(t, tbl.Rows)
		assert.Equal(t, 1, tbl.End)
	})
}
