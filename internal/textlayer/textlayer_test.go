package textlayer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicevault/internal/domain"
	"invoicevault/internal/textlayer"
)

func TestDecode_Empty(t *testing.T) {
	_, err := textlayer.Decode(nil)
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)

	_, err = textlayer.Decode([]byte(" \n\t\n"))
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestDecode_BrokenPDF(t *testing.T) {
	_, err := textlayer.Decode([]byte("%PDF-1.7\nthis is not a pdf body"))
	assert.ErrorIs(t, err, domain.ErrUnreadableDocument)
}

func TestDecode_BinaryGarbage(t *testing.T) {
	_, err := textlayer.Decode([]byte{0xff, 0xfe, 0x00, 0x81})
	assert.ErrorIs(t, err, domain.ErrUnreadableDocument)
}

func TestIsPDF(t *testing.T) {
	assert.True(t, textlayer.IsPDF([]byte("%PDF-1.4\n")))
	assert.False(t, textlayer.IsPDF([]byte("Customer Name")))
}

func TestDecode_PlainText(t *testing.T) {
	src := "Invoice To: Dan Ny          Restaurant Name: Test Kitchen\n" +
		"\n" +
		"Order ID: 123456789012345   Address: Plot 1, MG Road\n" +
		"                            Koramangala\n" +
		"1\tPaneer Tikka\t250.00\n" +
		"\f" +
		"View   <https://example.com/invoice?id=1>\n"

	doc, err := textlayer.Decode([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, 2, doc.Pages)
	require.Len(t, doc.Lines, 5)

	first := doc.Lines[0]
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, []string{"Invoice To: Dan Ny", "Restaurant Name: Test Kitchen"}, first.Texts())
	assert.Equal(t, float64(0), first.Cells[0].X)
	assert.Equal(t, float64(28), first.Cells[1].X)

	cont := doc.Lines[2]
	require.Len(t, cont.Cells, 1)
	assert.Equal(t, "Koramangala", cont.Cells[0].Text)
	assert.Equal(t, doc.Lines[1].Cells[1].X, cont.Cells[0].X)

	// Tabs split cells; single spaces inside a cell are kept.
	assert.Equal(t, []string{"1", "Paneer Tikka", "250.00"}, doc.Lines[3].Texts())

	last := doc.Lines[4]
	assert.Equal(t, 2, last.Page)
	assert.Equal(t, []string{"View"}, last.Texts())
	assert.Equal(t, []string{"https://example.com/invoice?id=1"}, last.Links)

	assert.Len(t, doc.PageLines(1), 4)
	assert.Equal(t, []string{"https://example.com/invoice?id=1"}, doc.Links())
	assert.Equal(t, "Invoice To: Dan Ny Restaurant Name: Test Kitchen", first.Text())
}

func TestDecode_LinkOnlyLine(t *testing.T) {
	doc, err := textlayer.Decode([]byte("<http://a.example/x>\n"))
	require.NoError(t, err)
	require.Len(t, doc.Lines, 1)
	assert.Empty(t, doc.Lines[0].Cells)
	assert.Equal(t, []string{"http://a.example/x"}, doc.Lines[0].Links)
}
