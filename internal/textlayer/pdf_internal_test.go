package textlayer

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
)

func TestPDFCells(t *testing.T) {
	texts := pdf.TextHorizontal{
		{S: "Order", X: 10, W: 20, FontSize: 10},
		{S: "ID:", X: 33, W: 10, FontSize: 10},
		{S: "123", X: 45, W: 15, FontSize: 10},
		{S: "Address:", X: 200, W: 30, FontSize: 10},
		{S: "", X: 240, W: 0, FontSize: 10},
	}

	cells := pdfCells(texts)
	assert.Equal(t, []Cell{
		{Text: "Order ID:123", X: 10},
		{Text: "Address:", X: 200},
	}, cells)
}

func TestPDFCells_Unsorted(t *testing.T) {
	texts := pdf.TextHorizontal{
		{S: "b", X: 100, W: 5},
		{S: "a", X: 10, W: 5},
	}
	cells := pdfCells(texts)
	assert.Equal(t, []string{"a", "b"}, []string{cells[0].Text, cells[1].Text})
}

func TestAttachLinks(t *testing.T) {
	positions := []float64{700, 680, 660}
	links := []pdfLink{
		{uri: "inside", yLow: 675, yTop: 690},
		{uri: "nearest", yLow: 640, yTop: 650},
	}

	out := attachLinks(positions, links)
	assert.Nil(t, out[0])
	assert.Equal(t, []string{"inside"}, out[1])
	assert.Equal(t, []string{"nearest"}, out[2])
}

func TestAttachLinks_NoRows(t *testing.T) {
	assert.Empty(t, attachLinks(nil, []pdfLink{{uri: "x"}}))
}
