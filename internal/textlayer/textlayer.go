// Package textlayer decodes document bytes into positioned text lines. The
// extractors only ever see a Document, so the PDF library stays an input
// detail.
package textlayer

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"invoicevault/internal/domain"
)

// Cell is one horizontally separated run of text. X is the left edge in
// layer units: points for PDF, character columns for plain text.
type Cell struct {
	Text string
	X    float64
}

// Line is one visual row of a page.
type Line struct {
	Page  int
	Index int
	Cells []Cell
	Links []string
}

// Texts returns the cell texts of the line.
func (l Line) Texts() []string {
	out := make([]string, len(l.Cells))
	for i, c := range l.Cells {
		out[i] = c.Text
	}
	return out
}

// Text joins the cells with single spaces.
func (l Line) Text() string {
	return strings.Join(l.Texts(), " ")
}

// Document is the decoded text layer of one file.
type Document struct {
	Pages int
	Lines []Line
	// ColumnTolerance is how far apart two cells may start and still be
	// considered the same column.
	ColumnTolerance float64
}

// PageLines returns the lines of a 1-based page.
func (d *Document) PageLines(page int) []Line {
	var out []Line
	for _, l := range d.Lines {
		if l.Page == page {
			out = append(out, l)
		}
	}
	return out
}

// Links returns every hyperlink in document order.
func (d *Document) Links() []string {
	var out []string
	for _, l := range d.Lines {
		out = append(out, l.Links...)
	}
	return out
}

// IsPDF reports whether data carries the PDF magic bytes.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// Decode reads a PDF or a plain-text layer.
func Decode(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	if IsPDF(data) {
		return decodePDF(data)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: neither PDF nor UTF-8 text", domain.ErrUnreadableDocument)
	}
	return decodeText(string(data)), nil
}

type builder struct {
	doc *Document
}

func (b *builder) add(page int, cells []Cell, links []string) {
	if len(cells) == 0 && len(links) == 0 {
		return
	}
	b.doc.Lines = append(b.doc.Lines, Line{
		Page:  page,
		Index: len(b.doc.Lines),
		Cells: cells,
		Links: links,
	})
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
