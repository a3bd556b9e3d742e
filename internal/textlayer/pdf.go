package textlayer

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"invoicevault/internal/domain"
)

const (
	pdfColTol       = 6.0
	defaultFontSize = 10.0
	// wordGapRatio is the fraction of the font size above which two glyph
	// runs are separate words; cellGapRatio separates cells.
	wordGapRatio = 0.2
	cellGapRatio = 1.0
)

type pdfLink struct {
	uri        string
	yLow, yTop float64
}

func decodePDF(data []byte) (doc *Document, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, err)
	}

	b := &builder{doc: &Document{Pages: r.NumPage(), ColumnTolerance: pdfColTol}}
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", domain.ErrUnreadableDocument, i, err)
		}

		// PDF y grows upwards, so the top of the page has the largest position.
		sort.SliceStable(rows, func(a, c int) bool { return rows[a].Position > rows[c].Position })

		positions := make([]float64, len(rows))
		cells := make([][]Cell, len(rows))
		for j, row := range rows {
			positions[j] = float64(row.Position)
			cells[j] = pdfCells(row.Content)
		}
		links := attachLinks(positions, pageLinks(page))
		for j := range rows {
			b.add(i, cells[j], links[j])
		}
	}

	if len(b.doc.Lines) == 0 {
		return nil, fmt.Errorf("%w: no text layer", domain.ErrUnreadableDocument)
	}
	return b.doc, nil
}

func pdfCells(texts pdf.TextHorizontal) []Cell {
	sorted := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if t.S != "" {
			sorted = append(sorted, t)
		}
	}
	sort.SliceStable(sorted, func(a, c int) bool { return sorted[a].X < sorted[c].X })

	var (
		cells   []Cell
		cur     strings.Builder
		startX  float64
		prevEnd float64
	)
	flush := func() {
		if text := collapse(cur.String()); text != "" {
			cells = append(cells, Cell{Text: text, X: startX})
		}
		cur.Reset()
	}

	for i, t := range sorted {
		size := t.FontSize
		if size <= 0 {
			size = defaultFontSize
		}
		if i == 0 {
			startX = t.X
		} else {
			gap := t.X - prevEnd
			switch {
			case gap > size*cellGapRatio:
				flush()
				startX = t.X
			case gap > size*wordGapRatio:
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	flush()
	return cells
}

func pageLinks(page pdf.Page) []pdfLink {
	annots := page.V.Key("Annots")
	var out []pdfLink
	for i := 0; i < annots.Len(); i++ {
		a := annots.Index(i)
		if a.Key("Subtype").Name() != "Link" {
			continue
		}
		uri := a.Key("A").Key("URI").RawString()
		if uri == "" {
			continue
		}
		rect := a.Key("Rect")
		if rect.Len() < 4 {
			continue
		}
		y1, y2 := rect.Index(1).Float64(), rect.Index(3).Float64()
		out = append(out, pdfLink{uri: uri, yLow: math.Min(y1, y2), yTop: math.Max(y1, y2)})
	}
	return out
}

// attachLinks assigns each annotation to the row whose baseline falls inside
// its rectangle, or failing that to the nearest row.
func attachLinks(positions []float64, links []pdfLink) [][]string {
	out := make([][]string, len(positions))
	if len(positions) == 0 {
		return out
	}
	for _, l := range links {
		best, bestDist := 0, math.Inf(1)
		for j, y := range positions {
			if y >= l.yLow && y <= l.yTop {
				best, bestDist = j, -1
				break
			}
			mid := (l.yLow + l.yTop) / 2
			if d := math.Abs(y - mid); d < bestDist {
				best, bestDist = j, d
			}
		}
		out[best] = append(out[best], l.uri)
	}
	return out
}
