package extract

import (
	"strconv"
	"strings"

	"invoicevault/internal/textlayer"
)

// Column is one expected column of an item table.
type Column struct {
	Key   string
	Label string
}

// TableSpec describes an item table by its header labels, in print order.
// WrapKey names the column whose text may wrap onto extra lines.
type TableSpec struct {
	Columns []Column
	WrapKey string
}

type tableState int

const (
	seekHeader tableState = iota
	inRows
	done
)

// Row is one accepted table row with its cells keyed by column.
type Row struct {
	Line  textlayer.Line
	cells map[string]string
}

// Get returns the cell for a column key.
func (r Row) Get(key string) string { return r.cells[key] }

func (r Row) set(key, v string) { r.cells[key] = v }

// Table is the result of walking a TableSpec over a block.
type Table struct {
	// HeaderAt and End are offsets into the walked lines; End is the first
	// line after the last row.
	HeaderAt int
	End      int
	Rows     []Row
}

// Walk runs the SeekHeader → InRows → Done machine over lines. The second
// return is false when no header row was found.
func (s TableSpec) Walk(lines []textlayer.Line, colTol float64) (*Table, bool) {
	var (
		state   = seekHeader
		t       = &Table{HeaderAt: -1, End: len(lines)}
		colIdx  []int
		arity   int
		header  textlayer.Line
		wrapCol = -1
	)

	for i := 0; i < len(lines) && state != done; i++ {
		line := lines[i]
		switch state {
		case seekHeader:
			idx, ok := s.matchHeader(line)
			if !ok {
				continue
			}
			colIdx, arity, header = idx, len(line.Cells), line
			for ci, c := range s.Columns {
				if c.Key == s.WrapKey {
					wrapCol = colIdx[ci]
				}
			}
			t.HeaderAt = i
			state = inRows

		case inRows:
			if len(line.Cells) == arity && isSeqNumber(line.Cells[0].Text) {
				row := Row{Line: line, cells: make(map[string]string, len(s.Columns))}
				for ci, c := range s.Columns {
					row.set(c.Key, line.Cells[colIdx[ci]].Text)
				}
				t.Rows = append(t.Rows, row)
				continue
			}
			if len(t.Rows) > 0 && wrapCol >= 0 && isWrapLine(line, header, wrapCol, colTol) {
				last := t.Rows[len(t.Rows)-1]
				last.set(s.WrapKey, last.Get(s.WrapKey)+" "+line.Cells[0].Text)
				continue
			}
			t.End = i
			state = done
		}
	}

	if t.HeaderAt < 0 {
		return nil, false
	}
	return t, true
}

// matchHeader finds every column label, in order, as the prefix of a distinct
// cell, and returns the cell index per column.
func (s TableSpec) matchHeader(line textlayer.Line) ([]int, bool) {
	if len(line.Cells) < len(s.Columns) {
		return nil, false
	}
	idx := make([]int, 0, len(s.Columns))
	for i, c := range line.Cells {
		if len(idx) == len(s.Columns) {
			break
		}
		if _, ok := cutLabel(normalizeLabel(c.Text), normalizeLabel(s.Columns[len(idx)].Label)); ok {
			idx = append(idx, i)
		}
	}
	if len(idx) != len(s.Columns) {
		return nil, false
	}
	return idx, true
}

// isWrapLine reports a single-cell line sitting in the wrap column.
func isWrapLine(line, header textlayer.Line, wrapCol int, tol float64) bool {
	if len(line.Cells) != 1 {
		return false
	}
	x := line.Cells[0].X
	left := header.Cells[wrapCol].X - tol
	right := float64(1 << 30)
	if wrapCol+1 < len(header.Cells) {
		right = header.Cells[wrapCol+1].X
	}
	return x >= left && x < right
}

func isSeqNumber(s string) bool {
	_, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "."))
	return err == nil
}

func parseSeq(s string) (int, error) {
	return strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "."))
}
