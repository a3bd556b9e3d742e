package extract

import (
	"math"
	"sort"
	"strings"

	"invoicevault/internal/textlayer"
)

// maxContinuationLines bounds how far a multiline value may run.
const maxContinuationLines = 4

// Anchor names one labelled header field. Labels are alternatives.
type Anchor struct {
	Key       string
	Labels    []string
	Multiline bool
}

// Fields holds the values found by a Grammar scan, keyed by Anchor.Key.
type Fields map[string]string

// Get returns the value for key, or "".
func (f Fields) Get(key string) string { return f[key] }

// Has reports whether key was found with a non-empty value.
func (f Fields) Has(key string) bool { return f[key] != "" }

type labelRef struct {
	label  string
	anchor int
}

// Grammar is an ordered list of anchors evaluated against a block of lines.
type Grammar struct {
	anchors []Anchor
	labels  []labelRef
}

// NewGrammar builds a grammar. Longer labels are tried first so that
// "State Code" is never read as "State".
func NewGrammar(anchors ...Anchor) *Grammar {
	g := &Grammar{anchors: anchors}
	for i, a := range anchors {
		for _, l := range a.Labels {
			g.labels = append(g.labels, labelRef{label: normalizeLabel(l), anchor: i})
		}
	}
	sort.SliceStable(g.labels, func(i, j int) bool { return len(g.labels[i].label) > len(g.labels[j].label) })
	return g
}

// Scan evaluates every anchor inside lines. When a label occurs more than
// once the valued occurrence closest to the end of the block wins; a bare
// label never erases an earlier value.
func (g *Grammar) Scan(lines []textlayer.Line, colTol float64) Fields {
	out := Fields{}
	for li, line := range lines {
		for ci := 0; ci < len(line.Cells); ci++ {
			cell := line.Cells[ci]
			idx, rest, ok := g.match(cell.Text)
			if !ok {
				continue
			}
			anchor := g.anchors[idx]
			valueX := cell.X
			if rest == "" && ci+1 < len(line.Cells) {
				next := line.Cells[ci+1]
				if _, _, isLabel := g.match(next.Text); !isLabel {
					rest = next.Text
					valueX = next.X
					ci++
				}
			}
			if rest == "" {
				continue
			}
			if anchor.Multiline {
				rest = g.continueValue(rest, lines[li+1:], []float64{cell.X, valueX}, colTol)
			}
			out[anchor.Key] = rest
		}
	}
	return out
}

// Find reports the index of the first line in lines that carries any label
// of the grammar, or -1.
func (g *Grammar) Find(lines []textlayer.Line) int {
	for i, line := range lines {
		for _, c := range line.Cells {
			if _, _, ok := g.match(c.Text); ok {
				return i
			}
		}
	}
	return -1
}

func (g *Grammar) continueValue(value string, following []textlayer.Line, cols []float64, tol float64) string {
	parts := []string{value}
	for n, line := range following {
		if n == maxContinuationLines {
			break
		}
		cell, ok := cellAtColumn(line, cols, tol)
		if !ok {
			break
		}
		if _, _, isLabel := g.match(cell.Text); isLabel {
			break
		}
		parts = append(parts, cell.Text)
	}
	return strings.Join(parts, " ")
}

func cellAtColumn(line textlayer.Line, cols []float64, tol float64) (textlayer.Cell, bool) {
	for _, c := range line.Cells {
		for _, x := range cols {
			if math.Abs(c.X-x) <= tol {
				return c, true
			}
		}
	}
	return textlayer.Cell{}, false
}

// match checks whether a cell starts with one of the grammar's labels and
// returns the anchor index and the remainder after the label.
func (g *Grammar) match(cell string) (int, string, bool) {
	norm := normalizeLabel(cell)
	for _, ref := range g.labels {
		if rest, ok := cutLabel(norm, ref.label); ok {
			return ref.anchor, rest, true
		}
	}
	return 0, "", false
}

// cutLabel matches label at the start of s, case-insensitively, requiring a
// word boundary after it. The remainder has a leading ':' removed.
func cutLabel(s, label string) (string, bool) {
	if len(s) < len(label) || !strings.EqualFold(s[:len(label)], label) {
		return "", false
	}
	rest := s[len(label):]
	if rest != "" && rest[0] != ' ' && rest[0] != ':' {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
	return rest, true
}

func normalizeLabel(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimSuffix(s, ":")
	return strings.TrimSpace(strings.ReplaceAll(s, " :", ":"))
}

// hasLabel reports whether any cell of line starts with label.
func hasLabel(line textlayer.Line, label string) bool {
	label = normalizeLabel(label)
	for _, c := range line.Cells {
		if _, ok := cutLabel(normalizeLabel(c.Text), label); ok {
			return true
		}
	}
	return false
}

// containsText reports whether the joined line text contains s, ignoring case.
func containsText(line textlayer.Line, s string) bool {
	return strings.Contains(strings.ToLower(line.Text()), strings.ToLower(s))
}
