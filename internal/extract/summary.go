package extract

import (
	"fmt"
	"strconv"
	"strings"

	"invoicevault/internal/domain"
	"invoicevault/internal/textlayer"
)

// maxNameTokens bounds the counterparty name of a summary row; a row that
// runs longer has lost its amount.
const maxNameTokens = 12

// labelGroup is a run of header labels printed together, followed by their
// values in the same order.
type labelGroup []string

var (
	identityGroup = labelGroup{"Customer Name", "Number of Orders", "Total Amount"}
	periodGroup   = labelGroup{"Email", "Date Range"}
)

type token struct {
	text string
	line int
}

// ParseSummary decodes an order-list document into its header and order
// stubs in document order.
func (e *Extractor) ParseSummary(data []byte, category domain.Category) (*domain.Summary, error) {
	doc, err := textlayer.Decode(data)
	if err != nil {
		return nil, err
	}
	return e.ParseSummaryDocument(doc, category)
}

// ParseSummaryDocument is ParseSummary over an already decoded document.
func (e *Extractor) ParseSummaryDocument(doc *textlayer.Document, category domain.Category) (*domain.Summary, error) {
	if _, err := domain.ParseCategory(string(category)); err != nil {
		return nil, err
	}

	header, err := e.summaryHeader(tokens(doc.PageLines(1)))
	if err != nil {
		return nil, err
	}

	orders, warnings := e.summaryRows(doc)
	if len(orders) == 0 {
		return nil, &domain.SummaryParseError{Reason: "no order rows recognized"}
	}
	total := len(orders) + len(warnings)
	if skipped := float64(len(warnings)) / float64(total); skipped > e.cfg.MaxSkippedRowFraction {
		reasons := make([]string, 0, len(warnings))
		for _, w := range warnings {
			reasons = append(reasons, fmt.Sprintf("line %d: %s", w.Line, w.Reason))
		}
		return nil, &domain.SummaryParseError{
			Reason: fmt.Sprintf("%d of %d order rows malformed (%s)", len(warnings), total, strings.Join(reasons, "; ")),
		}
	}

	return &domain.Summary{
		Category: category,
		Header:   *header,
		Orders:   orders,
		Warnings: warnings,
	}, nil
}

func (e *Extractor) summaryHeader(toks []token) (*domain.AccountHeader, error) {
	identity, okIdentity := findGroup(toks, identityGroup)
	period, okPeriod := findGroup(toks, periodGroup)
	if !okIdentity || !okPeriod {
		var missing []string
		if !okIdentity {
			missing = append(missing, identityGroup...)
		}
		if !okPeriod {
			missing = append(missing, periodGroup...)
		}
		return nil, &domain.SummaryParseError{Reason: "header anchors not found", Missing: missing}
	}

	count, err := strconv.Atoi(strings.TrimSpace(identity[1]))
	if err != nil || count < 0 {
		return nil, &domain.SummaryParseError{Reason: fmt.Sprintf("number of orders %q is not a count", identity[1])}
	}
	total, err := e.norm.ParseAmount(identity[2])
	if err != nil {
		return nil, &domain.SummaryParseError{Reason: fmt.Sprintf("total amount: %v", err)}
	}
	dateRange, err := e.norm.ParseDateRange(period[1])
	if err != nil {
		return nil, &domain.SummaryParseError{Reason: fmt.Sprintf("date range: %v", err)}
	}

	return &domain.AccountHeader{
		CustomerName:       identity[0],
		CustomerEmail:      period[0],
		DeclaredOrderCount: count,
		DeclaredTotal:      total,
		DateRange:          dateRange,
	}, nil
}

// findGroup locates the labels as consecutive tokens and returns the tokens
// that immediately follow them.
func findGroup(toks []token, group labelGroup) ([]string, bool) {
	n := len(group)
	for i := 0; i+2*n <= len(toks); i++ {
		matched := true
		for k, label := range group {
			if !strings.EqualFold(normalizeLabel(toks[i+k].text), label) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		values := make([]string, n)
		for k := range group {
			values[k] = toks[i+n+k].text
		}
		return values, true
	}
	return nil, false
}

// summaryRows scans for "date, order id, name…, amount, [View]" runs and
// pairs each with the first unused hyperlink inside the row's lines.
func (e *Extractor) summaryRows(doc *textlayer.Document) ([]domain.OrderStub, []domain.RowWarning) {
	toks := tokens(doc.Lines)
	links := make(map[int][]string)
	for _, l := range doc.Lines {
		if len(l.Links) > 0 {
			links[l.Index] = append([]string(nil), l.Links...)
		}
	}

	var (
		orders   []domain.OrderStub
		warnings []domain.RowWarning
	)
	warn := func(line int, format string, args ...any) {
		warnings = append(warnings, domain.RowWarning{Line: line + 1, Reason: fmt.Sprintf(format, args...)})
	}

	for i := 0; i < len(toks); i++ {
		if !e.rowStart(toks, i) {
			continue
		}
		startLine := toks[i].line
		date, _ := e.norm.ParseDate(toks[i].text)
		id, _ := e.parseOrderID(toks[i+1].text)

		j := i + 2
		var name []string
		amountAt := -1
		for ; j < len(toks) && len(name) <= maxNameTokens; j++ {
			if e.rowStart(toks, j) {
				break
			}
			if e.isAmountToken(toks[j].text) {
				amountAt = j
				break
			}
			name = append(name, toks[j].text)
		}
		if amountAt < 0 {
			warn(startLine, "order %d: no amount", id)
			i = j - 1
			continue
		}

		amount, err := e.norm.ParseAmount(toks[amountAt].text)
		end := amountAt + 1
		if end < len(toks) && strings.EqualFold(toks[end].text, "view") {
			end++
		}
		i = end - 1
		if err != nil {
			warn(startLine, "order %d: %v", id, err)
			continue
		}

		lastLine := len(doc.Lines)
		if end < len(toks) {
			lastLine = toks[end].line
		}
		ref := takeLink(links, startLine, max(lastLine, toks[end-1].line+1))
		if ref == "" {
			warn(startLine, "order %d: no detail link", id)
			continue
		}

		orders = append(orders, domain.OrderStub{
			OrderID:      id,
			OrderDate:    date,
			Counterparty: strings.Join(name, " "),
			Amount:       amount,
			DetailRef:    ref,
		})
	}
	return orders, warnings
}

func (e *Extractor) rowStart(toks []token, i int) bool {
	if i+1 >= len(toks) || !e.norm.IsDate(toks[i].text) {
		return false
	}
	_, err := e.parseOrderID(toks[i+1].text)
	return err == nil
}

// isAmountToken requires a currency symbol so that names containing
// numbers are not mistaken for amounts.
func (e *Extractor) isAmountToken(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "-")
	for _, sym := range e.norm.Config().CurrencySymbols {
		if len(s) <= len(sym) || !strings.EqualFold(s[:len(sym)], sym) {
			continue
		}
		rest := strings.TrimSpace(s[len(sym):])
		if rest != "" && (rest[0] >= '0' && rest[0] <= '9' || rest[0] == '-' || rest[0] == '.') {
			return true
		}
	}
	return false
}

// takeLink removes and returns the first link on lines [from, to).
func takeLink(links map[int][]string, from, to int) string {
	for l := from; l < to; l++ {
		if ls := links[l]; len(ls) > 0 {
			links[l] = ls[1:]
			return ls[0]
		}
	}
	return ""
}

func tokens(lines []textlayer.Line) []token {
	var out []token
	for _, l := range lines {
		for _, c := range l.Cells {
			out = append(out, token{text: c.Text, line: l.Index})
		}
	}
	return out
}
