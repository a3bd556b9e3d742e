package extract

import (
	"regexp"
	"strings"

	"invoicevault/internal/domain"
	"invoicevault/internal/textlayer"
)

var hsnToken = regexp.MustCompile(`^\d{4,8}$`)

// taxLine recognizes "NAME… RATE% AMOUNT". ok is false when the line does
// not have that shape; err is set when it does but a number is malformed.
func (r *fieldReader) taxLine(line textlayer.Line) (domain.TaxLine, bool) {
	f := strings.Fields(line.Text())
	n := len(f)
	if n < 3 || !strings.HasSuffix(f[n-2], "%") || !startsWithLetter(f[0]) {
		return domain.TaxLine{}, false
	}
	name := strings.Join(f[:n-2], " ")
	return domain.TaxLine{
		Name:   name,
		Rate:   r.rate("taxes."+name+".rate", f[n-2]),
		Amount: r.amount("taxes."+name+".amount", f[n-1]),
	}, true
}

// taxBlock collects every tax line of a block in print order.
func (r *fieldReader) taxBlock(lines []textlayer.Line) []domain.TaxLine {
	var out []domain.TaxLine
	for _, l := range lines {
		if t, ok := r.taxLine(l); ok {
			out = append(out, t)
		}
	}
	return out
}

// hsnLine finds the first "NNNNNN description" line of a block.
func hsnLine(lines []textlayer.Line) (code, desc string) {
	for _, l := range lines {
		f := strings.Fields(l.Text())
		if len(f) >= 2 && hsnToken.MatchString(f[0]) {
			return f[0], strings.Join(f[1:], " ")
		}
	}
	return "", ""
}

func startsWithLetter(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
