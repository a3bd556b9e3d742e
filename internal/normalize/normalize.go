// Package normalize turns locale-formatted amount, rate and date tokens into
// exact values. Every function is pure; a Normalizer only carries its
// configuration and is safe for concurrent use.
package normalize

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoicevault/internal/domain"
)

// Config selects the accepted token grammar.
type Config struct {
	DateLayouts      []string
	CurrencySymbols  []string
	DecimalSeparator string
	GroupSeparator   string
}

// DefaultConfig returns the grammar used by Indian tax invoices.
func DefaultConfig() Config {
	return Config{
		DateLayouts:      []string{"02-01-2006", "02/01/2006", "2006-01-02", "02 Jan 2006", "02-Jan-2006"},
		CurrencySymbols:  []string{"₹", "Rs.", "Rs", "INR"},
		DecimalSeparator: ".",
		GroupSeparator:   ",",
	}
}

// Normalizer parses tokens according to a Config.
type Normalizer struct {
	cfg     Config
	symbols []string
}

// New creates a Normalizer. Empty fields of cfg fall back to DefaultConfig.
func New(cfg Config) *Normalizer {
	def := DefaultConfig()
	if len(cfg.DateLayouts) == 0 {
		cfg.DateLayouts = def.DateLayouts
	}
	if len(cfg.CurrencySymbols) == 0 {
		cfg.CurrencySymbols = def.CurrencySymbols
	}
	if cfg.DecimalSeparator == "" {
		cfg.DecimalSeparator = def.DecimalSeparator
	}
	if cfg.GroupSeparator == "" || cfg.GroupSeparator == cfg.DecimalSeparator {
		cfg.GroupSeparator = def.GroupSeparator
		if cfg.DecimalSeparator == def.GroupSeparator {
			cfg.GroupSeparator = "."
		}
	}

	// Longest first so "Rs." is stripped before "Rs".
	symbols := append([]string(nil), cfg.CurrencySymbols...)
	sort.SliceStable(symbols, func(i, j int) bool { return len(symbols[i]) > len(symbols[j]) })

	return &Normalizer{cfg: cfg, symbols: symbols}
}

// Config returns the effective configuration.
func (n *Normalizer) Config() Config {
	return n.cfg
}

// ParseAmount converts tokens such as "₹1,774.50", "Rs. 12", "(83.04)" or
// "-₹5.00" into a decimal. Parenthesised and minus-signed amounts are negative.
// Group separators must sit at Indian (1,23,456) or Western (123,456)
// positions.
func (n *Normalizer) ParseAmount(token string) (decimal.Decimal, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return decimal.Zero, &domain.MalformedAmountError{Token: token}
	}

	negative := false
	s = n.stripSymbols(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = n.stripSymbols(strings.TrimSpace(s[1 : len(s)-1]))
	}

	if rest, ok := trimSign(s); ok {
		if negative {
			return decimal.Zero, &domain.MalformedAmountError{Token: token}
		}
		negative = true
		s = n.stripSymbols(rest)
	}

	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\u2009':
			return -1
		}
		return r
	}, s)
	intPart, frac, hasFrac := strings.Cut(s, n.cfg.DecimalSeparator)
	if strings.Contains(frac, n.cfg.GroupSeparator) || !validGrouping(intPart, n.cfg.GroupSeparator) {
		return decimal.Zero, &domain.MalformedAmountError{Token: token}
	}
	s = strings.ReplaceAll(intPart, n.cfg.GroupSeparator, "")
	if hasFrac {
		s += "." + frac
	}

	if !isPlainDecimal(s) {
		return decimal.Zero, &domain.MalformedAmountError{Token: token}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &domain.MalformedAmountError{Token: token}
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ParseRate parses a percentage token such as "2.5%" or "9".
func (n *Normalizer) ParseRate(token string) (decimal.Decimal, error) {
	s := strings.TrimSpace(token)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return decimal.Zero, &domain.MalformedAmountError{Token: token}
	}
	return n.ParseAmount(s)
}

// ParseQuantity parses a positive whole-number token.
func (n *Normalizer) ParseQuantity(token string) (int, error) {
	s := strings.ReplaceAll(strings.TrimSpace(token), n.cfg.GroupSeparator, "")
	q, err := strconv.Atoi(s)
	if err != nil || q <= 0 {
		return 0, &domain.MalformedAmountError{Token: token}
	}
	return q, nil
}

// ParseDate parses a date token against the configured layouts in order.
func (n *Normalizer) ParseDate(token string) (time.Time, error) {
	s := strings.Join(strings.Fields(token), " ")
	if s != "" {
		for _, layout := range n.cfg.DateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, &domain.MalformedDateError{Token: token, Layouts: n.cfg.DateLayouts}
}

// IsDate reports whether token parses as a date.
func (n *Normalizer) IsDate(token string) bool {
	_, err := n.ParseDate(token)
	return err == nil
}

// ParseDateRange parses "DD-MM-YYYY to DD-MM-YYYY".
func (n *Normalizer) ParseDateRange(token string) (domain.DateRange, error) {
	lower := strings.ToLower(token)
	idx := strings.Index(lower, " to ")
	if idx < 0 {
		return domain.DateRange{}, &domain.MalformedDateError{Token: token, Layouts: n.cfg.DateLayouts}
	}
	from, err := n.ParseDate(token[:idx])
	if err != nil {
		return domain.DateRange{}, err
	}
	to, err := n.ParseDate(token[idx+len(" to "):])
	if err != nil {
		return domain.DateRange{}, err
	}
	return domain.DateRange{From: from, To: to}, nil
}

// FormatAmount renders d with the primary currency symbol, grouped thousands
// and two fractional digits. ParseAmount(FormatAmount(d)) == d.Round(2).
func (n *Normalizer) FormatAmount(d decimal.Decimal) string {
	symbol := ""
	if len(n.cfg.CurrencySymbols) > 0 {
		symbol = n.cfg.CurrencySymbols[0]
	}

	fixed := d.Abs().StringFixed(2)
	intPart, frac := fixed[:len(fixed)-3], fixed[len(fixed)-2:]

	var b strings.Builder
	if d.Round(2).IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString(symbol)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(n.cfg.GroupSeparator)
		}
		b.WriteRune(r)
	}
	b.WriteString(n.cfg.DecimalSeparator)
	b.WriteString(frac)
	return b.String()
}

func (n *Normalizer) stripSymbols(s string) string {
	for changed := true; changed; {
		changed = false
		for _, sym := range n.symbols {
			if len(s) >= len(sym) && strings.EqualFold(s[:len(sym)], sym) {
				s = strings.TrimSpace(s[len(sym):])
				changed = true
			}
			if len(s) >= len(sym) && strings.EqualFold(s[len(s)-len(sym):], sym) {
				s = strings.TrimSpace(s[:len(s)-len(sym)])
				changed = true
			}
		}
	}
	return s
}

func trimSign(s string) (string, bool) {
	for _, sign := range []string{"-", "\u2212"} {
		if strings.HasPrefix(s, sign) {
			return strings.TrimSpace(s[len(sign):]), true
		}
		if strings.HasSuffix(s, sign) {
			return strings.TrimSpace(s[:len(s)-len(sign)]), true
		}
	}
	return s, false
}

// validGrouping reports whether the separators in an integer part follow
// either lakh grouping (last group 3, earlier groups 2) or thousands grouping
// (all groups 3). An integer part without separators is always valid.
func validGrouping(intPart, sep string) bool {
	groups := strings.Split(intPart, sep)
	if len(groups) == 1 {
		return true
	}
	first, last, middle := groups[0], groups[len(groups)-1], groups[1:len(groups)-1]
	if len(first) == 0 || len(first) > 3 || len(last) != 3 {
		return false
	}
	if len(middle) == 0 {
		return true
	}
	width := len(middle[0])
	if width != 2 && width != 3 {
		return false
	}
	for _, g := range middle {
		if len(g) != width {
			return false
		}
	}
	return width == 3 || len(first) <= 2
}

func isPlainDecimal(s string) bool {
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1 && !strings.HasSuffix(s, ".")
}
