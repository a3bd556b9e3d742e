package normalize_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicevault/internal/domain"
	"invoicevault/internal/normalize"
)

func newNormalizer() *normalize.Normalizer {
	return normalize.New(normalize.DefaultConfig())
}

func TestParseAmount(t *testing.T) {
	n := newNormalizer()

	cases := []struct {
		name  string
		token string
		want  string
	}{
		{"plain", "78.13", "78.13"},
		{"rupee_symbol", "₹1,774.50", "1774.5"},
		{"rupee_symbol_spaced", "₹ 18,432.10", "18432.1"},
		{"indian_grouping", "1,23,456.78", "123456.78"},
		{"rs_prefix", "Rs. 12", "12"},
		{"inr_suffix", "450.00 INR", "450"},
		{"parenthesised_negative", "(83.04)", "-83.04"},
		{"symbol_inside_parentheses", "(₹83.04)", "-83.04"},
		{"symbol_outside_parentheses", "₹(83.04)", "-83.04"},
		{"indian_crore", "1,00,00,000", "10000000"},
		{"western_millions", "1,000,000.25", "1000000.25"},
		{"leading_minus", "-₹5.00", "-5"},
		{"symbol_then_minus", "₹-5.00", "-5"},
		{"unicode_minus", "−12.5", "-12.5"},
		{"nbsp_grouping", "1 234.00", "1234"},
		{"integer", "0", "0"},
		{"large", "₹9,999,999,999.99", "9999999999.99"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := n.ParseAmount(tc.token)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseAmount_Malformed(t *testing.T) {
	n := newNormalizer()

	for _, token := range []string{"", "   ", "₹", "View", "12.3.4", "1.", "12abc", "((5))", "-(5)",
		"1,2.3", "12,34", "1,0000", ",123", "123,45,678", "1,234,56,789", "1.2,3"} {
		t.Run(token, func(t *testing.T) {
			_, err := n.ParseAmount(token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrMalformedAmount))

			var amtErr *domain.MalformedAmountError
			require.True(t, errors.As(err, &amtErr))
			assert.Equal(t, token, amtErr.Token)
		})
	}
}

func TestParseAmount_EuropeanSeparators(t *testing.T) {
	n := normalize.New(normalize.Config{
		CurrencySymbols:  []string{"€"},
		DecimalSeparator: ",",
	})

	got, err := n.ParseAmount("€1.234,56")
	require.NoError(t, err)
	assert.Equal(t, "1234.56", got.String())
	assert.Equal(t, ".", n.Config().GroupSeparator)
}

func TestParseRate(t *testing.T) {
	n := newNormalizer()

	got, err := n.ParseRate("2.5%")
	require.NoError(t, err)
	assert.Equal(t, "2.5", got.String())

	got, err = n.ParseRate(" 9 % ")
	require.NoError(t, err)
	assert.Equal(t, "9", got.String())

	_, err = n.ParseRate("%")
	assert.ErrorIs(t, err, domain.ErrMalformedAmount)
}

func TestParseQuantity(t *testing.T) {
	n := newNormalizer()

	q, err := n.ParseQuantity("2")
	require.NoError(t, err)
	assert.Equal(t, 2, q)

	q, err = n.ParseQuantity("1,000")
	require.NoError(t, err)
	assert.Equal(t, 1000, q)

	for _, token := range []string{"0", "-1", "1.5", "two"} {
		_, err := n.ParseQuantity(token)
		assert.ErrorIs(t, err, domain.ErrMalformedAmount, token)
	}
}

func TestParseDate(t *testing.T) {
	n := newNormalizer()

	for _, token := range []string{"09-02-2026", "09/02/2026", "2026-02-09", "09 Feb 2026", "09-Feb-2026", " 09  Feb 2026 "} {
		t.Run(token, func(t *testing.T) {
			got, err := n.ParseDate(token)
			require.NoError(t, err)
			assert.Equal(t, "2026-02-09", got.Format("2006-01-02"))
		})
	}

	_, err := n.ParseDate("2026/02/09")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedDate))
	assert.False(t, n.IsDate("31-02-2026"))
	assert.True(t, n.IsDate("28-02-2026"))
}

func TestParseDate_CustomLayouts(t *testing.T) {
	n := normalize.New(normalize.Config{DateLayouts: []string{"01/02/2006"}})

	got, err := n.ParseDate("02/09/2026")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-09", got.Format("2006-01-02"))

	_, err = n.ParseDate("09-02-2026")
	assert.ErrorIs(t, err, domain.ErrMalformedDate)
}

func TestParseDateRange(t *testing.T) {
	n := newNormalizer()

	r, err := n.ParseDateRange("09-08-2025 to 09-02-2026")
	require.NoError(t, err)
	assert.Equal(t, "2025-08-09", r.From.Format("2006-01-02"))
	assert.Equal(t, "2026-02-09", r.To.Format("2006-01-02"))

	_, err = n.ParseDateRange("09-08-2025")
	assert.ErrorIs(t, err, domain.ErrMalformedDate)

	_, err = n.ParseDateRange("09-08-2025 TO yesterday")
	assert.ErrorIs(t, err, domain.ErrMalformedDate)
}

func TestFormatAmount(t *testing.T) {
	n := newNormalizer()

	assert.Equal(t, "₹18,432.10", n.FormatAmount(decimal.RequireFromString("18432.1")))
	assert.Equal(t, "₹0.00", n.FormatAmount(decimal.Zero))
	assert.Equal(t, "₹999.00", n.FormatAmount(decimal.NewFromInt(999)))
	assert.Equal(t, "-₹1,000.50", n.FormatAmount(decimal.RequireFromString("-1000.5")))
	assert.Equal(t, "₹0.00", n.FormatAmount(decimal.RequireFromString("-0.001")))
}

func TestFormatAmount_RoundTrip(t *testing.T) {
	n := newNormalizer()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		cents := rng.Int63n(2_000_000_000_000) - 1_000_000_000_000
		want := decimal.New(cents, -2)

		formatted := n.FormatAmount(want)
		got, err := n.ParseAmount(formatted)
		require.NoError(t, err, formatted)
		require.True(t, want.Equal(got), "%s -> %s -> %s", want, formatted, got)
	}
}
