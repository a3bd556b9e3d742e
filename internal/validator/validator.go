// Package validator cross-checks extracted records against their structural
// and arithmetic invariants. Every rule runs; violations are collected rather
// than returned on the first failure.
package validator

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"invoicevault/internal/domain"
)

// Config holds the caller-supplied validation settings.
type Config struct {
	// Tolerance is the largest absolute difference accepted between a printed
	// amount and the amount computed from its parts. Zero means exact.
	Tolerance decimal.Decimal
	// StrictSummary turns summary header mismatches into errors; otherwise
	// they are reported as warnings.
	StrictSummary bool
	// Disabled lists rule keys that are skipped.
	Disabled []string
}

// DefaultConfig returns a one-paisa tolerance with strict summary checks.
func DefaultConfig() Config {
	return Config{Tolerance: decimal.New(1, -2), StrictSummary: true}
}

// ValidationError is one violated invariant.
type ValidationError struct {
	Rule      string          `json:"rule"`
	Field     string          `json:"field"`
	Expected  string          `json:"expected"`
	Actual    string          `json:"actual"`
	Tolerance decimal.Decimal `json:"tolerance"`
	Message   string          `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationErrors is every violation found for one record.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Message
	}
	return fmt.Sprintf("%d validation error(s): %s", len(v), strings.Join(msgs, "; "))
}

func (v ValidationErrors) Is(target error) bool { return target == domain.ErrValidation }

// Rules returns the keys of the violated rules, in report order.
func (v ValidationErrors) Rules() []string {
	out := make([]string, len(v))
	for i, e := range v {
		out[i] = e.Rule
	}
	return out
}

// Validator runs the registered rules. It holds no per-call state.
type Validator struct {
	cfg      Config
	registry *Registry
}

// New creates a Validator with every built-in rule registered. A zero
// tolerance demands exact reconciliation.
func New(cfg Config) *Validator {
	reg := NewRegistry()
	for _, r := range builtinRules() {
		reg.Register(r)
	}
	for _, key := range cfg.Disabled {
		reg.Disable(key)
	}
	return &Validator{cfg: cfg, registry: reg}
}

// Config returns the settings the Validator was built with.
func (v *Validator) Config() Config {
	return v.cfg
}

// Validate checks an order record. An empty result means the record is valid.
func (v *Validator) Validate(rec *domain.OrderRecord) []ValidationError {
	c := v.checker()
	for _, r := range v.registry.scope(scopeOrder) {
		c.rule = r.key
		r.order(c, rec)
	}
	return c.errs
}

// ValidateFee checks a handling-fee record of an order.
func (v *Validator) ValidateFee(fee *domain.FeeRecord) []ValidationError {
	c := v.checker()
	for _, r := range v.registry.scope(scopeFee) {
		c.rule = r.key
		r.fee(c, fee)
	}
	return c.errs
}

// ValidateAgainstStubs reports a record whose order id appeared in no
// summary row.
func (v *Validator) ValidateAgainstStubs(rec *domain.OrderRecord, stubs map[int64]domain.OrderStub) []ValidationError {
	if !v.registry.enabled(ruleOrderKnown) {
		return nil
	}
	if _, ok := stubs[rec.OrderID]; ok {
		return nil
	}
	c := v.checker()
	c.rule = ruleOrderKnown
	c.fail("order_id", "an order listed in the summary", fmt.Sprint(rec.OrderID),
		"order %d does not appear in any summary document", rec.OrderID)
	return c.errs
}

// Check runs every applicable rule for one order and returns nil or a
// ValidationErrors. stubs may be nil to skip the orphan check.
func (v *Validator) Check(rec *domain.OrderRecord, fee *domain.FeeRecord, stubs map[int64]domain.OrderStub) error {
	errs := v.Validate(rec)
	if fee != nil {
		errs = append(errs, v.ValidateFee(fee)...)
	}
	if stubs != nil {
		errs = append(errs, v.ValidateAgainstStubs(rec, stubs)...)
	}
	if len(errs) == 0 {
		return nil
	}
	return ValidationErrors(errs)
}

func (v *Validator) checker() *checker {
	return &checker{tol: v.cfg.Tolerance}
}

// checker accumulates violations for the rule currently running.
type checker struct {
	tol  decimal.Decimal
	rule string
	errs []ValidationError
}

func (c *checker) fail(field, expected, actual, format string, args ...any) {
	c.errs = append(c.errs, ValidationError{
		Rule:      c.rule,
		Field:     field,
		Expected:  expected,
		Actual:    actual,
		Tolerance: c.tol,
		Message:   fmt.Sprintf("%s: %s", c.rule, fmt.Sprintf(format, args...)),
	})
}

// amount compares a printed amount with the one computed from its parts.
func (c *checker) amount(field string, expected, actual decimal.Decimal) {
	if expected.Sub(actual).Abs().LessThanOrEqual(c.tol) {
		return
	}
	c.fail(field, expected.StringFixed(2), actual.StringFixed(2),
		"%s mismatch (expected %s, got %s, tolerance %s)", field, expected.StringFixed(2), actual.StringFixed(2), c.tol.String())
}
