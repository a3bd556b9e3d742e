package validator

import (
	"fmt"
	"net/mail"

	"invoicevault/internal/domain"
)

// SummaryCheck is the outcome of cross-checking a summary header against its
// rows. Errors is empty when StrictSummary is off; the same findings are then
// in Warnings.
type SummaryCheck struct {
	Errors   []ValidationError `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

// Err returns the errors as a ValidationErrors, or nil.
func (s SummaryCheck) Err() error {
	if len(s.Errors) == 0 {
		return nil
	}
	return ValidationErrors(s.Errors)
}

// CheckSummary compares the declared order count and total with the
// extracted rows and flags an unusable customer email.
func (v *Validator) CheckSummary(sum *domain.Summary) SummaryCheck {
	c := v.checker()
	for _, r := range v.registry.scope(scopeSummary) {
		c.rule = r.key
		r.summary(c, sum)
	}

	var out SummaryCheck
	if v.cfg.StrictSummary {
		out.Errors = c.errs
	} else {
		for _, e := range c.errs {
			out.Warnings = append(out.Warnings, e.Message)
		}
	}
	if _, err := mail.ParseAddress(sum.Header.CustomerEmail); err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("customer email %q is not a valid address", sum.Header.CustomerEmail))
	}
	return out
}
