package validator

import (
	"invoicevault/internal/domain"
)

type ruleScope int

const (
	scopeOrder ruleScope = iota
	scopeFee
	scopeSummary
	scopeStubs
)

// rule is one named invariant. The check function matching scope is set;
// stub-scoped rules are evaluated by the Validator itself.
type rule struct {
	key     string
	scope   ruleScope
	order   func(*checker, *domain.OrderRecord)
	fee     func(*checker, *domain.FeeRecord)
	summary func(*checker, *domain.Summary)
}

// Registry holds the rules in registration order, which is also report
// order.
type Registry struct {
	rules    []rule
	index    map[string]int
	disabled map[string]bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int), disabled: make(map[string]bool)}
}

// Register adds a rule, replacing any rule with the same key.
func (r *Registry) Register(ru rule) {
	if i, ok := r.index[ru.key]; ok {
		r.rules[i] = ru
		return
	}
	r.index[ru.key] = len(r.rules)
	r.rules = append(r.rules, ru)
}

// Disable skips a rule by key. Unknown keys are ignored.
func (r *Registry) Disable(key string) {
	r.disabled[key] = true
}

// Keys returns every registered rule key in order.
func (r *Registry) Keys() []string {
	out := make([]string, 0, len(r.rules))
	for _, ru := range r.rules {
		out = append(out, ru.key)
	}
	return out
}

func (r *Registry) enabled(key string) bool {
	_, ok := r.index[key]
	return ok && !r.disabled[key]
}

func (r *Registry) scope(s ruleScope) []rule {
	var out []rule
	for _, ru := range r.rules {
		if ru.scope == s && !r.disabled[ru.key] {
			out = append(out, ru)
		}
	}
	return out
}
