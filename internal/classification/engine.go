// Package classification resolves field-level anonymization rules from a
// record's classification and applies them.
package classification

import (
	"maps"

	dErrors "veil/pkg/domain-errors"
)

// Engine applies rules from a Policy. It holds no per-call state and is
// safe for concurrent use.
type Engine struct {
	policy *Policy
}

func NewEngine(policy *Policy) *Engine {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Engine{policy: policy}
}

func (e *Engine) Policy() *Policy { return e.policy }

// ResolveRules is Policy.ResolveRules on the engine's policy.
func (e *Engine) ResolveRules(c DataClassification) []Rule {
	return e.policy.ResolveRules(c)
}

// ApplyRules resolves and applies the rules for c. When c does not require
// anonymization it returns an unchanged copy.
func (e *Engine) ApplyRules(record map[string]any, c DataClassification) (map[string]any, error) {
	if !c.AnonymizationRequired {
		return maps.Clone(record), nil
	}
	return e.Apply(record, e.ResolveRules(c))
}

// Apply runs rules in order over a copy of record. Fields without a rule
// pass through. Any unsupported method aborts the whole call with a nil
// record so partial output can never escape. A value a method cannot
// interpret is redacted.
func (e *Engine) Apply(record map[string]any, rules []Rule) (map[string]any, error) {
	for _, r := range rules {
		if _, ok := transforms[r.Method]; !ok {
			return nil, unsupported(r.Method)
		}
	}

	out := maps.Clone(record)
	if out == nil {
		out = map[string]any{}
	}
	for _, r := range rules {
		value, present := out[r.Field]
		if !present || value == nil {
			continue
		}
		transformed, ok := transforms[r.Method](value, r.Parameters)
		if !ok {
			transformed = Redacted
		}
		out[r.Field] = transformed
	}
	return out, nil
}

// IsUnsupportedMethod reports whether err came from an unknown rule method.
func IsUnsupportedMethod(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeUnsupportedRuleMethod)
}
