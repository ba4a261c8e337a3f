package classification

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	dErrors "veil/pkg/domain-errors"
)

const (
	PersonalIdentifiers = "personal_identifiers"
	HealthData          = "health_data"
	LocationData        = "location_data"
	FinancialData       = "financial_data"
	BehavioralData      = "behavioral_data"

	// Uncategorized is the audit data type and retention bucket for records
	// that carry no category.
	Uncategorized = "uncategorized"
)

// Category is one row of the category table.
type Category struct {
	Name     string `yaml:"name"`
	Priority int    `yaml:"priority"`
	Rules    []Rule `yaml:"rules"`
}

// Policy maps category names to prioritized rule sets. It is populated at
// startup and read concurrently afterwards.
type Policy struct {
	mu         sync.RWMutex
	categories map[string]Category
}

// NewPolicy returns an empty policy. Most callers want DefaultPolicy.
func NewPolicy() *Policy {
	return &Policy{categories: make(map[string]Category)}
}

// DefaultPolicy carries the built-in table.
func DefaultPolicy() *Policy {
	p := NewPolicy()
	for _, c := range builtinCategories() {
		if err := p.Register(c); err != nil {
			panic(fmt.Sprintf("classification: invalid builtin category %q: %v", c.Name, err))
		}
	}
	return p
}

func builtinCategories() []Category {
	return []Category{
		{Name: PersonalIdentifiers, Priority: 100, Rules: []Rule{
			{Field: "email", Method: MethodHash},
			{Field: "name", Method: MethodRedact},
			{Field: "phone", Method: MethodRedact},
			{Field: "ssn", Method: MethodRedact},
			{Field: "user_id", Method: MethodHash},
			{Field: "ip_address", Method: MethodTruncate, Parameters: map[string]string{"prefix": "24"}},
			{Field: "notes", Method: MethodNLPAnonymize},
		}},
		{Name: HealthData, Priority: 80, Rules: []Rule{
			{Field: "diagnosis", Method: MethodRedact},
			{Field: "medical_record_number", Method: MethodHash},
			{Field: "symptoms", Method: MethodNLPAnonymize},
			{Field: "heart_rate", Method: MethodAggregate, Parameters: map[string]string{"granularity": "weekly", "bucket": "10"}},
			{Field: "notes", Method: MethodNLPAnonymize},
			{Field: "name", Method: MethodHash},
		}},
		{Name: LocationData, Priority: 60, Rules: []Rule{
			{Field: "ip_address", Method: MethodTruncate, Parameters: map[string]string{"prefix": "16"}},
			{Field: "latitude", Method: MethodTruncate, Parameters: map[string]string{"decimals": "2"}},
			{Field: "longitude", Method: MethodTruncate, Parameters: map[string]string{"decimals": "2"}},
			{Field: "address", Method: MethodRedact},
			{Field: "postal_code", Method: MethodTruncate, Parameters: map[string]string{"keep": "3"}},
		}},
		{Name: FinancialData, Priority: 40, Rules: []Rule{
			{Field: "account_number", Method: MethodHash},
			{Field: "salary", Method: MethodAggregate, Parameters: map[string]string{"bucket": "10000"}},
			{Field: "iban", Method: MethodTruncate, Parameters: map[string]string{"keep": "4"}},
		}},
		{Name: BehavioralData, Priority: 20, Rules: []Rule{
			{Field: "timestamp", Method: MethodAggregate, Parameters: map[string]string{"granularity": "daily"}},
			{Field: "session_duration", Method: MethodAggregate, Parameters: map[string]string{"bucket": "60"}},
		}},
	}
}

// Register adds or replaces a category. Validation happens here, not on
// first use: an unknown method is InvalidConfiguration wrapping
// UnsupportedRuleMethod.
func (p *Policy) Register(c Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return dErrors.New(dErrors.CodeInvalidConfiguration, "category name is required")
	}
	if c.Priority <= 0 {
		return dErrors.New(dErrors.CodeInvalidConfiguration, "category priority must be positive: "+c.Name)
	}
	if len(c.Rules) == 0 {
		return dErrors.New(dErrors.CodeInvalidConfiguration, "category has no rules: "+c.Name)
	}
	seen := make(map[string]bool, len(c.Rules))
	rules := make([]Rule, 0, len(c.Rules))
	for _, r := range c.Rules {
		r.Field = strings.TrimSpace(r.Field)
		if r.Field == "" {
			return dErrors.New(dErrors.CodeInvalidConfiguration, "rule field is required in category "+c.Name)
		}
		if seen[r.Field] {
			return dErrors.New(dErrors.CodeInvalidConfiguration, fmt.Sprintf("field %q targeted twice in category %s", r.Field, c.Name))
		}
		if err := validateRule(r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInvalidConfiguration, "invalid rule in category "+c.Name)
		}
		seen[r.Field] = true
		r.Category = c.Name
		rules = append(rules, r)
	}
	c.Rules = rules

	p.mu.Lock()
	defer p.mu.Unlock()
	p.categories[c.Name] = c
	return nil
}

// Priority returns the category priority, or 0 when unknown.
func (p *Policy) Priority(name string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.categories[name].Priority
}

// Known reports whether the category has rules in this policy.
func (p *Policy) Known(name string) bool { return p.Priority(name) > 0 }

// Names lists registered categories, highest priority first.
func (p *Policy) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cats := make([]Category, 0, len(p.categories))
	for _, c := range p.categories {
		cats = append(cats, c)
	}
	slices.SortFunc(cats, byPriority)
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	return names
}

// ResolveRules emits one rule per targeted field. When two categories
// target the same field the higher-priority category wins. Output is
// ordered by category priority desc, then field name. Unknown categories
// contribute nothing.
func (p *Policy) ResolveRules(c DataClassification) []Rule {
	p.mu.RLock()
	cats := make([]Category, 0, len(c.Categories))
	for _, name := range c.CategorySet() {
		if cat, ok := p.categories[name]; ok {
			cats = append(cats, cat)
		}
	}
	p.mu.RUnlock()
	slices.SortFunc(cats, byPriority)

	taken := make(map[string]bool)
	var out []Rule
	for _, cat := range cats {
		own := slices.Clone(cat.Rules)
		slices.SortFunc(own, func(a, b Rule) int { return cmp.Compare(a.Field, b.Field) })
		for _, r := range own {
			if taken[r.Field] {
				continue
			}
			taken[r.Field] = true
			out = append(out, r)
		}
	}
	return out
}

// PrimaryCategory is the highest-priority known category of c, falling back
// to the first category name and then Uncategorized. Audit entries use it as
// their data type.
func (p *Policy) PrimaryCategory(c DataClassification) string {
	set := c.CategorySet()
	best, bestPriority := "", 0
	for _, name := range set {
		if pr := p.Priority(name); pr > bestPriority {
			best, bestPriority = name, pr
		}
	}
	if best != "" {
		return best
	}
	if len(set) > 0 {
		return set[0]
	}
	return Uncategorized
}

func byPriority(a, b Category) int {
	if a.Priority != b.Priority {
		return cmp.Compare(b.Priority, a.Priority)
	}
	return cmp.Compare(a.Name, b.Name)
}
