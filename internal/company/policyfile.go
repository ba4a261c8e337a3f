package company

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"veil/internal/classification"
	"veil/internal/platform/config"
	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
)

// PolicyFile is the operator-maintained YAML document that seeds companies
// and extra classification categories at startup.
//
//	categories:
//	  - name: payroll
//	    priority: 75
//	    rules:
//	      - {field: salary, method: aggregate, parameters: {bucket: "1000"}}
//	companies:
//	  - id: acme
//	    name: Acme Health
//	    compliance_profile: hipaa
//	    retention_overrides:
//	      health_data: 180d
type PolicyFile struct {
	Categories []classification.Category `yaml:"categories"`
	Companies  []CompanySpec             `yaml:"companies"`
}

// CompanySpec is the YAML shape of a company entry.
type CompanySpec struct {
	ID                 string            `yaml:"id"`
	Name               string            `yaml:"name"`
	ComplianceProfile  string            `yaml:"compliance_profile"`
	RetentionOverrides map[string]string `yaml:"retention_overrides"`
	Inactive           bool              `yaml:"inactive"`
}

// LoadPolicyFile reads and parses the policy file at path.
func LoadPolicyFile(path string) (*PolicyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidConfiguration, "read policy file")
	}
	return ParsePolicyFile(data)
}

// ParsePolicyFile decodes YAML, rejecting unknown keys.
func ParsePolicyFile(data []byte) (*PolicyFile, error) {
	var pf PolicyFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidConfiguration, "parse policy file")
	}
	return &pf, nil
}

// Company converts the YAML entry into a Company. Retention override keys
// must name a category known to policy.
func (s CompanySpec) Company(policy *classification.Policy) (Company, error) {
	id, err := domain.ParseCompanyID(s.ID)
	if err != nil {
		return Company{}, dErrors.Wrap(err, dErrors.CodeInvalidConfiguration, "invalid company id "+s.ID)
	}
	c := Company{
		ID:                id,
		Name:              s.Name,
		ComplianceProfile: domain.ComplianceProfile(s.ComplianceProfile),
		Status:            StatusActive,
	}
	if s.Inactive {
		c.Status = StatusInactive
	}
	if len(s.RetentionOverrides) > 0 {
		c.RetentionOverrides = make(map[string]time.Duration, len(s.RetentionOverrides))
	}
	for category, raw := range s.RetentionOverrides {
		if category != classification.Uncategorized && !policy.Known(category) {
			return Company{}, dErrors.New(dErrors.CodeInvalidConfiguration,
				fmt.Sprintf("company %s: retention override for unknown category %q", s.ID, category))
		}
		d, err := config.ParseDuration(raw)
		if err != nil {
			return Company{}, dErrors.Wrap(err, dErrors.CodeInvalidConfiguration,
				fmt.Sprintf("company %s: retention override for %s", s.ID, category))
		}
		c.RetentionOverrides[category] = d
	}
	return c, nil
}

// Apply registers categories into policy and companies into reg. It stops at
// the first invalid entry so a bad file never half-loads silently.
func (f *PolicyFile) Apply(ctx context.Context, reg *Registry, policy *classification.Policy) error {
	for _, cat := range f.Categories {
		if err := policy.Register(cat); err != nil {
			return err
		}
	}
	for _, spec := range f.Companies {
		c, err := spec.Company(policy)
		if err != nil {
			return err
		}
		if _, err := reg.Register(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
