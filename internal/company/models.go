package company

import (
	"time"

	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
)

// Status of a registered company.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

const maxNameLength = 128

// Company is a tenant of the gateway.
//
// Invariants:
//   - ID is a valid slug and Name is non-empty, at most 128 characters
//   - ComplianceProfile is equal to or stricter than the deployment profile
//   - every retention override is positive
//   - Status transitions: active -> inactive only
type Company struct {
	ID                 domain.CompanyID         `json:"id"`
	Name               string                   `json:"name"`
	ComplianceProfile  domain.ComplianceProfile `json:"compliance_profile"`
	RetentionOverrides map[string]time.Duration `json:"retention_overrides,omitempty"`
	Status             Status                   `json:"status"`
	CreatedAt          time.Time                `json:"created_at"`
}

func (c *Company) IsActive() bool { return c.Status == StatusActive }

// Retention returns the override for category, if any.
func (c *Company) Retention(category string) (time.Duration, bool) {
	d, ok := c.RetentionOverrides[category]
	return d, ok
}

// Validate checks the company against the deployment compliance profile.
func (c *Company) Validate(deployment domain.ComplianceProfile) error {
	if _, err := domain.ParseCompanyID(c.ID.String()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidConfiguration, "invalid company id")
	}
	if c.Name == "" || len(c.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeInvalidConfiguration, "company name must be 1-128 characters")
	}
	if !c.ComplianceProfile.IsValid() {
		return dErrors.New(dErrors.CodeInvalidConfiguration, "unknown compliance profile: "+c.ComplianceProfile.String())
	}
	if !c.ComplianceProfile.Covers(deployment) {
		return dErrors.New(dErrors.CodeInvalidConfiguration,
			"compliance profile "+c.ComplianceProfile.String()+" is weaker than deployment profile "+deployment.String())
	}
	for category, d := range c.RetentionOverrides {
		if d <= 0 {
			return dErrors.New(dErrors.CodeInvalidConfiguration, "retention override for "+category+" must be positive")
		}
	}
	return nil
}
