// Package identity resolves external user ids through the company identity
// provider. Every failure mode surfaces as an authentication failure.
package identity

import (
	"context"
	"maps"

	"veil/pkg/domain"
)

// Identity is what the provider knows about a user.
type Identity struct {
	UserID     string            `json:"user_id"`
	CompanyID  domain.CompanyID  `json:"company_id"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Provider is the identity-provider port.
type Provider interface {
	Resolve(ctx context.Context, externalUserID string, companyID domain.CompanyID) (Identity, error)
}

// identifyingKeys are attribute names that can single out a person.
var identifyingKeys = map[string]struct{}{
	"user_id": {}, "sub": {}, "email": {}, "name": {}, "given_name": {},
	"family_name": {}, "phone": {}, "phone_number": {}, "address": {},
	"birthdate": {}, "national_id": {}, "ssn": {}, "username": {},
}

// SafeAttributes returns a copy of the attributes without identifying keys.
func (i Identity) SafeAttributes() map[string]string {
	out := maps.Clone(i.Attributes)
	for k := range out {
		if _, ok := identifyingKeys[k]; ok {
			delete(out, k)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
