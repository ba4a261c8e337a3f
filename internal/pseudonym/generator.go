// Package pseudonym maps real identities to stable, company-scoped
// anonymous ids. The mapping is one-way; there is no reverse lookup.
package pseudonym

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
)

// DefaultSaltConstant is the deployment-wide pepper mixed into every company
// salt. Changing it re-keys every pseudonym.
const DefaultSaltConstant = "veil/pseudonym/v1"

// idLength is 16 bytes rendered as hex.
const idLength = 32

type Generator struct {
	saltConstant []byte
}

func NewGenerator(saltConstant string) *Generator {
	if saltConstant == "" {
		saltConstant = DefaultSaltConstant
	}
	return &Generator{saltConstant: []byte(saltConstant)}
}

// Generate returns hex(SHA256(realID || companySalt))[:32] where
// companySalt = HMAC-SHA256(saltConstant, companyID).
func (g *Generator) Generate(realID string, companyID domain.CompanyID) (domain.AnonymousID, error) {
	if strings.TrimSpace(realID) == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "real id is required")
	}
	if companyID.IsNil() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "company id is required")
	}

	h := sha256.New()
	h.Write([]byte(realID))
	h.Write(g.companySalt(companyID))
	return domain.AnonymousID(hex.EncodeToString(h.Sum(nil))[:idLength]), nil
}

func (g *Generator) companySalt(companyID domain.CompanyID) []byte {
	mac := hmac.New(sha256.New, g.saltConstant)
	mac.Write([]byte(companyID))
	return mac.Sum(nil)
}
