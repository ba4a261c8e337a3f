package domain

import dErrors "veil/pkg/domain-errors"

// ComplianceProfile selects which regulatory regimes audit entries are tagged for.
type ComplianceProfile string

const (
	ProfileBasic      ComplianceProfile = "basic"
	ProfileGDPR       ComplianceProfile = "gdpr"
	ProfileHIPAA      ComplianceProfile = "hipaa"
	ProfileEnterprise ComplianceProfile = "enterprise"
)

// profileStrictness orders profiles for override checks. gdpr and hipaa are
// distinct regimes of equal weight; enterprise covers both.
var profileStrictness = map[ComplianceProfile]int{
	ProfileBasic:      1,
	ProfileGDPR:       2,
	ProfileHIPAA:      2,
	ProfileEnterprise: 3,
}

// ParseComplianceProfile constructs a profile from configuration input.
func ParseComplianceProfile(s string) (ComplianceProfile, error) {
	p := ComplianceProfile(s)
	if !p.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidConfiguration, "unknown compliance profile: "+s)
	}
	return p, nil
}

func (p ComplianceProfile) IsValid() bool { return profileStrictness[p] > 0 }

// Covers reports whether p is at least as strict as base. A company may
// tighten the deployment profile but never loosen it.
func (p ComplianceProfile) Covers(base ComplianceProfile) bool {
	if p == base || p == ProfileEnterprise || base == ProfileBasic {
		return p.IsValid()
	}
	return false
}

// Includes reports whether audit entries under p carry the rules of regime.
func (p ComplianceProfile) Includes(regime ComplianceProfile) bool {
	switch regime {
	case ProfileBasic:
		return p.IsValid()
	case ProfileGDPR, ProfileHIPAA:
		return p == regime || p == ProfileEnterprise
	case ProfileEnterprise:
		return p == ProfileEnterprise
	}
	return false
}

func (p ComplianceProfile) String() string { return string(p) }
