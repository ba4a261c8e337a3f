package audit

import (
	"slices"
	"sort"

	"veil/pkg/domain"
)

// Compliance flags attached to audit entries.
const (
	FlagDataMinimization   = "DATA_MINIMIZATION"
	FlagDataDeletion       = "DATA_DELETION"
	FlagRightToPortability = "RIGHT_TO_PORTABILITY"
	FlagRightOfAccess      = "RIGHT_OF_ACCESS"
	FlagRightToErasure     = "RIGHT_TO_ERASURE"
	FlagGDPRPersonalData   = "GDPR_PERSONAL_DATA"
	FlagGDPRPseudonymise   = "GDPR_PSEUDONYMISATION"
	FlagPHIAccess          = "PHI_ACCESS"
	FlagPHIDisclosure      = "PHI_DISCLOSURE"
	FlagHIPAADisposal      = "HIPAA_DISPOSAL"
	FlagSOC2AuditTrail     = "SOC2_AUDIT_TRAIL"
)

type flagRule struct {
	regime domain.ComplianceProfile
	match  func(action Action, dataType string) bool
	flag   string
}

func onAction(want Action) func(Action, string) bool {
	return func(a Action, _ string) bool { return a == want }
}

func onDataType(want string) func(Action, string) bool {
	return func(_ Action, dt string) bool { return dt == want }
}

var flagRules = []flagRule{
	{domain.ProfileBasic, onAction(ActionAnonymize), FlagDataMinimization},
	{domain.ProfileBasic, onAction(ActionDelete), FlagDataDeletion},

	{domain.ProfileGDPR, onAction(ActionExport), FlagRightToPortability},
	{domain.ProfileGDPR, onAction(ActionAccess), FlagRightOfAccess},
	{domain.ProfileGDPR, onAction(ActionDelete), FlagRightToErasure},
	{domain.ProfileGDPR, onDataType(DataTypePersonalIdentifiers), FlagGDPRPersonalData},
	{domain.ProfileGDPR, onAction(ActionAnonymize), FlagGDPRPseudonymise},

	{domain.ProfileHIPAA, onDataType(DataTypeHealth), FlagPHIAccess},
	{domain.ProfileHIPAA, func(a Action, dt string) bool {
		return a == ActionExport && dt == DataTypeHealth
	}, FlagPHIDisclosure},
	{domain.ProfileHIPAA, onAction(ActionDelete), FlagHIPAADisposal},

	{domain.ProfileEnterprise, func(Action, string) bool { return true }, FlagSOC2AuditTrail},
}

// ComplianceFlags derives the sorted flag set for an entry under profile.
func ComplianceFlags(action Action, dataType string, profile domain.ComplianceProfile) []string {
	return ComplianceFlagsFor(action, []string{dataType}, profile)
}

// ComplianceFlagsFor is the union of flags over every data type an entry
// touches.
func ComplianceFlagsFor(action Action, dataTypes []string, profile domain.ComplianceProfile) []string {
	if len(dataTypes) == 0 {
		dataTypes = []string{""}
	}
	flags := make([]string, 0, 4)
	for _, r := range flagRules {
		if !profile.Includes(r.regime) || slices.Contains(flags, r.flag) {
			continue
		}
		for _, dt := range dataTypes {
			if r.match(action, dt) {
				flags = append(flags, r.flag)
				break
			}
		}
	}
	sort.Strings(flags)
	return flags
}
