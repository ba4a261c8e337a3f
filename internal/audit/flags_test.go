package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"veil/pkg/domain"
)

func TestComplianceFlags(t *testing.T) {
	tests := []struct {
		name     string
		action   Action
		dataType string
		profile  domain.ComplianceProfile
		want     []string
	}{
		{"basic anonymize", ActionAnonymize, "", domain.ProfileBasic, []string{FlagDataMinimization}},
		{"basic delete", ActionDelete, "", domain.ProfileBasic, []string{FlagDataDeletion}},
		{"basic access has no flags", ActionAccess, DataTypeHealth, domain.ProfileBasic, []string{}},
		{"gdpr export", ActionExport, "", domain.ProfileGDPR, []string{FlagRightToPortability}},
		{"gdpr access of identifiers", ActionAccess, DataTypePersonalIdentifiers, domain.ProfileGDPR,
			[]string{FlagGDPRPersonalData, FlagRightOfAccess}},
		{"gdpr delete", ActionDelete, "", domain.ProfileGDPR, []string{FlagDataDeletion, FlagRightToErasure}},
		{"gdpr anonymize", ActionAnonymize, "", domain.ProfileGDPR, []string{FlagDataMinimization, FlagGDPRPseudonymise}},
		{"gdpr ignores health", ActionCreate, DataTypeHealth, domain.ProfileGDPR, []string{}},
		{"hipaa health access", ActionAccess, DataTypeHealth, domain.ProfileHIPAA, []string{FlagPHIAccess}},
		{"hipaa health export", ActionExport, DataTypeHealth, domain.ProfileHIPAA, []string{FlagPHIAccess, FlagPHIDisclosure}},
		{"hipaa delete", ActionDelete, "", domain.ProfileHIPAA, []string{FlagDataDeletion, FlagHIPAADisposal}},
		{"enterprise create", ActionCreate, "", domain.ProfileEnterprise, []string{FlagSOC2AuditTrail}},
		{"enterprise delete of health", ActionDelete, DataTypeHealth, domain.ProfileEnterprise, []string{
			FlagDataDeletion, FlagHIPAADisposal, FlagPHIAccess, FlagRightToErasure, FlagSOC2AuditTrail,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComplianceFlags(tt.action, tt.dataType, tt.profile))
		})
	}
}

func TestComplianceFlagsForUnionsDataTypes(t *testing.T) {
	mixed := []string{DataTypePersonalIdentifiers, DataTypeHealth}
	assert.Equal(t, []string{FlagPHIAccess}, ComplianceFlagsFor(ActionAccess, mixed, domain.ProfileHIPAA))
	assert.Equal(t, []string{FlagGDPRPersonalData, FlagPHIAccess, FlagRightOfAccess, FlagSOC2AuditTrail},
		ComplianceFlagsFor(ActionAccess, mixed, domain.ProfileEnterprise))

	assert.Equal(t, []string{FlagDataDeletion}, ComplianceFlagsFor(ActionDelete, nil, domain.ProfileBasic))
}

func TestEntryDataTypes(t *testing.T) {
	e := Entry{DataType: DataTypePersonalIdentifiers, Metadata: map[string]string{
		MetaCategories: "health_data, personal_identifiers,",
	}}
	assert.Equal(t, []string{DataTypePersonalIdentifiers, DataTypeHealth}, e.DataTypes())
	assert.Equal(t, []string{""}, Entry{}.DataTypes())
}
