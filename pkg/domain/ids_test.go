package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "veil/pkg/domain-errors"
)

// TestParseUUID_Invariants covers the trust-boundary rule that typed IDs are
// valid, non-empty, non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseSessionID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseSessionID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseRecordID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseSessionID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, SessionID(valid), id)
		assert.False(t, id.IsNil())
	})
}

func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"sql injection", "'; DROP TABLE sessions;--"},
		{"path traversal", "../../etc/passwd"},
		{"null byte suffix", "550e8400-e29b-41d4-a716-446655440000\x00x"},
		{"oversized input", strings.Repeat("a", 10000)},
		{"whitespace only", "   "},
		{"invalid utf8", string([]byte{0xff, 0xfe})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errSession := ParseSessionID(tt.input)
			_, errRecord := ParseRecordID(tt.input)
			_, errCompany := ParseCompanyID(tt.input)
			assert.True(t, dErrors.HasCode(errSession, dErrors.CodeInvalidInput))
			assert.True(t, dErrors.HasCode(errRecord, dErrors.CodeInvalidInput))
			assert.True(t, dErrors.HasCode(errCompany, dErrors.CodeInvalidInput))
		})
	}
}

func TestParseCompanyID(t *testing.T) {
	id, err := ParseCompanyID("acme-health_01")
	require.NoError(t, err)
	assert.Equal(t, CompanyID("acme-health_01"), id)

	_, err = ParseCompanyID("Acme")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "uppercase is rejected")

	_, err = ParseCompanyID(strings.Repeat("a", maxCompanyIDLength+1))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestTextMarshalling(t *testing.T) {
	id := NewRecordID()
	b, err := id.MarshalText()
	require.NoError(t, err)

	var decoded RecordID
	require.NoError(t, decoded.UnmarshalText(b))
	assert.Equal(t, id, decoded)
}

func TestAccessLevel(t *testing.T) {
	t.Run("ordering", func(t *testing.T) {
		assert.True(t, AccessIdentified.AtLeast(AccessPseudoAnonymous))
		assert.True(t, AccessPseudoAnonymous.AtLeast(AccessAnonymous))
		assert.False(t, AccessAnonymous.AtLeast(AccessPseudoAnonymous))
		assert.False(t, AccessLevel("root").AtLeast(AccessAnonymous))
	})

	t.Run("identity retention", func(t *testing.T) {
		assert.False(t, AccessAnonymous.RetainsIdentity())
		assert.True(t, AccessPseudoAnonymous.RetainsIdentity())
		assert.True(t, AccessIdentified.RetainsIdentity())
	})

	t.Run("parse", func(t *testing.T) {
		l, err := ParseAccessLevel("pseudo-anonymous")
		require.NoError(t, err)
		assert.Equal(t, AccessPseudoAnonymous, l)

		_, err = ParseAccessLevel("admin")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestComplianceProfile(t *testing.T) {
	_, err := ParseComplianceProfile("sox")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidConfiguration))

	assert.True(t, ProfileEnterprise.Covers(ProfileGDPR))
	assert.True(t, ProfileHIPAA.Covers(ProfileBasic))
	assert.False(t, ProfileBasic.Covers(ProfileGDPR))
	assert.False(t, ProfileGDPR.Covers(ProfileHIPAA))

	assert.True(t, ProfileEnterprise.Includes(ProfileHIPAA))
	assert.True(t, ProfileGDPR.Includes(ProfileBasic))
	assert.False(t, ProfileGDPR.Includes(ProfileHIPAA))
}
