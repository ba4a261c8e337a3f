package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "veil/pkg/domain-errors"
)

// SessionID identifies an anonymous session. It is random (UUIDv4) and carries
// no information about the subject.
type SessionID uuid.UUID

// RecordID identifies an AnonymizedData record.
type RecordID uuid.UUID

// CompanyID is the tenant key. Companies are registered by operators, so the
// identifier is a short slug rather than a UUID.
type CompanyID string

// AnonymousID is the company-scoped pseudonym of a real identity.
type AnonymousID string

const maxCompanyIDLength = 64

// NewSessionID returns a fresh random session id.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// NewRecordID returns a fresh random record id.
func NewRecordID() RecordID { return RecordID(uuid.New()) }

func parseUUID(kind, s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > 64 || !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	return parsed, nil
}

// ParseSessionID parses a session id at a trust boundary.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID("session_id", s)
	return SessionID(u), err
}

// ParseRecordID parses a record id at a trust boundary.
func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID("record_id", s)
	return RecordID(u), err
}

// ParseCompanyID accepts lowercase slugs of letters, digits, '-' and '_'.
func ParseCompanyID(s string) (CompanyID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "company_id is required")
	}
	if len(s) > maxCompanyIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "company_id too long")
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return "", dErrors.New(dErrors.CodeInvalidInput, "invalid company_id")
		}
	}
	return CompanyID(s), nil
}

func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id RecordID) String() string { return uuid.UUID(id).String() }
func (id RecordID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id CompanyID) String() string { return string(id) }
func (id CompanyID) IsNil() bool { return id == "" }

func (id AnonymousID) String() string { return string(id) }
func (id AnonymousID) IsNil() bool { return id == "" }

// MarshalText lets typed UUIDs serialize as canonical strings.
func (id SessionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *SessionID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = SessionID(u)
	return nil
}

func (id RecordID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *RecordID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = RecordID(u)
	return nil
}
