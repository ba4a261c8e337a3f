package session

import (
	"maps"
	"slices"
	"time"

	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
)

// Context is the non-identifying description of who the session acts for.
type Context struct {
	AccessLevel domain.AccessLevel `json:"access_level"`
	Attributes  map[string]string  `json:"attributes,omitempty"`
}

// Session is an anonymous session.
//
// Invariants:
//   - ID is random and carries no information about the subject
//   - the real user id is only held when AccessLevel retains identity
//   - ExpiresAt - CreatedAt equals the configured token lifetime
//   - Permissions is sorted and free of duplicates
type Session struct {
	ID          domain.SessionID   `json:"session_id"`
	AnonymousID domain.AnonymousID `json:"anonymous_id"`
	CompanyID   domain.CompanyID   `json:"company_id"`
	CreatedAt   time.Time          `json:"created_at"`
	ExpiresAt   time.Time          `json:"expires_at"`
	Permissions []Permission       `json:"permissions"`
	Context     Context            `json:"context"`

	realUserID string
}

// IsExpired reports whether now is past the expiry instant.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

func (s *Session) Has(p Permission) bool {
	_, found := slices.BinarySearch(s.Permissions, p)
	return found
}

// RealUserID returns the identity behind the session. Only identified
// sessions holding identity:resolve may read it.
func (s *Session) RealUserID() (string, error) {
	if s.Context.AccessLevel != domain.AccessIdentified || !s.Has(PermResolveIdentity) {
		return "", dErrors.New(dErrors.CodeForbidden, "session may not resolve identity")
	}
	if s.realUserID == "" {
		return "", dErrors.New(dErrors.CodeInvariantViolation, "identified session has no identity")
	}
	return s.realUserID, nil
}

// Clone returns a deep copy, keeping the real user id.
func (s *Session) Clone() *Session {
	out := *s
	out.Permissions = slices.Clone(s.Permissions)
	out.Context.Attributes = maps.Clone(s.Context.Attributes)
	return &out
}

// Summary is the externally visible view of a session.
type Summary struct {
	SessionID   string             `json:"session_id"`
	AnonymousID domain.AnonymousID `json:"anonymous_id"`
	CompanyID   domain.CompanyID   `json:"company_id"`
	AccessLevel domain.AccessLevel `json:"access_level"`
	Permissions []Permission       `json:"permissions"`
	CreatedAt   time.Time          `json:"created_at"`
	ExpiresAt   time.Time          `json:"expires_at"`
}

func (s *Session) Summary() Summary {
	return Summary{
		SessionID:   s.ID.String(),
		AnonymousID: s.AnonymousID,
		CompanyID:   s.CompanyID,
		AccessLevel: s.Context.AccessLevel,
		Permissions: slices.Clone(s.Permissions),
		CreatedAt:   s.CreatedAt,
		ExpiresAt:   s.ExpiresAt,
	}
}

// Created is returned by CreateSession.
type Created struct {
	Session *Session
	Token   string
}

// ReapResult counts the outcome of one reaping sweep.
type ReapResult struct {
	Reaped int `json:"reaped"`
	Failed int `json:"failed"`
}
