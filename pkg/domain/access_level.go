package domain

import dErrors "veil/pkg/domain-errors"

// AccessLevel is the tiered capability of a session.
// Invariant: anonymous < pseudo-anonymous < identified.
type AccessLevel string

const (
	AccessAnonymous       AccessLevel = "anonymous"
	AccessPseudoAnonymous AccessLevel = "pseudo-anonymous"
	AccessIdentified      AccessLevel = "identified"
)

var accessRank = map[AccessLevel]int{
	AccessAnonymous:       1,
	AccessPseudoAnonymous: 2,
	AccessIdentified:      3,
}

// ParseAccessLevel constructs an AccessLevel from external input.
func ParseAccessLevel(s string) (AccessLevel, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "access_level is required")
	}
	l := AccessLevel(s)
	if !l.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid access_level")
	}
	return l, nil
}

func (l AccessLevel) IsValid() bool { return accessRank[l] > 0 }

// AtLeast reports whether l grants at least the capabilities of other.
func (l AccessLevel) AtLeast(other AccessLevel) bool {
	return accessRank[l] >= accessRank[other] && accessRank[l] > 0
}

// RetainsIdentity reports whether sessions at this level keep the real user id.
func (l AccessLevel) RetainsIdentity() bool {
	return l.IsValid() && l != AccessAnonymous
}

func (l AccessLevel) String() string { return string(l) }
