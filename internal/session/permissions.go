package session

import (
	"slices"

	"veil/pkg/domain"
)

// Permission is a capability string granted to a session.
type Permission string

const (
	PermAnonymize       Permission = "data:anonymize"
	PermAggregateReport Permission = "report:aggregate"
	PermDecrypt         Permission = "data:decrypt"
	PermVerify          Permission = "data:verify"
	PermResolveIdentity Permission = "identity:resolve"
	PermExport          Permission = "data:export"
)

var levelGrants = map[domain.AccessLevel][]Permission{
	domain.AccessAnonymous:       {PermAnonymize, PermAggregateReport},
	domain.AccessPseudoAnonymous: {PermDecrypt, PermVerify},
	domain.AccessIdentified:      {PermResolveIdentity, PermExport},
}

var levelOrder = []domain.AccessLevel{
	domain.AccessAnonymous,
	domain.AccessPseudoAnonymous,
	domain.AccessIdentified,
}

// PermissionsFor returns the sorted permission set for level. Each level
// inherits every grant of the levels below it.
func PermissionsFor(level domain.AccessLevel) []Permission {
	var out []Permission
	for _, l := range levelOrder {
		if !level.AtLeast(l) {
			break
		}
		out = append(out, levelGrants[l]...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
