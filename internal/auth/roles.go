package auth

import (
	"strings"

	"github.com/spec-kit/access-gateway/internal/domain"
)

// RoleSet is a case-insensitive set of privileged role names.
type RoleSet struct {
	allowed map[string]struct{}
}

// NewRoleSet builds a set from role names.
func NewRoleSet(names ...string) RoleSet {
	allowed := make(map[string]struct{}, len(names))
	for _, name := range names {
		allowed[strings.ToLower(name)] = struct{}{}
	}
	return RoleSet{allowed: allowed}
}

// Grants reports whether any of roles resolves to a name in the set.
// Roles with an empty name never grant access.
func (s RoleSet) Grants(roles []domain.Role) bool {
	for _, role := range roles {
		name := strings.ToLower(role.Name())
		if name == "" {
			continue
		}
		if _, ok := s.allowed[name]; ok {
			return true
		}
	}
	return false
}

// GrantsToken is Grants over the roles of token; a nil token grants nothing.
func (s RoleSet) GrantsToken(token *domain.SessionToken) bool {
	if token == nil {
		return false
	}
	return s.Grants(token.Roles)
}
