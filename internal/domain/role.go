package domain

import (
	"fmt"
	"strings"
)

// Role enumerates the three actor roles. There is no hierarchy between
// them; every operation checks the role explicitly.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleTechnician Role = "TECNICO"
	RoleRequester  Role = "USER"
)

// AllowedRoles lists the closed set of valid roles.
var AllowedRoles = []Role{RoleAdmin, RoleTechnician, RoleRequester}

// NormalizeRole uppercases free-form input and validates it against the
// closed enumeration. Empty input is rejected; callers that want a
// default must apply it before normalizing.
func NormalizeRole(raw string) (Role, error) {
	normalized := Role(strings.ToUpper(strings.TrimSpace(raw)))
	for _, role := range AllowedRoles {
		if role == normalized {
			return role, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", raw)
}
