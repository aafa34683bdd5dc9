package entities

import (
	"errors"
	"strings"
)

// Role is the authorization level of a user and of a session token.
type Role string

const (
	RoleNormalUser  Role = "normal_user"
	RoleStoreOwner  Role = "store_owner"
	RoleSystemAdmin Role = "system_admin"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole maps s onto one of the known roles regardless of letter case.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleNormalUser:
		return RoleNormalUser, nil
	case RoleStoreOwner:
		return RoleStoreOwner, nil
	case RoleSystemAdmin:
		return RoleSystemAdmin, nil
	}
	return "", ErrUnknownRole
}

// Valid reports whether r is exactly one of the known roles.
func (r Role) Valid() bool {
	return r.In(RoleNormalUser, RoleStoreOwner, RoleSystemAdmin)
}

// In reports whether r is one of allowed.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}
