// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package sec

import "fmt"

// # User Roles

// UserRole represents the authorization level recorded on a user profile.
//
// A role alone never grants access; admin rights additionally require the
// profile's approval flag.
type UserRole string

const (
	// Default role for every registered account
	RoleUser UserRole = "user"

	// Can manage blog content once approved
	RoleAdmin UserRole = "admin"

	// Admin with operator-level privileges
	RoleSuperAdmin UserRole = "super_admin"
)

// ParseRole validates a raw role string read from storage or the CLI.
func ParseRole(raw string) (UserRole, error) {
	role := UserRole(raw)
	if !role.Valid() {
		return "", fmt.Errorf("sec: unknown role %q", raw)
	}
	return role, nil
}

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	return r.level() > 0
}

// IsAdminRole reports whether the role belongs to the admin tier.
func (r UserRole) IsAdminRole() bool {
	return r.AtLeast(RoleAdmin)
}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level() && r.level() > 0
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {
	switch r {
	case RoleSuperAdmin:
		return 30
	case RoleAdmin:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}
