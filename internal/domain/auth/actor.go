package auth

import "slices"

// Actor is the authenticated caller. It is passed explicitly into every
// mutating operation.
type Actor struct {
	UserID   string `json:"userId"`
	RoleID   string `json:"roleId"`
	RoleName string `json:"roleName"`
}

func (a Actor) HasRole(roles ...string) bool {
	return slices.Contains(roles, a.RoleName)
}

// CanOverride reports whether the actor may act on records assigned to others.
func (a Actor) CanOverride() bool {
	return a.HasRole(OverrideRoles...)
}
