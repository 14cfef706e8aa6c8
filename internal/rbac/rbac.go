// Package rbac decides what a role may see and do. Every function here is a
// pure, total predicate over role names; the HTTP middleware and the role
// service both call through it so the hierarchy cannot drift between layers.
package rbac

import (
	"strings"

	"fundraising/internal/model"
)

// Level orders roles for hierarchy decisions. Higher levels may act on lower
// ones, never sideways or upward.
type Level int

const (
	LevelOther      Level = 1
	LevelAdmin      Level = 2
	LevelSuperAdmin Level = 3
)

// PermissionModulePrefix marks permission codes that belong to the
// permission-management module itself. Only super admins see those.
const PermissionModulePrefix = "permission_"

func (l Level) String() string {
	switch l {
	case LevelSuperAdmin:
		return "super_admin"
	case LevelAdmin:
		return "admin"
	default:
		return "other"
	}
}

// GetRoleLevel classifies a role name. The match is case-insensitive and
// trimmed; any name other than the admin spellings is Other regardless of the
// permissions actually granted to it.
func GetRoleLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "super admin", "superadmin":
		return LevelSuperAdmin
	case "admin":
		return LevelAdmin
	default:
		return LevelOther
	}
}

// IsProtectedRole reports whether a role name is admin-level or above.
// Protected roles are hidden from, and immutable by, ordinary actors.
func IsProtectedRole(name string) bool {
	return GetRoleLevel(name) >= LevelAdmin
}

// CanModifyRole reports whether an actor may change a target role. Super
// admins may modify anything; admins only roles below admin level, which
// excludes other admins and themselves; everyone else modifies nothing.
func CanModifyRole(actorRoleName, targetRoleName string) bool {
	switch GetRoleLevel(actorRoleName) {
	case LevelSuperAdmin:
		return true
	case LevelAdmin:
		return GetRoleLevel(targetRoleName) == LevelOther
	default:
		return false
	}
}

// CanSeePermissionModule reports whether the actor may view the
// permission-management module.
func CanSeePermissionModule(actorRoleName string) bool {
	return GetRoleLevel(actorRoleName) == LevelSuperAdmin
}

// CanManageRoles reports whether the actor may open role management at all.
func CanManageRoles(actorRoleName string) bool {
	return GetRoleLevel(actorRoleName) >= LevelAdmin
}

// IsEditingOwnRole reports whether the target role is the actor's own,
// compared case-insensitively and trimmed. Callers use it to block
// self-demotion; the blocking policy itself lives with the caller.
func IsEditingOwnRole(targetRoleName, actorRoleName string) bool {
	return strings.EqualFold(strings.TrimSpace(targetRoleName), strings.TrimSpace(actorRoleName))
}

// FilterPermissionsByUserRole hides the permission module from everyone below
// super admin. Super admins see the list unmodified.
func FilterPermissionsByUserRole(permissions []model.Permission, actorRoleName string) []model.Permission {
	if GetRoleLevel(actorRoleName) == LevelSuperAdmin {
		return permissions
	}
	filtered := make([]model.Permission, 0, len(permissions))
	for _, p := range permissions {
		if strings.HasPrefix(p.Code, PermissionModulePrefix) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

// RoleAccess is a role annotated with what the viewing actor may do to it.
type RoleAccess struct {
	model.Role
	CanModify bool `json:"can_modify"`
	CanDelete bool `json:"can_delete"`
}

// FilterRolesByUserAccess returns the roles an actor may see, each annotated
// with modify/delete rights. Super admins get everything, admins get
// everything with per-role annotations, everyone else gets nothing.
func FilterRolesByUserAccess(roles []model.Role, actorRoleName string) []RoleAccess {
	level := GetRoleLevel(actorRoleName)
	if level < LevelAdmin {
		return []RoleAccess{}
	}

	out := make([]RoleAccess, 0, len(roles))
	for _, r := range roles {
		can := level == LevelSuperAdmin || CanModifyRole(actorRoleName, r.Name)
		out = append(out, RoleAccess{
			Role:      r,
			CanModify: can,
			CanDelete: can && !r.IsSystem,
		})
	}
	return out
}

// OperationResult is the outcome of a role-operation validator. Message is
// set only when the operation is denied.
type OperationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func allowed() OperationResult {
	return OperationResult{Valid: true}
}

func denied(message string) OperationResult {
	return OperationResult{Valid: false, Message: message}
}

// ValidateRoleManagement checks whether the actor may use role management.
func ValidateRoleManagement(actorRoleName string) OperationResult {
	if !CanManageRoles(actorRoleName) {
		return denied("You do not have permission to manage roles")
	}
	return allowed()
}

// ValidateCreate checks a role creation. Admins may not mint protected role
// names; only a super admin can create another "Admin" or "Super Admin".
func ValidateCreate(actorRoleName, newRoleName string) OperationResult {
	if res := ValidateRoleManagement(actorRoleName); !res.Valid {
		return res
	}
	if IsProtectedRole(newRoleName) && GetRoleLevel(actorRoleName) != LevelSuperAdmin {
		return denied("Only a super admin can create a protected role")
	}
	return allowed()
}

// ValidateUpdate checks a role modification against the hierarchy.
func ValidateUpdate(actorRoleName, targetRoleName string) OperationResult {
	if res := ValidateRoleManagement(actorRoleName); !res.Valid {
		return res
	}
	if !CanModifyRole(actorRoleName, targetRoleName) {
		return denied("You do not have permission to modify this role")
	}
	return allowed()
}

// ValidateDelete checks a role deletion against the hierarchy.
func ValidateDelete(actorRoleName, targetRoleName string) OperationResult {
	if res := ValidateRoleManagement(actorRoleName); !res.Valid {
		return res
	}
	if !CanModifyRole(actorRoleName, targetRoleName) {
		return denied("You do not have permission to delete this role")
	}
	return allowed()
}
