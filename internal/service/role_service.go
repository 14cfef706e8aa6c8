package service

import (
	"context"
	"encoding/json"
	"fmt"

	"fundraising/internal/model"
	"fundraising/internal/rbac"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Status      *int16   `json:"status"`
	Permissions []string `json:"permissions"` // Permission UUIDs
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Status      *int16 `json:"status"`
}

type UpdateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"required"`
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Level       int16                `json:"level"`
	Status      int16                `json:"status"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

// RoleAccessResponse is a role annotated with what the viewer may do to it.
type RoleAccessResponse struct {
	RoleResponse
	CanModify bool `json:"can_modify"`
	CanDelete bool `json:"can_delete"`
}

type PermissionResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// --- Interface ---

// RoleService gates every mutation through the rbac hierarchy using the
// actor's role name from the verified token. The same rules are mirrored in
// any client; this layer is the one that actually enforces them.
type RoleService interface {
	ListRoles(ctx context.Context, actorRole string) ([]RoleAccessResponse, error)
	GetRole(ctx context.Context, actorRole, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, actorRole string, actorID *uuid.UUID, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, actorRole string, actorID *uuid.UUID, id string, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, actorRole string, actorID *uuid.UUID, id string) error
	ListPermissions(ctx context.Context, actorRole string) ([]PermissionResponse, error)
	UpdateRolePermissions(ctx context.Context, actorRole string, actorID *uuid.UUID, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error)
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error)
	SeedDefaultRolesAndPermissions(ctx context.Context) error
}

type roleService struct {
	db *gorm.DB
}

func NewRoleService(db *gorm.DB) RoleService {
	return &roleService{db: db}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context, actorRole string) ([]RoleAccessResponse, error) {
	if err := rbac.ValidateRoleManagement(actorRole).Err(); err != nil {
		return nil, err
	}

	var roles []model.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").Order("name ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	visible := rbac.FilterRolesByUserAccess(roles, actorRole)
	res := make([]RoleAccessResponse, 0, len(visible))
	for _, r := range visible {
		res = append(res, RoleAccessResponse{
			RoleResponse: toRoleResponse(r.Role, actorRole),
			CanModify:    r.CanModify,
			CanDelete:    r.CanDelete,
		})
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, actorRole, id string) (*RoleResponse, error) {
	if err := rbac.ValidateRoleManagement(actorRole).Err(); err != nil {
		return nil, err
	}

	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role id: %w", err)
	}

	var role model.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").First(&role, "id = ?", roleID).Error; err != nil {
		return nil, fmt.Errorf("role not found: %w", err)
	}

	resp := toRoleResponse(role, actorRole)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, actorRole string, actorID *uuid.UUID, req CreateRoleRequest) (*RoleResponse, error) {
	if err := rbac.ValidateCreate(actorRole, req.Name).Err(); err != nil {
		return nil, err
	}

	status := model.RoleActive
	if req.Status != nil {
		status = *req.Status
	}

	role := model.Role{
		Name:        req.Name,
		Description: req.Description,
		Level:       int16(rbac.GetRoleLevel(req.Name)),
		Status:      status,
		IsSystem:    false,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to create role: %w", err)
		}

		if len(req.Permissions) > 0 {
			perms, permErr := s.fetchPermissions(tx, req.Permissions)
			if permErr != nil {
				return permErr
			}
			if err := tx.Model(&role).Association("Permissions").Replace(perms); err != nil {
				return fmt.Errorf("failed to assign permissions: %w", err)
			}
		}

		return s.writeRoleAudit(tx, actorID, model.ActionCreateRole, role, map[string]interface{}{
			"name": role.Name, "level": role.Level,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetRole(ctx, actorRole, role.ID.String())
}

func (s *roleService) UpdateRole(ctx context.Context, actorRole string, actorID *uuid.UUID, id string, req UpdateRoleRequest) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role id: %w", err)
	}

	var role model.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", roleID).Error; err != nil {
		return nil, fmt.Errorf("role not found: %w", err)
	}

	if err := rbac.ValidateUpdate(actorRole, role.Name).Err(); err != nil {
		return nil, err
	}
	// Renaming into a protected name follows the same rule as creating one.
	if req.Name != role.Name {
		if err := rbac.ValidateCreate(actorRole, req.Name).Err(); err != nil {
			return nil, err
		}
	}
	// Nobody demotes the role they are acting under.
	if rbac.IsEditingOwnRole(role.Name, actorRole) && rbac.GetRoleLevel(req.Name) < rbac.GetRoleLevel(role.Name) {
		return nil, &rbac.PermissionError{Message: "You cannot demote your own role"}
	}

	role.Name = req.Name
	role.Description = req.Description
	role.Level = int16(rbac.GetRoleLevel(req.Name))
	if req.Status != nil {
		role.Status = *req.Status
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&role).Error; err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}
		return s.writeRoleAudit(tx, actorID, model.ActionUpdateRole, role, map[string]interface{}{
			"name": role.Name, "level": role.Level, "status": role.Status,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetRole(ctx, actorRole, id)
}

func (s *roleService) DeleteRole(ctx context.Context, actorRole string, actorID *uuid.UUID, id string) error {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid role id: %w", err)
	}

	var role model.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", roleID).Error; err != nil {
		return fmt.Errorf("role not found: %w", err)
	}

	if err := rbac.ValidateDelete(actorRole, role.Name).Err(); err != nil {
		return err
	}
	if role.IsSystem {
		return fmt.Errorf("cannot delete system role '%s'", role.Name)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&role).Association("Permissions").Clear(); err != nil {
			return fmt.Errorf("failed to clear permissions: %w", err)
		}
		if err := tx.Delete(&role).Error; err != nil {
			return fmt.Errorf("failed to delete role: %w", err)
		}
		return s.writeRoleAudit(tx, actorID, model.ActionDeleteRole, role, nil)
	})
}

func (s *roleService) ListPermissions(ctx context.Context, actorRole string) ([]PermissionResponse, error) {
	if err := rbac.ValidateRoleManagement(actorRole).Err(); err != nil {
		return nil, err
	}

	var perms []model.Permission
	if err := s.db.WithContext(ctx).Order("\"group\" ASC, code ASC").Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	visible := rbac.FilterPermissionsByUserRole(perms, actorRole)
	res := make([]PermissionResponse, 0, len(visible))
	for _, p := range visible {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

func (s *roleService) UpdateRolePermissions(ctx context.Context, actorRole string, actorID *uuid.UUID, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error) {
	id, err := uuid.Parse(roleID)
	if err != nil {
		return nil, fmt.Errorf("invalid role id: %w", err)
	}

	var role model.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("role not found: %w", err)
	}

	if err := rbac.ValidateUpdate(actorRole, role.Name).Err(); err != nil {
		return nil, err
	}

	var perms []model.Permission
	if len(req.PermissionIDs) > 0 {
		perms, err = s.fetchPermissions(s.db.WithContext(ctx), req.PermissionIDs)
		if err != nil {
			return nil, err
		}
		// Assigning permission-module entries requires the right to see them.
		if !rbac.CanSeePermissionModule(actorRole) {
			if len(rbac.FilterPermissionsByUserRole(perms, actorRole)) != len(perms) {
				return nil, &rbac.PermissionError{Message: "You do not have permission to assign permission-module entries"}
			}
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&role).Association("Permissions").Replace(perms); err != nil {
			return fmt.Errorf("failed to update permissions: %w", err)
		}
		return s.writeRoleAudit(tx, actorID, model.ActionUpdateRolePermissions, role, map[string]interface{}{
			"permission_count": len(perms),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetRole(ctx, actorRole, roleID)
}

func (s *roleService) GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error) {
	var role model.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").Where("name = ?", roleName).First(&role).Error; err != nil {
		return nil, fmt.Errorf("role '%s' not found: %w", roleName, err)
	}

	codes := make([]string, 0, len(role.Permissions))
	for _, p := range role.Permissions {
		codes = append(codes, p.Code)
	}
	return codes, nil
}

// SeedDefaultRolesAndPermissions creates the default permissions and roles if not already present
func (s *roleService) SeedDefaultRolesAndPermissions(ctx context.Context) error {
	defaultPermissions := []model.Permission{
		{Code: "dashboard.read", Name: "View dashboard & statistics", Group: "dashboard"},
		{Code: "requests.read", Name: "View fundraising requests", Group: "requests"},
		{Code: "requests.review", Name: "Review fundraising requests", Group: "requests"},
		{Code: "requests.approve", Name: "Approve / reject fundraising requests", Group: "requests"},
		{Code: "requests.publish", Name: "Publish requests to events", Group: "requests"},
		{Code: "events.read", Name: "View events", Group: "events"},
		{Code: "events.write", Name: "Manage events", Group: "events"},
		{Code: "donations.read", Name: "View donations", Group: "donations"},
		{Code: "donations.write", Name: "Record donations", Group: "donations"},
		{Code: "content.manage", Name: "Manage sliders & menus", Group: "content"},
		{Code: "users.read", Name: "View users", Group: "users"},
		{Code: "users.write", Name: "Manage users", Group: "users"},
		{Code: "users.delete", Name: "Delete users", Group: "users"},
		{Code: "audit.read", Name: "View activity history", Group: "audit"},
		{Code: "roles.manage", Name: "Manage roles", Group: "roles"},
		// Permission-module entries, visible to super admins only
		{Code: "permission_read", Name: "View permissions", Group: "permissions"},
		{Code: "permission_write", Name: "Manage permissions", Group: "permissions"},
		{Code: "permission_assign", Name: "Assign permissions", Group: "permissions"},
	}

	// Upsert permissions
	for i := range defaultPermissions {
		p := &defaultPermissions[i]
		var existing model.Permission
		result := s.db.WithContext(ctx).Where("code = ?", p.Code).First(&existing)
		if result.Error != nil {
			if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
				return fmt.Errorf("failed to seed permission '%s': %w", p.Code, err)
			}
		} else {
			p.ID = existing.ID
			s.db.WithContext(ctx).Exec(
				`UPDATE permissions SET name = ?, "group" = ? WHERE id = ?`,
				p.Name, p.Group, existing.ID,
			)
		}
	}

	permByCode := make(map[string]model.Permission)
	for _, p := range defaultPermissions {
		permByCode[p.Code] = p
	}

	roleDefinitions := []struct {
		Name        string
		Description string
		PermCodes   []string
	}{
		{
			Name:        "Super Admin",
			Description: "Full access including the permission module",
			PermCodes: []string{
				"dashboard.read",
				"requests.read", "requests.review", "requests.approve", "requests.publish",
				"events.read", "events.write",
				"donations.read", "donations.write",
				"content.manage",
				"users.read", "users.write", "users.delete",
				"audit.read", "roles.manage",
				"permission_read", "permission_write", "permission_assign",
			},
		},
		{
			Name:        "Admin",
			Description: "Platform administration without the permission module",
			PermCodes: []string{
				"dashboard.read",
				"requests.read", "requests.review", "requests.approve", "requests.publish",
				"events.read", "events.write",
				"donations.read", "donations.write",
				"content.manage",
				"users.read", "users.write",
				"audit.read", "roles.manage",
			},
		},
		{
			Name:        "Reviewer",
			Description: "Reviews and votes on fundraising requests",
			PermCodes: []string{
				"dashboard.read",
				"requests.read", "requests.review", "requests.approve",
				"events.read",
				"audit.read",
			},
		},
		{
			Name:        "Editor",
			Description: "Manages public content and events",
			PermCodes: []string{
				"dashboard.read",
				"events.read", "events.write",
				"donations.read",
				"content.manage",
			},
		},
	}

	for _, def := range roleDefinitions {
		var role model.Role
		result := s.db.WithContext(ctx).Where("name = ?", def.Name).First(&role)
		if result.Error != nil {
			role = model.Role{
				Name:        def.Name,
				Description: def.Description,
				Level:       int16(rbac.GetRoleLevel(def.Name)),
				Status:      model.RoleActive,
				IsSystem:    true,
			}
			if err := s.db.WithContext(ctx).Create(&role).Error; err != nil {
				return fmt.Errorf("failed to seed role '%s': %w", def.Name, err)
			}
		}

		perms := make([]model.Permission, 0, len(def.PermCodes))
		for _, code := range def.PermCodes {
			if p, ok := permByCode[code]; ok {
				perms = append(perms, p)
			}
		}
		if err := s.db.WithContext(ctx).Model(&role).Association("Permissions").Replace(perms); err != nil {
			return fmt.Errorf("failed to assign permissions to role '%s': %w", def.Name, err)
		}
	}

	return nil
}

// --- Helpers ---

func (s *roleService) fetchPermissions(tx *gorm.DB, ids []string) ([]model.Permission, error) {
	permIDs := make([]uuid.UUID, 0, len(ids))
	for _, pid := range ids {
		parsed, parseErr := uuid.Parse(pid)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid permission id '%s': %w", pid, parseErr)
		}
		permIDs = append(permIDs, parsed)
	}
	var perms []model.Permission
	if err := tx.Where("id IN ?", permIDs).Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}
	return perms, nil
}

func (s *roleService) writeRoleAudit(tx *gorm.DB, actorID *uuid.UUID, action string, role model.Role, details interface{}) error {
	payload, _ := json.Marshal(details)
	audit := model.AuditLog{
		UserID:     actorID,
		Action:     action,
		EntityID:   role.ID.String(),
		EntityName: role.Name,
		Details:    string(payload),
	}
	if err := tx.Create(&audit).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// toRoleResponse maps a role for a given viewer, hiding permission-module
// entries from everyone below super admin.
func toRoleResponse(r model.Role, viewerRole string) RoleResponse {
	visible := rbac.FilterPermissionsByUserRole(r.Permissions, viewerRole)
	perms := make([]PermissionResponse, 0, len(visible))
	for _, p := range visible {
		perms = append(perms, toPermissionResponse(p))
	}

	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		Level:       r.Level,
		Status:      r.Status,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:    p.ID.String(),
		Code:  p.Code,
		Name:  p.Name,
		Group: p.Group,
	}
}
