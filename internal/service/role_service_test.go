package service

import (
	"context"
	"testing"

	"fundraising/internal/model"
	"fundraising/internal/rbac"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seededRoleService(t *testing.T) (RoleService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	svc := NewRoleService(db)
	require.NoError(t, svc.SeedDefaultRolesAndPermissions(context.Background()))
	return svc, db
}

func TestSeedDefaultRolesAndPermissions(t *testing.T) {
	svc, db := seededRoleService(t)
	ctx := context.Background()

	var roleCount int64
	require.NoError(t, db.Model(&model.Role{}).Count(&roleCount).Error)
	require.EqualValues(t, 4, roleCount)

	codes, err := svc.GetPermissionsByRoleName(ctx, "Reviewer")
	require.NoError(t, err)
	require.Contains(t, codes, "requests.review")
	require.Contains(t, codes, "requests.approve")
	require.NotContains(t, codes, "roles.manage")

	// Seeding again is idempotent
	require.NoError(t, svc.SeedDefaultRolesAndPermissions(ctx))
	require.NoError(t, db.Model(&model.Role{}).Count(&roleCount).Error)
	require.EqualValues(t, 4, roleCount)
}

func TestListRolesByViewer(t *testing.T) {
	svc, _ := seededRoleService(t)
	ctx := context.Background()

	_, err := svc.ListRoles(ctx, "Reviewer")
	require.Error(t, err)
	require.True(t, rbac.IsPermissionError(err))

	roles, err := svc.ListRoles(ctx, "Admin")
	require.NoError(t, err)
	require.Len(t, roles, 4)
	for _, r := range roles {
		switch r.Name {
		case "Super Admin", "Admin":
			require.False(t, r.CanModify, "admin must not modify %s", r.Name)
		default:
			require.True(t, r.CanModify, "admin should modify %s", r.Name)
			require.False(t, r.CanDelete, "system role %s must not be deletable", r.Name)
		}
		// Permission-module entries stay hidden from admins
		for _, p := range r.Permissions {
			require.NotContains(t, p.Code, "permission_")
		}
	}

	roles, err = svc.ListRoles(ctx, "Super Admin")
	require.NoError(t, err)
	for _, r := range roles {
		require.True(t, r.CanModify)
	}
}

func TestCreateRoleHierarchy(t *testing.T) {
	svc, _ := seededRoleService(t)
	ctx := context.Background()

	created, err := svc.CreateRole(ctx, "Admin", nil, CreateRoleRequest{
		Name:        "Campaign Manager",
		Description: "Runs individual campaigns",
	})
	require.NoError(t, err)
	require.EqualValues(t, rbac.LevelOther, created.Level)
	require.False(t, created.IsSystem)

	_, err = svc.CreateRole(ctx, "Admin", nil, CreateRoleRequest{Name: "Super Admin 2"})
	require.Error(t, err)
	require.True(t, rbac.IsPermissionError(err))

	_, err = svc.CreateRole(ctx, "Editor", nil, CreateRoleRequest{Name: "Anything"})
	require.Error(t, err)
	require.True(t, rbac.IsPermissionError(err))
}

func TestUpdateRoleSelfDemotion(t *testing.T) {
	svc, db := seededRoleService(t)
	ctx := context.Background()

	var admin model.Role
	require.NoError(t, db.Where("name = ?", "Admin").First(&admin).Error)

	// An admin renaming their own role to a non-admin name is a demotion
	_, err := svc.UpdateRole(ctx, "Super Admin", nil, admin.ID.String(), UpdateRoleRequest{Name: "Admin", Description: "updated"})
	require.NoError(t, err, "super admin may touch the admin role")

	var super model.Role
	require.NoError(t, db.Where("name = ?", "Super Admin").First(&super).Error)
	_, err = svc.UpdateRole(ctx, "Super Admin", nil, super.ID.String(), UpdateRoleRequest{Name: "Helpdesk"})
	require.Error(t, err)
	require.True(t, rbac.IsPermissionError(err))
	require.Contains(t, err.Error(), "demote your own role")
}

func TestDeleteRole(t *testing.T) {
	svc, db := seededRoleService(t)
	ctx := context.Background()

	created, err := svc.CreateRole(ctx, "Super Admin", nil, CreateRoleRequest{Name: "Temp Role"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteRole(ctx, "Super Admin", nil, created.ID))

	var reviewer model.Role
	require.NoError(t, db.Where("name = ?", "Reviewer").First(&reviewer).Error)
	err = svc.DeleteRole(ctx, "Super Admin", nil, reviewer.ID.String())
	require.Error(t, err)
	require.Contains(t, err.Error(), "system role")
}

func TestListPermissionsFiltering(t *testing.T) {
	svc, _ := seededRoleService(t)
	ctx := context.Background()

	all, err := svc.ListPermissions(ctx, "Super Admin")
	require.NoError(t, err)

	visible, err := svc.ListPermissions(ctx, "Admin")
	require.NoError(t, err)
	require.Equal(t, len(all)-3, len(visible), "the three permission-module entries are hidden")

	_, err = svc.ListPermissions(ctx, "Reviewer")
	require.Error(t, err)
	require.True(t, rbac.IsPermissionError(err))
}

func TestUpdateRolePermissionsGuardsModuleEntries(t *testing.T) {
	svc, db := seededRoleService(t)
	ctx := context.Background()

	var editor model.Role
	require.NoError(t, db.Where("name = ?", "Editor").First(&editor).Error)
	var permPerm model.Permission
	require.NoError(t, db.Where("code = ?", "permission_read").First(&permPerm).Error)

	_, err := svc.UpdateRolePermissions(ctx, "Admin", nil, editor.ID.String(), UpdateRolePermissionsRequest{
		PermissionIDs: []string{permPerm.ID.String()},
	})
	require.Error(t, err)
	require.True(t, rbac.IsPermissionError(err))

	updated, err := svc.UpdateRolePermissions(ctx, "Super Admin", nil, editor.ID.String(), UpdateRolePermissionsRequest{
		PermissionIDs: []string{permPerm.ID.String()},
	})
	require.NoError(t, err)
	require.Len(t, updated.Permissions, 1)
	require.Equal(t, "permission_read", updated.Permissions[0].Code)
}
