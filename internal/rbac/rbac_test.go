package rbac

import (
	"testing"

	"fundraising/internal/model"
)

func TestGetRoleLevel(t *testing.T) {
	tests := []struct {
		name string
		role string
		want Level
	}{
		{"super admin", "super admin", LevelSuperAdmin},
		{"Super Admin mixed case", "Super Admin", LevelSuperAdmin},
		{"superadmin one word", "superadmin", LevelSuperAdmin},
		{"SUPERADMIN upper", "SUPERADMIN", LevelSuperAdmin},
		{"admin", "admin", LevelAdmin},
		{"Admin padded", "  Admin  ", LevelAdmin},
		{"reviewer", "Reviewer", LevelOther},
		{"editor", "Editor", LevelOther},
		{"empty", "", LevelOther},
		{"administrator is not admin", "administrator", LevelOther},
		{"super admin with double space", "super  admin", LevelOther},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := GetRoleLevel(tc.role); got != tc.want {
				t.Fatalf("GetRoleLevel(%q) = %v, want %v", tc.role, got, tc.want)
			}
		})
	}
}

func TestCanModifyRole(t *testing.T) {
	tests := []struct {
		name   string
		actor  string
		target string
		want   bool
	}{
		{"super admin modifies super admin", "Super Admin", "Super Admin", true},
		{"super admin modifies admin", "Super Admin", "Admin", true},
		{"super admin modifies reviewer", "Super Admin", "Reviewer", true},
		{"admin modifies reviewer", "Admin", "Reviewer", true},
		{"admin cannot modify admin", "Admin", "Admin", false},
		{"admin cannot modify super admin", "Admin", "Super Admin", false},
		{"reviewer modifies nothing", "Reviewer", "Editor", false},
		{"reviewer cannot touch super admin", "Reviewer", "Super Admin", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanModifyRole(tc.actor, tc.target); got != tc.want {
				t.Fatalf("CanModifyRole(%q, %q) = %v, want %v", tc.actor, tc.target, got, tc.want)
			}
		})
	}
}

func TestProtectedAndManagement(t *testing.T) {
	if !IsProtectedRole("Admin") || !IsProtectedRole("super admin") {
		t.Error("admin-level roles are protected")
	}
	if IsProtectedRole("Reviewer") {
		t.Error("ordinary roles are not protected")
	}
	if !CanManageRoles("Admin") || !CanManageRoles("Super Admin") {
		t.Error("admin and above manage roles")
	}
	if CanManageRoles("Editor") {
		t.Error("ordinary roles do not manage roles")
	}
	if !CanSeePermissionModule("Super Admin") {
		t.Error("super admin sees the permission module")
	}
	if CanSeePermissionModule("Admin") {
		t.Error("admin does not see the permission module")
	}
}

func TestIsEditingOwnRole(t *testing.T) {
	if !IsEditingOwnRole("Admin", "admin") {
		t.Error("comparison should be case-insensitive")
	}
	if !IsEditingOwnRole(" Admin ", "admin") {
		t.Error("comparison should trim whitespace")
	}
	if IsEditingOwnRole("Admin", "Super Admin") {
		t.Error("different roles are not own role")
	}
}

func TestFilterPermissionsByUserRole(t *testing.T) {
	perms := []model.Permission{
		{Code: "requests.read"},
		{Code: "permission_read"},
		{Code: "permission_assign"},
		{Code: "users.write"},
	}

	got := FilterPermissionsByUserRole(perms, "Super Admin")
	if len(got) != 4 {
		t.Fatalf("super admin sees all permissions, got %d", len(got))
	}

	got = FilterPermissionsByUserRole(perms, "Admin")
	if len(got) != 2 {
		t.Fatalf("admin should not see permission module entries, got %d", len(got))
	}
	for _, p := range got {
		if p.Code == "permission_read" || p.Code == "permission_assign" {
			t.Fatalf("permission module entry %q leaked to admin", p.Code)
		}
	}

	got = FilterPermissionsByUserRole(perms, "Reviewer")
	if len(got) != 2 {
		t.Fatalf("reviewer should not see permission module entries, got %d", len(got))
	}
}

func TestFilterRolesByUserAccess(t *testing.T) {
	roles := []model.Role{
		{Name: "Super Admin", IsSystem: true},
		{Name: "Admin", IsSystem: true},
		{Name: "Reviewer", IsSystem: true},
		{Name: "Campaign Manager"},
	}

	t.Run("ordinary role sees nothing", func(t *testing.T) {
		got := FilterRolesByUserAccess(roles, "Reviewer")
		if got == nil {
			t.Fatal("want empty slice, not nil")
		}
		if len(got) != 0 {
			t.Fatalf("want no roles, got %d", len(got))
		}
	})

	t.Run("admin sees all with annotations", func(t *testing.T) {
		got := FilterRolesByUserAccess(roles, "Admin")
		if len(got) != 4 {
			t.Fatalf("want 4 roles, got %d", len(got))
		}
		byName := map[string]RoleAccess{}
		for _, r := range got {
			byName[r.Name] = r
		}
		if byName["Super Admin"].CanModify || byName["Admin"].CanModify {
			t.Error("admin cannot modify protected roles")
		}
		if !byName["Reviewer"].CanModify || !byName["Campaign Manager"].CanModify {
			t.Error("admin can modify ordinary roles")
		}
		if byName["Reviewer"].CanDelete {
			t.Error("system roles are never deletable")
		}
		if !byName["Campaign Manager"].CanDelete {
			t.Error("custom roles below admin are deletable by admin")
		}
	})

	t.Run("super admin modifies everything", func(t *testing.T) {
		got := FilterRolesByUserAccess(roles, "Super Admin")
		for _, r := range got {
			if !r.CanModify {
				t.Errorf("super admin should be able to modify %q", r.Name)
			}
			if r.IsSystem && r.CanDelete {
				t.Errorf("system role %q must not be deletable", r.Name)
			}
		}
	})
}

func TestRoleOperationValidators(t *testing.T) {
	if res := ValidateRoleManagement("Editor"); res.Valid {
		t.Error("ordinary roles are denied role management")
	}
	if res := ValidateCreate("Admin", "Campaign Manager"); !res.Valid {
		t.Errorf("admin may create ordinary roles: %s", res.Message)
	}
	if res := ValidateCreate("Admin", "Super Admin"); res.Valid {
		t.Error("admin may not create protected roles")
	}
	if res := ValidateCreate("Super Admin", "Admin"); !res.Valid {
		t.Errorf("super admin may create protected roles: %s", res.Message)
	}
	if res := ValidateUpdate("Admin", "Admin"); res.Valid {
		t.Error("admin may not update another admin role")
	}
	if res := ValidateDelete("Admin", "Reviewer"); !res.Valid {
		t.Errorf("admin may delete ordinary roles: %s", res.Message)
	}
	if res := ValidateDelete("Reviewer", "Editor"); res.Valid {
		t.Error("ordinary roles may not delete roles")
	}
}

func TestOperationResultErr(t *testing.T) {
	if err := allowed().Err(); err != nil {
		t.Fatalf("allowed result should carry no error, got %v", err)
	}
	err := denied("nope").Err()
	if err == nil {
		t.Fatal("denied result should carry an error")
	}
	if !IsPermissionError(err) {
		t.Fatalf("expected PermissionError, got %T", err)
	}
}
