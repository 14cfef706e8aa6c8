package middleware

import (
	"testing"

	"fundraising/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Role{}, &model.Permission{}))

	prevDB := permDB
	InitPermissionMiddleware(db)
	t.Cleanup(func() {
		permDB = prevDB
		ClearProfileCache("")
		ClearPermissionCache("")
	})

	return db
}

func createAuthTestUser(t *testing.T, db *gorm.DB, roleName string) model.User {
	t.Helper()
	user := model.User{
		Username: "reviewer",
		Email:    "reviewer@example.com",
		Password: "hashed",
		RoleName: roleName,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestResolveRoleNamePrefersDatabase(t *testing.T) {
	db := setupAuthTestDB(t)
	user := createAuthTestUser(t, db, "Reviewer")

	// The token claim is stale; the database record wins.
	got := resolveRoleName(user.ID.String(), "Admin")
	require.Equal(t, "Reviewer", got)
}

func TestResolveRoleNameCachesUntilCleared(t *testing.T) {
	db := setupAuthTestDB(t)
	user := createAuthTestUser(t, db, "Reviewer")

	require.Equal(t, "Reviewer", resolveRoleName(user.ID.String(), "Reviewer"))

	require.NoError(t, db.Model(&model.User{}).Where("id = ?", user.ID).
		Update("role_name", "Admin").Error)

	// Still within the TTL, the old resolution stands.
	require.Equal(t, "Reviewer", resolveRoleName(user.ID.String(), "Reviewer"))

	ClearProfileCache(user.ID.String())
	require.Equal(t, "Admin", resolveRoleName(user.ID.String(), "Reviewer"))
}

func TestResolveRoleNameDeletedUserHasNoRole(t *testing.T) {
	db := setupAuthTestDB(t)
	user := createAuthTestUser(t, db, "Reviewer")
	require.NoError(t, db.Delete(&model.User{}, "id = ?", user.ID).Error)

	// A soft-deleted user must not keep acting on a still-valid token.
	require.Equal(t, "", resolveRoleName(user.ID.String(), "Reviewer"))
}

func TestResolveRoleNameWithoutDBFallsBackToClaim(t *testing.T) {
	prevDB := permDB
	permDB = nil
	t.Cleanup(func() { permDB = prevDB })

	require.Equal(t, "Reviewer", resolveRoleName("some-user-id", "Reviewer"))
}
