package model

import (
	"time"

	"github.com/google/uuid"
)

// Role status values
const (
	RoleInactive int16 = 0
	RoleActive   int16 = 1
)

// Role represents a user role with associated permissions. Level is resolved
// from the name once at create/update time rather than re-derived on every
// check, so renames cannot silently change what an existing session may do.
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Level       int16        `gorm:"not null;default:1" json:"level"`  // 3 super admin, 2 admin, 1 other
	Status      int16        `gorm:"not null;default:1" json:"status"` // 1 active, 0 inactive
	IsSystem    bool         `gorm:"default:false" json:"is_system"`   // Prevent deletion of built-in roles
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission represents a single permission that can be assigned to roles.
// Codes prefixed "permission_" form the permission-management module and are
// hidden from everyone below super admin.
type Permission struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"` // e.g. "requests.review"
	Name  string    `gorm:"type:varchar(255);not null" json:"name"`
	Group string    `gorm:"type:varchar(50);not null;index" json:"group"` // "requests", "events", "roles"...
}
