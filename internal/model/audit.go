package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionSubmitRequest   = "SUBMIT_REQUEST"
	ActionResubmitRequest = "RESUBMIT_REQUEST"
	ActionSubmitReview    = "SUBMIT_REVIEW"
	ActionSubmitApproval  = "SUBMIT_APPROVAL"
	ActionPublishRequest  = "PUBLISH_REQUEST"
	ActionExpireRequest   = "EXPIRE_REQUEST"

	ActionCreateRole            = "CREATE_ROLE"
	ActionUpdateRole            = "UPDATE_ROLE"
	ActionDeleteRole            = "DELETE_ROLE"
	ActionUpdateRolePermissions = "UPDATE_ROLE_PERMISSIONS"

	ActionCreateUser = "CREATE_USER"
	ActionUpdateUser = "UPDATE_USER"
	ActionDeleteUser = "DELETE_USER"

	ActionCreateEvent    = "CREATE_EVENT"
	ActionUpdateEvent    = "UPDATE_EVENT"
	ActionDeleteEvent    = "DELETE_EVENT"
	ActionRecordDonation = "RECORD_DONATION"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
