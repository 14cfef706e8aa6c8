package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Event status values
const (
	EventDraft  = "draft"
	EventActive = "active"
	EventClosed = "closed"
)

// Event is a public donation campaign. A published fundraising request is
// connected to exactly one event.
type Event struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Slug            string          `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"`
	Title           string          `gorm:"type:varchar(255);not null" json:"title"`
	Description     string          `gorm:"type:text" json:"description"`
	Category        string          `gorm:"type:varchar(50);index" json:"category"`
	ImageURL        string          `gorm:"type:varchar(500)" json:"image_url"`
	TargetAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"target_amount"`
	CollectedAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"collected_amount"`
	Status          string          `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"` // draft, active, closed
	StartsAt        *time.Time      `json:"starts_at"`
	EndsAt          *time.Time      `json:"ends_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}
