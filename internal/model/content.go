package model

import (
	"time"

	"github.com/google/uuid"
)

// Slider is a homepage carousel entry managed from the admin back-office.
type Slider struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Caption   string    `gorm:"type:varchar(500)" json:"caption"`
	ImageURL  string    `gorm:"type:varchar(500);not null" json:"image_url"`
	LinkURL   string    `gorm:"type:varchar(500)" json:"link_url"`
	Position  int       `gorm:"not null;default:0;index" json:"position"`
	Active    bool      `gorm:"default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MenuItem is a site navigation entry. ParentID nests items one level deep.
type MenuItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Label     string     `gorm:"type:varchar(100);not null" json:"label"`
	URL       string     `gorm:"type:varchar(500);not null" json:"url"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index" json:"parent_id"`
	Position  int        `gorm:"not null;default:0;index" json:"position"`
	Active    bool       `gorm:"default:true" json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
