package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Donation status values
const (
	DonationPending   = "pending"
	DonationSucceeded = "succeeded"
	DonationFailed    = "failed"
)

// Donation is a single contribution against an event. Payment processing
// happens outside this system; PaymentRef is the processor's opaque id.
type Donation struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	EventID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"event_id"`
	Event      *Event          `gorm:"foreignKey:EventID" json:"event,omitempty"`
	DonorName  string          `gorm:"type:varchar(255)" json:"donor_name"`
	DonorEmail string          `gorm:"type:varchar(255)" json:"donor_email"`
	Anonymous  bool            `gorm:"default:false" json:"anonymous"`
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Currency   string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Status     string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"` // pending, succeeded, failed
	PaymentRef string          `gorm:"type:varchar(255);index" json:"payment_ref"`
	CreatedAt  time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
