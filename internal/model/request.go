package model

import (
	"time"

	"fundraising/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fund types
const (
	FundTypeIndividual   = "individual"
	FundTypeOrganization = "organization"
)

// FundraisingCategories is the fixed list a request's category must come from.
var FundraisingCategories = []string{
	"medical", "education", "disaster_relief", "community",
	"animal_welfare", "environment", "other",
}

// FundraisingRequest is a fundraising application moving through the review
// pipeline. Status changes only through the workflow operations; Reviews is
// the append-only trail of those changes.
type FundraisingRequest struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	RequestNumber string             `gorm:"type:varchar(30);uniqueIndex;not null" json:"request_number"`
	Title         string             `gorm:"type:varchar(255);not null" json:"title"`
	Description   string             `gorm:"type:text" json:"description"`
	Status        workflow.Status    `gorm:"type:varchar(30);not null;default:'submitted';index" json:"status"`
	FundType      string             `gorm:"type:varchar(20);not null" json:"fund_type"` // individual, organization
	TargetAmount  decimal.Decimal    `gorm:"type:numeric(14,2);not null" json:"target_amount"`
	Category      string             `gorm:"type:varchar(50);not null;index" json:"fundraising_category"`
	RequestedBy   *uuid.UUID         `gorm:"type:uuid;index" json:"requested_by"`
	Requester     *User              `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	EventID       *uuid.UUID         `gorm:"type:uuid;index" json:"event_id"` // set only by the publish step
	Event         *Event             `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Reviews       []RequestReview    `gorm:"foreignKey:RequestID" json:"reviews,omitempty"`
	Decisions     []ApprovalDecision `gorm:"foreignKey:RequestID" json:"decisions,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// ActiveDeadline returns the deadline of the most recent review entry. It is
// only meaningful while the request awaits approval.
func (r FundraisingRequest) ActiveDeadline() *time.Time {
	if len(r.Reviews) == 0 {
		return nil
	}
	return r.Reviews[len(r.Reviews)-1].Deadline
}

// RequestReview is one append-only audit entry of a status change.
type RequestReview struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID uuid.UUID       `gorm:"type:uuid;not null;index" json:"request_id"`
	Status    workflow.Status `gorm:"type:varchar(30);not null" json:"status"`
	Comments  string          `gorm:"type:text;not null" json:"comments"`
	Deadline  *time.Time      `gorm:"type:date" json:"deadline"`
	ChangedBy *uuid.UUID      `gorm:"type:uuid" json:"changed_by"`
	Changer   *User           `gorm:"foreignKey:ChangedBy" json:"changer,omitempty"`
	CreatedAt time.Time       `gorm:"index" json:"changed_at"`
}

// ApprovalDecision is a single reviewer's vote on an in_review request.
// One decision per reviewer per request.
type ApprovalDecision struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_request_reviewer" json:"request_id"`
	ReviewerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_request_reviewer" json:"reviewer_id"`
	Reviewer   *User     `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Action     string    `gorm:"type:varchar(20);not null" json:"action"` // accepted, rejected
	Comments   string    `gorm:"type:text;not null" json:"comments"`
	CreatedAt  time.Time `json:"created_at"`
}
