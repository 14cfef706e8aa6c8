package repository

import (
	"context"

	"fundraising/internal/model"
	"fundraising/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestRepository defines data access for fundraising requests.
type RequestRepository interface {
	Create(ctx context.Context, req *model.FundraisingRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.FundraisingRequest, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.FundraisingRequest, error)
	List(ctx context.Context, statuses []workflow.Status, page, limit int) ([]model.FundraisingRequest, int64, error)
	ListApprovedWithoutEvent(ctx context.Context) ([]model.FundraisingRequest, error)
	Update(ctx context.Context, req *model.FundraisingRequest) error
	AppendReview(ctx context.Context, review *model.RequestReview) error
	SaveDecision(ctx context.Context, decision *model.ApprovalDecision) error
	CountAcceptedDecisions(ctx context.Context, requestID uuid.UUID) (int64, error)
	EventTaken(ctx context.Context, eventID uuid.UUID) (bool, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.FundraisingRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.FundraisingRequest, error) {
	var req model.FundraisingRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.FundraisingRequest, error) {
	var req model.FundraisingRequest
	err := GetDB(ctx, r.db).
		Preload("Requester").
		Preload("Event").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("request_reviews.created_at ASC")
		}).
		Preload("Reviews.Changer").
		Preload("Decisions").
		Preload("Decisions.Reviewer").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, statuses []workflow.Status, page, limit int) ([]model.FundraisingRequest, int64, error) {
	var requests []model.FundraisingRequest
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.FundraisingRequest{})
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Preload("Requester").Preload("Event")
	if len(statuses) > 0 {
		fetch = fetch.Where("status IN ?", statuses)
	}
	if err := fetch.Order("created_at DESC").Offset(offset).Limit(limit).Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// ListApprovedWithoutEvent returns the candidates for the connect-to-event
// step: approved requests that have no event attached yet.
func (r *requestRepository) ListApprovedWithoutEvent(ctx context.Context) ([]model.FundraisingRequest, error) {
	var requests []model.FundraisingRequest
	err := GetDB(ctx, r.db).
		Preload("Requester").
		Where("status = ? AND event_id IS NULL", workflow.StatusApproved).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *requestRepository) Update(ctx context.Context, req *model.FundraisingRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

func (r *requestRepository) AppendReview(ctx context.Context, review *model.RequestReview) error {
	return GetDB(ctx, r.db).Create(review).Error
}

func (r *requestRepository) SaveDecision(ctx context.Context, decision *model.ApprovalDecision) error {
	return GetDB(ctx, r.db).Create(decision).Error
}

func (r *requestRepository) CountAcceptedDecisions(ctx context.Context, requestID uuid.UUID) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.ApprovalDecision{}).
		Where("request_id = ? AND action = ?", requestID, workflow.DecisionAccepted).
		Count(&total).Error
	return total, err
}

// EventTaken reports whether another request is already connected to the event.
func (r *requestRepository) EventTaken(ctx context.Context, eventID uuid.UUID) (bool, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.FundraisingRequest{}).
		Where("event_id = ?", eventID).
		Count(&total).Error
	return total > 0, err
}
