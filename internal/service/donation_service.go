package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fundraising/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- DTOs ---

type RecordDonationRequest struct {
	EventID    string `json:"event_id" binding:"required"`
	DonorName  string `json:"donor_name"`
	DonorEmail string `json:"donor_email" binding:"omitempty,email"`
	Anonymous  bool   `json:"anonymous"`
	Amount     string `json:"amount" binding:"required"`
	Currency   string `json:"currency"`
	PaymentRef string `json:"payment_ref"`
	Status     string `json:"status" binding:"omitempty,oneof=pending succeeded failed"`
}

type DonationFilter struct {
	EventID string
	Status  string
	Page    int
	Limit   int
}

type DonationResponse struct {
	ID         string `json:"id"`
	EventID    string `json:"event_id"`
	EventTitle string `json:"event_title,omitempty"`
	DonorName  string `json:"donor_name"`
	Anonymous  bool   `json:"anonymous"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	Status     string `json:"status"`
	PaymentRef string `json:"payment_ref"`
	CreatedAt  string `json:"created_at"`
}

// --- Interface ---

type DonationService interface {
	RecordDonation(ctx context.Context, req RecordDonationRequest) (*DonationResponse, error)
	ListDonations(ctx context.Context, filter DonationFilter) ([]DonationResponse, int64, error)
}

type donationService struct {
	db  *gorm.DB
	hub interface{ GetBroadcast() chan []byte } // optional websocket hub
}

func NewDonationService(db *gorm.DB, hub interface{ GetBroadcast() chan []byte }) DonationService {
	return &donationService{db: db, hub: hub}
}

// --- Implementation ---

// RecordDonation stores a donation and, when it is already succeeded, rolls
// its amount into the event total. Succeeded donations arrive from the
// payment processor's confirmation callback.
func (s *donationService) RecordDonation(ctx context.Context, req RecordDonationRequest) (*DonationResponse, error) {
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event id: %w", err)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.Cmp(decimal.Zero) <= 0 {
		return nil, fmt.Errorf("amount must be a positive number")
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	status := req.Status
	if status == "" {
		status = model.DonationPending
	}

	donation := model.Donation{
		EventID:    eventID,
		DonorName:  req.DonorName,
		DonorEmail: req.DonorEmail,
		Anonymous:  req.Anonymous,
		Amount:     amount,
		Currency:   currency,
		Status:     status,
		PaymentRef: req.PaymentRef,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event model.Event
		if findErr := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&event, "id = ?", eventID).Error; findErr != nil {
			return fmt.Errorf("event not found: %w", findErr)
		}
		if event.Status != model.EventActive {
			return fmt.Errorf("event '%s' is not accepting donations", event.Title)
		}

		if createErr := tx.Create(&donation).Error; createErr != nil {
			return fmt.Errorf("failed to record donation: %w", createErr)
		}

		if status == model.DonationSucceeded {
			collected := event.CollectedAmount.Add(amount)
			if updateErr := tx.Model(&event).Update("collected_amount", collected).Error; updateErr != nil {
				return fmt.Errorf("failed to update event total: %w", updateErr)
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"event":  event.Slug,
			"amount": amount.StringFixed(2),
			"status": status,
		})
		audit := model.AuditLog{
			Action:     model.ActionRecordDonation,
			EntityID:   donation.ID.String(),
			EntityName: event.Title,
			Details:    string(details),
		}
		if auditErr := tx.Create(&audit).Error; auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcastDonation(donation)

	resp := toDonationResponse(donation)
	return &resp, nil
}

func (s *donationService) ListDonations(ctx context.Context, filter DonationFilter) ([]DonationResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&model.Donation{})
	if filter.EventID != "" {
		query = query.Where("event_id = ?", filter.EventID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count donations: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	var donations []model.Donation
	fetch := s.db.WithContext(ctx).Preload("Event")
	if filter.EventID != "" {
		fetch = fetch.Where("event_id = ?", filter.EventID)
	}
	if filter.Status != "" {
		fetch = fetch.Where("status = ?", filter.Status)
	}
	if err := fetch.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&donations).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch donations: %w", err)
	}

	res := make([]DonationResponse, 0, len(donations))
	for _, d := range donations {
		res = append(res, toDonationResponse(d))
	}
	return res, total, nil
}

// --- Helpers ---

func (s *donationService) broadcastDonation(d model.Donation) {
	if s.hub == nil {
		return
	}
	msg, _ := json.Marshal(map[string]interface{}{
		"type":     "donation_recorded",
		"event_id": d.EventID.String(),
		"amount":   d.Amount.StringFixed(2),
		"status":   d.Status,
	})
	select {
	case s.hub.GetBroadcast() <- msg:
	default:
	}
}

func toDonationResponse(d model.Donation) DonationResponse {
	name := d.DonorName
	if d.Anonymous {
		name = "Anonymous"
	}
	resp := DonationResponse{
		ID:         d.ID.String(),
		EventID:    d.EventID.String(),
		DonorName:  name,
		Anonymous:  d.Anonymous,
		Amount:     d.Amount.StringFixed(2),
		Currency:   d.Currency,
		Status:     d.Status,
		PaymentRef: d.PaymentRef,
		CreatedAt:  d.CreatedAt.Format(time.RFC3339),
	}
	if d.Event != nil {
		resp.EventTitle = d.Event.Title
	}
	return resp
}
