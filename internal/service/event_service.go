package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"fundraising/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateEventRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	ImageURL     string `json:"image_url"`
	TargetAmount string `json:"target_amount" binding:"required"`
	StartsAt     string `json:"starts_at"` // RFC3339, optional
	EndsAt       string `json:"ends_at"`
}

type UpdateEventRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	ImageURL     string `json:"image_url"`
	TargetAmount string `json:"target_amount"`
	Status       string `json:"status" binding:"omitempty,oneof=draft active closed"`
	StartsAt     string `json:"starts_at"`
	EndsAt       string `json:"ends_at"`
}

type EventFilter struct {
	Status   string
	Category string
	Page     int
	Limit    int
}

type EventResponse struct {
	ID              string  `json:"id"`
	Slug            string  `json:"slug"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	ImageURL        string  `json:"image_url"`
	TargetAmount    string  `json:"target_amount"`
	CollectedAmount string  `json:"collected_amount"`
	Status          string  `json:"status"`
	StartsAt        *string `json:"starts_at"`
	EndsAt          *string `json:"ends_at"`
	CreatedAt       string  `json:"created_at"`
}

// --- Interface ---

type EventService interface {
	ListEvents(ctx context.Context, filter EventFilter) ([]EventResponse, int64, error)
	GetEvent(ctx context.Context, idOrSlug string) (*EventResponse, error)
	CreateEvent(ctx context.Context, req CreateEventRequest, actorID *uuid.UUID) (*EventResponse, error)
	UpdateEvent(ctx context.Context, id string, req UpdateEventRequest, actorID *uuid.UUID) (*EventResponse, error)
	DeleteEvent(ctx context.Context, id string, actorID *uuid.UUID) error
}

type eventService struct {
	db *gorm.DB
}

func NewEventService(db *gorm.DB) EventService {
	return &eventService{db: db}
}

// --- Implementation ---

func (s *eventService) ListEvents(ctx context.Context, filter EventFilter) ([]EventResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	var total int64
	query := s.db.WithContext(ctx).Model(&model.Event{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	var events []model.Event
	fetch := s.db.WithContext(ctx)
	if filter.Status != "" {
		fetch = fetch.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		fetch = fetch.Where("category = ?", filter.Category)
	}
	if err := fetch.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch events: %w", err)
	}

	res := make([]EventResponse, 0, len(events))
	for _, e := range events {
		res = append(res, toEventResponse(e))
	}
	return res, total, nil
}

func (s *eventService) GetEvent(ctx context.Context, idOrSlug string) (*EventResponse, error) {
	var event model.Event
	query := s.db.WithContext(ctx)
	if _, err := uuid.Parse(idOrSlug); err == nil {
		query = query.Where("id = ?", idOrSlug)
	} else {
		query = query.Where("slug = ?", idOrSlug)
	}
	if err := query.First(&event).Error; err != nil {
		return nil, fmt.Errorf("event not found: %w", err)
	}
	resp := toEventResponse(event)
	return &resp, nil
}

func (s *eventService) CreateEvent(ctx context.Context, req CreateEventRequest, actorID *uuid.UUID) (*EventResponse, error) {
	amount, err := decimal.NewFromString(req.TargetAmount)
	if err != nil || amount.Cmp(decimal.Zero) <= 0 {
		return nil, fmt.Errorf("target amount must be a positive number")
	}

	startsAt, endsAt, err := parseEventWindow(req.StartsAt, req.EndsAt)
	if err != nil {
		return nil, err
	}

	event := model.Event{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		ImageURL:        req.ImageURL,
		TargetAmount:    amount,
		CollectedAmount: decimal.Zero,
		Status:          model.EventDraft,
		StartsAt:        startsAt,
		EndsAt:          endsAt,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, slugErr := s.uniqueSlug(tx, req.Title)
		if slugErr != nil {
			return slugErr
		}
		event.Slug = slug

		if createErr := tx.Create(&event).Error; createErr != nil {
			return fmt.Errorf("failed to create event: %w", createErr)
		}
		return writeEventAudit(tx, actorID, model.ActionCreateEvent, event)
	})
	if err != nil {
		return nil, err
	}

	resp := toEventResponse(event)
	return &resp, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, id string, req UpdateEventRequest, actorID *uuid.UUID) (*EventResponse, error) {
	eventID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid event id: %w", err)
	}

	var event model.Event
	if err := s.db.WithContext(ctx).First(&event, "id = ?", eventID).Error; err != nil {
		return nil, fmt.Errorf("event not found: %w", err)
	}

	if req.Title != "" {
		event.Title = req.Title
	}
	if req.Description != "" {
		event.Description = req.Description
	}
	if req.Category != "" {
		event.Category = req.Category
	}
	if req.ImageURL != "" {
		event.ImageURL = req.ImageURL
	}
	if req.Status != "" {
		event.Status = req.Status
	}
	if req.TargetAmount != "" {
		amount, amountErr := decimal.NewFromString(req.TargetAmount)
		if amountErr != nil || amount.Cmp(decimal.Zero) <= 0 {
			return nil, fmt.Errorf("target amount must be a positive number")
		}
		event.TargetAmount = amount
	}
	startsAt, endsAt, err := parseEventWindow(req.StartsAt, req.EndsAt)
	if err != nil {
		return nil, err
	}
	if startsAt != nil {
		event.StartsAt = startsAt
	}
	if endsAt != nil {
		event.EndsAt = endsAt
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if saveErr := tx.Save(&event).Error; saveErr != nil {
			return fmt.Errorf("failed to update event: %w", saveErr)
		}
		return writeEventAudit(tx, actorID, model.ActionUpdateEvent, event)
	})
	if err != nil {
		return nil, err
	}

	resp := toEventResponse(event)
	return &resp, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id string, actorID *uuid.UUID) error {
	eventID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid event id: %w", err)
	}

	var event model.Event
	if err := s.db.WithContext(ctx).First(&event, "id = ?", eventID).Error; err != nil {
		return fmt.Errorf("event not found: %w", err)
	}

	// Events with a published request attached stay; unpublish first.
	var attached int64
	if err := s.db.WithContext(ctx).Model(&model.FundraisingRequest{}).
		Where("event_id = ?", eventID).Count(&attached).Error; err != nil {
		return fmt.Errorf("failed to check attached requests: %w", err)
	}
	if attached > 0 {
		return fmt.Errorf("event '%s' is connected to a published request", event.Title)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&event).Error; err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		return writeEventAudit(tx, actorID, model.ActionDeleteEvent, event)
	})
}

// --- Helpers ---

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// uniqueSlug derives a URL slug from the title, suffixing a counter on
// collision.
func (s *eventService) uniqueSlug(tx *gorm.DB, title string) (string, error) {
	base := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if base == "" {
		base = "event"
	}

	slug := base
	for i := 2; ; i++ {
		var count int64
		if err := tx.Model(&model.Event{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func parseEventWindow(startsAt, endsAt string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if startsAt != "" {
		t, err := time.Parse(time.RFC3339, startsAt)
		if err != nil {
			return nil, nil, fmt.Errorf("starts_at must be an RFC3339 timestamp")
		}
		start = &t
	}
	if endsAt != "" {
		t, err := time.Parse(time.RFC3339, endsAt)
		if err != nil {
			return nil, nil, fmt.Errorf("ends_at must be an RFC3339 timestamp")
		}
		end = &t
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, fmt.Errorf("ends_at must be after starts_at")
	}
	return start, end, nil
}

func writeEventAudit(tx *gorm.DB, actorID *uuid.UUID, action string, event model.Event) error {
	details, _ := json.Marshal(map[string]interface{}{
		"slug":   event.Slug,
		"status": event.Status,
		"target": event.TargetAmount.StringFixed(2),
	})
	audit := model.AuditLog{
		UserID:     actorID,
		Action:     action,
		EntityID:   event.ID.String(),
		EntityName: event.Title,
		Details:    string(details),
	}
	if err := tx.Create(&audit).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toEventResponse(e model.Event) EventResponse {
	resp := EventResponse{
		ID:              e.ID.String(),
		Slug:            e.Slug,
		Title:           e.Title,
		Description:     e.Description,
		Category:        e.Category,
		ImageURL:        e.ImageURL,
		TargetAmount:    e.TargetAmount.StringFixed(2),
		CollectedAmount: e.CollectedAmount.StringFixed(2),
		Status:          e.Status,
		CreatedAt:       e.CreatedAt.Format(time.RFC3339),
	}
	if e.StartsAt != nil {
		t := e.StartsAt.Format(time.RFC3339)
		resp.StartsAt = &t
	}
	if e.EndsAt != nil {
		t := e.EndsAt.Format(time.RFC3339)
		resp.EndsAt = &t
	}
	return resp
}
