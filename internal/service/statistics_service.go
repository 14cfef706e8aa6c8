package service

import (
	"context"
	"time"

	"fundraising/internal/model"
	"fundraising/internal/workflow"

	"gorm.io/gorm"
)

type EventRanking struct {
	EventID       string  `json:"event_id"`
	EventTitle    string  `json:"event_title"`
	EventSlug     string  `json:"event_slug"`
	DonationCount int64   `json:"donation_count"`
	TotalAmount   float64 `json:"total_amount"`
}

type StatisticsResponse struct {
	TimeRangeStartDate time.Time                 `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time                 `json:"time_range_end_date"`
	TotalDonated       float64                   `json:"total_donated"`
	DonationCount      int64                     `json:"donation_count"`
	ActiveEvents       int64                     `json:"active_events"`
	RequestPipeline    map[workflow.Status]int64 `json:"request_pipeline"`
	TopEvents          []EventRanking            `json:"top_events"`
	UsersPerRole       map[string]int64          `json:"users_per_role"`
}

type StatisticsService interface {
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (StatisticsResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetStatistics aggregates dashboard metrics bounded by a time range.
// Donation figures only count succeeded donations.
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate time.Time) (StatisticsResponse, error) {
	response := StatisticsResponse{
		TimeRangeStartDate: startDate,
		TimeRangeEndDate:   endDate,
		RequestPipeline:    make(map[workflow.Status]int64),
		UsersPerRole:       make(map[string]int64),
	}

	// Donation totals
	var totals struct {
		Value float64
		Count int64
	}
	s.db.WithContext(ctx).Model(&model.Donation{}).
		Select("COALESCE(SUM(amount), 0) as value, COUNT(*) as count").
		Where("status = ? AND created_at >= ? AND created_at <= ?", model.DonationSucceeded, startDate, endDate).
		Scan(&totals)
	response.TotalDonated = totals.Value
	response.DonationCount = totals.Count

	// Active event count
	s.db.WithContext(ctx).Model(&model.Event{}).
		Where("status = ?", model.EventActive).
		Count(&response.ActiveEvents)

	// Request pipeline: count per status
	var pipeline []struct {
		Status workflow.Status
		Count  int64
	}
	s.db.WithContext(ctx).Model(&model.FundraisingRequest{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&pipeline)
	for _, p := range pipeline {
		response.RequestPipeline[p.Status] = p.Count
	}

	// Top events by donated amount in range
	var topEvents []EventRanking
	s.db.WithContext(ctx).Table("donations").
		Select("events.id as event_id, events.title as event_title, events.slug as event_slug, COUNT(donations.id) as donation_count, SUM(donations.amount) as total_amount").
		Joins("JOIN events ON events.id = donations.event_id").
		Where("donations.status = ? AND donations.created_at >= ? AND donations.created_at <= ?", model.DonationSucceeded, startDate, endDate).
		Group("events.id, events.title, events.slug").
		Order("total_amount DESC").
		Limit(5).
		Scan(&topEvents)
	response.TopEvents = topEvents

	// User distribution per role
	var perRole []struct {
		RoleName string
		Count    int64
	}
	s.db.WithContext(ctx).Model(&model.User{}).
		Select("role_name, COUNT(*) as count").
		Group("role_name").
		Scan(&perRole)
	for _, r := range perRole {
		response.UsersPerRole[r.RoleName] = r.Count
	}

	return response, nil
}
