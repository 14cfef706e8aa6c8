package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"fundraising/internal/model"
	"fundraising/internal/workflow"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Role{},
		&model.Permission{},
		&model.FundraisingRequest{},
		&model.RequestReview{},
		&model.ApprovalDecision{},
		&model.Event{},
		&model.AuditLog{},
	))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) model.User {
	t.Helper()
	user := model.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		RoleName: "Reviewer",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createTestEvent(t *testing.T, db *gorm.DB, slug string) model.Event {
	t.Helper()
	event := model.Event{
		Slug:         slug,
		Title:        "Flood Relief " + slug,
		TargetAmount: decimal.NewFromInt(10000),
		Status:       model.EventActive,
	}
	require.NoError(t, db.Create(&event).Error)
	return event
}

func submitTestRequest(t *testing.T, svc RequestService, requesterID string) RequestDetailResponse {
	t.Helper()
	detail, err := svc.CreateRequest(context.Background(), CreateRequestDTO{
		Title:        "School rebuild",
		Description:  "Rebuild the village school",
		FundType:     model.FundTypeOrganization,
		TargetAmount: "25000.00",
		Category:     "education",
	}, requesterID)
	require.NoError(t, err)
	return detail
}

// futureDate returns a deadline safely past the tomorrow-or-later boundary.
func futureDate() string {
	return time.Now().AddDate(0, 0, 7).Format(workflow.DeadlineFormat)
}

func TestCreateRequest(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRequestService(db, nil, 2)
	requester := createTestUser(t, db, "requester")

	detail := submitTestRequest(t, svc, requester.ID.String())

	require.Equal(t, workflow.StatusSubmitted, detail.Status)
	require.True(t, strings.HasPrefix(detail.RequestNumber, "FR-"), "request number %q", detail.RequestNumber)
	require.Equal(t, "25000.00", detail.TargetAmount)
	require.Equal(t, "requester", detail.RequesterName)

	var audits int64
	require.NoError(t, db.Model(&model.AuditLog{}).Where("action = ?", model.ActionSubmitRequest).Count(&audits).Error)
	require.EqualValues(t, 1, audits)

	// Sequential numbering within the same day
	second := submitTestRequest(t, svc, requester.ID.String())
	require.NotEqual(t, detail.RequestNumber, second.RequestNumber)
}

func TestCreateRequestValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRequestService(db, nil, 2)

	_, err := svc.CreateRequest(context.Background(), CreateRequestDTO{
		Title:        "Bad amount",
		FundType:     model.FundTypeIndividual,
		TargetAmount: "-5",
		Category:     "medical",
	}, uuid.NewString())
	require.Error(t, err)
	require.True(t, workflow.IsValidationError(err))

	_, err = svc.CreateRequest(context.Background(), CreateRequestDTO{
		Title:        "Bad category",
		FundType:     model.FundTypeIndividual,
		TargetAmount: "100",
		Category:     "yachts",
	}, uuid.NewString())
	require.Error(t, err)
	require.True(t, workflow.IsValidationError(err))
}

func TestReviewRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRequestService(db, nil, 2)
	requester := createTestUser(t, db, "requester")
	reviewer := createTestUser(t, db, "reviewer")
	ctx := context.Background()

	detail := submitTestRequest(t, svc, requester.ID.String())

	// Reviewer asks for more information
	detail, err := svc.SubmitReview(ctx, detail.UUID, SubmitReviewDTO{
		Status:   string(workflow.StatusInformationNeeded),
		Comments: "Please attach the school's registration certificate",
	}, reviewer.ID.String())
	require.NoError(t, err)
	require.Equal(t, workflow.StatusInformationNeeded, detail.Status)
	require.Len(t, detail.Reviews, 1)
	require.Equal(t, "reviewer", detail.Reviews[0].ChangedBy)
	require.Nil(t, detail.Reviews[0].Deadline)

	// Requester answers
	detail, err = svc.ResubmitRequest(ctx, detail.UUID, ResubmitRequestDTO{
		Comments: "Certificate attached to the description",
	}, requester.ID.String())
	require.NoError(t, err)
	require.Equal(t, workflow.StatusResubmitted, detail.Status)

	// Technical check passes, moving the request into review
	detail, err = svc.SubmitReview(ctx, detail.UUID, SubmitReviewDTO{
		Status:   workflow.ActionTechnicalCheckPassed,
		Comments: "Documents verified",
		Deadline: futureDate(),
	}, reviewer.ID.String())
	require.NoError(t, err)
	require.Equal(t, workflow.StatusInReview, detail.Status)
	require.Len(t, detail.Reviews, 3)
	require.NotNil(t, detail.Reviews[2].Deadline)
}

func TestSubmitReviewRequiresDeadline(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRequestService(db, nil, 2)
	reviewer := createTestUser(t, db, "reviewer")

	detail := submitTestRequest(t, svc, uuid.NewString())

	_, err := svc.SubmitReview(context.Background(), detail.UUID, SubmitReviewDTO{
		Status:   string(workflow.StatusInReview),
		Comments: "Documents verified",
	}, reviewer.ID.String())
	require.Error(t, err)
	require.True(t, workflow.IsValidationError(err))
	require.Contains(t, err.Error(), "Deadline is required")

	_, err = svc.SubmitReview(context.Background(), detail.UUID, SubmitReviewDTO{
		Status:   string(workflow.StatusInReview),
		Comments: "Documents verified",
		Deadline: time.Now().Format(workflow.DeadlineFormat),
	}, reviewer.ID.String())
	require.Error(t, err)
	require.Contains(t, err.Error(), "tomorrow or later")
}

func TestApprovalAggregation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRequestService(db, nil, 2)
	reviewer1 := createTestUser(t, db, "reviewer1")
	reviewer2 := createTestUser(t, db, "reviewer2")
	ctx := context.Background()

	detail := submitTestRequest(t, svc, uuid.NewString())
	detail, err := svc.SubmitReview(ctx, detail.UUID, SubmitReviewDTO{
		Status:   string(workflow.StatusInReview),
		Comments: "Documents verified",
		Deadline: futureDate(),
	}, reviewer1.ID.String())
	require.NoError(t, err)

	// First acceptance: below threshold, status holds
	detail, err = svc.SubmitApproval(ctx, detail.UUID, SubmitApprovalDTO{
		Action:   workflow.DecisionAccepted,
		Comments: "Budget looks sound",
	}, reviewer1.ID.String())
	require.NoError(t, err)
	require.Equal(t, workflow.StatusInReview, detail.Status)
	require.Equal(t, 1, detail.ApprovalSummary.ApprovedCount)
	require.Equal(t, 2, detail.ApprovalSummary.TotalApprovalUsers)

	// Same reviewer cannot vote twice
	_, err = svc.SubmitApproval(ctx, detail.UUID, SubmitApprovalDTO{
		Action:   workflow.DecisionAccepted,
		Comments: "Voting again",
	}, reviewer1.ID.String())
	require.Error(t, err)
	require.Contains(t, err.Error(), "already submitted")

	// Second acceptance reaches the threshold
	detail, err = svc.SubmitApproval(ctx, detail.UUID, SubmitApprovalDTO{
		Action:   workflow.DecisionAccepted,
		Comments: "Agreed, approving",
	}, reviewer2.ID.String())
	require.NoError(t, err)
	require.Equal(t, workflow.StatusApproved, detail.Status)
	require.Equal(t, 2, detail.ApprovalSummary.ApprovedCount)
	require.Len(t, detail.Decisions, 2)
}

func TestSingleRejectionEndsReview(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRequestService(db, nil, 3)
	reviewer := createTestUser(t, db, "reviewer")
	ctx := context.Background()

	detail := submitTestRequest(t, svc, uuid.NewString())
	detail, err := svc.SubmitReview(ctx, detail.UUID, SubmitReviewDTO{
		Status:   string(workflow.StatusInReview),
		Comments: "Documents verified",
		Deadline: futureDate(),
	}, reviewer.ID.String())
	require.NoError(t, err)

	detail, err = svc.SubmitApproval(ctx, detail.UUID, SubmitApprovalDTO{
		Action:   workflow.DecisionRejected,
		Comments: "Budget is unrealistic for the stated scope",
	}, reviewer.ID.String())
	require.NoError(t, err)
	require.Equal(t, workflow.StatusRejected, detail.Status)

	// Terminal: no further reviews accepted
	_, err = svc.SubmitReview(ctx, detail.UUID, SubmitReviewDTO{
		Status:   string(workflow.StatusInReview),
		Comments: "Reopening",
		Deadline: futureDate(),
	}, reviewer.ID.String())
	require.Error(t, err)
	require.True(t, workflow.IsValidationError(err))
}

func TestPublishRequest(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRequestService(db, nil, 1)
	reviewer := createTestUser(t, db, "reviewer")
	event := createTestEvent(t, db, "flood-relief")
	ctx := context.Background()

	detail := submitTestRequest(t, svc, uuid.NewString())
	detail, err := svc.SubmitReview(ctx, detail.UUID, SubmitReviewDTO{
		Status:   string(workflow.StatusInReview),
		Comments: "Documents verified",
		Deadline: futureDate(),
	}, reviewer.ID.String())
	require.NoError(t, err)
	detail, err = svc.SubmitApproval(ctx, detail.UUID, SubmitApprovalDTO{
		Action:   workflow.DecisionAccepted,
		Comments: "Approving request",
	}, reviewer.ID.String())
	require.NoError(t, err)
	require.Equal(t, workflow.StatusApproved, detail.Status)

	// Approved requests without events are publish candidates
	candidates, err := svc.ListApprovedWithoutEvents(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	detail, err = svc.PublishRequest(ctx, detail.UUID, PublishRequestDTO{EventID: event.ID.String()}, reviewer.ID.String())
	require.NoError(t, err)
	require.Equal(t, workflow.StatusPublished, detail.Status)
	require.NotNil(t, detail.EventID)
	require.Equal(t, event.ID.String(), *detail.EventID)

	candidates, err = svc.ListApprovedWithoutEvents(ctx)
	require.NoError(t, err)
	require.Empty(t, candidates)

	// A second approved request cannot take the same event
	second := submitTestRequest(t, svc, uuid.NewString())
	second, err = svc.SubmitReview(ctx, second.UUID, SubmitReviewDTO{
		Status:   string(workflow.StatusInReview),
		Comments: "Documents verified",
		Deadline: futureDate(),
	}, reviewer.ID.String())
	require.NoError(t, err)
	second, err = svc.SubmitApproval(ctx, second.UUID, SubmitApprovalDTO{
		Action:   workflow.DecisionAccepted,
		Comments: "Approving request",
	}, reviewer.ID.String())
	require.NoError(t, err)

	_, err = svc.PublishRequest(ctx, second.UUID, PublishRequestDTO{EventID: event.ID.String()}, reviewer.ID.String())
	require.Error(t, err)
	require.True(t, workflow.IsValidationError(err))
	require.Contains(t, err.Error(), "already connected to another request")
}

func TestLazyExpiry(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRequestService(db, nil, 2)
	reviewer := createTestUser(t, db, "reviewer")
	ctx := context.Background()

	detail := submitTestRequest(t, svc, uuid.NewString())

	// Force the request into review with a deadline already in the past
	requestID := uuid.MustParse(detail.UUID)
	yesterday := time.Now().AddDate(0, 0, -1)
	require.NoError(t, db.Model(&model.FundraisingRequest{}).
		Where("id = ?", requestID).
		Update("status", workflow.StatusInReview).Error)
	require.NoError(t, db.Create(&model.RequestReview{
		RequestID: requestID,
		Status:    workflow.StatusInReview,
		Comments:  "Documents verified",
		Deadline:  &yesterday,
		ChangedBy: &reviewer.ID,
	}).Error)

	detail, err := svc.GetRequest(ctx, detail.UUID)
	require.NoError(t, err)
	require.Equal(t, workflow.StatusExpired, detail.Status)

	var audits int64
	require.NoError(t, db.Model(&model.AuditLog{}).Where("action = ?", model.ActionExpireRequest).Count(&audits).Error)
	require.EqualValues(t, 1, audits)

	// Expired is terminal
	_, err = svc.SubmitApproval(ctx, detail.UUID, SubmitApprovalDTO{
		Action:   workflow.DecisionAccepted,
		Comments: "Too late now",
	}, reviewer.ID.String())
	require.Error(t, err)
}
