package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fundraising/internal/model"
	"fundraising/internal/repository"
	"fundraising/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRequestDTO struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	FundType     string `json:"fund_type" binding:"required,oneof=individual organization"`
	TargetAmount string `json:"target_amount" binding:"required"`
	Category     string `json:"fundraising_category" binding:"required"`
}

type ResubmitRequestDTO struct {
	Description string `json:"description"`
	Comments    string `json:"comments" binding:"required"`
}

type SubmitReviewDTO struct {
	Status   string `json:"status" binding:"required"`
	Comments string `json:"comments"`
	Deadline string `json:"deadline"` // YYYY-MM-DD, empty when none
}

type SubmitApprovalDTO struct {
	Action   string `json:"action" binding:"required"`
	Comments string `json:"comments"`
}

type PublishRequestDTO struct {
	EventID string `json:"event_id" binding:"required"`
}

type RequestFilter struct {
	Statuses []workflow.Status
	Page     int
	Limit    int
}

type ReviewEntryResponse struct {
	Status    workflow.Status `json:"status"`
	Comments  string          `json:"comments"`
	Deadline  *string         `json:"deadline"`
	ChangedBy string          `json:"changed_by"`
	ChangedAt string          `json:"changed_at"`
}

type DecisionResponse struct {
	ReviewerID   string `json:"reviewer_id"`
	ReviewerName string `json:"reviewer_name"`
	Action       string `json:"action"`
	Comments     string `json:"comments"`
	CreatedAt    string `json:"created_at"`
}

type RequestResponse struct {
	UUID          string          `json:"uuid"`
	RequestNumber string          `json:"request_number"`
	Title         string          `json:"title"`
	Status        workflow.Status `json:"status"`
	FundType      string          `json:"fund_type"`
	TargetAmount  string          `json:"target_amount"`
	Category      string          `json:"fundraising_category"`
	RequesterName string          `json:"requester_name,omitempty"`
	EventID       *string         `json:"event_id"`
	CreatedAt     string          `json:"created_at"`
}

type RequestDetailResponse struct {
	RequestResponse
	Description     string                   `json:"description"`
	Reviews         []ReviewEntryResponse    `json:"reviews"`
	Decisions       []DecisionResponse       `json:"decisions"`
	ApprovalSummary workflow.ApprovalSummary `json:"approval_summary"`
}

// --- Interface ---

type RequestService interface {
	CreateRequest(ctx context.Context, req CreateRequestDTO, requesterID string) (RequestDetailResponse, error)
	ResubmitRequest(ctx context.Context, id string, req ResubmitRequestDTO, actorID string) (RequestDetailResponse, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]RequestResponse, int64, error)
	GetRequest(ctx context.Context, id string) (RequestDetailResponse, error)
	SubmitReview(ctx context.Context, id string, req SubmitReviewDTO, actorID string) (RequestDetailResponse, error)
	SubmitApproval(ctx context.Context, id string, req SubmitApprovalDTO, actorID string) (RequestDetailResponse, error)
	PublishRequest(ctx context.Context, id string, req PublishRequestDTO, actorID string) (RequestDetailResponse, error)
	ListApprovedWithoutEvents(ctx context.Context) ([]RequestResponse, error)
}

type requestService struct {
	db        *gorm.DB
	repo      repository.RequestRepository
	tx        repository.TransactionManager
	hub       interface{ GetBroadcast() chan []byte } // optional websocket hub
	threshold int                                     // reviewers required before a request becomes approved
}

// NewRequestService wires the request workflow. threshold is the number of
// accepting reviewers required for approval; values below 1 fall back to 3.
func NewRequestService(db *gorm.DB, hub interface{ GetBroadcast() chan []byte }, threshold int) RequestService {
	if threshold < 1 {
		threshold = 3
	}
	return &requestService{
		db:        db,
		repo:      repository.NewRequestRepository(db),
		tx:        repository.NewTransactionManager(db),
		hub:       hub,
		threshold: threshold,
	}
}

// --- Implementation ---

func (s *requestService) CreateRequest(ctx context.Context, req CreateRequestDTO, requesterID string) (RequestDetailResponse, error) {
	amount, err := decimal.NewFromString(req.TargetAmount)
	if err != nil || amount.Cmp(decimal.Zero) <= 0 {
		return RequestDetailResponse{}, &workflow.ValidationError{Reason: "Target amount must be a positive number"}
	}
	if !validCategory(req.Category) {
		return RequestDetailResponse{}, &workflow.ValidationError{Reason: fmt.Sprintf("%q is not a valid fundraising category", req.Category)}
	}

	var requester *uuid.UUID
	if parsed, parseErr := uuid.Parse(requesterID); parseErr == nil {
		requester = &parsed
	}

	request := model.FundraisingRequest{
		Title:        req.Title,
		Description:  req.Description,
		Status:       workflow.StatusSubmitted,
		FundType:     req.FundType,
		TargetAmount: amount,
		Category:     req.Category,
		RequestedBy:  requester,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		number, numErr := s.generateRequestNumber(txCtx)
		if numErr != nil {
			return fmt.Errorf("failed to generate request number: %w", numErr)
		}
		request.RequestNumber = number

		if createErr := s.repo.Create(txCtx, &request); createErr != nil {
			return fmt.Errorf("failed to create fundraising request: %w", createErr)
		}

		return s.writeAudit(txCtx, requester, model.ActionSubmitRequest, request, map[string]interface{}{
			"fund_type":     req.FundType,
			"target_amount": amount.StringFixed(2),
			"category":      req.Category,
		})
	})
	if err != nil {
		return RequestDetailResponse{}, err
	}

	return s.reload(ctx, request.ID)
}

func (s *requestService) ResubmitRequest(ctx context.Context, id string, req ResubmitRequestDTO, actorID string) (RequestDetailResponse, error) {
	request, actor, err := s.loadForAction(ctx, id, actorID)
	if err != nil {
		return RequestDetailResponse{}, err
	}

	if !workflow.CanResubmit(request.Status) {
		return RequestDetailResponse{}, &workflow.ValidationError{
			Reason: fmt.Sprintf("request is %s and cannot be resubmitted", request.Status),
		}
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		request.Status = workflow.StatusResubmitted
		if req.Description != "" {
			request.Description = req.Description
		}
		if updateErr := s.repo.Update(txCtx, request); updateErr != nil {
			return fmt.Errorf("failed to update request: %w", updateErr)
		}

		review := model.RequestReview{
			RequestID: request.ID,
			Status:    workflow.StatusResubmitted,
			Comments:  req.Comments,
			ChangedBy: actor,
		}
		if reviewErr := s.repo.AppendReview(txCtx, &review); reviewErr != nil {
			return fmt.Errorf("failed to append review entry: %w", reviewErr)
		}

		return s.writeAudit(txCtx, actor, model.ActionResubmitRequest, *request, map[string]interface{}{
			"comments": req.Comments,
		})
	})
	if err != nil {
		return RequestDetailResponse{}, err
	}

	s.broadcast(request.RequestNumber, workflow.StatusResubmitted)
	return s.reload(ctx, request.ID)
}

func (s *requestService) ListRequests(ctx context.Context, filter RequestFilter) ([]RequestResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, 0, &workflow.ValidationError{Reason: fmt.Sprintf("%q is not a valid request status", string(st))}
		}
	}

	requests, total, err := s.repo.List(ctx, filter.Statuses, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch fundraising requests: %w", err)
	}

	result := make([]RequestResponse, 0, len(requests))
	for _, r := range requests {
		result = append(result, toRequestResponse(r))
	}
	return result, total, nil
}

func (s *requestService) GetRequest(ctx context.Context, id string) (RequestDetailResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return RequestDetailResponse{}, &workflow.ValidationError{Reason: "invalid request id"}
	}

	request, err := s.repo.FindByIDWithRelations(ctx, requestID)
	if err != nil {
		return RequestDetailResponse{}, fmt.Errorf("fundraising request not found: %w", err)
	}

	if expired, expErr := s.expireIfOverdue(ctx, request); expErr != nil {
		return RequestDetailResponse{}, expErr
	} else if expired {
		return s.reload(ctx, request.ID)
	}

	return s.toDetailResponse(ctx, *request)
}

func (s *requestService) SubmitReview(ctx context.Context, id string, req SubmitReviewDTO, actorID string) (RequestDetailResponse, error) {
	request, actor, err := s.loadForAction(ctx, id, actorID)
	if err != nil {
		return RequestDetailResponse{}, err
	}
	if _, expErr := s.expireIfOverdue(ctx, request); expErr != nil {
		return RequestDetailResponse{}, expErr
	}

	input, err := parseReviewInput(req)
	if err != nil {
		return RequestDetailResponse{}, err
	}
	if err := workflow.ValidateReview(request.Status, input, time.Now()); err != nil {
		return RequestDetailResponse{}, err
	}

	payload := workflow.BuildReviewPayload(input)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		request.Status = input.Target
		if updateErr := s.repo.Update(txCtx, request); updateErr != nil {
			return fmt.Errorf("failed to update request status: %w", updateErr)
		}

		review := model.RequestReview{
			RequestID: request.ID,
			Status:    input.Target,
			Comments:  payload.Comments,
			Deadline:  input.Deadline,
			ChangedBy: actor,
		}
		if reviewErr := s.repo.AppendReview(txCtx, &review); reviewErr != nil {
			return fmt.Errorf("failed to append review entry: %w", reviewErr)
		}

		return s.writeAudit(txCtx, actor, model.ActionSubmitReview, *request, payload)
	})
	if err != nil {
		return RequestDetailResponse{}, err
	}

	s.broadcast(request.RequestNumber, request.Status)
	return s.reload(ctx, request.ID)
}

func (s *requestService) SubmitApproval(ctx context.Context, id string, req SubmitApprovalDTO, actorID string) (RequestDetailResponse, error) {
	request, actor, err := s.loadForAction(ctx, id, actorID)
	if err != nil {
		return RequestDetailResponse{}, err
	}
	if actor == nil {
		return RequestDetailResponse{}, &workflow.ValidationError{Reason: "reviewer identity is required"}
	}
	if _, expErr := s.expireIfOverdue(ctx, request); expErr != nil {
		return RequestDetailResponse{}, expErr
	}

	input := workflow.DecisionInput{Action: req.Action, Comment: req.Comments}
	if err := workflow.ValidateDecision(request.Status, input); err != nil {
		return RequestDetailResponse{}, err
	}
	for _, d := range request.Decisions {
		if d.ReviewerID == *actor {
			return RequestDetailResponse{}, &workflow.ValidationError{Reason: "You have already submitted a decision for this request"}
		}
	}

	payload := workflow.BuildDecisionPayload(input)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		decision := model.ApprovalDecision{
			RequestID:  request.ID,
			ReviewerID: *actor,
			Action:     payload.Action,
			Comments:   payload.Comments,
		}
		if decErr := s.repo.SaveDecision(txCtx, &decision); decErr != nil {
			return fmt.Errorf("failed to record decision: %w", decErr)
		}

		// A single rejection ends the review; acceptances accumulate until
		// the threshold is met.
		switch payload.Action {
		case workflow.DecisionRejected:
			if trErr := s.transition(txCtx, request, workflow.StatusRejected, payload.Comments, actor); trErr != nil {
				return trErr
			}
		case workflow.DecisionAccepted:
			accepted, countErr := s.repo.CountAcceptedDecisions(txCtx, request.ID)
			if countErr != nil {
				return fmt.Errorf("failed to tally decisions: %w", countErr)
			}
			summary := workflow.ApprovalSummary{
				ApprovedCount:      int(accepted),
				TotalApprovalUsers: s.threshold,
			}
			if summary.Ready() {
				if trErr := s.transition(txCtx, request, workflow.StatusApproved, payload.Comments, actor); trErr != nil {
					return trErr
				}
			}
		}

		return s.writeAudit(txCtx, actor, model.ActionSubmitApproval, *request, payload)
	})
	if err != nil {
		return RequestDetailResponse{}, err
	}

	s.broadcast(request.RequestNumber, request.Status)
	return s.reload(ctx, request.ID)
}

func (s *requestService) PublishRequest(ctx context.Context, id string, req PublishRequestDTO, actorID string) (RequestDetailResponse, error) {
	request, actor, err := s.loadForAction(ctx, id, actorID)
	if err != nil {
		return RequestDetailResponse{}, err
	}

	if err := workflow.ValidatePublish(request.Status, request.EventID != nil, req.EventID); err != nil {
		return RequestDetailResponse{}, err
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return RequestDetailResponse{}, &workflow.ValidationError{Reason: "invalid event id"}
	}

	var event model.Event
	if err := s.db.WithContext(ctx).First(&event, "id = ?", eventID).Error; err != nil {
		return RequestDetailResponse{}, &workflow.ValidationError{Reason: "Event not found"}
	}
	taken, err := s.repo.EventTaken(ctx, eventID)
	if err != nil {
		return RequestDetailResponse{}, fmt.Errorf("failed to check event availability: %w", err)
	}
	if taken {
		return RequestDetailResponse{}, &workflow.ValidationError{Reason: "Event is already connected to another request"}
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		request.EventID = &eventID
		if err := s.transition(txCtx, request, workflow.StatusPublished, "Connected to event "+event.Title, actor); err != nil {
			return err
		}
		return s.writeAudit(txCtx, actor, model.ActionPublishRequest, *request, workflow.PublishPayload{EventID: eventID.String()})
	})
	if err != nil {
		return RequestDetailResponse{}, err
	}

	s.broadcast(request.RequestNumber, workflow.StatusPublished)
	return s.reload(ctx, request.ID)
}

func (s *requestService) ListApprovedWithoutEvents(ctx context.Context) ([]RequestResponse, error) {
	requests, err := s.repo.ListApprovedWithoutEvent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}

	result := make([]RequestResponse, 0, len(requests))
	for _, r := range requests {
		result = append(result, toRequestResponse(r))
	}
	return result, nil
}

// --- Internals ---

// loadForAction fetches the request with relations and resolves the actor id.
func (s *requestService) loadForAction(ctx context.Context, id, actorID string) (*model.FundraisingRequest, *uuid.UUID, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil, &workflow.ValidationError{Reason: "invalid request id"}
	}

	request, err := s.repo.FindByIDWithRelations(ctx, requestID)
	if err != nil {
		return nil, nil, fmt.Errorf("fundraising request not found: %w", err)
	}

	var actor *uuid.UUID
	if parsed, parseErr := uuid.Parse(actorID); parseErr == nil {
		actor = &parsed
	}
	return request, actor, nil
}

// transition moves the request to a new status inside the current
// transaction, appending the matching review-trail entry. The caller writes
// its own audit record.
func (s *requestService) transition(txCtx context.Context, request *model.FundraisingRequest, to workflow.Status, comments string, actor *uuid.UUID) error {
	request.Status = to
	if err := s.repo.Update(txCtx, request); err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	review := model.RequestReview{
		RequestID: request.ID,
		Status:    to,
		Comments:  comments,
		ChangedBy: actor,
	}
	if err := s.repo.AppendReview(txCtx, &review); err != nil {
		return fmt.Errorf("failed to append review entry: %w", err)
	}
	return nil
}

// expireIfOverdue lazily moves an in-review request past its deadline to
// expired. Returns whether the request was expired.
func (s *requestService) expireIfOverdue(ctx context.Context, request *model.FundraisingRequest) (bool, error) {
	if !workflow.ShouldExpire(request.Status, request.ActiveDeadline(), time.Now()) {
		return false, nil
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		request.Status = workflow.StatusExpired
		if updateErr := s.repo.Update(txCtx, request); updateErr != nil {
			return fmt.Errorf("failed to expire request: %w", updateErr)
		}
		review := model.RequestReview{
			RequestID: request.ID,
			Status:    workflow.StatusExpired,
			Comments:  "Review deadline passed",
		}
		if reviewErr := s.repo.AppendReview(txCtx, &review); reviewErr != nil {
			return fmt.Errorf("failed to append review entry: %w", reviewErr)
		}
		return s.writeAudit(txCtx, nil, model.ActionExpireRequest, *request, nil)
	})
	if err != nil {
		return false, err
	}

	s.broadcast(request.RequestNumber, workflow.StatusExpired)
	return true, nil
}

func (s *requestService) writeAudit(txCtx context.Context, actor *uuid.UUID, action string, request model.FundraisingRequest, details interface{}) error {
	payload, _ := json.Marshal(details)
	audit := model.AuditLog{
		UserID:     actor,
		Action:     action,
		EntityID:   request.ID.String(),
		EntityName: request.RequestNumber,
		Details:    string(payload),
	}
	if err := repository.GetDB(txCtx, s.db).Create(&audit).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *requestService) broadcast(requestNumber string, status workflow.Status) {
	if s.hub == nil {
		return
	}
	msg, _ := json.Marshal(map[string]interface{}{
		"type":           "request_status_changed",
		"request_number": requestNumber,
		"status":         status,
	})
	select {
	case s.hub.GetBroadcast() <- msg:
	default:
	}
}

func (s *requestService) reload(ctx context.Context, id uuid.UUID) (RequestDetailResponse, error) {
	request, err := s.repo.FindByIDWithRelations(ctx, id)
	if err != nil {
		return RequestDetailResponse{}, fmt.Errorf("failed to reload request: %w", err)
	}
	return s.toDetailResponse(ctx, *request)
}

func (s *requestService) toDetailResponse(ctx context.Context, request model.FundraisingRequest) (RequestDetailResponse, error) {
	accepted, err := s.repo.CountAcceptedDecisions(ctx, request.ID)
	if err != nil {
		return RequestDetailResponse{}, fmt.Errorf("failed to tally decisions: %w", err)
	}

	detail := RequestDetailResponse{
		RequestResponse: toRequestResponse(request),
		Description:     request.Description,
		Reviews:         make([]ReviewEntryResponse, 0, len(request.Reviews)),
		Decisions:       make([]DecisionResponse, 0, len(request.Decisions)),
		ApprovalSummary: workflow.ApprovalSummary{
			ApprovedCount:      int(accepted),
			TotalApprovalUsers: s.threshold,
		},
	}

	for _, rev := range request.Reviews {
		entry := ReviewEntryResponse{
			Status:    rev.Status,
			Comments:  rev.Comments,
			ChangedAt: rev.CreatedAt.Format(time.RFC3339),
		}
		if rev.Deadline != nil {
			d := rev.Deadline.Format(workflow.DeadlineFormat)
			entry.Deadline = &d
		}
		if rev.Changer != nil {
			entry.ChangedBy = rev.Changer.Username
		}
		detail.Reviews = append(detail.Reviews, entry)
	}

	for _, d := range request.Decisions {
		dec := DecisionResponse{
			ReviewerID: d.ReviewerID.String(),
			Action:     d.Action,
			Comments:   d.Comments,
			CreatedAt:  d.CreatedAt.Format(time.RFC3339),
		}
		if d.Reviewer != nil {
			dec.ReviewerName = d.Reviewer.Username
		}
		detail.Decisions = append(detail.Decisions, dec)
	}

	return detail, nil
}

func (s *requestService) generateRequestNumber(txCtx context.Context) (string, error) {
	today := time.Now().Format("20060102")
	prefix := "FR-" + today + "-"

	db := repository.GetDB(txCtx, s.db)
	// Advisory lock prevents concurrent duplicate request numbers on Postgres.
	if db.Dialector.Name() == "postgres" {
		db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)
	}

	var count int64
	if err := db.Model(&model.FundraisingRequest{}).
		Where("request_number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

// --- Helpers ---

// parseReviewInput maps the wire DTO to a workflow input, resolving the
// technical_check_passed action alias to its stored status.
func parseReviewInput(req SubmitReviewDTO) (workflow.ReviewInput, error) {
	target := workflow.Status(req.Status)
	if req.Status == workflow.ActionTechnicalCheckPassed {
		target = workflow.StatusInReview
	}

	input := workflow.ReviewInput{Target: target, Comment: req.Comments}
	if req.Deadline != "" {
		parsed, err := time.Parse(workflow.DeadlineFormat, req.Deadline)
		if err != nil {
			return workflow.ReviewInput{}, &workflow.ValidationError{Reason: "Deadline must be a YYYY-MM-DD date"}
		}
		input.Deadline = &parsed
	}
	return input, nil
}

func validCategory(category string) bool {
	for _, c := range model.FundraisingCategories {
		if c == category {
			return true
		}
	}
	return false
}

func toRequestResponse(r model.FundraisingRequest) RequestResponse {
	resp := RequestResponse{
		UUID:          r.ID.String(),
		RequestNumber: r.RequestNumber,
		Title:         r.Title,
		Status:        r.Status,
		FundType:      r.FundType,
		TargetAmount:  r.TargetAmount.StringFixed(2),
		Category:      r.Category,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
	if r.Requester != nil {
		resp.RequesterName = r.Requester.Username
	}
	if r.EventID != nil {
		id := r.EventID.String()
		resp.EventID = &id
	}
	return resp
}
