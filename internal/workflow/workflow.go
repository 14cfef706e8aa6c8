// Package workflow implements the fundraising-request review lifecycle:
// which status transitions are legal, what inputs each transition requires,
// and the exact payloads the review endpoints accept. It performs no I/O —
// services validate here first and only then touch the database.
package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Status is the single authoritative lifecycle field of a fundraising request.
type Status string

const (
	StatusSubmitted         Status = "submitted"
	StatusResubmitted       Status = "resubmitted"
	StatusInformationNeeded Status = "information_needed"
	StatusInReview          Status = "in_review"
	StatusApproved          Status = "approved"
	StatusRejected          Status = "rejected"
	StatusPublished         Status = "published"
	StatusExpired           Status = "expired"
)

// ActionTechnicalCheckPassed is the reviewer-facing name of the action that
// moves a request into in_review. The stored status is always in_review.
const ActionTechnicalCheckPassed = "technical_check_passed"

// Per-reviewer decision actions.
const (
	DecisionAccepted = "accepted"
	DecisionRejected = "rejected"
)

// Comment length bounds for review comments and approval decisions.
const (
	MaxCommentLen         = 500
	MinDecisionCommentLen = 5
)

// DeadlineFormat is the wire format for review deadlines.
const DeadlineFormat = "2006-01-02"

var allStatuses = []Status{
	StatusSubmitted, StatusResubmitted, StatusInformationNeeded,
	StatusInReview, StatusApproved, StatusRejected, StatusPublished,
	StatusExpired,
}

// transitions maps each status to the statuses it may legally move to.
// Terminal statuses have no entry. approved -> published only happens through
// the publish operation, in_review -> approved/rejected only through decision
// aggregation; submit-review itself may only target information_needed or
// in_review.
var transitions = map[Status][]Status{
	StatusSubmitted:         {StatusInformationNeeded, StatusInReview},
	StatusResubmitted:       {StatusInformationNeeded, StatusInReview},
	StatusInformationNeeded: {StatusInformationNeeded, StatusInReview},
	StatusInReview:          {StatusApproved, StatusRejected},
	StatusApproved:          {StatusPublished},
}

// ValidationError is a local, synchronous rejection. Nothing carrying it ever
// reaches the database.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Valid reports whether s is part of the request status vocabulary.
func (s Status) Valid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusPublished, StatusExpired:
		return true
	}
	return false
}

// AllowedTransitions returns the legal next statuses from s. Terminal and
// unknown statuses return an empty slice.
func AllowedTransitions(s Status) []Status {
	next, ok := transitions[s]
	if !ok {
		return nil
	}
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanResubmit reports whether the requester may answer an information request
// by resubmitting. Only requests currently awaiting information qualify.
func CanResubmit(s Status) bool {
	return s == StatusInformationNeeded
}

// ReviewInput is a reviewer's status-change submission.
type ReviewInput struct {
	Target   Status
	Comment  string
	Deadline *time.Time
}

// DecisionInput is a single reviewer's accept/reject vote on an in_review
// request.
type DecisionInput struct {
	Action  string
	Comment string
}

// ApprovalSummary aggregates per-reviewer decisions for a request.
type ApprovalSummary struct {
	ApprovedCount      int `json:"approved_count"`
	TotalApprovalUsers int `json:"total_approval_users"`
}

// Ready reports whether enough reviewers have accepted for the request to
// become approved.
func (s ApprovalSummary) Ready() bool {
	return s.TotalApprovalUsers > 0 && s.ApprovedCount >= s.TotalApprovalUsers
}

// ValidateReview checks a status-change submission against the current status
// and the comment/deadline rules. now supplies "today" for the deadline
// boundary check.
func ValidateReview(current Status, in ReviewInput, now time.Time) error {
	if current.Terminal() {
		return invalid("request is %s and can no longer be reviewed", current)
	}
	if in.Target != StatusInformationNeeded && in.Target != StatusInReview {
		return invalid("%q is not a valid review status", string(in.Target))
	}
	if !CanTransition(current, in.Target) {
		return invalid("cannot move request from %s to %s", current, in.Target)
	}
	if err := validateComment(in.Comment, 1); err != nil {
		return err
	}
	if in.Target == StatusInReview && in.Deadline == nil {
		return invalid("Deadline is required")
	}
	if in.Deadline != nil && !dateAfter(*in.Deadline, now) {
		return invalid("Deadline must be tomorrow or later")
	}
	return nil
}

// ValidateDecision checks a per-reviewer approval action. Decisions only
// apply to requests currently in review and carry a 5-character comment
// minimum.
func ValidateDecision(current Status, in DecisionInput) error {
	if current != StatusInReview {
		return invalid("request is %s, not in review", current)
	}
	if in.Action != DecisionAccepted && in.Action != DecisionRejected {
		return invalid("action must be %q or %q", DecisionAccepted, DecisionRejected)
	}
	return validateComment(in.Comment, MinDecisionCommentLen)
}

// ValidatePublish checks the connect-to-event step. Only approved requests
// without an event already attached may be published, and the event must come
// from the candidate list rather than free-form input.
func ValidatePublish(current Status, hasEvent bool, eventID string) error {
	if current != StatusApproved {
		return invalid("only approved requests can be published, request is %s", current)
	}
	if hasEvent {
		return invalid("request is already connected to an event")
	}
	if strings.TrimSpace(eventID) == "" {
		return invalid("Event is required")
	}
	return nil
}

// ShouldExpire reports whether an in-review request has outlived its active
// review window. The deadline of the most recent review entry governs.
func ShouldExpire(current Status, deadline *time.Time, now time.Time) bool {
	if current != StatusInReview || deadline == nil {
		return false
	}
	return dateAfter(now, *deadline)
}

func validateComment(comment string, minLen int) error {
	trimmed := strings.TrimSpace(comment)
	if trimmed == "" {
		return invalid("Comment is required")
	}
	n := utf8.RuneCountInString(trimmed)
	if n < minLen {
		return invalid("Comment must be at least %d characters", minLen)
	}
	if n > MaxCommentLen {
		return invalid("Comment must be at most %d characters", MaxCommentLen)
	}
	return nil
}

// dateAfter reports whether a falls on a later calendar day than b. Each
// time's own location decides its date, so a deadline parsed at UTC midnight
// and a wall clock in another zone still agree on what "today" means.
func dateAfter(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}

// IsValidationError reports whether err is a local validation rejection, as
// opposed to a persistence or permission failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
