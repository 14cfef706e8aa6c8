package workflow

import (
	"strings"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAllowedTransitions(t *testing.T) {
	tests := []struct {
		name string
		from Status
		want []Status
	}{
		{"submitted", StatusSubmitted, []Status{StatusInformationNeeded, StatusInReview}},
		{"resubmitted", StatusResubmitted, []Status{StatusInformationNeeded, StatusInReview}},
		{"information_needed", StatusInformationNeeded, []Status{StatusInformationNeeded, StatusInReview}},
		{"in_review", StatusInReview, []Status{StatusApproved, StatusRejected}},
		{"approved", StatusApproved, []Status{StatusPublished}},
		{"rejected is terminal", StatusRejected, nil},
		{"published is terminal", StatusPublished, nil},
		{"expired is terminal", StatusExpired, nil},
		{"unknown status", Status("bogus"), nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := AllowedTransitions(tc.from)
			if len(got) != len(tc.want) {
				t.Fatalf("AllowedTransitions(%s) = %v, want %v", tc.from, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("AllowedTransitions(%s) = %v, want %v", tc.from, got, tc.want)
				}
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	if !CanTransition(StatusSubmitted, StatusInReview) {
		t.Error("submitted -> in_review should be allowed")
	}
	if CanTransition(StatusSubmitted, StatusApproved) {
		t.Error("submitted -> approved should not be allowed")
	}
	if CanTransition(StatusRejected, StatusInReview) {
		t.Error("rejected is terminal, no transitions out")
	}
	if !CanTransition(StatusInformationNeeded, StatusInformationNeeded) {
		t.Error("information_needed may be re-issued")
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []Status{StatusRejected, StatusPublished, StatusExpired} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusSubmitted, StatusResubmitted, StatusInformationNeeded, StatusInReview, StatusApproved} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestCanResubmit(t *testing.T) {
	if !CanResubmit(StatusInformationNeeded) {
		t.Error("information_needed should allow resubmission")
	}
	for _, s := range []Status{StatusSubmitted, StatusInReview, StatusApproved, StatusRejected, StatusPublished, StatusExpired} {
		if CanResubmit(s) {
			t.Errorf("%s should not allow resubmission", s)
		}
	}
}

func TestValidateReview(t *testing.T) {
	now := date(2025, time.March, 10)
	tomorrow := date(2025, time.March, 11)
	today := date(2025, time.March, 10)

	tests := []struct {
		name    string
		current Status
		in      ReviewInput
		wantErr string
	}{
		{
			name:    "information needed with comment",
			current: StatusSubmitted,
			in:      ReviewInput{Target: StatusInformationNeeded, Comment: "Please attach the registration certificate"},
		},
		{
			name:    "in review with deadline",
			current: StatusSubmitted,
			in:      ReviewInput{Target: StatusInReview, Comment: "Documents verified", Deadline: &tomorrow},
		},
		{
			name:    "in review without deadline",
			current: StatusSubmitted,
			in:      ReviewInput{Target: StatusInReview, Comment: "Documents verified"},
			wantErr: "Deadline is required",
		},
		{
			name:    "deadline today is too early",
			current: StatusSubmitted,
			in:      ReviewInput{Target: StatusInReview, Comment: "Documents verified", Deadline: &today},
			wantErr: "Deadline must be tomorrow or later",
		},
		{
			name:    "empty comment",
			current: StatusSubmitted,
			in:      ReviewInput{Target: StatusInformationNeeded, Comment: "   "},
			wantErr: "Comment is required",
		},
		{
			name:    "comment too long",
			current: StatusSubmitted,
			in:      ReviewInput{Target: StatusInformationNeeded, Comment: strings.Repeat("x", MaxCommentLen+1)},
			wantErr: "at most 500 characters",
		},
		{
			name:    "comment at the limit",
			current: StatusSubmitted,
			in:      ReviewInput{Target: StatusInformationNeeded, Comment: strings.Repeat("x", MaxCommentLen)},
		},
		{
			name:    "target approved is not a review status",
			current: StatusInReview,
			in:      ReviewInput{Target: StatusApproved, Comment: "Looks good"},
			wantErr: "not a valid review status",
		},
		{
			name:    "terminal request",
			current: StatusRejected,
			in:      ReviewInput{Target: StatusInReview, Comment: "Try again", Deadline: &tomorrow},
			wantErr: "can no longer be reviewed",
		},
		{
			name:    "in review cannot go back to information needed",
			current: StatusInReview,
			in:      ReviewInput{Target: StatusInformationNeeded, Comment: "Missing docs"},
			wantErr: "cannot move request",
		},
		{
			name:    "resubmitted behaves like submitted",
			current: StatusResubmitted,
			in:      ReviewInput{Target: StatusInReview, Comment: "Documents verified", Deadline: &tomorrow},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateReview(tc.current, tc.in, now)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tc.wantErr)
			}
			if !IsValidationError(err) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not contain %q", err.Error(), tc.wantErr)
			}
		})
	}
}

func TestValidateDecision(t *testing.T) {
	tests := []struct {
		name    string
		current Status
		in      DecisionInput
		wantErr string
	}{
		{"accept", StatusInReview, DecisionInput{Action: DecisionAccepted, Comment: "All checks passed"}, ""},
		{"reject", StatusInReview, DecisionInput{Action: DecisionRejected, Comment: "Budget is unrealistic"}, ""},
		{"not in review", StatusSubmitted, DecisionInput{Action: DecisionAccepted, Comment: "All checks passed"}, "not in review"},
		{"unknown action", StatusInReview, DecisionInput{Action: "maybe", Comment: "All checks passed"}, "action must be"},
		{"comment too short", StatusInReview, DecisionInput{Action: DecisionAccepted, Comment: "ok"}, "at least 5 characters"},
		{"comment exactly 5 runes", StatusInReview, DecisionInput{Action: DecisionAccepted, Comment: "valid"}, ""},
		{"whitespace padding does not count", StatusInReview, DecisionInput{Action: DecisionAccepted, Comment: "  ok  "}, "at least 5 characters"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDecision(tc.current, tc.in)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("got %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidatePublish(t *testing.T) {
	if err := ValidatePublish(StatusApproved, false, "evt-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidatePublish(StatusInReview, false, "evt-1"); err == nil {
		t.Error("only approved requests may be published")
	}
	if err := ValidatePublish(StatusApproved, true, "evt-1"); err == nil {
		t.Error("already connected requests may not be published again")
	}
	if err := ValidatePublish(StatusApproved, false, "  "); err == nil {
		t.Error("publishing requires an event id")
	}
}

func TestShouldExpire(t *testing.T) {
	deadline := date(2025, time.March, 10)

	if ShouldExpire(StatusInReview, &deadline, date(2025, time.March, 11)) != true {
		t.Error("in_review past deadline should expire")
	}
	// Deadline day itself is still within the window
	if ShouldExpire(StatusInReview, &deadline, date(2025, time.March, 10)) {
		t.Error("deadline day should not expire yet")
	}
	if ShouldExpire(StatusInReview, nil, date(2025, time.March, 11)) {
		t.Error("no deadline means no expiry")
	}
	if ShouldExpire(StatusApproved, &deadline, date(2025, time.March, 11)) {
		t.Error("only in_review requests expire")
	}
}

// Deadlines arrive as bare dates parsed at UTC midnight while the server
// clock runs in its own zone. The boundary must compare calendar days, not
// instants, or the boundary shifts by a day depending on the server zone.
func TestDeadlineBoundaryAcrossTimezones(t *testing.T) {
	east := time.FixedZone("UTC+7", 7*3600)
	west := time.FixedZone("UTC-7", -7*3600)

	today := date(2025, time.March, 10)
	tomorrow := date(2025, time.March, 11)

	// Mid-morning east of UTC: today's date is still an invalid deadline.
	nowEast := time.Date(2025, time.March, 10, 10, 0, 0, 0, east)
	err := ValidateReview(StatusSubmitted, ReviewInput{
		Target:   StatusInReview,
		Comment:  "Documents verified",
		Deadline: &today,
	}, nowEast)
	if err == nil || !strings.Contains(err.Error(), "tomorrow or later") {
		t.Fatalf("deadline equal to today must be rejected east of UTC, got %v", err)
	}

	// Late evening east of UTC: tomorrow's date is still fine.
	lateEast := time.Date(2025, time.March, 10, 23, 30, 0, 0, east)
	err = ValidateReview(StatusSubmitted, ReviewInput{
		Target:   StatusInReview,
		Comment:  "Documents verified",
		Deadline: &tomorrow,
	}, lateEast)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Early hours west of UTC on the deadline day: the window is still open.
	nowWest := time.Date(2025, time.March, 10, 0, 30, 0, 0, west)
	if ShouldExpire(StatusInReview, &today, nowWest) {
		t.Error("deadline day should not expire west of UTC")
	}
	dayAfterWest := time.Date(2025, time.March, 11, 1, 0, 0, 0, west)
	if !ShouldExpire(StatusInReview, &today, dayAfterWest) {
		t.Error("day after the deadline should expire regardless of zone")
	}
}

func TestBuildReviewPayload(t *testing.T) {
	deadline := date(2025, time.March, 11)

	p := BuildReviewPayload(ReviewInput{Target: StatusInReview, Comment: "  verified  ", Deadline: &deadline})
	if p.Status != StatusInReview {
		t.Errorf("Status = %s, want in_review", p.Status)
	}
	if p.Comments != "verified" {
		t.Errorf("Comments = %q, want trimmed", p.Comments)
	}
	if p.Deadline == nil || *p.Deadline != "2025-03-11" {
		t.Errorf("Deadline = %v, want 2025-03-11", p.Deadline)
	}

	// Without a deadline the field stays null, not an empty string
	p = BuildReviewPayload(ReviewInput{Target: StatusInformationNeeded, Comment: "missing docs"})
	if p.Deadline != nil {
		t.Errorf("Deadline = %q, want nil", *p.Deadline)
	}
}

func TestBuildDecisionPayload(t *testing.T) {
	p := BuildDecisionPayload(DecisionInput{Action: DecisionAccepted, Comment: " all good "})
	if p.Action != DecisionAccepted || p.Comments != "all good" {
		t.Errorf("got %+v", p)
	}
}

func TestApprovalSummaryReady(t *testing.T) {
	tests := []struct {
		approved, total int
		want            bool
	}{
		{0, 3, false},
		{2, 3, false},
		{3, 3, true},
		{4, 3, true},
		{0, 0, false},
	}
	for _, tc := range tests {
		s := ApprovalSummary{ApprovedCount: tc.approved, TotalApprovalUsers: tc.total}
		if s.Ready() != tc.want {
			t.Errorf("Ready() with %d/%d = %v, want %v", tc.approved, tc.total, s.Ready(), tc.want)
		}
	}
}
