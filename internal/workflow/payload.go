package workflow

import "strings"

// ReviewPayload is the body of a submit-review call. Deadline is a
// YYYY-MM-DD date string, null when the transition carries none.
type ReviewPayload struct {
	Status   Status  `json:"status"`
	Comments string  `json:"comments"`
	Deadline *string `json:"deadline"`
}

// DecisionPayload is the body of a per-reviewer submit-approval call.
type DecisionPayload struct {
	Action   string `json:"action"`
	Comments string `json:"comments"`
}

// PublishPayload is the body of a publish (connect-to-event) call.
type PublishPayload struct {
	EventID string `json:"event_id"`
}

// BuildReviewPayload packages a validated review input into its wire body.
func BuildReviewPayload(in ReviewInput) ReviewPayload {
	p := ReviewPayload{
		Status:   in.Target,
		Comments: strings.TrimSpace(in.Comment),
	}
	if in.Deadline != nil {
		d := in.Deadline.Format(DeadlineFormat)
		p.Deadline = &d
	}
	return p
}

// BuildDecisionPayload packages a validated decision into its wire body.
func BuildDecisionPayload(in DecisionInput) DecisionPayload {
	return DecisionPayload{
		Action:   in.Action,
		Comments: strings.TrimSpace(in.Comment),
	}
}
