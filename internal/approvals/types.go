package approvals

import "time"

// Status represents the lifecycle of a queued approval.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Approval is one AI-drafted response waiting for human review before it is
// sent to the platform.
type Approval struct {
	ID            string     `json:"id"`
	InteractionID string     `json:"interaction_id"`
	RuleID        string     `json:"rule_id,omitempty"`
	ResponseText  string     `json:"response_text"`
	Reason        string     `json:"reason,omitempty"`
	Priority      int        `json:"priority"`
	Status        Status     `json:"status"`
	DecidedBy     string     `json:"decided_by,omitempty"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
