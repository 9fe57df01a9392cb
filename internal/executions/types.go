package executions

import "time"

// Record is one audit entry: a rule evaluated against an interaction, and the
// outcome of any action that ran.
type Record struct {
	ID            string    `json:"id"`
	RuleID        string    `json:"rule_id"`
	InteractionID string    `json:"interaction_id"`
	Matched       bool      `json:"matched"`
	Confidence    float64   `json:"confidence"`
	Action        string    `json:"action,omitempty"`
	Result        string    `json:"result,omitempty"` // applied, unsupported, failed
	Detail        string    `json:"detail,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListFilter controls which records to return.
type ListFilter struct {
	RuleID        string
	InteractionID string
	MatchedOnly   bool
	Limit         int
	Offset        int
}
