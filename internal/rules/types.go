package rules

import (
	"encoding/json"
	"time"

	"github.com/CATrainer/revu-sub000/internal/interactions"
)

// ConditionKind identifies a condition variant. The set is closed: anything
// outside it evaluates as KindUnknown, which never matches.
type ConditionKind string

const (
	KindSentiment       ConditionKind = "sentiment"
	KindSubscriber      ConditionKind = "subscriber_status"
	KindKeywords        ConditionKind = "keywords"
	KindCommentLength   ConditionKind = "comment_length"
	KindVideoAge        ConditionKind = "video_age"
	KindNaturalLanguage ConditionKind = "natural_language"
	KindUnknown         ConditionKind = ""
)

// Comparator is the operator set shared by comment_length and video_age.
type Comparator string

const (
	CmpGTE Comparator = ">="
	CmpGT  Comparator = ">"
	CmpLTE Comparator = "<="
	CmpLT  Comparator = "<"
	CmpEQ  Comparator = "=="
)

// Compare applies the comparator to (value, threshold). Unknown comparators
// never hold.
func (c Comparator) Compare(value, threshold int) bool {
	switch c {
	case CmpGTE:
		return value >= threshold
	case CmpGT:
		return value > threshold
	case CmpLTE:
		return value <= threshold
	case CmpLT:
		return value < threshold
	case CmpEQ:
		return value == threshold
	default:
		return false
	}
}

// SentimentParams matches against the interaction's sentiment label.
type SentimentParams struct {
	Value string `json:"value"`
}

// SubscriberParams requires (or forbids) the author being a subscriber.
type SubscriberParams struct {
	Required bool `json:"required"`
}

// KeywordParams matches keyword sets case-insensitively: any requires at
// least one hit, all requires every term, none forbids every term.
type KeywordParams struct {
	Any  []string `json:"any,omitempty"`
	All  []string `json:"all,omitempty"`
	None []string `json:"none,omitempty"`
}

// LengthParams compares the character length of the comment text.
type LengthParams struct {
	Op    Comparator `json:"op"`
	Value int        `json:"value"`
}

// VideoAgeParams compares the age in days of the referenced content at the
// time the interaction was created.
type VideoAgeParams struct {
	Op   Comparator `json:"op"`
	Days int        `json:"days"`
}

// NaturalLanguageParams holds a free-text criterion judged by the AI provider.
type NaturalLanguageParams struct {
	Prompt string `json:"prompt"`
}

// Condition is a tagged union: exactly the params struct matching Kind is set.
type Condition struct {
	Kind       ConditionKind          `json:"kind"`
	Sentiment  *SentimentParams       `json:"sentiment,omitempty"`
	Subscriber *SubscriberParams      `json:"subscriber,omitempty"`
	Keywords   *KeywordParams         `json:"keywords,omitempty"`
	Length     *LengthParams          `json:"length,omitempty"`
	VideoAge   *VideoAgeParams        `json:"video_age,omitempty"`
	Natural    *NaturalLanguageParams `json:"natural,omitempty"`
}

// ActionKind identifies an action variant. Unknown kinds execute as a no-op
// "unsupported" result rather than failing the rule.
type ActionKind string

const (
	ActionAutoRespond      ActionKind = "auto_respond"
	ActionGenerateResponse ActionKind = "generate_response"
	ActionDeleteComment    ActionKind = "delete_comment"
	ActionFlagForReview    ActionKind = "flag_for_review"
	ActionAddTag           ActionKind = "add_tag"
	ActionRouteToView      ActionKind = "route_to_view"
	ActionUpdateStatus     ActionKind = "update_status"
)

// Action is a typed rule action. Only the fields relevant to Kind are set.
type Action struct {
	Kind         ActionKind          `json:"kind"`
	ResponseText string              `json:"response_text,omitempty"` // auto_respond
	Severity     string              `json:"severity,omitempty"`      // flag_for_review: low/medium/high
	Tag          string              `json:"tag,omitempty"`           // add_tag
	View         string              `json:"view,omitempty"`          // route_to_view
	Status       interactions.Status `json:"status,omitempty"`        // update_status
}

// Rule is a user-defined condition-action automation unit. Conditions are
// combined via Logic (1-based position references); Actions run on match.
type Rule struct {
	ID         string      `json:"id"`
	ScopeID    string      `json:"scope_id"`
	Name       string      `json:"name"`
	Conditions []Condition `json:"conditions"`
	Logic      string      `json:"logic"`
	Actions    []Action    `json:"actions"`
	Priority   int         `json:"priority"`
	Enabled    bool        `json:"enabled"`
	Deleted    bool        `json:"deleted"`
	ExpiresAt  *time.Time  `json:"expires_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Active reports whether the rule should be evaluated at the given time.
func (r *Rule) Active(now time.Time) bool {
	if !r.Enabled || r.Deleted {
		return false
	}
	if r.ExpiresAt != nil && !now.Before(*r.ExpiresAt) {
		return false
	}
	return true
}

// ConditionsHash returns a stable representation of the condition set, used
// as part of the rule evaluation cache key.
func (r *Rule) ConditionsHash() string {
	b, err := json.Marshal(r.Conditions)
	if err != nil {
		return ""
	}
	return string(b)
}
