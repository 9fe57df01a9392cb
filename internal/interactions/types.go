package interactions

import "time"

// Status represents the lifecycle stage of an interaction.
type Status string

const (
	StatusUnread           Status = "unread"
	StatusRead             Status = "read"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusAnswered         Status = "answered"
	StatusFlagged          Status = "flagged"
	StatusSpam             Status = "spam"
	StatusArchived         Status = "archived"
)

// ValidStatuses is the set of recognized status values.
var ValidStatuses = map[Status]bool{
	StatusUnread:           true,
	StatusRead:             true,
	StatusAwaitingApproval: true,
	StatusAnswered:         true,
	StatusFlagged:          true,
	StatusSpam:             true,
	StatusArchived:         true,
}

// Platform identifies the source platform of an interaction.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
)

// Interaction is a single inbound comment, DM, or mention from a connected
// platform. Rule actions, user actions, and reply dispatch mutate it; it is
// only hard-deleted on explicit user request.
type Interaction struct {
	ID                 string     `json:"id"`
	ExternalID         string     `json:"external_id"`
	Platform           Platform   `json:"platform"`
	AuthorName         string     `json:"author_name"`
	AuthorIsSubscriber bool       `json:"author_is_subscriber"`
	AuthorIsVerified   bool       `json:"author_is_verified"`
	Content            string     `json:"content"`
	Sentiment          string     `json:"sentiment,omitempty"` // "positive", "negative", "neutral" or "" when not yet classified
	LikeCount          int        `json:"like_count"`
	ReplyCount         int        `json:"reply_count"`
	PriorityScore      int        `json:"priority_score"`
	Status             Status     `json:"status"`
	Tags               []string   `json:"tags"`
	PendingResponse    string     `json:"pending_response,omitempty"`
	PendingAutoSend    bool       `json:"pending_auto_send"`
	RoutedView         string     `json:"routed_view,omitempty"`
	ParentID           string     `json:"parent_id,omitempty"`
	ScopeID            string     `json:"scope_id"`
	PublishedAt        *time.Time `json:"published_at,omitempty"` // publish time of the referenced content (video/post)
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// HasTag reports whether the interaction carries the given tag.
func (in *Interaction) HasTag(tag string) bool {
	for _, t := range in.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ListFilter controls which interactions to return.
type ListFilter struct {
	ScopeID  string
	Platform Platform
	Status   Status
	Tag      string
	Limit    int
	Offset   int
}
