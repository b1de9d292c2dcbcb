// Package models defines data structures for the SwapCircle marketplace client.
package models

import "time"

// Status is the deal lifecycle state of a conversation.
type Status string

// Deal statuses. Cancelled and Completed are terminal.
const (
	StatusInterested  Status = "interested"
	StatusNegotiating Status = "negotiating"
	StatusDealAgreed  Status = "deal_agreed"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
)

// Terminal reports whether no further deal action is valid from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusInterested, StatusNegotiating, StatusDealAgreed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// UserSummary is the profile slice the backend joins onto conversations.
type UserSummary struct {
	ID        string   `json:"id"`
	FullName  string   `json:"full_name"`
	Username  string   `json:"username"`
	AvatarURL string   `json:"avatar_url,omitempty"`
	Location  string   `json:"location,omitempty"`
	Rating    *float64 `json:"rating,omitempty"`
}

// DisplayName returns the best human-readable name for the user.
func (u *UserSummary) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// ItemSummary is the listing slice joined onto a conversation.
type ItemSummary struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Images    []string `json:"images,omitempty"`
	Brand     string   `json:"brand,omitempty"`
	Size      string   `json:"size,omitempty"`
	Condition string   `json:"condition,omitempty"`
	Status    string   `json:"status,omitempty"`
	OwnerID   string   `json:"owner_id,omitempty"`
}

// Conversation is a two-party negotiation over an item swap.
//
// DealAgreedBy and CompletedBy accumulate participant ids; status only
// advances to deal_agreed/completed once both participants appear in the
// respective set. Cancellation is terminal and freezes both sets.
type Conversation struct {
	ID     string `json:"id"`
	User1  string `json:"user1_id"`
	User2  string `json:"user2_id"`
	ItemID string `json:"item_id,omitempty"`
	Status Status `json:"status"`

	DealAgreedBy []string `json:"deal_agreed_by,omitempty"`
	CompletedBy  []string `json:"completed_by,omitempty"`
	CancelledBy  string   `json:"cancelled_by,omitempty"`

	CreatedAt     time.Time  `json:"created_at"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	DealAgreedAt  *time.Time `json:"deal_agreed_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`

	// Joined by the backend on fetch; not present in realtime updates.
	Item      *ItemSummary `json:"item,omitempty"`
	OtherUser *UserSummary `json:"other_user,omitempty"`
	MyUnread  int          `json:"my_unread,omitempty"`

	// Populated on list responses only.
	LastMessage *Message `json:"last_message,omitempty"`
}

// HasParticipant reports whether userID is one of the two parties.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && (userID == c.User1 || userID == c.User2)
}

// OtherParticipant returns the counterparty of userID, or "" if userID
// is not a participant.
func (c *Conversation) OtherParticipant(userID string) string {
	switch userID {
	case c.User1:
		return c.User2
	case c.User2:
		return c.User1
	}
	return ""
}

// AgreedBy reports whether userID has already signaled agreement.
func (c *Conversation) AgreedBy(userID string) bool {
	return contains(c.DealAgreedBy, userID)
}

// MarkedCompleteBy reports whether userID has already signaled completion.
func (c *Conversation) MarkedCompleteBy(userID string) bool {
	return contains(c.CompletedBy, userID)
}

// Clone returns a deep copy of the conversation. The reconciliation
// engine mutates clones so callers holding snapshots never observe
// partial merges.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.DealAgreedBy = append([]string(nil), c.DealAgreedBy...)
	out.CompletedBy = append([]string(nil), c.CompletedBy...)
	if c.Item != nil {
		item := *c.Item
		item.Images = append([]string(nil), c.Item.Images...)
		out.Item = &item
	}
	if c.OtherUser != nil {
		u := *c.OtherUser
		out.OtherUser = &u
	}
	if c.LastMessage != nil {
		m := *c.LastMessage
		out.LastMessage = &m
	}
	return &out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
