package models

import "time"

// MessageType distinguishes the message variants in a conversation log.
type MessageType string

const (
	// MessageText is an ordinary participant-authored message.
	MessageText MessageType = "text"
	// MessageSystem is platform-authored, announcing a deal transition.
	MessageSystem MessageType = "system"
	// MessageItemProposal embeds an item snapshot offered for the swap.
	MessageItemProposal MessageType = "item_proposal"
)

// ItemSnapshot is the frozen view of an item at proposal time. It is a
// copy, not a reference: it survives the item being edited or removed
// from the catalog later.
type ItemSnapshot struct {
	ItemID        string `json:"item_id"`
	ItemTitle     string `json:"item_title"`
	ItemImage     string `json:"item_image,omitempty"`
	ItemBrand     string `json:"item_brand,omitempty"`
	ItemSize      string `json:"item_size,omitempty"`
	ItemCondition string `json:"item_condition,omitempty"`
}

// Message is a single entry in a conversation's append-only log.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	SenderID       string        `json:"sender_id"`
	Type           MessageType   `json:"type"`
	Content        string        `json:"content"`
	Metadata       *ItemSnapshot `json:"metadata,omitempty"`
	IsDeleted      bool          `json:"is_deleted,omitempty"`
	ReadAt         *time.Time    `json:"read_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`

	// Joined by the backend on message history fetches.
	Sender *UserSummary `json:"sender,omitempty"`
}

// System reports whether the message was authored by the platform.
func (m *Message) System() bool {
	return m.Type == MessageSystem
}

// DisplayContent returns the text to render: soft-deleted messages keep
// their row for ordering but suppress the original content.
func (m *Message) DisplayContent() string {
	if m.IsDeleted {
		return "Message removed"
	}
	return m.Content
}

// Preview returns a one-line inbox preview for the message.
func (m *Message) Preview() string {
	if m == nil {
		return ""
	}
	if m.IsDeleted {
		return "Message removed"
	}
	if m.Type == MessageItemProposal && m.Metadata != nil {
		return "Item proposal: " + m.Metadata.ItemTitle
	}
	return m.Content
}
