package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Realtime event kinds pushed by the backend.
const (
	KindMessageInserted     = "message_inserted"
	KindConversationUpdated = "conversation_updated"
)

// MessageInserted is pushed when a new message lands in a subscribed
// conversation. Delivery is at-least-once; consumers must dedup by id.
type MessageInserted struct {
	Message Message
}

// ConversationUpdated carries a field-level partial update of a
// conversation. Absent fields mean "no change", never "clear".
type ConversationUpdated struct {
	Patch ConversationPatch
}

// ConversationPatch mirrors Conversation with pointer fields so a
// partial update can be distinguished from an explicit zero value.
type ConversationPatch struct {
	ID            string      `json:"id"`
	Status        *Status     `json:"status,omitempty"`
	DealAgreedBy  *[]string   `json:"deal_agreed_by,omitempty"`
	CompletedBy   *[]string   `json:"completed_by,omitempty"`
	CancelledBy   *string     `json:"cancelled_by,omitempty"`
	LastMessageAt **time.Time `json:"last_message_at,omitempty"`
	DealAgreedAt  **time.Time `json:"deal_agreed_at,omitempty"`
	CompletedAt   **time.Time `json:"completed_at,omitempty"`
	CancelledAt   **time.Time `json:"cancelled_at,omitempty"`
	MyUnread      *int        `json:"my_unread,omitempty"`
}

// Apply merges the patch into c. Only fields present in the patch
// overwrite local state; everything else is retained.
func (p ConversationPatch) Apply(c *Conversation) {
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.DealAgreedBy != nil {
		c.DealAgreedBy = append([]string(nil), (*p.DealAgreedBy)...)
	}
	if p.CompletedBy != nil {
		c.CompletedBy = append([]string(nil), (*p.CompletedBy)...)
	}
	if p.CancelledBy != nil {
		c.CancelledBy = *p.CancelledBy
	}
	if p.LastMessageAt != nil {
		c.LastMessageAt = *p.LastMessageAt
	}
	if p.DealAgreedAt != nil {
		c.DealAgreedAt = *p.DealAgreedAt
	}
	if p.CompletedAt != nil {
		c.CompletedAt = *p.CompletedAt
	}
	if p.CancelledAt != nil {
		c.CancelledAt = *p.CancelledAt
	}
	if p.MyUnread != nil {
		c.MyUnread = *p.MyUnread
	}
}

// envelope is the wire shape of a realtime event payload.
type envelope struct {
	Kind   string          `json:"kind"`
	Record json.RawMessage `json:"record"`
}

// UnknownEventError is returned by DecodeEvent for event kinds this
// client does not understand. Callers should log and drop the event
// rather than fail the subscription.
type UnknownEventError struct {
	Kind string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("unknown realtime event kind %q", e.Kind)
}

// DecodeEvent parses a realtime payload into one of the known event
// shapes (MessageInserted or ConversationUpdated). The dynamic payload
// is decoded exactly once, here at the boundary; the rest of the client
// only ever sees typed events.
func DecodeEvent(raw json.RawMessage) (any, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}

	switch env.Kind {
	case KindMessageInserted:
		var msg Message
		if err := json.Unmarshal(env.Record, &msg); err != nil {
			return nil, fmt.Errorf("decode message record: %w", err)
		}
		if msg.ID == "" {
			return nil, fmt.Errorf("message record missing id")
		}
		return MessageInserted{Message: msg}, nil

	case KindConversationUpdated:
		var patch ConversationPatch
		if err := json.Unmarshal(env.Record, &patch); err != nil {
			return nil, fmt.Errorf("decode conversation record: %w", err)
		}
		if patch.ID == "" {
			return nil, fmt.Errorf("conversation record missing id")
		}
		return ConversationUpdated{Patch: patch}, nil

	default:
		return nil, &UnknownEventError{Kind: env.Kind}
	}
}
