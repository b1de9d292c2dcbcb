// Package chat maintains per-conversation message state on the client:
// the append-only message log, the thread that reconciles realtime
// events into it, and the inbox projection over both.
package chat

import (
	"time"

	"github.com/swapcircle/swapcircle-go/internal/models"
)

// Log is the ordered, append-only message sequence for one
// conversation. Append is the single id-keyed reconcile point shared by
// the optimistic local writer and the realtime consumer: whichever copy
// of a message arrives second replaces the first in place, so the log
// never shows duplicates and never reorders.
//
// Log is not safe for concurrent use; Thread serializes access.
type Log struct {
	messages []models.Message
	index    map[string]int
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{index: make(map[string]int)}
}

// Append reconciles msg into the log. If a message with the same id is
// already present, the incoming copy replaces it in place and Append
// returns false; otherwise msg is appended and Append returns true.
func (l *Log) Append(msg models.Message) bool {
	if i, ok := l.index[msg.ID]; ok {
		l.messages[i] = msg
		return false
	}
	l.index[msg.ID] = len(l.messages)
	l.messages = append(l.messages, msg)
	return true
}

// Replace resets the log to the given baseline page, oldest first.
// Used when a conversation is (re)opened: the full fetch is the
// baseline and realtime events are reconciled on top via Append.
func (l *Log) Replace(msgs []models.Message) {
	l.messages = l.messages[:0]
	l.index = make(map[string]int, len(msgs))
	for _, m := range msgs {
		l.Append(m)
	}
}

// Len returns the number of entries in the log.
func (l *Log) Len() int {
	return len(l.messages)
}

// Messages returns a copy of the log in order.
func (l *Log) Messages() []models.Message {
	out := make([]models.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Get returns the message with the given id, if present.
func (l *Log) Get(id string) (models.Message, bool) {
	i, ok := l.index[id]
	if !ok {
		return models.Message{}, false
	}
	return l.messages[i], true
}

// Last returns the most recent message, if any.
func (l *Log) Last() (models.Message, bool) {
	if len(l.messages) == 0 {
		return models.Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

// UnreadCount derives the number of unread messages addressed to me.
// It is a pure computation over the log, never separately tracked
// state, so it cannot diverge from the messages themselves.
func (l *Log) UnreadCount(me string) int {
	n := 0
	for _, m := range l.messages {
		if m.SenderID != me && !m.System() && m.ReadAt == nil {
			n++
		}
	}
	return n
}

// MarkRead stamps read_at on every unread message not sent by me.
func (l *Log) MarkRead(me string, at time.Time) {
	for i := range l.messages {
		m := &l.messages[i]
		if m.SenderID != me && m.ReadAt == nil {
			t := at
			m.ReadAt = &t
		}
	}
}

// SoftDelete marks the message as deleted. The row is retained for
// ordering and audit; only rendering suppresses the content.
func (l *Log) SoftDelete(id string) bool {
	i, ok := l.index[id]
	if !ok {
		return false
	}
	l.messages[i].IsDeleted = true
	return true
}
