package chat

import (
	"sort"
	"time"

	"github.com/swapcircle/swapcircle-go/internal/models"
)

// Summary is the inbox row derived for one conversation. It is a pure
// projection over the conversation record and its message log; it is
// never mutated independently.
type Summary struct {
	ConversationID string
	OtherUser      string
	ItemTitle      string
	LastPreview    string
	LastMessageAt  *time.Time
	UnreadCount    int
	Status         models.Status
}

// Summarize projects a conversation into its inbox row for user me.
// When a local log is available its derived unread count wins over the
// server-joined counter, since the log reflects realtime deliveries the
// counter may lag behind.
func Summarize(c *models.Conversation, log *Log, me string) Summary {
	s := Summary{
		ConversationID: c.ID,
		OtherUser:      c.OtherUser.DisplayName(),
		LastMessageAt:  c.LastMessageAt,
		UnreadCount:    c.MyUnread,
		Status:         c.Status,
	}
	if s.OtherUser == "" {
		s.OtherUser = c.OtherParticipant(me)
	}
	if c.Item != nil {
		s.ItemTitle = c.Item.Title
	}
	if c.LastMessage != nil {
		s.LastPreview = c.LastMessage.Preview()
	}
	if log != nil {
		s.UnreadCount = log.UnreadCount(me)
		if last, ok := log.Last(); ok {
			s.LastPreview = last.Preview()
			created := last.CreatedAt
			s.LastMessageAt = &created
		}
	}
	return s
}

// Inbox projects every conversation into a summary row, most recent
// activity first. logs maps conversation id to an optional local log.
func Inbox(convs []*models.Conversation, logs map[string]*Log, me string) []Summary {
	out := make([]Summary, 0, len(convs))
	for _, c := range convs {
		out = append(out, Summarize(c, logs[c.ID], me))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastMessageAt, out[j].LastMessageAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return out
}
