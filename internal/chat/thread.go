package chat

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/swapcircle/swapcircle-go/internal/metrics"
	"github.com/swapcircle/swapcircle-go/internal/models"
)

// Thread holds the live client state for one open conversation: the
// conversation record plus its message log, and folds realtime events
// into both.
//
// Two producers feed a thread: the local optimistic writer (REST
// responses) and the realtime consumer (websocket events). The REST
// flow runs on the caller's goroutine while events arrive on the
// subscription's read loop, so Thread serializes all mutation behind a
// mutex; the id-keyed Log.Append makes interleaving order irrelevant.
type Thread struct {
	mu sync.Mutex

	me     string
	conv   *models.Conversation
	log    *Log
	logger *slog.Logger
	stats  *metrics.Collector

	// OnMessage, if set, is called after a genuinely new message is
	// appended (not for duplicate redeliveries). UIs use it to schedule
	// a scroll-to-end.
	OnMessage func(models.Message)

	// OnConversation, if set, is called after the conversation record
	// changes.
	OnConversation func(models.Conversation)
}

// NewThread creates a thread for the given user and conversation
// baseline. logger may be nil.
func NewThread(me string, conv *models.Conversation, logger *slog.Logger) *Thread {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Thread{
		me:     me,
		conv:   conv.Clone(),
		log:    NewLog(),
		logger: logger,
	}
}

// WithStats attaches a metrics collector timing every reconcile.
func (t *Thread) WithStats(stats *metrics.Collector) *Thread {
	t.stats = stats
	return t
}

// Me returns the local participant id.
func (t *Thread) Me() string { return t.me }

// Conversation returns a snapshot of the conversation record.
func (t *Thread) Conversation() models.Conversation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.conv.Clone()
}

// Messages returns a snapshot of the message log in order.
func (t *Thread) Messages() []models.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.log.Messages()
}

// UnreadCount derives the unread count for the local participant.
func (t *Thread) UnreadCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.log.UnreadCount(t.me)
}

// SetBaseline replaces the message log with the initial history page.
// Realtime events that raced the fetch are reconciled on top by id.
func (t *Thread) SetBaseline(msgs []models.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log.Replace(msgs)
}

// AppendLocal reconciles a message obtained over REST (an optimistic
// send, or a history backfill) into the log.
func (t *Thread) AppendLocal(msg models.Message) {
	t.appendMessage(msg)
}

// ReplaceConversation adopts an authoritative conversation snapshot,
// typically the response of a deal action. Joined summaries the
// snapshot omits are retained from the previous record.
func (t *Thread) ReplaceConversation(conv models.Conversation) {
	t.mu.Lock()
	next := conv.Clone()
	if next.Item == nil {
		next.Item = t.conv.Item
	}
	if next.OtherUser == nil {
		next.OtherUser = t.conv.OtherUser
	}
	t.conv = next
	snapshot := *t.conv.Clone()
	cb := t.OnConversation
	t.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// ApplyEvent folds a decoded realtime event into the thread. Events for
// other conversations and unknown shapes are ignored with a log line.
func (t *Thread) ApplyEvent(event any) {
	start := time.Now()
	switch ev := event.(type) {
	case models.MessageInserted:
		if ev.Message.ConversationID != t.conversationID() {
			return
		}
		t.appendMessage(ev.Message)
		t.recordReconcile(start)

	case models.ConversationUpdated:
		if ev.Patch.ID != t.conversationID() {
			return
		}
		t.mu.Lock()
		ev.Patch.Apply(t.conv)
		snapshot := *t.conv.Clone()
		cb := t.OnConversation
		t.mu.Unlock()
		t.recordReconcile(start)

		if cb != nil {
			cb(snapshot)
		}

	default:
		t.logger.Warn("dropping unexpected realtime event", "type", fmt.Sprintf("%T", event))
	}
}

func (t *Thread) recordReconcile(start time.Time) {
	if t.stats != nil {
		t.stats.RecordTiming(metrics.OpReconcile, time.Since(start))
	}
}

func (t *Thread) conversationID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conv.ID
}

func (t *Thread) appendMessage(msg models.Message) {
	t.mu.Lock()
	isNew := t.log.Append(msg)
	if isNew {
		created := msg.CreatedAt
		t.conv.LastMessageAt = &created
	}
	cb := t.OnMessage
	t.mu.Unlock()

	// First arrival wins; the redelivered copy already replaced the
	// entry in place and needs no UI notification.
	if isNew && cb != nil {
		cb(msg)
	}
}
