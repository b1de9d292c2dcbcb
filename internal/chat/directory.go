package chat

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/swapcircle/swapcircle-go/internal/models"
)

// Directory is the live counterpart of the one-shot inbox listing: it
// holds every conversation the user participates in plus the message
// logs built from realtime deliveries, and folds inbox-scoped events
// into them. Rows projects the current state through the same Inbox
// projection the listing uses.
//
// Like Thread it is fed from the subscription read loop and read from
// the UI goroutine, so mutation is serialized behind a mutex.
type Directory struct {
	mu sync.Mutex

	me     string
	convs  map[string]*models.Conversation
	order  []string
	logs   map[string]*Log
	logger *slog.Logger
}

// NewDirectory creates a directory over the listed conversations.
// logger may be nil.
func NewDirectory(me string, convs []*models.Conversation, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &Directory{
		me:     me,
		convs:  make(map[string]*models.Conversation, len(convs)),
		logs:   make(map[string]*Log),
		logger: logger,
	}
	for _, c := range convs {
		d.convs[c.ID] = c.Clone()
		d.order = append(d.order, c.ID)
	}
	return d
}

// ApplyEvent folds an inbox-scoped realtime event into the directory
// and reports whether any state changed. Events for conversations the
// user is not part of are dropped with a log line, as are unknown
// shapes; duplicate message deliveries reconcile by id and report no
// change.
func (d *Directory) ApplyEvent(event any) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch ev := event.(type) {
	case models.MessageInserted:
		conv, ok := d.convs[ev.Message.ConversationID]
		if !ok {
			d.logger.Warn("dropping event for unlisted conversation", "conversation_id", ev.Message.ConversationID)
			return false
		}
		log, ok := d.logs[conv.ID]
		if !ok {
			log = NewLog()
			d.logs[conv.ID] = log
		}
		if !log.Append(ev.Message) {
			return false
		}
		created := ev.Message.CreatedAt
		conv.LastMessageAt = &created
		return true

	case models.ConversationUpdated:
		conv, ok := d.convs[ev.Patch.ID]
		if !ok {
			d.logger.Warn("dropping event for unlisted conversation", "conversation_id", ev.Patch.ID)
			return false
		}
		ev.Patch.Apply(conv)
		return true

	default:
		d.logger.Warn("dropping unexpected realtime event", "type", fmt.Sprintf("%T", event))
		return false
	}
}

// Rows projects the directory into inbox summaries, most recent
// activity first. The projection runs under the lock so it never
// observes a half-applied event.
func (d *Directory) Rows() []Summary {
	d.mu.Lock()
	defer d.mu.Unlock()

	convs := make([]*models.Conversation, 0, len(d.order))
	for _, id := range d.order {
		convs = append(convs, d.convs[id])
	}
	return Inbox(convs, d.logs, d.me)
}
