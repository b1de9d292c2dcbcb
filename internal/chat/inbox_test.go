package chat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swapcircle/swapcircle-go/internal/chat"
	"github.com/swapcircle/swapcircle-go/internal/models"
)

func listedConv(id string, lastAt *time.Time) *models.Conversation {
	return &models.Conversation{
		ID:            id,
		User1:         "alice",
		User2:         "bob",
		Status:        models.StatusNegotiating,
		LastMessageAt: lastAt,
		OtherUser:     &models.UserSummary{ID: "bob", Username: "bob_swaps"},
		Item:          &models.ItemSummary{ID: "item-1", Title: "Wool coat"},
	}
}

func TestSummarizeFromListResponse(t *testing.T) {
	now := time.Now()
	c := listedConv("conv-1", &now)
	c.MyUnread = 3
	last := msg("m7", "bob", "deal?", now)
	c.LastMessage = &last

	s := chat.Summarize(c, nil, "alice")

	assert.Equal(t, "conv-1", s.ConversationID)
	assert.Equal(t, "bob_swaps", s.OtherUser)
	assert.Equal(t, "Wool coat", s.ItemTitle)
	assert.Equal(t, "deal?", s.LastPreview)
	assert.Equal(t, 3, s.UnreadCount)
	assert.Equal(t, models.StatusNegotiating, s.Status)
}

func TestSummarizeLocalLogWins(t *testing.T) {
	now := time.Now()
	c := listedConv("conv-1", nil)
	c.MyUnread = 3 // stale server counter

	log := chat.NewLog()
	log.Append(msg("m1", "bob", "fresh arrival", now))

	s := chat.Summarize(c, log, "alice")

	assert.Equal(t, 1, s.UnreadCount, "derived count wins over the joined counter")
	assert.Equal(t, "fresh arrival", s.LastPreview)
	require.NotNil(t, s.LastMessageAt)
}

func TestSummarizeProposalPreview(t *testing.T) {
	now := time.Now()
	c := listedConv("conv-1", &now)
	proposal := msg("m1", "bob", "I'd like to offer my \"Wool coat\" for this swap!", now)
	proposal.Type = models.MessageItemProposal
	proposal.Metadata = &models.ItemSnapshot{ItemID: "item-1", ItemTitle: "Wool coat"}
	c.LastMessage = &proposal

	s := chat.Summarize(c, nil, "alice")
	assert.Equal(t, "Item proposal: Wool coat", s.LastPreview)
}

func TestInboxOrdering(t *testing.T) {
	now := time.Now()
	older := now.Add(-time.Hour)

	convs := []*models.Conversation{
		listedConv("conv-old", &older),
		listedConv("conv-quiet", nil),
		listedConv("conv-new", &now),
	}

	rows := chat.Inbox(convs, nil, "alice")

	require.Len(t, rows, 3)
	assert.Equal(t, "conv-new", rows[0].ConversationID)
	assert.Equal(t, "conv-old", rows[1].ConversationID)
	assert.Equal(t, "conv-quiet", rows[2].ConversationID, "no activity sorts last")
}

func TestInboxUsesLocalLogs(t *testing.T) {
	now := time.Now()
	older := now.Add(-time.Hour)

	convs := []*models.Conversation{
		listedConv("conv-a", &now),
		listedConv("conv-b", &older),
	}

	// A local log for conv-b has newer activity than its listed row.
	logB := chat.NewLog()
	logB.Append(msg("m1", "bob", "just arrived", now.Add(time.Minute)))

	rows := chat.Inbox(convs, map[string]*chat.Log{"conv-b": logB}, "alice")

	assert.Equal(t, "conv-b", rows[0].ConversationID)
	assert.Equal(t, 1, rows[0].UnreadCount)
}

func TestNewProposalPhrasing(t *testing.T) {
	item := models.ItemSummary{
		ID:        "item-1",
		Title:     "Wool coat",
		Brand:     "Acme",
		Size:      "M",
		Condition: "like new",
		Images:    []string{"https://img/1.jpg", "https://img/2.jpg"},
	}

	own := chat.NewProposal(item, true)
	assert.Equal(t, `I'd like to offer my "Wool coat" for this swap!`, own.Content)
	assert.Equal(t, "https://img/1.jpg", own.Snapshot.ItemImage)
	assert.Equal(t, "Acme", own.Snapshot.ItemBrand)

	theirs := chat.NewProposal(models.ItemSummary{ID: "item-2", Title: "Scarf"}, false)
	assert.Equal(t, `I'm interested in your "Scarf" — let's discuss?`, theirs.Content)
	assert.Empty(t, theirs.Snapshot.ItemImage, "missing image leaves the snapshot field empty")
}
