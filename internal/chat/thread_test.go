package chat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swapcircle/swapcircle-go/internal/chat"
	"github.com/swapcircle/swapcircle-go/internal/metrics"
	"github.com/swapcircle/swapcircle-go/internal/models"
)

func testConv() *models.Conversation {
	return &models.Conversation{
		ID:     "conv-1",
		User1:  "alice",
		User2:  "bob",
		Status: models.StatusNegotiating,
		Item:   &models.ItemSummary{ID: "item-1", Title: "Denim jacket"},
		OtherUser: &models.UserSummary{
			ID:       "bob",
			FullName: "Bob B",
		},
	}
}

func TestThreadOptimisticSendThenRedelivery(t *testing.T) {
	thread := chat.NewThread("alice", testConv(), nil)

	var notified []string
	thread.OnMessage = func(m models.Message) { notified = append(notified, m.ID) }

	now := time.Now()
	sent := msg("m1", "alice", "hello", now)

	// Optimistic append from the REST response.
	thread.AppendLocal(sent)

	// The same row redelivered over realtime must not duplicate or
	// re-notify the UI.
	thread.ApplyEvent(models.MessageInserted{Message: sent})

	assert.Len(t, thread.Messages(), 1)
	assert.Equal(t, []string{"m1"}, notified)
}

func TestThreadIgnoresOtherConversations(t *testing.T) {
	thread := chat.NewThread("alice", testConv(), nil)

	foreign := msg("m9", "bob", "wrong thread", time.Now())
	foreign.ConversationID = "conv-other"
	thread.ApplyEvent(models.MessageInserted{Message: foreign})

	assert.Empty(t, thread.Messages())

	status := models.StatusCancelled
	thread.ApplyEvent(models.ConversationUpdated{
		Patch: models.ConversationPatch{ID: "conv-other", Status: &status},
	})
	assert.Equal(t, models.StatusNegotiating, thread.Conversation().Status)
}

func TestThreadPartialUpdateMergesFields(t *testing.T) {
	thread := chat.NewThread("alice", testConv(), nil)

	var updates []models.Conversation
	thread.OnConversation = func(c models.Conversation) { updates = append(updates, c) }

	status := models.StatusDealAgreed
	agreedBy := []string{"alice", "bob"}
	thread.ApplyEvent(models.ConversationUpdated{
		Patch: models.ConversationPatch{
			ID:           "conv-1",
			Status:       &status,
			DealAgreedBy: &agreedBy,
		},
	})

	got := thread.Conversation()
	assert.Equal(t, models.StatusDealAgreed, got.Status)
	assert.Equal(t, []string{"alice", "bob"}, got.DealAgreedBy)

	// Fields absent from the patch are retained, not cleared.
	require.NotNil(t, got.Item)
	assert.Equal(t, "Denim jacket", got.Item.Title)
	assert.Equal(t, "Bob B", got.OtherUser.DisplayName())

	require.Len(t, updates, 1)
	assert.Equal(t, models.StatusDealAgreed, updates[0].Status)
}

func TestThreadBaselineThenRacedEvent(t *testing.T) {
	thread := chat.NewThread("alice", testConv(), nil)
	now := time.Now()

	// The realtime event that raced the history fetch arrives first.
	raced := msg("m2", "bob", "raced", now)
	thread.ApplyEvent(models.MessageInserted{Message: raced})

	// Then the baseline page lands, already containing the raced row.
	thread.SetBaseline([]models.Message{
		msg("m1", "bob", "earlier", now.Add(-time.Minute)),
		msg("m2", "bob", "raced", now),
	})

	msgs := thread.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "m2", msgs[1].ID)
}

func TestThreadReplaceConversationKeepsJoins(t *testing.T) {
	thread := chat.NewThread("alice", testConv(), nil)

	// A deal-action snapshot carries no joined summaries.
	snapshot := models.Conversation{
		ID:           "conv-1",
		User1:        "alice",
		User2:        "bob",
		Status:       models.StatusDealAgreed,
		DealAgreedBy: []string{"alice", "bob"},
	}
	thread.ReplaceConversation(snapshot)

	got := thread.Conversation()
	assert.Equal(t, models.StatusDealAgreed, got.Status)
	require.NotNil(t, got.Item, "joined item summary survives adoption")
	assert.Equal(t, "item-1", got.Item.ID)
	require.NotNil(t, got.OtherUser)
}

func TestThreadMessageAdvancesLastMessageAt(t *testing.T) {
	thread := chat.NewThread("alice", testConv(), nil)
	now := time.Now().Truncate(time.Second)

	thread.ApplyEvent(models.MessageInserted{Message: msg("m1", "bob", "hi", now)})

	got := thread.Conversation()
	require.NotNil(t, got.LastMessageAt)
	assert.True(t, got.LastMessageAt.Equal(now))
}

func TestThreadUnreadCount(t *testing.T) {
	thread := chat.NewThread("alice", testConv(), nil)
	now := time.Now()

	thread.SetBaseline([]models.Message{
		msg("m1", "bob", "one", now),
		msg("m2", "alice", "mine", now),
	})
	thread.ApplyEvent(models.MessageInserted{Message: msg("m3", "bob", "two", now)})

	assert.Equal(t, 2, thread.UnreadCount())
}

func TestThreadRecordsReconcileTimings(t *testing.T) {
	collector := metrics.NewCollector()
	thread := chat.NewThread("alice", testConv(), nil).WithStats(collector)
	now := time.Now()

	thread.ApplyEvent(models.MessageInserted{Message: msg("m1", "bob", "hi", now)})

	status := models.StatusDealAgreed
	thread.ApplyEvent(models.ConversationUpdated{
		Patch: models.ConversationPatch{ID: "conv-1", Status: &status},
	})

	// An event for another conversation is not a reconcile.
	foreign := msg("m2", "bob", "elsewhere", now)
	foreign.ConversationID = "conv-other"
	thread.ApplyEvent(models.MessageInserted{Message: foreign})

	snap := collector.Snapshot()
	require.NotNil(t, snap.Reconcile)
	assert.Equal(t, int64(2), snap.Reconcile.Count)
}

func TestThreadSnapshotIsolation(t *testing.T) {
	thread := chat.NewThread("alice", testConv(), nil)

	snap := thread.Conversation()
	snap.Status = models.StatusCancelled
	snap.Item.Title = "mutated"

	fresh := thread.Conversation()
	assert.Equal(t, models.StatusNegotiating, fresh.Status)
	assert.Equal(t, "Denim jacket", fresh.Item.Title)
}
