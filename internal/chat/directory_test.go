package chat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swapcircle/swapcircle-go/internal/chat"
	"github.com/swapcircle/swapcircle-go/internal/models"
)

func testDirectory() *chat.Directory {
	now := time.Now()
	older := now.Add(-time.Hour)
	return chat.NewDirectory("alice", []*models.Conversation{
		listedConv("conv-a", &now),
		listedConv("conv-b", &older),
	}, nil)
}

func TestDirectoryMessageResortsInbox(t *testing.T) {
	dir := testDirectory()

	rows := dir.Rows()
	require.Equal(t, "conv-a", rows[0].ConversationID)

	// A message landing in the quieter conversation moves it up.
	changed := dir.ApplyEvent(models.MessageInserted{
		Message: msg("m1", "bob", "still interested?", time.Now().Add(time.Minute)),
	})
	require.False(t, changed, "message for an unlisted conversation id changes nothing")

	arrival := msg("m2", "bob", "still interested?", time.Now().Add(time.Minute))
	arrival.ConversationID = "conv-b"
	require.True(t, dir.ApplyEvent(models.MessageInserted{Message: arrival}))

	rows = dir.Rows()
	assert.Equal(t, "conv-b", rows[0].ConversationID)
	assert.Equal(t, 1, rows[0].UnreadCount)
	assert.Equal(t, "still interested?", rows[0].LastPreview)
}

func TestDirectoryDuplicateDeliveryNoChange(t *testing.T) {
	dir := testDirectory()

	arrival := msg("m1", "bob", "hi", time.Now())
	arrival.ConversationID = "conv-a"

	assert.True(t, dir.ApplyEvent(models.MessageInserted{Message: arrival}))
	assert.False(t, dir.ApplyEvent(models.MessageInserted{Message: arrival}),
		"at-least-once redelivery reconciles by id")
	assert.Equal(t, 1, dir.Rows()[0].UnreadCount)
}

func TestDirectoryConversationUpdate(t *testing.T) {
	dir := testDirectory()

	status := models.StatusCancelled
	require.True(t, dir.ApplyEvent(models.ConversationUpdated{
		Patch: models.ConversationPatch{ID: "conv-b", Status: &status},
	}))

	var found bool
	for _, r := range dir.Rows() {
		if r.ConversationID == "conv-b" {
			found = true
			assert.Equal(t, models.StatusCancelled, r.Status)
		}
	}
	require.True(t, found)
}

func TestDirectoryDropsUnknownShapes(t *testing.T) {
	dir := testDirectory()
	assert.False(t, dir.ApplyEvent("not an event"))

	status := models.StatusCompleted
	assert.False(t, dir.ApplyEvent(models.ConversationUpdated{
		Patch: models.ConversationPatch{ID: "conv-unknown", Status: &status},
	}))
}
