package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swapcircle/swapcircle-go/internal/api"
	"github.com/swapcircle/swapcircle-go/internal/models"
	"github.com/swapcircle/swapcircle-go/internal/realtime"
)

var upgrader = websocket.Upgrader{}

type frame struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// subscriptionServer runs a scripted realtime endpoint: it acks the
// subscribe frame, replays the given frames, then completes.
func subscriptionServer(t *testing.T, wantTopic string, frames []frame) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var sub frame
		require.NoError(t, conn.ReadJSON(&sub))
		assert.Equal(t, "subscribe", sub.Type)
		assert.NotEmpty(t, sub.ID)
		if wantTopic != "" {
			var payload struct {
				Topic string `json:"topic"`
			}
			require.NoError(t, json.Unmarshal(sub.Payload, &payload))
			assert.Equal(t, wantTopic, payload.Topic)
		}

		require.NoError(t, conn.WriteJSON(frame{ID: sub.ID, Type: "ack"}))
		for _, f := range frames {
			f.ID = sub.ID
			require.NoError(t, conn.WriteJSON(f))
		}
		conn.WriteJSON(frame{ID: sub.ID, Type: "complete"})
	}))
}

func eventFrame(t *testing.T, kind string, record any) frame {
	t.Helper()
	rec, err := json.Marshal(record)
	require.NoError(t, err)
	payload, err := json.Marshal(map[string]json.RawMessage{
		"kind":   json.RawMessage(`"` + kind + `"`),
		"record": rec,
	})
	require.NoError(t, err)
	return frame{Type: "event", Payload: payload}
}

var testSession = api.Session{AccessToken: "tok-1", UserID: "alice"}

func TestSubscribeDeliversEvents(t *testing.T) {
	status := models.StatusDealAgreed
	server := subscriptionServer(t, "conversation:conv-1", []frame{
		eventFrame(t, "message_inserted", models.Message{
			ID: "m1", ConversationID: "conv-1", SenderID: "bob", Content: "hi",
		}),
		{Type: "ka"},
		eventFrame(t, "conversation_updated", models.ConversationPatch{
			ID: "conv-1", Status: &status,
		}),
	})
	defer server.Close()

	var got []any
	client := realtime.New(server.URL, nil)
	err := client.Subscribe(context.Background(), testSession,
		realtime.ConversationTopic("conv-1"),
		func(event any) error {
			got = append(got, event)
			return nil
		})
	require.NoError(t, err, "complete frame ends the subscription cleanly")

	require.Len(t, got, 2)
	inserted, ok := got[0].(models.MessageInserted)
	require.True(t, ok, "got %T", got[0])
	assert.Equal(t, "m1", inserted.Message.ID)

	updated, ok := got[1].(models.ConversationUpdated)
	require.True(t, ok, "got %T", got[1])
	assert.Equal(t, models.StatusDealAgreed, *updated.Patch.Status)
}

func TestSubscribeDropsUnknownKinds(t *testing.T) {
	server := subscriptionServer(t, "", []frame{
		eventFrame(t, "typing_indicator", map[string]string{"user_id": "bob"}),
		eventFrame(t, "message_inserted", models.Message{ID: "m1", ConversationID: "conv-1"}),
	})
	defer server.Close()

	var got []any
	err := realtime.New(server.URL, nil).Subscribe(context.Background(), testSession,
		realtime.ConversationTopic("conv-1"),
		func(event any) error {
			got = append(got, event)
			return nil
		})
	require.NoError(t, err)

	// The unknown kind is skipped, not fatal, and not delivered.
	require.Len(t, got, 1)
	_, ok := got[0].(models.MessageInserted)
	assert.True(t, ok)
}

func TestSubscribeErrorFrame(t *testing.T) {
	payload, _ := json.Marshal(map[string]string{"message": "subscription limit reached"})
	server := subscriptionServer(t, "", []frame{{Type: "error", Payload: payload}})
	defer server.Close()

	err := realtime.New(server.URL, nil).Subscribe(context.Background(), testSession,
		realtime.ConversationTopic("conv-1"),
		func(event any) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subscription limit reached")
}

func TestSubscribeHandlerErrorStops(t *testing.T) {
	server := subscriptionServer(t, "", []frame{
		eventFrame(t, "message_inserted", models.Message{ID: "m1", ConversationID: "conv-1"}),
		eventFrame(t, "message_inserted", models.Message{ID: "m2", ConversationID: "conv-1"}),
	})
	defer server.Close()

	handlerErr := errors.New("consumer gone")
	calls := 0
	err := realtime.New(server.URL, nil).Subscribe(context.Background(), testSession,
		realtime.ConversationTopic("conv-1"),
		func(event any) error {
			calls++
			return handlerErr
		})
	assert.ErrorIs(t, err, handlerErr)
	assert.Equal(t, 1, calls)
}

func TestSubscribeContextCancel(t *testing.T) {
	// A server that acks and then goes silent.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var sub frame
		require.NoError(t, conn.ReadJSON(&sub))
		require.NoError(t, conn.WriteJSON(frame{ID: sub.ID, Type: "ack"}))

		// Hold the connection open until the client drops it.
		conn.ReadJSON(&frame{})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := realtime.New(server.URL, nil).Subscribe(ctx, testSession,
		realtime.ConversationTopic("conv-1"),
		func(event any) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "conversation:conv-1", realtime.ConversationTopic("conv-1"))
	assert.Equal(t, "inbox:alice", realtime.InboxTopic("alice"))
}
