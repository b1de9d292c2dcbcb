// Package realtime provides the websocket subscription client for
// server-pushed conversation events.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/swapcircle/swapcircle-go/internal/api"
	"github.com/swapcircle/swapcircle-go/internal/metrics"
	"github.com/swapcircle/swapcircle-go/internal/models"
)

// Subscription protocol message types.
const (
	msgSubscribe = "subscribe"
	msgAck       = "ack"
	msgEvent     = "event"
	msgError     = "error"
	msgComplete  = "complete"
	msgKeepAlive = "ka"
)

// wsMessage is a subscription protocol frame.
type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// wsSubscribePayload is the payload for subscribe frames.
type wsSubscribePayload struct {
	Topic string `json:"topic"`
}

// ConversationTopic scopes a subscription to one conversation's
// message-insert and conversation-update events.
func ConversationTopic(convID string) string {
	return "conversation:" + convID
}

// InboxTopic scopes a subscription to updates for every conversation
// the user participates in.
func InboxTopic(userID string) string {
	return "inbox:" + userID
}

// Client subscribes to the backend's realtime push channel.
type Client struct {
	endpoint string
	logger   *slog.Logger
	stats    *metrics.Collector
}

// New creates a realtime client. If endpoint is empty, uses
// SWAPCIRCLE_REALTIME_URL or derives ws://…/realtime from the default
// API address. logger may be nil.
func New(endpoint string, logger *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("SWAPCIRCLE_REALTIME_URL")
	}
	if endpoint == "" {
		endpoint = "ws://localhost:8787/realtime"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{endpoint: endpoint, logger: logger}
}

// WithStats attaches a metrics collector counting delivered events.
func (c *Client) WithStats(stats *metrics.Collector) *Client {
	c.stats = stats
	return c
}

// Subscribe opens one subscription for topic and invokes onEvent for
// every decoded event until ctx is cancelled, the server completes the
// subscription, or onEvent returns an error. Cancelling ctx is the
// release path: each consuming view holds its own context and cancels
// it when it goes away, so subscriptions never outlive their view.
//
// Delivery is at-least-once; consumers are expected to reconcile
// idempotently (the chat.Thread / chat.Log contract). Unknown event
// kinds are logged and dropped.
func (c *Client) Subscribe(
	ctx context.Context,
	session api.Session,
	topic string,
	onEvent func(event any) error,
) error {
	wsEndpoint := c.endpoint
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	header := http.Header{}
	if session.AccessToken != "" {
		header.Set("Authorization", "Bearer "+session.AccessToken)
	}

	conn, _, err := dialer.DialContext(ctx, wsEndpoint, header)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	defer conn.Close()

	// Track connection state for proper cleanup
	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	// Send subscribe frame
	subscriptionID := uuid.New().String()
	payload, _ := json.Marshal(wsSubscribePayload{Topic: topic})
	subMsg := wsMessage{
		ID:      subscriptionID,
		Type:    msgSubscribe,
		Payload: payload,
	}
	if err := conn.WriteJSON(subMsg); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}

	// Wait for ack
	var ackMsg wsMessage
	if err := conn.ReadJSON(&ackMsg); err != nil {
		return fmt.Errorf("read ack: %w", err)
	}
	if ackMsg.Type != msgAck {
		return fmt.Errorf("expected ack, got %s", ackMsg.Type)
	}

	c.logger.Debug("subscribed", "topic", topic, "subscription_id", subscriptionID)

	// Unblock the read loop when the context is cancelled
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	// Read events until complete or error
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read message: %w", err)
		}

		switch msg.Type {
		case msgEvent:
			event, err := models.DecodeEvent(msg.Payload)
			if err != nil {
				// Unknown shapes are dropped at the boundary rather
				// than trusted; malformed known shapes are fatal.
				var unknown *models.UnknownEventError
				if errors.As(err, &unknown) {
					c.logger.Warn("dropping unknown realtime event", "kind", unknown.Kind, "topic", topic)
					continue
				}
				return fmt.Errorf("decode event: %w", err)
			}
			start := time.Now()
			if err := onEvent(event); err != nil {
				return err
			}
			if c.stats != nil {
				c.stats.RecordTiming(metrics.OpRealtimeEvent, time.Since(start))
			}

		case msgError:
			var e struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(msg.Payload, &e); err != nil || e.Message == "" {
				return fmt.Errorf("subscription error: %s", string(msg.Payload))
			}
			return fmt.Errorf("subscription error: %s", e.Message)

		case msgComplete:
			return nil

		case msgKeepAlive:
			continue

		default:
			// Ignore unknown frame types
			continue
		}
	}
}
