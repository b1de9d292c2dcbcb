// Package api provides the REST client for the SwapCircle backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/swapcircle/swapcircle-go/internal/metrics"
	"github.com/swapcircle/swapcircle-go/internal/models"
)

// Session identifies an authenticated user. It is acquired at sign-in
// and passed explicitly into every operation, never read from ambient
// global state, so its lifecycle stays with the caller.
type Session struct {
	AccessToken string `json:"access_token" yaml:"access_token"`
	UserID      string `json:"user_id" yaml:"user_id"`
}

// Valid reports whether the session carries credentials.
func (s Session) Valid() bool {
	return s.AccessToken != "" && s.UserID != ""
}

// Client is a REST client for the SwapCircle backend.
type Client struct {
	endpoint   string
	httpClient *http.Client
	stats      *metrics.Collector
}

// New creates a new backend client.
// If endpoint is empty, uses SWAPCIRCLE_API_URL env var or defaults to
// localhost:8787. Timeout can be configured via SWAPCIRCLE_API_TIMEOUT.
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("SWAPCIRCLE_API_URL")
	}
	if endpoint == "" {
		endpoint = "http://localhost:8787"
	}

	timeout := 30 * time.Second
	if t := os.Getenv("SWAPCIRCLE_API_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithStats attaches a metrics collector recording request timings.
func (c *Client) WithStats(stats *metrics.Collector) *Client {
	c.stats = stats
	return c
}

// apiError is the backend's error response body.
type apiError struct {
	Detail string `json:"detail"`
}

// do executes one JSON request/response round trip. A zero-value
// session sends no auth header (sign-in only).
func (c *Client) do(ctx context.Context, session Session, method, path string, body, result any) error {
	start := time.Now()
	err := c.roundTrip(ctx, session, method, path, body, result)
	if c.stats != nil {
		if err != nil {
			c.stats.RecordError(metrics.OpAPIRequest)
		} else {
			c.stats.RecordTiming(metrics.OpAPIRequest, time.Since(start))
		}
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, session Session, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())
	if session.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// decodeError maps HTTP failures onto the client error taxonomy. The
// backend's detail string is preserved verbatim for rejections.
func decodeError(status int, body []byte) error {
	var e apiError
	_ = json.Unmarshal(body, &e)

	switch status {
	case http.StatusUnauthorized:
		if e.Detail != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, e.Detail)
		}
		return ErrUnauthorized
	case http.StatusForbidden:
		if e.Detail != "" {
			return fmt.Errorf("%w: %s", ErrNotParticipant, e.Detail)
		}
		return ErrNotParticipant
	case http.StatusNotFound:
		if e.Detail != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, e.Detail)
		}
		return ErrNotFound
	default:
		return &RejectedError{StatusCode: status, Detail: e.Detail}
	}
}

// =============================================================================
// AUTH
// =============================================================================

// SignIn exchanges credentials for a session with the auth collaborator.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	var result Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, Session{}, http.MethodPost, "/auth/signin", body, &result); err != nil {
		return Session{}, err
	}
	if !result.Valid() {
		return Session{}, fmt.Errorf("sign-in response missing credentials")
	}
	return result, nil
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// ListConversations returns all conversations the user participates
// in, each pre-joined with other_user, item, last_message and the
// per-user unread counter, most recent activity first.
func (c *Client) ListConversations(ctx context.Context, session Session) ([]*models.Conversation, error) {
	var result []*models.Conversation
	if err := c.do(ctx, session, http.MethodGet, "/conversations", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetConversation fetches a single conversation snapshot. The backend
// resets the caller's unread counter as a side effect.
func (c *Client) GetConversation(ctx context.Context, session Session, id string) (*models.Conversation, error) {
	var result models.Conversation
	if err := c.do(ctx, session, http.MethodGet, "/conversations/"+url.PathEscape(id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StartConversation starts (or retrieves) a conversation with another
// user, optionally anchored to an item.
func (c *Client) StartConversation(ctx context.Context, session Session, targetUserID, itemID string) (string, error) {
	body := map[string]string{"target_user_id": targetUserID}
	if itemID != "" {
		body["item_id"] = itemID
	}
	var result struct {
		ID    string `json:"id"`
		IsNew bool   `json:"is_new"`
	}
	if err := c.do(ctx, session, http.MethodPost, "/conversations", body, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// MessagePage is one chronological page of conversation history.
type MessagePage struct {
	Messages []models.Message `json:"messages"`
	Page     int              `json:"page"`
	HasMore  bool             `json:"has_more"`
}

// ListMessages fetches a page of history, oldest first. The backend
// stamps read_at on the other party's unread messages as a side effect.
func (c *Client) ListMessages(ctx context.Context, session Session, convID string, page, pageSize int) (*MessagePage, error) {
	path := "/conversations/" + url.PathEscape(convID) + "/messages" +
		"?page=" + strconv.Itoa(page) + "&page_size=" + strconv.Itoa(pageSize)

	var result MessagePage
	if err := c.do(ctx, session, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendMessageInput is the payload for sending a message.
type SendMessageInput struct {
	Content  string               `json:"content"`
	Type     models.MessageType   `json:"type"`
	Metadata *models.ItemSnapshot `json:"metadata,omitempty"`
}

// SendMessage posts a message and returns the created row with its
// server-assigned id. Appending that row locally is the optimistic
// write; the matching realtime event reconciles into the same entry.
func (c *Client) SendMessage(ctx context.Context, session Session, convID string, input SendMessageInput) (*models.Message, error) {
	if input.Type == "" {
		input.Type = models.MessageText
	}
	var result models.Message
	path := "/conversations/" + url.PathEscape(convID) + "/messages"
	if err := c.do(ctx, session, http.MethodPost, path, input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// =============================================================================
// DEALS
// =============================================================================

// UpdateDealStatus invokes a deal action and returns the authoritative
// conversation snapshot. The joint-transition outcome depends on the
// other party's prior signal, so callers must adopt this snapshot
// rather than computing one locally.
func (c *Client) UpdateDealStatus(ctx context.Context, session Session, convID, action string) (*models.Conversation, error) {
	body := map[string]string{"action": action}
	var result models.Conversation
	path := "/conversations/" + url.PathEscape(convID) + "/status"
	if err := c.do(ctx, session, http.MethodPatch, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// =============================================================================
// WARDROBE
// =============================================================================

// Wardrobe lists a participant's available items for in-chat item
// proposals. userID must be one of the two conversation participants.
func (c *Client) Wardrobe(ctx context.Context, session Session, convID, userID string) ([]models.ItemSummary, error) {
	var result []models.ItemSummary
	path := "/conversations/" + url.PathEscape(convID) + "/wardrobe/" + url.PathEscape(userID)
	if err := c.do(ctx, session, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}
