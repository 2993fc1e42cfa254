// Package api provides an HTTP client for the remote message service.
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
	"strings"
	"time"

	"github.com/courierchat/courier/internal/models"
)

// Client talks to the message service's REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client.
// If baseURL is empty, uses the COURIER_SERVER_URL env var or defaults
// to localhost:8000. Timeout can be configured via COURIER_CLIENT_TIMEOUT.
func New(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("COURIER_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	timeout := 30 * time.Second
	if t := os.Getenv("COURIER_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithTimeout overrides the HTTP client timeout. Zero leaves it unchanged.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.httpClient.Timeout = d
	}
	return c
}

// do sends a request and decodes the JSON response into result.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp, data)
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// GetConversation returns a page of the conversation with another user,
// ordered oldest-first.
func (c *Client) GetConversation(ctx context.Context, otherUserID string, page models.Page) ([]models.Message, error) {
	query := url.Values{}
	query.Set("other_user_id", otherUserID)
	query.Set("skip", strconv.Itoa(page.Skip))
	query.Set("limit", strconv.Itoa(page.Limit))

	var messages []models.Message
	if err := c.do(ctx, http.MethodGet, "/messages", query, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// sendMessageRequest is the create-message payload.
type sendMessageRequest struct {
	Content     string `json:"content"`
	RecipientID string `json:"recipient_id"`
}

// SendMessage creates a message and returns the server-confirmed copy,
// which carries the real id.
func (c *Client) SendMessage(ctx context.Context, recipientID, content string) (*models.Message, error) {
	var msg models.Message
	req := sendMessageRequest{Content: content, RecipientID: recipientID}
	if err := c.do(ctx, http.MethodPost, "/messages", nil, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetConversations returns the conversation summaries for the current user.
func (c *Client) GetConversations(ctx context.Context) ([]models.Conversation, error) {
	var conversations []models.Conversation
	if err := c.do(ctx, http.MethodGet, "/conversations", nil, nil, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// MarkAsRead marks all messages from another user as read and returns
// the number of messages affected.
func (c *Client) MarkAsRead(ctx context.Context, otherUserID string) (int, error) {
	query := url.Values{}
	query.Set("other_user_id", otherUserID)

	var result struct {
		MarkedAsRead int `json:"marked_as_read"`
	}
	if err := c.do(ctx, http.MethodPut, "/messages/read", query, nil, &result); err != nil {
		return 0, err
	}
	return result.MarkedAsRead, nil
}

// DeleteMessage deletes a message by id and returns the server's
// confirmation text.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) (string, error) {
	var result struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodDelete, "/messages/"+url.PathEscape(messageID), nil, nil, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

// GetUnreadCount returns the server-side total of unread messages.
func (c *Client) GetUnreadCount(ctx context.Context) (int, error) {
	var result struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := c.do(ctx, http.MethodGet, "/messages/unread-count", nil, nil, &result); err != nil {
		return 0, err
	}
	return result.UnreadCount, nil
}

// SearchMessages searches within a single conversation.
func (c *Client) SearchMessages(ctx context.Context, otherUserID, searchQuery string, limit int) ([]models.Message, error) {
	query := url.Values{}
	query.Set("query", searchQuery)
	query.Set("other_user_id", otherUserID)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var messages []models.Message
	if err := c.do(ctx, http.MethodGet, "/messages/search", query, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
