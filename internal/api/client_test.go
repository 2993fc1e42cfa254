package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courierchat/courier/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "")
}

func TestGetConversation(t *testing.T) {
	var gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]models.Message{
			{ID: "1", Content: "hey", SenderID: "u2"},
			{ID: "2", Content: "hi", SenderID: "u1"},
		})
	})

	messages, err := client.GetConversation(context.Background(), "u2", models.Page{Skip: 10, Limit: 50})
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "/messages", gotPath)
	assert.Contains(t, gotQuery, "other_user_id=u2")
	assert.Contains(t, gotQuery, "skip=10")
	assert.Contains(t, gotQuery, "limit=50")
	assert.Equal(t, "1", messages[0].ID)
	assert.Equal(t, "hey", messages[0].Content)
}

func TestSendMessage(t *testing.T) {
	var gotMethod string
	var gotBody sendMessageRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Message{
			ID: "3", Content: gotBody.Content, SenderID: "u1", RecipientID: gotBody.RecipientID,
			CreatedAt: time.Now(),
		})
	})

	msg, err := client.SendMessage(context.Background(), "u2", "hello there")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "hello there", gotBody.Content)
	assert.Equal(t, "u2", gotBody.RecipientID)
	assert.Equal(t, "3", msg.ID)
}

func TestGetConversations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations", r.URL.Path)
		json.NewEncoder(w).Encode([]models.Conversation{
			{OtherUserID: "u2", OtherUsername: "bob", UnreadCount: 3},
		})
	})

	conversations, err := client.GetConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, "bob", conversations[0].OtherUsername)
	assert.Equal(t, 3, conversations[0].UnreadCount)
}

func TestMarkAsRead(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/messages/read", r.URL.Path)
		assert.Equal(t, "u2", r.URL.Query().Get("other_user_id"))
		json.NewEncoder(w).Encode(map[string]int{"marked_as_read": 4})
	})

	count, err := client.MarkAsRead(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestDeleteMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/messages/7", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"message": "Message deleted successfully"})
	})

	confirmation, err := client.DeleteMessage(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Message deleted successfully", confirmation)
}

func TestGetUnreadCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages/unread-count", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]int{"unread_count": 9})
	})

	count, err := client.GetUnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, count)
}

func TestSearchMessages(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages/search", r.URL.Path)
		assert.Equal(t, "lunch", r.URL.Query().Get("query"))
		assert.Equal(t, "u2", r.URL.Query().Get("other_user_id"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode([]models.Message{{ID: "5", Content: "lunch?"}})
	})

	messages, err := client.SearchMessages(context.Background(), "u2", "lunch", 20)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "lunch?", messages[0].Content)
}

func TestErrorDetailExtraction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "User not found"})
	})

	_, err := client.GetConversation(context.Background(), "missing", models.Page{Limit: 50})
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "User not found", err.Error())
}

func TestErrorNonJSONFallback(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>upstream broke</html>"))
	})

	_, err := client.GetConversations(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "502")
}

func TestBearerTokenHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]models.Conversation{})
	}))
	defer srv.Close()

	client := New(srv.URL, "secret-token")
	_, err := client.GetConversations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}
