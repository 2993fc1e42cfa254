// Package models defines the wire types shared by the API client and
// the synchronization engine.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// TempIDPrefix marks locally generated ids for messages that have not
// been confirmed by the server yet. The server never issues ids with
// this prefix.
const TempIDPrefix = "temp-"

// MaxContentLength is the server-enforced message size limit.
const MaxContentLength = 2000

// ErrEmptyContent is returned when message content is blank after trimming.
var ErrEmptyContent = errors.New("message content cannot be empty")

// Message represents a single direct message.
type Message struct {
	ID          string     `json:"id"`
	Content     string     `json:"content"`
	SenderID    string     `json:"sender_id"`
	RecipientID string     `json:"recipient_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Pending reports whether the message is an unconfirmed optimistic entry.
func (m Message) Pending() bool {
	return strings.HasPrefix(m.ID, TempIDPrefix)
}

// LatestMessage is the reduced projection embedded in a conversation
// summary. It carries no recipient; the counterpart is implied.
type LatestMessage struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	SenderID  string    `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation summarizes the exchange with a single counterpart user.
// One summary exists per distinct counterpart; OtherUserID is the key.
type Conversation struct {
	OtherUserID   string        `json:"other_user_id"`
	OtherUsername string        `json:"other_username"`
	LatestMessage LatestMessage `json:"latest_message"`
	UnreadCount   int           `json:"unread_count"`
}

// Page selects a slice of a conversation, oldest-first.
type Page struct {
	Skip  int
	Limit int
}

// ValidateContent normalizes message content the way the server does:
// surrounding whitespace is stripped, blank and oversized content is
// rejected. The limit counts characters, not bytes, so multibyte
// content is measured the same way the server measures it.
func ValidateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyContent
	}
	if utf8.RuneCountInString(trimmed) > MaxContentLength {
		return "", fmt.Errorf("message content cannot exceed %d characters", MaxContentLength)
	}
	return trimmed, nil
}
