package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/courierchat/courier/internal/models"
)

// stagedMessage identifies an optimistic entry awaiting confirmation.
type stagedMessage struct {
	tempID string
}

// stage appends an optimistic message with a locally generated
// temporary id and raises the loading flag. The entry becomes visible
// to observers immediately; it must later be resolved by exactly one
// of commit or rollback.
func (e *Engine) stage(counterpartID, content string) stagedMessage {
	staged := stagedMessage{tempID: models.TempIDPrefix + uuid.NewString()}

	e.mu.Lock()
	e.messages = append(e.messages, models.Message{
		ID:          staged.tempID,
		Content:     content,
		SenderID:    e.userID,
		RecipientID: counterpartID,
		CreatedAt:   time.Now(),
	})
	e.loading = true
	e.mu.Unlock()

	return staged
}

// commit replaces the staged entry in place with the server-confirmed
// message and clears the loading and error state. If the held sequence
// was replaced while the send was in flight (a poll tick or fresh
// fetch), the confirmed message is appended instead so it is not lost.
func (e *Engine) commit(staged stagedMessage, confirmed models.Message) {
	e.mu.Lock()
	replaced := false
	for i := range e.messages {
		if e.messages[i].ID == staged.tempID {
			e.messages[i] = confirmed
			replaced = true
			break
		}
	}
	if !replaced {
		e.messages = append(e.messages, confirmed)
	}
	e.loading = false
	e.err = nil
	e.mu.Unlock()
}

// rollback removes the staged entry entirely and records the failure.
// No partial or failed message stays visible.
func (e *Engine) rollback(staged stagedMessage, cause error) {
	e.mu.Lock()
	kept := e.messages[:0]
	for _, m := range e.messages {
		if m.ID != staged.tempID {
			kept = append(kept, m)
		}
	}
	e.messages = kept
	e.err = cause
	e.loading = false
	e.mu.Unlock()
}
