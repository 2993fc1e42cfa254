package engine

import (
	"context"
	"time"

	"github.com/courierchat/courier/internal/metrics"
	"github.com/courierchat/courier/internal/models"
)

// FetchOptions configures a conversation fetch.
type FetchOptions struct {
	// Offset is the number of messages to skip.
	Offset int
	// Limit caps the page size; defaults to DefaultPageLimit.
	Limit int
	// LoadMore marks the batch as an older page to prepend rather than
	// a fresh load that replaces the held sequence.
	LoadMore bool
}

// FetchMessages loads a page of the conversation with counterpartID.
// A fresh load replaces the held sequence; a LoadMore batch is
// prepended, keeping the sequence oldest-to-newest. Failures are
// recorded in engine state rather than returned. Starting a new fetch
// cancels any fetch still in flight; the superseded call leaves state
// untouched. The current-conversation focus is never changed here.
func (e *Engine) FetchMessages(ctx context.Context, counterpartID string, opts FetchOptions) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultPageLimit
	}

	ctx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	if e.fetchCancel != nil {
		e.fetchCancel()
	}
	e.fetchCancel = cancel
	e.fetchGen++
	gen := e.fetchGen
	e.loading = true
	e.err = nil
	e.mu.Unlock()
	e.notify()

	start := time.Now()
	batch, err := e.svc.GetConversation(ctx, counterpartID, models.Page{Skip: opts.Offset, Limit: opts.Limit})
	e.metrics.Record(metrics.OpFetchMessages, time.Since(start), err)
	cancel()

	e.mu.Lock()
	if gen != e.fetchGen {
		// Superseded by a newer fetch; its completion owns the state.
		e.mu.Unlock()
		return
	}
	e.fetchCancel = nil
	e.loading = false
	switch {
	case err != nil:
		e.err = err
		if !opts.LoadMore {
			e.messages = nil
		}
	case opts.LoadMore:
		merged := make([]models.Message, 0, len(batch)+len(e.messages))
		merged = append(merged, batch...)
		merged = append(merged, e.messages...)
		e.messages = merged
	default:
		e.messages = batch
	}
	e.mu.Unlock()
	e.notify()
}

// SendMessage sends content to counterpartID with optimistic local
// feedback: a temporary message is appended and visible to observers
// before the remote call resolves, then replaced in place by the
// server-confirmed message or removed entirely on failure. Failures
// are recorded in engine state and returned so callers can offer a
// retry. Observers never see a message that claims success without
// having been persisted.
func (e *Engine) SendMessage(ctx context.Context, counterpartID, content string) (*models.Message, error) {
	content, err := models.ValidateContent(content)
	if err != nil {
		return nil, err
	}

	staged := e.stage(counterpartID, content)
	e.notify()

	start := time.Now()
	confirmed, err := e.svc.SendMessage(ctx, counterpartID, content)
	e.metrics.Record(metrics.OpSendMessage, time.Since(start), err)

	if err != nil {
		e.rollback(staged, err)
		e.notify()
		return nil, err
	}

	e.commit(staged, *confirmed)
	e.notify()
	return confirmed, nil
}

// FetchConversations refreshes the conversation summaries. On success
// the set is replaced outright and the aggregate unread count is
// rederived from the fresh set. Failures are recorded in engine state
// rather than returned; the held set is kept as-is.
func (e *Engine) FetchConversations(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	if e.listCancel != nil {
		e.listCancel()
	}
	e.listCancel = cancel
	e.listGen++
	gen := e.listGen
	e.loading = true
	e.err = nil
	e.mu.Unlock()
	e.notify()

	start := time.Now()
	list, err := e.svc.GetConversations(ctx)
	e.metrics.Record(metrics.OpFetchConversations, time.Since(start), err)
	cancel()

	e.mu.Lock()
	if gen != e.listGen {
		e.mu.Unlock()
		return
	}
	e.listCancel = nil
	e.loading = false
	if err != nil {
		e.err = err
	} else {
		e.replaceConversations(list)
	}
	e.mu.Unlock()
	e.notify()
}

// MarkAsRead asks the server to mark the conversation with
// counterpartID as read, then zeroes that conversation's local unread
// count and rederives the aggregate. The call is best-effort: the
// server is the source of truth for "read", so a failure is only
// logged and local counts stay untouched.
func (e *Engine) MarkAsRead(ctx context.Context, counterpartID string) {
	start := time.Now()
	count, err := e.svc.MarkAsRead(ctx, counterpartID)
	e.metrics.Record(metrics.OpMarkRead, time.Since(start), err)

	if err != nil {
		e.log.Warn("mark as read failed", "other_user_id", counterpartID, "error", err)
		return
	}
	e.log.Debug("marked conversation read", "other_user_id", counterpartID, "count", count)

	e.mu.Lock()
	if c, ok := e.conversations[counterpartID]; ok {
		c.UnreadCount = 0
		e.conversations[counterpartID] = c
		e.unread = sumUnread(e.conversations)
	}
	e.mu.Unlock()
	e.notify()
}

// DeleteMessage deletes a message after server confirmation; there is
// no optimistic pre-removal. On failure the error is recorded in
// engine state, returned, and the sequence left unchanged.
func (e *Engine) DeleteMessage(ctx context.Context, messageID string) error {
	start := time.Now()
	_, err := e.svc.DeleteMessage(ctx, messageID)
	e.metrics.Record(metrics.OpDeleteMessage, time.Since(start), err)

	if err != nil {
		e.mu.Lock()
		e.err = err
		e.mu.Unlock()
		e.notify()
		return err
	}

	e.mu.Lock()
	kept := e.messages[:0]
	for _, m := range e.messages {
		if m.ID != messageID {
			kept = append(kept, m)
		}
	}
	e.messages = kept
	e.mu.Unlock()
	e.notify()
	return nil
}
