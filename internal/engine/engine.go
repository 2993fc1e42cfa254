// Package engine implements the client-side message synchronization
// engine: an eventually-consistent in-memory view of the current
// user's direct-message conversations, reconciled against the remote
// message service through fetches and a polling session, with
// optimistic local updates for sends.
package engine

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/courierchat/courier/internal/metrics"
	"github.com/courierchat/courier/internal/models"
)

// DefaultPageLimit is the conversation page size used when a caller
// does not specify one, and the fixed page size of polling ticks.
const DefaultPageLimit = 50

// Service is the remote message service surface the engine drives.
// *api.Client satisfies it.
type Service interface {
	GetConversation(ctx context.Context, otherUserID string, page models.Page) ([]models.Message, error)
	SendMessage(ctx context.Context, recipientID, content string) (*models.Message, error)
	GetConversations(ctx context.Context) ([]models.Conversation, error)
	MarkAsRead(ctx context.Context, otherUserID string) (int, error)
	DeleteMessage(ctx context.Context, messageID string) (string, error)
}

// Options configures a new Engine.
type Options struct {
	// UserID is the acting user's identity, stamped on optimistic messages.
	UserID string
	// Logger receives best-effort failure reports (mark-read, poll ticks).
	// Defaults to a discarding logger.
	Logger *slog.Logger
	// Metrics records remote-call outcomes. Defaults to a fresh collector.
	Metrics *metrics.Collector
}

// Engine owns the canonical local message state. All exported methods
// are safe for concurrent use; each state transition is applied
// atomically under the engine lock.
type Engine struct {
	svc     Service
	userID  string
	log     *slog.Logger
	metrics *metrics.Collector

	mu            sync.Mutex
	messages      []models.Message
	conversations map[string]models.Conversation
	loading       bool
	err           error
	current       string
	unread        int

	// Generation counters let a superseded in-flight call detect that
	// a newer call of the same kind owns the next state transition.
	fetchGen uint64
	listGen  uint64

	fetchCancel context.CancelFunc
	listCancel  context.CancelFunc

	poll *pollSession

	subs map[chan struct{}]struct{}
}

// New creates an empty engine bound to the given service.
func New(svc Service, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	collector := opts.Metrics
	if collector == nil {
		collector = metrics.NewCollector()
	}

	return &Engine{
		svc:           svc,
		userID:        opts.UserID,
		log:           logger,
		metrics:       collector,
		conversations: make(map[string]models.Conversation),
		subs:          make(map[chan struct{}]struct{}),
	}
}

// State is a point-in-time copy of engine state. Conversations are
// ordered most-recent-first by their latest message.
type State struct {
	Messages            []models.Message
	Conversations       []models.Conversation
	Loading             bool
	Err                 string
	CurrentConversation string
	UnreadCount         int
	Polling             bool
}

// Snapshot returns a copy of the current state. The copy is detached;
// mutating it does not affect the engine.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := State{
		Messages:            append([]models.Message(nil), e.messages...),
		Conversations:       make([]models.Conversation, 0, len(e.conversations)),
		Loading:             e.loading,
		CurrentConversation: e.current,
		UnreadCount:         e.unread,
		Polling:             e.poll != nil,
	}
	if e.err != nil {
		st.Err = e.err.Error()
	}
	for _, c := range e.conversations {
		st.Conversations = append(st.Conversations, c)
	}
	sort.Slice(st.Conversations, func(i, j int) bool {
		a, b := st.Conversations[i], st.Conversations[j]
		if !a.LatestMessage.CreatedAt.Equal(b.LatestMessage.CreatedAt) {
			return a.LatestMessage.CreatedAt.After(b.LatestMessage.CreatedAt)
		}
		return a.OtherUserID < b.OtherUserID
	})
	return st
}

// Subscribe registers a change observer. The returned channel receives
// a signal after each state change; signals coalesce, so a slow
// receiver sees at least one pending notification. The second return
// value removes the subscription.
func (e *Engine) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	e.mu.Lock()
	e.subs[ch] = struct{}{}
	e.mu.Unlock()

	unsubscribe := func() {
		e.mu.Lock()
		delete(e.subs, ch)
		e.mu.Unlock()
	}
	return ch, unsubscribe
}

// notify signals all subscribers. Must be called without holding e.mu.
func (e *Engine) notify() {
	e.mu.Lock()
	for ch := range e.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	e.mu.Unlock()
}

// sumUnread recomputes the aggregate unread count. Caller holds e.mu.
func sumUnread(conversations map[string]models.Conversation) int {
	total := 0
	for _, c := range conversations {
		total += c.UnreadCount
	}
	return total
}

// replaceConversations swaps the conversation set and rederives the
// aggregate unread count. Caller holds e.mu.
func (e *Engine) replaceConversations(list []models.Conversation) {
	e.conversations = make(map[string]models.Conversation, len(list))
	for _, c := range list {
		e.conversations[c.OtherUserID] = c
	}
	e.unread = sumUnread(e.conversations)
}

// SetMessages replaces the held message sequence.
func (e *Engine) SetMessages(messages []models.Message) {
	e.mu.Lock()
	e.messages = append([]models.Message(nil), messages...)
	e.mu.Unlock()
	e.notify()
}

// SetConversations replaces the conversation set and recomputes the
// aggregate unread count.
func (e *Engine) SetConversations(conversations []models.Conversation) {
	e.mu.Lock()
	e.replaceConversations(conversations)
	e.mu.Unlock()
	e.notify()
}

// SetLoading sets the loading flag.
func (e *Engine) SetLoading(loading bool) {
	e.mu.Lock()
	e.loading = loading
	e.mu.Unlock()
	e.notify()
}

// SetError sets the error value.
func (e *Engine) SetError(err error) {
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
	e.notify()
}

// ClearError nulls the error only.
func (e *Engine) ClearError() {
	e.mu.Lock()
	e.err = nil
	e.mu.Unlock()
	e.notify()
}

// SetCurrentConversation records which counterpart is focused.
func (e *Engine) SetCurrentConversation(otherUserID string) {
	e.mu.Lock()
	e.current = otherUserID
	e.mu.Unlock()
	e.notify()
}

// ClearMessages resets the message sequence and the current
// conversation together. Messages are scoped to whichever conversation
// is current, so the two are only ever cleared as a pair.
func (e *Engine) ClearMessages() {
	e.mu.Lock()
	e.messages = nil
	e.current = ""
	e.mu.Unlock()
	e.notify()
}

// ClearConversations resets the conversation set and the derived
// unread count.
func (e *Engine) ClearConversations() {
	e.mu.Lock()
	e.conversations = make(map[string]models.Conversation)
	e.unread = 0
	e.mu.Unlock()
	e.notify()
}
