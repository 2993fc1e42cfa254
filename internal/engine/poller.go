package engine

import (
	"context"
	"time"

	"github.com/courierchat/courier/internal/metrics"
	"github.com/courierchat/courier/internal/models"
)

// DefaultPollInterval is used when StartPolling is given a
// non-positive interval.
const DefaultPollInterval = 5 * time.Second

// pollSession is a single recurring reconciliation loop. At most one
// session is active per engine.
type pollSession struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartPolling begins a recurring reconciliation of the conversation
// with counterpartID. Any prior session is stopped first, so at most
// one session is ever active. Each tick fetches the first page
// (skip 0, limit DefaultPageLimit) and replaces the held sequence
// wholesale when the batch is longer than what is held. Length is the
// only novelty signal: a same-length batch with different content is
// not detected as new. Ticks run serialized in a single goroutine, so
// a slow response delays the next tick rather than overlapping it.
func (e *Engine) StartPolling(counterpartID string, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	e.StopPolling()

	ctx, cancel := context.WithCancel(context.Background())
	session := &pollSession{cancel: cancel, done: make(chan struct{})}

	e.mu.Lock()
	e.poll = session
	e.mu.Unlock()

	go e.pollLoop(ctx, session, counterpartID, interval)
}

// StopPolling cancels the active polling session and waits for its
// goroutine to exit. Calling it with no active session is a no-op.
func (e *Engine) StopPolling() {
	e.mu.Lock()
	session := e.poll
	e.poll = nil
	e.mu.Unlock()

	if session == nil {
		return
	}
	session.cancel()
	<-session.done
}

func (e *Engine) pollLoop(ctx context.Context, session *pollSession, counterpartID string, interval time.Duration) {
	defer close(session.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.pollOnce(ctx, counterpartID)
		}
	}
}

// pollOnce performs a single reconciliation tick.
func (e *Engine) pollOnce(ctx context.Context, counterpartID string) {
	start := time.Now()
	batch, err := e.svc.GetConversation(ctx, counterpartID, models.Page{Skip: 0, Limit: DefaultPageLimit})
	e.metrics.Record(metrics.OpPollTick, time.Since(start), err)

	if err != nil {
		if ctx.Err() == nil {
			e.log.Debug("poll tick failed", "other_user_id", counterpartID, "error", err)
		}
		return
	}

	e.mu.Lock()
	grew := len(batch) > len(e.messages)
	if grew {
		e.messages = batch
	}
	e.mu.Unlock()

	if grew {
		e.notify()
	}
}
