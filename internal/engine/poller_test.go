package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/courierchat/courier/internal/models"
)

func TestPollingReplacesLongerBatch(t *testing.T) {
	var calls atomic.Int64
	svc := &fakeService{
		getConversation: func(ctx context.Context, otherUserID string, page models.Page) ([]models.Message, error) {
			calls.Add(1)
			assert.Equal(t, 0, page.Skip)
			assert.Equal(t, DefaultPageLimit, page.Limit)
			return msgs("1", "2", "3"), nil
		},
	}
	e := newTestEngine(svc)
	e.SetMessages(msgs("1", "2"))

	e.StartPolling("u2", 10*time.Millisecond)
	waitFor(t, func() bool { return len(e.Snapshot().Messages) == 3 })
	assert.True(t, e.Snapshot().Polling)

	e.StopPolling()
	assert.False(t, e.Snapshot().Polling)

	// No further ticks fire once the session is stopped.
	settled := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())
}

func TestPollingIgnoresSameLengthBatch(t *testing.T) {
	ticked := make(chan struct{}, 8)
	svc := &fakeService{
		getConversation: func(ctx context.Context, otherUserID string, page models.Page) ([]models.Message, error) {
			select {
			case ticked <- struct{}{}:
			default:
			}
			// Same length as held, different content: not detected as new.
			return msgs("9", "10"), nil
		},
	}
	e := newTestEngine(svc)
	e.SetMessages(msgs("1", "2"))

	e.StartPolling("u2", 10*time.Millisecond)
	defer e.StopPolling()

	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("poll tick never fired")
	}
	assert.Equal(t, []string{"1", "2"}, messageIDs(e.Snapshot().Messages))
}

func TestPollingTickFailureKeepsState(t *testing.T) {
	ticked := make(chan struct{}, 8)
	svc := &fakeService{
		getConversation: func(ctx context.Context, otherUserID string, page models.Page) ([]models.Message, error) {
			select {
			case ticked <- struct{}{}:
			default:
			}
			return nil, context.DeadlineExceeded
		},
	}
	e := newTestEngine(svc)
	e.SetMessages(msgs("1", "2"))

	e.StartPolling("u2", 10*time.Millisecond)
	defer e.StopPolling()

	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("poll tick never fired")
	}

	st := e.Snapshot()
	assert.Equal(t, []string{"1", "2"}, messageIDs(st.Messages))
	// Poll failures are logged, never written to shared error state.
	assert.Empty(t, st.Err)
}

func TestStartPollingReplacesPriorSession(t *testing.T) {
	var calls atomic.Int64
	svc := &fakeService{
		getConversation: func(ctx context.Context, otherUserID string, page models.Page) ([]models.Message, error) {
			calls.Add(1)
			return nil, nil
		},
	}
	e := newTestEngine(svc)

	e.StartPolling("u2", 10*time.Millisecond)
	e.StartPolling("u3", 10*time.Millisecond)

	// A single StopPolling call ends all recurring work: the first
	// session was already terminated when the second started.
	e.StopPolling()
	settled := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())
}

func TestStopPollingWithoutSessionIsNoop(t *testing.T) {
	e := newTestEngine(&fakeService{})
	e.StopPolling()
	e.StopPolling()
	assert.False(t, e.Snapshot().Polling)
}
