// Package metrics provides in-memory statistics for remote-call outcomes.
package metrics

import (
	"math"
	"sync"
	"time"
)

// Operation names recorded by the synchronization engine.
const (
	OpFetchMessages      = "fetch_messages"
	OpSendMessage        = "send_message"
	OpFetchConversations = "fetch_conversations"
	OpMarkRead           = "mark_read"
	OpDeleteMessage      = "delete_message"
	OpPollTick           = "poll_tick"
)

// OperationMetrics holds raw aggregates for a single operation type.
type OperationMetrics struct {
	Count     int64
	Failures  int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64
	Failures    int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64
}

// Snapshot represents all recorded statistics at a point in time,
// keyed by operation name. Operations never recorded are absent.
type Snapshot struct {
	UptimeSeconds float64
	Operations    map[string]OperationSnapshot
}

// Collector aggregates in-memory call statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{
			MinTime: time.Duration(math.MaxInt64),
		}
		c.ops[op] = m
	}
	return m
}

// Record records the duration and outcome of one call.
func (c *Collector) Record(op string, duration time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	if err != nil {
		m.Failures++
	}
	m.TotalTime += duration
	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// snapshotOp computes display stats from raw metrics. Returns zero
// value for nil input.
func snapshotOp(m *OperationMetrics) OperationSnapshot {
	if m == nil || m.Count == 0 {
		return OperationSnapshot{}
	}

	minTime := m.MinTime
	if minTime == time.Duration(math.MaxInt64) {
		minTime = 0
	}

	return OperationSnapshot{
		Count:       m.Count,
		Failures:    m.Failures,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   minTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Operations:    make(map[string]OperationSnapshot, len(c.ops)),
	}
	for op, m := range c.ops {
		snap.Operations[op] = snapshotOp(m)
	}
	return snap
}
