package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndSnapshot(t *testing.T) {
	c := NewCollector()

	c.Record(OpSendMessage, 10*time.Millisecond, nil)
	c.Record(OpSendMessage, 30*time.Millisecond, nil)
	c.Record(OpSendMessage, 20*time.Millisecond, errors.New("boom"))

	snap := c.Snapshot()
	op, ok := snap.Operations[OpSendMessage]
	require.True(t, ok)

	assert.Equal(t, int64(3), op.Count)
	assert.Equal(t, int64(1), op.Failures)
	assert.Equal(t, int64(60), op.TotalTimeMs)
	assert.InDelta(t, 20.0, op.AvgTimeMs, 0.001)
	assert.Equal(t, int64(10), op.MinTimeMs)
	assert.Equal(t, int64(30), op.MaxTimeMs)
}

func TestSnapshotOmitsUnrecordedOps(t *testing.T) {
	c := NewCollector()
	c.Record(OpPollTick, time.Millisecond, nil)

	snap := c.Snapshot()
	assert.Contains(t, snap.Operations, OpPollTick)
	assert.NotContains(t, snap.Operations, OpDeleteMessage)
}

func TestSnapshotUptime(t *testing.T) {
	c := NewCollector()
	snap := c.Snapshot()
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}
