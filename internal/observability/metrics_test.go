package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tickets", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/tickets", "GET", 200, 30*time.Millisecond)
	m.RecordRequest("/tickets/:id", "GET", 404, 20*time.Millisecond)
	m.RecordError("/tickets/:id", "GET", "NOT_FOUND")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/tickets|GET|200"])
	assert.Equal(t, int64(1), snap.Requests["/tickets/:id|GET|404"])
	assert.Equal(t, int64(1), snap.Errors["/tickets/:id|GET|NOT_FOUND"])
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.InDelta(t, 20.0, snap.AverageLatencyMS, 0.001)

	// snapshot is a copy
	snap.Requests["/tickets|GET|200"] = 99
	assert.Equal(t, int64(2), m.Snapshot().Requests["/tickets|GET|200"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	assert.Empty(t, m.Snapshot().Requests)
}
