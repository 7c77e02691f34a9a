package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMetricsRegistration(t *testing.T) {
	m := New("test-app", "1.2.3")

	assert.NotNil(t, m.Startups)
	assert.NotNil(t, m.Heartbeats)
	assert.NotNil(t, m.LastHeartbeat)
	assert.NotNil(t, m.TaskPanics)
	assert.NotNil(t, m.BuildInfo)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.BuildInfo.WithLabelValues("1.2.3", "test-app")))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := New("a", "dev")
	b := New("b", "dev")

	a.Started()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.Startups))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.Startups))
}

func TestMetrics_Observer(t *testing.T) {
	m := New("test-app", "dev")
	at := time.Unix(1700000000, 500000000)

	m.Started()
	m.Beat(at)
	m.Beat(at)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Startups))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Heartbeats))
	assert.InDelta(t, 1700000000.5, testutil.ToFloat64(m.LastHeartbeat), 0.001)
}

func TestMetrics_TaskPanicked(t *testing.T) {
	m := New("test-app", "dev")

	m.TaskPanicked("heartbeat", "boom")
	m.TaskPanicked("heartbeat", "boom")
	m.TaskPanicked("other", 1)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.TaskPanics.WithLabelValues("heartbeat")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TaskPanics.WithLabelValues("other")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New("test-app", "dev")

	// no path configured
	require.NoError(t, m.WriteTextfile())

	path := filepath.Join(t.TempDir(), "heartbeatd.prom")
	m.EnableTextfile(path, nil)
	m.Started()
	m.Beat(time.Now())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "heartbeatd_heartbeats_total 1")
	assert.Contains(t, content, "heartbeatd_startups_total 1")
	assert.Contains(t, content, `heartbeatd_build_info{app="test-app",version="dev"} 1`)
}

func TestMetrics_TextfileFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := New("test-app", "dev")

	path := filepath.Join(t.TempDir(), "missing-dir", "heartbeatd.prom")
	m.EnableTextfile(path, zap.New(core).Sugar())

	assert.NotPanics(t, func() { m.Beat(time.Now()) })
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Heartbeats))

	entries := logs.FilterMessage("Failed to write metrics textfile").All()
	require.Len(t, entries, 1)
	assert.True(t, strings.Contains(entries[0].ContextMap()["error"].(string), "missing-dir"))
}
