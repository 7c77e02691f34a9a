// Package metrics holds the heartbeatd Prometheus collectors.
//
// Collectors live on a private registry. There is no HTTP exposition; the
// registry can be written to a node-exporter textfile instead.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Metrics groups the collectors and implements heartbeat.Observer.
type Metrics struct {
	registry *prometheus.Registry

	Startups      prometheus.Counter
	Heartbeats    prometheus.Counter
	LastHeartbeat prometheus.Gauge
	TaskPanics    *prometheus.CounterVec
	BuildInfo     *prometheus.GaugeVec

	logger       *zap.SugaredLogger
	textfileMu   sync.Mutex
	textfilePath string
}

// New registers all collectors on a fresh registry.
func New(app, version string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		Startups: factory.NewCounter(prometheus.CounterOpts{
			Name: "heartbeatd_startups_total",
			Help: "Total number of startup records emitted",
		}),
		Heartbeats: factory.NewCounter(prometheus.CounterOpts{
			Name: "heartbeatd_heartbeats_total",
			Help: "Total number of heartbeat records emitted",
		}),
		LastHeartbeat: factory.NewGauge(prometheus.GaugeOpts{
			Name: "heartbeatd_last_heartbeat_timestamp_seconds",
			Help: "Unix time of the most recent heartbeat record",
		}),
		TaskPanics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heartbeatd_task_panics_total",
				Help: "Total number of panics recovered from scheduled tasks",
			},
			[]string{"task"},
		),
		BuildInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "heartbeatd_build_info",
				Help: "Build information, constant 1",
			},
			[]string{"version", "app"},
		),
		logger: zap.NewNop().Sugar(),
	}

	m.BuildInfo.WithLabelValues(version, app).Set(1)
	return m
}

// Registry returns the registry holding all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// EnableTextfile writes the registry to path after every heartbeat.
// Write failures are logged to logger and otherwise ignored.
func (m *Metrics) EnableTextfile(path string, logger *zap.SugaredLogger) {
	m.textfileMu.Lock()
	defer m.textfileMu.Unlock()

	m.textfilePath = path
	if logger != nil {
		m.logger = logger
	}
}

// Started counts a startup record.
func (m *Metrics) Started() {
	m.Startups.Inc()
}

// Beat counts a heartbeat record emitted at at.
func (m *Metrics) Beat(at time.Time) {
	m.Heartbeats.Inc()
	m.LastHeartbeat.Set(float64(at.UnixNano()) / 1e9)

	if err := m.WriteTextfile(); err != nil {
		m.logger.Warnw("Failed to write metrics textfile", "error", err)
	}
}

// TaskPanicked counts a recovered panic. Its signature matches goroutine.PanicHook.
func (m *Metrics) TaskPanicked(name string, _ interface{}) {
	m.TaskPanics.WithLabelValues(name).Inc()
}

// WriteTextfile writes the registry in text format. It is a no-op when no
// textfile path is configured.
func (m *Metrics) WriteTextfile() error {
	m.textfileMu.Lock()
	defer m.textfileMu.Unlock()

	if m.textfilePath == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.textfilePath, m.registry); err != nil {
		return fmt.Errorf("write %s: %w", m.textfilePath, err)
	}
	return nil
}
