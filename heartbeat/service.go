package heartbeat

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultStartupMessage is logged once by OnStart.
	DefaultStartupMessage = "🚀 Application started successfully, hello there!"
	// DefaultMessage is logged by every OnTick.
	DefaultMessage = "💓 I am alive and still running..."
)

// Observer receives lifecycle notifications from a Service.
// Implementations must be safe for concurrent use.
type Observer interface {
	Started()
	Beat(at time.Time)
}

// Config holds the messages emitted by a Service. Empty fields use the defaults.
type Config struct {
	StartupMessage string
	Message        string
}

// Option configures a Service.
type Option func(*Service)

// WithObserver attaches an observer notified on start and on every beat.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		s.observer = o
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service emits the startup and heartbeat log records.
type Service struct {
	logger         *zap.SugaredLogger
	startupMessage string
	message        string
	observer       Observer
	now            func() time.Time

	state     atomic.Int32
	beats     atomic.Uint64
	startedAt atomic.Int64 // unix nanos
}

// NewService creates a service writing to logger. A nil logger discards output.
func NewService(cfg Config, logger *zap.SugaredLogger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.StartupMessage == "" {
		cfg.StartupMessage = DefaultStartupMessage
	}
	if cfg.Message == "" {
		cfg.Message = DefaultMessage
	}

	s := &Service{
		logger:         logger,
		startupMessage: cfg.StartupMessage,
		message:        cfg.Message,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnStart logs the startup message and moves the service to RUNNING.
// Only the first call has any effect.
func (s *Service) OnStart() {
	if !s.state.CompareAndSwap(int32(StateNotStarted), int32(StateRunning)) {
		s.logger.Debug("Heartbeat service already started, ignoring OnStart")
		return
	}

	s.startedAt.Store(s.now().UnixNano())
	s.logger.Info(s.startupMessage)

	if s.observer != nil {
		s.observer.Started()
	}
}

// OnTick logs the heartbeat message. Ticks that arrive before OnStart are dropped.
func (s *Service) OnTick() {
	if s.State() != StateRunning {
		s.logger.Warn("Heartbeat tick before startup, dropping")
		return
	}

	at := s.now()
	n := s.beats.Add(1)
	s.logger.Infow(s.message, "beat", n)

	if s.observer != nil {
		s.observer.Beat(at)
	}
}

// Task adapts OnTick to a scheduler callback. Ticks delivered after ctx is
// cancelled are skipped so nothing is emitted once shutdown has begun.
func (s *Service) Task() func(ctx context.Context) {
	return func(ctx context.Context) {
		if ctx.Err() != nil {
			return
		}
		s.OnTick()
	}
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Beats returns the number of heartbeat records emitted so far.
func (s *Service) Beats() uint64 {
	return s.beats.Load()
}

// StartedAt returns when OnStart ran, or the zero time if it has not.
func (s *Service) StartedAt() time.Time {
	ns := s.startedAt.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Uptime returns the time elapsed since OnStart, or zero if not started.
func (s *Service) Uptime() time.Duration {
	started := s.StartedAt()
	if started.IsZero() {
		return 0
	}
	return s.now().Sub(started)
}
