package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"heartbeatd/util/goroutine"

	"go.uber.org/zap"
)

type tickerTask struct {
	name   string
	period time.Duration
	task   Task
}

// TickerScheduler runs each task on its own goroutine driven by a time.Ticker.
type TickerScheduler struct {
	logger    *zap.SugaredLogger
	panicHook goroutine.PanicHook

	mu      sync.Mutex
	tasks   []*tickerTask
	names   map[string]struct{}
	running bool
	stopped bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewTickerScheduler creates a stopped ticker scheduler.
func NewTickerScheduler(logger *zap.SugaredLogger, hook goroutine.PanicHook) *TickerScheduler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TickerScheduler{
		logger:    logger,
		panicHook: hook,
		names:     make(map[string]struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Schedule registers task under name.
func (s *TickerScheduler) Schedule(name string, period time.Duration, task Task) error {
	if err := validateTask(name, period, task); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if _, exists := s.names[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, name)
	}

	t := &tickerTask{name: name, period: period, task: task}
	s.names[name] = struct{}{}
	s.tasks = append(s.tasks, t)

	s.logger.Infow("Task scheduled", "task", name, "period", period, "backend", BackendTicker)

	if s.running {
		s.launch(t)
	}
	return nil
}

// Start launches one goroutine per registered task.
func (s *TickerScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.running {
		return nil
	}

	s.running = true
	for _, t := range s.tasks {
		s.launch(t)
	}

	s.logger.Infow("Scheduler started", "backend", BackendTicker, "tasks", len(s.tasks))
	return nil
}

// Stop cancels all tasks and waits for them to return.
func (s *TickerScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.running = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	if err := waitDone(ctx, done); err != nil {
		s.logger.Warnw("Scheduler stop timed out", "backend", BackendTicker, "error", err)
		return err
	}

	s.logger.Infow("Scheduler stopped", "backend", BackendTicker)
	return nil
}

// Running reports whether the scheduler is started and not stopped.
func (s *TickerScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// launch must be called with s.mu held.
func (s *TickerScheduler) launch(t *tickerTask) {
	s.wg.Add(1)
	go s.loop(t)
}

func (s *TickerScheduler) loop(t *tickerTask) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			// both cases may be ready at once; cancellation wins
			if s.ctx.Err() != nil {
				return
			}
			goroutine.Safe(t.name, s.logger, s.panicHook, func() {
				t.task(s.ctx)
			})
		}
	}
}
