package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"heartbeatd/util/goroutine"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// fixedRate fires period after the previous activation. Unlike cron.Every it
// keeps sub-second precision, so the first run is never earlier than period.
type fixedRate struct {
	period time.Duration
}

func (f fixedRate) Next(t time.Time) time.Time {
	return t.Add(f.period)
}

// cronLogger adapts a zap logger to cron.Logger.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}

// CronScheduler runs tasks on a robfig/cron runner.
type CronScheduler struct {
	logger    *zap.SugaredLogger
	panicHook goroutine.PanicHook
	cron      *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID
	running bool
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewCronScheduler creates a stopped cron scheduler. Overlapping runs of the
// same task are skipped.
func NewCronScheduler(logger *zap.SugaredLogger, hook goroutine.PanicHook) *CronScheduler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{sugar: logger}

	return &CronScheduler{
		logger:    logger,
		panicHook: hook,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.SkipIfStillRunning(cl)),
		),
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Schedule registers task under name.
func (s *CronScheduler) Schedule(name string, period time.Duration, task Task) error {
	if err := validateTask(name, period, task); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, name)
	}

	job := cron.FuncJob(func() {
		if s.ctx.Err() != nil {
			return
		}
		goroutine.Safe(name, s.logger, s.panicHook, func() {
			task(s.ctx)
		})
	})

	s.entries[name] = s.cron.Schedule(fixedRate{period: period}, job)
	s.logger.Infow("Task scheduled", "task", name, "period", period, "backend", BackendCron)
	return nil
}

// Start starts the cron runner.
func (s *CronScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.running {
		return nil
	}

	s.cron.Start()
	s.running = true

	s.logger.Infow("Scheduler started", "backend", BackendCron, "tasks", len(s.entries))
	return nil
}

// Stop stops the cron runner and waits for running jobs to complete.
func (s *CronScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.running = false
	s.cancel()
	stopCtx := s.cron.Stop()
	s.mu.Unlock()

	if err := waitDone(ctx, stopCtx.Done()); err != nil {
		s.logger.Warnw("Scheduler stop timed out", "backend", BackendCron, "error", err)
		return err
	}

	s.logger.Infow("Scheduler stopped", "backend", BackendCron)
	return nil
}

// Running reports whether the scheduler is started and not stopped.
func (s *CronScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
