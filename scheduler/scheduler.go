// Package scheduler runs named callbacks at fixed periods.
//
// Two backends implement Scheduler: a ticker backend with one goroutine per
// task, and a cron backend built on github.com/robfig/cron/v3. Both share the
// same guarantees:
//   - the first invocation happens one period after the task begins
//   - invocations of the same task never overlap
//   - a panicking task is logged and keeps its schedule
//   - once Stop returns, no invocation begins
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"heartbeatd/util/goroutine"

	"go.uber.org/zap"
)

// Task is a recurring callback. ctx is cancelled when the scheduler stops.
type Task func(ctx context.Context)

// Scheduler registers recurring tasks and owns their execution.
type Scheduler interface {
	// Schedule registers task to run every period. Tasks scheduled before
	// Start begin when Start is called; later ones begin immediately.
	Schedule(name string, period time.Duration, task Task) error
	// Start begins executing registered tasks.
	Start() error
	// Stop halts all tasks and waits for in-flight invocations until ctx expires.
	Stop(ctx context.Context) error
	// Running reports whether the scheduler has been started and not stopped.
	Running() bool
}

// Backend names accepted by New.
const (
	BackendTicker = "ticker"
	BackendCron   = "cron"
)

var (
	// ErrInvalidTask is returned for an empty name, nil task or non-positive period.
	ErrInvalidTask = errors.New("invalid task")
	// ErrDuplicateTask is returned when a task name is already registered.
	ErrDuplicateTask = errors.New("task already scheduled")
	// ErrStopped is returned when scheduling on or starting a stopped scheduler.
	ErrStopped = errors.New("scheduler stopped")
	// ErrUnknownBackend is returned by New for an unrecognised backend.
	ErrUnknownBackend = errors.New("unknown scheduler backend")
)

// Config selects and configures a backend.
type Config struct {
	Backend   string
	Logger    *zap.SugaredLogger
	PanicHook goroutine.PanicHook
}

// New creates a scheduler for cfg.Backend. An empty backend selects the ticker.
func New(cfg Config) (Scheduler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	switch strings.ToLower(cfg.Backend) {
	case "", BackendTicker:
		return NewTickerScheduler(logger, cfg.PanicHook), nil
	case BackendCron:
		return NewCronScheduler(logger, cfg.PanicHook), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

func validateTask(name string, period time.Duration, task Task) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidTask)
	}
	if task == nil {
		return fmt.Errorf("%w: %s: task cannot be nil", ErrInvalidTask, name)
	}
	if period <= 0 {
		return fmt.Errorf("%w: %s: period must be positive, got %v", ErrInvalidTask, name, period)
	}
	return nil
}

// waitDone blocks until done is closed or ctx expires.
func waitDone(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running tasks: %w", ctx.Err())
	}
}
