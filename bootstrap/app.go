package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"heartbeatd/buildinfo"
	"heartbeatd/config"
	"heartbeatd/heartbeat"
	"heartbeatd/metrics"
	"heartbeatd/scheduler"
	"heartbeatd/util/goroutine"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// HeartbeatTask is the scheduler name of the heartbeat task.
const HeartbeatTask = "heartbeat"

// ErrAlreadyStarted is returned by Start when called more than once.
var ErrAlreadyStarted = errors.New("application already started")

// Options configures NewApp.
type Options struct {
	// Config controls configuration loading.
	Config config.Options
	// LogCore replaces the configured log sink. Used by tests.
	LogCore zapcore.Core
	// Signals that trigger shutdown. Defaults to SIGINT and SIGTERM.
	Signals []os.Signal
}

// App represents the heartbeatd process with all its components.
type App struct {
	// Configuration
	Config     *config.Config
	Logger     *zap.Logger
	Sugar      *zap.SugaredLogger
	InstanceID string

	// Components
	Metrics   *metrics.Metrics
	Heartbeat *heartbeat.Service
	Scheduler scheduler.Scheduler

	// Lifecycle
	signals      []os.Signal
	sigCh        chan os.Signal
	logCleanup   func()
	mu           sync.Mutex
	started      bool
	shutdownOnce sync.Once
}

// NewApp creates a new application instance and initializes all components.
func NewApp(ctx context.Context, opts Options) (*App, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, err := InitConfig(opts.Config)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:     cfg,
		InstanceID: uuid.New().String(),
		signals:    opts.Signals,
		logCleanup: func() {},
	}
	if len(app.signals) == 0 {
		app.signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}

	// Install the handler before any component starts; signals arriving
	// during startup are held until WaitForShutdown.
	app.sigCh = make(chan os.Signal, 1)
	signal.Notify(app.sigCh, app.signals...)

	// Initialize logger
	var logger *zap.Logger
	if opts.LogCore != nil {
		logger = zap.New(opts.LogCore)
	} else {
		var cleanup func()
		logger, _, cleanup, err = InitLogger(cfg.Logging)
		if err != nil {
			app.release()
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		app.logCleanup = cleanup
	}
	app.Logger = logger.With(
		zap.String("app", cfg.App.Name),
		zap.String("instance_id", app.InstanceID))
	app.Sugar = app.Logger.Sugar()

	app.Sugar.Infow("heartbeatd starting...", "version", buildinfo.Version, "commit", buildinfo.Commit)
	logConfig(cfg, app.Sugar)

	// Metrics
	var observer heartbeat.Observer
	var panicHook goroutine.PanicHook
	if cfg.Metrics.Enabled {
		app.Metrics = metrics.New(cfg.App.Name, buildinfo.Version)
		if cfg.Metrics.TextfilePath != "" {
			if _, err := EnsureTextfileDir(cfg.Metrics.TextfilePath, app.Sugar); err != nil {
				app.release()
				return nil, err
			}
			app.Metrics.EnableTextfile(cfg.Metrics.TextfilePath, app.Sugar)
		}
		observer = app.Metrics
		panicHook = app.Metrics.TaskPanicked
	} else {
		app.Sugar.Info("Metrics disabled by configuration")
	}

	// Heartbeat service
	var svcOpts []heartbeat.Option
	if observer != nil {
		svcOpts = append(svcOpts, heartbeat.WithObserver(observer))
	}
	app.Heartbeat = heartbeat.NewService(heartbeat.Config{
		StartupMessage: cfg.Heartbeat.StartupMessage,
		Message:        cfg.Heartbeat.Message,
	}, app.Sugar, svcOpts...)

	// Scheduler
	sched, err := scheduler.New(scheduler.Config{
		Backend:   cfg.Scheduler.Backend,
		Logger:    app.Sugar.Named("scheduler"),
		PanicHook: panicHook,
	})
	if err != nil {
		app.release()
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	app.Scheduler = sched

	return app, nil
}

// Start emits the startup record and then schedules the heartbeat. The first
// heartbeat follows one interval later, so it can never precede the startup record.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return ErrAlreadyStarted
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a.Heartbeat.OnStart()

	interval := a.Config.Heartbeat.Interval
	if err := a.Scheduler.Schedule(HeartbeatTask, interval, a.Heartbeat.Task()); err != nil {
		return fmt.Errorf("failed to schedule heartbeat: %w", err)
	}
	if err := a.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	a.started = true

	a.Sugar.Infow("Heartbeat scheduled",
		"interval", interval,
		"first_beat_at", time.Now().Add(interval).Format(time.RFC3339))
	return nil
}

// WaitForShutdown blocks until a shutdown signal is received or ctx is done.
// A signal delivered at any point after NewApp, including during Start, counts.
func (a *App) WaitForShutdown(ctx context.Context) {
	select {
	case sig := <-a.sigCh:
		a.Sugar.Infow("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		a.Sugar.Infow("Context done, shutting down", "reason", ctx.Err())
	}
}

// Shutdown gracefully shuts down all components. Only the first call has any effect.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(a.shutdown)
}

func (a *App) shutdown() {
	a.Sugar.Info("Shutting down...")

	// Phase 1 - Stop scheduler so no heartbeat is emitted after shutdown
	a.Sugar.Info("Phase 1: Stopping scheduler...")
	if a.Scheduler != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Config.Scheduler.ShutdownTimeout)
		if err := a.Scheduler.Stop(ctx); err != nil {
			a.Sugar.Errorw("Scheduler shutdown timed out", "error", err)
		}
		cancel()
	}

	// Phase 2 - Flush metrics
	a.Sugar.Info("Phase 2: Flushing metrics...")
	if a.Metrics != nil {
		if err := a.Metrics.WriteTextfile(); err != nil {
			a.Sugar.Warnw("Failed to write metrics textfile", "error", err)
		}
	}

	a.Sugar.Infow("Shutdown complete",
		"beats", a.Heartbeat.Beats(),
		"uptime", a.Heartbeat.Uptime().Round(time.Millisecond).String())

	// stdout and stderr cannot be synced on some platforms
	_ = a.Logger.Sync()
	a.release()
}

// release stops signal delivery and closes log outputs.
func (a *App) release() {
	signal.Stop(a.sigCh)
	a.logCleanup()
}

// Run starts the application, blocks until a signal or ctx cancellation,
// then shuts down.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		a.Shutdown()
		return fmt.Errorf("failed to start application: %w", err)
	}

	a.WaitForShutdown(ctx)
	a.Shutdown()
	return nil
}
