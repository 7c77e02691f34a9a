package bootstrap

import (
	"fmt"
	"os"

	"heartbeatd/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger builds the zap logger described by cfg. The console format uses
// ISO8601 timestamps, capital levels (colored when enabled) and short callers.
// The returned cleanup closes any opened log files.
func InitLogger(cfg config.LoggingConfig) (*zap.Logger, *zap.SugaredLogger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	paths := cfg.OutputPaths
	if len(paths) == 0 {
		paths = []string{"stdout"}
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "json":
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		if cfg.Color && consoleOnly(paths) {
			encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	sink, cleanup, err := zap.Open(paths...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open log outputs %v: %w", paths, err)
	}

	core := zapcore.NewCore(encoder, sink, level)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return logger, logger.Sugar(), cleanup, nil
}

// consoleOnly reports whether every output is stdout or stderr. Color codes
// are only written to a terminal stream, never to log files.
func consoleOnly(paths []string) bool {
	for _, p := range paths {
		if p != "stdout" && p != "stderr" {
			return false
		}
	}
	return true
}

// InitConfig loads the application configuration.
func InitConfig(opts config.Options) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load config: %v\n", err)
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// logConfig reports where configuration came from and the effective values.
func logConfig(cfg *config.Config, sugar *zap.SugaredLogger) {
	if cfg.Source == "" {
		sugar.Info("No config file found, using defaults and env vars")
	} else {
		sugar.Infow("Config file loaded", "path", cfg.Source)
	}

	sugar.Infow("Config loaded",
		"interval", cfg.Heartbeat.Interval,
		"scheduler_backend", cfg.Scheduler.Backend,
		"log_level", cfg.Logging.Level,
		"log_format", cfg.Logging.Format,
		"metrics_enabled", cfg.Metrics.Enabled,
		"metrics_textfile", cfg.Metrics.TextfilePath)
}
