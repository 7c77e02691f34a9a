// Package config loads heartbeatd configuration from defaults, an optional
// YAML file, a .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. HEARTBEATD_HEARTBEAT_INTERVAL.
const EnvPrefix = "HEARTBEATD"

// Defaults
const (
	DefaultAppName         = "heartbeatd"
	DefaultInterval        = 60 * time.Second
	DefaultStartupMessage  = "🚀 Application started successfully, hello there!"
	DefaultMessage         = "💓 I am alive and still running..."
	DefaultBackend         = "ticker"
	DefaultShutdownTimeout = 5 * time.Second
)

// AppConfig identifies the running process.
type AppConfig struct {
	// Name is attached to every log record (APP_NAME, HEARTBEATD_APP_NAME)
	Name string `mapstructure:"name" yaml:"name" validate:"required"`
}

// HeartbeatConfig controls what is logged and how often.
type HeartbeatConfig struct {
	Interval       time.Duration `mapstructure:"interval" yaml:"interval" validate:"gt=0"`
	StartupMessage string        `mapstructure:"startup_message" yaml:"startup_message" validate:"required"`
	Message        string        `mapstructure:"message" yaml:"message" validate:"required"`
}

// SchedulerConfig selects the scheduler backend.
type SchedulerConfig struct {
	Backend         string        `mapstructure:"backend" yaml:"backend" validate:"oneof=ticker cron"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string   `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format      string   `mapstructure:"format" yaml:"format" validate:"oneof=console json"`
	Color       bool     `mapstructure:"color" yaml:"color"`
	OutputPaths []string `mapstructure:"output_paths" yaml:"output_paths" validate:"min=1,dive,required"`
}

// MetricsConfig configures the in-process metrics registry.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// TextfilePath, when set, receives the registry in Prometheus text format
	TextfilePath string `mapstructure:"textfile_path" yaml:"textfile_path"`
}

// Config holds all configuration for heartbeatd
type Config struct {
	App       AppConfig       `mapstructure:"app" yaml:"app"`
	Heartbeat HeartbeatConfig `mapstructure:"heartbeat" yaml:"heartbeat"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`

	// Source is the config file that was read, empty when none was found
	Source string `mapstructure:"-" yaml:"-"`
}

// Options controls LoadConfig.
type Options struct {
	// ConfigFile is an explicit config path. When empty, config.yaml is
	// searched in . and ./config and a missing file is not an error.
	ConfigFile string
	// EnvFiles are dotenv files loaded before reading the environment.
	// Missing files are skipped. Defaults to ".env".
	EnvFiles []string
	// Overrides are applied last, keyed by config path (e.g. "heartbeat.interval").
	Overrides map[string]interface{}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", DefaultAppName)
	v.SetDefault("heartbeat.interval", DefaultInterval)
	v.SetDefault("heartbeat.startup_message", DefaultStartupMessage)
	v.SetDefault("heartbeat.message", DefaultMessage)
	v.SetDefault("scheduler.backend", DefaultBackend)
	v.SetDefault("scheduler.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.textfile_path", "")
}

// loadFromEnv sets up environment variable loading
func loadFromEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// APP_NAME is the conventional name used by container platforms
	_ = v.BindEnv("app.name", EnvPrefix+"_APP_NAME", "APP_NAME")
}

// loadEnvFiles loads dotenv files without overriding variables already set.
func loadEnvFiles(files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(opts Options) (*Config, error) {
	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = []string{".env"}
	}
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	loadFromEnv(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// Config file not found, will use defaults and env vars
		}
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Source = v.ConfigFileUsed()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) normalize() {
	c.App.Name = strings.TrimSpace(c.App.Name)
	c.Scheduler.Backend = strings.ToLower(strings.TrimSpace(c.Scheduler.Backend))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

var validate = validator.New()

// Validate checks the configuration and reports the first invalid field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s cannot be empty", field)
	case "gt":
		return fmt.Errorf("%s must be positive, got %v", field, fe.Value())
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "min":
		return fmt.Errorf("%s must have at least %s entries", field, fe.Param())
	default:
		return fmt.Errorf("%s failed %s validation", field, fe.Tag())
	}
}
