// Package cmd provides the heartbeatd command-line interface.
package cmd

import (
	"context"
	"time"

	"heartbeatd/bootstrap"
	"heartbeatd/buildinfo"
	"heartbeatd/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// CLI output formatters
var (
	headerColor = color.New(color.FgBlue, color.Bold)
	infoColor   = color.New(color.FgCyan)
	faintColor  = color.New(color.Faint)
)

// rootOptions holds the persistent flags shared by all commands.
type rootOptions struct {
	configFile string
	interval   time.Duration
	backend    string
	logLevel   string
	logFormat  string
	noColor    bool
}

// flagOverrides maps a flag name to the config key it overrides.
var flagOverrides = map[string]string{
	"interval":   "heartbeat.interval",
	"backend":    "scheduler.backend",
	"log-level":  "logging.level",
	"log-format": "logging.format",
}

// configOptions builds config.Options from the flags that were set explicitly.
func (o *rootOptions) configOptions(flags *pflag.FlagSet) config.Options {
	overrides := make(map[string]interface{})
	for flag, key := range flagOverrides {
		f := flags.Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		switch flag {
		case "interval":
			overrides[key] = o.interval
		case "backend":
			overrides[key] = o.backend
		case "log-level":
			overrides[key] = o.logLevel
		case "log-format":
			overrides[key] = o.logFormat
		}
	}
	if o.noColor {
		overrides["logging.color"] = false
	}

	return config.Options{
		ConfigFile: o.configFile,
		Overrides:  overrides,
	}
}

// NewRootCmd creates the heartbeatd command with all subcommands.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "heartbeatd",
		Short: "Log a startup greeting and a periodic heartbeat",
		Long: `heartbeatd logs a one-time startup record and then a heartbeat record at a
fixed interval (60s by default) until it receives SIGINT or SIGTERM.

Configuration is read from config.yaml (or --config), a .env file and
HEARTBEATD_* environment variables. Flags take precedence over all of them.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(cmd.Context(), opts.configOptions(cmd.Flags()))
		},
	}

	rootCmd.SetVersionTemplate(buildinfo.String() + "\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Config file path (default: ./config.yaml or ./config/config.yaml)")
	flags.DurationVar(&opts.interval, "interval", config.DefaultInterval, "Heartbeat interval")
	flags.StringVar(&opts.backend, "backend", config.DefaultBackend, "Scheduler backend (ticker|cron)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	flags.StringVar(&opts.logFormat, "log-format", "console", "Log format (console|json)")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// runService initializes and runs heartbeatd until a shutdown signal or ctx cancellation.
func runService(ctx context.Context, cfgOpts config.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := bootstrap.NewApp(ctx, bootstrap.Options{Config: cfgOpts})
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
