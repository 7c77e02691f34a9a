package cmd

import (
	"fmt"

	"heartbeatd/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Load and validate configuration exactly as the service would, then print
the result as YAML. Exits non-zero if the configuration is invalid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configOptions(cmd.Flags()))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			source := cfg.Source
			if source == "" {
				source = "(defaults and environment)"
			}
			faintColor.Fprintf(out, "# source: %s\n", source)

			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			return enc.Close()
		},
	}
}
