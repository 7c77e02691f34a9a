package cmd

import (
	"fmt"
	"runtime"

	"heartbeatd/buildinfo"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			headerColor.Fprintln(out, "heartbeatd")
			printField(cmd, "Version", buildinfo.Version)
			printField(cmd, "Commit", buildinfo.Commit)
			printField(cmd, "Built", buildinfo.Date)
			printField(cmd, "Go", runtime.Version())
			printField(cmd, "Platform", runtime.GOOS+"/"+runtime.GOARCH)
			return nil
		},
	}
}

// printField prints a key-value field
func printField(cmd *cobra.Command, key, value string) {
	if value == "" {
		value = "(not set)"
	}
	out := cmd.OutOrStdout()
	infoColor.Fprintf(out, "  %-10s", key+":")
	fmt.Fprintf(out, " %s\n", value)
}
