// Package main is the entry point for heartbeatd.
package main

import (
	"context"
	"fmt"
	"os"

	"heartbeatd/cmd"
)

// main is the entry point.
func main() {
	if err := cmd.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
