// Package buildinfo carries version metadata set at link time:
//
//	go build -ldflags "-X heartbeatd/buildinfo.Version=1.0.0 -X heartbeatd/buildinfo.Commit=$(git rev-parse HEAD)"
package buildinfo

import "fmt"

var (
	// Version is the release version.
	Version = "dev"
	// Commit is the git commit the binary was built from.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)

// String returns a one-line summary of the build metadata.
func String() string {
	return fmt.Sprintf("heartbeatd %s (commit=%s, date=%s)", Version, Commit, Date)
}
