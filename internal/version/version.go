// Package version provides build and version information.
package version

import (
	"fmt"
	"runtime"
)

// Build information set via ldflags.
var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// Date is the build date (set via -ldflags).
	Date = "unknown"
)

// String returns a one-line description of the build.
func String() string {
	return fmt.Sprintf("sidecar %s (commit: %s, built: %s, %s/%s)",
		Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}
