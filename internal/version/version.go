// Package version exposes build metadata injected via -ldflags.
package version

import "fmt"

// Set at build time, e.g.
//
//	go build -ldflags "-X stockroom/internal/version.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns a single-line description of the build.
func Info() string {
	return fmt.Sprintf("stockroom %s (commit %s, built %s)", Version, Commit, Date)
}
