// Package version exposes the binary's build metadata.
//
// The variables are overridden at link time:
//
//	go build -ldflags "\
//	  -X github.com/probelab/swapnest/pkg/version.Version=v0.3.0 \
//	  -X github.com/probelab/swapnest/pkg/version.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/probelab/swapnest/pkg/version.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import "fmt"

//nolint:gochecknoglobals // populated via -ldflags
var (
	// Version is the semantic version of the binary.
	Version = "dev"

	// Commit is the VCS revision the binary was built from.
	Commit = "none"

	// Date is the UTC build timestamp.
	Date = "unknown"
)

// String formats the build metadata for the given binary name.
func String(binary string) string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s)", binary, Version, Commit, Date)
}
