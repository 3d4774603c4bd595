package version

import "fmt"

var (
	// Version is the current application version
	Version = "0.1.0"
	// GitSHA is the git commit SHA, set with -ldflags at build time
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String describes the running build.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitSHA, BuildTime)
}
