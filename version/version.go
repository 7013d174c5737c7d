// Package version exposes build information stamped at link time.
package version

import "runtime"

// Set via -ldflags at build time.
var (
	GitRelease    = "dev"
	GitCommit     = "unknown"
	GitCommitDate = "unknown"
)

// GoInfo reports the Go toolchain and platform used for the build.
var GoInfo = runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH
