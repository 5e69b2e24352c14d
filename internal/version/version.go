// Package version holds build-time identifiers set via -ldflags at release.
package version

// Version and BuildDate are overridden at link time, e.g.:
//
//	go build -ldflags "-X github.com/hexpatch/syspatch/internal/version.Version=1.2.0 \
//	  -X github.com/hexpatch/syspatch/internal/version.BuildDate=2026-07-31"
var (
	Version   = "dev"
	BuildDate = "unknown"
)
