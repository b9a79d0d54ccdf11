// Package version carries build metadata injected at link time.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release tag or "dev" for local builds
	Version = "dev"
	// CommitHash is the short git commit the binary was built from
	CommitHash = "unknown"
	// BuildTime is the UTC build timestamp
	BuildTime = "unknown"
)

// Info bundles the build metadata
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit"`
	BuildTime  string `json:"build_time"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the current build information
func Get() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string
func (i Info) String() string {
	return fmt.Sprintf("clipd %s (commit %s, built %s)", i.Version, i.CommitHash, i.BuildTime)
}
